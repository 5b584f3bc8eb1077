// Package cmd provides the Cobra commands for the StaticMagic CLI.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mubashirhassanpk/react-static-magic/cli/client"
	cliconfig "github.com/mubashirhassanpk/react-static-magic/cli/config"
	"github.com/mubashirhassanpk/react-static-magic/cli/output"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"

	// Global flags
	cfgFile     string
	profileName string
	outputFmt   string
	noHeaders   bool
	quiet       bool
	debug       bool

	// Shared across commands
	cfg       *cliconfig.Config
	apiClient *client.Client
	formatter *output.Formatter
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "staticmagic",
	Short: "StaticMagic CLI - Build React projects into static bundles",
	Long: `StaticMagic CLI turns React project archives into deployable static bundles.

Features:
  - Build: Run the build pipeline locally on a project ZIP
  - Builds: Upload projects to a StaticMagic server and track build jobs
  - Artifacts: Download generated site bundles and previews

Get started:
  staticmagic build ./project.zip           Build a project locally
  staticmagic builds submit ./project.zip   Upload a project to the server
  staticmagic --help                        Show available commands`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Silence errors only when --quiet is used
		cmd.SilenceErrors = quiet
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ~/.staticmagic/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "",
		"profile to use (default is current profile)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table",
		"output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&noHeaders, "no-headers", false,
		"hide table headers")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"minimal output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug output")

	// Bind environment variables
	viper.SetEnvPrefix("STATICMAGIC")
	_ = viper.BindEnv("server")  // STATICMAGIC_SERVER
	_ = viper.BindEnv("profile") // STATICMAGIC_PROFILE
	_ = viper.BindEnv("debug")   // STATICMAGIC_DEBUG

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(buildsCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(cliconfig.DefaultConfigDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// initializeClient sets up the API client for commands that need it
func initializeClient(cmd *cobra.Command, args []string) error {
	// Determine config path
	configPath := cfgFile
	if configPath == "" {
		configPath = cliconfig.DefaultConfigPath()
	}

	// Load config (use LoadOrCreate to allow env-var-only usage without a config file)
	var err error
	cfg, err = cliconfig.LoadOrCreate(configPath)
	if err != nil {
		return err
	}

	// Get profile name
	pName := profileName
	if pName == "" {
		pName = viper.GetString("profile")
	}
	if pName == "" {
		pName = cfg.CurrentProfile
	}

	// Try to get the profile, or build an ad-hoc one from the environment
	profile, err := cfg.GetProfile(pName)
	if err != nil {
		envServer := viper.GetString("server")
		if envServer == "" {
			return err
		}
		profile = &cliconfig.Profile{Server: envServer}
	}

	// Override server from environment if set
	if envServer := viper.GetString("server"); envServer != "" {
		profile.Server = envServer
	}

	// Override debug from environment if set
	if viper.GetBool("debug") {
		debug = true
	}

	// Profile-level output format applies unless --output was given explicitly
	if !rootCmd.PersistentFlags().Changed("output") && profile.OutputFormat != "" {
		outputFmt = profile.OutputFormat
	}

	// Create API client
	apiClient = client.NewClient(cfg, profile,
		client.WithDebug(debug),
		client.WithConfigPath(configPath),
	)

	// Create formatter
	format, err := output.ParseFormat(outputFmt)
	if err != nil {
		return err
	}
	formatter = output.NewFormatter(format, noHeaders, quiet)

	return nil
}

// requireClient wraps initializeClient for use in PreRunE
func requireClient(cmd *cobra.Command, args []string) error {
	return initializeClient(cmd, args)
}

// GetFormatter returns the output formatter (for use by subcommands)
func GetFormatter() *output.Formatter {
	if formatter == nil {
		format, _ := output.ParseFormat(outputFmt)
		formatter = output.NewFormatter(format, noHeaders, quiet)
	}
	return formatter
}

// GetClient returns the API client (for use by subcommands)
func GetClient() *client.Client {
	return apiClient
}

// GetConfig returns the CLI config (for use by subcommands)
func GetConfig() *cliconfig.Config {
	return cfg
}

// GetConfigPath returns the config file path
func GetConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return cliconfig.DefaultConfigPath()
}

// IsDebug returns true if debug mode is enabled
func IsDebug() bool {
	return debug
}
