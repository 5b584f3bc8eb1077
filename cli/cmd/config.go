package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cliconfig "github.com/mubashirhassanpk/react-static-magic/cli/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `View and modify CLI configuration settings.`,
}

var profileServer string

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new configuration file",
	Long: `Create a new configuration file with default settings.

Examples:
  staticmagic config init`,
	RunE: runConfigInit,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display current configuration",
	Long: `Show the current CLI configuration.

Examples:
  staticmagic config view
  staticmagic config view --output json`,
	RunE: runConfigView,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Available keys:
  current_profile     - Active profile name
  defaults.output     - Default output format (table, json, yaml)
  defaults.no_headers - Hide table headers by default
  defaults.quiet      - Quiet mode by default

Examples:
  staticmagic config set defaults.output json
  staticmagic config set current_profile staging`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value.

Examples:
  staticmagic config get defaults.output
  staticmagic config get current_profile`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List all profiles",
	Long:  `Display all configured profiles.`,
	RunE:  runConfigProfiles,
}

var configProfilesAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a new profile",
	Long: `Add a new profile pointing at a StaticMagic server.

Examples:
  staticmagic config profiles add staging --server https://staging.example.com
  staticmagic config profiles add local --server http://localhost:8080`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigProfilesAdd,
}

var configProfilesRemoveCmd = &cobra.Command{
	Use:     "remove [name]",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a profile",
	Long: `Remove a profile.

Examples:
  staticmagic config profiles remove staging`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigProfilesRemove,
}

func init() {
	configProfilesAddCmd.Flags().StringVar(&profileServer, "server", "", "StaticMagic server URL for the profile")

	configProfilesCmd.AddCommand(configProfilesAddCmd)
	configProfilesCmd.AddCommand(configProfilesRemoveCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configProfilesCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigPath()

	// Check if config already exists
	if _, err := cliconfig.Load(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	// Create new config
	cfg := cliconfig.New()

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("Run 'staticmagic config profiles add NAME --server URL' to add a profile.")
	return nil
}

func runConfigView(cmd *cobra.Command, args []string) error {
	configPath := GetConfigPath()

	cfg, err := cliconfig.Load(configPath)
	if err != nil {
		return err
	}

	formatter := GetFormatter()
	return formatter.Print(cfg)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]
	configPath := GetConfigPath()

	cfg, err := cliconfig.LoadOrCreate(configPath)
	if err != nil {
		return err
	}

	switch strings.ToLower(key) {
	case "defaults.output":
		cfg.Defaults.Output = value
	case "defaults.no_headers":
		cfg.Defaults.NoHeaders = value == "true" || value == "1"
	case "defaults.quiet":
		cfg.Defaults.Quiet = value == "true" || value == "1"
	case "current_profile":
		if _, err := cfg.GetProfile(value); err != nil {
			return err
		}
		cfg.CurrentProfile = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	configPath := GetConfigPath()

	cfg, err := cliconfig.Load(configPath)
	if err != nil {
		return err
	}

	var value string

	switch strings.ToLower(key) {
	case "version":
		value = cfg.Version
	case "current_profile":
		value = cfg.CurrentProfile
	case "defaults.output":
		value = cfg.Defaults.Output
	case "defaults.no_headers":
		value = fmt.Sprintf("%v", cfg.Defaults.NoHeaders)
	case "defaults.quiet":
		value = fmt.Sprintf("%v", cfg.Defaults.Quiet)
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	fmt.Println(value)
	return nil
}

func runConfigProfiles(cmd *cobra.Command, args []string) error {
	configPath := GetConfigPath()

	cfg, err := cliconfig.Load(configPath)
	if err != nil {
		fmt.Println("No profiles configured. Run 'staticmagic config profiles add' to create one.")
		return nil
	}

	formatter := GetFormatter()

	if len(cfg.Profiles) == 0 {
		fmt.Println("No profiles configured.")
		return nil
	}

	profiles := make([]map[string]interface{}, 0, len(cfg.Profiles))
	for name, profile := range cfg.Profiles {
		current := name == cfg.CurrentProfile
		profiles = append(profiles, map[string]interface{}{
			"name":    name,
			"server":  profile.Server,
			"current": current,
		})
	}

	if formatter.Format == "table" {
		for _, p := range profiles {
			current := ""
			if p["current"].(bool) {
				current = " *"
			}
			fmt.Printf("%s%s\n", p["name"], current)
			fmt.Printf("  Server: %s\n", p["server"])
		}
	} else {
		formatter.Print(profiles)
	}

	return nil
}

func runConfigProfilesAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	configPath := GetConfigPath()

	cfg, err := cliconfig.LoadOrCreate(configPath)
	if err != nil {
		return err
	}

	if _, exists := cfg.Profiles[name]; exists {
		return fmt.Errorf("profile '%s' already exists", name)
	}

	cfg.SetProfile(&cliconfig.Profile{
		Name:   name,
		Server: profileServer,
	})

	// First profile becomes current automatically
	if cfg.CurrentProfile == "" {
		cfg.CurrentProfile = name
	}

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Profile '%s' created.\n", name)
	if profileServer == "" {
		fmt.Println("Profile has no server set - export STATICMAGIC_SERVER or re-create it with --server.")
	}
	return nil
}

func runConfigProfilesRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	configPath := GetConfigPath()

	cfg, err := cliconfig.Load(configPath)
	if err != nil {
		return err
	}

	if err := cfg.DeleteProfile(name); err != nil {
		return err
	}

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Profile '%s' removed.\n", name)
	return nil
}
