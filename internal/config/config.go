package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Build     BuildConfig     `mapstructure:"build"`
	Retention RetentionConfig `mapstructure:"retention"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	BaseURL   string          `mapstructure:"base_url"`
	Debug     bool            `mapstructure:"debug"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"`
}

// Validate checks server settings for consistency
func (sc *ServerConfig) Validate() error {
	if sc.Address == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if sc.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}
	if sc.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}
	if sc.IdleTimeout <= 0 {
		return fmt.Errorf("idle_timeout must be positive")
	}
	if sc.BodyLimit <= 0 {
		return fmt.Errorf("body_limit must be positive")
	}
	return nil
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConnections  int32         `mapstructure:"max_connections"`
	MinConnections  int32         `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheck     time.Duration `mapstructure:"health_check_period"`
}

// Validate checks database settings for consistency
func (dc *DatabaseConfig) Validate() error {
	if dc.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}
	if dc.Port <= 0 || dc.Port > 65535 {
		return fmt.Errorf("database port must be between 1 and 65535")
	}
	if dc.User == "" {
		return fmt.Errorf("database user cannot be empty")
	}
	if dc.Database == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if dc.MaxConnections < dc.MinConnections {
		return fmt.Errorf("max_connections must be greater than or equal to min_connections")
	}
	return nil
}

// StorageConfig contains artifact storage settings
type StorageConfig struct {
	Provider      string `mapstructure:"provider"` // local or s3
	LocalPath     string `mapstructure:"local_path"`
	S3Endpoint    string `mapstructure:"s3_endpoint"`
	S3AccessKey   string `mapstructure:"s3_access_key"`
	S3SecretKey   string `mapstructure:"s3_secret_key"`
	S3Bucket      string `mapstructure:"s3_bucket"`
	S3Region      string `mapstructure:"s3_region"`
	S3UseSSL      bool   `mapstructure:"s3_use_ssl"`
	UploadBucket  string `mapstructure:"upload_bucket"`
	OutputBucket  string `mapstructure:"output_bucket"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"`
}

// Validate checks storage settings for consistency
func (sc *StorageConfig) Validate() error {
	if sc.Provider != "local" && sc.Provider != "s3" {
		return fmt.Errorf("storage provider must be 'local' or 's3'")
	}
	if sc.Provider == "s3" {
		if sc.S3Endpoint == "" || sc.S3AccessKey == "" ||
			sc.S3SecretKey == "" || sc.S3Bucket == "" {
			return fmt.Errorf("S3 configuration is incomplete")
		}
	}
	if sc.UploadBucket == "" || sc.OutputBucket == "" {
		return fmt.Errorf("upload_bucket and output_bucket must be set")
	}
	if sc.MaxUploadSize <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	return nil
}

// BuildConfig contains build pipeline settings
type BuildConfig struct {
	CDNBase     string        `mapstructure:"cdn_base"`
	AliasPrefix string        `mapstructure:"alias_prefix"`
	SourceRoot  string        `mapstructure:"source_root"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Validate checks build settings for consistency
func (bc *BuildConfig) Validate() error {
	if bc.CDNBase == "" {
		return fmt.Errorf("build cdn_base cannot be empty")
	}
	if bc.SourceRoot == "" {
		return fmt.Errorf("build source_root cannot be empty")
	}
	if bc.Timeout <= 0 {
		return fmt.Errorf("build timeout must be positive")
	}
	return nil
}

// RetentionConfig controls cleanup of finished build jobs
type RetentionConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	MaxAge   time.Duration `mapstructure:"max_age"`
	Schedule string        `mapstructure:"schedule"`
}

// Validate checks retention settings for consistency
func (rc *RetentionConfig) Validate() error {
	if !rc.Enabled {
		return nil
	}
	if rc.MaxAge <= 0 {
		return fmt.Errorf("retention max_age must be positive when retention is enabled")
	}
	if rc.Schedule == "" {
		return fmt.Errorf("retention schedule cannot be empty when retention is enabled")
	}
	return nil
}

// RateLimitConfig controls request rate limiting on the build endpoints
type RateLimitConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Backend          string `mapstructure:"backend"` // local or postgres
	UploadPerMinute  int    `mapstructure:"upload_per_minute"`
	ProcessPerMinute int    `mapstructure:"process_per_minute"`
}

// Validate checks rate limit settings for consistency
func (rl *RateLimitConfig) Validate() error {
	if !rl.Enabled {
		return nil
	}
	if rl.Backend != "" && rl.Backend != "local" && rl.Backend != "postgres" {
		return fmt.Errorf("rate limit backend must be 'local' or 'postgres'")
	}
	if rl.UploadPerMinute <= 0 {
		return fmt.Errorf("upload_per_minute must be positive when rate limiting is enabled")
	}
	if rl.ProcessPerMinute <= 0 {
		return fmt.Errorf("process_per_minute must be positive when rate limiting is enabled")
	}
	return nil
}

// TracingConfig contains OpenTelemetry tracing settings
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
}

// Validate checks tracing settings for consistency
func (tc *TracingConfig) Validate() error {
	if !tc.Enabled {
		return nil
	}
	if tc.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("sample_rate must be between 0.0 and 1.0")
	}
	return nil
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	viper.SetConfigName("staticmagic")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/staticmagic")

	// Set defaults
	setDefaults()

	// Enable environment variable support with underscore replacer
	viper.AutomaticEnv()
	viper.SetEnvPrefix("STATICMAGIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (if it exists)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment variables
		log.Info().Msg("No config file found, using environment variables and defaults")
	} else {
		log.Info().Str("file", viper.ConfigFileUsed()).Msg("Config file loaded")
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads environment variables from .env file
func loadEnvFile() error {
	// Check multiple locations for .env file
	locations := []string{
		".env",
		".env.local",
		"../.env", // For when running from subdirectories
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			if err := godotenv.Load(location); err != nil {
				return fmt.Errorf("error loading .env file from %s: %w", location, err)
			}
			log.Info().Str("file", location).Msg(".env file loaded")
			return nil
		}
	}

	return fmt.Errorf("no .env file found")
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.body_limit", 100*1024*1024) // 100MB project uploads

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.database", "staticmagic")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.min_connections", 5)
	viper.SetDefault("database.max_conn_lifetime", "1h")
	viper.SetDefault("database.max_conn_idle_time", "30m")
	viper.SetDefault("database.health_check_period", "1m")

	// Storage defaults
	viper.SetDefault("storage.provider", "local")
	viper.SetDefault("storage.local_path", "./storage")
	viper.SetDefault("storage.s3_region", "us-east-1")
	viper.SetDefault("storage.s3_use_ssl", true)
	viper.SetDefault("storage.upload_bucket", "project-uploads")
	viper.SetDefault("storage.output_bucket", "build-outputs")
	viper.SetDefault("storage.max_upload_size", 100*1024*1024) // 100MB

	// Build defaults
	viper.SetDefault("build.cdn_base", "https://esm.sh")
	viper.SetDefault("build.alias_prefix", "@/")
	viper.SetDefault("build.source_root", "src")
	viper.SetDefault("build.timeout", "2m")

	// Retention defaults
	viper.SetDefault("retention.enabled", true)
	viper.SetDefault("retention.max_age", "168h") // 7 days
	viper.SetDefault("retention.schedule", "0 * * * *")

	// Rate limit defaults
	viper.SetDefault("rate_limit.enabled", false)
	viper.SetDefault("rate_limit.backend", "local")
	viper.SetDefault("rate_limit.upload_per_minute", 10)
	viper.SetDefault("rate_limit.process_per_minute", 30)

	// Tracing defaults
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.endpoint", "localhost:4317")
	viper.SetDefault("tracing.service_name", "staticmagic")
	viper.SetDefault("tracing.environment", "development")
	viper.SetDefault("tracing.sample_rate", 1.0)
	viper.SetDefault("tracing.insecure", true)

	// General defaults
	viper.SetDefault("base_url", "http://localhost:8080")
	viper.SetDefault("debug", false)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Build.Validate(); err != nil {
		return err
	}
	if err := c.Retention.Validate(); err != nil {
		return err
	}
	if err := c.RateLimit.Validate(); err != nil {
		return err
	}
	if err := c.Tracing.Validate(); err != nil {
		return err
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string
func (dc *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		dc.User, dc.Password, dc.Host, dc.Port, dc.Database, dc.SSLMode)
}
