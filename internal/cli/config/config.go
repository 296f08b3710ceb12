package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conduit-lang/clsproxy/internal/logging"
	"github.com/conduit-lang/clsproxy/pkg/proxy"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config represents the clsproxy CLI configuration
type Config struct {
	Namespace       string         `mapstructure:"namespace"`
	Cache           bool           `mapstructure:"cache"`
	ConstructPolicy string         `mapstructure:"construct_policy"`
	Log             logging.Config `mapstructure:"log"`
	Server          ServerConfig   `mapstructure:"server"`
	Database        DatabaseConfig `mapstructure:"database"`
}

// ServerConfig represents the demo server configuration
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig represents the database deposits are journaled to
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// Load loads the configuration. With an empty path it looks for
// clsproxy.yml or clsproxy.yaml in the working directory and falls back to
// defaults when none exists; an explicit path must exist. CLSPROXY_*
// environment variables override file values (CLSPROXY_SERVER_PORT, ...).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("namespace", proxy.DefaultNamespace)
	v.SetDefault("cache", true)
	v.SetDefault("construct_policy", proxy.RunAtCallTime.String())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "file::memory:?cache=shared")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("clsproxy")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Enable environment variable support
	v.SetEnvPrefix("CLSPROXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// ProxyConfig converts the file configuration into wrapping options
func (c *Config) ProxyConfig(logger *zap.Logger) (proxy.Config, error) {
	policy, err := proxy.ParseConstructPolicy(c.ConstructPolicy)
	if err != nil {
		return proxy.Config{}, err
	}

	cfg := proxy.DefaultConfig()
	cfg.Namespace = c.Namespace
	cfg.DisableCache = !c.Cache
	cfg.ConstructPolicy = policy
	cfg.Logger = logger
	return cfg, cfg.Validate()
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Namespace == "" {
		return fmt.Errorf("namespace must not be empty")
	}
	if _, err := proxy.ParseConstructPolicy(cfg.ConstructPolicy); err != nil {
		return fmt.Errorf("construct_policy must be 'run' or 'bind', got: %s", cfg.ConstructPolicy)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", cfg.Server.Port)
	}
	if cfg.Database.Driver == "" {
		return fmt.Errorf("database.driver must not be empty")
	}
	return nil
}
