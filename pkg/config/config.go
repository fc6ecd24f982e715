// Package config loads the suplad configuration: server settings,
// logging, metrics, the HTTP API, and the static world of devices,
// channels and scenes the hub serves. The server has no persistence;
// the world is declared entirely in the config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/supla-lite/suplad/pkg/api"
)

// Config is the full suplad configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (SUPLAD_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server configures the SUPLA protocol listeners
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// API configures the HTTP server (user icons, health, metrics)
	API api.Config `mapstructure:"api" yaml:"api"`

	// Metrics enables the Prometheus registry. The exposition endpoint
	// lives on the API server under /metrics.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Devices declares the static world served to clients
	Devices []DeviceConfig `mapstructure:"devices" validate:"dive" yaml:"devices"`

	// Scenes declares named action sequences over the configured channels
	Scenes []SceneConfig `mapstructure:"scenes" validate:"dive" yaml:"scenes,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ServerConfig configures the SUPLA protocol side of the hub.
type ServerConfig struct {
	// Listen is the plain TCP listener address
	// Default: ":2015"
	Listen string `mapstructure:"listen" yaml:"listen"`

	// TLSListen is the TLS listener address, active only when both
	// CertFile and KeyFile are set
	// Default: ":2016"
	TLSListen string `mapstructure:"tls_listen" yaml:"tls_listen"`

	// CertFile and KeyFile hold the PEM certificate pair for the TLS
	// listener
	CertFile string `mapstructure:"certfile" yaml:"certfile,omitempty"`
	KeyFile  string `mapstructure:"keyfile" yaml:"keyfile,omitempty"`

	// APIURL is embedded into issued OAuth tokens so client apps can
	// locate the HTTP API
	APIURL string `mapstructure:"api_url" yaml:"api_url"`

	// LocationCaption names the single location announced to clients
	// Default: "Home"
	LocationCaption string `mapstructure:"location_caption" yaml:"location_caption"`

	// SuperUserEmail and SuperUserPassword back the superuser
	// authorization call. Authorization always fails when unset.
	SuperUserEmail    string `mapstructure:"superuser_email" yaml:"superuser_email,omitempty"`
	SuperUserPassword string `mapstructure:"superuser_password" yaml:"superuser_password,omitempty"`

	// ActivityTimeout is the initial per-connection silence limit.
	// Peers may adjust it within the protocol bounds (30s to 240s).
	// Default: 30s
	ActivityTimeout time.Duration `mapstructure:"activity_timeout" validate:"omitempty,gte=30s,lte=240s" yaml:"activity_timeout"`

	// MinProtoVersion is the lowest accepted peer protocol version
	// Default: 10
	MinProtoVersion uint8 `mapstructure:"min_proto_version" yaml:"min_proto_version"`
}

// MetricsConfig configures the Prometheus registry.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SUPLAD_*)
//  2. Configuration file
//  3. Default values
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	// If no config file was found, use defaults
	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides instructions if not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  suplad init\n\n"+
				"Or specify a custom config file:\n"+
				"  suplad <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  suplad init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Config files may contain the superuser password, keep them
	// owner-only.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file
// settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the SUPLAD_ prefix and underscores
	// Example: SUPLAD_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("SUPLAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/suplad/config.yaml
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file
// was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		// Explicit config file paths surface as os.PathError instead
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts
// strings to time.Duration, so config files can use "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to
// the current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "suplad")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "suplad")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default
// location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the
// init command).
func GetConfigDir() string {
	return getConfigDir()
}
