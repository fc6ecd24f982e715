package config

import (
	"strings"
	"time"

	"github.com/supla-lite/suplad/pkg/proto"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets SUPLA listener defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Listen == "" {
		cfg.Listen = ":2015"
	}
	if cfg.TLSListen == "" {
		cfg.TLSListen = ":2016"
	}
	if cfg.LocationCaption == "" {
		cfg.LocationCaption = "Home"
	}
	if cfg.ActivityTimeout == 0 {
		cfg.ActivityTimeout = time.Duration(proto.ActivityTimeoutDefault) * time.Second
	}
	if cfg.MinProtoVersion == 0 {
		cfg.MinProtoVersion = proto.VersionMin
	}
}

// GetDefaultConfig returns a Config struct with all default values
// applied and an empty world.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
