package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/InyerM/spends-assistant-web-sub000/internal/common"
)

// Viper keys.
const (
	KeyDatabasePath      = "database.path"
	KeyLoggingLevel      = "logging.level"
	KeyLoggingFormat     = "logging.format"
	KeyDetectionPriority = "detection.priority"
	KeyResolveDuplicate  = "resolve.on_duplicate"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "SPENDS"

// Config is the typed application configuration.
type Config struct {
	Database  DatabaseConfig
	Logging   LoggingConfig
	Resolve   ResolveConfig
	Detection DetectionConfig
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string
	Format string
}

// DetectionConfig configures account-detection rule generation.
type DetectionConfig struct {
	Priority int
}

// ResolveConfig configures the resolve command.
type ResolveConfig struct {
	OnDuplicate string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, filepath.Join("~", ".local", "share", "spends", "spends.db"))
	v.SetDefault(KeyLoggingLevel, "info")
	v.SetDefault(KeyLoggingFormat, "console")
	v.SetDefault(KeyDetectionPriority, 50)
	v.SetDefault(KeyResolveDuplicate, "ask")
}

// Init points v at the config file and environment. An explicit cfgFile must
// exist; a missing default file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(ExpandPath(cfgFile))
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".config", "spends"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return nil
}

// Load reads the typed configuration out of v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Database:  DatabaseConfig{Path: ExpandPath(v.GetString(KeyDatabasePath))},
		Logging:   LoggingConfig{Level: v.GetString(KeyLoggingLevel), Format: v.GetString(KeyLoggingFormat)},
		Detection: DetectionConfig{Priority: v.GetInt(KeyDetectionPriority)},
		Resolve:   ResolveConfig{OnDuplicate: v.GetString(KeyResolveDuplicate)},
	}

	if strings.TrimSpace(cfg.Database.Path) == "" {
		return nil, fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyDatabasePath)
	}
	if cfg.Detection.Priority < 0 {
		return nil, fmt.Errorf("%w: %s must not be negative", common.ErrInvalidConfig, KeyDetectionPriority)
	}

	return cfg, nil
}
