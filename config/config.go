package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"borrower-etl/apperrors"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. ETL_STORAGE_DSN
const EnvPrefix = "ETL"

// Config holds all application-level configuration
type Config struct {
	Input   InputConfig   `mapstructure:"input"`
	Storage StorageConfig `mapstructure:"storage"`
	Report  ReportConfig  `mapstructure:"report"`
	Logger  LoggerConfig  `mapstructure:"logger"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type InputConfig struct {
	Path      string `mapstructure:"path"`
	Delimiter string `mapstructure:"delimiter"`
}

type StorageConfig struct {
	// Driver is one of sqlite, postgres, pgx
	Driver         string        `mapstructure:"driver"`
	DSN            string        `mapstructure:"dsn"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
}

type ReportConfig struct {
	Path string `mapstructure:"path"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

type MetricsConfig struct {
	// File is a Prometheus textfile target; empty disables the export
	File string `mapstructure:"file"`
}

// flagKeys maps command-line flag names onto config keys
var flagKeys = map[string]string{
	"input":        "input.path",
	"delimiter":    "input.delimiter",
	"driver":       "storage.driver",
	"db":           "storage.dsn",
	"output":       "report.path",
	"log-level":    "logger.level",
	"metrics-file": "metrics.file",
}

var knownDrivers = map[string]bool{"sqlite": true, "postgres": true, "pgx": true}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Input:   InputConfig{Path: "5k_borrowers_data.csv", Delimiter: ","},
		Storage: StorageConfig{Driver: "sqlite", DSN: "debt_collection.db", ConnectTimeout: 5 * time.Second},
		Report:  ReportConfig{Path: "analysis_results.txt"},
		Logger:  LoggerConfig{Level: "info"},
	}
}

// Load resolves configuration from defaults, an optional config file, .env,
// ETL_* environment variables and finally any flags the caller set.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	def := Default()
	v.SetDefault("input.path", def.Input.Path)
	v.SetDefault("input.delimiter", def.Input.Delimiter)
	v.SetDefault("storage.driver", def.Storage.Driver)
	v.SetDefault("storage.dsn", def.Storage.DSN)
	v.SetDefault("storage.connectTimeout", def.Storage.ConnectTimeout)
	v.SetDefault("report.path", def.Report.Path)
	v.SetDefault("logger.level", def.Logger.Level)
	v.SetDefault("metrics.file", def.Metrics.File)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("etl")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input.Path) == "" {
		return apperrors.NewConfigError("input.path", "must not be empty")
	}
	if utf8.RuneCountInString(c.Input.Delimiter) != 1 {
		return apperrors.NewConfigError("input.delimiter", fmt.Sprintf("must be a single character, got %q", c.Input.Delimiter))
	}
	if !knownDrivers[c.Storage.Driver] {
		return apperrors.NewConfigError("storage.driver", fmt.Sprintf("unknown driver %q", c.Storage.Driver))
	}
	if strings.TrimSpace(c.Storage.DSN) == "" {
		return apperrors.NewConfigError("storage.dsn", "must not be empty")
	}
	if c.Storage.Driver == "sqlite" && isMemoryDSN(c.Storage.DSN) {
		// load and analysis use separate connections, so an in-memory table would not survive
		return apperrors.NewConfigError("storage.dsn", "in-memory sqlite databases are not supported")
	}
	if strings.TrimSpace(c.Report.Path) == "" {
		return apperrors.NewConfigError("report.path", "must not be empty")
	}
	return nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// DelimiterRune returns the configured field separator
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Input.Delimiter)
	return r
}
