// Package config loads tasker settings from defaults, an optional YAML file,
// a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverFile     = "file"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	// MinProductionSecret is the shortest secret accepted in production.
	MinProductionSecret = 32
)

type Config struct {
	Environment    string        `mapstructure:"environment" yaml:"environment"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level"`
	DataDir        string        `mapstructure:"data_dir" yaml:"data_dir"`
	SecretKey      string        `mapstructure:"secret_key" yaml:"secret_key"`
	PasswordScheme string        `mapstructure:"password_scheme" yaml:"password_scheme"`
	Storage        StorageConfig `mapstructure:"storage" yaml:"storage"`
	Server         ServerConfig  `mapstructure:"server" yaml:"server"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	LoginAttempts  int           `mapstructure:"login_attempts" yaml:"login_attempts"`
	LoginWindow    time.Duration `mapstructure:"login_window" yaml:"login_window"`
}

// Options says where to look for settings. Empty fields use the defaults.
type Options struct {
	// ConfigFile is a YAML file that must exist. When empty, ./tasker.yaml
	// is read if present.
	ConfigFile string
	// EnvFile defaults to ".env"; a missing file is ignored.
	EnvFile string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", EnvDevelopment)
	v.SetDefault("log_level", "info")
	v.SetDefault("data_dir", "data")
	v.SetDefault("secret_key", "")
	v.SetDefault("password_scheme", "legacy")
	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.login_attempts", 5)
	v.SetDefault("server.login_window", 15*time.Minute)
}

// Load reads and validates the configuration.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TASKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("secret_key", "TASKER_SECRET_KEY", "SECRET_KEY"); err != nil {
		return nil, err
	}

	v.SetConfigType("yaml")
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("tasker")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading tasker.yaml: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	c.PasswordScheme = strings.ToLower(strings.TrimSpace(c.PasswordScheme))
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == DriverSQLite && c.Storage.DSN == "" {
		c.Storage.DSN = filepath.Join(c.DataDir, "tasker.db")
	}

	origins := c.Server.AllowedOrigins[:0]
	for _, o := range c.Server.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.Server.AllowedOrigins = origins
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("environment must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Environment)
	}
	switch c.PasswordScheme {
	case "legacy", "bcrypt":
	default:
		return fmt.Errorf("password_scheme must be legacy or bcrypt, got %q", c.PasswordScheme)
	}
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.Server.LoginAttempts <= 0 || c.Server.LoginWindow <= 0 {
		return errors.New("server.login_attempts and server.login_window must be positive")
	}

	if c.Environment == EnvProduction {
		if c.SecretKey == "" {
			return errors.New("secret_key must be set in production")
		}
		if len(c.SecretKey) < MinProductionSecret {
			return fmt.Errorf("secret_key must be at least %d bytes in production", MinProductionSecret)
		}
	}
	return nil
}

// InsecureSecret reports whether tokens will be signed with the built-in
// placeholder secret.
func (c *Config) InsecureSecret() bool {
	return c.SecretKey == ""
}
