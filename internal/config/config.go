package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "default-secret-change-in-production"

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql | postgres
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	DSN             string        `mapstructure:"dsn"` // overrides the discrete fields when set
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type StorageConfig struct {
	Root           string        `mapstructure:"root"`
	PublicBaseURL  string        `mapstructure:"public_base_url"`
	SignedURLTTL   time.Duration `mapstructure:"signed_url_ttl"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	SigningSecret  string        `mapstructure:"signing_secret"`
}

type SchedulerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	SessionSweep     string        `mapstructure:"session_sweep"`
	OverdueCheck     string        `mapstructure:"overdue_check"`
	SessionRetention time.Duration `mapstructure:"session_retention"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// legacyEnv maps config keys to the unprefixed variable names used by
// existing deployments.
var legacyEnv = map[string]string{
	"server.port":       "PORT",
	"auth.jwt_secret":   "JWT_SECRET",
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.name":     "DB_NAME",
	"database.dsn":      "DATABASE_URL",
	"log.level":         "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3001")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "sdmcrm")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 3*time.Minute)

	v.SetDefault("auth.jwt_secret", defaultJWTSecret)
	v.SetDefault("auth.session_ttl", 24*time.Hour)

	v.SetDefault("storage.root", "uploads")
	v.SetDefault("storage.public_base_url", "http://localhost:3001")
	v.SetDefault("storage.signed_url_ttl", time.Hour)
	v.SetDefault("storage.max_upload_bytes", int64(10<<20))
	v.SetDefault("storage.signing_secret", "")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.session_sweep", "@every 1h")
	v.SetDefault("scheduler.overdue_check", "0 9 * * *")
	v.SetDefault("scheduler.session_retention", 7*24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// LoadDotEnv loads the first .env found walking up from the working directory.
func LoadDotEnv() string {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// Load reads configuration from defaults, an optional file and the
// environment (SDM_ prefixed keys, e.g. SDM_DATABASE_HOST, plus legacy names).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SDM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "SDM_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
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

// Validate checks cross-field constraints and fills derived defaults.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql":
		if c.Database.Port == "" {
			c.Database.Port = "4000"
		}
	case "postgres":
		if c.Database.Port == "" {
			c.Database.Port = "5432"
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must not be empty")
	}
	if c.Storage.SigningSecret == "" {
		c.Storage.SigningSecret = c.Auth.JWTSecret
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return errors.New("storage.max_upload_bytes must be positive")
	}
	return nil
}

// UsesDefaultSecret reports whether the JWT secret was left at its insecure default.
func (c *Config) UsesDefaultSecret() bool {
	return c.Auth.JWTSecret == defaultJWTSecret
}
