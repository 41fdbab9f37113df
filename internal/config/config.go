package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port          string `mapstructure:"port"`
	Mode          string `mapstructure:"mode"`
	SessionSecret string `mapstructure:"session_secret"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type CacheConfig struct {
	Size       int `mapstructure:"size"`
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

const (
	defaultSessionSecret = "secret_key_change_me"
	defaultJWTSecret     = "NoKeyInENV"
)

// Load reads .env (if any) and then the PETITION_* environment, e.g.
// PETITION_DATABASE_DSN or PETITION_SERVER_PORT.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	v := viper.New()
	v.SetEnvPrefix("PETITION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "4941")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.session_secret", defaultSessionSecret)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=petitions port=5432 sslmode=disable")
	v.SetDefault("database.log_mode", false)
	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("cache.size", 64)
	v.SetDefault("cache.ttl_seconds", 300)

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	for _, key := range c.DefaultSecrets() {
		log.Printf("⚠️ %s is left at its built-in default in release mode; set PETITION_%s", key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}
	return &c, nil
}

// DefaultSecrets lists the secret keys still at their built-in values while
// running in release mode. Debug and test modes never report any.
func (c *Config) DefaultSecrets() []string {
	if c.Server.Mode != "release" {
		return nil
	}
	var keys []string
	if c.JWT.Secret == defaultJWTSecret {
		keys = append(keys, "jwt.secret")
	}
	if c.Server.SessionSecret == defaultSessionSecret {
		keys = append(keys, "server.session_secret")
	}
	return keys
}
