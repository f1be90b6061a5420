package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Session SessionConfig `mapstructure:"session"`
	OIDC    OIDCConfig    `mapstructure:"oidc"`
	Log     LogConfig     `mapstructure:"log"`
	Media   MediaConfig   `mapstructure:"media"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port    string    `mapstructure:"port"`
	BaseURL string    `mapstructure:"baseURL"`
	TLS     TLSConfig `mapstructure:"tls"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// DBConfig holds database-specific configuration.
// Driver is one of "mysql", "sqlite3" (cgo) or "sqlite" (pure Go).
// MySQL DSNs must carry parseTime=true&loc=UTC&multiStatements=true&clientFoundRows=true.
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// SessionConfig holds session cookie configuration.
type SessionConfig struct {
	SecretKey string `mapstructure:"secretKey"`
	Lifetime  int    `mapstructure:"lifetime"` // hours
}

// OIDCConfig holds OIDC client configuration. OIDC login is disabled when IssuerURL is empty.
type OIDCConfig struct {
	IssuerURL    string `mapstructure:"issuer_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// Enabled reports whether an OIDC provider is configured.
func (c OIDCConfig) Enabled() bool {
	return c.IssuerURL != ""
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// MediaConfig controls where uploaded post images are kept.
type MediaConfig struct {
	Dir         string `mapstructure:"dir"`
	MaxUploadMB int64  `mapstructure:"maxUploadMB"`
}

// PlaceholderSecret is the value shipped in the sample config. The server refuses to start with it.
const PlaceholderSecret = "CHANGE_ME_IN_PRODUCTION_SECRET!!"

var ErrInsecureSecret = errors.New("session secret key not set")

// Validate checks settings the server cannot run without.
func (c *Config) Validate() error {
	if c.Session.SecretKey == "" || c.Session.SecretKey == PlaceholderSecret {
		return ErrInsecureSecret
	}
	return nil
}

// LoadConfig reads configuration from a .env file, a config file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.baseURL", "http://localhost:8080")
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "blogicum.db")
	v.SetDefault("session.lifetime", 24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("media.dir", "media")
	v.SetDefault("media.maxUploadMB", 5)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/blogicum/")
	v.AddConfigPath("$HOME/.blogicum")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		// Config file not found; proceed with defaults and env vars
	}

	v.SetEnvPrefix("BLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
