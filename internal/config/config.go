package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingAccessToken   = errors.New("LINE_CHANNEL_ACCESS_TOKEN is not set")
	ErrMissingChannelSecret = errors.New("LINE_CHANNEL_SECRET is not set")
)

type Config struct {
	Line      LineConfig      `mapstructure:"line"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Retention RetentionConfig `mapstructure:"retention"`
}

type LineConfig struct {
	ChannelAccessToken string        `mapstructure:"channel_access_token"`
	ChannelSecret      string        `mapstructure:"channel_secret"`
	APIBaseURL         string        `mapstructure:"api_base_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// AdminToken guards the /api/v1 routes. Empty leaves them open.
	AdminToken string `mapstructure:"admin_token"`
}

type StorageConfig struct {
	Driver string       `mapstructure:"driver"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RetentionConfig struct {
	EventTTL time.Duration `mapstructure:"event_ttl"`
}

// Load reads defaults, then the config file, then a .env file in the working
// directory, then the process environment. Later sources win.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("lineapi")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/lineapi")
	}

	setDefaults(v)

	v.SetEnvPrefix("LINEAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The vendor's conventional names, without our prefix.
	_ = v.BindEnv("line.channel_access_token", "LINE_CHANNEL_ACCESS_TOKEN")
	_ = v.BindEnv("line.channel_secret", "LINE_CHANNEL_SECRET")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the channel credentials.
func (c *Config) Validate() error {
	return c.Line.Validate()
}

func (c LineConfig) Validate() error {
	var result *multierror.Error
	if strings.TrimSpace(c.ChannelAccessToken) == "" {
		result = multierror.Append(result, ErrMissingAccessToken)
	}
	if strings.TrimSpace(c.ChannelSecret) == "" {
		result = multierror.Append(result, ErrMissingChannelSecret)
	}
	return result.ErrorOrNil()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("line.channel_access_token", "")
	v.SetDefault("line.channel_secret", "")
	v.SetDefault("line.api_base_url", "https://api.line.me")
	v.SetDefault("line.timeout", 30*time.Second)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.admin_token", "")

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite.path", "./data/lineapi.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("retention.event_ttl", 7*24*time.Hour)
}
