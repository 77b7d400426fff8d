package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	AppDirName = "AIRenderPanel"
	EnvPrefix  = "AIRENDER"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Log        LogConfig        `mapstructure:"log"`
	Gemini     EndpointConfig   `mapstructure:"gemini"`
	Vertex     EndpointConfig   `mapstructure:"vertex"`
	Models     ModelsConfig     `mapstructure:"models"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	Generation GenerationConfig `mapstructure:"generation"`
	History    HistoryConfig    `mapstructure:"history"`
	Bridge     BridgeConfig     `mapstructure:"bridge"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Serve      ServeConfig      `mapstructure:"serve"`
}

type AppConfig struct {
	ConfigRoot string `mapstructure:"config_root"`
	DevMode    bool   `mapstructure:"dev_mode"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type EndpointConfig struct {
	APIBase string `mapstructure:"api_base"`
}

type ModelsConfig struct {
	Pro   string `mapstructure:"pro"`
	Flash string `mapstructure:"flash"`
}

type ProviderConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`
}

type GenerationConfig struct {
	MaxCount int `mapstructure:"max_count"`
}

type HistoryConfig struct {
	Limit         int `mapstructure:"limit"`
	ThumbnailSize int `mapstructure:"thumbnail_size"`
}

type BridgeConfig struct {
	OutboxSize int `mapstructure:"outbox_size"`
}

type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type ServeConfig struct {
	Listen string `mapstructure:"listen"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.config_root", DefaultConfigRoot())
	v.SetDefault("app.dev_mode", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("gemini.api_base", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("vertex.api_base", "https://aiplatform.googleapis.com/v1")
	v.SetDefault("models.pro", "gemini-3-pro-image-preview")
	v.SetDefault("models.flash", "gemini-2.5-flash-image")
	v.SetDefault("provider.request_timeout", 180*time.Second)
	v.SetDefault("provider.rate_limit", 0.0)
	v.SetDefault("provider.rate_burst", 1)
	v.SetDefault("generation.max_count", 8)
	v.SetDefault("history.limit", 50)
	v.SetDefault("history.thumbnail_size", 128)
	v.SetDefault("bridge.outbox_size", 256)
	v.SetDefault("metrics.listen", "")
	v.SetDefault("database.path", "")
	v.SetDefault("serve.listen", "127.0.0.1:8765")
}

// Load reads configuration from path (optional) and AIRENDER_* environment
// variables. An empty path searches for airender.yaml in the working directory
// and the default config root; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("airender")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultConfigRoot())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	root, err := homedir.Expand(cfg.App.ConfigRoot)
	if err != nil {
		return nil, err
	}
	cfg.App.ConfigRoot = root

	if cfg.History.Limit <= 0 {
		cfg.History.Limit = 50
	}
	if cfg.History.ThumbnailSize <= 0 {
		cfg.History.ThumbnailSize = 128
	}
	if cfg.Generation.MaxCount <= 0 {
		cfg.Generation.MaxCount = 1
	}
	if cfg.Bridge.OutboxSize <= 0 {
		cfg.Bridge.OutboxSize = 256
	}
	return cfg, nil
}

// DefaultConfigRoot is <UserConfigDir>/AIRenderPanel, falling back to the
// home directory and finally the working directory.
func DefaultConfigRoot() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppDirName)
	}
	if home, err := homedir.Dir(); err == nil {
		return filepath.Join(home, "."+strings.ToLower(AppDirName))
	}
	return AppDirName
}
