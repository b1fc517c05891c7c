// Package config loads deckgen settings from flags, environment and an optional yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts"`
	Images   ImagesConfig   `mapstructure:"images"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Output   OutputConfig   `mapstructure:"output"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api_key"`
	TextModel  string `mapstructure:"text_model"`
	ImageModel string `mapstructure:"image_model"`
}

type TimeoutsConfig struct {
	// Call bounds every model request. Zero disables the bound.
	Call time.Duration `mapstructure:"call"`
}

type ImagesConfig struct {
	// Concurrency caps in-flight image requests. Zero means one per requested image.
	Concurrency int `mapstructure:"concurrency"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

const EnvPrefix = "DECKGEN"

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	// the key is usually exported without a prefix
	_ = v.BindEnv("gemini.api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY")
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gemini.text_model", "gemini-2.5-flash")
	v.SetDefault("gemini.image_model", "imagen-4.0-generate-001")
	v.SetDefault("timeouts.call", 45*time.Second)
	v.SetDefault("images.concurrency", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("output.dir", ".")
}

// Load reads path if given, else ./deckgen.yaml when present, and unmarshals v.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("deckgen")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Images.Concurrency < 0 {
		return nil, fmt.Errorf("images.concurrency must be >= 0, got %d", cfg.Images.Concurrency)
	}
	if cfg.Timeouts.Call < 0 {
		return nil, fmt.Errorf("timeouts.call must be >= 0, got %s", cfg.Timeouts.Call)
	}
	cfg.Gemini.APIKey = strings.TrimSpace(cfg.Gemini.APIKey)
	return &cfg, nil
}
