package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config file is named
const DefaultPath = "config.yaml"

type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Model    ModelConfig   `yaml:"model"`
	Assets   AssetsConfig  `yaml:"assets"`
	Page     PageConfig    `yaml:"page"`
	Metrics  MetricsConfig `yaml:"metrics"`
	LogLevel string        `yaml:"log_level"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type ModelConfig struct {
	Path string `yaml:"path"`
}

type AssetsConfig struct {
	GunfireURL       string        `yaml:"gunfire_url"`
	SatisfactionURL  string        `yaml:"satisfaction_url"`
	ChatbotURL       string        `yaml:"chatbot_url"`
	FireworksURL     string        `yaml:"fireworks_url"`
	FallbackImageURL string        `yaml:"fallback_image_url"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxBytes         int64         `yaml:"max_bytes"`
}

type PageConfig struct {
	Title       string `yaml:"title"`
	Icon        string `yaml:"icon"`
	SnowOnEntry bool   `yaml:"snow_on_entry"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8501",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   5 * time.Second,
		},
		Model: ModelConfig{
			Path: "models/random_forest_model.json",
		},
		Assets: AssetsConfig{
			GunfireURL:       "https://assets6.lottiefiles.com/packages/lf20_j1adxtyb.json",
			ChatbotURL:       "https://assets4.lottiefiles.com/packages/lf20_4kx2q32n.json",
			FireworksURL:     "https://assets3.lottiefiles.com/packages/lf20_V9t630.json",
			SatisfactionURL:  "https://assets5.lottiefiles.com/packages/lf20_HJp9Uw.json",
			FallbackImageURL: "https://www.example.com/static_image.png",
			MaxBytes:         8 << 20,
		},
		Page: PageConfig{
			Title:       "Customer Churn Predictor",
			Icon:        "💡",
			SnowOnEntry: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, an optional .env file, an
// optional YAML file and the environment, in that order. An empty path
// means CHURNFORM_CONFIG or config.yaml; only an explicitly named file
// must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	required := path != ""
	if path == "" {
		path = os.Getenv("CHURNFORM_CONFIG")
		required = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case required || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	// Override from environment
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("CHURNFORM_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CHURNFORM_MODEL_PATH"); v != "" {
		cfg.Model.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("config: server.addr is required")
	}
	if c.Model.Path == "" {
		return errors.New("config: model.path is required")
	}
	if c.Assets.Timeout < 0 {
		return fmt.Errorf("config: assets.timeout must not be negative, got %s", c.Assets.Timeout)
	}
	if c.Metrics.Enabled && (c.Metrics.Path == "" || c.Metrics.Path[0] != '/') {
		return fmt.Errorf("config: metrics.path must start with /, got %q", c.Metrics.Path)
	}
	return nil
}
