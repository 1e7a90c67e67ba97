package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix scopes environment overrides, e.g. INSIGHTX_SERVER_ADDR.
const EnvPrefix = "INSIGHTX"

// Config is the root configuration for the dashboard binaries.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Refresh       RefreshConfig       `mapstructure:"refresh"`
	Animation     AnimationConfig     `mapstructure:"animation"`
	Generator     GeneratorConfig     `mapstructure:"generator"`
	Charts        ChartsConfig        `mapstructure:"charts"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Logger        LoggerConfig        `mapstructure:"logger"`
	Presets       PresetsConfig       `mapstructure:"presets"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// Transport is "fiber" (go-router over fiber, websocket events) or "http" (net/http, SSE).
	Transport      string        `mapstructure:"transport"`
	BasePath       string        `mapstructure:"base_path"`
	CounterTimeout time.Duration `mapstructure:"counter_timeout"`
}

// MetricsConfig describes the Prometheus listener. An empty addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
	Path string `mapstructure:"path"`
}

type RefreshConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

type AnimationConfig struct {
	Duration      time.Duration `mapstructure:"duration"`
	FrameInterval time.Duration `mapstructure:"frame_interval"`
}

// GeneratorConfig tunes the mock data source. Seed 0 picks a random seed.
type GeneratorConfig struct {
	Seed          uint64  `mapstructure:"seed"`
	SummaryJitter float64 `mapstructure:"summary_jitter"`
}

type ChartsConfig struct {
	Theme      string        `mapstructure:"theme"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	AssetsHost string        `mapstructure:"assets_host"`
}

type NotificationsConfig struct {
	Visible    time.Duration `mapstructure:"visible"`
	Transition time.Duration `mapstructure:"transition"`
}

// LoggerConfig configures the zap logger.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// PresetsConfig points at an extra preset manifest merged over the built-ins.
type PresetsConfig struct {
	Path string `mapstructure:"path"`
}

// Load merges defaults, an optional YAML file and INSIGHTX_* environment
// variables. When path is empty it looks for insightx.yaml in . and ./configs;
// a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("insightx")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", describe(path), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults registers every default on v. Keys must be known to viper for
// AutomaticEnv to reach them during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.transport", "fiber")
	v.SetDefault("server.base_path", "/insights")
	v.SetDefault("server.counter_timeout", 10*time.Second)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("refresh.delay", 800*time.Millisecond)
	v.SetDefault("animation.duration", 1500*time.Millisecond)
	v.SetDefault("animation.frame_interval", 16*time.Millisecond)
	v.SetDefault("generator.seed", 0)
	v.SetDefault("generator.summary_jitter", 0.0)
	v.SetDefault("charts.theme", "westeros")
	v.SetDefault("charts.cache_ttl", 5*time.Minute)
	v.SetDefault("charts.assets_host", "")
	v.SetDefault("notifications.visible", 3*time.Second)
	v.SetDefault("notifications.transition", 300*time.Millisecond)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("presets.path", "")
}

// Validate rejects values the binaries cannot run with.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case "fiber", "http":
	default:
		return fmt.Errorf("config: unknown server.transport %q", c.Server.Transport)
	}
	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: unknown logger.format %q", c.Logger.Format)
	}
	if c.Generator.SummaryJitter < 0 || c.Generator.SummaryJitter >= 1 {
		return fmt.Errorf("config: generator.summary_jitter must be in [0,1), got %v", c.Generator.SummaryJitter)
	}
	if c.Refresh.Delay < 0 {
		return fmt.Errorf("config: refresh.delay must not be negative")
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config: server.base_path must start with /, got %q", c.Server.BasePath)
	}
	return nil
}

func describe(path string) string {
	if path == "" {
		return "insightx.yaml"
	}
	return path
}
