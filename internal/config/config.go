package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/where2work/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Store  store.Config `yaml:"store" mapstructure:"store"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Chart  ChartConfig  `yaml:"chart" mapstructure:"chart"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the company data file.
type DataConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	BandsFile string `yaml:"bands_file" mapstructure:"bands_file"`
	Watch     bool   `yaml:"watch" mapstructure:"watch"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	RateLimitRPS        float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst      int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	CORSOrigins         []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	SessionTTLHours     int      `yaml:"session_ttl_hours" mapstructure:"session_ttl_hours"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
	TrustProxy          bool     `yaml:"trust_proxy" mapstructure:"trust_proxy"`
}

// CacheConfig configures the filtered-view cache. TTLSecs <= 0 disables it.
type CacheConfig struct {
	TTLSecs     int `yaml:"ttl_secs" mapstructure:"ttl_secs"`
	CleanupSecs int `yaml:"cleanup_secs" mapstructure:"cleanup_secs"`
}

// ChartConfig configures bubble chart layout and size.
type ChartConfig struct {
	Seed   int64 `yaml:"seed" mapstructure:"seed"`
	Width  int   `yaml:"width" mapstructure:"width"`
	Height int   `yaml:"height" mapstructure:"height"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("WHERE2WORK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.path", "data.csv")
	v.SetDefault("data.bands_file", "")
	v.SetDefault("data.watch", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_rps", 20.0)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.session_ttl_hours", 24*30)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("store.driver", store.DriverMemory)
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.sqlite_path", "where2work.db")
	v.SetDefault("cache.ttl_secs", 300)
	v.SetDefault("cache.cleanup_secs", 600)
	v.SetDefault("chart.seed", 42)
	v.SetDefault("chart.width", 960)
	v.SetDefault("chart.height", 260)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields a command mode depends on. Modes: serve, data, store.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		errs = append(errs, c.validateData()...)
		errs = append(errs, c.validateStore()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimitRPS < 0 {
			errs = append(errs, "server.rate_limit_rps must be >= 0")
		}
		if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
			errs = append(errs, "server.rate_limit_burst must be >= 1 when rate limiting is enabled")
		}
		if c.Chart.Width < 0 || c.Chart.Height < 0 {
			errs = append(errs, "chart.width and chart.height must be >= 0")
		}
	case "data":
		errs = append(errs, c.validateData()...)
	case "store":
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.New(fmt.Sprintf("config: %s", strings.Join(errs, "; ")))
	}
	return nil
}

func (c *Config) validateData() []string {
	if strings.TrimSpace(c.Data.Path) == "" {
		return []string{"data.path is required"}
	}
	return nil
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case store.DriverMemory, store.DriverSQLite:
		return nil
	case store.DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required for the postgres driver"}
		}
		return nil
	default:
		return []string{fmt.Sprintf("store.driver %q is not one of memory, sqlite, postgres", c.Store.Driver)}
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
