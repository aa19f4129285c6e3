// Package config loads process configuration from an optional YAML file and
// environment variables. Environment variables win; nested keys map to
// upper-case names joined by underscores (optimizer.days -> OPTIMIZER_DAYS).
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config stores all configuration of the service.
type Config struct {
	Port          string    `mapstructure:"port"`
	DatabaseURL   string    `mapstructure:"database_url"`
	DBMigrate     bool      `mapstructure:"db_migrate"`
	MigrationsDir string    `mapstructure:"migrations_dir"`
	RedisURL      string    `mapstructure:"redis_url"`
	RateRPS       float64   `mapstructure:"rate_rps"`
	RateBurst     int       `mapstructure:"rate_burst"`
	LogLevel      string    `mapstructure:"log_level"`
	LogFormat     string    `mapstructure:"log_format"`
	Auth          Auth      `mapstructure:"auth"`
	Optimizer     Optimizer `mapstructure:"optimizer"`
	Webhooks      Webhooks  `mapstructure:"webhooks"`
}

// Auth selects how bearer tokens are verified.
type Auth struct {
	Mode       string `mapstructure:"mode"` // dev or hmac
	HMACSecret string `mapstructure:"hmac_secret"`
}

// Optimizer holds request defaults applied when a caller omits a parameter.
type Optimizer struct {
	Days                int                `mapstructure:"days"`
	BudgetPerDay        float64            `mapstructure:"budget_per_day"`
	TimePerDay          float64            `mapstructure:"time_per_day"`
	AvgSpeedKmh         float64            `mapstructure:"avg_speed_kmh"`
	TravelCostPerKm     float64            `mapstructure:"travel_cost_per_km"`
	Alpha               float64            `mapstructure:"alpha"`
	TimeLimitSeconds    int                `mapstructure:"time_limit_seconds"`
	MaxTimeLimitSeconds int                `mapstructure:"max_time_limit_seconds"`
	CategoryWeights     map[string]float64 `mapstructure:"category_weights"`
}

// Webhooks tunes delivery of plan events to tenant URLs.
type Webhooks struct {
	MaxAttempts    int `mapstructure:"max_attempts"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	Workers        int `mapstructure:"workers"`
	QueueSize      int `mapstructure:"queue_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("database_url", "")
	v.SetDefault("db_migrate", true)
	v.SetDefault("migrations_dir", "db/migrations")
	v.SetDefault("redis_url", "")
	v.SetDefault("rate_rps", 0)
	v.SetDefault("rate_burst", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("auth.mode", "dev")
	v.SetDefault("auth.hmac_secret", "")

	v.SetDefault("optimizer.days", 3)
	v.SetDefault("optimizer.budget_per_day", 1500)
	v.SetDefault("optimizer.time_per_day", 8.0)
	v.SetDefault("optimizer.avg_speed_kmh", 20.0)
	v.SetDefault("optimizer.travel_cost_per_km", 20.0)
	v.SetDefault("optimizer.alpha", 0.01)
	v.SetDefault("optimizer.time_limit_seconds", 60)
	v.SetDefault("optimizer.max_time_limit_seconds", 300)
	v.SetDefault("webhooks.max_attempts", 5)
	v.SetDefault("webhooks.timeout_seconds", 5)
	v.SetDefault("webhooks.workers", 2)
	v.SetDefault("webhooks.queue_size", 256)

	v.SetDefault("optimizer.category_weights", map[string]float64{
		"food": 0.3, "adventure": 0.1, "culture": 0.3, "history": 0.3,
	})
}

// Load reads path when given, otherwise config/itinopt.yaml if present, and
// applies environment overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	} else {
		v.SetConfigName("itinopt")
		v.SetConfigType("yaml")
		v.AddConfigPath("config")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Config{}, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Auth.Mode = strings.ToLower(strings.TrimSpace(cfg.Auth.Mode))
	return cfg, nil
}

// Default returns the built-in configuration without reading files or env.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}
