package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Completion policy for the complete transition. after_end requires the
// booked interval to have elapsed; manual lets a privileged actor complete
// at any time.
const (
	CompletionAfterEnd = "after_end"
	CompletionManual   = "manual"
)

type Config struct {
	DatabaseURL      string        `mapstructure:"database_url"`
	HTTPAddr         string        `mapstructure:"http_addr"`
	JWTSecret        string        `mapstructure:"jwt_secret"`
	JWTTTL           time.Duration `mapstructure:"jwt_ttl"`
	CompletionPolicy string        `mapstructure:"completion_policy"`
	DayStart         string        `mapstructure:"day_start"`
	DayEnd           string        `mapstructure:"day_end"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RESERVE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("database_url", "reserve.db")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("jwt_secret", "change-me-jwt-secret")
	v.SetDefault("jwt_ttl", "24h")
	v.SetDefault("completion_policy", CompletionAfterEnd)
	v.SetDefault("day_start", "08:00")
	v.SetDefault("day_end", "18:00")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CompletionPolicy != CompletionAfterEnd && cfg.CompletionPolicy != CompletionManual {
		return nil, fmt.Errorf("invalid completion_policy %q", cfg.CompletionPolicy)
	}
	for _, key := range []string{cfg.DayStart, cfg.DayEnd} {
		if _, err := time.Parse("15:04", key); err != nil {
			return nil, fmt.Errorf("invalid business day bound %q: %w", key, err)
		}
	}
	return &cfg, nil
}
