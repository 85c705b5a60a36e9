package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"port"`
	DatabaseURL string `mapstructure:"database_url"`
	LogLevel    string `mapstructure:"log_level"`
}

// Load reads configuration from TASKAPI_-prefixed environment variables.
// An empty DATABASE_URL selects the in-memory backend.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TASKAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("database_url", "")
	v.SetDefault("log_level", "info")

	// AutomaticEnv alone does not populate Unmarshal, so keys are bound
	// explicitly.
	for _, key := range []string{"port", "database_url", "log_level"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
