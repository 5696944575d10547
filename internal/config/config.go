// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	AppEnv        string `env:"APP_ENV" envDefault:"dev"`
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	TableName     string `env:"TABLE_NAME" envDefault:"hirewire_marketplace"`
	ByActorIndex  string `env:"BY_ACTOR_INDEX" envDefault:"gsi1"`
	ByStatusIndex string `env:"BY_STATUS_INDEX" envDefault:"gsi2"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return c, nil
}
