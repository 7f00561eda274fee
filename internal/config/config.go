package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port               string `env:"PORT" envDefault:"3333"`
	GCSBucket          string `env:"GCS_BUCKET,required"`
	SlackSigningSecret string `env:"SLACK_SIGNING_SECRET,required"`
	GameTimezone       string `env:"GAME_TIMEZONE" envDefault:"Europe/Amsterdam"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

// Location resolves the configured game timezone. All "today" derivations go
// through this so every player sees the same game day.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.GameTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid GAME_TIMEZONE %q: %w", c.GameTimezone, err)
	}
	return loc, nil
}
