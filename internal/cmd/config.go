package main

import (
	"fmt"
	"os"
	"time"

	"github.com/quizdeck/quizdeck/internal/game"
	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration. Anything not set falls back
// to defaults; connection settings come from the environment.
type Config struct {
	Game struct {
		QuestionTimeSeconds  int `yaml:"question_time_seconds"`
		BreakTimeSeconds     int `yaml:"break_time_seconds"`
		ErrorCooldownSeconds int `yaml:"error_cooldown_seconds"`
	} `yaml:"game"`
	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &config, nil
}

// gameConfig maps the YAML values onto the loop timings, keeping the
// defaults for anything unset.
func (c *Config) gameConfig() game.Config {
	cfg := game.DefaultConfig()
	if c.Game.QuestionTimeSeconds > 0 {
		cfg.QuestionTime = time.Duration(c.Game.QuestionTimeSeconds) * time.Second
	}
	if c.Game.BreakTimeSeconds > 0 {
		cfg.BreakTime = time.Duration(c.Game.BreakTimeSeconds) * time.Second
	}
	if c.Game.ErrorCooldownSeconds > 0 {
		cfg.ErrorCooldown = time.Duration(c.Game.ErrorCooldownSeconds) * time.Second
	}
	return cfg
}

func (c *Config) natsURL() string {
	if c.NATS.URL != "" {
		return c.NATS.URL
	}
	return getEnv("NATS_URL", "nats://localhost:4222")
}
