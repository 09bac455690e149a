// Package config loads service configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the HTTP service needs at startup.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	// AuthToken, when set, requires Bearer auth on the solve endpoints.
	AuthToken string `yaml:"auth_token"`

	// RateLimit is requests per second per client; Burst tops it up.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`

	// Solver defaults, overridable per request.
	Threads     int           `yaml:"threads"`
	Exploration int           `yaml:"exploration"`
	Timeout     time.Duration `yaml:"timeout"`

	// Routing engine endpoints. Empty means matrix-embedded input only.
	OSRMURL string `yaml:"osrm_url"`
	ORSURL  string `yaml:"ors_url"`
	ORSKey  string `yaml:"ors_key"`

	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:  ":8080",
		RateLimit:   10,
		Burst:       20,
		Threads:     4,
		Exploration: 5,
	}
}

// Load reads the YAML file at path (skipped when path is empty or missing)
// and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.ListenAddr = ":" + v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("AUTH_TOKEN"); v != "" {
		c.AuthToken = v
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.RateLimit = f
		}
	}
	if v := os.Getenv("SOLVER_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Threads = n
		}
	}
	if v := os.Getenv("SOLVER_EXPLORATION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Exploration = n
		}
	}
	if v := os.Getenv("SOLVER_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Timeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("OSRM_URL"); v != "" {
		c.OSRMURL = v
	}
	if v := os.Getenv("ORS_URL"); v != "" {
		c.ORSURL = v
	}
	if v := os.Getenv("ORS_KEY"); v != "" {
		c.ORSKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
}
