package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DevSecret = "dev-secret-change-me"

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		CORSOrigins    []string `yaml:"cors_origins"`
		RequestTimeout string   `yaml:"request_timeout"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"` // sqlite | postgres | memory
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Auth struct {
		Secret   string `yaml:"secret"`
		Issuer   string `yaml:"issuer"`
		TokenTTL string `yaml:"token_ttl"`
	} `yaml:"auth"`
}

// Default is an in-memory sqlite setup without redis, good enough for local runs.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = ":memory:"
	cfg.Auth.Secret = DevSecret
	cfg.Auth.Issuer = "quiz-service"
	return cfg
}

// Load reads YAML config from path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("config %s not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
