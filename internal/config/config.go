// Package config loads service configuration from YAML with environment
// overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the shared configuration for every service binary.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	JWT struct {
		Secret string        `yaml:"secret"`
		Issuer string        `yaml:"issuer"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"jwt"`

	Services map[string]ServiceSettings `yaml:"services"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`

	RateLimit struct {
		RequestsPerSecond int `yaml:"requests_per_second"`
		Burst             int `yaml:"burst"`
	} `yaml:"rate_limit"`

	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// ServiceSettings holds per-service listen and discovery settings.
type ServiceSettings struct {
	Port int    `yaml:"port"`
	URL  string `yaml:"url"`
}

// Load reads configuration from path, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()

	for id, settings := range cfg.Services {
		if settings.Port == 0 {
			return nil, fmt.Errorf("service %s: port is required", id)
		}
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required (JWT_SECRET)")
	}

	return cfg, nil
}

// LoadOrDefault loads config from path or falls back to defaults plus
// environment overrides when the file is absent.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		cfg = Default()
		cfg.applyEnv()
	}
	return cfg
}

// Default returns the development default configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.LogLevel = "info"
	cfg.LogFormat = "json"
	cfg.JWT.Issuer = "relaymesh-auth"
	cfg.JWT.TTL = time.Hour
	cfg.Services = map[string]ServiceSettings{
		"gateway": {Port: 8080},
		"auth":    {Port: 8081, URL: "http://localhost:8081"},
		"users":   {Port: 8082, URL: "http://localhost:8082"},
		"orders":  {Port: 8083, URL: "http://localhost:8083"},
	}
	cfg.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.RateLimit.RequestsPerSecond = 50
	cfg.RateLimit.Burst = 100
	return cfg
}

// ServiceURL returns the base URL for a named service.
func (c *Config) ServiceURL(name string) string {
	return c.Services[name].URL
}

// ServiceAddr returns the listen address for a named service.
func (c *Config) ServiceAddr(name string) string {
	return fmt.Sprintf(":%d", c.Services[name].Port)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	for _, name := range []string{"auth", "users", "orders"} {
		if v := os.Getenv(envKey(name, "URL")); v != "" {
			s := c.Services[name]
			s.URL = v
			c.Services[name] = s
		}
		if v := os.Getenv(envKey(name, "PORT")); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				s := c.Services[name]
				s.Port = port
				c.Services[name] = s
			}
		}
	}
}

func envKey(service, suffix string) string {
	switch service {
	case "auth":
		return "AUTH_SERVICE_" + suffix
	case "users":
		return "USER_SERVICE_" + suffix
	case "orders":
		return "ORDER_SERVICE_" + suffix
	}
	return suffix
}
