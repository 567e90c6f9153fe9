package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"minishop-notify"`
	Env             string        `env:"ENV" envDefault:"development"`
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Log      Log
	Registry Registry
	Redis    Redis
	Delivery Delivery
}

type Log struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	File  string `env:"LOG_FILE"`
}

type Registry struct {
	// Backend selects the subscriber registry: "memory" or "redis".
	Backend string `env:"REGISTRY_BACKEND" envDefault:"memory"`
}

type Redis struct {
	URL            string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"notify:subscribers:"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

type Delivery struct {
	Workers        int           `env:"DELIVERY_WORKERS" envDefault:"8"`
	QueueSize      int           `env:"DELIVERY_QUEUE_SIZE" envDefault:"1024"`
	WebhookTimeout time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()
	return parse(env.Options{})
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR is required"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	switch c.Registry.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("REGISTRY_BACKEND %q is not one of memory, redis", c.Registry.Backend))
	}
	if c.Delivery.Workers <= 0 {
		errs = append(errs, errors.New("DELIVERY_WORKERS must be positive"))
	}
	if c.Delivery.QueueSize <= 0 {
		errs = append(errs, errors.New("DELIVERY_QUEUE_SIZE must be positive"))
	}
	if c.Delivery.WebhookTimeout < 0 {
		errs = append(errs, errors.New("WEBHOOK_TIMEOUT must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
