// Package config предоставляет структуры и функции для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/magabrotheeeer/subscription-ledger/internal/models"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	Storage         `yaml:"storage"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	HTTPServer      `yaml:"http_server"`
	JWTToken        `yaml:"jwttoken"`
	PaymentHandler  `yaml:"payment_handler"`
	Ledger          `yaml:"ledger"`
}

// Storage структура для выбора и настройки хранилища
type Storage struct {
	Driver                  string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"10"`
	RateBurst   int           `yaml:"rate_burst" env-default:"20"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	Enabled      bool          `yaml:"enabled" env:"REDIS_ENABLED"`
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env-default:"1m"`
}

// RabbitMQ структура для настройки публикации событий
type RabbitMQ struct {
	Enabled    bool          `yaml:"enabled" env:"RABBITMQ_ENABLED"`
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Retries    int           `yaml:"retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// PaymentHandler структура для настройки клиента Payment Handler
type PaymentHandler struct {
	Timeout          time.Duration `yaml:"timeout" env-default:"5s"`
	BreakerFailures  uint32        `yaml:"breaker_failures" env-default:"5"`
	BreakerInterval  time.Duration `yaml:"breaker_interval" env-default:"60s"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout" env-default:"30s"`
	BreakerHalfOpens uint32        `yaml:"breaker_half_open_requests" env-default:"1"`
}

// PlanConfig — цена и длительность одного тарифа
type PlanConfig struct {
	Price    int64         `yaml:"price"`
	Duration time.Duration `yaml:"duration"`
}

// Ledger структура начальной конфигурации леджера
type Ledger struct {
	Owner          string     `yaml:"owner" env:"LEDGER_OWNER"`
	Admins         []string   `yaml:"admins" env:"LEDGER_ADMINS" env-separator:","`
	HandlerAddress string     `yaml:"handler_address" env:"LEDGER_HANDLER_ADDRESS"`
	RecoveryFee    int64      `yaml:"recovery_fee" env-default:"10"`
	Monthly        PlanConfig `yaml:"monthly"`
	Quarterly      PlanConfig `yaml:"quarterly"`
	HalfYearly     PlanConfig `yaml:"half_yearly"`
	Yearly         PlanConfig `yaml:"yearly"`
}

const day = 24 * time.Hour

// Plans возвращает таблицу тарифов по умолчанию. Незаданная длительность
// заменяется на 30/90/180/365 дней.
func (l Ledger) Plans() []models.Plan {
	defaults := []struct {
		tier models.Tier
		cfg  PlanConfig
		d    time.Duration
	}{
		{models.Monthly, l.Monthly, 30 * day},
		{models.Quarterly, l.Quarterly, 90 * day},
		{models.HalfYearly, l.HalfYearly, 180 * day},
		{models.Yearly, l.Yearly, 365 * day},
	}

	plans := make([]models.Plan, 0, len(defaults))
	for _, d := range defaults {
		duration := d.cfg.Duration
		if duration == 0 {
			duration = d.d
		}
		plans = append(plans, models.Plan{Tier: d.tier, Price: d.cfg.Price, Duration: duration})
	}
	return plans
}

// Settings возвращает начальные настройки леджера.
func (l Ledger) Settings() models.Settings {
	return models.Settings{
		HandlerAddress: l.HandlerAddress,
		RecoveryFee:    l.RecoveryFee,
	}
}

// Load читает конфиг из файла path и переменных окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига из файла, указанного в CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.Ledger.Owner == "" {
		return errors.New("ledger.owner is required")
	}
	if c.JWTSecretKey == "" {
		return errors.New("jwttoken.jwt_secret_key is required")
	}
	switch c.Driver {
	case "memory":
	case "postgres":
		if c.StorageConnectionString == "" {
			return errors.New("storage.storage_connection_string is required for postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Driver)
	}
	for _, p := range c.Ledger.Plans() {
		if p.Price < 0 || p.Duration < time.Second {
			return fmt.Errorf("invalid %s plan: price %d, duration %s", p.Tier, p.Price, p.Duration)
		}
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Enabled: %t\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  Enabled: %t\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Ledger:\n"+
			"  Owner: %s\n"+
			"  Admins: %v\n"+
			"  HandlerAddress: %s\n"+
			"  RecoveryFee: %d\n",
		c.Env,
		c.Driver,
		c.MigrationsPath,
		c.RedisConnection.Enabled,
		c.AddressRedis,
		c.DB,
		c.RabbitMQ.Enabled,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.Owner,
		c.Admins,
		c.HandlerAddress,
		c.RecoveryFee,
	)
}
