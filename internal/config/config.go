// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Поддерживаемые значения перечислимых полей.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	DriverPostgres = "postgres"
	DriverRedis    = "redis"

	ProviderEnv = "env"
	ProviderAWS = "aws"
	ProviderS3  = "s3"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	Secret   SecretConfig  `yaml:"secret"`
	Storage  StorageConfig `yaml:"storage"`
	DB       DBConfig      `yaml:"db"`
	Redis    RedisConfig   `yaml:"redis"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
	Janitor  JanitorConfig `yaml:"janitor"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// SecretConfig — откуда брать ключ подписи JWT.
type SecretConfig struct {
	// Provider: env | aws | s3.
	Provider string `yaml:"provider" env:"SECRET_PROVIDER" env-default:"env"`
	// Name — имя секрета (aws) или ключ объекта (s3).
	Name          string   `yaml:"name" env:"SECRET_NAME" env-default:"identity/jwt-signing-key"`
	JWTSecret     string   `yaml:"jwt_secret" env:"JWT_SECRET"`
	Region        string   `yaml:"region" env:"AWS_REGION"`
	FetchAttempts int      `yaml:"fetch_attempts" env:"SECRET_FETCH_ATTEMPTS" env-default:"3"`
	S3            S3Config `yaml:"s3"`
}

// S3Config — S3-совместимое хранилище (MinIO) для провайдера s3.
type S3Config struct {
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT"`
	Bucket    string `yaml:"bucket" env:"S3_BUCKET"`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
}

// StorageConfig — выбор реализации хранилища.
type StorageConfig struct {
	Driver  string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	Migrate bool   `yaml:"migrate" env:"STORAGE_MIGRATE" env-default:"true"`
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL"`
}

// RedisConfig — настройки подключения к Redis.
type RedisConfig struct {
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"identity:"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// JanitorConfig — фоновая очистка истёкших reset-токенов; 0 отключает.
type JanitorConfig struct {
	Period time.Duration `yaml:"period" env:"JANITOR_PERIOD" env-default:"10m"`
}

// Validate проверяет согласованность значений.
func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		errs = append(errs, fmt.Errorf("env: unknown value %q", c.Env))
	}

	switch c.Storage.Driver {
	case DriverPostgres:
		if c.DB.DatabaseURL == "" {
			errs = append(errs, errors.New("db.db_url: required for postgres driver"))
		}
	case DriverRedis:
		if c.Redis.RedisURL == "" {
			errs = append(errs, errors.New("redis.redis_url: required for redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown value %q", c.Storage.Driver))
	}

	switch c.Secret.Provider {
	case ProviderEnv:
		if c.Secret.JWTSecret == "" {
			errs = append(errs, errors.New("secret.jwt_secret: required for env provider"))
		}
	case ProviderAWS:
		if c.Secret.Name == "" {
			errs = append(errs, errors.New("secret.name: required for aws provider"))
		}
	case ProviderS3:
		if c.Secret.Name == "" || c.Secret.S3.Endpoint == "" || c.Secret.S3.Bucket == "" {
			errs = append(errs, errors.New("secret.name, secret.s3.endpoint, secret.s3.bucket: required for s3 provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("secret.provider: unknown value %q", c.Secret.Provider))
	}

	if c.Secret.FetchAttempts < 1 {
		errs = append(errs, errors.New("secret.fetch_attempts: must be >= 1"))
	}

	if c.Timeouts.Service <= 0 {
		errs = append(errs, errors.New("timeouts.service: must be positive"))
	}

	if c.Janitor.Period < 0 {
		errs = append(errs, errors.New("janitor.period: must not be negative"))
	}

	return errors.Join(errs...)
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла ENV-переменные накладываются поверх значений из YAML,
// затем результат проверяется Validate.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func read(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
