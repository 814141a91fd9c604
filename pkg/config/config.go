package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	FinePerOverdueDay         float64       `koanf:"fine_per_overdue_day"`
	Hostname                  string        `koanf:"-"`
	JWTSecret                 string        `koanf:"jwt_secret"`
	MaxBorrows                int           `koanf:"max_borrows"`
	MaxBorrowDays             int           `koanf:"max_borrow_days"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
}

const (
	environmentENV = "ENVIRONMENT"
	configFileENV  = "CONFIG_FILE"
	envPrefix      = "LIBRARY_"
)

func New() (*Config, error) {
	environment := os.Getenv(environmentENV)
	if environment == "" {
		environment = "development"
	}

	// .env files are a development convenience only.
	if environment == "development" {
		_ = godotenv.Load()
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := defaultConfig()
	cfg.Hostname = hostname

	switch environment {
	case "development":
		loadDevelopmentConfig(cfg)
	case "test":
		loadTestConfig(cfg)
	case "production":
		loadProductionConfig(cfg)
	}

	k := koanf.New(".")

	// Optional YAML config file.
	if path := os.Getenv(configFileENV); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	// Environment variables override everything, e.g. LIBRARY_MAX_BORROWS=5.
	err = k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt_secret must be configured")
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		FinePerOverdueDay:         0.10,
		MaxBorrows:                10,
		MaxBorrowDays:             14,
		ServerPort:                7740,
	}
}

// NewForTest returns a config suitable for unit tests. It skips the
// environment entirely so tests stay hermetic.
func NewForTest() *Config {
	cfg := defaultConfig()
	cfg.Hostname = "test"
	loadTestConfig(cfg)
	return cfg
}
