package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mmeshcher/linkshortener/internal/codegen"
)

// maxCodeLength matches the short_code column width.
const maxCodeLength = 32

type Config struct {
	ServerAddress    string        `env:"SERVER_ADDRESS"`
	FileStoragePath  string        `env:"FILE_STORAGE_PATH"`
	DatabaseDSN      string        `env:"DATABASE_DSN"`
	SQLiteURL        string        `env:"SQLITE_URL"`
	CodeLength       int           `env:"CODE_LENGTH"`
	AllocMaxAttempts int           `env:"ALLOC_MAX_ATTEMPTS"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT"`
	LogLevel         string        `env:"LOG_LEVEL"`
}

// ParseFlags builds the configuration from an optional .env file, the
// environment and command line flags. A non-empty environment value wins
// over the matching flag.
func ParseFlags() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	envCfg := *cfg

	flag.StringVar(&cfg.ServerAddress, "a", getDefaultServerAddress(), "Address of the server")
	flag.StringVar(&cfg.FileStoragePath, "f", "", "Path to the JSON file backing the in-memory store")
	flag.StringVar(&cfg.DatabaseDSN, "d", "", "PostgreSQL connection string")
	flag.StringVar(&cfg.SQLiteURL, "s", "", "SQLite file path or libsql:// URL")
	flag.IntVar(&cfg.CodeLength, "c", codegen.DefaultLength, "Length of generated short codes")
	flag.IntVar(&cfg.AllocMaxAttempts, "m", getDefaultAllocMaxAttempts(), "Attempts to find a free short code")
	flag.DurationVar(&cfg.RequestTimeout, "t", getDefaultRequestTimeout(), "Per-request timeout, 0 disables it")
	flag.StringVar(&cfg.LogLevel, "l", getDefaultLogLevel(), "Log level")

	flag.Parse()

	cfg.applyEnv(envCfg)
	cfg.applyDefaultValues()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(envCfg Config) {
	if envCfg.ServerAddress != "" {
		c.ServerAddress = envCfg.ServerAddress
	}
	if envCfg.FileStoragePath != "" {
		c.FileStoragePath = envCfg.FileStoragePath
	}
	if envCfg.DatabaseDSN != "" {
		c.DatabaseDSN = envCfg.DatabaseDSN
	}
	if envCfg.SQLiteURL != "" {
		c.SQLiteURL = envCfg.SQLiteURL
	}
	if envCfg.CodeLength != 0 {
		c.CodeLength = envCfg.CodeLength
	}
	if envCfg.AllocMaxAttempts != 0 {
		c.AllocMaxAttempts = envCfg.AllocMaxAttempts
	}
	if envCfg.RequestTimeout != 0 {
		c.RequestTimeout = envCfg.RequestTimeout
	}
	if envCfg.LogLevel != "" {
		c.LogLevel = envCfg.LogLevel
	}
}

func (c *Config) Validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.CodeLength < 1 || c.CodeLength > maxCodeLength {
		return fmt.Errorf("code length must be between 1 and %d, got %d", maxCodeLength, c.CodeLength)
	}
	if c.AllocMaxAttempts < 1 {
		return fmt.Errorf("allocation attempts must be positive, got %d", c.AllocMaxAttempts)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout cannot be negative")
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

func (c *Config) applyDefaultValues() {
	if c.ServerAddress == "" {
		c.ServerAddress = getDefaultServerAddress()
	}
	if c.LogLevel == "" {
		c.LogLevel = getDefaultLogLevel()
	}
}

func getDefaultServerAddress() string {
	return "localhost:8080"
}

func getDefaultAllocMaxAttempts() int {
	return 10
}

func getDefaultRequestTimeout() time.Duration {
	return 5 * time.Second
}

func getDefaultLogLevel() string {
	return "info"
}
