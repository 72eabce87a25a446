package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Storage is "postgres" or "memory".
	Storage           string
	DatabaseURL       string
	TokenKey          []byte
	ListenAddr        string
	TLSCert           string
	TLSKey            string
	LogLevel          string
	ElectricityPrice  float64
	RateLimitRPS      float64
	RateLimitBurst    int
	QuoteValidityDays int
	UploadDir         string
	ShutdownTimeout   time.Duration
}

// LoadEnv reads a .env file into the process environment. A missing file is
// not an error, so deployments can rely on real environment variables.
func LoadEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func Load() (Config, error) {
	cfg := Config{
		Storage:         getString("STORAGE", "postgres"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		TokenKey:        []byte(os.Getenv("TOKEN_KEY")),
		ListenAddr:      getString("LISTEN_ADDR", ":8443"),
		TLSCert:         os.Getenv("TLS_CERT"),
		TLSKey:          os.Getenv("TLS_KEY"),
		LogLevel:        getString("LOG_LEVEL", "info"),
		UploadDir:       getString("UPLOAD_DIR", "./static/uploads"),
		ShutdownTimeout: 5 * time.Second,
	}
	if len(cfg.TokenKey) == 0 {
		return Config{}, fmt.Errorf("TOKEN_KEY environment variable is not set")
	}

	var err error
	if cfg.ElectricityPrice, err = getFloat("ELECTRICITY_PRICE", 0.20); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 1); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 3); err != nil {
		return Config{}, err
	}
	if cfg.QuoteValidityDays, err = getInt("QUOTE_VALIDITY_DAYS", 30); err != nil {
		return Config{}, err
	}
	if cfg.Storage != "postgres" && cfg.Storage != "memory" {
		return Config{}, fmt.Errorf("STORAGE must be postgres or memory, got %q", cfg.Storage)
	}
	if cfg.ElectricityPrice <= 0 {
		return Config{}, fmt.Errorf("ELECTRICITY_PRICE must be positive, got %v", cfg.ElectricityPrice)
	}
	return cfg, nil
}

func (c Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
