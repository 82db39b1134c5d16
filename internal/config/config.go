package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kushalyadavv/multi-address-backend/pkg/errors"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	Shopify     ShopifyConfig
	API         APIConfig
	Idempotency IdempotencyConfig
}

type ShopifyConfig struct {
	StoreURL    string
	AccessToken string
	APIVersion  string
	Timeout     time.Duration
}

// APIConfig controls the X-API-Key check. Both empty disables it.
type APIConfig struct {
	Key     string // API_KEY: plain shared key
	KeyHash string // API_KEY_HASH: bcrypt hash of the shared key, preferred over Key
}

// IdempotencyConfig selects the replay store for POST /save
type IdempotencyConfig struct {
	RedisURL string // empty means in-memory
	TTL      time.Duration
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SHOPIFY_API_VERSION", "2024-01")

	viper.AutomaticEnv()

	// .env is optional
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		Shopify: ShopifyConfig{
			StoreURL:    strings.TrimSpace(getEnvOrViper("SHOPIFY_STORE_URL", getEnvOrViper("SHOPIFY_SHOP_DOMAIN", ""))),
			AccessToken: strings.TrimSpace(getEnvOrViper("SHOPIFY_ACCESS_TOKEN", "")),
			APIVersion:  getEnvOrViper("SHOPIFY_API_VERSION", "2024-01"),
			Timeout:     time.Duration(getIntOrDefault("SHOPIFY_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		API: APIConfig{
			Key:     strings.TrimSpace(getEnvOrViper("API_KEY", "")),
			KeyHash: strings.TrimSpace(getEnvOrViper("API_KEY_HASH", "")),
		},
		Idempotency: IdempotencyConfig{
			RedisURL: strings.TrimSpace(getEnvOrViper("REDIS_URL", "")),
			TTL:      getDurationOrDefault("IDEMPOTENCY_TTL", 24*time.Hour),
		},
	}

	if err := cfg.Shopify.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports the first missing Shopify setting as *errors.ErrConfiguration
func (s ShopifyConfig) Validate() error {
	if s.StoreURL == "" {
		return &errors.ErrConfiguration{Key: "SHOPIFY_STORE_URL"}
	}
	if s.AccessToken == "" {
		return &errors.ErrConfiguration{Key: "SHOPIFY_ACCESS_TOKEN"}
	}
	return nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
