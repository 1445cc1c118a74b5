package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	PublicBaseURL     string `mapstructure:"PUBLIC_BASE_URL"`

	// Storage.
	StoreDriver  string `mapstructure:"STORE_DRIVER"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	PostgresURL  string `mapstructure:"POSTGRES_URL"`

	// Redis configuration.
	RedisEnabled       bool   `mapstructure:"REDIS_ENABLED"`
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB       int    `mapstructure:"REDIS_CACHE_DB"`
	RedisLockDB        int    `mapstructure:"REDIS_LOCK_DB"`
	RedisExpiryQueueDB int    `mapstructure:"REDIS_EXPIRY_QUEUE_DB"`

	// Payments.
	PaymentProvider string        `mapstructure:"PAYMENT_PROVIDER"`
	PaymentWindow   time.Duration `mapstructure:"PAYMENT_WINDOW"`
	PaymentTimeout  time.Duration `mapstructure:"PAYMENT_TIMEOUT"`
	PaymentCurrency string        `mapstructure:"PAYMENT_CURRENCY"`
	StripeKey       string        `mapstructure:"STRIPE_KEY"`
	DefaultAmount   float64       `mapstructure:"DEFAULT_AMOUNT"`

	// Expiry sweeper.
	SweepInterval  time.Duration `mapstructure:"SWEEP_INTERVAL"`
	SweepBatchSize int           `mapstructure:"SWEEP_BATCH_SIZE"`

	// Lifecycle events.
	RabbitMQURL      string `mapstructure:"RABBITMQ_URL"`
	RabbitMQExchange string `mapstructure:"RABBITMQ_EXCHANGE"`
}

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	PaymentStripe  = "stripe"
	PaymentSandbox = "sandbox"
)

var AppConfig Config

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	viper.SetDefault("STORE_DRIVER", StoreMongo)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "slotbook")
	viper.SetDefault("POSTGRES_URL", "")

	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_LOCK_DB", 1)
	viper.SetDefault("REDIS_EXPIRY_QUEUE_DB", 2)

	viper.SetDefault("PAYMENT_PROVIDER", PaymentSandbox)
	viper.SetDefault("PAYMENT_WINDOW", "15m")
	viper.SetDefault("PAYMENT_TIMEOUT", "10s")
	viper.SetDefault("PAYMENT_CURRENCY", "inr")
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("DEFAULT_AMOUNT", 1)

	viper.SetDefault("SWEEP_INTERVAL", "30s")
	viper.SetDefault("SWEEP_BATCH_SIZE", 100)

	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("RABBITMQ_EXCHANGE", "reservations")
}

// LoadConfig fills AppConfig from config.yaml (in . or ./config), the
// environment and the defaults above, then validates the result.
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.PaymentProvider = strings.ToLower(strings.TrimSpace(c.PaymentProvider))

	switch c.StoreDriver {
	case StoreMongo, StoreMemory:
	case StorePostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("config: POSTGRES_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.PaymentProvider {
	case PaymentSandbox:
	case PaymentStripe:
		if c.StripeKey == "" {
			return fmt.Errorf("config: STRIPE_KEY is required when PAYMENT_PROVIDER=stripe")
		}
	default:
		return fmt.Errorf("config: unknown PAYMENT_PROVIDER %q", c.PaymentProvider)
	}

	if c.PaymentWindow <= 0 || c.PaymentTimeout <= 0 || c.SweepInterval <= 0 {
		return fmt.Errorf("config: PAYMENT_WINDOW, PAYMENT_TIMEOUT and SWEEP_INTERVAL must be positive")
	}
	if c.DefaultAmount <= 0 {
		return fmt.Errorf("config: DEFAULT_AMOUNT must be positive")
	}
	return nil
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
