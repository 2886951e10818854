package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	sharedConfig "github.com/orris-inc/tenantbilling/internal/shared/config"
	"github.com/orris-inc/tenantbilling/internal/shared/constants"
)

type Config struct {
	Environment string                       `mapstructure:"environment"`
	Server      sharedConfig.ServerConfig    `mapstructure:"server"`
	Database    sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger      sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Auth        sharedConfig.AuthConfig      `mapstructure:"auth"`
	Redis       sharedConfig.RedisConfig     `mapstructure:"redis"`
	Billing     sharedConfig.BillingConfig   `mapstructure:"billing"`
	Payment     sharedConfig.PaymentConfig   `mapstructure:"payment"`
	Sweeper     sharedConfig.SweeperConfig   `mapstructure:"sweeper"`
	RateLimit   sharedConfig.RateLimitConfig `mapstructure:"rate_limit"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml (or configPath when given), then applies
// BILLING_* environment overrides. A missing config file is not an error;
// defaults and environment variables are enough to boot.
func Load(env, configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("environment", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Environment == constants.EnvProduction {
		config.Billing.Production = true
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// Validate rejects settings that would make a production deployment unsafe.
func (c *Config) Validate() error {
	if c.Billing.TrialDays <= 0 {
		return fmt.Errorf("billing.trial_days must be positive")
	}
	if c.Sweeper.Concurrency <= 0 {
		return fmt.Errorf("sweeper.concurrency must be positive")
	}
	if !c.Billing.Production {
		return nil
	}

	var missing []string
	if c.Sweeper.Secret == "" {
		missing = append(missing, "sweeper.secret")
	}
	if c.Auth.JWT.Secret == "" || c.Auth.JWT.Secret == defaultJWTSecret {
		missing = append(missing, "auth.jwt.secret")
	}
	if c.Payment.Paystack.SecretKey == "" {
		missing = append(missing, "payment.paystack.secret_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("production config missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

const defaultJWTSecret = "change-me-in-production"

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", constants.EnvDevelopment)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.timezone", "Africa/Lagos")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "billing_dev")
	v.SetDefault("database.path", "billing.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("auth.jwt.secret", defaultJWTSecret)
	v.SetDefault("auth.jwt.issuer", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("billing.trial_days", 14)
	v.SetDefault("billing.max_charge_failures", 2)
	v.SetDefault("billing.production", false)
	v.SetDefault("billing.currency", "NGN")
	v.SetDefault("billing.billing_period_days", 30)

	v.SetDefault("payment.provider", "paystack")
	v.SetDefault("payment.timeout", 10*time.Second)
	v.SetDefault("payment.retry_max", 1)
	v.SetDefault("payment.paystack.base_url", "https://api.paystack.co")
	v.SetDefault("payment.paystack.secret_key", "")
	v.SetDefault("payment.paystack.callback_url", "")

	v.SetDefault("sweeper.secret", "")
	v.SetDefault("sweeper.concurrency", 4)
	v.SetDefault("sweeper.in_process", false)
	v.SetDefault("sweeper.interval", 24*time.Hour)
	v.SetDefault("sweeper.timeout", 10*time.Minute)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 120)
	v.SetDefault("rate_limit.window", time.Minute)
}
