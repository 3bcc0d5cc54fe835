package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Fees      FeesConfig      `mapstructure:"fees"`
	Forwarder ForwarderConfig `mapstructure:"forwarder"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
	Tenants   []TenantConfig  `mapstructure:"tenants"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type AuthConfig struct {
	RequireAPIKey bool   `mapstructure:"require_api_key"`
	APIKey        string `mapstructure:"api_key"`
	AdminKey      string `mapstructure:"admin_key"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr                  string `mapstructure:"addr"`
	Password              string `mapstructure:"password"`
	DB                    int    `mapstructure:"db"`
	IdempotencyTTLSeconds int    `mapstructure:"idempotency_ttl_seconds"`
}

// PolicyConfig locates the static risk policy. Exactly one of Path or
// Inline must be set; startup fails otherwise.
type PolicyConfig struct {
	Path   string `mapstructure:"path"`
	Inline string `mapstructure:"inline"`
}

type FeesConfig struct {
	// Flat venue fee estimate in bps. A live implementation would pull
	// this from venue quotes.
	FeesBps float64 `mapstructure:"fees_bps"`
}

type ForwarderConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

type WebhookConfig struct {
	HmacSecret       string `mapstructure:"hmac_secret"`
	ToleranceSeconds int    `mapstructure:"tolerance_seconds"`
}

type OracleConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Chains      []string `mapstructure:"chains"`
	PeriodMs    int      `mapstructure:"period_ms"`
	LookbackMin int      `mapstructure:"lookback_min"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type TenantConfig struct {
	ID     string  `mapstructure:"id"`
	Name   string  `mapstructure:"name"`
	APIKey string  `mapstructure:"api_key"`
	QPS    float64 `mapstructure:"qps"`
	Burst  int     `mapstructure:"burst"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. PENNYGATE_FORWARDER_ENDPOINT
	viper.SetEnvPrefix("pennygate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("auth.require_api_key", true)
	viper.SetDefault("auth.admin_key", "")
	viper.SetDefault("redis.idempotency_ttl_seconds", 86400)
	viper.SetDefault("policy.path", "./configs/policy.yaml")
	viper.SetDefault("fees.fees_bps", 2.0)
	viper.SetDefault("forwarder.timeout_ms", 3000)
	viper.SetDefault("webhook.tolerance_seconds", 300)
	viper.SetDefault("oracle.enabled", false)
	viper.SetDefault("oracle.chains", []string{"ethereum", "arbitrum", "base", "polygon", "solana"})
	viper.SetDefault("oracle.period_ms", 30000)
	viper.SetDefault("oracle.lookback_min", 10)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("log.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
