package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config top-level struct
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	RateLimit   RateLimitConfig   `yaml:"ratelimit"`
	Auth        AuthConfig        `yaml:"auth"`
	StoreCredit StoreCreditConfig `yaml:"store_credit"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig selects the gorm dialect: postgres, mysql or sqlite.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type RateLimitConfig struct {
	RPS   int `yaml:"rps"`
	Burst int `yaml:"burst"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// PlaceholderJWTSecret is the value shipped in config.yaml.
const PlaceholderJWTSecret = "change-me"

var ErrWeakJWTSecret = errors.New("jwt secret is empty or the shipped placeholder; set JWT_SECRET")

// Validate refuses secrets that would let anyone mint tokens.
func (a AuthConfig) Validate() error {
	if strings.TrimSpace(a.JWTSecret) == "" || a.JWTSecret == PlaceholderJWTSecret {
		return ErrWeakJWTSecret
	}
	return nil
}

// StoreCreditConfig holds the initial settings. They are seeded into the
// options table once; afterwards the table is authoritative.
type StoreCreditConfig struct {
	Enabled             bool           `yaml:"enabled"`
	AllAffiliates       bool           `yaml:"all_affiliates"`
	ChangePaymentMethod bool           `yaml:"change_payment_method"`
	EnabledIntegrations []string       `yaml:"enabled_integrations"`
	AllowNegative       bool           `yaml:"allow_negative"`
	HistoryLimit        int            `yaml:"history_limit"`
	Currency            CurrencyConfig `yaml:"currency"`
}

type CurrencyConfig struct {
	Code     string `yaml:"code"`
	Symbol   string `yaml:"symbol"`
	Decimals int32  `yaml:"decimals"`
	Locale   string `yaml:"locale"`
}

// Load reads yaml file, then applies .env and environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	// override DSN password from env if present
	if pw := os.Getenv("POSTGRES_PASSWORD"); pw != "" && cfg.Database.Driver == "postgres" {
		cfg.Database.DSN = cfg.Database.DSN + " password=" + pw
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	return cfg, nil
}

// Default returns the values used for keys missing from the yaml file.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Port: 8080},
		Database:  DatabaseConfig{Driver: "postgres", MaxOpenConns: 25, MaxIdleConns: 5},
		RateLimit: RateLimitConfig{RPS: 20, Burst: 40},
		Kafka:     KafkaConfig{Topic: "store_credit.transactions"},
		StoreCredit: StoreCreditConfig{
			Enabled:             true,
			EnabledIntegrations: []string{"woocommerce"},
			HistoryLimit:        100,
			Currency:            CurrencyConfig{Code: "USD", Symbol: "$", Decimals: 2, Locale: "en"},
		},
	}
}
