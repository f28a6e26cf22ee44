package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is the configuration for the application
type Config struct {
	Server   Server
	Postgres Postgres
	Tripay   Tripay
	Redis    Redis
	Kafka    Kafka
	Telegram Telegram
	Admin    Admin
	Pricing  Pricing
	Log      Log
}

type Server struct {
	Port            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// Addr returns the listen address for the server
func (s Server) Addr() string {
	return ":" + s.Port
}

type Postgres struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConnAttempts int
}

// DSN returns the gorm/pgx keyword DSN
func (p Postgres) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		p.Host, p.Port, p.User, p.Password, p.Name, p.SSLMode,
	)
}

type Tripay struct {
	BaseURL      string
	APIKey       string
	PrivateKey   string
	MerchantCode string
	CallbackURL  string
	ReturnURL    string
	Expiry       time.Duration
}

type Redis struct {
	Addr       string
	Password   string
	DB         int
	ChannelTTL time.Duration
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type Telegram struct {
	BotToken string
	ChatID   string
	APIBase  string
}

type Admin struct {
	JWTSecret string
}

type Pricing struct {
	PricePerRobux decimal.Decimal
}

type Log struct {
	Level string
	File  string
}

var defaults = map[string]any{
	"PORT":             "8080",
	"ALLOWED_ORIGINS":  "http://localhost:3000",
	"SHUTDOWN_TIMEOUT": "30s",

	"DB_HOST":              "localhost",
	"DB_PORT":              "5432",
	"DB_USER":              "postgres",
	"DB_PASSWORD":          "postgres",
	"DB_NAME":              "robux_topup",
	"DB_SSLMODE":           "disable",
	"DB_MAX_CONN_ATTEMPTS": 5,

	"TRIPAY_BASE_URL":      "https://tripay.co.id/api-sandbox",
	"TRIPAY_API_KEY":       "",
	"TRIPAY_PRIVATE_KEY":   "",
	"TRIPAY_MERCHANT_CODE": "",
	"TRIPAY_CALLBACK_URL":  "",
	"TRIPAY_RETURN_URL":    "",
	"TRIPAY_EXPIRY":        "24h",

	"REDIS_ADDR":        "",
	"REDIS_PASSWORD":    "",
	"REDIS_DB":          0,
	"REDIS_CHANNEL_TTL": "10m",

	"KAFKA_BROKERS": "",
	"KAFKA_TOPIC":   "transaction.status_changed",

	"TELEGRAM_BOT_TOKEN": "",
	"TELEGRAM_CHAT_ID":   "",
	"TELEGRAM_API_BASE":  "https://api.telegram.org",

	"ADMIN_JWT_SECRET": "",

	"PRICE_PER_ROBUX": "125",

	"LOG_LEVEL": "info",
	"LOG_FILE":  "",
}

// Load reads .env (if any) and the environment. Unset keys fall back to defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	price, err := decimal.NewFromString(v.GetString("PRICE_PER_ROBUX"))
	if err != nil {
		return nil, fmt.Errorf("PRICE_PER_ROBUX: %w", err)
	}

	cfg := &Config{
		Server: Server{
			Port:            v.GetString("PORT"),
			AllowedOrigins:  splitList(v.GetString("ALLOWED_ORIGINS")),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Postgres: Postgres{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxConnAttempts: v.GetInt("DB_MAX_CONN_ATTEMPTS"),
		},
		Tripay: Tripay{
			BaseURL:      strings.TrimRight(v.GetString("TRIPAY_BASE_URL"), "/"),
			APIKey:       v.GetString("TRIPAY_API_KEY"),
			PrivateKey:   v.GetString("TRIPAY_PRIVATE_KEY"),
			MerchantCode: v.GetString("TRIPAY_MERCHANT_CODE"),
			CallbackURL:  v.GetString("TRIPAY_CALLBACK_URL"),
			ReturnURL:    v.GetString("TRIPAY_RETURN_URL"),
			Expiry:       v.GetDuration("TRIPAY_EXPIRY"),
		},
		Redis: Redis{
			Addr:       v.GetString("REDIS_ADDR"),
			Password:   v.GetString("REDIS_PASSWORD"),
			DB:         v.GetInt("REDIS_DB"),
			ChannelTTL: v.GetDuration("REDIS_CHANNEL_TTL"),
		},
		Kafka: Kafka{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Telegram: Telegram{
			BotToken: v.GetString("TELEGRAM_BOT_TOKEN"),
			ChatID:   v.GetString("TELEGRAM_CHAT_ID"),
			APIBase:  strings.TrimRight(v.GetString("TELEGRAM_API_BASE"), "/"),
		},
		Admin: Admin{
			JWTSecret: v.GetString("ADMIN_JWT_SECRET"),
		},
		Pricing: Pricing{PricePerRobux: price},
		Log: Log{
			Level: v.GetString("LOG_LEVEL"),
			File:  v.GetString("LOG_FILE"),
		},
	}

	if cfg.Tripay.PrivateKey == "" {
		return nil, fmt.Errorf("TRIPAY_PRIVATE_KEY is required")
	}
	// Both cache backends need a positive TTL to agree on expiry.
	if cfg.Redis.ChannelTTL <= 0 {
		return nil, fmt.Errorf("REDIS_CHANNEL_TTL must be positive, got %s", cfg.Redis.ChannelTTL)
	}
	return cfg, nil
}

// LoadAdmin reads only the admin auth settings, for tools that mint tokens
// without the rest of the server configuration.
func LoadAdmin() (Admin, error) {
	_ = godotenv.Load()
	return AdminFromViper(newViper())
}

func AdminFromViper(v *viper.Viper) (Admin, error) {
	admin := Admin{JWTSecret: v.GetString("ADMIN_JWT_SECRET")}
	if admin.JWTSecret == "" {
		return admin, fmt.Errorf("ADMIN_JWT_SECRET is required")
	}
	return admin, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
