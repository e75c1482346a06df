package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"

	// envPrefix is prepended to every environment override, e.g. FARMCONNECT_JWT_SECRET.
	envPrefix = "FARMCONNECT"
)

type Config struct {
	Server Server `yaml:"server"`

	Database Database `yaml:"database"`

	JWT JWT `yaml:"jwt"`

	AI AI `yaml:"ai"`

	Redis Redis `yaml:"redis"`

	Kafka Kafka `yaml:"kafka"`

	CORS CORS `yaml:"cors"`

	RateLimit RateLimit `yaml:"rate_limit" envconfig:"RATE_LIMIT"`

	Order Order `yaml:"order"`

	Log Log `yaml:"log"`
}

type Server struct {
	Address      string        `yaml:"address" envconfig:"ADDRESS"`
	Mode         string        `yaml:"mode" envconfig:"MODE"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
}

type JWT struct {
	Secret    string `yaml:"secret" envconfig:"SECRET"`
	ExpiresIn int    `yaml:"expires_in" envconfig:"EXPIRES_IN"` // In Hours
}

type Database struct {
	Host           string `yaml:"host" envconfig:"HOST"`
	Port           int    `yaml:"port" envconfig:"PORT"`
	User           string `yaml:"user" envconfig:"USER"`
	Password       string `yaml:"password" envconfig:"PASSWORD"`
	DBName         string `yaml:"dbname" envconfig:"DBNAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"SSLMODE"`
	MigrationsPath string `yaml:"migrations_path" envconfig:"MIGRATIONS_PATH"`
}

// AI configures the generative model proxy. An empty APIKey puts the proxy in
// degraded mode: every call answers with the fallback payload.
type AI struct {
	Endpoint string        `yaml:"endpoint" envconfig:"ENDPOINT"`
	APIKey   string        `yaml:"api_key" envconfig:"API_KEY"`
	Model    string        `yaml:"model" envconfig:"MODEL"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// Redis backs the product listing cache. Empty Addr disables caching.
type Redis struct {
	Addr     string        `yaml:"addr" envconfig:"ADDR"`
	Password string        `yaml:"password" envconfig:"PASSWORD"`
	DB       int           `yaml:"db" envconfig:"DB"`
	TTL      time.Duration `yaml:"ttl" envconfig:"TTL"`
}

// Kafka receives order domain events. No brokers disables publishing.
type Kafka struct {
	Brokers []string `yaml:"brokers" envconfig:"BROKERS"`
	Topic   string   `yaml:"topic" envconfig:"TOPIC"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

type RateLimit struct {
	RPS   float64 `yaml:"rps" envconfig:"RPS"`
	Burst int     `yaml:"burst" envconfig:"BURST"`
}

type Order struct {
	DeliveryFee decimal.Decimal `yaml:"-" ignored:"true"`
	// RawDeliveryFee is the textual fee as written in the file or env.
	RawDeliveryFee string `yaml:"delivery_fee" envconfig:"DELIVERY_FEE"`
	Currency       string `yaml:"currency" envconfig:"CURRENCY"`
}

type Log struct {
	Level string `yaml:"level" envconfig:"LEVEL"`
}

// Default returns the configuration used for any value the file and the
// environment leave unset. It deliberately carries no JWT secret.
func Default() Config {
	return Config{
		Server: Server{
			Address:      ":8080",
			Mode:         ModeDevelopment,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: Database{
			Host:           "localhost",
			Port:           5432,
			User:           "farmconnect",
			DBName:         "farmconnect",
			SSLMode:        "disable",
			MigrationsPath: "migrations",
		},
		JWT: JWT{ExpiresIn: 24 * 7},
		AI: AI{
			Endpoint: "https://generativelanguage.googleapis.com/v1beta",
			Model:    "gemini-1.5-flash",
			Timeout:  30 * time.Second,
		},
		Redis:     Redis{TTL: time.Minute},
		Kafka:     Kafka{Topic: "farmconnect.orders"},
		CORS:      CORS{AllowedOrigins: []string{"*"}},
		RateLimit: RateLimit{RPS: 1, Burst: 5},
		Order:     Order{RawDeliveryFee: "40", Currency: "INR"},
		Log:       Log{Level: "info"},
	}
}

// Load reads .env (if present), then the YAML file at CONFIG_PATH (default
// configs/development.yaml), then FARMCONNECT_* environment overrides.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	configPath := "configs/development.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}

	return LoadFile(configPath)
}

// LoadFile is Load without the .env step and with an explicit path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	fee, err := decimal.NewFromString(cfg.Order.RawDeliveryFee)
	if err != nil {
		return nil, fmt.Errorf("invalid order.delivery_fee %q: %w", cfg.Order.RawDeliveryFee, err)
	}
	cfg.Order.DeliveryFee = fee

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports the first configuration problem that would make the
// server unsafe or unable to start.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.JWT.ExpiresIn <= 0 {
		return errors.New("jwt.expires_in must be positive")
	}
	if c.Order.DeliveryFee.IsNegative() {
		return errors.New("order.delivery_fee must not be negative")
	}
	switch c.Server.Mode {
	case ModeDevelopment, ModeProduction:
	default:
		return fmt.Errorf("server.mode must be %q or %q", ModeDevelopment, ModeProduction)
	}
	return nil
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Server.Mode == ModeProduction
}

// DSN is the lib/pq keyword connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// URL is the form golang-migrate expects.
func (d Database) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}
