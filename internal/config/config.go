package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Name          string `yaml:"name"`
	Port          string `yaml:"port"`
	Env           string `yaml:"env"`
	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"`
	StorefrontURL string `yaml:"storefront_url"`
	PublicURL     string `yaml:"public_url"`
}

type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
}

// DSN returns the keyword/value connection string understood by both pgx and lib/pq.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CartConfig struct {
	// Backend is "redis" or "bolt".
	Backend  string        `yaml:"backend"`
	BoltPath string        `yaml:"bolt_path"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	ResetTokenTTL time.Duration `yaml:"reset_token_ttl"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type PaymentConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type MediaConfig struct {
	// Backend is "disk" or "sftp".
	Backend        string `yaml:"backend"`
	Dir            string `yaml:"dir"`
	BaseURL        string `yaml:"base_url"`
	SFTPAddr       string `yaml:"sftp_addr"`
	SFTPUser       string `yaml:"sftp_user"`
	SFTPPassword   string `yaml:"sftp_password"`
	SFTPKnownHosts string `yaml:"sftp_known_hosts"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type Config struct {
	App      AppConfig      `yaml:"app"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Cart     CartConfig     `yaml:"cart"`
	Auth     AuthConfig     `yaml:"auth"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Payment  PaymentConfig  `yaml:"payment"`
	Media    MediaConfig    `yaml:"media"`
}

func defaults() Config {
	var cfg Config
	cfg.App = AppConfig{
		Name:          "storefront",
		Port:          "8080",
		Env:           "development",
		LogLevel:      "info",
		StorefrontURL: "http://localhost:3000",
		PublicURL:     "http://localhost:8080",
	}
	cfg.Postgres = PostgresConfig{
		Port:            "5432",
		SSLMode:         "disable",
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: 30 * time.Minute,
	}
	cfg.Redis = RedisConfig{Addr: "localhost:6379"}
	cfg.Cart = CartConfig{Backend: "redis", BoltPath: "data/carts.db", TTL: 30 * 24 * time.Hour}
	cfg.Auth = AuthConfig{TokenTTL: 24 * time.Hour, ResetTokenTTL: 30 * time.Minute}
	cfg.SMTP = SMTPConfig{Port: 587}
	cfg.Payment = PaymentConfig{Timeout: 15 * time.Second}
	cfg.Media = MediaConfig{Backend: "disk", Dir: "data/media", BaseURL: "http://localhost:8080/media", MaxUploadBytes: 10 << 20}
	return cfg
}

// NewConfig builds the configuration from defaults, an optional YAML file
// named by CONFIG_FILE, an optional .env file and the process environment,
// each layer overriding the previous one.
func NewConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("invalid config file: %w", err)
	}

	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.App.Port, "APP_PORT")
	setString(&cfg.App.Env, "APP_ENV")
	setString(&cfg.App.LogLevel, "LOG_LEVEL")
	setString(&cfg.App.LogFile, "LOG_FILE")
	setString(&cfg.App.StorefrontURL, "STOREFRONT_URL")
	setString(&cfg.App.PublicURL, "PUBLIC_URL")

	setString(&cfg.Postgres.Host, "DB_HOST")
	setString(&cfg.Postgres.Port, "DB_PORT")
	setString(&cfg.Postgres.User, "DB_USER")
	setString(&cfg.Postgres.Password, "DB_PASSWORD")
	setString(&cfg.Postgres.DBName, "DB_NAME")
	setString(&cfg.Postgres.SSLMode, "DB_SSLMODE")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	setString(&cfg.Cart.Backend, "CART_BACKEND")
	setString(&cfg.Cart.BoltPath, "CART_BOLT_PATH")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")

	setString(&cfg.SMTP.Host, "SMTP_HOST")
	setString(&cfg.SMTP.User, "SMTP_USER")
	setString(&cfg.SMTP.Password, "SMTP_PASSWORD")
	setString(&cfg.SMTP.From, "SMTP_FROM")

	setString(&cfg.Payment.BaseURL, "PAYMENT_BASE_URL")
	setString(&cfg.Payment.APIKey, "PAYMENT_API_KEY")

	setString(&cfg.Media.Backend, "MEDIA_BACKEND")
	setString(&cfg.Media.Dir, "MEDIA_DIR")
	setString(&cfg.Media.BaseURL, "MEDIA_BASE_URL")
	setString(&cfg.Media.SFTPAddr, "MEDIA_SFTP_ADDR")
	setString(&cfg.Media.SFTPUser, "MEDIA_SFTP_USER")
	setString(&cfg.Media.SFTPPassword, "MEDIA_SFTP_PASSWORD")
	setString(&cfg.Media.SFTPKnownHosts, "MEDIA_SFTP_KNOWN_HOSTS")

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.Redis.DB = n
	}

	if v := os.Getenv("SMTP_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		cfg.SMTP.Port = n
	}

	if err := setDuration(&cfg.Auth.TokenTTL, "JWT_TTL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Cart.TTL, "CART_TTL"); err != nil {
		return err
	}

	return setDuration(&cfg.Payment.Timeout, "PAYMENT_TIMEOUT")
}

func (c *Config) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"DB_HOST", c.Postgres.Host},
		{"DB_USER", c.Postgres.User},
		{"DB_PASSWORD", c.Postgres.Password},
		{"DB_NAME", c.Postgres.DBName},
		{"JWT_SECRET", c.Auth.JWTSecret},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	switch c.Cart.Backend {
	case "redis", "bolt":
	default:
		return fmt.Errorf("unknown cart backend %q", c.Cart.Backend)
	}

	switch c.Media.Backend {
	case "disk", "sftp":
	default:
		return fmt.Errorf("unknown media backend %q", c.Media.Backend)
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
