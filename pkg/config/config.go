package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Payments     PaymentsConfig
	Stripe       StripeConfig
	PayPal       PayPalConfig
	Checkout     CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PEPTIDROP_APP_ENV" required:"true"`
	Port         string `envconfig:"PEPTIDROP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PEPTIDROP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PEPTIDROP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PEPTIDROP_DB_DSN"`
	Driver string `envconfig:"PEPTIDROP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PEPTIDROP_DB_HOST"`
	LegacyPort     int    `envconfig:"PEPTIDROP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PEPTIDROP_DB_USER"`
	LegacyPassword string `envconfig:"PEPTIDROP_DB_PASSWORD"`
	LegacyName     string `envconfig:"PEPTIDROP_DB_NAME"`
	LegacySSLMode  string `envconfig:"PEPTIDROP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PEPTIDROP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PEPTIDROP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PEPTIDROP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PEPTIDROP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN builds a DSN from the legacy discrete fields when one is not set.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either %s_DB_DSN or host/user/name must be provided", EnvPrefix)
	}
	userInfo := url.User(d.LegacyUser)
	if d.LegacyPassword != "" {
		userInfo = url.UserPassword(d.LegacyUser, d.LegacyPassword)
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:     d.LegacyName,
		RawQuery: url.Values{"sslmode": []string{d.LegacySSLMode}}.Encode(),
	}
	d.DSN = dsn.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"PEPTIDROP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PEPTIDROP_REDIS_ADDR"`
	Password     string        `envconfig:"PEPTIDROP_REDIS_PASSWORD"`
	DB           int           `envconfig:"PEPTIDROP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PEPTIDROP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PEPTIDROP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PEPTIDROP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PEPTIDROP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PEPTIDROP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PEPTIDROP_FEATURE_AUTO_MIGRATE" default:"false"`
}

// PaymentsConfig selects the processor integration wired into checkout.
type PaymentsConfig struct {
	Processor      string        `envconfig:"PEPTIDROP_PAYMENTS_PROCESSOR" default:"stripe"`
	RequestTimeout time.Duration `envconfig:"PEPTIDROP_PAYMENTS_REQUEST_TIMEOUT" default:"15s"`
}

type StripeConfig struct {
	APIKey string `envconfig:"PEPTIDROP_STRIPE_API_KEY"`
	// Secret signs webhook payloads; it is never logged or returned to clients.
	Secret string `envconfig:"PEPTIDROP_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"PEPTIDROP_STRIPE_ENV" default:"test"`
}

func (s StripeConfig) Environment() string {
	return s.Env
}

type PayPalConfig struct {
	ClientID string `envconfig:"PEPTIDROP_PAYPAL_CLIENT_ID"`
	Secret   string `envconfig:"PEPTIDROP_PAYPAL_SECRET"`
	// WebhookID identifies the registered webhook for the out-of-band
	// verify-webhook-signature call.
	WebhookID string `envconfig:"PEPTIDROP_PAYPAL_WEBHOOK_ID"`
	Env       string `envconfig:"PEPTIDROP_PAYPAL_ENV" default:"sandbox"`
}

func (p PayPalConfig) Environment() string {
	return p.Env
}

type CheckoutConfig struct {
	Currency          string        `envconfig:"PEPTIDROP_CHECKOUT_CURRENCY" default:"usd"`
	SuccessURL        string        `envconfig:"PEPTIDROP_CHECKOUT_SUCCESS_URL" default:"https://shop.peptidrop.com/checkout/success"`
	CancelURL         string        `envconfig:"PEPTIDROP_CHECKOUT_CANCEL_URL" default:"https://shop.peptidrop.com/checkout/cancel"`
	IdempotencyTTL    time.Duration `envconfig:"PEPTIDROP_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
	WebhookDedupeTTL  time.Duration `envconfig:"PEPTIDROP_WEBHOOK_DEDUPE_TTL" default:"72h"`
	CartTTL           time.Duration `envconfig:"PEPTIDROP_CART_TTL" default:"720h"`
	CartEventsChannel string        `envconfig:"PEPTIDROP_CART_EVENTS_CHANNEL" default:"pd:cart:events"`
}
