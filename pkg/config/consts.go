package config

// EnvPrefix scopes every configuration variable read by envconfig.
const EnvPrefix = "PEPTIDROP"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names used by tests and tooling.
const (
	EnvAppEnv            = "PEPTIDROP_APP_ENV"
	EnvPort              = "PEPTIDROP_APP_PORT"
	EnvDBDSN             = "PEPTIDROP_DB_DSN"
	EnvRedisURL          = "PEPTIDROP_REDIS_URL"
	EnvPaymentsProcessor = "PEPTIDROP_PAYMENTS_PROCESSOR"
	EnvStripeAPIKey      = "PEPTIDROP_STRIPE_API_KEY"
	EnvStripeSecret      = "PEPTIDROP_STRIPE_WEBHOOK_SECRET"
	EnvPayPalClientID    = "PEPTIDROP_PAYPAL_CLIENT_ID"
	EnvPayPalSecret      = "PEPTIDROP_PAYPAL_SECRET"
	EnvPayPalWebhookID   = "PEPTIDROP_PAYPAL_WEBHOOK_ID"
)
