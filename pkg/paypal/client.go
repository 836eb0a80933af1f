// Package paypal wraps the PayPal Orders v2 SDK behind the payments
// contract. Unlike Stripe Checkout, PayPal is a two-phase flow: the buyer
// approves the order on PayPal's side, then our capture endpoint performs an
// explicit capture call before any fulfillment state changes.
package paypal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	paypalsdk "github.com/plutov/paypal/v4"

	"github.com/peptidrop/backend/pkg/config"
	"github.com/peptidrop/backend/pkg/logger"
)

const (
	sandboxEnv = "sandbox"
	liveEnv    = "live"
)

var (
	errClientIDRequired  = errors.New("paypal client id is required")
	errSecretRequired    = errors.New("paypal secret is required")
	errWebhookIDRequired = errors.New("paypal webhook id is required")
	errInvalidPayPalEnv  = fmt.Errorf("paypal environment must be %q or %q", sandboxEnv, liveEnv)
)

// Client wraps the PayPal SDK client plus env-specific metadata.
type Client struct {
	api         *paypalsdk.Client
	environment string
	webhookID   string
}

// NewClient initializes the PayPal client and eagerly fetches an access
// token so credential problems surface at startup rather than at first
// checkout.
func NewClient(ctx context.Context, cfg config.PayPalConfig, logg *logger.Logger) (*Client, error) {
	env, base, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errClientIDRequired
	}

	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errSecretRequired
	}

	webhookID := strings.TrimSpace(cfg.WebhookID)
	if webhookID == "" {
		return nil, errWebhookIDRequired
	}

	api, err := paypalsdk.NewClient(clientID, secret, base)
	if err != nil {
		return nil, fmt.Errorf("creating paypal client: %w", err)
	}

	if _, err := api.GetAccessToken(ctx); err != nil {
		return nil, fmt.Errorf("fetching paypal access token: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("paypal client initialized (%s)", env))
	}

	return &Client{
		api:         api,
		environment: env,
		webhookID:   webhookID,
	}, nil
}

// API returns the underlying PayPal SDK client.
func (c *Client) API() *paypalsdk.Client {
	if c == nil {
		return nil
	}
	return c.api
}

// Environment reports the normalized PayPal environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// VerifyWebhook asks PayPal whether the signature headers on the request
// match the raw payload. This is an out-of-band API call, not a local HMAC
// check like Stripe's.
func (c *Client) VerifyWebhook(ctx context.Context, req *http.Request) error {
	resp, err := c.api.VerifyWebhookSignature(ctx, req, c.webhookID)
	if err != nil {
		return fmt.Errorf("verifying paypal webhook signature: %w", err)
	}
	if resp.VerificationStatus != "SUCCESS" {
		return fmt.Errorf("paypal webhook verification status %q", resp.VerificationStatus)
	}
	return nil
}

func normalizeEnv(raw string) (string, string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv:
		return env, paypalsdk.APIBaseSandBox, nil
	case liveEnv:
		return env, paypalsdk.APIBaseLive, nil
	default:
		return "", "", errInvalidPayPalEnv
	}
}
