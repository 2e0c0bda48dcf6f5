package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	stripesdk "github.com/stripe/stripe-go/v84"

	"github.com/adityaverma/getmeachai-backend/pkg/config"
	pkgerrors "github.com/adityaverma/getmeachai-backend/pkg/errors"
	"github.com/adityaverma/getmeachai-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"

	defaultCheckoutTimeout = 5 * time.Second
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errLoggerRequired   = errors.New("stripe logger is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Client wraps Stripe's API client with centralized logging, bounded call
// timeouts, and error mapping to domain codes.
type Client struct {
	api             *stripesdk.Client
	environment     string
	currency        string
	webhookSecret   string
	checkoutTimeout time.Duration
	logger          *logger.Logger
}

// CheckoutSessionParams describes one hosted checkout for a single payment.
type CheckoutSessionParams struct {
	PaymentID  uuid.UUID
	PayerName  string
	Message    string
	Username   string
	AmountUnit int64 // minor units
	SuccessURL string
	CancelURL  string
}

// NewClient validates the configured credentials and initializes the wrapper.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	timeout := cfg.CheckoutTimeout
	if timeout <= 0 {
		timeout = defaultCheckoutTimeout
	}

	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		// Deliberately non-fatal: verification is skipped without a secret,
		// which is a configuration gap rather than a startup failure.
		logg.Warn(ctx, "stripe webhook secret not configured, webhook signatures will not be verified")
	}

	c := &Client{
		api:             stripesdk.NewClient(apiKey),
		environment:     env,
		currency:        strings.ToLower(strings.TrimSpace(cfg.Currency)),
		webhookSecret:   webhookSecret,
		checkoutTimeout: timeout,
		logger:          logg,
	}
	if c.currency == "" {
		c.currency = "inr"
	}

	logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	return c, nil
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret; empty when unconfigured.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// CreateCheckoutSession opens a hosted checkout for one pending payment. The
// payment id travels as session metadata and inside the redirect URLs so both
// confirmation paths can correlate the session back to the local record.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*stripesdk.CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, c.checkoutTimeout)
	defer cancel()

	description := "Support with a chai"
	if params.Message != "" {
		description = fmt.Sprintf("Message: %s", params.Message)
	}

	req := &stripesdk.CheckoutSessionCreateParams{
		Mode:               stripesdk.String(string(stripesdk.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripesdk.StringSlice([]string{"card"}),
		LineItems: []*stripesdk.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripesdk.CheckoutSessionCreateLineItemPriceDataParams{
					Currency: stripesdk.String(c.currency),
					ProductData: &stripesdk.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name:        stripesdk.String(fmt.Sprintf("Chai for %s", params.Username)),
						Description: stripesdk.String(description),
					},
					UnitAmount: stripesdk.Int64(params.AmountUnit),
				},
				Quantity: stripesdk.Int64(1),
			},
		},
		SuccessURL: stripesdk.String(params.SuccessURL),
		CancelURL:  stripesdk.String(params.CancelURL),
		Metadata: map[string]string{
			"payment_id": params.PaymentID.String(),
			"name":       params.PayerName,
			"to_user":    params.Username,
			"message":    params.Message,
		},
	}

	c.log(ctx, "request", "create_checkout_session", map[string]any{
		"payment_id": params.PaymentID.String(),
		"to_user":    params.Username,
		"amount":     params.AmountUnit,
	})

	session, err := c.api.V1CheckoutSessions.Create(ctx, req)
	if err != nil {
		c.log(ctx, "error", "create_checkout_session", map[string]any{"error": err.Error()})
		return nil, c.mapStripeError(err, "create checkout session")
	}

	c.log(ctx, "response", "create_checkout_session", map[string]any{
		"session_id": session.ID,
	})
	return session, nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("stripe %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("stripe %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "secret", "token", "email"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (c *Client) mapStripeError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodePaymentProvider, err, fmt.Sprintf("stripe %s timed out", op))
	}
	var apiErr *stripesdk.Error
	if errors.As(err, &apiErr) {
		code := domainCodeForStatus(apiErr.HTTPStatusCode)
		return pkgerrors.Wrap(code, err, fmt.Sprintf("stripe %s failed", op)).
			WithDetails(map[string]any{"provider_message": apiErr.Msg})
	}
	return pkgerrors.Wrap(pkgerrors.CodePaymentProvider, err, fmt.Sprintf("stripe %s failed", op))
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.CodeUnauthorized
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	default:
		// Client-side request mistakes and provider outages both surface to
		// callers as a provider failure so the initiation path rolls back.
		return pkgerrors.CodePaymentProvider
	}
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
