package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	stripesdk "github.com/stripe/stripe-go/v84"

	"github.com/adityaverma/getmeachai-backend/pkg/errors"
	"github.com/adityaverma/getmeachai-backend/pkg/logger"
	"github.com/adityaverma/getmeachai-backend/pkg/metrics"
)

type paymentConfirmer interface {
	Confirm(ctx context.Context, paymentID uuid.UUID, providerRef, path string) (bool, error)
}

type ServiceParams struct {
	Payments paymentConfirmer
	Logger   *logger.Logger
}

// Service translates Stripe events into payment confirmations.
type Service struct {
	payments paymentConfirmer
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, errors.New(errors.CodeInternal, "payment confirmer required")
	}
	if params.Logger == nil {
		return nil, errors.New(errors.CodeInternal, "logger required")
	}
	return &Service{
		payments: params.Payments,
		logg:     params.Logger,
	}, nil
}

// HandleEvent processes one verified Stripe event. Event types outside the
// checkout flow are acknowledged without action so Stripe stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, event *stripesdk.Event) error {
	if event == nil || event.Data == nil {
		return errors.New(errors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripesdk.EventTypeCheckoutSessionCompleted:
		var session stripesdk.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return errors.Wrap(errors.CodeValidation, err, "decode checkout session event")
		}
		return s.confirmFromSession(ctx, &session)
	default:
		return nil
	}
}

func (s *Service) confirmFromSession(ctx context.Context, session *stripesdk.CheckoutSession) error {
	rawID := session.Metadata["payment_id"]
	if rawID == "" {
		return errors.New(errors.CodeValidation, "payment_id metadata missing")
	}
	paymentID, err := uuid.Parse(rawID)
	if err != nil {
		return errors.Wrap(errors.CodeValidation, err, "invalid payment_id metadata")
	}

	// Prefer the payment intent: it is the durable transaction reference. The
	// session id still serves when the intent has not been expanded.
	providerRef := session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		providerRef = session.PaymentIntent.ID
	}

	ctx = s.logg.WithPaymentID(ctx, paymentID.String())
	won, err := s.payments.Confirm(ctx, paymentID, providerRef, metrics.PathWebhook)
	if err != nil {
		return err
	}
	if !won {
		s.logg.Info(ctx, "webhook confirmation was a no-op, payment already completed")
	}
	return nil
}
