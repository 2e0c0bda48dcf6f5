package payments

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	stripesdk "github.com/stripe/stripe-go/v84"

	"github.com/adityaverma/getmeachai-backend/pkg/db/models"
	pkgerrors "github.com/adityaverma/getmeachai-backend/pkg/errors"
	"github.com/adityaverma/getmeachai-backend/pkg/logger"
	"github.com/adityaverma/getmeachai-backend/pkg/metrics"
	stripeclient "github.com/adityaverma/getmeachai-backend/pkg/stripe"
)

const topSupportersLimit = 10

type recipientChecker interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type checkoutClient interface {
	CreateCheckoutSession(ctx context.Context, params stripeclient.CheckoutSessionParams) (*stripesdk.CheckoutSession, error)
}

// ServiceParams groups dependencies for the payment service.
type ServiceParams struct {
	Repo       Repository
	Recipients recipientChecker
	Checkout   checkoutClient
	Metrics    *metrics.PaymentMetrics
	Logger     *logger.Logger
	APIBaseURL string
	WebBaseURL string
}

// Service orchestrates checkout initiation, confirmation, and aggregation.
type Service struct {
	repo       Repository
	recipients recipientChecker
	checkout   checkoutClient
	metrics    *metrics.PaymentMetrics
	logg       *logger.Logger
	apiBaseURL string
	webBaseURL string
}

// NewService builds a payment service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment repo required")
	}
	if params.Recipients == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "recipient checker required")
	}
	if params.Checkout == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout client required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		repo:       params.Repo,
		recipients: params.Recipients,
		checkout:   params.Checkout,
		metrics:    params.Metrics,
		logg:       params.Logger,
		apiBaseURL: strings.TrimRight(params.APIBaseURL, "/"),
		webBaseURL: strings.TrimRight(params.WebBaseURL, "/"),
	}, nil
}

// Initiate records a pending payment and opens a hosted checkout for it. The
// record is created first so both confirmation paths have something to find;
// if the provider call fails the record is deleted again so abandoned rows
// don't pile up for sessions that never existed.
func (s *Service) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	payerName := strings.TrimSpace(input.PayerName)
	if payerName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payer name is required")
	}
	username := strings.TrimSpace(input.ToUsername)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}

	paise, err := MajorToPaise(input.Amount)
	if err != nil {
		return nil, err
	}

	exists, err := s.recipients.UsernameExists(ctx, username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "check recipient")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("user %q not found", username))
	}

	payment := &models.Payment{
		ID:          uuid.New(),
		PayerName:   payerName,
		AmountCents: paise,
		ToUsername:  username,
		ProviderRef: models.ProviderRefPending,
	}
	message := strings.TrimSpace(input.Message)
	if message != "" {
		payment.Message = &message
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create payment record")
	}

	ctx = s.logg.WithPaymentID(ctx, payment.ID.String())

	start := time.Now()
	session, err := s.checkout.CreateCheckoutSession(ctx, stripeclient.CheckoutSessionParams{
		PaymentID:  payment.ID,
		PayerName:  payerName,
		Message:    message,
		Username:   username,
		AmountUnit: paise,
		SuccessURL: s.successURL(payment.ID, username),
		CancelURL:  s.cancelURL(username),
	})
	s.metrics.ObserveCheckoutDuration(time.Since(start))
	if err != nil {
		s.metrics.IncProviderFailure()
		if delErr := s.repo.Delete(ctx, payment.ID); delErr != nil {
			// The stale pending sweep will catch the orphan later.
			s.logg.Error(ctx, "rollback of pending payment failed", delErr)
		}
		return nil, err
	}

	s.metrics.IncInitiated()
	s.logg.Info(ctx, "checkout session opened")

	return &InitiateResult{
		PaymentID:   payment.ID,
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	}, nil
}

// Confirm marks a payment completed with the given provider reference. It
// reports whether this call won the race; a false return with nil error means
// another path already confirmed the payment and nothing was changed.
func (s *Service) Confirm(ctx context.Context, paymentID uuid.UUID, providerRef, path string) (bool, error) {
	if providerRef == "" || providerRef == models.ProviderRefPending {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "provider reference is required")
	}

	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load payment")
	}
	if payment == nil {
		return false, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if payment.Completed {
		return false, nil
	}

	won, err := s.repo.MarkCompleted(ctx, paymentID, providerRef)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "mark payment completed")
	}
	if won {
		s.metrics.IncCompleted(path)
		ctx = s.logg.WithPaymentID(ctx, paymentID.String())
		s.logg.Info(ctx, fmt.Sprintf("payment confirmed via %s", path))
	}
	return won, nil
}

// Summary aggregates completed payments for one creator. Unknown usernames
// yield an empty summary rather than an error.
func (s *Service) Summary(ctx context.Context, username string) (*SupporterSummary, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	summary, err := s.repo.Summary(ctx, username, topSupportersLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "aggregate payments")
	}
	return summary, nil
}

func (s *Service) successURL(paymentID uuid.UUID, username string) string {
	q := url.Values{}
	q.Set("payment_id", paymentID.String())
	q.Set("redirect_to", "/"+username)
	return fmt.Sprintf("%s/api/v1/payments/success?%s", s.apiBaseURL, q.Encode())
}

func (s *Service) cancelURL(username string) string {
	return fmt.Sprintf("%s/%s?payment=cancelled", s.webBaseURL, username)
}
