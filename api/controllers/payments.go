package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/adityaverma/getmeachai-backend/api/responses"
	"github.com/adityaverma/getmeachai-backend/api/validators"
	"github.com/adityaverma/getmeachai-backend/internal/payments"
	pkgerrors "github.com/adityaverma/getmeachai-backend/pkg/errors"
	"github.com/adityaverma/getmeachai-backend/pkg/logger"
)

type paymentInitiator interface {
	Initiate(ctx context.Context, input payments.InitiateInput) (*payments.InitiateResult, error)
}

type supporterSummarizer interface {
	Summary(ctx context.Context, username string) (*payments.SupporterSummary, error)
}

type checkoutRequest struct {
	Name       string          `json:"name" validate:"required,max=100"`
	Message    string          `json:"message" validate:"max=280"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	ToUsername string          `json:"to_username" validate:"required"`
}

type checkoutResponse struct {
	PaymentID   string `json:"payment_id"`
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// PaymentCheckout opens a hosted checkout session for a supporter.
func PaymentCheckout(svc paymentInitiator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Initiate(r.Context(), payments.InitiateInput{
			PayerName:  body.Name,
			Message:    body.Message,
			Amount:     body.Amount,
			ToUsername: body.ToUsername,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			PaymentID:   result.PaymentID.String(),
			SessionID:   result.SessionID,
			CheckoutURL: result.CheckoutURL,
		})
	}
}

// PaymentSupporters returns the aggregate supporter stats for one creator.
func PaymentSupporters(svc supporterSummarizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		username, err := validators.RequireQuery(r, "username")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), username)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}
