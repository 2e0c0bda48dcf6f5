package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/adityaverma/getmeachai-backend/pkg/errors"
)

// Amounts are stored in paise. One crore rupees per payment is plenty.
const maxAmountPaise int64 = 1_000_000_000

// InitiateInput carries a supporter's checkout request. Amount is in rupees
// and may carry up to two decimal places.
type InitiateInput struct {
	PayerName  string
	Message    string
	Amount     decimal.Decimal
	ToUsername string
}

// InitiateResult is returned once a hosted checkout has been opened.
type InitiateResult struct {
	PaymentID   uuid.UUID
	SessionID   string
	CheckoutURL string
}

// SupporterEntry is one row of the top-supporters leaderboard.
type SupporterEntry struct {
	PayerName   string `json:"payer_name"`
	Message     string `json:"message,omitempty"`
	AmountCents int64  `json:"amount_cents"`
}

// SupporterSummary aggregates completed payments for one creator.
type SupporterSummary struct {
	Count            int64            `json:"count"`
	TotalAmountCents int64            `json:"total_amount_cents"`
	Top              []SupporterEntry `json:"top"`
}

// MajorToPaise converts a rupee amount into paise, rejecting amounts that are
// non-positive, carry sub-paisa fractions, or exceed the per-payment cap.
func MajorToPaise(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	shifted := amount.Shift(2)
	if !shifted.IsInteger() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount cannot be smaller than one paisa")
	}
	paise := shifted.IntPart()
	if !shifted.Equal(decimal.NewFromInt(paise)) || paise > maxAmountPaise {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount exceeds the per-payment limit")
	}
	return paise, nil
}
