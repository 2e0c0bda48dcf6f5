package models

import (
	"time"

	"github.com/google/uuid"
)

// ProviderRefPending is the sentinel provider reference a payment carries from
// creation until a confirmation path stores the real transaction id.
const ProviderRefPending = "pending"

// Payment is one supporter's contribution attempt, pending until a checkout
// confirmation (webhook or redirect) marks it completed. Amounts are integer
// minor units (paise).
type Payment struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PayerName   string    `gorm:"column:payer_name;not null"`
	Message     *string   `gorm:"column:message"`
	AmountCents int64     `gorm:"column:amount_cents;not null"`
	ToUsername  string    `gorm:"column:to_username;type:text;not null;index"`
	ProviderRef string    `gorm:"column:provider_ref;not null;default:'pending'"`
	Completed   bool      `gorm:"column:completed;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
