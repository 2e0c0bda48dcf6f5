package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adityaverma/getmeachai-backend/pkg/db/models"
)

// Repository handles payment persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, providerRef string) (bool, error)
	Summary(ctx context.Context, username string, topN int) (*SupporterSummary, error)
	DeleteStalePending(ctx context.Context, olderThan time.Duration) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Payment{}, "id = ?", id).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// MarkCompleted flips a pending payment to completed and stores the provider
// reference in one conditional update. The `completed = FALSE` predicate makes
// concurrent confirmations converge on a single winner: losers report zero
// rows affected and must not touch the stored reference.
func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, providerRef string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND completed = ?", id, false).
		Updates(map[string]any{
			"completed":    true,
			"provider_ref": providerRef,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

type summaryRow struct {
	Count int64
	Total int64
}

func (r *repository) Summary(ctx context.Context, username string, topN int) (*SupporterSummary, error) {
	if topN <= 0 {
		topN = 10
	}

	var totals summaryRow
	if err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount_cents), 0) AS total").
		Where("to_username = ? AND completed = ?", username, true).
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	summary := &SupporterSummary{
		Count:            totals.Count,
		TotalAmountCents: totals.Total,
		Top:              []SupporterEntry{},
	}
	if totals.Count == 0 {
		return summary, nil
	}

	var rows []models.Payment
	if err := r.db.WithContext(ctx).
		Where("to_username = ? AND completed = ?", username, true).
		Order("amount_cents DESC, created_at ASC").
		Limit(topN).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		entry := SupporterEntry{
			PayerName:   row.PayerName,
			AmountCents: row.AmountCents,
		}
		if row.Message != nil {
			entry.Message = *row.Message
		}
		summary.Top = append(summary.Top, entry)
	}
	return summary, nil
}

// DeleteStalePending clears abandoned checkout records older than the cutoff.
// Completed rows are never touched.
func (r *repository) DeleteStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		olderThan = 24 * time.Hour
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	res := r.db.WithContext(ctx).
		Where("completed = ? AND created_at < ?", false, cutoff).
		Delete(&models.Payment{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
