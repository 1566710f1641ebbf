package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/timmy/ordermonitor/internal/domain"
)

// ExceptionRepository stores audit rows for files that could not be ingested.
type ExceptionRepository struct {
	db *gorm.DB
}

// NewExceptionRepository creates a new ExceptionRepository.
func NewExceptionRepository(db *gorm.DB) *ExceptionRepository {
	return &ExceptionRepository{db: db}
}

// RecordException inserts rec unless a row with the same fingerprint exists,
// so a bad file that is picked up on every sweep is audited once.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - rec: audit row; ID and CreatedAt are filled in if empty.
// Returns:
//   - error: non-nil if the insert fails.
func (r *ExceptionRepository) RecordException(ctx context.Context, rec *domain.ExceptionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fingerprint"}},
		DoNothing: true,
	}).Create(rec).Error
}

// ListRecent returns the newest audit rows, optionally filtered by transaction type.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - transactionType: "OrderTransaction", "OrderCancellation" or "" for all.
//   - limit: maximum rows.
// Returns:
//   - []domain.ExceptionRecord: rows, newest first.
//   - error: non-nil if the query fails.
func (r *ExceptionRepository) ListRecent(ctx context.Context, transactionType string, limit int) ([]domain.ExceptionRecord, error) {
	var records []domain.ExceptionRecord
	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if transactionType != "" {
		query = query.Where("transaction_type = ?", transactionType)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the total number of audit rows.
func (r *ExceptionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ExceptionRecord{}).Count(&count).Error
	return count, err
}
