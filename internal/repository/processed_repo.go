package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/timmy/ordermonitor/internal/domain"
)

// ProcessedFileRepository is the durable ledger of dispatched drop files.
type ProcessedFileRepository struct {
	db *gorm.DB
}

// NewProcessedFileRepository creates a new ProcessedFileRepository.
func NewProcessedFileRepository(db *gorm.DB) *ProcessedFileRepository {
	return &ProcessedFileRepository{db: db}
}

// IsProcessed reports whether fingerprint was already dispatched.
func (r *ProcessedFileRepository) IsProcessed(ctx context.Context, fingerprint string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.ProcessedFile{}).
		Where("fingerprint = ?", fingerprint).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkProcessed records rec. Marking the same fingerprint twice is not an error.
func (r *ProcessedFileRepository) MarkProcessed(ctx context.Context, rec *domain.ProcessedFile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec).Error
}

// Count returns the number of ledger entries.
func (r *ProcessedFileRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ProcessedFile{}).Count(&count).Error
	return count, err
}
