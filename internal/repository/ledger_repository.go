package repository

import (
	"context"

	"balance-topup/internal/models"
)

// CreateLedgerEntry records a balance mutation
func (r *Repository) CreateLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListLedgerEntries retrieves a user's statement with total count
func (r *Repository) ListLedgerEntries(ctx context.Context, userID uint, limit, offset int) ([]*models.LedgerEntry, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var entries []*models.LedgerEntry
	err = r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
