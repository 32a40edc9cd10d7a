package repository

import (
	"context"
	"errors"
	"time"

	"balance-topup/internal/models"

	"gorm.io/gorm"
)

// CreateTopUpRequest persists a new top-up request
func (r *Repository) CreateTopUpRequest(ctx context.Context, req *models.TopUpRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// GetTopUpRequest retrieves a request by its order id
func (r *Repository) GetTopUpRequest(ctx context.Context, orderID string) (*models.TopUpRequest, error) {
	var req models.TopUpRequest
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// OrderIDExists reports whether an order id is already taken
func (r *Repository) OrderIDExists(ctx context.Context, orderID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TopUpRequest{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// TransitionTopUpRequest moves a request from one status to another, applying the
// extra column updates in the same statement. The update only matches when the
// stored status equals from, so of two concurrent callers at most one sees true.
func (r *Repository) TransitionTopUpRequest(
	ctx context.Context,
	orderID string,
	from models.TopUpStatus,
	to models.TopUpStatus,
	updates map[string]interface{},
) (bool, error) {
	values := map[string]interface{}{"status": to}
	for k, v := range updates {
		values[k] = v
	}

	result := r.db.WithContext(ctx).
		Model(&models.TopUpRequest{}).
		Where("order_id = ? AND status = ?", orderID, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListTopUpRequestsByTelegramID returns a user's requests, newest first
func (r *Repository) ListTopUpRequestsByTelegramID(ctx context.Context, telegramID int64) ([]*models.TopUpRequest, error) {
	var requests []*models.TopUpRequest
	err := r.db.WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// ListTopUpRequestsByStatus returns requests in a status that last changed before
// the cutoff, oldest first. A zero cutoff disables the age filter.
func (r *Repository) ListTopUpRequestsByStatus(
	ctx context.Context,
	status models.TopUpStatus,
	paidBefore time.Time,
	limit int,
) ([]*models.TopUpRequest, error) {
	query := r.db.WithContext(ctx).Where("status = ?", status)
	if !paidBefore.IsZero() {
		query = query.Where("paid_at < ?", paidBefore)
	}

	var requests []*models.TopUpRequest
	err := query.
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// IsNotFound reports whether err means the row does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKey reports whether err is a unique constraint violation
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
