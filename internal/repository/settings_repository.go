package repository

import (
	"context"
	"errors"
	"time"

	"balance-topup/internal/models"

	"gorm.io/gorm/clause"
)

var ErrSettingNotFound = errors.New("setting not found")

// GetSetting returns the stored value for key
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var setting models.SystemSetting
	err := r.db.WithContext(ctx).Where(&models.SystemSetting{Key: key}).First(&setting).Error
	if err != nil {
		if IsNotFound(err) {
			return "", ErrSettingNotFound
		}
		return "", err
	}
	return setting.Value, nil
}

// SetSetting inserts or overwrites a value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	now := time.Now()
	setting := models.SystemSetting{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": now,
		}),
	}).Create(&setting).Error
}

// InsertSettingIfAbsent stores a default without touching an existing value
func (r *Repository) InsertSettingIfAbsent(ctx context.Context, setting *models.SystemSetting) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(setting)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// GetSettings returns the stored values for the given keys; absent keys are omitted
func (r *Repository) GetSettings(ctx context.Context, keys []string) (map[string]string, error) {
	var settings []models.SystemSetting
	// map conditions let gorm quote the column; key is a keyword in sqlite
	if err := r.db.WithContext(ctx).Where(map[string]interface{}{"key": keys}).Find(&settings).Error; err != nil {
		return nil, err
	}

	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = s.Value
	}
	return values, nil
}
