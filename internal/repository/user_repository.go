package repository

import (
	"context"
	"time"

	"balance-topup/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GetUserByID retrieves a user by ID
func (r *Repository) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByTelegramID retrieves a user by their Telegram identity
func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByReferralCode retrieves the owner of a referral code
func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new user
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// UpdateUserProfile refreshes display fields and the activity timestamp
func (r *Repository) UpdateUserProfile(ctx context.Context, userID uint, username, firstName, lastName *string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"username":    username,
			"first_name":  firstName,
			"last_name":   lastName,
			"last_active": time.Now(),
		}).Error
}

// CreditDeposit adds an approved deposit to the user's balance and deposit total
func (r *Repository) CreditDeposit(ctx context.Context, userID uint, amount decimal.Decimal) error {
	return r.credit(ctx, userID, map[string]interface{}{
		"balance":        gorm.Expr("balance + ?", amount),
		"total_deposits": gorm.Expr("total_deposits + ?", amount),
	})
}

// CreditCommission adds a referral commission to the referrer's balance and earnings
func (r *Repository) CreditCommission(ctx context.Context, userID uint, amount decimal.Decimal) error {
	return r.credit(ctx, userID, map[string]interface{}{
		"balance":                 gorm.Expr("balance + ?", amount),
		"total_referral_earnings": gorm.Expr("total_referral_earnings + ?", amount),
	})
}

func (r *Repository) credit(ctx context.Context, userID uint, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AssignReferralCode stores a code only if the user has none yet
func (r *Repository) AssignReferralCode(ctx context.Context, userID uint, code string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND referral_code IS NULL", userID).
		Update("referral_code", code)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AssignReferrer links a user to a referrer only if no referrer is set yet
func (r *Repository) AssignReferrer(ctx context.Context, userID, referrerID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND referred_by IS NULL", userID).
		Update("referred_by", referrerID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListReferredUsers returns users referred by the given user
func (r *Repository) ListReferredUsers(ctx context.Context, referrerID uint) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Where("referred_by = ?", referrerID).
		Order("registered_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
