package repository

import (
	"context"
	"time"

	"balance-topup/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddReferralActivity creates the aggregate for a referral pair on first use and
// otherwise adds to its totals in place.
func (r *Repository) AddReferralActivity(
	ctx context.Context,
	referrerID uint,
	referredID uint,
	deposit decimal.Decimal,
	commission decimal.Decimal,
	at time.Time,
) error {
	initial := models.ReferralAggregate{
		ReferrerID:       referrerID,
		ReferredID:       referredID,
		TotalDeposits:    deposit,
		CommissionEarned: commission,
		CreatedAt:        at,
		LastActivity:     at,
		IsActive:         true,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "referrer_id"}, {Name: "referred_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_deposits":    gorm.Expr("referral_aggregates.total_deposits + ?", deposit),
			"commission_earned": gorm.Expr("referral_aggregates.commission_earned + ?", commission),
			"last_activity":     at,
			"is_active":         true,
		}),
	}).Create(&initial).Error
}

// GetReferralAggregate retrieves the totals for one pair
func (r *Repository) GetReferralAggregate(ctx context.Context, referrerID, referredID uint) (*models.ReferralAggregate, error) {
	var agg models.ReferralAggregate
	err := r.db.WithContext(ctx).
		Where("referrer_id = ? AND referred_id = ?", referrerID, referredID).
		First(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

// ListReferralAggregates returns every pair aggregate owned by a referrer
func (r *Repository) ListReferralAggregates(ctx context.Context, referrerID uint) ([]*models.ReferralAggregate, error) {
	var aggs []*models.ReferralAggregate
	err := r.db.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Find(&aggs).Error
	if err != nil {
		return nil, err
	}
	return aggs, nil
}
