package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"balance-topup/internal/models"
	"balance-topup/internal/repository"
	"balance-topup/internal/utils"

	"github.com/shopspring/decimal"
)

const (
	referralCodeAttempts  = 10
	defaultStatementLimit = 20
	maxStatementLimit     = 100
)

type ReferralService struct {
	repo           *repository.Repository
	botUsername    string
	commissionRate decimal.Decimal
}

func NewReferralService(repo *repository.Repository, botUsername string, commissionRate decimal.Decimal) *ReferralService {
	return &ReferralService{
		repo:           repo,
		botUsername:    botUsername,
		commissionRate: commissionRate,
	}
}

// ReferralDetail describes one referred user from the referrer's point of view
type ReferralDetail struct {
	UserID           uint            `json:"user_id"`
	Name             string          `json:"name"`
	Username         *string         `json:"username,omitempty"`
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	CommissionEarned decimal.Decimal `json:"commission_earned"`
	JoinedAt         time.Time       `json:"joined_at"`
	LastActivity     *time.Time      `json:"last_activity,omitempty"`
	IsActive         bool            `json:"is_active"`
}

// ReferralStats summarises a user's referral programme
type ReferralStats struct {
	ReferralCode               string           `json:"referral_code"`
	ReferralLink               string           `json:"referral_link"`
	TotalReferrals             int              `json:"total_referrals"`
	ActiveReferrals            int              `json:"active_referrals"`
	TotalDepositsFromReferrals decimal.Decimal  `json:"total_deposits_from_referrals"`
	TotalCommission            decimal.Decimal  `json:"total_commission"`
	CommissionRate             decimal.Decimal  `json:"commission_rate"`
	Referrals                  []ReferralDetail `json:"referrals"`
}

// Statement is one page of a user's ledger
type Statement struct {
	Entries []*models.LedgerEntry `json:"entries"`
	Total   int64                 `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

func (s *ReferralService) userByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetReferralCode returns the user's code, assigning one on first use
func (s *ReferralService) GetReferralCode(ctx context.Context, telegramID int64) (string, error) {
	user, err := s.userByTelegramID(ctx, telegramID)
	if err != nil {
		return "", err
	}
	return s.ensureReferralCode(ctx, user)
}

func (s *ReferralService) ensureReferralCode(ctx context.Context, user *models.User) (string, error) {
	if user.ReferralCode != nil && *user.ReferralCode != "" {
		return *user.ReferralCode, nil
	}

	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		suffix, err := utils.ThreeDigitSuffix()
		if err != nil {
			return "", err
		}
		code := fmt.Sprintf("REF%d%d", user.ID, suffix)

		assigned, err := s.repo.AssignReferralCode(ctx, user.ID, code)
		if err != nil {
			if repository.IsDuplicateKey(err) {
				continue
			}
			return "", fmt.Errorf("failed to assign referral code: %w", err)
		}
		if assigned {
			log.Printf("[Referral] generated code %s for user %d", code, user.ID)
			return code, nil
		}

		// someone else assigned a code in the meantime
		fresh, err := s.repo.GetUserByID(ctx, user.ID)
		if err != nil {
			return "", fmt.Errorf("failed to reload user: %w", err)
		}
		if fresh.ReferralCode != nil {
			return *fresh.ReferralCode, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique referral code")
}

// ApplyReferralCode links the user to the owner of code. A referrer can only be set once.
func (s *ReferralService) ApplyReferralCode(ctx context.Context, telegramID int64, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrInvalidReferralCode
	}

	user, err := s.userByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}

	referrer, err := s.repo.GetUserByReferralCode(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrInvalidReferralCode
		}
		return fmt.Errorf("failed to find referral code: %w", err)
	}
	if referrer.ID == user.ID {
		return ErrSelfReferral
	}
	if referrer.ReferredBy != nil && *referrer.ReferredBy == user.ID {
		return ErrInvalidReferralCode
	}

	assigned, err := s.repo.AssignReferrer(ctx, user.ID, referrer.ID)
	if err != nil {
		return fmt.Errorf("failed to apply referral code: %w", err)
	}
	if !assigned {
		return ErrAlreadyReferred
	}

	log.Printf("[Referral] applied code %s: user %d referred by user %d", code, user.ID, referrer.ID)
	return nil
}

// GetReferralStats builds the referral summary shown to the user
func (s *ReferralService) GetReferralStats(ctx context.Context, telegramID int64) (*ReferralStats, error) {
	user, err := s.userByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	code, err := s.ensureReferralCode(ctx, user)
	if err != nil {
		return nil, err
	}

	referred, err := s.repo.ListReferredUsers(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}

	aggs, err := s.repo.ListReferralAggregates(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referral totals: %w", err)
	}
	byReferred := make(map[uint]*models.ReferralAggregate, len(aggs))
	fromReferrals := decimal.Zero
	for _, agg := range aggs {
		byReferred[agg.ReferredID] = agg
		fromReferrals = fromReferrals.Add(agg.TotalDeposits)
	}

	stats := &ReferralStats{
		ReferralCode:               code,
		ReferralLink:               fmt.Sprintf("https://t.me/%s?start=%s", s.botUsername, code),
		TotalReferrals:             len(referred),
		TotalDepositsFromReferrals: fromReferrals,
		TotalCommission:            user.TotalReferralEarnings,
		CommissionRate:             s.commissionRate.Mul(decimal.NewFromInt(100)),
		Referrals:                  make([]ReferralDetail, 0, len(referred)),
	}

	for _, r := range referred {
		detail := ReferralDetail{
			UserID:           r.ID,
			Name:             r.DisplayName(),
			Username:         r.Username,
			TotalDeposits:    r.TotalDeposits,
			CommissionEarned: decimal.Zero,
			JoinedAt:         r.RegisteredAt,
			IsActive:         r.TotalDeposits.IsPositive(),
		}
		if agg, ok := byReferred[r.ID]; ok {
			detail.CommissionEarned = agg.CommissionEarned
			lastActivity := agg.LastActivity
			detail.LastActivity = &lastActivity
		}
		if detail.IsActive {
			stats.ActiveReferrals++
		}
		stats.Referrals = append(stats.Referrals, detail)
	}

	return stats, nil
}

// GetStatement returns the user's ledger entries, newest first
func (s *ReferralService) GetStatement(ctx context.Context, telegramID int64, limit, offset int) (*Statement, error) {
	user, err := s.userByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultStatementLimit
	}
	if limit > maxStatementLimit {
		limit = maxStatementLimit
	}
	if offset < 0 {
		offset = 0
	}

	entries, total, err := s.repo.ListLedgerEntries(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get statement: %w", err)
	}

	return &Statement{Entries: entries, Total: total, Limit: limit, Offset: offset}, nil
}
