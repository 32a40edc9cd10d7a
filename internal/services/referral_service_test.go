package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func newReferralService(env *testEnv) *ReferralService {
	return NewReferralService(env.repo, "voidshop_bot", decimal.RequireFromString("0.05"))
}

func TestGetReferralCodeIsStable(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, 3001, nil)
	service := newReferralService(env)
	ctx := context.Background()

	code, err := service.GetReferralCode(ctx, 3001)
	if err != nil {
		t.Fatalf("GetReferralCode failed: %v", err)
	}
	if !regexp.MustCompile(`^REF\d+[1-9]\d{2}$`).MatchString(code) || !strings.HasPrefix(code, "REF1") {
		t.Errorf("unexpected referral code %q for user %d", code, user.ID)
	}

	again, err := service.GetReferralCode(ctx, 3001)
	if err != nil || again != code {
		t.Errorf("expected the same code, got %q, %v", again, err)
	}

	if _, err := service.GetReferralCode(ctx, 9999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestApplyReferralCode(t *testing.T) {
	env := newTestEnv(t)
	referrer := env.createUser(t, 3001, nil)
	user := env.createUser(t, 3002, nil)
	env.createUser(t, 3003, nil)
	service := newReferralService(env)
	ctx := context.Background()

	code, err := service.GetReferralCode(ctx, 3001)
	if err != nil {
		t.Fatalf("GetReferralCode failed: %v", err)
	}

	if err := service.ApplyReferralCode(ctx, 3001, code); !errors.Is(err, ErrSelfReferral) {
		t.Errorf("expected ErrSelfReferral, got %v", err)
	}
	if err := service.ApplyReferralCode(ctx, 3002, "REF000"); !errors.Is(err, ErrInvalidReferralCode) {
		t.Errorf("expected ErrInvalidReferralCode, got %v", err)
	}

	if err := service.ApplyReferralCode(ctx, 3002, code); err != nil {
		t.Fatalf("ApplyReferralCode failed: %v", err)
	}
	if u := env.reloadUser(t, user.ID); u.ReferredBy == nil || *u.ReferredBy != referrer.ID {
		t.Errorf("expected referred_by %d, got %v", referrer.ID, u.ReferredBy)
	}

	other, err := service.GetReferralCode(ctx, 3003)
	if err != nil {
		t.Fatalf("GetReferralCode failed: %v", err)
	}
	if err := service.ApplyReferralCode(ctx, 3002, other); !errors.Is(err, ErrAlreadyReferred) {
		t.Errorf("expected ErrAlreadyReferred, got %v", err)
	}

	userCode, _ := service.GetReferralCode(ctx, 3002)
	if err := service.ApplyReferralCode(ctx, 3001, userCode); !errors.Is(err, ErrInvalidReferralCode) {
		t.Errorf("expected a referral cycle to be rejected, got %v", err)
	}
}

func TestGetReferralStats(t *testing.T) {
	env := newTestEnv(t)
	referrer := env.createUser(t, 3001, nil)
	env.createUser(t, 3002, &referrer.ID)
	env.createUser(t, 3003, &referrer.ID)
	service := newReferralService(env)
	ctx := context.Background()

	req := env.waitingRequest(t, 3002, 2000)
	if _, err := env.service.Decide(ctx, approve(req.OrderID)); err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	stats, err := service.GetReferralStats(ctx, 3001)
	if err != nil {
		t.Fatalf("GetReferralStats failed: %v", err)
	}

	if stats.TotalReferrals != 2 || stats.ActiveReferrals != 1 {
		t.Errorf("expected 2 referrals with 1 active, got %d/%d", stats.TotalReferrals, stats.ActiveReferrals)
	}
	if !stats.TotalDepositsFromReferrals.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected deposits 2000, got %s", stats.TotalDepositsFromReferrals)
	}
	if !stats.TotalCommission.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected commission 100, got %s", stats.TotalCommission)
	}
	if !stats.CommissionRate.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected commission rate 5, got %s", stats.CommissionRate)
	}
	if stats.ReferralLink != "https://t.me/voidshop_bot?start="+stats.ReferralCode {
		t.Errorf("unexpected referral link %s", stats.ReferralLink)
	}

	var active *ReferralDetail
	for i := range stats.Referrals {
		if stats.Referrals[i].IsActive {
			active = &stats.Referrals[i]
		}
	}
	if active == nil || !active.CommissionEarned.Equal(decimal.NewFromInt(100)) || active.LastActivity == nil {
		t.Errorf("expected active referral detail with commission 100, got %+v", active)
	}
}

func TestGetStatement(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, 3002, nil)
	service := newReferralService(env)
	ctx := context.Background()

	for _, amount := range []int64{1000, 2000, 3000} {
		req := env.waitingRequest(t, 3002, amount)
		if _, err := env.service.Decide(ctx, approve(req.OrderID)); err != nil {
			t.Fatalf("Decide failed: %v", err)
		}
	}

	statement, err := service.GetStatement(ctx, 3002, 2, 0)
	if err != nil {
		t.Fatalf("GetStatement failed: %v", err)
	}
	if statement.Total != 3 || len(statement.Entries) != 2 {
		t.Fatalf("expected 2 of 3 entries, got %d of %d", len(statement.Entries), statement.Total)
	}
	if !statement.Entries[0].Amount.Equal(decimal.NewFromInt(3000)) || !statement.Entries[0].BalanceAfter.Equal(decimal.NewFromInt(6000)) {
		t.Errorf("expected newest entry first, got %+v", statement.Entries[0])
	}

	defaults, err := service.GetStatement(ctx, 3002, 0, -5)
	if err != nil {
		t.Fatalf("GetStatement failed: %v", err)
	}
	if defaults.Limit != defaultStatementLimit || defaults.Offset != 0 || len(defaults.Entries) != 3 {
		t.Errorf("unexpected paging %+v", defaults)
	}
}
