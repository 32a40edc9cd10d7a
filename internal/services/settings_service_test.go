package services

import (
	"context"
	"strings"
	"testing"

	"balance-topup/internal/models"
	"balance-topup/internal/repository"

	"github.com/shopspring/decimal"
)

func TestSettingsServiceGetSet(t *testing.T) {
	db := setupTestDB(t)
	settings := NewSettingsService(repository.NewRepository(db), nil)
	ctx := context.Background()

	if _, ok, err := settings.Get(ctx, SettingCardNumber); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := settings.Set(ctx, SettingCardNumber, "4000 0000 0000 0002"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := settings.Set(ctx, SettingCardNumber, "4000 0000 0000 0003"); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}

	value, ok, err := settings.Get(ctx, SettingCardNumber)
	if err != nil || !ok || value != "4000 0000 0000 0003" {
		t.Errorf("Get returned %q ok=%v err=%v", value, ok, err)
	}
}

func TestSettingsServiceSeedDefaults(t *testing.T) {
	db := setupTestDB(t)
	settings := NewSettingsService(repository.NewRepository(db), nil)
	ctx := context.Background()

	if err := settings.Set(ctx, SettingCardHolder, "ACME LTD"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	inserted, err := settings.SeedDefaults(ctx)
	if err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}
	if inserted != 4 {
		t.Errorf("expected 4 defaults inserted, got %d", inserted)
	}

	again, err := settings.SeedDefaults(ctx)
	if err != nil || again != 0 {
		t.Errorf("expected seeding to be idempotent, got %d, %v", again, err)
	}

	holder, _, _ := settings.Get(ctx, SettingCardHolder)
	if holder != "ACME LTD" {
		t.Errorf("seeding must not overwrite existing values, got %q", holder)
	}

	var count int64
	db.Model(&models.SystemSetting{}).Count(&count)
	if count != 5 {
		t.Errorf("expected 5 settings rows, got %d", count)
	}
}

func TestSettingsSnapshotFallsBackToDefaults(t *testing.T) {
	db := setupTestDB(t)
	settings := NewSettingsService(repository.NewRepository(db), nil)
	ctx := context.Background()

	_ = settings.Set(ctx, SettingBankName, "T-Bank")
	_ = settings.Set(ctx, SettingUSDTWallet, "not-a-wallet")

	snap := settings.Snapshot(ctx)
	defaults := DefaultPaymentSettings()
	if snap.BankName != "T-Bank" {
		t.Errorf("expected stored bank name, got %q", snap.BankName)
	}
	if snap.CardNumber != defaults.CardNumber {
		t.Errorf("expected default card number, got %q", snap.CardNumber)
	}
	if snap.USDTWallet != defaults.USDTWallet {
		t.Errorf("invalid wallet must fall back to default, got %q", snap.USDTWallet)
	}

	// a broken store still yields a usable snapshot
	sqlDB, _ := db.DB()
	sqlDB.Close()
	if got := settings.Snapshot(ctx); got.CardNumber != defaults.CardNumber {
		t.Errorf("expected defaults when the store fails, got %+v", got)
	}
}

func TestWalletValidation(t *testing.T) {
	if !ValidTronAddress(DefaultPaymentSettings().USDTWallet) {
		t.Errorf("default USDT wallet should be valid")
	}
	for _, addr := range []string{"", "T123", "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh", "TQRRm4Pg5wKTZJhP5QiCEkT3JzRzJ3qS40"} {
		if ValidTronAddress(addr) {
			t.Errorf("expected %q to be rejected", addr)
		}
	}

	if !ValidSolanaAddress("So11111111111111111111111111111111111111112") {
		t.Errorf("expected wrapped SOL mint to be a valid address")
	}
	if ValidSolanaAddress("not-base58-0OIl") {
		t.Errorf("expected invalid solana address to be rejected")
	}
}

func TestBuildInstructions(t *testing.T) {
	ps := DefaultPaymentSettings()
	ps.SOLWallet = "So11111111111111111111111111111111111111112"
	amount := decimal.NewFromInt(1500)

	card := BuildInstructions(ps, models.PaymentMethodCard, amount)
	if card.Type != models.PaymentMethodCard || card.CardNumber != ps.CardNumber || card.Bank != ps.BankName {
		t.Errorf("unexpected card instructions %+v", card)
	}
	if card.WalletBTC != "" {
		t.Errorf("card instructions must not carry wallets")
	}
	if len(card.Instructions) == 0 || !strings.Contains(card.Instructions[0], "1500.00") {
		t.Errorf("expected the amount in the first step, got %v", card.Instructions)
	}

	crypto := BuildInstructions(ps, models.PaymentMethodCrypto, amount)
	if crypto.WalletBTC != ps.BTCWallet || crypto.WalletUSDT != ps.USDTWallet || crypto.WalletSOL != ps.SOLWallet {
		t.Errorf("unexpected crypto instructions %+v", crypto)
	}
	if crypto.CardNumber != "" {
		t.Errorf("crypto instructions must not carry card details")
	}
}
