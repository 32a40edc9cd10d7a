package services

import (
	"fmt"
	"strings"

	"balance-topup/internal/models"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// Setting keys holding payment details
const (
	SettingCardNumber = "payment_card_number"
	SettingCardHolder = "payment_card_holder"
	SettingBankName   = "payment_bank_name"
	SettingBTCWallet  = "payment_btc_wallet"
	SettingUSDTWallet = "payment_usdt_wallet"
	SettingSOLWallet  = "payment_sol_wallet"
)

// PaymentSettings is a read-only snapshot of the payment details shown to users
type PaymentSettings struct {
	CardNumber string
	CardHolder string
	BankName   string
	BTCWallet  string
	USDTWallet string
	SOLWallet  string
}

// DefaultPaymentSettings are used for any key the settings store cannot provide.
// There is no default SOL wallet; crypto instructions omit it until one is set.
func DefaultPaymentSettings() PaymentSettings {
	return PaymentSettings{
		CardNumber: "5536 9141 2345 6789",
		CardHolder: "VOID SHOP",
		BankName:   "Сбер Банк",
		BTCWallet:  "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh",
		USDTWallet: "TQRRm4Pg5wKTZJhP5QiCEkT3JzRzJ3qS4F",
	}
}

// PaymentSettingKeys lists every key read into a snapshot
func PaymentSettingKeys() []string {
	return []string{
		SettingCardNumber,
		SettingCardHolder,
		SettingBankName,
		SettingBTCWallet,
		SettingUSDTWallet,
		SettingSOLWallet,
	}
}

// paymentSettingsFrom overlays stored values on the defaults, dropping wallets that fail validation
func paymentSettingsFrom(values map[string]string) PaymentSettings {
	ps := DefaultPaymentSettings()
	if v := strings.TrimSpace(values[SettingCardNumber]); v != "" {
		ps.CardNumber = v
	}
	if v := strings.TrimSpace(values[SettingCardHolder]); v != "" {
		ps.CardHolder = v
	}
	if v := strings.TrimSpace(values[SettingBankName]); v != "" {
		ps.BankName = v
	}
	if v := strings.TrimSpace(values[SettingBTCWallet]); v != "" {
		ps.BTCWallet = v
	}
	if v := strings.TrimSpace(values[SettingUSDTWallet]); v != "" && ValidTronAddress(v) {
		ps.USDTWallet = v
	}
	if v := strings.TrimSpace(values[SettingSOLWallet]); v != "" && ValidSolanaAddress(v) {
		ps.SOLWallet = v
	}
	return ps
}

// ValidTronAddress checks the base58 shape of a TRC20 address: 25 bytes with the 0x41 prefix
func ValidTronAddress(addr string) bool {
	if !strings.HasPrefix(addr, "T") {
		return false
	}
	raw, err := base58.Decode(addr)
	if err != nil {
		return false
	}
	return len(raw) == 25 && raw[0] == 0x41
}

// ValidSolanaAddress reports whether addr decodes to a 32-byte public key
func ValidSolanaAddress(addr string) bool {
	_, err := solana.PublicKeyFromBase58(addr)
	return err == nil
}

// PaymentInstructions tells the user where and how to pay
type PaymentInstructions struct {
	Type         models.PaymentMethod `json:"type"`
	Amount       decimal.Decimal      `json:"amount"`
	CardNumber   string               `json:"card_number,omitempty"`
	CardHolder   string               `json:"card_holder,omitempty"`
	Bank         string               `json:"bank,omitempty"`
	WalletBTC    string               `json:"wallet_btc,omitempty"`
	WalletUSDT   string               `json:"wallet_usdt,omitempty"`
	WalletSOL    string               `json:"wallet_sol,omitempty"`
	Instructions []string             `json:"instructions"`
}

// BuildInstructions renders payment instructions for a method from a settings snapshot
func BuildInstructions(ps PaymentSettings, method models.PaymentMethod, amount decimal.Decimal) PaymentInstructions {
	amountText := amount.StringFixed(2)

	if method == models.PaymentMethodCrypto {
		return PaymentInstructions{
			Type:       models.PaymentMethodCrypto,
			Amount:     amount,
			WalletBTC:  ps.BTCWallet,
			WalletUSDT: ps.USDTWallet,
			WalletSOL:  ps.SOLWallet,
			Instructions: []string{
				fmt.Sprintf("Send cryptocurrency equivalent to %s RUB", amountText),
				"Take a screenshot of the transaction",
				"Upload the screenshot in the app",
				"Press \"I have paid\"",
			},
		}
	}

	return PaymentInstructions{
		Type:       models.PaymentMethodCard,
		Amount:     amount,
		CardNumber: ps.CardNumber,
		CardHolder: ps.CardHolder,
		Bank:       ps.BankName,
		Instructions: []string{
			fmt.Sprintf("Transfer exactly %s RUB to the card", amountText),
			"Take a screenshot of the payment receipt",
			"Upload the receipt in the app",
			"Press \"I have paid\"",
			"Wait for confirmation (5-15 minutes)",
		},
	}
}

// PaymentMethodInfo describes a payment channel in the methods catalog
type PaymentMethodInfo struct {
	ID             models.PaymentMethod `json:"id"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	MinAmount      decimal.Decimal      `json:"min_amount"`
	MaxAmount      decimal.Decimal      `json:"max_amount"`
	ProcessingTime string               `json:"processing_time"`
	Enabled        bool                 `json:"enabled"`
}
