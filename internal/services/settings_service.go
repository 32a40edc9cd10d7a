package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"balance-topup/internal/models"
	"balance-topup/internal/repository"

	"github.com/redis/go-redis/v9"
)

const settingsCacheTTL = 5 * time.Minute

// SettingsStore reads operator-editable configuration
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Snapshot(ctx context.Context) PaymentSettings
}

// SettingsService serves system settings from the database with an optional Redis cache in front
type SettingsService struct {
	repo  *repository.Repository
	cache *redis.Client
}

// NewSettingsService creates a settings service; cache may be nil
func NewSettingsService(repo *repository.Repository, cache *redis.Client) *SettingsService {
	return &SettingsService{repo: repo, cache: cache}
}

func settingsCacheKey(key string) string {
	return "settings:" + key
}

// Get returns the value for key and whether it exists
func (s *SettingsService) Get(ctx context.Context, key string) (string, bool, error) {
	if s.cache != nil {
		value, err := s.cache.Get(ctx, settingsCacheKey(key)).Result()
		if err == nil {
			return value, true, nil
		}
		if !errors.Is(err, redis.Nil) {
			log.Printf("[Settings] cache read %s failed: %v", key, err)
		}
	}

	value, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrSettingNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}

	s.remember(ctx, key, value)
	return value, true, nil
}

// Set writes a value and drops the cached copy
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if err := s.repo.SetSetting(ctx, key, value); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, settingsCacheKey(key)).Err(); err != nil {
			log.Printf("[Settings] cache invalidate %s failed: %v", key, err)
		}
	}
	return nil
}

// SeedDefaults inserts the default payment details for every key not yet stored
func (s *SettingsService) SeedDefaults(ctx context.Context) (int, error) {
	defaults := DefaultPaymentSettings()
	seed := []models.SystemSetting{
		{Key: SettingCardNumber, Value: defaults.CardNumber, Description: "Card number for transfers", Category: "payment"},
		{Key: SettingCardHolder, Value: defaults.CardHolder, Description: "Card holder name", Category: "payment"},
		{Key: SettingBankName, Value: defaults.BankName, Description: "Bank name", Category: "payment"},
		{Key: SettingBTCWallet, Value: defaults.BTCWallet, Description: "BTC wallet address", Category: "payment"},
		{Key: SettingUSDTWallet, Value: defaults.USDTWallet, Description: "USDT (TRC20) wallet address", Category: "payment"},
		{Key: SettingSOLWallet, Value: defaults.SOLWallet, Description: "SOL wallet address", Category: "payment"},
	}

	inserted := 0
	for i := range seed {
		if seed[i].Value == "" {
			continue
		}
		created, err := s.repo.InsertSettingIfAbsent(ctx, &seed[i])
		if err != nil {
			return inserted, fmt.Errorf("failed to seed %s: %w", seed[i].Key, err)
		}
		if created {
			inserted++
		}
	}
	return inserted, nil
}

// Snapshot reads all payment keys at once. It never fails: unreadable or absent
// keys fall back to the defaults.
func (s *SettingsService) Snapshot(ctx context.Context) PaymentSettings {
	keys := PaymentSettingKeys()
	values := make(map[string]string, len(keys))
	missing := make([]string, 0, len(keys))

	if s.cache != nil {
		cacheKeys := make([]string, len(keys))
		for i, k := range keys {
			cacheKeys[i] = settingsCacheKey(k)
		}
		cached, err := s.cache.MGet(ctx, cacheKeys...).Result()
		if err != nil {
			log.Printf("[Settings] cache snapshot failed: %v", err)
			cached = nil
		}
		for i, k := range keys {
			if i < len(cached) {
				if v, ok := cached[i].(string); ok {
					values[k] = v
					continue
				}
			}
			missing = append(missing, k)
		}
	} else {
		missing = keys
	}

	if len(missing) > 0 {
		stored, err := s.repo.GetSettings(ctx, missing)
		if err != nil {
			log.Printf("[Settings] snapshot read failed, using defaults: %v", err)
		}
		for k, v := range stored {
			values[k] = v
			s.remember(ctx, k, v)
		}
	}

	return paymentSettingsFrom(values)
}

func (s *SettingsService) remember(ctx context.Context, key, value string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, settingsCacheKey(key), value, settingsCacheTTL).Err(); err != nil {
		log.Printf("[Settings] cache write %s failed: %v", key, err)
	}
}
