package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"balance-topup/internal/models"
	"balance-topup/internal/repository"
)

// TelegramProfile is the identity a Telegram client vouches for
type TelegramProfile struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// AuthService handles authentication business logic
type AuthService struct {
	repo      *repository.Repository
	referrals *ReferralService
}

// NewAuthService creates a new AuthService
func NewAuthService(repo *repository.Repository, referrals *ReferralService) *AuthService {
	return &AuthService{repo: repo, referrals: referrals}
}

// ProcessTelegramLogin finds or creates a user by Telegram id. A start parameter
// carrying a referral code is applied only when the user is created.
func (s *AuthService) ProcessTelegramLogin(ctx context.Context, profile TelegramProfile, startParam string) (*models.User, bool, error) {
	if profile.ID == 0 {
		return nil, false, newValidationError("id", "telegram id is required")
	}

	user, err := s.repo.GetUserByTelegramID(ctx, profile.ID)
	if err == nil {
		if err := s.repo.UpdateUserProfile(ctx, user.ID, optional(profile.Username), optional(profile.FirstName), optional(profile.LastName)); err != nil {
			log.Printf("Warning: failed to refresh profile of user %d: %v", user.ID, err)
		}
		log.Printf("User logged in: telegram=%d (ID: %d)", profile.ID, user.ID)
		return user, false, nil
	}
	if !repository.IsNotFound(err) {
		return nil, false, fmt.Errorf("database error: %w", err)
	}

	user = &models.User{
		TelegramID: profile.ID,
		Username:   optional(profile.Username),
		FirstName:  optional(profile.FirstName),
		LastName:   optional(profile.LastName),
		LastActive: time.Now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			// created by a concurrent login
			existing, getErr := s.repo.GetUserByTelegramID(ctx, profile.ID)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to load user: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	log.Printf("New user created: telegram=%d (ID: %d)", profile.ID, user.ID)

	if code := strings.TrimSpace(startParam); code != "" && s.referrals != nil {
		if err := s.referrals.ApplyReferralCode(ctx, profile.ID, code); err != nil {
			log.Printf("Warning: failed to apply referral code %q for user %d: %v", code, user.ID, err)
		} else if fresh, err := s.repo.GetUserByID(ctx, user.ID); err == nil {
			user = fresh
		}
	}

	return user, true, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
