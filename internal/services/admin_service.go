package services

import (
	"context"
	"fmt"
	"log"
	"slices"

	"balance-topup/internal/models"
	"balance-topup/internal/repository"
)

const (
	defaultAdminLogLimit = 50
	maxAdminLogLimit     = 200
)

type AdminService struct {
	repo     *repository.Repository
	adminIDs []int64
}

// NewAdminService creates an admin service. Telegram ids in adminIDs are admins
// regardless of the admin_users table.
func NewAdminService(repo *repository.Repository, adminIDs []int64) *AdminService {
	return &AdminService{
		repo:     repo,
		adminIDs: adminIDs,
	}
}

// IsAdmin checks if a Telegram user may review top-up requests
func (s *AdminService) IsAdmin(ctx context.Context, telegramID int64) bool {
	if slices.Contains(s.adminIDs, telegramID) {
		return true
	}

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return false
	}
	_, err = s.repo.GetAdminByUserID(ctx, user.ID)
	return err == nil
}

// PromoteUserToAdmin records a user as admin with the given role
func (s *AdminService) PromoteUserToAdmin(ctx context.Context, telegramID int64, role string, promotedBy int64) (*models.AdminUser, error) {
	if role != models.AdminRoleSuperAdmin && role != models.AdminRoleModerator {
		return nil, newValidationError("role", "role must be SUPER_ADMIN or MODERATOR")
	}

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	adminUser := models.AdminUser{
		UserID: user.ID,
		Role:   role,
	}
	if err := s.repo.CreateAdmin(ctx, &adminUser); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, fmt.Errorf("user is already an admin")
		}
		return nil, fmt.Errorf("failed to promote user: %w", err)
	}

	s.LogAdminAction(ctx, promotedBy, "PROMOTE_USER", "user", fmt.Sprint(telegramID), models.JSONB{
		"role": role,
	})

	log.Printf("User %d promoted to %s", telegramID, role)
	return &adminUser, nil
}

// LogAdminAction appends to the audit trail; failures are logged only
func (s *AdminService) LogAdminAction(ctx context.Context, adminTelegramID int64, action, resourceType, resourceID string, details models.JSONB) {
	entry := models.AdminLog{
		AdminTelegramID: adminTelegramID,
		Action:          action,
		ResourceType:    resourceType,
		ResourceID:      resourceID,
		Details:         details,
	}
	if err := s.repo.CreateAdminLog(ctx, &entry); err != nil {
		log.Printf("Failed to log admin action %s: %v", action, err)
	}
}

// GetAdminLogs returns audit entries, newest first
func (s *AdminService) GetAdminLogs(ctx context.Context, limit int, offset int) ([]*models.AdminLog, int64, error) {
	if limit <= 0 {
		limit = defaultAdminLogLimit
	}
	if limit > maxAdminLogLimit {
		limit = maxAdminLogLimit
	}
	if offset < 0 {
		offset = 0
	}

	logs, total, err := s.repo.ListAdminLogs(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get admin logs: %w", err)
	}
	return logs, total, nil
}
