package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"balance-topup/internal/database"
	"balance-topup/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return NewRepository(db)
}

func seedRequest(t *testing.T, repo *Repository, telegramID int64, orderID string, status models.TopUpStatus) *models.User {
	t.Helper()
	ctx := context.Background()

	user := &models.User{TelegramID: telegramID}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	req := &models.TopUpRequest{
		OrderID:    orderID,
		UserID:     user.ID,
		TelegramID: telegramID,
		Amount:     decimal.NewFromInt(1000),
		Method:     models.PaymentMethodCard,
		Status:     status,
		CreatedAt:  time.Now(),
	}
	if err := repo.CreateTopUpRequest(ctx, req); err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	return user
}

func TestTransitionTopUpRequestMatchesOnlyExpectedStatus(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	seedRequest(t, repo, 3001, "VB1", models.TopUpStatusWaitingAdmin)

	ok, err := repo.TransitionTopUpRequest(ctx, "VB1", models.TopUpStatusWaitingAdmin, models.TopUpStatusApproved, map[string]interface{}{"admin_id": int64(1)})
	if err != nil || !ok {
		t.Fatalf("first transition: ok=%v err=%v", ok, err)
	}

	ok, err = repo.TransitionTopUpRequest(ctx, "VB1", models.TopUpStatusWaitingAdmin, models.TopUpStatusRejected, map[string]interface{}{"admin_id": int64(2)})
	if err != nil {
		t.Fatalf("second transition failed: %v", err)
	}
	if ok {
		t.Fatal("second transition from waiting_admin must not match")
	}

	req, err := repo.GetTopUpRequest(ctx, "VB1")
	if err != nil {
		t.Fatalf("GetTopUpRequest failed: %v", err)
	}
	if req.Status != models.TopUpStatusApproved || req.AdminID == nil || *req.AdminID != 1 {
		t.Errorf("expected approved by admin 1, got %s by %v", req.Status, req.AdminID)
	}

	ok, err = repo.TransitionTopUpRequest(ctx, "VB404", models.TopUpStatusWaitingAdmin, models.TopUpStatusApproved, nil)
	if err != nil || ok {
		t.Errorf("unknown order: ok=%v err=%v", ok, err)
	}
}

// TestTransitionTopUpRequestRaceOnPostgres runs concurrent approvals over a real
// connection pool. Set TOPUP_TEST_POSTGRES_DSN to enable it.
func TestTransitionTopUpRequestRaceOnPostgres(t *testing.T) {
	dsn := os.Getenv("TOPUP_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TOPUP_TEST_POSTGRES_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(16)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	repo := NewRepository(db)
	ctx := context.Background()
	stamp := time.Now().UnixNano()
	orderID := fmt.Sprintf("VBRACE%d", stamp%1_000_000_000_000)
	user := seedRequest(t, repo, stamp, orderID, models.TopUpStatusWaitingAdmin)
	t.Cleanup(func() {
		db.Where("order_id = ?", orderID).Delete(&models.TopUpRequest{})
		db.Delete(&models.User{}, user.ID)
	})

	const workers = 12
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := repo.Transaction(ctx, func(tx *Repository) error {
				ok, err := tx.TransitionTopUpRequest(ctx, orderID, models.TopUpStatusWaitingAdmin, models.TopUpStatusApproved, nil)
				if err != nil || !ok {
					return err
				}
				wins.Add(1)
				return tx.CreditDeposit(ctx, user.ID, decimal.NewFromInt(1000))
			})
			if err != nil {
				t.Errorf("transaction failed: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winning transition, got %d", wins.Load())
	}
	reloaded, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if !reloaded.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected balance 1000 after one credit, got %s", reloaded.Balance)
	}
}
