package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"balance-topup/internal/config"
	"balance-topup/internal/database"
	"balance-topup/internal/models"
	"balance-topup/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

type recordingNotifier struct {
	mu       sync.Mutex
	admin    []Event
	user     map[int64][]Event
	failWith error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{user: make(map[int64][]Event)}
}

func (n *recordingNotifier) NotifyAdmins(_ context.Context, event Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.admin = append(n.admin, event)
	return n.failWith
}

func (n *recordingNotifier) NotifyUser(_ context.Context, telegramID int64, event Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.user[telegramID] = append(n.user[telegramID], event)
	return n.failWith
}

func (n *recordingNotifier) adminEvents() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.admin...)
}

func (n *recordingNotifier) userEvents(telegramID int64) []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.user[telegramID]...)
}

type testEnv struct {
	db       *gorm.DB
	repo     *repository.Repository
	notifier *recordingNotifier
	receipts *LocalReceiptStore
	service  *TopUpService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, config.DefaultTopUpConfig())
}

func newTestEnvWithConfig(t *testing.T, cfg config.TopUpConfig) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	repo := repository.NewRepository(db)

	receipts, err := NewLocalReceiptStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create receipt store: %v", err)
	}

	notifier := newRecordingNotifier()
	settings := NewSettingsService(repo, nil)

	return &testEnv{
		db:       db,
		repo:     repo,
		notifier: notifier,
		receipts: receipts,
		service:  NewTopUpService(repo, settings, receipts, notifier, cfg),
	}
}

func (e *testEnv) createUser(t *testing.T, telegramID int64, referredBy *uint) *models.User {
	t.Helper()
	name := fmt.Sprintf("user%d", telegramID)
	user := &models.User{
		TelegramID: telegramID,
		Username:   &name,
		FirstName:  &name,
		ReferredBy: referredBy,
	}
	if err := e.repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func (e *testEnv) reloadUser(t *testing.T, id uint) *models.User {
	t.Helper()
	user, err := e.repo.GetUserByID(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to reload user %d: %v", id, err)
	}
	return user
}

// waitingRequest creates a request and moves it to waiting_admin
func (e *testEnv) waitingRequest(t *testing.T, telegramID int64, amount int64) *models.TopUpRequest {
	t.Helper()
	ctx := context.Background()

	created, err := e.service.CreateRequest(ctx, telegramID, decimal.NewFromInt(amount), "card")
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	orderID := created.Request.OrderID

	_, err = e.service.AttachReceipt(ctx, orderID, ReceiptFile{Filename: "receipt.png", ContentType: "image/png", Size: int64(len(pngHeader))}, pngHeader)
	if err != nil {
		t.Fatalf("AttachReceipt failed: %v", err)
	}

	req, err := e.service.MarkPaid(ctx, orderID)
	if err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	return req
}

func approve(orderID string) DecideInput {
	return DecideInput{OrderID: orderID, Action: DecisionApprove, AdminID: 777}
}
