package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"balance-topup/internal/models"
	"balance-topup/internal/services"

	"github.com/redis/go-redis/v9"
)

const (
	reminderBatchSize = 100
	reminderMarkTTL   = 24 * time.Hour
)

// ReminderSource is the part of the workflow the reminder needs
type ReminderSource interface {
	StaleRequests(ctx context.Context, age time.Duration, limit int) ([]*models.TopUpRequest, error)
	NotifyAdmins(ctx context.Context, req *models.TopUpRequest, kind services.EventKind)
}

// ReviewReminder re-notifies admins about requests left in review for too long.
// It never changes request state.
type ReviewReminder struct {
	source   ReminderSource
	redis    *redis.Client
	after    time.Duration
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	reminded map[string]time.Time
}

// NewReviewReminder creates a reminder job; rdb may be nil, in which case
// reminders are deduplicated in memory only
func NewReviewReminder(source ReminderSource, rdb *redis.Client, after, interval time.Duration) *ReviewReminder {
	return &ReviewReminder{
		source:   source,
		redis:    rdb,
		after:    after,
		interval: interval,
		stopChan: make(chan struct{}),
		reminded: make(map[string]time.Time),
	}
}

// Start begins the reminder loop
func (rr *ReviewReminder) Start() {
	log.Printf("[Reminder] Starting review reminder job (after: %v, interval: %v)", rr.after, rr.interval)

	ticker := time.NewTicker(rr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rr.RunOnce(context.Background())
		case <-rr.stopChan:
			log.Println("[Reminder] Stopping review reminder job")
			return
		}
	}
}

// Stop stops the reminder loop
func (rr *ReviewReminder) Stop() {
	rr.stopOnce.Do(func() { close(rr.stopChan) })
}

// RunOnce sends at most one reminder per stale request and returns how many were sent
func (rr *ReviewReminder) RunOnce(ctx context.Context) int {
	requests, err := rr.source.StaleRequests(ctx, rr.after, reminderBatchSize)
	if err != nil {
		log.Printf("[Reminder] Error fetching stale requests: %v", err)
		return 0
	}

	sent := 0
	for _, req := range requests {
		if !rr.claim(ctx, req.OrderID) {
			continue
		}
		rr.source.NotifyAdmins(ctx, req, services.EventReviewReminder)
		sent++
	}

	if sent > 0 {
		log.Printf("[Reminder] Reminded admins about %d request(s)", sent)
	}
	return sent
}

// claim reports whether this process should send the reminder for orderID
func (rr *ReviewReminder) claim(ctx context.Context, orderID string) bool {
	if rr.redis != nil {
		ok, err := rr.redis.SetNX(ctx, "topup:reminded:"+orderID, time.Now().Unix(), reminderMarkTTL).Result()
		if err == nil {
			return ok
		}
		log.Printf("[Reminder] Redis unavailable, falling back to memory: %v", err)
	}

	rr.mu.Lock()
	defer rr.mu.Unlock()

	now := time.Now()
	for id, at := range rr.reminded {
		if now.Sub(at) > reminderMarkTTL {
			delete(rr.reminded, id)
		}
	}
	if _, done := rr.reminded[orderID]; done {
		return false
	}
	rr.reminded[orderID] = now
	return true
}
