package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"balance-topup/internal/models"
	"balance-topup/internal/services"
)

type fakeSource struct {
	mu       sync.Mutex
	requests []*models.TopUpRequest
	err      error
	notified []string
	lastAge  time.Duration
}

func (f *fakeSource) StaleRequests(_ context.Context, age time.Duration, _ int) ([]*models.TopUpRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAge = age
	return f.requests, f.err
}

func (f *fakeSource) NotifyAdmins(_ context.Context, req *models.TopUpRequest, kind services.EventKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if kind == services.EventReviewReminder {
		f.notified = append(f.notified, req.OrderID)
	}
}

func TestReviewReminderNotifiesOnce(t *testing.T) {
	source := &fakeSource{requests: []*models.TopUpRequest{
		{OrderID: "VB1", Status: models.TopUpStatusWaitingAdmin},
		{OrderID: "VB2", Status: models.TopUpStatusWaitingAdmin},
	}}
	reminder := NewReviewReminder(source, nil, 30*time.Minute, time.Minute)
	ctx := context.Background()

	if sent := reminder.RunOnce(ctx); sent != 2 {
		t.Fatalf("expected 2 reminders, got %d", sent)
	}
	if source.lastAge != 30*time.Minute {
		t.Errorf("expected age threshold to be passed through, got %v", source.lastAge)
	}

	source.requests = append(source.requests, &models.TopUpRequest{OrderID: "VB3", Status: models.TopUpStatusWaitingAdmin})
	if sent := reminder.RunOnce(ctx); sent != 1 {
		t.Errorf("expected only the new request to be reminded, got %d", sent)
	}
	if len(source.notified) != 3 {
		t.Errorf("expected 3 notifications in total, got %v", source.notified)
	}
}

func TestReviewReminderSourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("db down")}
	reminder := NewReviewReminder(source, nil, time.Minute, time.Minute)

	if sent := reminder.RunOnce(context.Background()); sent != 0 {
		t.Errorf("expected no reminders on error, got %d", sent)
	}
}

func TestReviewReminderStop(t *testing.T) {
	reminder := NewReviewReminder(&fakeSource{}, nil, time.Minute, time.Hour)

	done := make(chan struct{})
	go func() {
		reminder.Start()
		close(done)
	}()

	reminder.Stop()
	reminder.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reminder did not stop")
	}
}
