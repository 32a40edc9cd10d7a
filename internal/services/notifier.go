package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"path/filepath"

	"balance-topup/internal/models"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/shopspring/decimal"
)

// EventKind identifies what happened to a top-up request
type EventKind string

const (
	EventAwaitingReview EventKind = "awaiting_review"
	EventReviewReminder EventKind = "review_reminder"
	EventApproved       EventKind = "approved"
	EventRejected       EventKind = "rejected"
	EventReferralEarned EventKind = "referral_earned"
)

// Event carries everything a notification needs to render
type Event struct {
	Kind       EventKind
	Request    *models.TopUpRequest
	NewBalance decimal.Decimal
	Commission decimal.Decimal
	Comment    string
	Receipt    []byte
}

// Notifier delivers workflow events to admins and users
type Notifier interface {
	NotifyAdmins(ctx context.Context, event Event) error
	NotifyUser(ctx context.Context, telegramID int64, event Event) error
}

// NopNotifier drops every event
type NopNotifier struct{}

func (NopNotifier) NotifyAdmins(context.Context, Event) error { return nil }
func (NopNotifier) NotifyUser(context.Context, int64, Event) error { return nil }

// TelegramNotifier sends events through the Telegram Bot API
type TelegramNotifier struct {
	bot      *telego.Bot
	adminIDs []int64
}

func NewTelegramNotifier(token string, adminIDs []int64) (*TelegramNotifier, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, adminIDs: adminIDs}, nil
}

// Bot exposes the underlying client
func (n *TelegramNotifier) Bot() *telego.Bot {
	return n.bot
}

func (n *TelegramNotifier) NotifyAdmins(ctx context.Context, event Event) error {
	if len(n.adminIDs) == 0 {
		return nil
	}

	text := renderAdminMessage(event)
	var errs []error
	for _, adminID := range n.adminIDs {
		if err := n.send(ctx, adminID, text, event); err != nil {
			log.Printf("[Notifier] failed to notify admin %d: %v", adminID, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *TelegramNotifier) NotifyUser(ctx context.Context, telegramID int64, event Event) error {
	text := renderUserMessage(event)
	if text == "" {
		return nil
	}
	_, err := n.bot.SendMessage(ctx, tu.Message(tu.ID(telegramID), text).WithParseMode(telego.ModeHTML))
	return err
}

func (n *TelegramNotifier) send(ctx context.Context, chatID int64, text string, event Event) error {
	if event.Kind == EventAwaitingReview && len(event.Receipt) > 0 && event.Request != nil {
		name := event.Request.OrderID
		if event.Request.ReceiptPath != nil {
			name = filepath.Base(*event.Request.ReceiptPath)
		}
		doc := tu.Document(tu.ID(chatID), tu.File(tu.NameReader(bytes.NewReader(event.Receipt), name))).
			WithCaption(text).
			WithParseMode(telego.ModeHTML)
		_, err := n.bot.SendDocument(ctx, doc)
		if err == nil {
			return nil
		}
		log.Printf("[Notifier] receipt upload for %s failed, sending text only: %v", event.Request.OrderID, err)
	}

	_, err := n.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML))
	return err
}

func renderAdminMessage(event Event) string {
	req := event.Request
	if req == nil {
		return ""
	}

	header := "🆕 <b>New top-up request</b>"
	if event.Kind == EventReviewReminder {
		header = "⏰ <b>Top-up request still waiting for review</b>"
	}

	username := "-"
	if req.UserUsername != nil && *req.UserUsername != "" {
		username = "@" + *req.UserUsername
	}

	return fmt.Sprintf(
		"%s\n\n👤 %s (%s)\n🆔 <code>%d</code>\n💰 %s RUB\n💳 %s\n📋 <code>%s</code>",
		header,
		html.EscapeString(req.UserName),
		html.EscapeString(username),
		req.TelegramID,
		req.Amount.StringFixed(2),
		req.Method,
		req.OrderID,
	)
}

func renderUserMessage(event Event) string {
	req := event.Request
	if req == nil {
		return ""
	}

	switch event.Kind {
	case EventApproved:
		return fmt.Sprintf(
			"✅ <b>Top-up approved</b>\n\n💰 +%s RUB\n💳 Balance: %s RUB\n📋 <code>%s</code>",
			req.Amount.StringFixed(2),
			event.NewBalance.StringFixed(2),
			req.OrderID,
		)
	case EventRejected:
		msg := fmt.Sprintf("❌ <b>Top-up rejected</b>\n\n💰 %s RUB\n📋 <code>%s</code>", req.Amount.StringFixed(2), req.OrderID)
		if event.Comment != "" {
			msg += "\n💬 " + html.EscapeString(event.Comment)
		}
		return msg
	case EventReferralEarned:
		return fmt.Sprintf(
			"🤝 <b>Referral commission</b>\n\n%s topped up %s RUB\n💰 You earned +%s RUB",
			html.EscapeString(req.UserName),
			req.Amount.StringFixed(2),
			event.Commission.StringFixed(2),
		)
	}
	return ""
}
