package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"balance-topup/internal/config"
	"balance-topup/internal/models"
	"balance-topup/internal/repository"
	"balance-topup/internal/utils"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultPendingLimit = 50
	maxPendingLimit     = 200
)

var allowedReceiptExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
	".webp": true,
	".heic": true,
	".heif": true,
}

var allowedReceiptMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/webp":      true,
	"image/heic":      true,
	"image/heif":      true,
	"application/pdf": true,
}

// DecisionAction is the admin verdict on a request awaiting review
type DecisionAction string

const (
	DecisionApprove DecisionAction = "approve"
	DecisionReject  DecisionAction = "reject"
)

// Outcome tells whether a decision changed anything. OutcomeConflict means the
// request was already approved or rejected.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeConflict Outcome = "conflict"
)

// CreateResult is returned by CreateRequest
type CreateResult struct {
	Request      *models.TopUpRequest `json:"request"`
	Instructions PaymentInstructions  `json:"payment_instructions"`
}

// ReceiptFile describes an upload as declared by the client
type ReceiptFile struct {
	Filename    string
	ContentType string
	Size        int64
}

// ReceiptArtifact is a stored receipt ready to be served
type ReceiptArtifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DecideInput is an admin decision on one request
type DecideInput struct {
	OrderID string         `validate:"required"`
	Action  DecisionAction `validate:"required,oneof=approve reject"`
	AdminID int64          `validate:"required"`
	Comment string         `validate:"max=500"`
}

// DecisionResult reports what a decision did. A conflict outcome means the request
// was no longer awaiting review and nothing was changed; Status is then the
// status found.
type DecisionResult struct {
	Outcome    Outcome            `json:"outcome"`
	OrderID    string             `json:"order_id"`
	Status     models.TopUpStatus `json:"status"`
	Amount     decimal.Decimal    `json:"amount"`
	OldBalance decimal.Decimal    `json:"old_balance"`
	NewBalance decimal.Decimal    `json:"new_balance"`
	Commission decimal.Decimal    `json:"commission"`
	ReferrerID *uint              `json:"referrer_id,omitempty"`
}

type createRequestInput struct {
	Method string `validate:"required,oneof=card crypto"`
}

// TopUpService drives top-up requests through their lifecycle
type TopUpService struct {
	repo     *repository.Repository
	settings SettingsStore
	receipts ReceiptStore
	notifier Notifier
	ids      *OrderIDGenerator
	cfg      config.TopUpConfig
	now      func() time.Time
}

// NewTopUpService creates a new TopUpService; a nil notifier drops notifications
func NewTopUpService(
	repo *repository.Repository,
	settings SettingsStore,
	receipts ReceiptStore,
	notifier Notifier,
	cfg config.TopUpConfig,
) *TopUpService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &TopUpService{
		repo:     repo,
		settings: settings,
		receipts: receipts,
		notifier: notifier,
		ids:      NewOrderIDGenerator(),
		cfg:      cfg,
		now:      time.Now,
	}
}

// CreateRequest opens a pending request for the user and returns how to pay
func (s *TopUpService) CreateRequest(
	ctx context.Context,
	telegramID int64,
	amount decimal.Decimal,
	method string,
) (*CreateResult, error) {
	if err := utils.ValidateStruct(createRequestInput{Method: method}); err != nil {
		return nil, &ValidationError{Fields: utils.FormatValidationError(err)}
	}

	amount = amount.Round(2)
	if amount.LessThan(s.cfg.MinAmount) {
		return nil, newValidationError("amount", fmt.Sprintf("minimum amount is %s", s.cfg.MinAmount.StringFixed(2)))
	}
	if amount.GreaterThan(s.cfg.MaxAmount) {
		return nil, newValidationError("amount", fmt.Sprintf("maximum amount is %s", s.cfg.MaxAmount.StringFixed(2)))
	}

	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	req := &models.TopUpRequest{
		UserID:       user.ID,
		TelegramID:   telegramID,
		Amount:       amount,
		Method:       models.PaymentMethod(method),
		Status:       models.TopUpStatusPending,
		UserName:     user.DisplayName(),
		UserUsername: user.Username,
		CreatedAt:    s.now(),
	}

	_, err = s.ids.Allocate(ctx, func(ctx context.Context, candidate string) (bool, error) {
		exists, err := s.repo.OrderIDExists(ctx, candidate)
		if err != nil {
			return false, fmt.Errorf("failed to check order id: %w", err)
		}
		if exists {
			return false, nil
		}

		req.ID = 0
		req.OrderID = candidate
		if err := s.repo.CreateTopUpRequest(ctx, req); err != nil {
			if repository.IsDuplicateKey(err) {
				return false, nil
			}
			return false, fmt.Errorf("failed to create request: %w", err)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[TopUp] created %s: user=%d amount=%s method=%s", req.OrderID, telegramID, amount.StringFixed(2), method)

	return &CreateResult{
		Request:      req,
		Instructions: BuildInstructions(s.settings.Snapshot(ctx), req.Method, amount),
	}, nil
}

// AttachReceipt stores proof of payment for a pending request
func (s *TopUpService) AttachReceipt(
	ctx context.Context,
	orderID string,
	file ReceiptFile,
	data []byte,
) (*models.TopUpRequest, error) {
	req, err := s.GetRequest(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.TopUpStatusPending {
		return nil, &InvalidStateError{OrderID: orderID, Current: req.Status, Required: models.TopUpStatusPending}
	}

	ext, contentType, err := s.checkReceipt(file, data)
	if err != nil {
		return nil, err
	}

	now := s.now()
	path, err := s.receipts.Save(ctx, receiptName(req.OrderID, now, ext), data)
	if err != nil {
		return nil, fmt.Errorf("failed to store receipt: %w", err)
	}

	size := int64(len(data))
	filename := filepath.Base(file.Filename)
	ok, err := s.repo.TransitionTopUpRequest(ctx, orderID, models.TopUpStatusPending, models.TopUpStatusReceiptUploaded, map[string]interface{}{
		"receipt_path":     path,
		"receipt_filename": filename,
		"receipt_mimetype": contentType,
		"receipt_size":     size,
		"uploaded_at":      now,
	})
	if err != nil {
		s.discardReceipt(ctx, path)
		return nil, fmt.Errorf("failed to update request: %w", err)
	}
	if !ok {
		s.discardReceipt(ctx, path)
		current, err := s.GetRequest(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return nil, &InvalidStateError{OrderID: orderID, Current: current.Status, Required: models.TopUpStatusPending}
	}

	log.Printf("[TopUp] receipt attached to %s (%d bytes, %s)", orderID, size, contentType)
	return s.GetRequest(ctx, orderID)
}

// receiptName is unique per upload attempt, so concurrent uploads never share a file
func receiptName(orderID string, now time.Time, ext string) string {
	return fmt.Sprintf("%s_%d_%s%s", orderID, now.Unix(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8], ext)
}

// checkReceipt returns the artifact extension and content type of an acceptable receipt
func (s *TopUpService) checkReceipt(file ReceiptFile, data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", &FileRejectedError{Reason: "file is empty"}
	}
	if file.Size > s.cfg.MaxReceiptSize || int64(len(data)) > s.cfg.MaxReceiptSize {
		return "", "", &FileRejectedError{Reason: fmt.Sprintf("file too large (max %dMB)", s.cfg.MaxReceiptSize/(1024*1024))}
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedReceiptExtensions[ext] {
		return "", "", &FileRejectedError{Reason: "allowed formats: JPG, PNG, PDF, WEBP, HEIC"}
	}

	contentType := mediaType(file.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mediaType(mimetype.Detect(data).String())
	}
	if !allowedReceiptMimeTypes[contentType] {
		return "", "", &FileRejectedError{Reason: fmt.Sprintf("unsupported content type %q", contentType)}
	}

	return ext, contentType, nil
}

func mediaType(value string) string {
	value, _, _ = strings.Cut(value, ";")
	return strings.ToLower(strings.TrimSpace(value))
}

func (s *TopUpService) discardReceipt(ctx context.Context, path string) {
	if err := s.receipts.Remove(ctx, path); err != nil {
		log.Printf("[TopUp] failed to remove orphaned receipt %s: %v", path, err)
	}
}

// MarkPaid hands a request with a receipt over to admin review
func (s *TopUpService) MarkPaid(ctx context.Context, orderID string) (*models.TopUpRequest, error) {
	req, err := s.GetRequest(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.TopUpStatusReceiptUploaded {
		return nil, &InvalidStateError{OrderID: orderID, Current: req.Status, Required: models.TopUpStatusReceiptUploaded}
	}

	ok, err := s.repo.TransitionTopUpRequest(ctx, orderID, models.TopUpStatusReceiptUploaded, models.TopUpStatusWaitingAdmin, map[string]interface{}{
		"paid_at": s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	updated, err := s.GetRequest(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &InvalidStateError{OrderID: orderID, Current: updated.Status, Required: models.TopUpStatusReceiptUploaded}
	}

	log.Printf("[TopUp] %s marked as paid, waiting for admin", orderID)
	s.NotifyAdmins(ctx, updated, EventAwaitingReview)
	return updated, nil
}

// NotifyAdmins sends a request to the admins, attaching the receipt when it can be read.
// Failures are logged only.
func (s *TopUpService) NotifyAdmins(ctx context.Context, req *models.TopUpRequest, kind EventKind) {
	event := Event{Kind: kind, Request: req}
	if req.ReceiptPath != nil && s.receipts.Exists(ctx, *req.ReceiptPath) {
		data, err := s.receipts.Read(ctx, *req.ReceiptPath)
		if err != nil {
			log.Printf("[TopUp] could not read receipt for %s: %v", req.OrderID, err)
		} else {
			event.Receipt = data
		}
	}

	if err := s.notifier.NotifyAdmins(ctx, event); err != nil {
		log.Printf("[TopUp] admin notification for %s failed: %v", req.OrderID, err)
	}
}

// Decide approves or rejects a request awaiting review. All balance, ledger and
// referral changes commit together with the status change or not at all.
func (s *TopUpService) Decide(ctx context.Context, in DecideInput) (*DecisionResult, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, &ValidationError{Fields: utils.FormatValidationError(err)}
	}

	target := models.TopUpStatusRejected
	if in.Action == DecisionApprove {
		target = models.TopUpStatusApproved
	}

	var (
		result   *DecisionResult
		request  *models.TopUpRequest
		referrer *models.User
	)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		now := s.now()
		updates := map[string]interface{}{
			"admin_id":     in.AdminID,
			"processed_at": now,
		}
		if in.Comment != "" {
			updates["admin_comment"] = in.Comment
		}

		ok, err := tx.TransitionTopUpRequest(ctx, in.OrderID, models.TopUpStatusWaitingAdmin, target, updates)
		if err != nil {
			return fmt.Errorf("failed to update request status: %w", err)
		}

		req, err := tx.GetTopUpRequest(ctx, in.OrderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("failed to get request: %w", err)
		}
		request = req

		if !ok {
			if !req.Status.IsTerminal() {
				return &InvalidStateError{OrderID: req.OrderID, Current: req.Status, Required: models.TopUpStatusWaitingAdmin}
			}
			result = &DecisionResult{
				Outcome: OutcomeConflict,
				OrderID: req.OrderID,
				Status:  req.Status,
				Amount:  req.Amount,
			}
			return nil
		}

		result = &DecisionResult{
			Outcome: OutcomeApplied,
			OrderID: req.OrderID,
			Status:  target,
			Amount:  req.Amount,
		}
		if target == models.TopUpStatusRejected {
			return nil
		}

		referrer, err = s.applyApproval(ctx, tx, req, result, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == OutcomeConflict {
		log.Printf("[TopUp] decision on %s ignored: request is %s", in.OrderID, result.Status)
		return result, nil
	}

	log.Printf("[TopUp] %s %s by admin %d (amount=%s commission=%s)",
		in.OrderID, result.Status, in.AdminID, result.Amount.StringFixed(2), result.Commission.StringFixed(2))

	s.afterDecision(ctx, in, request, result, referrer)
	return result, nil
}

// applyApproval credits the owner and, when there is one, the referrer. It runs
// inside the decision transaction and returns the credited referrer.
func (s *TopUpService) applyApproval(
	ctx context.Context,
	tx *repository.Repository,
	req *models.TopUpRequest,
	result *DecisionResult,
	now time.Time,
) (*models.User, error) {
	if err := tx.CreditDeposit(ctx, req.UserID, req.Amount); err != nil {
		if repository.IsNotFound(err) {
			log.Printf("[TopUp] CRITICAL: owner %d of %s does not exist, approval rolled back", req.UserID, req.OrderID)
			return nil, ErrOwningUserMissing
		}
		return nil, fmt.Errorf("failed to credit balance: %w", err)
	}

	user, err := tx.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	result.NewBalance = user.Balance
	result.OldBalance = user.Balance.Sub(req.Amount)

	err = tx.CreateLedgerEntry(ctx, &models.LedgerEntry{
		UserID:        user.ID,
		Type:          models.LedgerEntryDeposit,
		Amount:        req.Amount,
		BalanceBefore: result.OldBalance,
		BalanceAfter:  result.NewBalance,
		OrderID:       req.OrderID,
		Reference:     uuid.NewString(),
		Description:   fmt.Sprintf("Balance top-up via %s", req.Method),
		CreatedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record deposit: %w", err)
	}

	if user.ReferredBy == nil {
		return nil, nil
	}

	referrer, err := tx.GetUserByID(ctx, *user.ReferredBy)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Printf("[TopUp] referrer %d of user %d not found, no commission for %s", *user.ReferredBy, user.ID, req.OrderID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get referrer: %w", err)
	}

	commission := Commission(req.Amount, s.cfg.CommissionRate)
	if commission.IsPositive() {
		if err := tx.CreditCommission(ctx, referrer.ID, commission); err != nil {
			return nil, fmt.Errorf("failed to credit commission: %w", err)
		}
		referrer, err = tx.GetUserByID(ctx, referrer.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload referrer: %w", err)
		}

		err = tx.CreateLedgerEntry(ctx, &models.LedgerEntry{
			UserID:        referrer.ID,
			Type:          models.LedgerEntryReferralCommission,
			Amount:        commission,
			BalanceBefore: referrer.Balance.Sub(commission),
			BalanceAfter:  referrer.Balance,
			OrderID:       req.OrderID,
			Reference:     uuid.NewString(),
			Description:   fmt.Sprintf("Referral commission from %s", user.DisplayName()),
			CreatedAt:     now,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record commission: %w", err)
		}
	}

	if err := tx.AddReferralActivity(ctx, referrer.ID, user.ID, req.Amount, commission, now); err != nil {
		return nil, fmt.Errorf("failed to update referral totals: %w", err)
	}

	result.Commission = commission
	result.ReferrerID = &referrer.ID
	return referrer, nil
}

func (s *TopUpService) afterDecision(
	ctx context.Context,
	in DecideInput,
	req *models.TopUpRequest,
	result *DecisionResult,
	referrer *models.User,
) {
	kind := EventRejected
	if result.Status == models.TopUpStatusApproved {
		kind = EventApproved
	}
	err := s.notifier.NotifyUser(ctx, req.TelegramID, Event{
		Kind:       kind,
		Request:    req,
		NewBalance: result.NewBalance,
		Comment:    in.Comment,
	})
	if err != nil {
		log.Printf("[TopUp] failed to notify user %d about %s: %v", req.TelegramID, req.OrderID, err)
	}

	if referrer != nil && result.Commission.IsPositive() {
		err := s.notifier.NotifyUser(ctx, referrer.TelegramID, Event{
			Kind:       EventReferralEarned,
			Request:    req,
			Commission: result.Commission,
		})
		if err != nil {
			log.Printf("[TopUp] failed to notify referrer %d: %v", referrer.TelegramID, err)
		}
	}

	err = s.repo.CreateAdminLog(ctx, &models.AdminLog{
		AdminTelegramID: in.AdminID,
		Action:          "DECIDE_TOPUP",
		ResourceType:    "topup_request",
		ResourceID:      req.OrderID,
		Details: models.JSONB{
			"action":     string(in.Action),
			"amount":     result.Amount.StringFixed(2),
			"commission": result.Commission.StringFixed(2),
			"comment":    in.Comment,
		},
		CreatedAt: s.now(),
	})
	if err != nil {
		log.Printf("[TopUp] failed to write admin log for %s: %v", req.OrderID, err)
	}
}

// GetRequest returns a request by order id
func (s *TopUpService) GetRequest(ctx context.Context, orderID string) (*models.TopUpRequest, error) {
	req, err := s.repo.GetTopUpRequest(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// ListRequests returns a user's requests, newest first
func (s *TopUpService) ListRequests(ctx context.Context, telegramID int64) ([]*models.TopUpRequest, error) {
	requests, err := s.repo.ListTopUpRequestsByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, nil
}

// PendingReview returns requests awaiting a decision, oldest first
func (s *TopUpService) PendingReview(ctx context.Context, limit int) ([]*models.TopUpRequest, error) {
	return s.waitingSince(ctx, time.Time{}, limit)
}

// StaleRequests returns requests that have been awaiting a decision for longer than age
func (s *TopUpService) StaleRequests(ctx context.Context, age time.Duration, limit int) ([]*models.TopUpRequest, error) {
	return s.waitingSince(ctx, s.now().Add(-age), limit)
}

func (s *TopUpService) waitingSince(ctx context.Context, cutoff time.Time, limit int) ([]*models.TopUpRequest, error) {
	if limit <= 0 {
		limit = defaultPendingLimit
	}
	if limit > maxPendingLimit {
		limit = maxPendingLimit
	}

	requests, err := s.repo.ListTopUpRequestsByStatus(ctx, models.TopUpStatusWaitingAdmin, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	return requests, nil
}

// GetReceipt loads the stored receipt of a request
func (s *TopUpService) GetReceipt(ctx context.Context, orderID string) (*ReceiptArtifact, error) {
	req, err := s.GetRequest(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if req.ReceiptPath == nil || !s.receipts.Exists(ctx, *req.ReceiptPath) {
		return nil, ErrReceiptNotFound
	}

	data, err := s.receipts.Read(ctx, *req.ReceiptPath)
	if err != nil {
		return nil, err
	}

	artifact := &ReceiptArtifact{
		Filename:    filepath.Base(*req.ReceiptPath),
		ContentType: "application/octet-stream",
		Data:        data,
	}
	if req.ReceiptMimetype != nil {
		artifact.ContentType = *req.ReceiptMimetype
	}
	return artifact, nil
}

// PaymentMethods lists the payment channels with the configured bounds
func (s *TopUpService) PaymentMethods() []PaymentMethodInfo {
	return []PaymentMethodInfo{
		{
			ID:             models.PaymentMethodCard,
			Name:           "Bank card",
			Description:    "Transfer to a bank card",
			MinAmount:      s.cfg.MinAmount,
			MaxAmount:      s.cfg.MaxAmount,
			ProcessingTime: "5-15 minutes",
			Enabled:        true,
		},
		{
			ID:             models.PaymentMethodCrypto,
			Name:           "Cryptocurrency",
			Description:    "BTC, USDT (TRC20) or SOL",
			MinAmount:      s.cfg.MinAmount,
			MaxAmount:      s.cfg.MaxAmount,
			ProcessingTime: "10-30 minutes",
			Enabled:        true,
		},
	}
}
