package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"robux-topup-backend/internal/apperrors"
	"robux-topup-backend/internal/models"
	"robux-topup-backend/internal/repository"
	"robux-topup-backend/internal/services/matching"
	"robux-topup-backend/internal/services/notify"
	"robux-topup-backend/internal/tripay"
	"robux-topup-backend/pkg/log"
)

const (
	callbackActor        = "tripay"
	defaultNotifyTimeout = 10 * time.Second
)

// Store is the slice of the transaction repository the reconciler needs.
type Store interface {
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	ApplyStatus(ctx context.Context, id uint, upd repository.StatusUpdate) (*models.Transaction, error)
}

// CallbackPayload is the gateway's payment status callback body.
type CallbackPayload struct {
	Reference     string          `json:"reference"`
	MerchantRef   string          `json:"merchant_ref"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	PaidAt        *int64          `json:"paid_at,omitempty"`
}

type Result struct {
	TransactionID  uint
	PreviousStatus models.TransactionStatus
	NewStatus      models.TransactionStatus
	Reference      string
	KnownStatus    bool
}

type ReconciliationService struct {
	store         Store
	notifier      notify.Notifier
	privateKey    string
	logger        *zerolog.Logger
	now           func() time.Time
	notifyTimeout time.Duration
	dispatch      *dispatcher
}

type Option func(*ReconciliationService)

func WithLogger(l zerolog.Logger) Option {
	return func(s *ReconciliationService) { s.logger = &l }
}

func WithClock(now func() time.Time) Option {
	return func(s *ReconciliationService) { s.now = now }
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(s *ReconciliationService) { s.notifyTimeout = d }
}

func NewReconciliationService(store Store, notifier notify.Notifier, privateKey string, opts ...Option) *ReconciliationService {
	l := log.GetLogger()
	if notifier == nil {
		notifier = notify.Noop{}
	}
	s := &ReconciliationService{
		store:         store,
		notifier:      notifier,
		privateKey:    privateKey,
		logger:        &l,
		now:           time.Now,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dispatch = &dispatcher{notifier: s.notifier, logger: s.logger, timeout: s.notifyTimeout}
	return s
}

// Reconcile authenticates one callback and applies it to its transaction.
//
// Nothing about the body is trusted, parsed or logged until the signature over
// the raw bytes verifies. The write is an unconditional set, so a redelivered
// callback converges to the same row state.
func (s *ReconciliationService) Reconcile(ctx context.Context, rawBody []byte, signature string) (*Result, error) {
	if !tripay.VerifyCallback(rawBody, signature, s.privateKey) {
		return nil, apperrors.NewAuthenticationError(apperrors.MsgInvalidSignature)
	}

	var payload CallbackPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, apperrors.NewValidationError(apperrors.MsgMalformedPayload, err)
	}
	payload.Reference = strings.TrimSpace(payload.Reference)
	if payload.Reference == "" {
		return nil, apperrors.NewValidationError("missing reference", nil)
	}

	id, err := matching.ParseMerchantRef(payload.MerchantRef)
	if err != nil {
		return nil, apperrors.NewValidationError(apperrors.MsgMalformedReference, err)
	}

	newStatus, known := MapGatewayStatus(payload.Status)
	if !known {
		s.logger.Warn().
			Uint("transaction_id", id).
			Str("gateway_status", payload.Status).
			Str("reference", payload.Reference).
			Msg("unknown gateway status, treating as pending")
	}

	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, apperrors.NewNotFoundError("transaction", id)
		}
		return nil, apperrors.NewStoreError("find", err)
	}

	// Callbacks are applied last-write-wins, which can reopen a settled row.
	if current.Status == models.StatusCompleted || current.Status == models.StatusFailed {
		s.logger.Warn().
			Uint("transaction_id", id).
			Str("previous_status", string(current.Status)).
			Str("new_status", string(newStatus)).
			Str("reference", payload.Reference).
			Msg("callback overrides settled transaction")
	}

	now := s.now()
	updated, err := s.store.ApplyStatus(ctx, id, repository.StatusUpdate{
		Status:       newStatus,
		PaymentProof: payload.Reference,
		UpdatedAt:    now,
		Audit: models.StatusAuditLog{
			ID:             uuid.New(),
			Action:         models.AuditActionCallback,
			PreviousStatus: current.Status,
			Reference:      payload.Reference,
			GatewayStatus:  payload.Status,
			PerformedBy:    callbackActor,
			Payload:        datatypes.JSON(append([]byte(nil), rawBody...)),
		},
	})
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, apperrors.NewNotFoundError("transaction", id)
		}
		return nil, apperrors.NewStoreError("update", err)
	}

	s.logger.Info().
		Uint("transaction_id", id).
		Str("previous_status", string(current.Status)).
		Str("new_status", string(newStatus)).
		Str("gateway_status", payload.Status).
		Str("reference", payload.Reference).
		Msg("callback applied")

	s.dispatch.send(notify.SummaryFor(updated, current.Status, callbackActor, now))

	return &Result{
		TransactionID:  id,
		PreviousStatus: current.Status,
		NewStatus:      newStatus,
		Reference:      payload.Reference,
		KnownStatus:    known,
	}, nil
}

// Wait blocks until background notifications have finished.
func (s *ReconciliationService) Wait() {
	s.dispatch.wait()
}
