package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"robux-topup-backend/internal/apperrors"
	"robux-topup-backend/internal/models"
	"robux-topup-backend/internal/repository"
	"robux-topup-backend/internal/services/notify"
	"robux-topup-backend/pkg/log"
)

type AdminStore interface {
	Store
	List(ctx context.Context, f repository.ListFilter) ([]models.Transaction, uint, bool, error)
	Stats(ctx context.Context) (repository.Stats, error)
}

type HistoryStore interface {
	ListByTransaction(ctx context.Context, transactionID uint) ([]models.StatusAuditLog, error)
}

// AdminService holds the back-office status operations. Completion is only
// ever done here, never by a gateway callback.
type AdminService struct {
	store    AdminStore
	history  HistoryStore
	logger   *zerolog.Logger
	now      func() time.Time
	dispatch *dispatcher
}

func NewAdminService(store AdminStore, history HistoryStore, notifier notify.Notifier) *AdminService {
	l := log.GetLogger()
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &AdminService{
		store:    store,
		history:  history,
		logger:   &l,
		now:      time.Now,
		dispatch: &dispatcher{notifier: notifier, logger: &l, timeout: defaultNotifyTimeout},
	}
}

type TransactionDetail struct {
	Transaction *models.Transaction     `json:"transaction"`
	History     []models.StatusAuditLog `json:"history"`
}

func (s *AdminService) GetTransaction(ctx context.Context, id uint) (*TransactionDetail, error) {
	tx, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreError(err, "find", id)
	}
	history, err := s.history.ListByTransaction(ctx, id)
	if err != nil {
		return nil, apperrors.NewStoreError("history", err)
	}
	return &TransactionDetail{Transaction: tx, History: history}, nil
}

type Page struct {
	Items      []models.Transaction `json:"items"`
	NextCursor uint                 `json:"next_cursor,omitempty"`
	HasMore    bool                 `json:"has_more"`
}

func (s *AdminService) ListTransactions(ctx context.Context, f repository.ListFilter) (*Page, error) {
	if f.Status != "" && f.Status != "all" && !models.TransactionStatus(f.Status).Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown status %q", f.Status), nil)
	}
	items, next, hasMore, err := s.store.List(ctx, f)
	if err != nil {
		return nil, apperrors.NewStoreError("list", err)
	}
	if items == nil {
		items = []models.Transaction{}
	}
	return &Page{Items: items, NextCursor: next, HasMore: hasMore}, nil
}

func (s *AdminService) Stats(ctx context.Context) (repository.Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return stats, apperrors.NewStoreError("stats", err)
	}
	return stats, nil
}

// CompleteTransaction marks a paid transaction as fulfilled. Only processing
// transactions can be completed.
func (s *AdminService) CompleteTransaction(ctx context.Context, id uint, admin string) (*models.Transaction, error) {
	expect := models.StatusProcessing
	return s.transition(ctx, id, admin, "", models.StatusCompleted, models.AuditActionAdminComplete, &expect,
		"only processing transactions can be completed")
}

// FailTransaction marks a pending or processing transaction as failed.
func (s *AdminService) FailTransaction(ctx context.Context, id uint, admin, reason string) (*models.Transaction, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreError(err, "find", id)
	}
	if current.Status != models.StatusPending && current.Status != models.StatusProcessing {
		return nil, apperrors.NewConflictError(fmt.Sprintf("cannot fail a %s transaction", current.Status))
	}
	expect := current.Status
	return s.transition(ctx, id, admin, reason, models.StatusFailed, models.AuditActionAdminFail, &expect,
		"transaction status changed concurrently")
}

func (s *AdminService) transition(
	ctx context.Context,
	id uint,
	admin, reason string,
	to models.TransactionStatus,
	action string,
	expect *models.TransactionStatus,
	conflictMsg string,
) (*models.Transaction, error) {
	now := s.now()
	updated, err := s.store.ApplyStatus(ctx, id, repository.StatusUpdate{
		Status:       to,
		UpdatedAt:    now,
		ExpectStatus: expect,
		Audit: models.StatusAuditLog{
			ID:             uuid.New(),
			Action:         action,
			PreviousStatus: *expect,
			PerformedBy:    admin,
			Reason:         reason,
		},
	})
	if errors.Is(err, repository.ErrStatusConflict) {
		return nil, apperrors.NewConflictError(conflictMsg)
	}
	if err != nil {
		return nil, translateStoreError(err, "update", id)
	}

	s.logger.Info().
		Uint("transaction_id", id).
		Str("previous_status", string(*expect)).
		Str("new_status", string(to)).
		Str("admin", admin).
		Msg("admin status change")

	s.dispatch.send(notify.SummaryFor(updated, *expect, "admin:"+admin, now))
	return updated, nil
}

// Wait blocks until background notifications have finished.
func (s *AdminService) Wait() {
	s.dispatch.wait()
}

func translateStoreError(err error, op string, id uint) error {
	if errors.Is(err, repository.ErrTransactionNotFound) {
		return apperrors.NewNotFoundError("transaction", id)
	}
	return apperrors.NewStoreError(op, err)
}
