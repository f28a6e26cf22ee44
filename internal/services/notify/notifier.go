package notify

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"robux-topup-backend/internal/models"
)

// Summary describes one status change for outbound alerting.
type Summary struct {
	TransactionID  uint                     `json:"transaction_id"`
	Username       string                   `json:"username"`
	RobuxAmount    int                      `json:"robux_amount"`
	Price          decimal.Decimal          `json:"price"`
	PaymentMethod  string                   `json:"payment_method"`
	PreviousStatus models.TransactionStatus `json:"previous_status"`
	NewStatus      models.TransactionStatus `json:"new_status"`
	Reference      string                   `json:"reference"`
	Source         string                   `json:"source"`
	OccurredAt     time.Time                `json:"occurred_at"`
}

// SummaryFor builds a Summary from the stored transaction after a write.
func SummaryFor(tx *models.Transaction, previous models.TransactionStatus, source string, at time.Time) Summary {
	return Summary{
		TransactionID:  tx.ID,
		Username:       tx.User.Username,
		RobuxAmount:    tx.RobuxAmount,
		Price:          tx.Price,
		PaymentMethod:  tx.PaymentMethod,
		PreviousStatus: previous,
		NewStatus:      tx.Status,
		Reference:      tx.PaymentProof,
		Source:         source,
		OccurredAt:     at,
	}
}

type Notifier interface {
	Notify(ctx context.Context, s Summary) error
}

// Multi sends to every notifier and joins the failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, s Summary) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Noop struct{}

func (Noop) Notify(context.Context, Summary) error { return nil }
