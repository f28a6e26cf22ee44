package reconciliation

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"robux-topup-backend/internal/services/notify"
)

// dispatcher sends notifications off the request path. A slow or failing
// channel never reaches the caller.
type dispatcher struct {
	notifier notify.Notifier
	logger   *zerolog.Logger
	timeout  time.Duration
	inflight sync.WaitGroup
}

func (d *dispatcher) send(summary notify.Summary) {
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error().Interface("panic", r).Uint("transaction_id", summary.TransactionID).Msg("notifier panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.notifier.Notify(ctx, summary); err != nil {
			d.logger.Warn().Err(err).Uint("transaction_id", summary.TransactionID).Msg("status notification failed")
		}
	}()
}

func (d *dispatcher) wait() {
	d.inflight.Wait()
}
