package reconciliation

import (
	"context"
	"sync"

	"robux-topup-backend/internal/models"
	"robux-topup-backend/internal/repository"
	"robux-topup-backend/internal/services/notify"
)

// fakeStore implements AdminStore and HistoryStore with overridable funcs.
type fakeStore struct {
	GetByIDFunc     func(ctx context.Context, id uint) (*models.Transaction, error)
	ApplyStatusFunc func(ctx context.Context, id uint, upd repository.StatusUpdate) (*models.Transaction, error)
	ListFunc        func(ctx context.Context, f repository.ListFilter) ([]models.Transaction, uint, bool, error)
	StatsFunc       func(ctx context.Context) (repository.Stats, error)
	HistoryFunc     func(ctx context.Context, id uint) ([]models.StatusAuditLog, error)

	mu      sync.Mutex
	gets    int
	applied []repository.StatusUpdate
}

func (f *fakeStore) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	f.mu.Lock()
	f.gets++
	f.mu.Unlock()
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return nil, repository.ErrTransactionNotFound
}

func (f *fakeStore) ApplyStatus(ctx context.Context, id uint, upd repository.StatusUpdate) (*models.Transaction, error) {
	f.mu.Lock()
	f.applied = append(f.applied, upd)
	f.mu.Unlock()
	if f.ApplyStatusFunc != nil {
		return f.ApplyStatusFunc(ctx, id, upd)
	}
	return &models.Transaction{ID: id, Status: upd.Status, PaymentProof: upd.PaymentProof, UpdatedAt: upd.UpdatedAt}, nil
}

func (f *fakeStore) List(ctx context.Context, filter repository.ListFilter) ([]models.Transaction, uint, bool, error) {
	if f.ListFunc != nil {
		return f.ListFunc(ctx, filter)
	}
	return nil, 0, false, nil
}

func (f *fakeStore) Stats(ctx context.Context) (repository.Stats, error) {
	if f.StatsFunc != nil {
		return f.StatsFunc(ctx)
	}
	return repository.Stats{}, nil
}

func (f *fakeStore) ListByTransaction(ctx context.Context, id uint) ([]models.StatusAuditLog, error) {
	if f.HistoryFunc != nil {
		return f.HistoryFunc(ctx, id)
	}
	return nil, nil
}

func (f *fakeStore) calls() (gets, applies int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets, len(f.applied)
}

// memoryStore keeps one row per id so repeated callbacks can be compared.
type memoryStore struct {
	mu   sync.Mutex
	rows map[uint]models.Transaction
}

func newMemoryStore(rows ...models.Transaction) *memoryStore {
	m := &memoryStore{rows: make(map[uint]models.Transaction)}
	for _, r := range rows {
		m.rows[r.ID] = r
	}
	return m
}

func (m *memoryStore) GetByID(_ context.Context, id uint) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	return &row, nil
}

func (m *memoryStore) ApplyStatus(_ context.Context, id uint, upd repository.StatusUpdate) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	row.Status = upd.Status
	if upd.PaymentProof != "" {
		row.PaymentProof = upd.PaymentProof
	}
	row.UpdatedAt = upd.UpdatedAt
	m.rows[id] = row
	return &row, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	received []notify.Summary
	err      error
	block    chan struct{}
	panics   bool
}

func (r *recordingNotifier) Notify(ctx context.Context, s notify.Summary) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if r.panics {
		panic("notifier exploded")
	}
	r.mu.Lock()
	r.received = append(r.received, s)
	r.mu.Unlock()
	return r.err
}

func (r *recordingNotifier) summaries() []notify.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Summary(nil), r.received...)
}
