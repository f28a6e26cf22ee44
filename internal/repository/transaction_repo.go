package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"robux-topup-backend/internal/models"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) DB() *gorm.DB {
	return r.db
}

// StatusUpdate is one status write plus the audit row that records it.
// PaymentProof is left untouched when empty. ExpectStatus, when set, turns the
// write into a compare-and-set.
type StatusUpdate struct {
	Status       models.TransactionStatus
	PaymentProof string
	UpdatedAt    time.Time
	ExpectStatus *models.TransactionStatus
	Audit        models.StatusAuditLog
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction with its user.
func (r *TransactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Preload("User").First(&tx, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return &tx, nil
}

// ApplyStatus writes the status change and its audit row in one database
// transaction. Either both land or neither does.
func (r *TransactionRepository) ApplyStatus(ctx context.Context, id uint, upd StatusUpdate) (*models.Transaction, error) {
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		fields := map[string]interface{}{
			"status":     upd.Status,
			"updated_at": upd.UpdatedAt,
		}
		if upd.PaymentProof != "" {
			fields["payment_proof"] = upd.PaymentProof
		}

		query := db.Model(&models.Transaction{}).Where("id = ?", id)
		if upd.ExpectStatus != nil {
			query = query.Where("status = ?", *upd.ExpectStatus)
		}
		result := query.Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := db.Model(&models.Transaction{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrTransactionNotFound
			}
			return ErrStatusConflict
		}

		audit := upd.Audit
		audit.TransactionID = id
		audit.NewStatus = upd.Status
		if audit.CreatedAt.IsZero() {
			audit.CreatedAt = upd.UpdatedAt
		}
		return db.Create(&audit).Error
	})
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) || errors.Is(err, ErrStatusConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("apply status to transaction %d: %w", id, err)
	}
	return r.GetByID(ctx, id)
}

// AttachCheckout stores what the gateway returned when the payment was opened.
func (r *TransactionRepository) AttachCheckout(ctx context.Context, id uint, merchantRef, checkoutURL string) error {
	result := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"merchant_ref": merchantRef,
			"checkout_url": checkoutURL,
		})
	if result.Error != nil {
		return fmt.Errorf("attach checkout to transaction %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) FindOrCreateUser(ctx context.Context, username, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where(models.User{Username: username}).
		Attrs(models.User{Email: email}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, fmt.Errorf("find or create user %q: %w", username, err)
	}
	return &user, nil
}

type ListFilter struct {
	Status string
	Cursor uint
	Limit  int
}

// List returns one page ordered by id. nextCursor is the id to pass back for
// the following page.
func (r *TransactionRepository) List(ctx context.Context, f ListFilter) (items []models.Transaction, nextCursor uint, hasMore bool, err error) {
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := r.db.WithContext(ctx).
		Preload("User").
		Order("id ASC").
		Limit(limit + 1)

	if f.Status != "" && f.Status != "all" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Cursor > 0 {
		query = query.Where("id > ?", f.Cursor)
	}

	if err = query.Find(&items).Error; err != nil {
		return nil, 0, false, fmt.Errorf("list transactions: %w", err)
	}

	if len(items) > limit {
		hasMore = true
		items = items[:limit]
		nextCursor = items[limit-1].ID
	}
	return items, nextCursor, hasMore, nil
}

type StatusStat struct {
	Count int64           `json:"count"`
	Sum   decimal.Decimal `json:"sum"`
}

type Stats struct {
	Total       int64                                   `json:"total"`
	TotalAmount decimal.Decimal                         `json:"total_amount"`
	ByStatus    map[models.TransactionStatus]StatusStat `json:"by_status"`
}

type statRow struct {
	Status string
	Count  int64
	Sum    decimal.Decimal
}

func (r *TransactionRepository) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByStatus: make(map[models.TransactionStatus]StatusStat)}

	var rows []statRow
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(price),0) as sum").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return stats, fmt.Errorf("transaction stats: %w", err)
	}

	for _, row := range rows {
		stats.Total += row.Count
		stats.TotalAmount = stats.TotalAmount.Add(row.Sum)
		stats.ByStatus[models.TransactionStatus(row.Status)] = StatusStat{Count: row.Count, Sum: row.Sum}
	}
	return stats, nil
}
