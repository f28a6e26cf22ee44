package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"robux-topup-backend/internal/models"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// ListByTransaction returns the status history of one transaction, oldest first.
func (r *AuditLogRepository) ListByTransaction(ctx context.Context, transactionID uint) ([]models.StatusAuditLog, error) {
	var logs []models.StatusAuditLog
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list audit logs for transaction %d: %w", transactionID, err)
	}
	return logs, nil
}
