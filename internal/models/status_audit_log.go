package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	AuditActionCallback      = "callback"
	AuditActionAdminComplete = "admin_complete"
	AuditActionAdminFail     = "admin_fail"
)

// StatusAuditLog records every status write, whether driven by a gateway
// callback or by an admin.
type StatusAuditLog struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionID  uint              `gorm:"index" json:"transaction_id"`
	Action         string            `json:"action"`
	PreviousStatus TransactionStatus `json:"previous_status"`
	NewStatus      TransactionStatus `json:"new_status"`
	Reference      string            `json:"reference,omitempty"`
	GatewayStatus  string            `json:"gateway_status,omitempty"`
	PerformedBy    string            `json:"performed_by"`
	Reason         string            `json:"reason,omitempty"`
	Payload        datatypes.JSON    `json:"payload,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}
