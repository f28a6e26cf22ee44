package reconciliation

import (
	"strings"

	"robux-topup-backend/internal/models"
)

// Gateway status vocabulary.
const (
	GatewayPaid    = "PAID"
	GatewayUnpaid  = "UNPAID"
	GatewayExpired = "EXPIRED"
	GatewayFailed  = "FAILED"
)

var gatewayStatusTable = map[string]models.TransactionStatus{
	GatewayPaid:    models.StatusProcessing,
	GatewayExpired: models.StatusFailed,
	GatewayFailed:  models.StatusFailed,
	GatewayUnpaid:  models.StatusPending,
}

// MapGatewayStatus translates a gateway status. Unknown values map to pending
// and known is false; they never escalate.
func MapGatewayStatus(gatewayStatus string) (status models.TransactionStatus, known bool) {
	status, known = gatewayStatusTable[strings.ToUpper(strings.TrimSpace(gatewayStatus))]
	if !known {
		return models.StatusPending, false
	}
	return status, true
}
