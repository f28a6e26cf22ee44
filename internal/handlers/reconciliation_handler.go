package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"robux-topup-backend/internal/apperrors"
	"robux-topup-backend/internal/middleware"
	"robux-topup-backend/internal/models"
	"robux-topup-backend/internal/repository"
	service "robux-topup-backend/internal/services/reconciliation"
	"robux-topup-backend/internal/tripay"
)

const maxCallbackBody = 1 << 20

type Reconciler interface {
	Reconcile(ctx context.Context, rawBody []byte, signature string) (*service.Result, error)
}

type AdminOperations interface {
	ListTransactions(ctx context.Context, f repository.ListFilter) (*service.Page, error)
	GetTransaction(ctx context.Context, id uint) (*service.TransactionDetail, error)
	CompleteTransaction(ctx context.Context, id uint, admin string) (*models.Transaction, error)
	FailTransaction(ctx context.Context, id uint, admin, reason string) (*models.Transaction, error)
	Stats(ctx context.Context) (repository.Stats, error)
}

type ReconciliationHandler struct {
	reconciler Reconciler
	admin      AdminOperations
}

func NewReconciliationHandler(r Reconciler, admin AdminOperations) *ReconciliationHandler {
	return &ReconciliationHandler{reconciler: r, admin: admin}
}

// Callback receives the gateway's payment status webhook. The body is read
// raw because the signature covers the exact bytes sent.
func (h *ReconciliationHandler) Callback(c *gin.Context) {
	if event := c.GetHeader(tripay.CallbackEventHeader); event != "" && event != tripay.EventPaymentStatus {
		apperrors.Respond(c, apperrors.NewValidationError("unsupported callback event", nil))
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody+1))
	if err != nil {
		apperrors.Respond(c, apperrors.NewValidationError("unreadable body", err))
		return
	}
	// A truncated body would only fail the signature check with a misleading 401.
	if len(body) > maxCallbackBody {
		apperrors.Respond(c, apperrors.NewValidationError("callback body too large", nil))
		return
	}

	result, err := h.reconciler.Reconcile(c.Request.Context(), body, c.GetHeader(tripay.CallbackSignatureHeader))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "callback processed",
		"transactionId": strconv.FormatUint(uint64(result.TransactionID), 10),
		"newStatus":     result.NewStatus,
	})
}

func (h *ReconciliationHandler) ListTransactions(c *gin.Context) {
	filter := repository.ListFilter{Status: c.Query("status")}
	if cursor := c.Query("cursor"); cursor != "" {
		v, err := strconv.ParseUint(cursor, 10, strconv.IntSize)
		if err != nil {
			apperrors.Respond(c, apperrors.NewValidationError("invalid cursor", err))
			return
		}
		filter.Cursor = uint(v)
	}
	if limit := c.Query("limit"); limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil {
			apperrors.Respond(c, apperrors.NewValidationError("invalid limit", err))
			return
		}
		filter.Limit = v
	}

	page, err := h.admin.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"items":       page.Items,
		"next_cursor": page.NextCursor,
		"has_more":    page.HasMore,
	})
}

func (h *ReconciliationHandler) GetTransaction(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}

	detail, err := h.admin.GetTransaction(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": detail})
}

func (h *ReconciliationHandler) CompleteTransaction(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}

	tx, err := h.admin.CompleteTransaction(c.Request.Context(), id, middleware.Subject(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "transaction completed", "transaction": tx})
}

func (h *ReconciliationHandler) FailTransaction(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}

	var payload struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			apperrors.Respond(c, apperrors.NewValidationError("invalid payload", err))
			return
		}
	}

	tx, err := h.admin.FailTransaction(c.Request.Context(), id, middleware.Subject(c), payload.Reason)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "transaction failed", "transaction": tx})
}

func (h *ReconciliationHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

func transactionID(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Param("id"), 10, strconv.IntSize)
	if err != nil || v == 0 {
		apperrors.Respond(c, apperrors.NewValidationError("invalid transaction ID", err))
		return 0, false
	}
	return uint(v), true
}
