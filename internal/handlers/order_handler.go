package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"robux-topup-backend/internal/apperrors"
	"robux-topup-backend/internal/models"
	"robux-topup-backend/internal/services/checkout"
	"robux-topup-backend/internal/tripay"
)

type Checkout interface {
	CreateOrder(ctx context.Context, req checkout.OrderRequest) (*models.Transaction, error)
	GetOrder(ctx context.Context, id uint) (*models.Transaction, error)
}

type ChannelLister interface {
	List(ctx context.Context) ([]tripay.Channel, error)
}

type OrderHandler struct {
	checkout Checkout
	channels ChannelLister
}

func NewOrderHandler(co Checkout, channels ChannelLister) *OrderHandler {
	return &OrderHandler{checkout: co, channels: channels}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req checkout.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidationError("invalid payload", err))
		return
	}

	tx, err := h.checkout.CreateOrder(c.Request.Context(), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": tx})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}

	tx, err := h.checkout.GetOrder(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":           tx.ID,
			"status":       tx.Status,
			"robux_amount": tx.RobuxAmount,
			"price":        tx.Price,
			"checkout_url": tx.CheckoutURL,
			"updated_at":   tx.UpdatedAt,
		},
	})
}

func (h *OrderHandler) ListChannels(c *gin.Context) {
	channels, err := h.channels.List(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, apperrors.NewUpstreamError("tripay", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": channels})
}
