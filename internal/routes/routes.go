package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	handler "robux-topup-backend/internal/handlers"
	"robux-topup-backend/internal/middleware"
)

type Handlers struct {
	Reconciliation *handler.ReconciliationHandler
	Orders         *handler.OrderHandler
	JWTSecret      string
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Gateway webhook
	payment := api.Group("/payment")
	payment.POST("/callback", h.Reconciliation.Callback)
	payment.GET("/channels", h.Orders.ListChannels)

	// Storefront
	orders := api.Group("/orders")
	orders.POST("", h.Orders.CreateOrder)
	orders.GET("/:id", h.Orders.GetOrder)

	// Back office
	admin := api.Group("/admin", middleware.AuthRequired(h.JWTSecret), middleware.RoleRequired(middleware.RoleAdmin))
	{
		admin.GET("/stats", h.Reconciliation.Stats)
		admin.GET("/transactions", h.Reconciliation.ListTransactions)
		admin.GET("/transactions/:id", h.Reconciliation.GetTransaction)
		admin.POST("/transactions/:id/complete", h.Reconciliation.CompleteTransaction)
		admin.POST("/transactions/:id/fail", h.Reconciliation.FailTransaction)
	}
}
