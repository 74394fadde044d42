package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopcore/shopcore/internal/db"
	"github.com/shopcore/shopcore/internal/models"
	"github.com/shopcore/shopcore/internal/orders"
	"github.com/shopcore/shopcore/internal/publisher"
)

type OrderHandler struct {
	orchestrator *orders.Orchestrator
	statuses     *orders.StatusMachine
	orderRepo    *db.OrderRepository
	cartRepo     *db.CartRepository
	publisher    *publisher.OrderPublisher
}

func NewOrderHandler(
	orchestrator *orders.Orchestrator,
	statuses *orders.StatusMachine,
	orderRepo *db.OrderRepository,
	cartRepo *db.CartRepository,
	pub *publisher.OrderPublisher,
) *OrderHandler {
	return &OrderHandler{
		orchestrator: orchestrator,
		statuses:     statuses,
		orderRepo:    orderRepo,
		cartRepo:     cartRepo,
		publisher:    pub,
	}
}

// HealthCheck returns server status
func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "shop-service"})
}

// ListOrders returns all order headers
func (h *OrderHandler) ListOrders(c *gin.Context) {
	list, err := h.orderRepo.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetOrder returns a single order with items and status history
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orchestrator.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// CreateOrder converts the referenced cart into a pending order
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	snapshot, err := h.cartRepo.GetSnapshot(ctx, req.CartID)
	if err != nil {
		respondError(c, err)
		return
	}

	order, err := h.orchestrator.CreateOrder(ctx, *snapshot, req.Shipping, req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}

	h.publishCreated(ctx, order)

	c.JSON(http.StatusCreated, order)
}

// UpdateOrderStatus runs a status transition through the state machine
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	order, err := h.orchestrator.GetOrder(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.statuses.Transition(ctx, order, req.Status, req.ActorID, req.Note); err != nil {
		respondError(c, err)
		return
	}

	if req.Status == models.OrderCancelled {
		h.publishCancelled(ctx, order, req.ActorID)
	}

	c.JSON(http.StatusOK, order)
}

// CancelOrder is the customer-facing cancellation path
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req struct {
		ActorID string `json:"actor_id" binding:"required"`
		Note    string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	order, err := h.orchestrator.GetOrder(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.statuses.Transition(ctx, order, models.OrderCancelled, req.ActorID, req.Note); err != nil {
		respondError(c, err)
		return
	}

	h.publishCancelled(ctx, order, req.ActorID)

	c.JSON(http.StatusOK, order)
}

// Events are published after the commit point; a broker hiccup never fails
// the request.
func (h *OrderHandler) publishCreated(ctx context.Context, order *models.Order) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishOrderCreated(ctx, order); err != nil {
		log.Printf("⚠️ Failed to publish order.created for %s: %v", order.ID, err)
	}
}

func (h *OrderHandler) publishCancelled(ctx context.Context, order *models.Order, actorID string) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.PublishOrderCancelled(ctx, order, actorID); err != nil {
		log.Printf("⚠️ Failed to publish order.cancelled for %s: %v", order.ID, err)
	}
}
