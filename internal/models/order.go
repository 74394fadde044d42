package models

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Order is created once by the orchestrator and afterwards mutated only by
// the status machine. Line items are a snapshot of product data at creation
// time; later catalog changes never affect a stored order.
type Order struct {
	ID            string         `json:"id"`
	CustomerID    string         `json:"customer_id"`
	Items         []OrderItem    `json:"items"`
	TotalAmount   float64        `json:"total_amount"`
	Status        OrderStatus    `json:"status"`
	StatusHistory []StatusChange `json:"status_history"`
	Shipping      ShippingInfo   `json:"shipping"`
	PaymentMethod string         `json:"payment_method"`
	Version       int            `json:"version"`
	CreatedAt     time.Time      `json:"created_at"`
}

type OrderItem struct {
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	Subtotal    float64 `json:"subtotal"`
}

// StatusChange is one append-only entry in an order's status history.
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	ActorID   string      `json:"actor_id"`
	Note      string      `json:"note"`
	ChangedAt time.Time   `json:"changed_at"`
}

// ShippingInfo is stored verbatim on the order; the core does not interpret
// it beyond adding the fee into the total.
type ShippingInfo struct {
	Address string  `json:"address"`
	City    string  `json:"city"`
	Zip     string  `json:"zip"`
	Fee     float64 `json:"fee"`
}

type CreateOrderRequest struct {
	CartID        string       `json:"cart_id" binding:"required"`
	Shipping      ShippingInfo `json:"shipping"`
	PaymentMethod string       `json:"payment_method" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status  OrderStatus `json:"status" binding:"required"`
	ActorID string      `json:"actor_id" binding:"required"`
	Note    string      `json:"note"`
}
