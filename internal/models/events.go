package models

// OrderCreatedEvent is published after an order is durably created.
type OrderCreatedEvent struct {
	OrderID     string           `json:"order_id"`
	CustomerID  string           `json:"customer_id"`
	TotalAmount float64          `json:"total_amount"`
	Items       []OrderItemEvent `json:"items"`
}

// OrderCancelledEvent is published after a cancellation transition commits.
type OrderCancelledEvent struct {
	OrderID string           `json:"order_id"`
	ActorID string           `json:"actor_id"`
	Items   []OrderItemEvent `json:"items"`
}

type OrderItemEvent struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}
