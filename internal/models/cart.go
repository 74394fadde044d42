package models

// CartSnapshot is the read-only view of a customer cart that order creation
// consumes. Well-formedness (positive quantities, known customer) is the
// responsibility of the layer that produced it.
type CartSnapshot struct {
	CartID     string     `json:"cart_id"`
	CustomerID string     `json:"customer_id"`
	Lines      []CartLine `json:"lines"`
	Discount   float64    `json:"discount"`
}

type CartLine struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}
