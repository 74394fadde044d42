package models

import "time"

// StockRecord tracks on-hand and reserved units for one product. There is at
// most one record per product, and it is only ever mutated through the
// inventory ledger's versioned writes.
type StockRecord struct {
	ProductID         int       `json:"product_id"`
	Quantity          int       `json:"quantity"`
	ReservedQuantity  int       `json:"reserved_quantity"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	Version           int       `json:"version"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Available returns stock on hand minus stock reserved for in-flight orders.
// It is always computed, never stored.
func (s *StockRecord) Available() int {
	return s.Quantity - s.ReservedQuantity
}

// IsLowStock reports whether on-hand stock has fallen to the reorder
// threshold. Reporting only, no bearing on correctness.
func (s *StockRecord) IsLowStock() bool {
	return s.Quantity <= s.LowStockThreshold
}

type CreateStockRequest struct {
	ProductID         int `json:"product_id" binding:"required"`
	Quantity          int `json:"quantity" binding:"min=0"`
	LowStockThreshold int `json:"low_stock_threshold" binding:"min=0"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}
