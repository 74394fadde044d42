package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shopcore/shopcore/internal/inventory"
	"github.com/shopcore/shopcore/internal/models"
)

type StockHandler struct {
	ledger *inventory.Ledger
}

func NewStockHandler(ledger *inventory.Ledger) *StockHandler {
	return &StockHandler{ledger: ledger}
}

// GetStock returns the stock record for a product
func (h *StockHandler) GetStock(c *gin.Context) {
	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": "invalid product ID"})
		return
	}

	rec, err := h.ledger.Record(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id":          rec.ProductID,
		"quantity":            rec.Quantity,
		"reserved_quantity":   rec.ReservedQuantity,
		"available_quantity":  rec.Available(),
		"low_stock_threshold": rec.LowStockThreshold,
	})
}

// CreateStock registers the stock record for a product
func (h *StockHandler) CreateStock(c *gin.Context) {
	var req models.CreateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	rec, err := h.ledger.CreateRecord(c.Request.Context(), req.ProductID, req.Quantity, req.LowStockThreshold)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// AdjustStock applies a signed manual correction
func (h *StockHandler) AdjustStock(c *gin.Context) {
	productID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": "invalid product ID"})
		return
	}

	var req models.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	rec, err := h.ledger.Adjust(c.Request.Context(), productID, req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// ListLowStock reports records at or below their reorder threshold
func (h *StockHandler) ListLowStock(c *gin.Context) {
	records, err := h.ledger.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}
