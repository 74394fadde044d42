// Package inventory owns all stock mutation. Every write goes through an
// optimistic read-compute-conditional-write cycle keyed on the record's
// version; no locks are held across store calls.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopcore/shopcore/internal/models"
)

// StockStore is the persistence contract for stock records. Update must be
// conditional: it commits only if the stored version still equals
// expectedVersion, and returns models.ErrVersionConflict otherwise.
type StockStore interface {
	Get(ctx context.Context, productID int) (*models.StockRecord, error)
	Create(ctx context.Context, rec *models.StockRecord) error
	Update(ctx context.Context, rec *models.StockRecord, expectedVersion int) error
	ListLowStock(ctx context.Context) ([]models.StockRecord, error)
}

// maxAttempts bounds the read-compute-write retry cycle. Exhausting it
// surfaces as models.ErrConcurrencyExhausted, which callers may retry.
const maxAttempts = 3

type Ledger struct {
	store StockStore
}

func NewLedger(store StockStore) *Ledger {
	return &Ledger{store: store}
}

// mutate runs one optimistic-concurrency cycle for productID: read the
// record, apply the change in memory, then write conditionally on the
// version read. A lost race retries the whole cycle; business failures from
// apply and infrastructure errors return immediately.
func (l *Ledger) mutate(ctx context.Context, productID int, apply func(*models.StockRecord) error) (*models.StockRecord, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		rec, err := l.store.Get(ctx, productID)
		if err != nil {
			return nil, err
		}

		expected := rec.Version
		if err := apply(rec); err != nil {
			return nil, err
		}
		rec.Version = expected + 1

		err = l.store.Update(ctx, rec, expected)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, models.ErrVersionConflict) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("product %d: %w", productID, models.ErrConcurrencyExhausted)
}

// Reserve earmarks qty units for an in-flight order without removing them
// from stock.
func (l *Ledger) Reserve(ctx context.Context, productID, qty int) (*models.StockRecord, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("reserve quantity must be positive, got %d", qty)
	}
	return l.mutate(ctx, productID, func(rec *models.StockRecord) error {
		if rec.Available() < qty {
			return fmt.Errorf("product %d: requested %d, available %d: %w",
				productID, qty, rec.Available(), models.ErrInsufficientStock)
		}
		rec.ReservedQuantity += qty
		return nil
	})
}

// Release gives back up to qty reserved units. It clamps at zero instead of
// failing: releases are compensating actions and must succeed even when the
// reservation was already partially consumed by a deduct.
func (l *Ledger) Release(ctx context.Context, productID, qty int) (*models.StockRecord, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("release quantity must be positive, got %d", qty)
	}
	return l.mutate(ctx, productID, func(rec *models.StockRecord) error {
		rec.ReservedQuantity -= min(qty, rec.ReservedQuantity)
		return nil
	})
}

// Deduct removes qty units from stock on hand, consuming any matching
// reservation along the way.
func (l *Ledger) Deduct(ctx context.Context, productID, qty int) (*models.StockRecord, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("deduct quantity must be positive, got %d", qty)
	}
	return l.mutate(ctx, productID, func(rec *models.StockRecord) error {
		if rec.Quantity < qty {
			return fmt.Errorf("product %d: requested %d, on hand %d: %w",
				productID, qty, rec.Quantity, models.ErrInsufficientStock)
		}
		rec.Quantity -= qty
		rec.ReservedQuantity -= min(qty, rec.ReservedQuantity)
		return nil
	})
}

// Adjust applies a signed correction to stock on hand. Used for manual
// corrections and for returning stock when an order is unwound.
func (l *Ledger) Adjust(ctx context.Context, productID, delta int) (*models.StockRecord, error) {
	if delta == 0 {
		return nil, fmt.Errorf("adjust delta must be non-zero")
	}
	return l.mutate(ctx, productID, func(rec *models.StockRecord) error {
		if rec.Quantity+delta < 0 {
			return fmt.Errorf("product %d: delta %d, on hand %d: %w",
				productID, delta, rec.Quantity, models.ErrInsufficientStock)
		}
		// A correction may not undercut outstanding reservations: available
		// stock stays non-negative across every mutation.
		if rec.Quantity+delta < rec.ReservedQuantity {
			return fmt.Errorf("product %d: delta %d would leave %d on hand with %d reserved: %w",
				productID, delta, rec.Quantity+delta, rec.ReservedQuantity, models.ErrInsufficientStock)
		}
		rec.Quantity += delta
		return nil
	})
}

// CreateRecord registers the single stock record for a product.
func (l *Ledger) CreateRecord(ctx context.Context, productID, quantity, lowStockThreshold int) (*models.StockRecord, error) {
	if quantity < 0 || lowStockThreshold < 0 {
		return nil, fmt.Errorf("quantity and threshold must not be negative")
	}
	rec := &models.StockRecord{
		ProductID:         productID,
		Quantity:          quantity,
		LowStockThreshold: lowStockThreshold,
		Version:           1,
	}
	if err := l.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Record returns the current stock record for a product.
func (l *Ledger) Record(ctx context.Context, productID int) (*models.StockRecord, error) {
	return l.store.Get(ctx, productID)
}

// LowStock lists records at or below their reorder threshold.
func (l *Ledger) LowStock(ctx context.Context) ([]models.StockRecord, error) {
	return l.store.ListLowStock(ctx)
}
