// Package orders converts carts into orders and governs order status. Order
// creation is a saga: each line-item deduction carries a compensation, and a
// failure part-way unwinds everything already committed before the error is
// returned.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/shopcore/shopcore/internal/inventory"
	"github.com/shopcore/shopcore/internal/models"
)

// ProductStore supplies the catalog data snapshotted into order line items.
type ProductStore interface {
	GetByID(ctx context.Context, id int) (*models.Product, error)
}

// OrderStore persists order aggregates. UpdateStatus must be conditional on
// expectedVersion and return models.ErrVersionConflict when it loses a race.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, order *models.Order, expectedVersion int) error
}

// CartStore clears a cart after its order is durably created.
type CartStore interface {
	Clear(ctx context.Context, cartID string) error
}

type Orchestrator struct {
	ledger   *inventory.Ledger
	products ProductStore
	orders   OrderStore
	carts    CartStore
}

func NewOrchestrator(ledger *inventory.Ledger, products ProductStore, orders OrderStore, carts CartStore) *Orchestrator {
	return &Orchestrator{
		ledger:   ledger,
		products: products,
		orders:   orders,
		carts:    carts,
	}
}

// sagaStep pairs a forward action with the compensation that reverses it.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// runSaga executes steps left to right. On failure it runs the compensations
// of every completed step in reverse order, then returns the original error.
// A compensation failure is joined onto the result and logged for manual
// reconciliation; it never masks the original cause.
func runSaga(ctx context.Context, steps []sagaStep) error {
	for i, step := range steps {
		err := step.run(ctx)
		if err == nil {
			continue
		}

		for j := i - 1; j >= 0; j-- {
			prev := steps[j]
			if prev.compensate == nil {
				continue
			}
			if cerr := prev.compensate(ctx); cerr != nil {
				log.Printf("⚠️ DATA CONSISTENCY: compensation %q failed after %q, manual reconciliation required: %v",
					prev.name, step.name, cerr)
				err = errors.Join(err, fmt.Errorf("compensation %q failed: %w", prev.name, cerr))
			}
		}
		return err
	}
	return nil
}

// CreateOrder turns a cart snapshot into a pending order. Stock is deducted
// per line item; if any line fails, deductions already applied are reversed
// and no order is written. Once the order is durable, cart clearing is
// best-effort cleanup and cannot undo the order.
func (o *Orchestrator) CreateOrder(ctx context.Context, cart models.CartSnapshot, shipping models.ShippingInfo, paymentMethod string) (*models.Order, error) {
	if len(cart.Lines) == 0 {
		return nil, fmt.Errorf("cart %s: %w", cart.CartID, models.ErrEmptyCart)
	}

	order := &models.Order{
		ID:            uuid.New().String(),
		CustomerID:    cart.CustomerID,
		Status:        models.OrderPending,
		Shipping:      shipping,
		PaymentMethod: paymentMethod,
		Version:       1,
		CreatedAt:     time.Now().UTC(),
	}

	var steps []sagaStep
	for _, line := range cart.Lines {
		steps = append(steps, sagaStep{
			name: fmt.Sprintf("deduct product %d", line.ProductID),
			run: func(ctx context.Context) error {
				product, err := o.products.GetByID(ctx, line.ProductID)
				if err != nil {
					return fmt.Errorf("product %d: %w", line.ProductID, err)
				}
				if product.Withdrawn {
					return fmt.Errorf("product %d: %w", line.ProductID, models.ErrProductUnavailable)
				}

				if _, err := o.ledger.Deduct(ctx, line.ProductID, line.Quantity); err != nil {
					return err
				}

				// Snapshot the catalog state the customer bought at.
				item := models.OrderItem{
					ProductID:   product.ID,
					ProductName: product.Name,
					UnitPrice:   product.Price,
					Quantity:    line.Quantity,
					Subtotal:    product.Price * float64(line.Quantity),
				}
				order.Items = append(order.Items, item)
				order.TotalAmount += item.Subtotal
				return nil
			},
			compensate: func(ctx context.Context) error {
				_, err := o.ledger.Adjust(ctx, line.ProductID, +line.Quantity)
				return err
			},
		})
	}

	steps = append(steps, sagaStep{
		name: "persist order",
		run: func(ctx context.Context) error {
			order.TotalAmount += shipping.Fee - cart.Discount
			order.StatusHistory = []models.StatusChange{{
				Status:    models.OrderPending,
				ActorID:   cart.CustomerID,
				Note:      "order created",
				ChangedAt: order.CreatedAt,
			}}
			return o.orders.Create(ctx, order)
		},
	})

	if err := runSaga(ctx, steps); err != nil {
		return nil, err
	}

	// The order is the commit point. A failed cart clear is logged, not
	// rolled back.
	if err := o.carts.Clear(ctx, cart.CartID); err != nil {
		log.Printf("⚠️ Failed to clear cart %s after creating order %s: %v", cart.CartID, order.ID, err)
	}

	log.Printf("✅ Order %s created with total $%.2f (%d items)", order.ID, order.TotalAmount, len(order.Items))
	return order, nil
}

// GetOrder returns a stored order aggregate.
func (o *Orchestrator) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return o.orders.GetByID(ctx, id)
}
