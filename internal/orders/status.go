package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopcore/shopcore/internal/inventory"
	"github.com/shopcore/shopcore/internal/models"
)

// allowedTransitions is the full order lifecycle. Cancellation is only
// reachable before processing starts; delivered and cancelled are terminal.
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:    {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed:  {models.OrderProcessing, models.OrderCancelled},
	models.OrderProcessing: {models.OrderShipped},
	models.OrderShipped:    {models.OrderDelivered},
	models.OrderDelivered:  {},
	models.OrderCancelled:  {},
}

// StatusMachine is the only writer of order status. Cancellation routes
// through the inventory ledger to return deducted stock before the status
// write is recorded.
type StatusMachine struct {
	ledger *inventory.Ledger
	orders OrderStore
}

func NewStatusMachine(ledger *inventory.Ledger, orders OrderStore) *StatusMachine {
	return &StatusMachine{ledger: ledger, orders: orders}
}

func transitionAllowed(from, to models.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves order to newStatus, appending one history entry. On
// cancellation every line item's stock is returned first; if any return
// fails the transition is not recorded and the returns already applied are
// themselves unwound.
func (m *StatusMachine) Transition(ctx context.Context, order *models.Order, newStatus models.OrderStatus, actorID, note string) error {
	if !transitionAllowed(order.Status, newStatus) {
		return fmt.Errorf("order %s: %s -> %s: %w", order.ID, order.Status, newStatus, models.ErrIllegalTransition)
	}

	if newStatus == models.OrderCancelled {
		if err := m.returnStock(ctx, order); err != nil {
			return err
		}
	}

	entry := models.StatusChange{
		Status:    newStatus,
		ActorID:   actorID,
		Note:      note,
		ChangedAt: time.Now().UTC(),
	}

	prevStatus := order.Status
	prevVersion := order.Version
	order.Status = newStatus
	order.StatusHistory = append(order.StatusHistory, entry)
	order.Version = prevVersion + 1

	if err := m.orders.UpdateStatus(ctx, order, prevVersion); err != nil {
		order.Status = prevStatus
		order.StatusHistory = order.StatusHistory[:len(order.StatusHistory)-1]
		order.Version = prevVersion
		if newStatus == models.OrderCancelled {
			m.undoReturnStock(ctx, order)
		}
		if errors.Is(err, models.ErrVersionConflict) {
			return fmt.Errorf("order %s: %w", order.ID, models.ErrConcurrencyExhausted)
		}
		return err
	}

	log.Printf("✅ Order %s: %s -> %s (by %s)", order.ID, prevStatus, newStatus, actorID)
	return nil
}

// returnStock puts every line item's quantity back on hand. A failure
// part-way unwinds the items already returned, so a rejected cancellation
// leaves stock untouched.
func (m *StatusMachine) returnStock(ctx context.Context, order *models.Order) error {
	for i, item := range order.Items {
		_, err := m.ledger.Adjust(ctx, item.ProductID, +item.Quantity)
		if err == nil {
			continue
		}

		for j := i - 1; j >= 0; j-- {
			prev := order.Items[j]
			if _, uerr := m.ledger.Adjust(ctx, prev.ProductID, -prev.Quantity); uerr != nil {
				log.Printf("⚠️ DATA CONSISTENCY: failed to undo stock return for product %d on order %s, manual reconciliation required: %v",
					prev.ProductID, order.ID, uerr)
			}
		}
		return fmt.Errorf("order %s: stock return for product %d failed: %w", order.ID, item.ProductID, err)
	}
	return nil
}

// undoReturnStock re-deducts stock after a cancellation's status write was
// rejected. Failures here are logged only; the order itself was left in its
// previous state.
func (m *StatusMachine) undoReturnStock(ctx context.Context, order *models.Order) {
	for _, item := range order.Items {
		if _, err := m.ledger.Adjust(ctx, item.ProductID, -item.Quantity); err != nil {
			log.Printf("⚠️ DATA CONSISTENCY: failed to re-deduct product %d after aborted cancellation of order %s, manual reconciliation required: %v",
				item.ProductID, order.ID, err)
		}
	}
}
