package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcore/shopcore/internal/inventory"
	"github.com/shopcore/shopcore/internal/models"
)

type statusFixture struct {
	stock   *memStockStore
	orders  *memOrderStore
	ledger  *inventory.Ledger
	machine *StatusMachine
}

// newStatusFixture builds a pending two-item order whose stock was already
// deducted by order creation: 10-2 and 5-1 units remain on hand.
func newStatusFixture(t *testing.T) (*statusFixture, *models.Order) {
	t.Helper()

	f := &statusFixture{
		stock:  newMemStockStore(),
		orders: newMemOrderStore(),
	}
	f.ledger = inventory.NewLedger(f.stock)
	f.machine = NewStatusMachine(f.ledger, f.orders)

	ctx := context.Background()
	_, err := f.ledger.CreateRecord(ctx, 1, 8, 0)
	require.NoError(t, err)
	_, err = f.ledger.CreateRecord(ctx, 2, 4, 0)
	require.NoError(t, err)

	order := &models.Order{
		ID:         "order-1",
		CustomerID: "customer-1",
		Status:     models.OrderPending,
		Items: []models.OrderItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
		StatusHistory: []models.StatusChange{{Status: models.OrderPending}},
		Version:       1,
	}
	require.NoError(t, f.orders.Create(ctx, order))

	return f, order
}

func (f *statusFixture) available(t *testing.T, productID int) int {
	t.Helper()
	rec, err := f.ledger.Record(context.Background(), productID)
	require.NoError(t, err)
	return rec.Available()
}

func TestTransition_PendingToConfirmed(t *testing.T) {
	f, order := newStatusFixture(t)

	err := f.machine.Transition(context.Background(), order, models.OrderConfirmed, "admin-1", "payment verified")
	require.NoError(t, err)

	assert.Equal(t, models.OrderConfirmed, order.Status)
	assert.Len(t, order.StatusHistory, 2)
	assert.Equal(t, "admin-1", order.StatusHistory[1].ActorID)
	assert.Equal(t, 2, order.Version)

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, stored.Status)
}

func TestTransition_FullLifecycle(t *testing.T) {
	f, order := newStatusFixture(t)
	ctx := context.Background()

	for _, next := range []models.OrderStatus{
		models.OrderConfirmed, models.OrderProcessing, models.OrderShipped, models.OrderDelivered,
	} {
		require.NoError(t, f.machine.Transition(ctx, order, next, "admin-1", ""))
	}

	assert.Equal(t, models.OrderDelivered, order.Status)
	assert.Len(t, order.StatusHistory, 5)
}

func TestTransition_IllegalSkipFails(t *testing.T) {
	f, order := newStatusFixture(t)

	err := f.machine.Transition(context.Background(), order, models.OrderDelivered, "admin-1", "")
	assert.ErrorIs(t, err, models.ErrIllegalTransition)

	// Nothing recorded.
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Len(t, order.StatusHistory, 1)

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, stored.Status)
}

func TestTransition_CancelReturnsStock(t *testing.T) {
	f, order := newStatusFixture(t)

	before1 := f.available(t, 1)
	before2 := f.available(t, 2)

	err := f.machine.Transition(context.Background(), order, models.OrderCancelled, "customer-1", "changed my mind")
	require.NoError(t, err)

	assert.Equal(t, models.OrderCancelled, order.Status)
	assert.Len(t, order.StatusHistory, 2)
	assert.Equal(t, before1+2, f.available(t, 1))
	assert.Equal(t, before2+1, f.available(t, 2))
}

func TestTransition_CancelFromConfirmed(t *testing.T) {
	f, order := newStatusFixture(t)
	ctx := context.Background()

	require.NoError(t, f.machine.Transition(ctx, order, models.OrderConfirmed, "admin-1", ""))
	require.NoError(t, f.machine.Transition(ctx, order, models.OrderCancelled, "admin-1", "fraud check"))

	assert.Equal(t, models.OrderCancelled, order.Status)
	assert.Equal(t, 10, f.available(t, 1))
}

func TestTransition_CancelAfterShippedFails(t *testing.T) {
	f, order := newStatusFixture(t)
	ctx := context.Background()

	for _, next := range []models.OrderStatus{models.OrderConfirmed, models.OrderProcessing, models.OrderShipped} {
		require.NoError(t, f.machine.Transition(ctx, order, next, "admin-1", ""))
	}

	before := f.available(t, 1)
	err := f.machine.Transition(ctx, order, models.OrderCancelled, "customer-1", "")
	assert.ErrorIs(t, err, models.ErrIllegalTransition)
	assert.Equal(t, models.OrderShipped, order.Status)
	assert.Equal(t, before, f.available(t, 1))
}

func TestTransition_TerminalStatesRejectEverything(t *testing.T) {
	f, order := newStatusFixture(t)
	ctx := context.Background()

	require.NoError(t, f.machine.Transition(ctx, order, models.OrderCancelled, "customer-1", ""))

	err := f.machine.Transition(ctx, order, models.OrderConfirmed, "admin-1", "")
	assert.ErrorIs(t, err, models.ErrIllegalTransition)
}

// A cancellation whose stock return fails must not be recorded, and returns
// already applied must be unwound.
func TestTransition_CancelFailsClosedOnStockError(t *testing.T) {
	f, order := newStatusFixture(t)
	ctx := context.Background()

	// Second item references a product with no stock record.
	order.Items[1].ProductID = 99

	before := f.available(t, 1)
	err := f.machine.Transition(ctx, order, models.OrderCancelled, "customer-1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.Equal(t, models.OrderPending, order.Status)
	assert.Len(t, order.StatusHistory, 1)
	// The first item's return was rolled back.
	assert.Equal(t, before, f.available(t, 1))

	stored, gerr := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, gerr)
	assert.Equal(t, models.OrderPending, stored.Status)
}

func TestTransition_VersionConflictSurfacesAsConcurrencyExhausted(t *testing.T) {
	f, order := newStatusFixture(t)
	ctx := context.Background()

	f.orders.updateErr = models.ErrVersionConflict

	before := f.available(t, 1)
	err := f.machine.Transition(ctx, order, models.OrderCancelled, "customer-1", "")
	assert.ErrorIs(t, err, models.ErrConcurrencyExhausted)

	// In-memory aggregate rolled back, stock re-deducted.
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Len(t, order.StatusHistory, 1)
	assert.Equal(t, 1, order.Version)
	assert.Equal(t, before, f.available(t, 1))
}

func TestTransition_InfrastructureErrorPropagates(t *testing.T) {
	f, order := newStatusFixture(t)

	f.orders.updateErr = fmt.Errorf("database unavailable")

	err := f.machine.Transition(context.Background(), order, models.OrderConfirmed, "admin-1", "")
	assert.ErrorContains(t, err, "database unavailable")
	assert.Equal(t, models.OrderPending, order.Status)
}
