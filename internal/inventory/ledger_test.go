package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcore/shopcore/internal/models"
)

// memStockStore is an in-memory StockStore with the same conditional-write
// semantics as the Postgres repository.
type memStockStore struct {
	mu      sync.Mutex
	records map[int]models.StockRecord

	// updateHook runs before each Update; returning a non-nil error makes
	// the write fail with that error.
	updateHook func(expectedVersion int) error
}

func newMemStockStore() *memStockStore {
	return &memStockStore{records: make(map[int]models.StockRecord)}
}

func (s *memStockStore) Get(_ context.Context, productID int) (*models.StockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[productID]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := rec
	return &out, nil
}

func (s *memStockStore) Create(_ context.Context, rec *models.StockRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ProductID]; ok {
		return fmt.Errorf("stock record for product %d already exists", rec.ProductID)
	}
	s.records[rec.ProductID] = *rec
	return nil
}

func (s *memStockStore) Update(_ context.Context, rec *models.StockRecord, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updateHook != nil {
		if err := s.updateHook(expectedVersion); err != nil {
			return err
		}
	}

	stored, ok := s.records[rec.ProductID]
	if !ok {
		return models.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return models.ErrVersionConflict
	}
	s.records[rec.ProductID] = *rec
	return nil
}

func (s *memStockStore) ListLowStock(_ context.Context) ([]models.StockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.StockRecord
	for _, rec := range s.records {
		if rec.IsLowStock() {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memStockStore) record(productID int) models.StockRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[productID]
}

func newTestLedger(t *testing.T, productID, quantity int) (*Ledger, *memStockStore) {
	t.Helper()
	store := newMemStockStore()
	ledger := NewLedger(store)
	_, err := ledger.CreateRecord(context.Background(), productID, quantity, 0)
	require.NoError(t, err)
	return ledger, store
}

func TestLedger_Reserve(t *testing.T) {
	ledger, store := newTestLedger(t, 1, 10)

	rec, err := ledger.Reserve(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 10, rec.Quantity)
	assert.Equal(t, 4, rec.ReservedQuantity)
	assert.Equal(t, 6, rec.Available())
	assert.Equal(t, 2, store.record(1).Version)
}

func TestLedger_Reserve_InsufficientStock(t *testing.T) {
	ledger, store := newTestLedger(t, 1, 10)

	_, err := ledger.Reserve(context.Background(), 1, 11)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	// A failed reserve must not touch the record.
	rec := store.record(1)
	assert.Equal(t, 0, rec.ReservedQuantity)
	assert.Equal(t, 1, rec.Version)
}

func TestLedger_Reserve_CountsExistingReservations(t *testing.T) {
	ledger, _ := newTestLedger(t, 1, 10)

	_, err := ledger.Reserve(context.Background(), 1, 8)
	require.NoError(t, err)

	// 2 units remain available even though 10 are on hand.
	_, err = ledger.Reserve(context.Background(), 1, 3)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
}

func TestLedger_ReserveReleaseRoundTrip(t *testing.T) {
	ledger, _ := newTestLedger(t, 1, 10)

	_, err := ledger.Reserve(context.Background(), 1, 3)
	require.NoError(t, err)

	rec, err := ledger.Release(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.ReservedQuantity)
	assert.Equal(t, 10, rec.Quantity)
}

func TestLedger_Release_ClampsAtZero(t *testing.T) {
	ledger, _ := newTestLedger(t, 1, 10)

	_, err := ledger.Reserve(context.Background(), 1, 2)
	require.NoError(t, err)

	// Releasing more than is reserved is a compensating action and must
	// clamp, not fail.
	rec, err := ledger.Release(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.ReservedQuantity)
}

func TestLedger_Deduct(t *testing.T) {
	ledger, _ := newTestLedger(t, 1, 10)

	rec, err := ledger.Deduct(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, rec.Quantity)
	assert.Equal(t, 0, rec.ReservedQuantity)
}

func TestLedger_Deduct_ConsumesReservation(t *testing.T) {
	ledger, _ := newTestLedger(t, 1, 10)

	_, err := ledger.Reserve(context.Background(), 1, 4)
	require.NoError(t, err)

	rec, err := ledger.Deduct(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, rec.Quantity)
	assert.Equal(t, 0, rec.ReservedQuantity)
	assert.Equal(t, 6, rec.Available())
}

func TestLedger_Deduct_InsufficientStock(t *testing.T) {
	ledger, store := newTestLedger(t, 1, 3)

	_, err := ledger.Deduct(context.Background(), 1, 4)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
	assert.Equal(t, 3, store.record(1).Quantity)
}

func TestLedger_Adjust(t *testing.T) {
	ledger, _ := newTestLedger(t, 1, 10)

	rec, err := ledger.Adjust(context.Background(), 1, -4)
	require.NoError(t, err)
	assert.Equal(t, 6, rec.Quantity)

	rec, err = ledger.Adjust(context.Background(), 1, +10)
	require.NoError(t, err)
	assert.Equal(t, 16, rec.Quantity)
}

func TestLedger_Adjust_NeverNegative(t *testing.T) {
	ledger, _ := newTestLedger(t, 1, 5)

	_, err := ledger.Adjust(context.Background(), 1, -6)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
}

func TestLedger_Adjust_CannotUndercutReservations(t *testing.T) {
	ledger, store := newTestLedger(t, 1, 10)

	_, err := ledger.Reserve(context.Background(), 1, 8)
	require.NoError(t, err)

	// Removing 5 would leave 5 on hand against 8 reserved, driving
	// available stock negative.
	_, err = ledger.Adjust(context.Background(), 1, -5)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	rec := store.record(1)
	assert.Equal(t, 10, rec.Quantity)
	assert.Equal(t, 8, rec.ReservedQuantity)
	assert.GreaterOrEqual(t, rec.Available(), 0)

	// Down to exactly the reserved amount is still legal.
	adjusted, err := ledger.Adjust(context.Background(), 1, -2)
	require.NoError(t, err)
	assert.Equal(t, 8, adjusted.Quantity)
	assert.Equal(t, 0, adjusted.Available())
}

func TestLedger_UnknownProduct(t *testing.T) {
	ledger := NewLedger(newMemStockStore())

	_, err := ledger.Deduct(context.Background(), 99, 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLedger_RetriesOnVersionConflict(t *testing.T) {
	ledger, store := newTestLedger(t, 1, 10)

	// Fail the first write with a conflict; the ledger must reread and
	// succeed on the second attempt.
	conflicts := 1
	store.updateHook = func(int) error {
		if conflicts > 0 {
			conflicts--
			return models.ErrVersionConflict
		}
		return nil
	}

	rec, err := ledger.Deduct(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, rec.Quantity)
}

func TestLedger_ConcurrencyExhausted(t *testing.T) {
	ledger, store := newTestLedger(t, 1, 10)

	attempts := 0
	store.updateHook = func(int) error {
		attempts++
		return models.ErrVersionConflict
	}

	_, err := ledger.Deduct(context.Background(), 1, 4)
	assert.ErrorIs(t, err, models.ErrConcurrencyExhausted)
	assert.Equal(t, maxAttempts, attempts)
	assert.Equal(t, 10, store.record(1).Quantity)
}

func TestLedger_InfrastructureErrorNotRetried(t *testing.T) {
	ledger, store := newTestLedger(t, 1, 10)

	attempts := 0
	store.updateHook = func(int) error {
		attempts++
		return context.DeadlineExceeded
	}

	_, err := ledger.Deduct(context.Background(), 1, 4)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, attempts)
}

// Two deducts of 5 against quantity 10: whatever the interleaving, stock
// must end at 10-5*successes and never below zero.
func TestLedger_ConcurrentDeducts(t *testing.T) {
	ledger, store := newTestLedger(t, 1, 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.Deduct(context.Background(), 1, 5)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			require.True(t,
				errorsIsAny(err, models.ErrInsufficientStock, models.ErrConcurrencyExhausted),
				"unexpected error: %v", err)
		}
	}

	rec := store.record(1)
	assert.Equal(t, 10-5*successes, rec.Quantity)
	assert.GreaterOrEqual(t, rec.Quantity, 0)
}

// Hammer one product from many goroutines and check the §8-style invariants:
// quantity, reserved and available never go negative, and every unit
// deducted is accounted for.
func TestLedger_ConcurrentMixedOperations(t *testing.T) {
	const (
		initial = 100
		workers = 20
	)
	ledger, store := newTestLedger(t, 1, initial)

	var wg sync.WaitGroup
	var mu sync.Mutex
	deducted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := context.Background()
			switch i % 4 {
			case 0:
				if _, err := ledger.Reserve(ctx, 1, 3); err == nil {
					ledger.Release(ctx, 1, 3)
				}
			case 1:
				if _, err := ledger.Deduct(ctx, 1, 2); err == nil {
					mu.Lock()
					deducted += 2
					mu.Unlock()
				}
			case 2:
				if _, err := ledger.Adjust(ctx, 1, -1); err == nil {
					mu.Lock()
					deducted++
					mu.Unlock()
				}
			case 3:
				ledger.Reserve(ctx, 1, 1)
			}
		}(i)
	}
	wg.Wait()

	rec := store.record(1)
	assert.GreaterOrEqual(t, rec.Quantity, 0)
	assert.GreaterOrEqual(t, rec.ReservedQuantity, 0)
	assert.GreaterOrEqual(t, rec.Available(), 0)
	assert.Equal(t, initial-deducted, rec.Quantity)
}

func TestLedger_CreateRecord_Duplicate(t *testing.T) {
	ledger, _ := newTestLedger(t, 1, 10)

	_, err := ledger.CreateRecord(context.Background(), 1, 5, 0)
	assert.Error(t, err)
}

func TestLedger_LowStock(t *testing.T) {
	store := newMemStockStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	_, err := ledger.CreateRecord(ctx, 1, 2, 5)
	require.NoError(t, err)
	_, err = ledger.CreateRecord(ctx, 2, 50, 5)
	require.NoError(t, err)

	low, err := ledger.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, 1, low[0].ProductID)
}

func errorsIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
