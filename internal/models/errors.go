package models

import "errors"

// Sentinel errors surfaced to callers. The HTTP layer maps each one to a
// distinct status code; the core never maps them itself.
var (
	// ErrInsufficientStock means available stock cannot cover the requested
	// quantity. A business failure, never retried internally.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConcurrencyExhausted means the optimistic write lost the version
	// race on every attempt. Safe for the caller to retry.
	ErrConcurrencyExhausted = errors.New("concurrent update conflict, retries exhausted")

	// ErrEmptyCart means order creation was attempted from a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrIllegalTransition means the requested order status is not reachable
	// from the current one.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrProductUnavailable means the product exists but has been withdrawn
	// from sale.
	ErrProductUnavailable = errors.New("product not available for purchase")

	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned by stores when a conditional write finds
	// a newer version than the one read. It never escapes the retry loop in
	// the inventory ledger; callers only ever see ErrConcurrencyExhausted.
	ErrVersionConflict = errors.New("version conflict")
)
