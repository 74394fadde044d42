package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopcore/shopcore/internal/models"
)

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(database *PostgresDB) *CartRepository {
	return &CartRepository{db: database.Conn}
}

// GetSnapshot reads a cart and its lines as the immutable input to order
// creation.
func (r *CartRepository) GetSnapshot(ctx context.Context, cartID string) (*models.CartSnapshot, error) {
	cartQuery := "SELECT id, customer_id, discount FROM carts WHERE id = $1"

	var snapshot models.CartSnapshot
	err := r.db.QueryRowContext(ctx, cartQuery, cartID).Scan(&snapshot.CartID, &snapshot.CustomerID, &snapshot.Discount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("cart %s: %w", cartID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	linesQuery := "SELECT product_id, quantity FROM cart_lines WHERE cart_id = $1 ORDER BY id"
	rows, err := r.db.QueryContext(ctx, linesQuery, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line models.CartLine
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		snapshot.Lines = append(snapshot.Lines, line)
	}

	return &snapshot, rows.Err()
}

// Clear removes all lines from a cart. The cart row itself stays so the
// customer keeps an empty cart.
func (r *CartRepository) Clear(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cart_lines WHERE cart_id = $1", cartID)
	if err != nil {
		return fmt.Errorf("failed to clear cart %s: %w", cartID, err)
	}
	return nil
}
