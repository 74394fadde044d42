package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopcore/shopcore/internal/models"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(database *PostgresDB) *OrderRepository {
	return &OrderRepository{db: database.Conn}
}

// Create inserts the order, its line items and its initial status-history
// entry in one transaction. The aggregate is either fully durable or absent.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (id, customer_id, total_amount, status, shipping_address, shipping_city,
			shipping_zip, shipping_fee, payment_method, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = tx.ExecContext(ctx, orderQuery,
		order.ID, order.CustomerID, order.TotalAmount, order.Status,
		order.Shipping.Address, order.Shipping.City, order.Shipping.Zip, order.Shipping.Fee,
		order.PaymentMethod, order.Version, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, itemQuery,
			order.ID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity, item.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	historyQuery := `
		INSERT INTO order_status_history (order_id, status, actor_id, note, changed_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, entry := range order.StatusHistory {
		_, err = tx.ExecContext(ctx, historyQuery,
			order.ID, entry.Status, entry.ActorID, entry.Note, entry.ChangedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert status history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID returns the full aggregate: order row, line items and status
// history in change order.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	orderQuery := `
		SELECT id, customer_id, total_amount, status, shipping_address, shipping_city,
			shipping_zip, shipping_fee, payment_method, version, created_at
		FROM orders WHERE id = $1
	`

	var order models.Order
	err := r.db.QueryRowContext(ctx, orderQuery, id).Scan(
		&order.ID, &order.CustomerID, &order.TotalAmount, &order.Status,
		&order.Shipping.Address, &order.Shipping.City, &order.Shipping.Zip, &order.Shipping.Fee,
		&order.PaymentMethod, &order.Version, &order.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("order %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	itemsQuery := `
		SELECT product_id, product_name, unit_price, quantity, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(&item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity, &item.Subtotal)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order items: %w", err)
	}

	historyQuery := `
		SELECT status, actor_id, note, changed_at
		FROM order_status_history WHERE order_id = $1 ORDER BY id
	`
	hrows, err := r.db.QueryContext(ctx, historyQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer hrows.Close()

	for hrows.Next() {
		var entry models.StatusChange
		err := hrows.Scan(&entry.Status, &entry.ActorID, &entry.Note, &entry.ChangedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		order.StatusHistory = append(order.StatusHistory, entry)
	}

	return &order, hrows.Err()
}

// UpdateStatus writes the new status and appends the newest history entry,
// conditional on the version the caller read. Zero rows affected means a
// concurrent writer got there first.
func (r *OrderRepository) UpdateStatus(ctx context.Context, order *models.Order, expectedVersion int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statusQuery := `UPDATE orders SET status = $1, version = $2 WHERE id = $3 AND version = $4`
	result, err := tx.ExecContext(ctx, statusQuery, order.Status, order.Version, order.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("order %s: %w", order.ID, models.ErrVersionConflict)
	}

	entry := order.StatusHistory[len(order.StatusHistory)-1]
	historyQuery := `
		INSERT INTO order_status_history (order_id, status, actor_id, note, changed_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.ExecContext(ctx, historyQuery, order.ID, entry.Status, entry.ActorID, entry.Note, entry.ChangedAt)
	if err != nil {
		return fmt.Errorf("failed to insert status history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// List returns order headers, newest first, without items or history.
func (r *OrderRepository) List(ctx context.Context) ([]models.Order, error) {
	query := `
		SELECT id, customer_id, total_amount, status, version, created_at
		FROM orders ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		err := rows.Scan(&o.ID, &o.CustomerID, &o.TotalAmount, &o.Status, &o.Version, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}
