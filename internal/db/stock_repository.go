package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopcore/shopcore/internal/models"
)

// StockRepository stores one row per product. The version column is the
// optimistic-concurrency token: Update only touches the row when the stored
// version matches the one the caller read.
type StockRepository struct {
	db *sql.DB
}

func NewStockRepository(database *PostgresDB) *StockRepository {
	return &StockRepository{db: database.Conn}
}

func (r *StockRepository) Get(ctx context.Context, productID int) (*models.StockRecord, error) {
	query := `
		SELECT product_id, quantity, reserved_quantity, low_stock_threshold, version, updated_at
		FROM stock_records WHERE product_id = $1
	`

	var rec models.StockRecord
	err := r.db.QueryRowContext(ctx, query, productID).Scan(
		&rec.ProductID, &rec.Quantity, &rec.ReservedQuantity,
		&rec.LowStockThreshold, &rec.Version, &rec.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("stock record for product %d: %w", productID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get stock record: %w", err)
	}

	return &rec, nil
}

func (r *StockRepository) Create(ctx context.Context, rec *models.StockRecord) error {
	query := `
		INSERT INTO stock_records (product_id, quantity, reserved_quantity, low_stock_threshold, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		rec.ProductID, rec.Quantity, rec.ReservedQuantity, rec.LowStockThreshold, rec.Version,
	).Scan(&rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create stock record: %w", err)
	}

	return nil
}

// Update is the conditional write behind the ledger's retry loop. Zero rows
// affected means another writer bumped the version first.
func (r *StockRepository) Update(ctx context.Context, rec *models.StockRecord, expectedVersion int) error {
	query := `
		UPDATE stock_records
		SET quantity = $1, reserved_quantity = $2, low_stock_threshold = $3, version = $4, updated_at = NOW()
		WHERE product_id = $5 AND version = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		rec.Quantity, rec.ReservedQuantity, rec.LowStockThreshold, rec.Version,
		rec.ProductID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update stock record: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("stock record for product %d: %w", rec.ProductID, models.ErrVersionConflict)
	}

	return nil
}

func (r *StockRepository) ListLowStock(ctx context.Context) ([]models.StockRecord, error) {
	query := `
		SELECT product_id, quantity, reserved_quantity, low_stock_threshold, version, updated_at
		FROM stock_records WHERE quantity <= low_stock_threshold ORDER BY product_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock records: %w", err)
	}
	defer rows.Close()

	var records []models.StockRecord
	for rows.Next() {
		var rec models.StockRecord
		err := rows.Scan(&rec.ProductID, &rec.Quantity, &rec.ReservedQuantity,
			&rec.LowStockThreshold, &rec.Version, &rec.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
