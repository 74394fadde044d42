package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopcore/shopcore/internal/models"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(database *PostgresDB) *ProductRepository {
	return &ProductRepository{db: database.Conn}
}

// GetAll returns all products
func (r *ProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	query := "SELECT id, name, price, withdrawn, created_at FROM products ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Withdrawn, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// GetByID returns a single product
func (r *ProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	query := "SELECT id, name, price, withdrawn, created_at FROM products WHERE id = $1"

	var p models.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.Withdrawn, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &p, nil
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	query := `
		INSERT INTO products (name, price, withdrawn)
		VALUES ($1, $2, FALSE)
		RETURNING id, name, price, withdrawn, created_at
	`

	var p models.Product
	err := r.db.QueryRowContext(ctx, query, req.Name, req.Price).
		Scan(&p.ID, &p.Name, &p.Price, &p.Withdrawn, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return &p, nil
}

// SetWithdrawn flags a product as withdrawn from sale (or restores it).
// Withdrawn products keep their rows so historical orders stay intact.
func (r *ProductRepository) SetWithdrawn(ctx context.Context, id int, withdrawn bool) error {
	query := "UPDATE products SET withdrawn = $1 WHERE id = $2"

	result, err := r.db.ExecContext(ctx, query, withdrawn, id)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}

	return nil
}
