package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/joao-fontenele/shopflow/internal/domain"
	"github.com/joao-fontenele/shopflow/internal/storage"
)

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO categories (name)
		VALUES ($1)
		RETURNING id, created_at
	`, category.Name).Scan(&category.ID, &category.CreatedAt)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return domain.ErrDuplicateCategory
		}
		return err
	}
	return nil
}

// DeleteCategory refuses to remove a category while products or sales
// aggregates still point at it.
func (r *CatalogRepository) DeleteCategory(ctx context.Context, id int64) error {
	return storage.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists, inUse bool
		err := tx.QueryRowContext(ctx, `
			SELECT
				EXISTS (SELECT 1 FROM categories WHERE id = $1),
				EXISTS (SELECT 1 FROM products WHERE category_id = $1)
					OR EXISTS (SELECT 1 FROM sales_aggregates WHERE category_id = $1)
		`, id).Scan(&exists, &inUse)
		if err != nil {
			return err
		}

		if !exists {
			return domain.ErrCategoryNotFound
		}
		if inUse {
			return domain.ErrCategoryInUse
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
			if storage.IsForeignKeyViolation(err) {
				return domain.ErrCategoryInUse
			}
			return err
		}
		return nil
	})
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, description, price, stock, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, product.Name, product.Description, product.Price, product.Stock, product.CategoryID).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if storage.IsForeignKeyViolation(err) {
			return domain.ErrCategoryNotFound
		}
		return err
	}
	return nil
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, stock, category_id, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(&product.ID, &product.Name, &product.Description, &product.Price,
		&product.Stock, &product.CategoryID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return product, nil
}

// ListProducts returns every product, or only those of categoryID when it is
// non-zero.
func (r *CatalogRepository) ListProducts(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, stock, category_id, created_at, updated_at
		FROM products
		WHERE $1::bigint = 0 OR category_id = $1
		ORDER BY id
	`, categoryID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price,
			&p.Stock, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// ProductsByIDs loads the given products in one round trip. Unknown ids are
// simply absent from the result.
func (r *CatalogRepository) ProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	products := make(map[int64]domain.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, stock, category_id, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price,
			&p.Stock, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// Restock adds quantity units to a product's stock and returns the updated
// product, or nil when the product does not exist.
func (r *CatalogRepository) Restock(ctx context.Context, id int64, quantity int) (*domain.Product, error) {
	product := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, price, stock, category_id, created_at, updated_at
	`, id, quantity).Scan(&product.ID, &product.Name, &product.Description, &product.Price,
		&product.Stock, &product.CategoryID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if storage.IsOutOfRange(err) {
			return nil, domain.NewValidationError("quantity", "stock would exceed the maximum")
		}
		return nil, err
	}

	return product, nil
}
