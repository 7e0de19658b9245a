package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/breakhq/break-pos/internal/domain/item"
)

const (
	itemColumns = `id, product_code, barcode, name, description, category, unit_price,
		quantity_in_stock, reorder_quantity, min_stock_level, max_stock_level, date_added, last_updated`

	createItemSQL = `INSERT INTO items (product_code, barcode, name, description, category, unit_price,
			quantity_in_stock, reorder_quantity, min_stock_level, max_stock_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, date_added, last_updated`

	getItemByIDSQL = `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	getItemByCodeSQL = `SELECT ` + itemColumns + ` FROM items WHERE product_code = $1 OR barcode = $1`

	getItemsByIDsSQL = `SELECT ` + itemColumns + ` FROM items WHERE id = ANY($1) ORDER BY id`

	listItemsSQL = `SELECT ` + itemColumns + ` FROM items ORDER BY id LIMIT $1 OFFSET $2`

	countItemsSQL = `SELECT COUNT(*) FROM items`

	updateItemSQL = `UPDATE items SET product_code = $2, barcode = $3, name = $4, description = $5,
			category = $6, unit_price = $7, quantity_in_stock = $8, reorder_quantity = $9,
			min_stock_level = $10, max_stock_level = $11, last_updated = NOW()
		WHERE id = $1
		RETURNING last_updated`

	deleteItemSQL = `DELETE FROM items WHERE id = $1`
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

var _ item.Repository = (*ItemRepository)(nil)

// ItemRepository implements item.Repository backed by PostgreSQL.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository returns an ItemRepository that uses the given pool.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// Create inserts a new item and fills in its generated ID and timestamps.
// A product code or barcode collision returns item.ErrDuplicateCode.
func (r *ItemRepository) Create(ctx context.Context, it *item.Item) error {
	err := r.pool.QueryRow(ctx, createItemSQL,
		it.ProductCode, it.Barcode, it.Name, it.Description, it.Category, it.UnitPrice,
		it.QuantityInStock, it.ReorderQuantity, it.MinStockLevel, it.MaxStockLevel,
	).Scan(&it.ID, &it.DateAdded, &it.LastUpdated)
	if err != nil {
		if isUniqueViolation(err) {
			return item.ErrDuplicateCode
		}
		return fmt.Errorf("creating item %q: %w", it.ProductCode, err)
	}
	return nil
}

// GetByID returns a single item by its identifier.
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*item.Item, error) {
	rows, err := r.pool.Query(ctx, getItemByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting item %d: %w", id, err)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, item.ErrNotFound
		}
		return nil, fmt.Errorf("getting item %d: %w", id, err)
	}
	return &it, nil
}

// GetByCode returns the item whose product code or barcode matches code.
func (r *ItemRepository) GetByCode(ctx context.Context, code string) (*item.Item, error) {
	rows, err := r.pool.Query(ctx, getItemByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("getting item by code %q: %w", code, err)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, item.ErrNotFound
		}
		return nil, fmt.Errorf("getting item by code %q: %w", code, err)
	}
	return &it, nil
}

// GetByIDs returns items matching any of the given IDs. Missing IDs are
// simply absent from the result; callers detect them by comparing sets.
func (r *ItemRepository) GetByIDs(ctx context.Context, ids []int64) ([]item.Item, error) {
	rows, err := r.pool.Query(ctx, getItemsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting items by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// List returns one page of items plus the total item count.
func (r *ItemRepository) List(ctx context.Context, params item.ListParams) (*item.Page, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, listItemsSQL, limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countItemsSQL).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}

	return &item.Page{Items: items, Total: total}, nil
}

// Update persists all mutable fields of the item and refreshes LastUpdated.
// Returns item.ErrNotFound when the item no longer exists.
func (r *ItemRepository) Update(ctx context.Context, it *item.Item) error {
	err := r.pool.QueryRow(ctx, updateItemSQL,
		it.ID, it.ProductCode, it.Barcode, it.Name, it.Description, it.Category,
		it.UnitPrice, it.QuantityInStock, it.ReorderQuantity, it.MinStockLevel, it.MaxStockLevel,
	).Scan(&it.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return item.ErrNotFound
		}
		if isUniqueViolation(err) {
			return item.ErrDuplicateCode
		}
		return fmt.Errorf("updating item %d: %w", it.ID, err)
	}
	return nil
}

// Delete removes an item. It reports whether a row was deleted.
func (r *ItemRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteItemSQL, id)
	if err != nil {
		return false, fmt.Errorf("deleting item %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanItem(row pgx.CollectableRow) (item.Item, error) {
	var it item.Item
	err := row.Scan(
		&it.ID, &it.ProductCode, &it.Barcode, &it.Name, &it.Description, &it.Category,
		&it.UnitPrice, &it.QuantityInStock, &it.ReorderQuantity,
		&it.MinStockLevel, &it.MaxStockLevel, &it.DateAdded, &it.LastUpdated,
	)
	return it, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
