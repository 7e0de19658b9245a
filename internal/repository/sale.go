package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/breakhq/break-pos/internal/domain/sale"
)

const (
	createSaleSQL = `INSERT INTO sales (sale_date, status, sub_total, discount_amount, total)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	createSaleItemSQL = `INSERT INTO sale_items (sale_id, item_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	createAppliedOfferSQL = `INSERT INTO applied_offers (sale_id, offer_id, discount_amount)
		VALUES ($1, $2, $3) RETURNING id`

	getSaleByIDSQL = `SELECT id, sale_date, status, sub_total, discount_amount, total
		FROM sales WHERE id = $1`

	listSalesSQL = `SELECT id, sale_date, status, sub_total, discount_amount, total
		FROM sales ORDER BY id`

	getSaleItemsSQL = `SELECT id, sale_id, item_id, quantity, unit_price, line_total
		FROM sale_items WHERE sale_id = ANY($1) ORDER BY sale_id, id`

	getAppliedOffersSQL = `SELECT id, sale_id, offer_id, discount_amount
		FROM applied_offers WHERE sale_id = ANY($1) ORDER BY sale_id, id`

	updateSaleStatusSQL = `UPDATE sales SET status = $2 WHERE id = $1`

	deleteSaleSQL = `DELETE FROM sales WHERE id = $1`

	// Guarded stock write: a decrement only applies while enough stock
	// remains, so concurrent sales can never drive stock negative. Zero
	// rows affected means the guard fired and the caller must roll back.
	adjustStockSQL = `UPDATE items
		SET quantity_in_stock = quantity_in_stock + $2, last_updated = NOW()
		WHERE id = $1 AND quantity_in_stock + $2 >= 0`
)

var _ sale.Repository = (*SaleRepository)(nil)

// SaleRepository implements sale.Repository backed by PostgreSQL.
type SaleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository returns a SaleRepository that uses the given pool.
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

// Create persists the sale aggregate (lines and applied offers included) and
// applies all stock adjustments in one transaction. Generated IDs are filled
// in on the aggregate. If any adjustment would drive stock negative the
// whole transaction rolls back and a sale.StockConflictError is returned.
func (r *SaleRepository) Create(ctx context.Context, s *sale.Sale, stock []sale.StockAdjustment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	err = tx.QueryRow(ctx, createSaleSQL,
		s.SaleDate, string(s.Status), s.SubTotal, s.DiscountAmount, s.Total,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("creating sale: %w", err)
	}

	for i := range s.Items {
		line := &s.Items[i]
		line.SaleID = s.ID
		err = tx.QueryRow(ctx, createSaleItemSQL,
			s.ID, line.ItemID, line.Quantity, line.UnitPrice, line.LineTotal,
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("creating sale item for item %d: %w", line.ItemID, err)
		}
	}

	for i := range s.AppliedOffers {
		ao := &s.AppliedOffers[i]
		ao.SaleID = s.ID
		err = tx.QueryRow(ctx, createAppliedOfferSQL,
			s.ID, ao.OfferID, ao.DiscountAmount,
		).Scan(&ao.ID)
		if err != nil {
			return fmt.Errorf("creating applied offer %d: %w", ao.OfferID, err)
		}
	}

	if err := applyStock(ctx, tx, stock); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing sale: %w", err)
	}
	return nil
}

// GetByID returns the sale aggregate with lines and applied offers loaded.
// Returns sale.ErrNotFound when no such sale exists.
func (r *SaleRepository) GetByID(ctx context.Context, id int64) (*sale.Sale, error) {
	rows, err := r.pool.Query(ctx, getSaleByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting sale %d: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanSale)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sale.ErrNotFound
		}
		return nil, fmt.Errorf("getting sale %d: %w", id, err)
	}

	sales := []sale.Sale{s}
	if err := r.loadAssociations(ctx, sales); err != nil {
		return nil, err
	}
	return &sales[0], nil
}

// List returns all sales with their lines and applied offers loaded.
func (r *SaleRepository) List(ctx context.Context) ([]sale.Sale, error) {
	rows, err := r.pool.Query(ctx, listSalesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	sales, err := pgx.CollectRows(rows, scanSale)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}

	if err := r.loadAssociations(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// UpdateStatus persists the sale's status and applies the accompanying stock
// adjustments (e.g. cancellation restores) in one transaction.
func (r *SaleRepository) UpdateStatus(ctx context.Context, s *sale.Sale, stock []sale.StockAdjustment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	tag, err := tx.Exec(ctx, updateSaleStatusSQL, s.ID, string(s.Status))
	if err != nil {
		return fmt.Errorf("updating sale %d: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return sale.ErrNotFound
	}

	if err := applyStock(ctx, tx, stock); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing sale update: %w", err)
	}
	return nil
}

// Delete removes a sale; lines and applied offers cascade. It reports
// whether a row was deleted.
func (r *SaleRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteSaleSQL, id)
	if err != nil {
		return false, fmt.Errorf("deleting sale %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// applyStock executes each guarded stock adjustment within tx.
func applyStock(ctx context.Context, tx pgx.Tx, stock []sale.StockAdjustment) error {
	for _, adj := range stock {
		tag, err := tx.Exec(ctx, adjustStockSQL, adj.ItemID, adj.Delta)
		if err != nil {
			return fmt.Errorf("adjusting stock for item %d: %w", adj.ItemID, err)
		}
		if tag.RowsAffected() == 0 {
			return &sale.StockConflictError{ItemID: adj.ItemID}
		}
	}
	return nil
}

func scanSale(row pgx.CollectableRow) (sale.Sale, error) {
	var (
		s      sale.Sale
		status string
	)
	err := row.Scan(&s.ID, &s.SaleDate, &status, &s.SubTotal, &s.DiscountAmount, &s.Total)
	s.Status = sale.Status(status)
	return s, err
}

// loadAssociations fetches lines and applied offers for the given sales in
// two batch queries and attaches them to their aggregates.
func (r *SaleRepository) loadAssociations(ctx context.Context, sales []sale.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	ids := make([]int64, len(sales))
	byID := make(map[int64]*sale.Sale, len(sales))
	for i := range sales {
		ids[i] = sales[i].ID
		byID[sales[i].ID] = &sales[i]
	}

	rows, err := r.pool.Query(ctx, getSaleItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("getting sale items: %w", err)
	}
	lines, err := pgx.CollectRows(rows, scanSaleItem)
	if err != nil {
		return fmt.Errorf("getting sale items: %w", err)
	}
	for _, line := range lines {
		if s, ok := byID[line.SaleID]; ok {
			s.Items = append(s.Items, line)
		}
	}

	rows, err = r.pool.Query(ctx, getAppliedOffersSQL, ids)
	if err != nil {
		return fmt.Errorf("getting applied offers: %w", err)
	}
	applied, err := pgx.CollectRows(rows, scanAppliedOffer)
	if err != nil {
		return fmt.Errorf("getting applied offers: %w", err)
	}
	for _, ao := range applied {
		if s, ok := byID[ao.SaleID]; ok {
			s.AppliedOffers = append(s.AppliedOffers, ao)
		}
	}
	return nil
}

func scanSaleItem(row pgx.CollectableRow) (sale.SaleItem, error) {
	var line sale.SaleItem
	err := row.Scan(&line.ID, &line.SaleID, &line.ItemID, &line.Quantity, &line.UnitPrice, &line.LineTotal)
	return line, err
}

func scanAppliedOffer(row pgx.CollectableRow) (sale.AppliedOffer, error) {
	var ao sale.AppliedOffer
	err := row.Scan(&ao.ID, &ao.SaleID, &ao.OfferID, &ao.DiscountAmount)
	return ao, err
}
