package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/breakhq/break-pos/internal/domain/offer"
)

const (
	offerColumns = `id, name, description, discount_type, discount_value,
		start_date, end_date, active, coupon_code`

	getActiveOffersSQL = `SELECT ` + offerColumns + ` FROM offers
		WHERE active AND start_date <= NOW() AND end_date >= NOW()
		ORDER BY id`

	getOfferByIDSQL = `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`

	getConditionsSQL = `SELECT id, offer_id, condition_type, item_id,
			min_quantity, max_quantity, min_amount, max_amount
		FROM offer_conditions WHERE offer_id = ANY($1) ORDER BY offer_id, id`
)

var _ offer.Repository = (*OfferRepository)(nil)

// OfferRepository implements offer.Repository backed by PostgreSQL.
type OfferRepository struct {
	pool *pgxpool.Pool
}

// NewOfferRepository returns an OfferRepository that uses the given pool.
func NewOfferRepository(pool *pgxpool.Pool) *OfferRepository {
	return &OfferRepository{pool: pool}
}

// GetActive returns all offers whose active flag is set and whose time
// window contains the current time, with conditions loaded, ordered by ID.
func (r *OfferRepository) GetActive(ctx context.Context) ([]offer.Offer, error) {
	rows, err := r.pool.Query(ctx, getActiveOffersSQL)
	if err != nil {
		return nil, fmt.Errorf("getting active offers: %w", err)
	}
	offers, err := pgx.CollectRows(rows, scanOffer)
	if err != nil {
		return nil, fmt.Errorf("getting active offers: %w", err)
	}

	if err := r.loadConditions(ctx, offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// GetByID returns a single offer with its conditions loaded.
func (r *OfferRepository) GetByID(ctx context.Context, id int64) (*offer.Offer, error) {
	rows, err := r.pool.Query(ctx, getOfferByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting offer %d: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOffer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, offer.ErrNotFound
		}
		return nil, fmt.Errorf("getting offer %d: %w", id, err)
	}

	offers := []offer.Offer{o}
	if err := r.loadConditions(ctx, offers); err != nil {
		return nil, err
	}
	return &offers[0], nil
}

// loadConditions fetches the conditions for all given offers in one query
// and attaches them to their owners.
func (r *OfferRepository) loadConditions(ctx context.Context, offers []offer.Offer) error {
	if len(offers) == 0 {
		return nil
	}

	ids := make([]int64, len(offers))
	byID := make(map[int64]*offer.Offer, len(offers))
	for i := range offers {
		ids[i] = offers[i].ID
		byID[offers[i].ID] = &offers[i]
	}

	rows, err := r.pool.Query(ctx, getConditionsSQL, ids)
	if err != nil {
		return fmt.Errorf("getting offer conditions: %w", err)
	}
	conditions, err := pgx.CollectRows(rows, scanCondition)
	if err != nil {
		return fmt.Errorf("getting offer conditions: %w", err)
	}

	for _, c := range conditions {
		if o, ok := byID[c.OfferID]; ok {
			o.Conditions = append(o.Conditions, c)
		}
	}
	return nil
}

func scanOffer(row pgx.CollectableRow) (offer.Offer, error) {
	var (
		o            offer.Offer
		discountType string
	)
	err := row.Scan(
		&o.ID, &o.Name, &o.Description, &discountType, &o.DiscountValue,
		&o.StartDate, &o.EndDate, &o.IsActive, &o.CouponCode,
	)
	o.DiscountType = offer.DiscountType(discountType)
	return o, err
}

func scanCondition(row pgx.CollectableRow) (offer.Condition, error) {
	var (
		c             offer.Condition
		conditionType string
	)
	err := row.Scan(
		&c.ID, &c.OfferID, &conditionType, &c.ItemID,
		&c.MinQuantity, &c.MaxQuantity, &c.MinAmount, &c.MaxAmount,
	)
	c.Type = offer.ConditionType(conditionType)
	return c, err
}
