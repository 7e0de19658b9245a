package sale

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/breakhq/break-pos/internal/domain/item"
	"github.com/breakhq/break-pos/internal/domain/offer"
)

// Line is one (item, quantity) pair of a sale request.
type Line struct {
	ItemID   int64
	Quantity int
}

// PreviewLine is one line of a discount preview. The caller supplies the
// unit price, so previews never touch the item store.
type PreviewLine struct {
	ItemID    int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateSaleRequest holds the input for creating a sale.
type CreateSaleRequest struct {
	Items      []Line
	CouponCode string
}

// Service orchestrates the sale lifecycle: stock validation, line
// construction, discount application, and the Draft → Confirmed/Canceled
// transitions with their compensating inventory updates.
type Service struct {
	items  item.Repository
	offers offer.Repository
	sales  Repository
	now    func() time.Time
}

// NewService creates a sale Service with the required domain dependencies.
func NewService(items item.Repository, offers offer.Repository, sales Repository) *Service {
	return &Service{
		items:  items,
		offers: offers,
		sales:  sales,
		now:    time.Now,
	}
}

// CreateSale validates stock for every requested line, builds the sale with
// price snapshots, applies eligible offers, and persists the sale together
// with the stock decrements as one atomic unit. No stock is mutated when any
// validation fails.
func (s *Service) CreateSale(ctx context.Context, req CreateSaleRequest) (*Sale, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]int64, 0, len(req.Items))
	required := make(map[int64]int, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, &InvalidQuantityError{ItemID: line.ItemID}
		}
		if _, ok := required[line.ItemID]; !ok {
			ids = append(ids, line.ItemID)
		}
		required[line.ItemID] += line.Quantity
	}

	// Batch fetch all items in a single query.
	fetched, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get items")
	}

	itemsByID := make(map[int64]*item.Item, len(fetched))
	for i := range fetched {
		itemsByID[fetched[i].ID] = &fetched[i]
	}

	if len(itemsByID) != len(ids) {
		var missing []int64
		for _, id := range ids {
			if _, ok := itemsByID[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, &ItemsNotFoundError{ItemIDs: missing}
	}

	// Stock must cover the summed quantity per item before anything mutates,
	// so duplicate lines for one item are checked against their aggregate.
	for _, id := range ids {
		it := itemsByID[id]
		if it.QuantityInStock < required[id] {
			return nil, &InsufficientStockError{
				ItemID:    it.ID,
				Name:      it.Name,
				Available: it.QuantityInStock,
				Requested: required[id],
			}
		}
	}

	sl := &Sale{
		SaleDate: s.now().UTC(),
		Status:   StatusDraft,
	}

	cart := make([]offer.CartItem, len(req.Items))
	subtotal := decimal.Zero
	for i, line := range req.Items {
		it := itemsByID[line.ItemID]
		lineTotal := it.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))

		sl.Items = append(sl.Items, SaleItem{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: lineTotal,
		})
		cart[i] = offer.CartItem{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: lineTotal,
		}
		subtotal = subtotal.Add(lineTotal)
	}
	sl.SubTotal = subtotal

	if err := s.applyOffers(ctx, sl, cart, req.CouponCode); err != nil {
		return nil, err
	}
	sl.Total = sl.SubTotal.Sub(sl.DiscountAmount)

	// Sale insert and stock decrements commit in one transaction.
	if err := s.sales.Create(ctx, sl, stockDecrements(req.Items)); err != nil {
		return nil, errors.Wrap(err, "create sale")
	}

	return sl, nil
}

// CalculateDiscount is a side-effect-free preview: it evaluates active
// offers against caller-supplied lines without touching the item store or
// persisting anything. Empty input yields zero.
func (s *Service) CalculateDiscount(ctx context.Context, lines []PreviewLine, couponCode string) (decimal.Decimal, error) {
	if len(lines) == 0 {
		return decimal.Zero, nil
	}

	cart := make([]offer.CartItem, len(lines))
	subtotal := decimal.Zero
	for i, line := range lines {
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		cart[i] = offer.CartItem{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: lineTotal,
		}
		subtotal = subtotal.Add(lineTotal)
	}

	active, err := s.offers.GetActive(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "get active offers")
	}

	ev := offer.Evaluate(active, cart, subtotal, couponCode)
	return clampDiscount(ev.TotalDiscount, subtotal), nil
}

// ConfirmSale transitions a Draft sale to Confirmed. Stock is re-validated
// against current levels because concurrent sales may have consumed it since
// creation; stock was already decremented at creation, so confirmation
// writes no inventory changes.
func (s *Service) ConfirmSale(ctx context.Context, saleID int64) (*Sale, error) {
	sl, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	if sl.Status != StatusDraft {
		return nil, &InvalidStatusError{Op: "confirm", Status: sl.Status}
	}

	ids := make([]int64, 0, len(sl.Items))
	required := make(map[int64]int, len(sl.Items))
	for _, line := range sl.Items {
		if _, ok := required[line.ItemID]; !ok {
			ids = append(ids, line.ItemID)
		}
		required[line.ItemID] += line.Quantity
	}
	current, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get items")
	}
	stockByID := make(map[int64]*item.Item, len(current))
	for i := range current {
		stockByID[current[i].ID] = &current[i]
	}

	for _, id := range ids {
		it, ok := stockByID[id]
		if !ok {
			return nil, &InsufficientStockError{
				ItemID:    id,
				Available: 0,
				Requested: required[id],
			}
		}
		if it.QuantityInStock < required[id] {
			return nil, &InsufficientStockError{
				ItemID:    it.ID,
				Name:      it.Name,
				Available: it.QuantityInStock,
				Requested: required[id],
			}
		}
	}

	sl.Status = StatusConfirmed
	if err := s.sales.UpdateStatus(ctx, sl, nil); err != nil {
		return nil, errors.Wrap(err, "update sale")
	}
	return sl, nil
}

// CancelSale transitions a Draft or Confirmed sale to Canceled and restores
// every line's quantity to inventory. Stock is decremented at creation, so
// the compensating restore applies from both states; canceling an already
// canceled sale is rejected to keep the restore exactly-once.
func (s *Service) CancelSale(ctx context.Context, saleID int64) (*Sale, error) {
	sl, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	if sl.Status == StatusCanceled {
		return nil, &InvalidStatusError{Op: "cancel", Status: sl.Status}
	}

	restore := make([]StockAdjustment, len(sl.Items))
	for i, line := range sl.Items {
		restore[i] = StockAdjustment{ItemID: line.ItemID, Delta: line.Quantity}
	}

	sl.Status = StatusCanceled
	if err := s.sales.UpdateStatus(ctx, sl, restore); err != nil {
		return nil, errors.Wrap(err, "update sale")
	}
	return sl, nil
}

// GetSale returns a sale aggregate with its lines and applied offers loaded.
func (s *Service) GetSale(ctx context.Context, saleID int64) (*Sale, error) {
	return s.sales.GetByID(ctx, saleID)
}

// ListSales returns all sales.
func (s *Service) ListSales(ctx context.Context) ([]Sale, error) {
	return s.sales.List(ctx)
}

// DeleteSale removes a sale record. This is an administrative operation: it
// deletes the aggregate without touching inventory.
func (s *Service) DeleteSale(ctx context.Context, saleID int64) (bool, error) {
	return s.sales.Delete(ctx, saleID)
}

// applyOffers runs the discount engine over the active offer set and
// attaches the resulting applied-offer records to the sale.
func (s *Service) applyOffers(ctx context.Context, sl *Sale, cart []offer.CartItem, couponCode string) error {
	active, err := s.offers.GetActive(ctx)
	if err != nil {
		return errors.Wrap(err, "get active offers")
	}

	ev := offer.Evaluate(active, cart, sl.SubTotal, couponCode)
	for _, d := range ev.Applied {
		sl.AppliedOffers = append(sl.AppliedOffers, AppliedOffer{
			OfferID:        d.OfferID,
			DiscountAmount: d.Amount,
		})
	}
	sl.DiscountAmount = clampDiscount(ev.TotalDiscount, sl.SubTotal)
	return nil
}

// clampDiscount caps the stacked discount at the subtotal so the sale total
// never goes negative.
func clampDiscount(discount, subtotal decimal.Decimal) decimal.Decimal {
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}

// stockDecrements aggregates the requested lines into one negative
// adjustment per distinct item, preserving first-seen order.
func stockDecrements(lines []Line) []StockAdjustment {
	index := make(map[int64]int, len(lines))
	out := make([]StockAdjustment, 0, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ItemID]; ok {
			out[i].Delta -= line.Quantity
			continue
		}
		index[line.ItemID] = len(out)
		out = append(out, StockAdjustment{ItemID: line.ItemID, Delta: -line.Quantity})
	}
	return out
}
