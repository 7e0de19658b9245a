package sale

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a sale.
type Status string

const (
	// StatusDraft is the initial state of every sale.
	StatusDraft Status = "draft"
	// StatusConfirmed marks a sale that passed confirmation.
	StatusConfirmed Status = "confirmed"
	// StatusCanceled is terminal; canceled sales have their stock restored.
	StatusCanceled Status = "canceled"
)

// Sentinel errors for sale operations.
var (
	ErrNotFound   = errors.New("sale not found")
	ErrEmptyItems = errors.New("sale must contain at least one item")
)

// InvalidQuantityError indicates a line with a non-positive quantity.
type InvalidQuantityError struct {
	ItemID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for item %d", e.ItemID)
}

// ItemsNotFoundError indicates requested item IDs that do not exist.
type ItemsNotFoundError struct {
	ItemIDs []int64
}

func (e *ItemsNotFoundError) Error() string {
	return fmt.Sprintf("items not found: %v", e.ItemIDs)
}

// InsufficientStockError indicates a requested quantity exceeding an item's
// current stock.
type InsufficientStockError struct {
	ItemID    int64
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for item %q: available %d, requested %d",
		e.Name, e.Available, e.Requested)
}

// InvalidStatusError indicates a lifecycle transition that is not allowed
// from the sale's current status.
type InvalidStatusError struct {
	Op     string
	Status Status
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("cannot %s sale with status %s", e.Op, e.Status)
}

// StockConflictError is returned by the repository when a guarded stock
// decrement affects no rows, meaning a concurrent sale consumed the stock
// between the service's check and the transactional write.
type StockConflictError struct {
	ItemID int64
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("stock changed concurrently for item %d", e.ItemID)
}

// Sale is the aggregate root for one transaction at the register.
// Invariant: Total = SubTotal - DiscountAmount, with DiscountAmount
// clamped to SubTotal so Total never goes negative.
type Sale struct {
	ID             int64
	SaleDate       time.Time
	Status         Status
	SubTotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	Items          []SaleItem
	AppliedOffers  []AppliedOffer
}

// SaleItem is one line of a sale. UnitPrice snapshots the item's price at
// sale time; the line is immutable after construction.
type SaleItem struct {
	ID        int64
	SaleID    int64
	ItemID    int64
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// AppliedOffer records one offer's share of the sale's total discount.
type AppliedOffer struct {
	ID             int64
	SaleID         int64
	OfferID        int64
	DiscountAmount decimal.Decimal
}

// StockAdjustment is a signed change to an item's on-hand quantity that must
// commit atomically with the sale write it accompanies.
type StockAdjustment struct {
	ItemID int64
	Delta  int
}

// Repository defines persistence for sale aggregates.
//
// Create and UpdateStatus take the stock adjustments that belong to the same
// logical operation; implementations must apply the sale write and every
// adjustment in a single transaction, and must reject (with a
// StockConflictError, rolling back) any decrement that would drive an item's
// stock negative.
type Repository interface {
	Create(ctx context.Context, s *Sale, stock []StockAdjustment) error
	GetByID(ctx context.Context, id int64) (*Sale, error)
	List(ctx context.Context) ([]Sale, error)
	UpdateStatus(ctx context.Context, s *Sale, stock []StockAdjustment) error
	Delete(ctx context.Context, id int64) (bool, error)
}
