package item

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested item does not exist.
	ErrNotFound = errors.New("item not found")
	// ErrDuplicateCode is returned when an item's product code or barcode
	// collides with an existing item.
	ErrDuplicateCode = errors.New("product code or barcode already exists")
)

// Item represents a stocked product available for sale.
type Item struct {
	ID              int64
	ProductCode     string
	Barcode         string
	Name            string
	Description     string
	Category        string
	UnitPrice       decimal.Decimal
	QuantityInStock int
	ReorderQuantity int
	MinStockLevel   int
	MaxStockLevel   int
	DateAdded       time.Time
	LastUpdated     time.Time
}

// ListParams controls pagination for item listings.
type ListParams struct {
	Limit  int
	Offset int
}

// Page is one page of items plus the total count across all pages.
type Page struct {
	Items []Item
	Total int
}

// Repository defines persistence operations for the item catalog.
//
// GetByIDs has exact-set semantics on the caller side: it returns only the
// items that exist, and callers compare the result against the requested IDs.
type Repository interface {
	Create(ctx context.Context, it *Item) error
	GetByID(ctx context.Context, id int64) (*Item, error)
	GetByCode(ctx context.Context, code string) (*Item, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Item, error)
	List(ctx context.Context, params ListParams) (*Page, error)
	Update(ctx context.Context, it *Item) error
	Delete(ctx context.Context, id int64) (bool, error)
}
