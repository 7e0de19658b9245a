package offer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested offer does not exist.
var ErrNotFound = errors.New("offer not found")

// DiscountType enumerates the supported discount strategies.
type DiscountType string

const (
	// DiscountPercentage discounts the cart subtotal by DiscountValue percent.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixedAmount discounts a flat DiscountValue off the cart.
	DiscountFixedAmount DiscountType = "fixed_amount"
)

// ConditionType enumerates the supported eligibility predicates.
type ConditionType string

const (
	// ConditionTotalAmount bounds the cart subtotal.
	ConditionTotalAmount ConditionType = "total_amount"
	// ConditionItemQuantity bounds the quantity of one specific item.
	ConditionItemQuantity ConditionType = "item_quantity"
)

// Offer is a time-bounded promotional rule, optionally gated by a coupon
// code, with zero or more eligibility conditions. An offer with no
// conditions is always eligible.
type Offer struct {
	ID            int64
	Name          string
	Description   string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	StartDate     time.Time
	EndDate       time.Time
	IsActive      bool
	CouponCode    string
	Conditions    []Condition
}

// Condition is a single eligibility predicate belonging to an offer.
// Which bound fields apply depends on Type: TotalAmount uses
// MinAmount/MaxAmount, ItemQuantity uses ItemID plus MinQuantity/MaxQuantity.
// Nil bounds are unconstrained.
type Condition struct {
	ID          int64
	OfferID     int64
	Type        ConditionType
	ItemID      *int64
	MinQuantity *int
	MaxQuantity *int
	MinAmount   *decimal.Decimal
	MaxAmount   *decimal.Decimal
}

// Repository defines read operations for promotional offers.
//
// GetActive applies the activity filter (IsActive and now within
// [StartDate, EndDate]) and returns offers with conditions loaded, in
// insertion order. That order determines the order discounts stack in.
type Repository interface {
	GetActive(ctx context.Context) ([]Offer, error)
	GetByID(ctx context.Context, id int64) (*Offer, error)
}
