package offer

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CartItem is one line of the cart snapshot the engine evaluates against.
type CartItem struct {
	ItemID    int64
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// AppliedDiscount records one offer's contribution to the total discount.
type AppliedDiscount struct {
	OfferID int64
	Amount  decimal.Decimal
}

// Evaluation is the result of evaluating a set of offers against a cart.
// Applied holds one entry per eligible offer that produced a positive
// discount, in the order the offers were supplied.
type Evaluation struct {
	Applied       []AppliedDiscount
	TotalDiscount decimal.Decimal
}

// Evaluate computes which of the given offers apply to the cart and the
// resulting discount breakdown. It is a pure function: same offers, cart,
// subtotal and coupon code always yield the same evaluation.
//
// When couponCode is non-empty, only offers carrying exactly that code
// survive the filter; offers without a coupon code are excluded. When no
// code is supplied, coupon-gated offers are excluded and only general
// offers run. Eligible discounts stack additively with no precedence
// between offers.
func Evaluate(offers []Offer, cart []CartItem, subtotal decimal.Decimal, couponCode string) Evaluation {
	ev := Evaluation{TotalDiscount: decimal.Zero}

	for _, o := range offers {
		// Exact match on the coupon gate: a supplied code selects only
		// offers carrying it, and a coupon-gated offer never applies to
		// a sale without its code.
		if o.CouponCode != couponCode {
			continue
		}
		if !eligible(o, cart, subtotal) {
			continue
		}

		amount := discount(o, subtotal)
		if !amount.IsPositive() {
			continue
		}

		ev.Applied = append(ev.Applied, AppliedDiscount{
			OfferID: o.ID,
			Amount:  amount,
		})
		ev.TotalDiscount = ev.TotalDiscount.Add(amount)
	}

	return ev
}

// eligible reports whether every condition of the offer holds for the cart.
// An offer without conditions is always eligible.
func eligible(o Offer, cart []CartItem, subtotal decimal.Decimal) bool {
	for _, c := range o.Conditions {
		if !satisfied(c, cart, subtotal) {
			return false
		}
	}
	return true
}

// satisfied evaluates a single condition. Unknown condition types are never
// satisfied, so an offer with a malformed condition simply does not apply.
func satisfied(c Condition, cart []CartItem, subtotal decimal.Decimal) bool {
	switch c.Type {
	case ConditionTotalAmount:
		if c.MinAmount != nil && subtotal.LessThan(*c.MinAmount) {
			return false
		}
		if c.MaxAmount != nil && subtotal.GreaterThan(*c.MaxAmount) {
			return false
		}
		return true

	case ConditionItemQuantity:
		if c.ItemID == nil {
			return false
		}
		for _, line := range cart {
			if line.ItemID != *c.ItemID {
				continue
			}
			if c.MinQuantity != nil && line.Quantity < *c.MinQuantity {
				continue
			}
			if c.MaxQuantity != nil && line.Quantity > *c.MaxQuantity {
				continue
			}
			return true
		}
		return false

	default:
		return false
	}
}

// discount computes the offer's discount against the subtotal. Unknown
// discount types yield zero.
func discount(o Offer, subtotal decimal.Decimal) decimal.Decimal {
	switch o.DiscountType {
	case DiscountPercentage:
		return subtotal.Mul(o.DiscountValue).Div(hundred).Round(2)
	case DiscountFixedAmount:
		return o.DiscountValue
	default:
		return decimal.Zero
	}
}
