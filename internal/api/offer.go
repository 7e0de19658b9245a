package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/breakhq/break-pos/internal/domain/offer"
)

type conditionResponse struct {
	Type        string           `json:"type"`
	ItemID      *int64           `json:"itemId,omitempty"`
	MinQuantity *int             `json:"minQuantity,omitempty"`
	MaxQuantity *int             `json:"maxQuantity,omitempty"`
	MinAmount   *decimal.Decimal `json:"minAmount,omitempty"`
	MaxAmount   *decimal.Decimal `json:"maxAmount,omitempty"`
}

type offerResponse struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	DiscountType  string              `json:"discountType"`
	DiscountValue decimal.Decimal     `json:"discountValue"`
	StartDate     time.Time           `json:"startDate"`
	EndDate       time.Time           `json:"endDate"`
	IsActive      bool                `json:"isActive"`
	CouponCode    string              `json:"couponCode,omitempty"`
	Conditions    []conditionResponse `json:"conditions"`
}

// ListActiveOffers returns every currently active offer with its conditions.
func (h *Handler) ListActiveOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.offers.GetActive(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]offerResponse, len(offers))
	for i := range offers {
		out[i] = toOfferResponse(&offers[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// GetOffer returns one offer by ID, active or not.
func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid offer id")
		return
	}

	o, err := h.offers.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfferResponse(o))
}

func toOfferResponse(o *offer.Offer) offerResponse {
	conditions := make([]conditionResponse, len(o.Conditions))
	for i, c := range o.Conditions {
		conditions[i] = conditionResponse{
			Type:        string(c.Type),
			ItemID:      c.ItemID,
			MinQuantity: c.MinQuantity,
			MaxQuantity: c.MaxQuantity,
			MinAmount:   c.MinAmount,
			MaxAmount:   c.MaxAmount,
		}
	}

	return offerResponse{
		ID:            o.ID,
		Name:          o.Name,
		Description:   o.Description,
		DiscountType:  string(o.DiscountType),
		DiscountValue: o.DiscountValue,
		StartDate:     o.StartDate,
		EndDate:       o.EndDate,
		IsActive:      o.IsActive,
		CouponCode:    o.CouponCode,
		Conditions:    conditions,
	}
}
