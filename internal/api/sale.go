package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/breakhq/break-pos/internal/domain/sale"
)

type saleLineRequest struct {
	ItemID   int64 `json:"itemId"`
	Quantity int   `json:"quantity"`
}

type createSaleRequest struct {
	Items      []saleLineRequest `json:"items"`
	CouponCode string            `json:"couponCode,omitempty"`
}

type previewLineRequest struct {
	ItemID    int64           `json:"itemId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type discountRequest struct {
	Items      []previewLineRequest `json:"items"`
	CouponCode string               `json:"couponCode,omitempty"`
}

type discountResponse struct {
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

type saleItemResponse struct {
	ID        int64           `json:"id"`
	ItemID    int64           `json:"itemId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type appliedOfferResponse struct {
	OfferID        int64           `json:"offerId"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

type saleResponse struct {
	ID             int64                  `json:"id"`
	SaleDate       time.Time              `json:"saleDate"`
	Status         string                 `json:"status"`
	SubTotal       decimal.Decimal        `json:"subTotal"`
	DiscountAmount decimal.Decimal        `json:"discountAmount"`
	Total          decimal.Decimal        `json:"total"`
	Items          []saleItemResponse     `json:"items"`
	AppliedOffers  []appliedOfferResponse `json:"appliedOffers"`
}

// CreateSale creates a sale from (itemId, quantity) pairs plus an optional
// coupon code. Stock validation failures map to 409, unknown items to 422.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	lines := make([]sale.Line, len(req.Items))
	for i, line := range req.Items {
		lines[i] = sale.Line{ItemID: line.ItemID, Quantity: line.Quantity}
	}

	s, err := h.sales.CreateSale(r.Context(), sale.CreateSaleRequest{
		Items:      lines,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSaleResponse(s))
}

// CalculateDiscount previews the discount for caller-supplied lines without
// creating a sale or touching stock.
func (h *Handler) CalculateDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	lines := make([]sale.PreviewLine, len(req.Items))
	for i, line := range req.Items {
		lines[i] = sale.PreviewLine{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
	}

	amount, err := h.sales.CalculateDiscount(r.Context(), lines, req.CouponCode)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, discountResponse{DiscountAmount: amount})
}

// GetSale returns one sale aggregate.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid sale id")
		return
	}

	s, err := h.sales.GetSale(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleResponse(s))
}

// ListSales returns all sales.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.sales.ListSales(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]saleResponse, len(sales))
	for i := range sales {
		out[i] = toSaleResponse(&sales[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// ConfirmSale transitions a Draft sale to Confirmed after re-validating
// stock.
func (h *Handler) ConfirmSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid sale id")
		return
	}

	s, err := h.sales.ConfirmSale(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleResponse(s))
}

// CancelSale cancels a sale and restores its stock.
func (h *Handler) CancelSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid sale id")
		return
	}

	s, err := h.sales.CancelSale(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleResponse(s))
}

// DeleteSale removes a sale record (administrative; does not touch stock).
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid sale id")
		return
	}

	deleted, err := h.sales.DeleteSale(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "sale not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toSaleResponse(s *sale.Sale) saleResponse {
	items := make([]saleItemResponse, len(s.Items))
	for i, line := range s.Items {
		items[i] = saleItemResponse{
			ID:        line.ID,
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal,
		}
	}

	applied := make([]appliedOfferResponse, len(s.AppliedOffers))
	for i, ao := range s.AppliedOffers {
		applied[i] = appliedOfferResponse{
			OfferID:        ao.OfferID,
			DiscountAmount: ao.DiscountAmount,
		}
	}

	return saleResponse{
		ID:             s.ID,
		SaleDate:       s.SaleDate,
		Status:         string(s.Status),
		SubTotal:       s.SubTotal,
		DiscountAmount: s.DiscountAmount,
		Total:          s.Total,
		Items:          items,
		AppliedOffers:  applied,
	}
}
