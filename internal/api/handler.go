// Package api exposes the POS core over hand-written net/http JSON handlers.
// Transport mapping lives here: domain errors are translated into
// bad-request, conflict, or not-found responses.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/breakhq/break-pos/internal/domain/item"
	"github.com/breakhq/break-pos/internal/domain/offer"
	"github.com/breakhq/break-pos/internal/domain/sale"
)

// SaleService is the slice of the sale orchestrator the handlers consume.
type SaleService interface {
	CreateSale(ctx context.Context, req sale.CreateSaleRequest) (*sale.Sale, error)
	CalculateDiscount(ctx context.Context, lines []sale.PreviewLine, couponCode string) (decimal.Decimal, error)
	ConfirmSale(ctx context.Context, saleID int64) (*sale.Sale, error)
	CancelSale(ctx context.Context, saleID int64) (*sale.Sale, error)
	GetSale(ctx context.Context, saleID int64) (*sale.Sale, error)
	ListSales(ctx context.Context) ([]sale.Sale, error)
	DeleteSale(ctx context.Context, saleID int64) (bool, error)
}

// Handler serves the JSON API, delegating business logic to the sale service
// and the injected repositories.
type Handler struct {
	sales  SaleService
	items  item.Repository
	offers offer.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(sales SaleService, items item.Repository, offers offer.Repository) *Handler {
	return &Handler{
		sales:  sales,
		items:  items,
		offers: offers,
	}
}

// Register attaches all API routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sales", h.CreateSale)
	mux.HandleFunc("GET /api/sales", h.ListSales)
	mux.HandleFunc("GET /api/sales/{id}", h.GetSale)
	mux.HandleFunc("DELETE /api/sales/{id}", h.DeleteSale)
	mux.HandleFunc("POST /api/sales/{id}/confirm", h.ConfirmSale)
	mux.HandleFunc("POST /api/sales/{id}/cancel", h.CancelSale)
	mux.HandleFunc("POST /api/sales/discount", h.CalculateDiscount)

	mux.HandleFunc("POST /api/items", h.CreateItem)
	mux.HandleFunc("GET /api/items", h.ListItems)
	mux.HandleFunc("GET /api/items/{id}", h.GetItem)
	mux.HandleFunc("PUT /api/items/{id}", h.UpdateItem)
	mux.HandleFunc("DELETE /api/items/{id}", h.DeleteItem)
	mux.HandleFunc("GET /api/items/code/{code}", h.GetItemByCode)

	mux.HandleFunc("GET /api/offers", h.ListActiveOffers)
	mux.HandleFunc("GET /api/offers/{id}", h.GetOffer)
}

// pathID parses the {id} path segment as an int64.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
