package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/breakhq/break-pos/internal/domain/item"
)

type itemRequest struct {
	ProductCode     string          `json:"productCode"`
	Barcode         string          `json:"barcode"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	QuantityInStock int             `json:"quantityInStock"`
	ReorderQuantity int             `json:"reorderQuantity"`
	MinStockLevel   int             `json:"minStockLevel"`
	MaxStockLevel   int             `json:"maxStockLevel"`
}

type itemResponse struct {
	ID              int64           `json:"id"`
	ProductCode     string          `json:"productCode"`
	Barcode         string          `json:"barcode"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	QuantityInStock int             `json:"quantityInStock"`
	ReorderQuantity int             `json:"reorderQuantity"`
	MinStockLevel   int             `json:"minStockLevel"`
	MaxStockLevel   int             `json:"maxStockLevel"`
	DateAdded       time.Time       `json:"dateAdded"`
	LastUpdated     time.Time       `json:"lastUpdated"`
}

type itemPageResponse struct {
	Items  []itemResponse `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (req *itemRequest) validate() string {
	switch {
	case req.ProductCode == "":
		return "productCode is required"
	case req.Name == "":
		return "name is required"
	case req.UnitPrice.IsNegative():
		return "unitPrice must not be negative"
	case req.QuantityInStock < 0:
		return "quantityInStock must not be negative"
	default:
		return ""
	}
}

// CreateItem adds a new item to the catalog.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	it := req.toDomain()
	if err := h.items.Create(r.Context(), it); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(it))
}

// GetItem returns one item by ID.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	it, err := h.items.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(it))
}

// GetItemByCode returns the item matching a product code or barcode, the
// lookup used by barcode scanners at the register.
func (h *Handler) GetItemByCode(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	it, err := h.items.GetByCode(r.Context(), code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(it))
}

// ListItems returns a page of items. Pagination uses limit/offset query
// parameters; limit defaults to 50.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	params := item.ListParams{Limit: 50}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		params.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset must not be negative")
			return
		}
		params.Offset = n
	}

	page, err := h.items.List(r.Context(), params)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	items := make([]itemResponse, len(page.Items))
	for i := range page.Items {
		items[i] = toItemResponse(&page.Items[i])
	}
	writeJSON(w, http.StatusOK, itemPageResponse{
		Items:  items,
		Total:  page.Total,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

// UpdateItem replaces all mutable fields of an item.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	it := req.toDomain()
	it.ID = id
	if err := h.items.Update(r.Context(), it); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(it))
}

// DeleteItem removes an item from the catalog.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	deleted, err := h.items.Delete(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (req *itemRequest) toDomain() *item.Item {
	return &item.Item{
		ProductCode:     req.ProductCode,
		Barcode:         req.Barcode,
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		UnitPrice:       req.UnitPrice,
		QuantityInStock: req.QuantityInStock,
		ReorderQuantity: req.ReorderQuantity,
		MinStockLevel:   req.MinStockLevel,
		MaxStockLevel:   req.MaxStockLevel,
	}
}

func toItemResponse(it *item.Item) itemResponse {
	return itemResponse{
		ID:              it.ID,
		ProductCode:     it.ProductCode,
		Barcode:         it.Barcode,
		Name:            it.Name,
		Description:     it.Description,
		Category:        it.Category,
		UnitPrice:       it.UnitPrice,
		QuantityInStock: it.QuantityInStock,
		ReorderQuantity: it.ReorderQuantity,
		MinStockLevel:   it.MinStockLevel,
		MaxStockLevel:   it.MaxStockLevel,
		DateAdded:       it.DateAdded,
		LastUpdated:     it.LastUpdated,
	}
}
