package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breakhq/break-pos/internal/domain/item"
	"github.com/breakhq/break-pos/internal/domain/offer"
	"github.com/breakhq/break-pos/internal/domain/sale"
)

// --- Mock implementations ---

type mockSaleService struct {
	sale        *sale.Sale
	sales       []sale.Sale
	discount    decimal.Decimal
	deleted     bool
	err         error
	lastRequest *sale.CreateSaleRequest
}

func (m *mockSaleService) CreateSale(_ context.Context, req sale.CreateSaleRequest) (*sale.Sale, error) {
	m.lastRequest = &req
	return m.sale, m.err
}

func (m *mockSaleService) CalculateDiscount(_ context.Context, _ []sale.PreviewLine, _ string) (decimal.Decimal, error) {
	return m.discount, m.err
}

func (m *mockSaleService) ConfirmSale(_ context.Context, _ int64) (*sale.Sale, error) {
	return m.sale, m.err
}

func (m *mockSaleService) CancelSale(_ context.Context, _ int64) (*sale.Sale, error) {
	return m.sale, m.err
}

func (m *mockSaleService) GetSale(_ context.Context, _ int64) (*sale.Sale, error) {
	return m.sale, m.err
}

func (m *mockSaleService) ListSales(_ context.Context) ([]sale.Sale, error) {
	return m.sales, m.err
}

func (m *mockSaleService) DeleteSale(_ context.Context, _ int64) (bool, error) {
	return m.deleted, m.err
}

type mockItemRepo struct {
	byID    map[int64]*item.Item
	byCode  map[string]*item.Item
	page    *item.Page
	created *item.Item
	deleted bool
	err     error
}

func (m *mockItemRepo) Create(_ context.Context, it *item.Item) error {
	if m.err != nil {
		return m.err
	}
	it.ID = 1
	it.DateAdded = time.Now().UTC()
	it.LastUpdated = it.DateAdded
	m.created = it
	return nil
}

func (m *mockItemRepo) GetByID(_ context.Context, id int64) (*item.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	it, ok := m.byID[id]
	if !ok {
		return nil, item.ErrNotFound
	}
	return it, nil
}

func (m *mockItemRepo) GetByCode(_ context.Context, code string) (*item.Item, error) {
	it, ok := m.byCode[code]
	if !ok {
		return nil, item.ErrNotFound
	}
	return it, nil
}

func (m *mockItemRepo) GetByIDs(_ context.Context, _ []int64) ([]item.Item, error) {
	return nil, nil
}

func (m *mockItemRepo) List(_ context.Context, _ item.ListParams) (*item.Page, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.page == nil {
		return &item.Page{}, nil
	}
	return m.page, nil
}

func (m *mockItemRepo) Update(_ context.Context, _ *item.Item) error { return m.err }

func (m *mockItemRepo) Delete(_ context.Context, _ int64) (bool, error) {
	return m.deleted, m.err
}

type mockOfferRepo struct {
	offers []offer.Offer
	err    error
}

func (m *mockOfferRepo) GetActive(_ context.Context) ([]offer.Offer, error) {
	return m.offers, m.err
}

func (m *mockOfferRepo) GetByID(_ context.Context, id int64) (*offer.Offer, error) {
	for i := range m.offers {
		if m.offers[i].ID == id {
			return &m.offers[i], nil
		}
	}
	return nil, offer.ErrNotFound
}

// --- Helpers ---

func newTestMux(sales SaleService, items item.Repository, offers offer.Repository) *http.ServeMux {
	if sales == nil {
		sales = &mockSaleService{}
	}
	if items == nil {
		items = &mockItemRepo{}
	}
	if offers == nil {
		offers = &mockOfferRepo{}
	}
	mux := http.NewServeMux()
	NewHandler(sales, items, offers).Register(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into))
}

func testSale() *sale.Sale {
	return &sale.Sale{
		ID:             42,
		SaleDate:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Status:         sale.StatusDraft,
		SubTotal:       decimal.RequireFromString("50.00"),
		DiscountAmount: decimal.RequireFromString("5.00"),
		Total:          decimal.RequireFromString("45.00"),
		Items: []sale.SaleItem{
			{ID: 1, SaleID: 42, ItemID: 7, Quantity: 2, UnitPrice: decimal.RequireFromString("25.00"), LineTotal: decimal.RequireFromString("50.00")},
		},
		AppliedOffers: []sale.AppliedOffer{
			{ID: 1, SaleID: 42, OfferID: 3, DiscountAmount: decimal.RequireFromString("5.00")},
		},
	}
}

// --- Sale endpoints ---

func TestCreateSale(t *testing.T) {
	svc := &mockSaleService{sale: testSale()}
	mux := newTestMux(svc, nil, nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/sales",
		`{"items":[{"itemId":7,"quantity":2}],"couponCode":"SAVE10"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.lastRequest)
	assert.Equal(t, "SAVE10", svc.lastRequest.CouponCode)
	require.Len(t, svc.lastRequest.Items, 1)
	assert.Equal(t, sale.Line{ItemID: 7, Quantity: 2}, svc.lastRequest.Items[0])

	var resp saleResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, int64(42), resp.ID)
	assert.Equal(t, "draft", resp.Status)
	assert.True(t, decimal.RequireFromString("45.00").Equal(resp.Total))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(7), resp.Items[0].ItemID)
	require.Len(t, resp.AppliedOffers, 1)
	assert.Equal(t, int64(3), resp.AppliedOffers[0].OfferID)
}

func TestCreateSale_MalformedBody(t *testing.T) {
	mux := newTestMux(nil, nil, nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/sales", `{"items":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSale_UnknownField(t *testing.T) {
	mux := newTestMux(nil, nil, nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/sales", `{"items":[],"cupon":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSale_DomainErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"empty items", sale.ErrEmptyItems, http.StatusBadRequest},
		{"invalid quantity", &sale.InvalidQuantityError{ItemID: 7}, http.StatusBadRequest},
		{"items not found", &sale.ItemsNotFoundError{ItemIDs: []int64{9}}, http.StatusUnprocessableEntity},
		{"insufficient stock", &sale.InsufficientStockError{ItemID: 7, Available: 1, Requested: 2}, http.StatusConflict},
		{"stock conflict", &sale.StockConflictError{ItemID: 7}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(&mockSaleService{err: tt.err}, nil, nil)

			rec := doJSON(t, mux, http.MethodPost, "/api/sales", `{"items":[{"itemId":7,"quantity":2}]}`)
			assert.Equal(t, tt.wantCode, rec.Code)

			var resp errorResponse
			decodeJSON(t, rec, &resp)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestCalculateDiscount(t *testing.T) {
	svc := &mockSaleService{discount: decimal.RequireFromString("6.00")}
	mux := newTestMux(svc, nil, nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/sales/discount",
		`{"items":[{"itemId":1,"quantity":2,"unitPrice":"15.00"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp discountResponse
	decodeJSON(t, rec, &resp)
	assert.True(t, decimal.RequireFromString("6.00").Equal(resp.DiscountAmount))
}

func TestGetSale(t *testing.T) {
	mux := newTestMux(&mockSaleService{sale: testSale()}, nil, nil)

	rec := doJSON(t, mux, http.MethodGet, "/api/sales/42", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp saleResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, int64(42), resp.ID)
}

func TestGetSale_InvalidID(t *testing.T) {
	mux := newTestMux(nil, nil, nil)

	rec := doJSON(t, mux, http.MethodGet, "/api/sales/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSale_NotFound(t *testing.T) {
	mux := newTestMux(&mockSaleService{err: sale.ErrNotFound}, nil, nil)

	rec := doJSON(t, mux, http.MethodGet, "/api/sales/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirmSale_InvalidStatus(t *testing.T) {
	svc := &mockSaleService{err: &sale.InvalidStatusError{Op: "confirm", Status: sale.StatusCanceled}}
	mux := newTestMux(svc, nil, nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/sales/42/confirm", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelSale(t *testing.T) {
	canceled := testSale()
	canceled.Status = sale.StatusCanceled
	mux := newTestMux(&mockSaleService{sale: canceled}, nil, nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/sales/42/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp saleResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "canceled", resp.Status)
}

func TestDeleteSale(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		mux := newTestMux(&mockSaleService{deleted: true}, nil, nil)

		rec := doJSON(t, mux, http.MethodDelete, "/api/sales/42", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		mux := newTestMux(&mockSaleService{deleted: false}, nil, nil)

		rec := doJSON(t, mux, http.MethodDelete, "/api/sales/42", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// --- Item endpoints ---

func TestCreateItem(t *testing.T) {
	repo := &mockItemRepo{}
	mux := newTestMux(nil, repo, nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/items",
		`{"productCode":"SKU-1","name":"Widget","unitPrice":"9.99","quantityInStock":10}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, repo.created)
	assert.Equal(t, "SKU-1", repo.created.ProductCode)

	var resp itemResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "Widget", resp.Name)
}

func TestCreateItem_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing product code", `{"name":"Widget","unitPrice":"9.99"}`},
		{"missing name", `{"productCode":"SKU-1","unitPrice":"9.99"}`},
		{"negative price", `{"productCode":"SKU-1","name":"Widget","unitPrice":"-1"}`},
		{"negative stock", `{"productCode":"SKU-1","name":"Widget","unitPrice":"1","quantityInStock":-5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(nil, &mockItemRepo{}, nil)

			rec := doJSON(t, mux, http.MethodPost, "/api/items", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateItem_DuplicateCode(t *testing.T) {
	mux := newTestMux(nil, &mockItemRepo{err: item.ErrDuplicateCode}, nil)

	rec := doJSON(t, mux, http.MethodPost, "/api/items",
		`{"productCode":"SKU-1","name":"Widget","unitPrice":"9.99"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetItemByCode(t *testing.T) {
	it := &item.Item{ID: 5, ProductCode: "SKU-5", Barcode: "4006381333931", Name: "Widget", UnitPrice: decimal.RequireFromString("2.50")}
	mux := newTestMux(nil, &mockItemRepo{byCode: map[string]*item.Item{"4006381333931": it}}, nil)

	rec := doJSON(t, mux, http.MethodGet, "/api/items/code/4006381333931", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp itemResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, int64(5), resp.ID)
	assert.Equal(t, "SKU-5", resp.ProductCode)
}

func TestListItems(t *testing.T) {
	page := &item.Page{
		Items: []item.Item{
			{ID: 1, ProductCode: "SKU-1", Name: "Widget", UnitPrice: decimal.RequireFromString("9.99")},
			{ID: 2, ProductCode: "SKU-2", Name: "Gadget", UnitPrice: decimal.RequireFromString("19.99")},
		},
		Total: 7,
	}
	mux := newTestMux(nil, &mockItemRepo{page: page}, nil)

	rec := doJSON(t, mux, http.MethodGet, "/api/items?limit=2&offset=4", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp itemPageResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, 7, resp.Total)
	assert.Equal(t, 2, resp.Limit)
	assert.Equal(t, 4, resp.Offset)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Widget", resp.Items[0].Name)
}

func TestListItems_BadPagination(t *testing.T) {
	mux := newTestMux(nil, &mockItemRepo{}, nil)

	for _, target := range []string{
		"/api/items?limit=0",
		"/api/items?limit=9999",
		"/api/items?limit=x",
		"/api/items?offset=-1",
	} {
		rec := doJSON(t, mux, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

// --- Offer endpoints ---

func TestListActiveOffers(t *testing.T) {
	now := time.Now()
	offers := []offer.Offer{
		{
			ID: 1, Name: "Summer", DiscountType: offer.DiscountPercentage,
			DiscountValue: decimal.RequireFromString("10"),
			StartDate:     now.Add(-time.Hour), EndDate: now.Add(time.Hour), IsActive: true,
		},
	}
	mux := newTestMux(nil, nil, &mockOfferRepo{offers: offers})

	rec := doJSON(t, mux, http.MethodGet, "/api/offers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"Summer"`))
}

func TestGetOffer_NotFound(t *testing.T) {
	mux := newTestMux(nil, nil, &mockOfferRepo{})

	rec := doJSON(t, mux, http.MethodGet, "/api/offers/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
