//go:build integration

package integration

import (
	"net/http"
	"strconv"
	"testing"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestListItems_Seeded(t *testing.T) {
	resp := doGetWithAuth(t, "/api/items")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	page := decodeJSON[itemPageResponse](t, resp)
	if page.Total < seedItems {
		t.Fatalf("total: got %d, want at least %d", page.Total, seedItems)
	}

	codes := make(map[string]bool, len(page.Items))
	for _, it := range page.Items {
		codes[it.ProductCode] = true
	}
	for _, want := range []string{"ESP-001", "MUG-010", "TEA-023", "CHO-104"} {
		if !codes[want] {
			t.Errorf("seeded item %s not listed", want)
		}
	}
}

func TestListItems_Pagination(t *testing.T) {
	resp := doGetWithAuth(t, "/api/items?limit=2&offset=0")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	page := decodeJSON[itemPageResponse](t, resp)
	if len(page.Items) != 2 {
		t.Errorf("items: got %d, want 2", len(page.Items))
	}
	if page.Limit != 2 || page.Offset != 0 {
		t.Errorf("page meta: got limit=%d offset=%d", page.Limit, page.Offset)
	}
	if page.Total < seedItems {
		t.Errorf("total: got %d, want at least %d", page.Total, seedItems)
	}
}

func TestGetItemByBarcode(t *testing.T) {
	// Scanner path: the seeded espresso barcode resolves to the same item as
	// its product code.
	byBarcode := itemByCode(t, "4006381333931")
	byCode := itemByCode(t, "ESP-001")

	if byBarcode.ID != byCode.ID {
		t.Errorf("barcode and product code resolve to different items: %d vs %d", byBarcode.ID, byCode.ID)
	}
	if byBarcode.Name != "Espresso Beans 1kg" {
		t.Errorf("name: got %q", byBarcode.Name)
	}
}

func TestGetItemByCode_NotFound(t *testing.T) {
	resp := doGetWithAuth(t, "/api/items/code/NOPE-000")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateItem_DuplicateCode(t *testing.T) {
	body := map[string]any{
		"productCode":     "ESP-001",
		"name":            "Duplicate Espresso",
		"unitPrice":       "1.00",
		"quantityInStock": 1,
	}
	resp := doPostWithAuth(t, "/api/items", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestItemLifecycle(t *testing.T) {
	create := map[string]any{
		"productCode":     "TST-900",
		"barcode":         "4006381339990",
		"name":            "Lifecycle Test Item",
		"unitPrice":       "2.00",
		"quantityInStock": 9,
	}
	resp := doPostWithAuth(t, "/api/items", create)
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decodeJSON[itemResponse](t, resp)
	resp.Body.Close()

	update := map[string]any{
		"productCode":     "TST-900",
		"barcode":         "4006381339990",
		"name":            "Lifecycle Test Item v2",
		"unitPrice":       "2.50",
		"quantityInStock": 12,
	}
	resp = doRequest(t, http.MethodPut, "/api/items/"+itoa(created.ID), update, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	updated := decodeJSON[itemResponse](t, resp)
	resp.Body.Close()
	if updated.Name != "Lifecycle Test Item v2" {
		t.Errorf("name after update: got %q", updated.Name)
	}

	resp = doRequest(t, http.MethodDelete, "/api/items/"+itoa(created.ID), nil, testAPIKey)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}

	resp = doGetWithAuth(t, "/api/items/"+itoa(created.ID))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", resp.StatusCode)
	}
}
