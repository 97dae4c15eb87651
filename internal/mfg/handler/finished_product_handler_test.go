package handler

import (
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/entity"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/events"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/testutil"
	"github.com/shopspring/decimal"
)

func finishedProductBody(status string, qty int, unitPrice string) map[string]interface{} {
	return map[string]interface{}{
		"product_type": "widget",
		"quantity":     qty,
		"status":       status,
		"unit_price":   unitPrice,
	}
}

func TestFinishedProductCreate(t *testing.T) {
	env := setupTest(t)

	w := testutil.DoRequest(env.Router, "POST", "/api/finished-product", finishedProductBody("AVAILABLE", 4, "2.5"))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	fp := testutil.Data(t, w)
	assertDecimal(t, fp["total_cost"], "10")
	if fp["production_id"] != nil {
		t.Errorf("Expected no production_id, got %v", fp["production_id"])
	}

	body := finishedProductBody("AVAILABLE", 4, "2.5")
	body["total_cost"] = "7.75"
	fp = testutil.Data(t, testutil.DoRequest(env.Router, "POST", "/api/finished-product", body))
	assertDecimal(t, fp["total_cost"], "7.75")

	// direct creation leaves stock alone
	if n := testutil.Count(t, env.DB, &entity.InventoryData{}); n != 0 {
		t.Errorf("Expected no inventory rows, got %d", n)
	}

	items := testutil.DataList(t, testutil.DoRequest(env.Router, "GET", "/api/finished-product", nil))
	if len(items) != 2 {
		t.Errorf("Expected 2 finished products, got %d", len(items))
	}
}

func TestFinishedProductCreateValidation(t *testing.T) {
	env := setupTest(t)

	missingPrice := finishedProductBody("AVAILABLE", 1, "1")
	delete(missingPrice, "unit_price")
	badProduction := finishedProductBody("AVAILABLE", 1, "1")
	badProduction["production_id"] = "no-such-production"

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"bad status", finishedProductBody("GONE", 1, "1"), "status"},
		{"zero quantity", finishedProductBody("AVAILABLE", 0, "1"), "quantity"},
		{"negative price", finishedProductBody("AVAILABLE", 1, "-3"), "unit_price"},
		{"missing price", missingPrice, "unit_price"},
		{"unknown production", badProduction, "production_id"},
		{"product type too long", withField(finishedProductBody("AVAILABLE", 1, "1"), "product_type", strings.Repeat("w", 200)), "product_type"},
		{"price overflow", finishedProductBody("AVAILABLE", 1, "10000000000"), "unit_price"},
		{"total cost overflow", withField(finishedProductBody("AVAILABLE", 1, "1"), "total_cost", "1000000000000"), "total_cost"},
		{"total overflow", finishedProductBody("AVAILABLE", 200, "9999999999"), "quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.DoRequest(env.Router, "POST", "/api/finished-product", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if _, ok := fieldErrors(testutil.ParseResponse(w))[tt.field]; !ok {
				t.Errorf("Expected error on %q, got %s", tt.field, w.Body.String())
			}
		})
	}
	if n := testutil.Count(t, env.DB, &entity.FinishedProduct{}); n != 0 {
		t.Errorf("Expected nothing stored, got %d", n)
	}
}

func TestFinishedProductSellChain(t *testing.T) {
	env := setupTest(t)
	testutil.SeedInventory(t, env.DB, "widget", 10)
	fp := testutil.SeedFinishedProduct(t, env.DB, "widget", 4, "2.5")

	body := finishedProductBody("SOLD", 4, "2.5")
	w := testutil.DoRequest(env.Router, "PUT", "/api/finished-product/"+fp.ID, body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := testutil.Data(t, w); got["status"] != "SOLD" {
		t.Errorf("Expected SOLD, got %v", got["status"])
	}

	inv, _ := env.Repos.Inventory.FindByType(t.Context(), "widget")
	if inv.Quantity != 6 {
		t.Errorf("Expected inventory 6, got %d", inv.Quantity)
	}
	reports, err := env.Repos.SalesReport.ListByFinishedProductID(t.Context(), fp.ID)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("Expected 1 sales report, got %d", len(reports))
	}
	if reports[0].QuantitySold != 4 || !reports[0].TotalRevenue.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Unexpected sales report %+v", reports[0])
	}

	// repeating SOLD is a no-op
	w = testutil.DoRequest(env.Router, "PUT", "/api/finished-product/"+fp.ID, body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	inv, _ = env.Repos.Inventory.FindByType(t.Context(), "widget")
	if inv.Quantity != 6 {
		t.Errorf("Expected inventory still 6, got %d", inv.Quantity)
	}
	if n := testutil.Count(t, env.DB, &entity.SalesReport{}); n != 1 {
		t.Errorf("Expected 1 sales report, got %d", n)
	}
	if n := len(env.Published.OfType(events.TypeFinishedProductSold)); n != 1 {
		t.Errorf("Expected 1 finished_product.sold event, got %d", n)
	}

	w = testutil.DoRequest(env.Router, "PUT", "/api/finished-product/"+fp.ID, finishedProductBody("AVAILABLE", 4, "2.5"))
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 on SOLD to AVAILABLE, got %d", w.Code)
	}
}

func TestFinishedProductSellInsufficientStock(t *testing.T) {
	env := setupTest(t)
	testutil.SeedInventory(t, env.DB, "widget", 3)
	fp := testutil.SeedFinishedProduct(t, env.DB, "widget", 4, "2.5")

	w := testutil.DoRequest(env.Router, "PUT", "/api/finished-product/"+fp.ID, finishedProductBody("SOLD", 4, "2.5"))
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}

	inv, _ := env.Repos.Inventory.FindByType(t.Context(), "widget")
	if inv.Quantity != 3 {
		t.Errorf("Expected inventory unchanged at 3, got %d", inv.Quantity)
	}
	stored, _ := env.Repos.FinishedProduct.FindByID(t.Context(), fp.ID)
	if stored.Status != entity.FinishedProductStatusAvailable {
		t.Errorf("Expected status unchanged, got %s", stored.Status)
	}
	if n := testutil.Count(t, env.DB, &entity.SalesReport{}); n != 0 {
		t.Errorf("Expected no sales reports, got %d", n)
	}
	if n := testutil.Count(t, env.DB, &entity.InventoryTransaction{}); n != 0 {
		t.Errorf("Expected no movements, got %d", n)
	}

	// no stock row at all
	w = testutil.DoRequest(env.Router, "POST", "/api/finished-product", map[string]interface{}{
		"product_type": "gadget", "quantity": 1, "status": "SOLD", "unit_price": "1",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for missing stock, got %d", w.Code)
	}
	if n := testutil.Count(t, env.DB, &entity.FinishedProduct{}); n != 1 {
		t.Errorf("Expected rolled back create, got %d finished products", n)
	}
}

func TestFinishedProductCreateSold(t *testing.T) {
	env := setupTest(t)
	testutil.SeedInventory(t, env.DB, "widget", 5)

	w := testutil.DoRequest(env.Router, "POST", "/api/finished-product", finishedProductBody("SOLD", 5, "4"))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	fp := testutil.Data(t, w)
	if fp["status"] != "SOLD" {
		t.Errorf("Expected SOLD, got %v", fp["status"])
	}
	inv, _ := env.Repos.Inventory.FindByType(t.Context(), "widget")
	if inv.Quantity != 0 {
		t.Errorf("Expected inventory 0, got %d", inv.Quantity)
	}
	reports, _ := env.Repos.SalesReport.ListByFinishedProductID(t.Context(), fp["id"].(string))
	if len(reports) != 1 || !reports[0].TotalRevenue.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Expected one report with revenue 20, got %+v", reports)
	}
}

func TestFinishedProductFromCompletedProduction(t *testing.T) {
	env := setupTest(t)
	testutil.SeedTestUser(t, env.DB, "Alice", "alice@example.com")
	p := createProduction(t, env, "alice@example.com", "COMPLETED", 3, "7")

	fps, _ := env.Repos.FinishedProduct.ListByProductionID(t.Context(), p["id"].(string))
	if len(fps) != 1 {
		t.Fatalf("Expected 1 finished product, got %d", len(fps))
	}
	got := testutil.Data(t, testutil.DoRequest(env.Router, "GET", "/api/finished-product/"+fps[0].ID, nil))
	if got["production_id"] != p["id"] {
		t.Errorf("Expected production_id %v, got %v", p["id"], got["production_id"])
	}
	if _, ok := got["production"].(map[string]interface{}); !ok {
		t.Errorf("Expected production to be embedded, got %v", got["production"])
	}

	w := testutil.DoRequest(env.Router, "PUT", "/api/finished-product/"+fps[0].ID, finishedProductBody("SOLD", 3, "7"))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	inv, _ := env.Repos.Inventory.FindByType(t.Context(), "widget")
	if inv.Quantity != 0 {
		t.Errorf("Expected stock to return to 0, got %d", inv.Quantity)
	}
}

func TestFinishedProductDeleteOrphansReports(t *testing.T) {
	env := setupTest(t)
	testutil.SeedInventory(t, env.DB, "widget", 2)
	w := testutil.DoRequest(env.Router, "POST", "/api/finished-product", finishedProductBody("SOLD", 2, "1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	id := testutil.Data(t, w)["id"].(string)

	w = testutil.DoRequest(env.Router, "DELETE", "/api/finished-product/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := testutil.DoRequest(env.Router, "GET", "/api/finished-product/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
	if w := testutil.DoRequest(env.Router, "DELETE", "/api/finished-product/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", w.Code)
	}

	var reports []entity.SalesReport
	env.DB.Find(&reports)
	if len(reports) != 1 {
		t.Fatalf("Expected sales report to survive, got %d", len(reports))
	}
	if reports[0].FinishedProductID != nil {
		t.Errorf("Expected finished_product_id cleared, got %v", *reports[0].FinishedProductID)
	}
}

// TestFinishedProductRepeatedSellSerialized sends the same SOLD update concurrently. The
// SQLite test pool has a single connection, so requests run one after another and this
// checks the transition guard only. Row locking needs the Postgres variant in
// finished_product_pg_test.go.
func TestFinishedProductRepeatedSellSerialized(t *testing.T) {
	env := setupTest(t)
	testutil.SeedInventory(t, env.DB, "widget", 10)
	fp := testutil.SeedFinishedProduct(t, env.DB, "widget", 4, "1")

	const n = 5
	codes := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := testutil.DoRequest(env.Router, "PUT", "/api/finished-product/"+fp.ID, finishedProductBody("SOLD", 4, "1"))
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)
	for code := range codes {
		if code != http.StatusOK {
			t.Errorf("Expected 200, got %d", code)
		}
	}

	inv, _ := env.Repos.Inventory.FindByType(t.Context(), "widget")
	if inv.Quantity != 6 {
		t.Errorf("Expected a single decrement to 6, got %d", inv.Quantity)
	}
	if n := testutil.Count(t, env.DB, &entity.SalesReport{}); n != 1 {
		t.Errorf("Expected 1 sales report, got %d", n)
	}
}

func TestFinishedProductSoldFieldsFixed(t *testing.T) {
	env := setupTest(t)
	testutil.SeedInventory(t, env.DB, "widget", 10)
	fp := testutil.SeedFinishedProduct(t, env.DB, "widget", 4, "2.5")

	w := testutil.DoRequest(env.Router, "PUT", "/api/finished-product/"+fp.ID, finishedProductBody("SOLD", 4, "2.5"))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"quantity", finishedProductBody("SOLD", 40, "2.5")},
		{"unit price", finishedProductBody("SOLD", 4, "9")},
		{"product type", withField(finishedProductBody("SOLD", 4, "2.5"), "product_type", "gadget")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.DoRequest(env.Router, "PUT", "/api/finished-product/"+fp.ID, tt.body)
			if w.Code != http.StatusConflict {
				t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
			}
		})
	}

	got, err := env.Repos.FinishedProduct.FindByID(t.Context(), fp.ID)
	if err != nil {
		t.Fatalf("find finished product: %v", err)
	}
	if got.Quantity != 4 || got.ProductType != "widget" || !got.UnitPrice.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Expected finished product unchanged, got %+v", got)
	}
	reports, _ := env.Repos.SalesReport.ListByFinishedProductID(t.Context(), fp.ID)
	if len(reports) != 1 || reports[0].QuantitySold != 4 {
		t.Errorf("Expected one report of 4, got %+v", reports)
	}
	inv, _ := env.Repos.Inventory.FindByType(t.Context(), "widget")
	if inv.Quantity != 6 {
		t.Errorf("Expected inventory 6, got %d", inv.Quantity)
	}
}
