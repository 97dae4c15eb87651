package handler

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/entity"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/service"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func salesReportBody(productType string, qty int, revenue string) map[string]interface{} {
	return map[string]interface{}{
		"product_type":  productType,
		"sales_date":    "2024-05-01T10:00:00Z",
		"quantity_sold": qty,
		"total_revenue": revenue,
	}
}

func TestSalesReportCRUD(t *testing.T) {
	env := setupTest(t)

	w := testutil.DoRequest(env.Router, "POST", "/api/sales-report", salesReportBody("widget", 3, "45.00"))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	sr := testutil.Data(t, w)
	id := sr["id"].(string)
	assertDecimal(t, sr["total_revenue"], "45")

	got := testutil.Data(t, testutil.DoRequest(env.Router, "GET", "/api/sales-report/"+id, nil))
	if got["quantity_sold"] != float64(3) || got["product_type"] != "widget" {
		t.Errorf("Unexpected report %v", got)
	}
	if sd, _ := got["sales_date"].(string); !strings.HasPrefix(sd, "2024-05-01T10:00:00") {
		t.Errorf("Expected sales_date 2024-05-01T10:00:00, got %v", got["sales_date"])
	}

	w = testutil.DoRequest(env.Router, "DELETE", "/api/sales-report/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := testutil.DoRequest(env.Router, "GET", "/api/sales-report/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
	if w := testutil.DoRequest(env.Router, "DELETE", "/api/sales-report/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", w.Code)
	}
}

func TestSalesReportValidation(t *testing.T) {
	env := setupTest(t)

	linked := salesReportBody("widget", 1, "1")
	linked["finished_product_id"] = "missing"

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"zero quantity", salesReportBody("widget", 0, "1"), "quantity_sold"},
		{"negative revenue", salesReportBody("widget", 1, "-1"), "total_revenue"},
		{"missing type", salesReportBody("", 1, "1"), "product_type"},
		{"type too long", salesReportBody(strings.Repeat("w", 200), 1, "1"), "product_type"},
		{"revenue overflow", salesReportBody("widget", 1, "1000000000000"), "total_revenue"},
		{"unknown finished product", linked, "finished_product_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.DoRequest(env.Router, "POST", "/api/sales-report", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if _, ok := fieldErrors(testutil.ParseResponse(w))[tt.field]; !ok {
				t.Errorf("Expected error on %q, got %s", tt.field, w.Body.String())
			}
		})
	}
	if n := testutil.Count(t, env.DB, &entity.SalesReport{}); n != 0 {
		t.Errorf("Expected nothing stored, got %d", n)
	}
}

func TestSalesReportByProductType(t *testing.T) {
	env := setupTest(t)
	testutil.SeedSalesReport(t, env.DB, "widget", 1, "10")
	testutil.SeedSalesReport(t, env.DB, "widget", 2, "20")
	testutil.SeedSalesReport(t, env.DB, "gadget", 1, "5")

	items := testutil.DataList(t, testutil.DoRequest(env.Router, "GET", "/api/sales-report/product-type/widget", nil))
	if len(items) != 2 {
		t.Errorf("Expected 2 widget reports, got %d", len(items))
	}
	items = testutil.DataList(t, testutil.DoRequest(env.Router, "GET", "/api/sales-report", nil))
	if len(items) != 3 {
		t.Errorf("Expected 3 reports, got %d", len(items))
	}
}

func TestSalesReportCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	cache := service.NewReportCache(rdb, time.Minute, zap.NewNop())

	env := setupTest(t, testutil.Options{Cache: cache})
	testutil.SeedSalesReport(t, env.DB, "widget", 1, "10")

	items := testutil.DataList(t, testutil.DoRequest(env.Router, "GET", "/api/sales-report/product-type/widget", nil))
	if len(items) != 1 {
		t.Fatalf("Expected 1 report, got %d", len(items))
	}
	if !mr.Exists("mfg:sales:type:widget") {
		t.Fatal("Expected listing to be cached")
	}

	// a row written behind the service's back is hidden by the cache
	testutil.SeedSalesReport(t, env.DB, "widget", 1, "10")
	items = testutil.DataList(t, testutil.DoRequest(env.Router, "GET", "/api/sales-report/product-type/widget", nil))
	if len(items) != 1 {
		t.Errorf("Expected cached result of 1, got %d", len(items))
	}

	// writes through the API invalidate it
	w := testutil.DoRequest(env.Router, "POST", "/api/sales-report", salesReportBody("widget", 1, "10"))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if mr.Exists("mfg:sales:type:widget") {
		t.Error("Expected cache key to be invalidated")
	}
	items = testutil.DataList(t, testutil.DoRequest(env.Router, "GET", "/api/sales-report/product-type/widget", nil))
	if len(items) != 3 {
		t.Errorf("Expected 3 reports after invalidation, got %d", len(items))
	}

	// so does the sale chain
	testutil.SeedInventory(t, env.DB, "widget", 1)
	fp := testutil.SeedFinishedProduct(t, env.DB, "widget", 1, "10")
	w = testutil.DoRequest(env.Router, "PUT", "/api/finished-product/"+fp.ID, finishedProductBody("SOLD", 1, "10"))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if mr.Exists("mfg:sales:type:widget") {
		t.Error("Expected sale to invalidate cache key")
	}
}

func TestSalesReportExport(t *testing.T) {
	env := setupTest(t)
	testutil.SeedSalesReport(t, env.DB, "widget", 2, "20.50")
	testutil.SeedSalesReport(t, env.DB, "widget", 3, "30")
	testutil.SeedSalesReport(t, env.DB, "gadget", 1, "5")

	w := testutil.DoRequest(env.Router, "GET", "/api/sales-report/export?product_type=widget", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "sales_reports_widget.xlsx") {
		t.Errorf("Unexpected content disposition %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Sales")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	// header + 2 reports + totals
	if len(rows) != 4 {
		t.Fatalf("Expected 4 rows, got %d: %v", len(rows), rows)
	}
	if rows[0][1] != "Product Type" {
		t.Errorf("Unexpected header %v", rows[0])
	}
	total := rows[3]
	if total[0] != "Total" || total[3] != "5" || total[4] != "50.5" {
		t.Errorf("Unexpected totals row %v", total)
	}

	svcFile, name, err := env.Services.SalesReport.Export(context.Background(), "")
	if err != nil {
		t.Fatalf("export all: %v", err)
	}
	defer svcFile.Close()
	if name != "sales_reports.xlsx" {
		t.Errorf("Unexpected filename %q", name)
	}
	all, _ := svcFile.GetRows("Sales")
	if len(all) != 5 {
		t.Errorf("Expected 5 rows for full export, got %d", len(all))
	}
}

func TestSalesReportExportFilenameEscaped(t *testing.T) {
	env := setupTest(t)
	testutil.SeedSalesReport(t, env.DB, `a"b/c`, 1, "5")

	w := testutil.DoRequest(env.Router, "GET", "/api/sales-report/export?product_type="+url.QueryEscape(`a"b/c`), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	disposition, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	if err != nil {
		t.Fatalf("parse content disposition %q: %v", w.Header().Get("Content-Disposition"), err)
	}
	if disposition != "attachment" {
		t.Errorf("Expected attachment, got %q", disposition)
	}
	if params["filename"] != `sales_reports_a"b_c.xlsx` {
		t.Errorf("Unexpected filename %q", params["filename"])
	}
}
