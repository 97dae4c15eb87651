package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/entity"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/events"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/repository"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/service"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB        *gorm.DB
	Router    *gin.Engine
	Repos     *repository.Repositories
	Services  *service.Services
	Hub       *events.Hub
	Published *Recorder
	T         *testing.T
}

// Options tweaks the environment built by Setup
type Options struct {
	Cache *service.ReportCache
}

var dbSeq atomic.Int64

// SetupTestDB opens an isolated in-memory SQLite database with every table migrated.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:mfg_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	// single connection: in-memory database lives as long as it does, and writes serialise
	sqlDB.SetMaxOpenConns(1)

	if err := entity.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// Setup wires repositories and services over a fresh test database. Router is left
// for the caller to populate.
func Setup(t *testing.T, opts ...Options) *TestEnv {
	t.Helper()
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	db := SetupTestDB(t)
	repos := repository.NewRepositories(db)
	hub := events.NewHub(zap.NewNop())
	rec := &Recorder{}
	svcs := service.NewServices(repos, db, service.Options{
		Logger:     zap.NewNop(),
		Publisher:  events.Multi{hub, rec},
		Cache:      o.Cache,
		BcryptCost: bcrypt.MinCost,
	})
	return &TestEnv{DB: db, Router: SetupRouter(), Repos: repos, Services: svcs, Hub: hub, Published: rec, T: t}
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	switch b := body.(type) {
	case nil:
		reqBody = bytes.NewBuffer(nil)
	case string:
		reqBody = bytes.NewBufferString(b)
	default:
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// Data returns the "data" object of a successful response, failing the test otherwise.
func Data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	data, ok := ParseResponse(w)["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data object, got %s", w.Body.String())
	}
	return data
}

// DataList returns the "data" array of a successful list response.
func DataList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	items, ok := ParseResponse(w)["data"].([]interface{})
	if !ok {
		// empty slices marshal as [] but nil slices as null
		if ParseResponse(w)["data"] == nil {
			return nil
		}
		t.Fatalf("Expected data array, got %s", w.Body.String())
	}
	return items
}

// SeedTestUser creates a test user in the database
func SeedTestUser(t *testing.T, db *gorm.DB, name, email string) *entity.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	user := &entity.User{
		ID:       uuid.New().String(),
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     "operator",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed test user: %v", err)
	}
	return user
}

// SeedInventory creates an inventory row directly
func SeedInventory(t *testing.T, db *gorm.DB, typ string, qty int) *entity.InventoryData {
	t.Helper()
	inv := &entity.InventoryData{ID: uuid.New().String(), Type: typ, Quantity: qty}
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("Failed to seed inventory: %v", err)
	}
	return inv
}

// SeedFinishedProduct creates an AVAILABLE finished product directly
func SeedFinishedProduct(t *testing.T, db *gorm.DB, typ string, qty int, unitPrice string) *entity.FinishedProduct {
	t.Helper()
	price := decimal.RequireFromString(unitPrice)
	fp := &entity.FinishedProduct{
		ID:          uuid.New().String(),
		ProductType: typ,
		Quantity:    qty,
		UnitPrice:   price,
		TotalCost:   price.Mul(decimal.NewFromInt(int64(qty))),
		Status:      entity.FinishedProductStatusAvailable,
	}
	if err := db.Omit("Production").Create(fp).Error; err != nil {
		t.Fatalf("Failed to seed finished product: %v", err)
	}
	return fp
}

// SeedSalesReport creates a sales report directly
func SeedSalesReport(t *testing.T, db *gorm.DB, typ string, qty int, revenue string) *entity.SalesReport {
	t.Helper()
	sr := &entity.SalesReport{
		ID:           uuid.New().String(),
		ProductType:  typ,
		SalesDate:    time.Now().UTC(),
		QuantitySold: qty,
		TotalRevenue: decimal.RequireFromString(revenue),
	}
	if err := db.Omit("FinishedProduct").Create(sr).Error; err != nil {
		t.Fatalf("Failed to seed sales report: %v", err)
	}
	return sr
}

// Count returns the number of rows in model's table
func Count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}
