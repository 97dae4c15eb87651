package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newRouter(logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger(logger), Recovery(logger), CORS())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestRequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newRouter(zap.New(core))

	for _, path := range []string{"/ok", "/missing", "/panic"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Request-ID", "req-"+path[1:])
		r.ServeHTTP(w, req)
		if got := w.Header().Get("X-Request-ID"); got != "req-"+path[1:] {
			t.Errorf("%s: expected request id echoed, got %q", path, got)
		}
	}

	if n := logs.FilterMessage("Request").Len(); n != 1 {
		t.Errorf("Expected 1 info entry, got %d", n)
	}
	if n := logs.FilterMessage("Client error").Len(); n != 1 {
		t.Errorf("Expected 1 warn entry, got %d", n)
	}
	if n := logs.FilterMessage("Server error").Len(); n != 1 {
		t.Errorf("Expected 1 error entry for the panic, got %d", n)
	}
	if n := logs.FilterMessage("Panic recovered").Len(); n != 1 {
		t.Errorf("Expected panic to be logged, got %d", n)
	}
	entry := logs.FilterMessage("Client error").All()[0]
	if entry.ContextMap()["request_id"] != "req-missing" {
		t.Errorf("Expected request_id field, got %v", entry.ContextMap())
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(zap.NewNop())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ok", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}

func TestRequestIDGenerated(t *testing.T) {
	r := newRouter(zap.NewNop())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if len(w.Header().Get("X-Request-ID")) != 36 {
		t.Errorf("Expected generated uuid, got %q", w.Header().Get("X-Request-ID"))
	}
}
