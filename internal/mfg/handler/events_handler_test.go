package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/testutil"
)

func TestEventsStream(t *testing.T) {
	env := setupTest(t)
	testutil.SeedTestUser(t, env.DB, "Alice", "alice@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		env.Router.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for env.Hub.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("SSE client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	createProduction(t, env, "alice@example.com", "COMPLETED", 2, "1")
	env.Hub.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after hub close")
	}

	body := w.Body.String()
	if !strings.Contains(body, "event: connected") {
		t.Errorf("Expected connected event, got %q", body)
	}
	if !strings.Contains(body, "event: production.completed") {
		t.Errorf("Expected production.completed event, got %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Unexpected content type %q", ct)
	}
}
