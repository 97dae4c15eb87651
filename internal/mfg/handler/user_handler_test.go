package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/entity"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/service"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/testutil"
)

func createUser(t *testing.T, env *testutil.TestEnv, name, email string) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(env.Router, "POST", "/api/user", map[string]interface{}{
		"name":     name,
		"email":    email,
		"password": "hunter2",
		"role":     "operator",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.Data(t, w)
}

func TestUserCreateAndGet(t *testing.T) {
	env := setupTest(t)

	w := testutil.DoRequest(env.Router, "POST", "/api/user", map[string]interface{}{
		"name":       "Alice",
		"email":      "Alice@Example.com",
		"password":   "hunter2",
		"role":       "manager",
		"position":   "shift lead",
		"address":    "1 Factory Rd",
		"birth_date": "1990-04-12",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	user := testutil.Data(t, w)
	if user["email"] != "alice@example.com" {
		t.Errorf("Expected lowercased email, got %v", user["email"])
	}
	if user["position"] != "shift lead" {
		t.Errorf("Expected position 'shift lead', got %v", user["position"])
	}
	if _, ok := user["password"]; ok {
		t.Error("Password must not be serialised")
	}
	bd, _ := user["birth_date"].(string)
	if !strings.HasPrefix(bd, "1990-04-12") {
		t.Errorf("Expected birth_date 1990-04-12, got %v", user["birth_date"])
	}

	id := user["id"].(string)
	w = testutil.DoRequest(env.Router, "GET", "/api/user/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := testutil.Data(t, w)
	if got["name"] != "Alice" || got["role"] != "manager" {
		t.Errorf("Unexpected user: %v", got)
	}

	var stored entity.User
	if err := env.DB.First(&stored, "id = ?", id).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if !service.VerifyPassword(&stored, "hunter2") {
		t.Error("Expected bcrypt hash of the submitted password")
	}
}

func TestUserList(t *testing.T) {
	env := setupTest(t)
	createUser(t, env, "A", "a@example.com")
	createUser(t, env, "B", "b@example.com")

	w := testutil.DoRequest(env.Router, "GET", "/api/user", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if n := len(testutil.DataList(t, w)); n != 2 {
		t.Errorf("Expected 2 users, got %d", n)
	}
}

func TestUserCreateValidation(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name  string
		body  interface{}
		field string
	}{
		{"missing email", map[string]interface{}{"name": "x", "password": "p", "role": "r"}, "email"},
		{"bad email", map[string]interface{}{"name": "x", "email": "nope", "password": "p", "role": "r"}, "email"},
		{"missing role", map[string]interface{}{"name": "x", "email": "x@example.com", "password": "p"}, "role"},
		{"bad birth date", map[string]interface{}{"name": "x", "email": "x@example.com", "password": "p", "role": "r", "birth_date": "12/04/1990"}, "birth_date"},
		{"wrong type", map[string]interface{}{"name": 42, "email": "x@example.com", "password": "p", "role": "r"}, "name"},
		{"password too long", map[string]interface{}{"name": "x", "email": "x@example.com", "password": strings.Repeat("a", 80), "role": "r"}, "password"},
		{"password over 72 bytes", map[string]interface{}{"name": "x", "email": "x@example.com", "password": strings.Repeat("é", 40), "role": "r"}, "password"},
		{"name too long", map[string]interface{}{"name": strings.Repeat("n", 200), "email": "x@example.com", "password": "p", "role": "r"}, "name"},
		{"role too long", map[string]interface{}{"name": "x", "email": "x@example.com", "password": "p", "role": strings.Repeat("r", 33)}, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.DoRequest(env.Router, "POST", "/api/user", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
			fields := fieldErrors(testutil.ParseResponse(w))
			if _, ok := fields[tt.field]; !ok {
				t.Errorf("Expected error on %q, got %v", tt.field, fields)
			}
		})
	}
	if n := testutil.Count(t, env.DB, &entity.User{}); n != 0 {
		t.Errorf("Expected no users stored, got %d", n)
	}
}

func TestUserDuplicate(t *testing.T) {
	env := setupTest(t)
	createUser(t, env, "Alice", "alice@example.com")

	for _, body := range []map[string]interface{}{
		{"name": "Other", "email": "ALICE@example.com", "password": "p", "role": "r"},
		{"name": "Alice", "email": "other@example.com", "password": "p", "role": "r"},
	} {
		w := testutil.DoRequest(env.Router, "POST", "/api/user", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
		if msg := testutil.ParseResponse(w)["message"]; msg != "Email or name already in use" {
			t.Errorf("Unexpected message %v", msg)
		}
	}
}

func TestUserUpdate(t *testing.T) {
	env := setupTest(t)
	user := createUser(t, env, "Alice", "alice@example.com")
	other := createUser(t, env, "Bob", "bob@example.com")
	id := user["id"].(string)

	w := testutil.DoRequest(env.Router, "PUT", "/api/user/"+id, map[string]interface{}{
		"role":    "admin",
		"address": "2 Mill St",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	got := testutil.Data(t, testutil.DoRequest(env.Router, "GET", "/api/user/"+id, nil))
	if got["role"] != "admin" || got["address"] != "2 Mill St" {
		t.Errorf("Update not reflected: %v", got)
	}
	if got["name"] != "Alice" {
		t.Errorf("Expected name unchanged, got %v", got["name"])
	}

	// keeping its own email is fine, taking another user's is not
	w = testutil.DoRequest(env.Router, "PUT", "/api/user/"+id, map[string]interface{}{"email": "alice@example.com"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for own email, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, "PUT", "/api/user/"+id, map[string]interface{}{"email": other["email"]})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for taken email, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "PUT", "/api/user/missing", map[string]interface{}{"role": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestUserDelete(t *testing.T) {
	env := setupTest(t)
	user := createUser(t, env, "Alice", "alice@example.com")
	id := user["id"].(string)

	w := testutil.DoRequest(env.Router, "DELETE", "/api/user/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, "GET", "/api/user/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
	w = testutil.DoRequest(env.Router, "DELETE", "/api/user/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", w.Code)
	}
}

func TestUserDeleteWithProductions(t *testing.T) {
	env := setupTest(t)
	user := createUser(t, env, "Alice", "alice@example.com")
	createProduction(t, env, "alice@example.com", "IN_PROGRESS", 1, "10")

	w := testutil.DoRequest(env.Router, "DELETE", "/api/user/"+user["id"].(string), nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUserUpdatePasswordTooLong(t *testing.T) {
	env := setupTest(t)
	user := createUser(t, env, "Alice", "alice@example.com")
	id := user["id"].(string)

	for _, password := range []string{strings.Repeat("a", 80), strings.Repeat("é", 40)} {
		w := testutil.DoRequest(env.Router, "PUT", "/api/user/"+id, map[string]interface{}{"password": password})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
		if _, ok := fieldErrors(testutil.ParseResponse(w))["password"]; !ok {
			t.Errorf("Expected error on password, got %s", w.Body.String())
		}
	}

	stored, err := env.Repos.User.FindByID(t.Context(), id)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if !service.VerifyPassword(stored, "hunter2") {
		t.Error("Expected password unchanged")
	}
}
