package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/colladmin/internal/db/memory"
	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
	recordrepo "github.com/kailas-cloud/colladmin/internal/repository/record"
	"github.com/kailas-cloud/colladmin/internal/usecase/health"
	"github.com/kailas-cloud/colladmin/internal/usecase/records"
)

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestHandler(t *testing.T, opts ServerOptions) http.Handler {
	t.Helper()
	store := memory.NewStore()
	svc := records.New(recordrepo.New(store))
	err := svc.Seed(context.Background(), []records.Collection{
		{Name: "users", ID: "42", Fields: []field.Raw{{Name: "email", Required: true}}},
	})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return HandlerWithOptions(NewServer(svc, health.New(store), nil), opts)
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out map[string]json.RawMessage
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	return rr, out
}

func TestItems_CRUD(t *testing.T) {
	h := newTestHandler(t, ServerOptions{})

	rr, body := do(t, h, http.MethodPost, "/items/users", `{"id":"u1","email":"a@b.com"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status %d, body %s", rr.Code, rr.Body)
	}
	if !strings.Contains(string(body["data"]), `"u1"`) {
		t.Errorf("create: data = %s", body["data"])
	}

	rr, body = do(t, h, http.MethodGet, "/items/users/u1", "")
	if rr.Code != http.StatusOK || !strings.Contains(string(body["data"]), "a@b.com") {
		t.Fatalf("get: status %d, body %s", rr.Code, rr.Body)
	}

	rr, _ = do(t, h, http.MethodPut, "/items/users/u1", `{"email":"c@d.com"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: status %d", rr.Code)
	}

	rr, body = do(t, h, http.MethodGet, "/items/users?limit=10&sort=email", "")
	if rr.Code != http.StatusOK || !strings.Contains(string(body["data"]), "c@d.com") {
		t.Fatalf("list: status %d, body %s", rr.Code, rr.Body)
	}

	rr, body = do(t, h, http.MethodDelete, "/items/users/u1", "")
	if rr.Code != http.StatusOK || string(body["success"]) != "true" {
		t.Fatalf("delete: status %d, body %s", rr.Code, rr.Body)
	}

	rr, body = do(t, h, http.MethodDelete, "/items/users/u1", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: status %d, want 404", rr.Code)
	}
	var e errorBody
	if err := json.Unmarshal(body["error"], &e); err != nil || e.Code != CodeNotFound {
		t.Errorf("second delete: error = %s", body["error"])
	}
}

func TestItems_Errors(t *testing.T) {
	h := newTestHandler(t, ServerOptions{})
	do(t, h, http.MethodPost, "/items/users", `{"id":"dup"}`)

	tests := []struct {
		name, method, path, body string
		want                     int
	}{
		{"bad limit", http.MethodGet, "/items/users?limit=abc", "", http.StatusBadRequest},
		{"bad json", http.MethodPost, "/items/users", `{`, http.StatusBadRequest},
		{"null body", http.MethodPost, "/items/users", `null`, http.StatusBadRequest},
		{"duplicate id", http.MethodPost, "/items/users", `{"id":"dup"}`, http.StatusConflict},
		{"update missing", http.MethodPut, "/items/users/ghost", `{}`, http.StatusNotFound},
		{"get missing", http.MethodGet, "/items/users/ghost", "", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr, body := do(t, h, tc.method, tc.path, tc.body)
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tc.want, rr.Body)
			}
			if _, ok := body["error"]; !ok {
				t.Errorf("missing error member: %s", rr.Body)
			}
		})
	}
}

func TestSchema_Lookup(t *testing.T) {
	h := newTestHandler(t, ServerOptions{})

	for _, path := range []string{"/items/fields?name=users", "/items/fields?collection_id=42"} {
		rr, body := do(t, h, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rr.Code)
		}
		var fields []field.Raw
		if err := json.Unmarshal(body["data"], &fields); err != nil || len(fields) != 1 || fields[0].Name != "email" {
			t.Errorf("%s: data = %s", path, body["data"])
		}
	}

	rr, body := do(t, h, http.MethodGet, "/items/fields?name=posts", "")
	if rr.Code != http.StatusOK || string(body["data"]) != "[]" {
		t.Errorf("unknown schema: status %d, data %s", rr.Code, body["data"])
	}
	if rr, _ := do(t, h, http.MethodGet, "/items/fields?collection_id=7", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown id: status %d, want 404", rr.Code)
	}
	if rr, _ := do(t, h, http.MethodGet, "/items/fields", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("no ref: status %d, want 400", rr.Code)
	}
}

func TestAuth_OnlyGuardsItems(t *testing.T) {
	h := newTestHandler(t, ServerOptions{
		Middlewares: []func(http.Handler) http.Handler{BearerAuthMiddleware([]string{"secret"})},
	})

	if rr, _ := do(t, h, http.MethodGet, "/items/users", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("items without token: status %d, want 401", rr.Code)
	}
	if rr, _ := do(t, h, http.MethodGet, "/health", ""); rr.Code != http.StatusOK {
		t.Errorf("health: status %d, want 200", rr.Code)
	}
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	s := NewServer(records.New(recordrepo.New(memory.NewStore())), health.New(downPinger{}), nil)
	rr := httptest.NewRecorder()
	s.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"database":"error"`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestHandleDomainError_Internal(t *testing.T) {
	s := NewServer(nil, nil, nil)
	rr := httptest.NewRecorder()
	s.handleDomainError(rr, errors.New("disk on fire"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "disk on fire") {
		t.Error("internal error details leaked to client")
	}
}
