package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"milkbook/internal/cache"
	"milkbook/internal/service"
	"milkbook/internal/store/memory"
)

// newTestAPI builds a full API over the in-memory store so handler tests
// exercise the complete request path.
func newTestAPI(t *testing.T) (*API, *memory.Store) {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, cache.NoopBalanceCache{}, 5*time.Second)
	auth := NewAuthManager(repo, []byte("test-secret-test-secret-test-secret!"), time.Hour)

	return New(svc, auth, "*"), repo
}

func doJSON(t *testing.T, handler http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestHandleHealth(t *testing.T) {
	api, _ := newTestAPI(t)
	rec := doJSON(t, api.Handler(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestCustomerCRUDOverHTTP(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/customers", map[string]any{
		"name":    "Chitra",
		"contact": "9000000005",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)["customer"].(map[string]any)
	id := int(created["id"].(float64))

	rec = doJSON(t, handler, http.MethodPatch, "/api/v1/customers/"+itoa(id), map[string]any{
		"address": "9 Temple Street",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/customers/"+itoa(id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	fetched := decodeBody(t, rec)["customer"].(map[string]any)
	if fetched["address"] != "9 Temple Street" {
		t.Fatalf("patch not applied: %v", fetched["address"])
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/customers/"+itoa(id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// Deactivated customers drop out of the default listing.
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/customers", nil)
	if strings.Contains(rec.Body.String(), "Chitra") {
		t.Fatalf("deactivated customer still listed: %s", rec.Body.String())
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/customers?include_inactive=1", nil)
	if !strings.Contains(rec.Body.String(), "Chitra") {
		t.Fatalf("deactivated customer missing from full listing")
	}
}

func TestCreateCustomerRejectsUnknownFields(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doJSON(t, api.Handler(), http.MethodPost, "/api/v1/customers", map[string]any{
		"name":     "X",
		"surprise": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestBalancesEndpoint(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doJSON(t, api.Handler(), http.MethodGet, "/api/v1/customers/balances?search=asha", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	balances := decodeBody(t, rec)["balances"].([]any)
	if len(balances) != 1 {
		t.Fatalf("expected 1 row for asha, got %d", len(balances))
	}
	row := balances[0].(map[string]any)
	if row["dues"] != "55" {
		t.Fatalf("expected dues 55, got %v", row["dues"])
	}
}

func TestPartnerDayEndpoint(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doJSON(t, api.Handler(), http.MethodGet, "/api/v1/partners/1/day?date=2024-01-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	day := decodeBody(t, rec)["day"].(map[string]any)
	if day["remaining"] != float64(98) {
		t.Fatalf("expected remaining 98, got %v", day["remaining"])
	}
}

func TestStatementFormats(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/reports/statement?customer_id=1&month=2024-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	statement := decodeBody(t, rec)["statement"].(map[string]any)
	if statement["period_label"] != "2024-01" {
		t.Fatalf("expected period 2024-01, got %v", statement["period_label"])
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/statement?customer_id=1&month=2024-01&format=html", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("expected html content type, got %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "Asha") {
		t.Fatalf("statement html missing customer name")
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/statement?customer_id=1&start=2024-01-01&end=2024-01-31&format=pdf", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("expected pdf content type, got %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("pdf body missing magic bytes")
	}
}

func TestGateBlocksMutationsOncePasswordSet(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodPut, "/api/v1/settings", map[string]any{
		"new_password":     "hunter22",
		"confirm_password": "hunter22",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/customers", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 once the gate is closed, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/auth/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status should stay public, got %d", rec.Code)
	}
	status := decodeBody(t, rec)
	if status["password_set"] != true {
		t.Fatalf("expected password_set true, got %v", status["password_set"])
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "admin",
		"password": "hunter22",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d (body: %s)", rec.Code, rec.Body.String())
	}
	token := decodeBody(t, rec)["access_token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recAuthed := httptest.NewRecorder()
	handler.ServeHTTP(recAuthed, req)
	if recAuthed.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", recAuthed.Code)
	}
}

func TestSettingsRejectedPasswordWritesNothing(t *testing.T) {
	api, repo := newTestAPI(t)

	rec := doJSON(t, api.Handler(), http.MethodPut, "/api/v1/settings", map[string]any{
		"shop_name":        "Hacked Dairy",
		"new_password":     "hunter22",
		"confirm_password": "different",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for mismatched confirmation, got %d", rec.Code)
	}

	name, err := repo.GetSetting(context.Background(), service.SettingShopName)
	if err != nil {
		t.Fatalf("read setting: %v", err)
	}
	if name != "" {
		t.Fatalf("shop name written despite rejected request: %q", name)
	}
	hash, err := repo.GetSetting(context.Background(), service.SettingPasswordHash)
	if err != nil {
		t.Fatalf("read setting: %v", err)
	}
	if hash != "" {
		t.Fatalf("password hash written despite rejected request")
	}
}

func TestLoginRateLimited(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	var last int
	for i := 0; i < 7; i++ {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"username": "admin",
			"password": "wrong",
		})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated failures, got %d", last)
	}
}

func TestUnknownDeliveryReturns404(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := doJSON(t, api.Handler(), http.MethodDelete, "/api/v1/deliveries/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
