package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"milkbook/internal/domain"
	"milkbook/internal/service"
	"milkbook/internal/store"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string) *API {
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/status", a.handleAuthStatus)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)

	mux.HandleFunc("/api/v1/customers", a.requireAuth(a.handleCustomers))
	mux.HandleFunc("/api/v1/customers/", a.requireAuth(a.handleCustomerActions))
	mux.HandleFunc("/api/v1/partners", a.requireAuth(a.handlePartners))
	mux.HandleFunc("/api/v1/partners/", a.requireAuth(a.handlePartnerActions))
	mux.HandleFunc("/api/v1/items", a.requireAuth(a.handleItems))
	mux.HandleFunc("/api/v1/items/", a.requireAuth(a.handleItemActions))
	mux.HandleFunc("/api/v1/managers", a.requireAuth(a.handleManagers))
	mux.HandleFunc("/api/v1/managers/", a.requireAuth(a.handleManagerActions))

	mux.HandleFunc("/api/v1/deliveries", a.requireAuth(a.handleDeliveries))
	mux.HandleFunc("/api/v1/deliveries/", a.requireAuth(a.handleDeliveryActions))
	mux.HandleFunc("/api/v1/payments", a.requireAuth(a.handlePayments))
	mux.HandleFunc("/api/v1/payments/", a.requireAuth(a.handlePaymentActions))
	mux.HandleFunc("/api/v1/allocations", a.requireAuth(a.handleAllocations))
	mux.HandleFunc("/api/v1/allocations/", a.requireAuth(a.handleAllocationActions))

	mux.HandleFunc("/api/v1/reports/summary", a.requireAuth(a.handleSummary))
	mux.HandleFunc("/api/v1/reports/statement", a.requireAuth(a.handleStatement))
	mux.HandleFunc("/api/v1/settings", a.requireAuth(a.handleSettings))

	return a.withMiddleware(mux)
}

// requireAuth enforces the credential gate. While no password is set the
// gate is open and every request passes.
func (a *API) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enabled, err := a.auth.Enabled(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if !enabled {
			next(w, r)
			return
		}

		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}
		token := strings.TrimSpace(authorization[len("Bearer "):])
		if _, err := a.auth.ParseToken(token); err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		next(w, r)
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	enabled, err := a.auth.Enabled(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.AuthStatus{PasswordSet: enabled, LoginRequired: enabled})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	token, expiresAt, err := a.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
	})
}

// --- customers ---

func (a *API) handleCustomers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		includeInactive := r.URL.Query().Get("include_inactive") == "1"
		customers, err := a.service.ListCustomers(r.Context(), includeInactive)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
	case http.MethodPost:
		var req domain.CustomerCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		customer, err := a.service.CreateCustomer(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"customer": customer})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleCustomerActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r.URL.Path, "/api/v1/customers/")
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("customer id required"))
		return
	}

	if tail == "balances" {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		rows, err := a.service.CustomerBalances(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"balances": rows})
		return
	}

	id, err := parseID(tail)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		customer, err := a.service.GetCustomer(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"customer": customer})
	case http.MethodPatch:
		var req domain.CustomerUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		customer, err := a.service.UpdateCustomer(r.Context(), id, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"customer": customer})
	case http.MethodDelete:
		if err := a.service.DeactivateCustomer(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deactivated": true})
	default:
		writeMethodNotAllowed(w)
	}
}

// --- delivery partners ---

func (a *API) handlePartners(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		includeInactive := r.URL.Query().Get("include_inactive") == "1"
		partners, err := a.service.ListPartners(r.Context(), includeInactive)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"partners": partners})
	case http.MethodPost:
		var req domain.PartnerCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		partner, err := a.service.CreatePartner(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"partner": partner})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handlePartnerActions(w http.ResponseWriter, r *http.Request) {
	tail := pathTail(r.URL.Path, "/api/v1/partners/")
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("partner id required"))
		return
	}

	if rest, ok := strings.CutSuffix(tail, "/day"); ok {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		id, err := parseID(rest)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		summary, err := a.service.PartnerDaySummary(r.Context(), id, r.URL.Query().Get("date"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"day": summary})
		return
	}

	id, err := parseID(tail)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		partner, err := a.service.GetPartner(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"partner": partner})
	case http.MethodPatch:
		var req domain.PartnerUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		partner, err := a.service.UpdatePartner(r.Context(), id, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"partner": partner})
	case http.MethodDelete:
		if err := a.service.DeactivatePartner(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deactivated": true})
	default:
		writeMethodNotAllowed(w)
	}
}

// --- items ---

func (a *API) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := a.service.ListItems(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		var req domain.ItemCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		item, err := a.service.CreateItem(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"item": item})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleItemActions(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(pathTail(r.URL.Path, "/api/v1/items/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, err := a.service.GetItem(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"item": item})
	case http.MethodPatch:
		var req domain.ItemUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		item, err := a.service.UpdateItem(r.Context(), id, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"item": item})
	case http.MethodDelete:
		if err := a.service.DeleteItem(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
	default:
		writeMethodNotAllowed(w)
	}
}

// --- managers ---

func (a *API) handleManagers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		managers, err := a.service.ListManagers(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"managers": managers})
	case http.MethodPost:
		var req domain.ManagerCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		manager, err := a.service.CreateManager(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"manager": manager})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleManagerActions(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(pathTail(r.URL.Path, "/api/v1/managers/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		manager, err := a.service.GetManager(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"manager": manager})
	case http.MethodPatch:
		var req domain.ManagerUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		manager, err := a.service.UpdateManager(r.Context(), id, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"manager": manager})
	case http.MethodDelete:
		if err := a.service.DeleteManager(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
	default:
		writeMethodNotAllowed(w)
	}
}

// --- deliveries ---

// dayFilter resolves the ?date / ?all pair shared by the daybook listings.
// No date and no all=1 means today.
func dayFilter(r *http.Request) string {
	query := r.URL.Query()
	if query.Get("all") == "1" {
		return ""
	}
	if date := strings.TrimSpace(query.Get("date")); date != "" {
		return date
	}
	return time.Now().Format("2006-01-02")
}

func (a *API) handleDeliveries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		deliveries, err := a.service.ListDeliveries(r.Context(), dayFilter(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deliveries": deliveries})
	case http.MethodPost:
		var req domain.DeliveryCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		delivery, err := a.service.CreateDelivery(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"delivery": delivery})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleDeliveryActions(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(pathTail(r.URL.Path, "/api/v1/deliveries/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		delivery, err := a.service.GetDelivery(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"delivery": delivery})
	case http.MethodPatch:
		var req domain.DeliveryUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		delivery, err := a.service.UpdateDelivery(r.Context(), id, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"delivery": delivery})
	case http.MethodDelete:
		if err := a.service.DeleteDelivery(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
	default:
		writeMethodNotAllowed(w)
	}
}

// --- advance payments ---

func (a *API) handlePayments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		payments, err := a.service.ListPayments(r.Context(), dayFilter(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
	case http.MethodPost:
		var req domain.PaymentCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		payment, err := a.service.CreatePayment(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"payment": payment})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handlePaymentActions(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(pathTail(r.URL.Path, "/api/v1/payments/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		payment, err := a.service.GetPayment(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"payment": payment})
	case http.MethodPatch:
		var req domain.PaymentUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		payment, err := a.service.UpdatePayment(r.Context(), id, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"payment": payment})
	case http.MethodDelete:
		if err := a.service.DeletePayment(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
	default:
		writeMethodNotAllowed(w)
	}
}

// --- partner allocations ---

func (a *API) handleAllocations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		allocations, err := a.service.ListAllocations(r.Context(), dayFilter(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"allocations": allocations})
	case http.MethodPost:
		var req domain.AllocationCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		allocation, err := a.service.CreateAllocation(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"allocation": allocation})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleAllocationActions(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(pathTail(r.URL.Path, "/api/v1/allocations/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		allocation, err := a.service.GetAllocation(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"allocation": allocation})
	case http.MethodPatch:
		var req domain.AllocationUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		allocation, err := a.service.UpdateAllocation(r.Context(), id, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"allocation": allocation})
	case http.MethodDelete:
		if err := a.service.DeleteAllocation(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
	default:
		writeMethodNotAllowed(w)
	}
}

// --- reports ---

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	query := r.URL.Query()
	customerID, err := parseID(query.Get("customer_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	summary, err := a.service.CustomerSummary(r.Context(), customerID, query.Get("start"), query.Get("end"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func (a *API) handleStatement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	query := r.URL.Query()
	customerID, err := parseID(query.Get("customer_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	start := query.Get("start")
	end := query.Get("end")
	month := strings.TrimSpace(query.Get("month"))
	if month != "" {
		start, end = month+"-01", month+"-31"
	}

	switch query.Get("format") {
	case "pdf":
		pdf, name, err := a.service.BuildReceipt(r.Context(), customerID, start, end)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pdf)
	case "html":
		statement, err := a.statementFor(r, customerID, month, start, end)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(statementToPrintableHTML(statement)))
	default:
		statement, err := a.statementFor(r, customerID, month, start, end)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"statement": statement})
	}
}

func (a *API) statementFor(r *http.Request, customerID int64, month, start, end string) (domain.CustomerStatement, error) {
	if month != "" {
		return a.service.MonthlyStatement(r.Context(), customerID, month)
	}
	return a.service.CustomerStatement(r.Context(), customerID, start, end)
}

// --- settings ---

func (a *API) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := a.service.Settings(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
	case http.MethodPut:
		var req domain.SettingsUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		// A bad password change rejects the whole request before any shop
		// field is written.
		if !req.ClearPassword && (req.NewPassword != "" || req.ConfirmPassword != "") {
			if err := CheckNewPassword(req.NewPassword, req.ConfirmPassword); err != nil {
				writeServiceError(w, err)
				return
			}
		}
		settings, err := a.service.UpdateShopSettings(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		switch {
		case req.ClearPassword:
			if err := a.auth.ClearPassword(r.Context()); err != nil {
				writeServiceError(w, err)
				return
			}
		case req.NewPassword != "":
			if err := a.auth.SetPassword(r.Context(), req.NewPassword, req.ConfirmPassword); err != nil {
				writeServiceError(w, err)
				return
			}
		}
		enabled, err := a.auth.Enabled(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"settings":     settings,
			"password_set": enabled,
		})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

// statementHTMLTmpl renders the printable customer statement. All
// user-controlled fields are auto-escaped by html/template.
var statementHTMLTmpl = template.Must(template.New("statement").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Statement {{.PeriodLabel}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    h2, h3 { margin-bottom: 4px; }
  </style>
</head>
<body>
  <h2>Statement for {{.Customer.Name}}</h2>
  <p>Period: {{.PeriodLabel}}</p>

  <h3>Deliveries</h3>
  <table>
    <thead><tr><th>Date</th><th>Item</th><th>Qty</th><th>Price</th><th>Partner</th></tr></thead>
    <tbody>{{range .Deliveries}}<tr><td>{{.Date}}</td><td>{{.ItemName}}</td><td style="text-align:right;">{{.Quantity}}</td><td style="text-align:right;">{{.Price}}</td><td>{{.PartnerName}}</td></tr>{{end}}</tbody>
  </table>

  <h3>Payments</h3>
  <table>
    <thead><tr><th>Date</th><th>Amount</th><th>Notes</th></tr></thead>
    <tbody>{{range .Payments}}<tr><td>{{.Date}}</td><td style="text-align:right;">{{.Amount}}</td><td>{{.Notes}}</td></tr>{{end}}</tbody>
  </table>

  <p>Charges: {{.Charges}} | Paid: {{.Paid}} | Dues: {{.Dues}}</p>
</body>
</html>
`))

func statementToPrintableHTML(statement domain.CustomerStatement) string {
	var buf bytes.Buffer
	if err := statementHTMLTmpl.Execute(&buf, statement); err != nil {
		return "<!doctype html><html><body><p>Statement rendering error.</p></body></html>"
	}
	return buf.String()
}

func pathTail(path, prefix string) string {
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.Trim(strings.TrimPrefix(path, prefix), "/"))
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

// writeServiceError maps sentinel errors from the service and store layers
// onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx responses get a generic message so SQL errors and file paths
	// never reach the client.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
