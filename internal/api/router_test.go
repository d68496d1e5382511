package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsdesk/records-dashboard/internal/api/middleware"
	"github.com/opsdesk/records-dashboard/internal/core/domain"
	"github.com/opsdesk/records-dashboard/internal/core/ports"
	"github.com/opsdesk/records-dashboard/internal/core/service"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/db/memory"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/latency"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/seed"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/token"
)

// syncSink stores audit entries inline.
type syncSink struct{ svc ports.AuditService }

func (s syncSink) Enqueue(e domain.AuditEntry) { _ = s.svc.Record(context.Background(), e) }

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	return newTestServerWith(t, func(*Deps) {})
}

// newTestServerWith lets a test adjust the dependencies before routing.
func newTestServerWith(t *testing.T, tweak func(*Deps)) *echo.Echo {
	t.Helper()
	ctx := context.Background()
	log := zerolog.Nop()

	identities := memory.NewIdentityRepository()
	records := memory.NewRecordRepository()
	if err := seed.Load(ctx, identities, records, "password", bcrypt.MinCost, log); err != nil {
		t.Fatalf("seed: %v", err)
	}

	audit := service.NewAuditService(memory.NewAuditRepository(), log)
	sink := syncSink{svc: audit}
	codec := token.NewCodec("test-secret", time.Hour)
	revocations := memory.NewRevocations()
	nop := latency.Nop{}

	d := Deps{
		Log:         log,
		Tokens:      codec,
		Revocations: revocations,
		Auth:        service.NewAuthService(service.NewAuthenticator(identities), codec, revocations, nop, log),
		Directory:   service.NewDirectoryService(identities, sink, nop, bcrypt.MinCost, log),
		Records:     service.NewRecordService(records, identities, sink, nop, log),
		Audit:       audit,
		Guard:       service.NewGuard(),
		Registry:    prometheus.NewRegistry(),
	}
	tweak(&d)
	return NewRouter(d)
}

func do(t *testing.T, e *echo.Echo, method, path, tkn, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if tkn != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tkn)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, e *echo.Echo, username string) string {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/auth/login", "", `{"username":"`+username+`","password":"password"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", username, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp.Token
}

func total(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp.Total
}

func TestRouter_RecordVisibility(t *testing.T) {
	e := newTestServer(t)

	admin := login(t, e, "admin")
	if got := total(t, do(t, e, http.MethodGet, "/v1/records", admin, "")); got != 10 {
		t.Fatalf("admin sees %d records, want 10", got)
	}

	user := login(t, e, "user")
	if got := total(t, do(t, e, http.MethodGet, "/v1/records", user, "")); got != 3 {
		t.Fatalf("user sees %d records, want 3", got)
	}

	if rec := do(t, e, http.MethodGet, "/v1/records/7", user, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign record: expected 403, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodGet, "/v1/records/99", admin, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing record: expected 404, got %d", rec.Code)
	}
}

func TestRouter_CreateRecordThenAdminSeesIt(t *testing.T) {
	e := newTestServer(t)

	john := login(t, e, "johndoe")
	rec := do(t, e, http.MethodPost, "/v1/records", john, `{"title":"Write report","description":"Q2"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if created.ID != "11" || created.UserID != "3" || created.Status != domain.StatusPending {
		t.Fatalf("unexpected record: %+v", created)
	}

	admin := login(t, e, "admin")
	if got := total(t, do(t, e, http.MethodGet, "/v1/records", admin, "")); got != 11 {
		t.Fatalf("admin sees %d records, want 11", got)
	}
}

func TestRouter_AuthFailures(t *testing.T) {
	e := newTestServer(t)

	if rec := do(t, e, http.MethodPost, "/auth/login", "", `{"username":"admin","password":"wrong"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodGet, "/v1/records", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: expected 401, got %d", rec.Code)
	}

	user := login(t, e, "user")
	if rec := do(t, e, http.MethodGet, "/v1/admin/identities", user, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("standard admin list: expected 403, got %d", rec.Code)
	}
}

func TestRouter_LogoutRevokesToken(t *testing.T) {
	e := newTestServer(t)

	user := login(t, e, "user")
	if rec := do(t, e, http.MethodPost, "/auth/logout", user, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodGet, "/auth/me", user, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", rec.Code)
	}
}

func TestRouter_DirectoryAdministration(t *testing.T) {
	e := newTestServer(t)
	admin := login(t, e, "admin")

	if rec := do(t, e, http.MethodDelete, "/v1/admin/identities/1", admin, ""); rec.Code != http.StatusConflict {
		t.Fatalf("self deletion: expected 409, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodDelete, "/v1/admin/identities/42", admin, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown identity: expected 404, got %d", rec.Code)
	}

	body := `{"username":"newbie","name":"New Person","email":"new@example.com","role":"standard","password":"longenough"}`
	if rec := do(t, e, http.MethodPost, "/v1/admin/identities", admin, body); rec.Code != http.StatusCreated {
		t.Fatalf("add identity: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, e, http.MethodPost, "/v1/admin/identities", admin, body); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate identity: expected 409, got %d", rec.Code)
	}
	if got := total(t, do(t, e, http.MethodGet, "/v1/admin/identities", admin, "")); got != 5 {
		t.Fatalf("identities: got %d, want 5", got)
	}

	// The new identity can sign in with its password.
	rec := do(t, e, http.MethodPost, "/auth/login", "", `{"username":"newbie","password":"longenough"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("new identity login: expected 200, got %d", rec.Code)
	}

	if rec := do(t, e, http.MethodGet, "/v1/admin/audit", admin, ""); !strings.Contains(rec.Body.String(), string(domain.AuditIdentityAdded)) {
		t.Fatalf("audit trail missing identity.added: %s", rec.Body.String())
	}
}

func TestRouter_ViewDecisions(t *testing.T) {
	e := newTestServer(t)
	user := login(t, e, "user")

	tests := []struct {
		path, tkn, redirect string
		allowed             bool
	}{
		{"/v1/views/dashboard", "", "/login", false},
		{"/v1/views/dashboard", user, "", true},
		{"/v1/views/admin", user, "/dashboard", false},
		{"/v1/views/login", user, "/dashboard", false},
		{"/v1/views/root", "", "/login", false},
	}
	for _, tt := range tests {
		rec := do(t, e, http.MethodGet, tt.path, tt.tkn, "")
		var d domain.Decision
		if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
			t.Fatalf("%s: invalid json: %v", tt.path, err)
		}
		if d.Allowed != tt.allowed || d.Redirect != tt.redirect {
			t.Errorf("%s (token=%v): got %+v", tt.path, tt.tkn != "", d)
		}
	}

	if rec := do(t, e, http.MethodGet, "/v1/views/settings", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown view: expected 404, got %d", rec.Code)
	}
}

func loginFrom(e *echo.Echo, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"user","password":"wrong"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXForwardedFor, forwardedFor)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRouter_LoginLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	limiter := middleware.NewLoginLimiter(0.001, 2, zerolog.Nop())
	e := newTestServerWith(t, func(d *Deps) { d.LoginLimiter = limiter })

	for i := 1; i <= 2; i++ {
		if code := loginFrom(e, "203.0.113.7:4000", "198.51.100."+strconv.Itoa(i)); code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, code)
		}
	}
	if code := loginFrom(e, "203.0.113.7:4000", "198.51.100.3"); code != http.StatusTooManyRequests {
		t.Fatalf("rotated X-Forwarded-For: expected 429, got %d", code)
	}
	if n := limiter.Len(); n != 1 {
		t.Fatalf("expected one tracked client, got %d", n)
	}
}

func TestRouter_LoginLimitHonorsTrustedProxy(t *testing.T) {
	_, proxies, _ := net.ParseCIDR("203.0.113.0/24")
	limiter := middleware.NewLoginLimiter(0.001, 1, zerolog.Nop())
	e := newTestServerWith(t, func(d *Deps) {
		d.LoginLimiter = limiter
		d.TrustedProxies = []*net.IPNet{proxies}
	})

	// Distinct clients behind the proxy each get their own budget.
	for _, client := range []string{"198.51.100.1", "198.51.100.2"} {
		if code := loginFrom(e, "203.0.113.7:4000", client); code != http.StatusUnauthorized {
			t.Fatalf("client %s: expected 401, got %d", client, code)
		}
	}
	if code := loginFrom(e, "203.0.113.7:4000", "198.51.100.1"); code != http.StatusTooManyRequests {
		t.Fatalf("repeat client: expected 429, got %d", code)
	}
	if n := limiter.Len(); n != 2 {
		t.Fatalf("expected two tracked clients, got %d", n)
	}
}
