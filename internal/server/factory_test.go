package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"ticketgate/internal/authz/spicedb"
	"ticketgate/internal/authz/tokens"
	"ticketgate/internal/config"
	"ticketgate/internal/observability/logging"
)

func testConfig(t *testing.T, upstream string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	u, err := url.Parse(upstream)
	if err != nil {
		t.Fatalf("parse upstream: %v", err)
	}
	cfg.Upstream.URL = u
	cfg.Upstream.Timeout = 5 * time.Second
	cfg.Server.ShutdownTimeout = time.Second
	cfg.Auth.Ticket.Secret = "s3cret"
	cfg.Auth.Ticket.CookieName = "auth_tkt"
	cfg.Auth.Redirect.LoginURL = "/login"
	cfg.Auth.Redirect.CameFromParam = "came_from"
	cfg.Auth.Redirect.ReasonParam = "reason"
	cfg.Auth.LoginPath = "/login"
	cfg.Auth.LogoutPath = "/logout"
	cfg.Authz.Type = "tokens"
	cfg.Observability.LogLevel = "error"
	cfg.Observability.LogFormat = "json"
	cfg.Rules = []config.Rule{
		{Name: "public", Action: "allow", Paths: []string{"/public"}},
		{Name: "admin", Action: "auth", Paths: []string{"/admin"}, Permission: "admin"},
	}
	return cfg
}

func TestNewAuthorizer(t *testing.T) {
	cfg := testConfig(t, "http://backend")
	a, err := newAuthorizer(cfg, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("tokens authorizer: %v", err)
	}
	if _, ok := a.(*tokens.Authorizer); !ok {
		t.Fatalf("expected tokens authorizer, got %T", a)
	}

	cfg.Authz.Type = "spicedb"
	cfg.Authz.SpiceDB.Endpoint = "localhost:50051"
	cfg.Authz.SpiceDB.Insecure = true
	a, err = newAuthorizer(cfg, logging.NewNopLogger())
	if err != nil {
		t.Fatalf("spicedb authorizer: %v", err)
	}
	if _, ok := a.(*spicedb.Authorizer); !ok {
		t.Fatalf("expected spicedb authorizer, got %T", a)
	}

	cfg.Authz.Type = "opa"
	if _, err := newAuthorizer(cfg, logging.NewNopLogger()); err == nil {
		t.Fatal("expected error for unknown authorizer")
	}
}

func TestNewFromConfigChallengesProtectedRoutes(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("upstream"))
	}))
	defer upstream.Close()

	srv, err := NewFromConfig(testConfig(t, upstream.URL))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	handler := srv.httpServer.Handler

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://gate.example.com/public", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "upstream" {
		t.Fatalf("expected proxied response, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://gate.example.com/admin", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected challenge redirect, got %d", rec.Code)
	}
	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if location.Path != "/login" || location.Query().Get("came_from") != "http://gate.example.com/admin" || location.Query().Get("reason") != "Authentication required" {
		t.Fatalf("unexpected location %s", location)
	}
	if rec.Header().Get("X-Trace-ID") == "" {
		t.Fatal("expected trace header")
	}
}
