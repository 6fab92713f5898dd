package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TICKETGATE_UPSTREAM_URL", "http://backend:8080")
	t.Setenv("TICKETGATE_AUTH_TKT_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Upstream.URL.Host != "backend:8080" {
		t.Fatalf("unexpected upstream %s", cfg.Upstream.URL)
	}
	if cfg.Auth.Ticket.CookieName != "auth_tkt" || cfg.Auth.Ticket.TTL != 0 {
		t.Fatalf("unexpected ticket config %+v", cfg.Auth.Ticket)
	}
	if cfg.Auth.Redirect.LoginURL != "/login" || cfg.Auth.Redirect.CameFromParam != "came_from" || cfg.Auth.Redirect.ReasonParam != "reason" {
		t.Fatalf("unexpected redirect config %+v", cfg.Auth.Redirect)
	}
	if cfg.Auth.LoginPath != "/login" || cfg.Auth.LogoutPath != "/logout" || cfg.Auth.LogoutRedirect != "/" {
		t.Fatalf("unexpected login endpoints %+v", cfg.Auth)
	}
	if cfg.Authz.Type != "tokens" {
		t.Fatalf("expected tokens authorizer, got %q", cfg.Authz.Type)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Fatalf("unexpected shutdown timeout %s", cfg.Server.ShutdownTimeout)
	}
	if len(cfg.Rules) != 0 {
		t.Fatalf("expected no rules, got %v", cfg.Rules)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	setRequired(t)
	t.Setenv("TICKETGATE_AUTH_TKT_TTL", "2h")
	t.Setenv("TICKETGATE_AUTH_TKT_INCLUDE_IP", "true")
	t.Setenv("TICKETGATE_REDIRECT_REASON_HEADER", "X-Why")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.Ticket.TTL != 2*time.Hour || !cfg.Auth.Ticket.IncludeIP {
		t.Fatalf("unexpected ticket config %+v", cfg.Auth.Ticket)
	}
	if cfg.Auth.Redirect.ReasonHeader != "X-Why" {
		t.Fatalf("unexpected reason header %q", cfg.Auth.Redirect.ReasonHeader)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"TICKETGATE_AUTH_TKT_SECRET": ""}},
		{"missing upstream", map[string]string{"TICKETGATE_UPSTREAM_URL": ""}},
		{"missing login URL", map[string]string{"TICKETGATE_REDIRECT_LOGIN_URL": ""}},
		{"reason header without param", map[string]string{
			"TICKETGATE_REDIRECT_REASON_PARAM":  "",
			"TICKETGATE_REDIRECT_REASON_HEADER": "X-Why",
		}},
		{"bad ttl", map[string]string{"TICKETGATE_AUTH_TKT_TTL": "soon"}},
		{"unknown authorizer", map[string]string{"TICKETGATE_AUTHZ_TYPE": "opa"}},
		{"missing htpasswd file", map[string]string{"TICKETGATE_HTPASSWD_FILE": "/nonexistent/users"}},
		{"spicedb without token", map[string]string{
			"TICKETGATE_AUTHZ_TYPE":               "spicedb",
			"TICKETGATE_AUTHZ_SPICEDB_RESOURCE_ID": "main",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

const rulesYAML = `
upstream_url: http://backend:8080
auth_tkt_secret: from-file
rules:
  - name: health
    action: allow
    paths: ["/healthz"]
  - name: admin
    action: auth
    paths: ["/admin"]
    match_prefix: true
    methods: ["GET", "POST"]
    permission: admin
`

func TestLoadRulesFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticketgate.yaml")
	if err := os.WriteFile(path, []byte(rulesYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.Ticket.Secret != "from-file" {
		t.Fatalf("expected secret from file, got %q", cfg.Auth.Ticket.Secret)
	}
	if len(cfg.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %v", cfg.Rules)
	}
	admin := cfg.Rules[1]
	if admin.Action != "auth" || !admin.MatchPrefix || admin.Permission != "admin" || len(admin.Methods) != 2 {
		t.Fatalf("unexpected rule %+v", admin)
	}

	rules, err := LoadRules(path)
	if err != nil || len(rules) != 2 {
		t.Fatalf("LoadRules: %v, %v", rules, err)
	}
}

func TestValidateRules(t *testing.T) {
	bad := [][]Rule{
		{{Name: "x", Action: "maybe", Paths: []string{"/"}}},
		{{Name: "x", Action: "auth", Paths: []string{"/"}}},
		{{Name: "x", Action: "allow"}},
	}
	for _, rules := range bad {
		if err := validateRules(rules); err == nil {
			t.Fatalf("expected error for %+v", rules)
		}
	}
	if err := validateRules([]Rule{{Name: "ok", Action: "deny", Paths: []string{"/"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
