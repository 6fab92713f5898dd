package manager

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"ticketgate/internal/auth"
	"ticketgate/internal/auth/authtkt"
	"ticketgate/internal/httputils"
	"ticketgate/internal/observability/logging"
)

const loginFailedReason = "Invalid login or password"

// Config holds the coordinator's own endpoints
type Config struct {
	// LoginPath serves the login form and accepts credentials; empty disables it
	LoginPath string

	// LogoutPath clears credentials; empty disables it
	LogoutPath string

	// LogoutRedirect is where callers are sent after logout
	LogoutRedirect string

	// CameFromParam names the query and form field carrying the return location
	CameFromParam string

	// ReasonParam names the request parameter a failed login reason is stored under
	ReasonParam string
}

// Manager coordinates identifier, authenticator and challenger plugins
type Manager struct {
	logger         *logging.Logger
	config         Config
	identifiers    []auth.Identifier
	authenticators []auth.Authenticator
	challengers    []auth.Challenger
}

// resolved is the outcome of running the identifiers for one request
type resolved struct {
	identity   *auth.Identity
	identifier auth.Identifier
}

// NewManager creates a new authentication manager. Plugins are consulted in the given order.
func NewManager(config Config, identifiers []auth.Identifier, authenticators []auth.Authenticator, challengers []auth.Challenger, logger *logging.Logger) *Manager {
	if config.LogoutRedirect == "" {
		config.LogoutRedirect = "/"
	}
	if config.CameFromParam == "" {
		config.CameFromParam = "came_from"
	}

	return &Manager{
		logger:         logger.WithModule("auth.manager"),
		config:         config,
		identifiers:    identifiers,
		authenticators: authenticators,
		challengers:    challengers,
	}
}

// GetChallengers returns the configured challengers
func (m *Manager) GetChallengers() []auth.Challenger {
	return m.challengers
}

// Middleware identifies the caller, challenges unauthorized responses and
// reissues credentials for identified callers.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, res := m.identify(r)

		if m.config.LoginPath != "" && r.URL.Path == m.config.LoginPath {
			m.handleLogin(w, r)
			return
		}
		if m.config.LogoutPath != "" && r.URL.Path == m.config.LogoutPath {
			m.handleLogout(w, r, res)
			return
		}

		iw := httputils.NewInterceptWriter(w, isUnauthorized, func(status int, header http.Header) {
			if res.identity == nil {
				return
			}
			res.identifier.Remember(r, res.identity).Apply(header)
		})

		next.ServeHTTP(iw, r)
		iw.Finish()

		if iw.Intercepted() {
			m.challenge(w, r, iw.Status(), auth.HeadersFromHTTP(iw.Header()), res)
		}
	})
}

// identify runs every identifier in order. The first identity wins; later
// identifiers still contribute their tokens.
func (m *Manager) identify(r *http.Request) (*http.Request, resolved) {
	ctx := r.Context()
	if auth.TokenSetFromContext(ctx) == nil {
		ctx = auth.ContextWithTokenSet(ctx, auth.NewTokenSet())
		r = r.WithContext(ctx)
	}

	var res resolved
	for _, identifier := range m.identifiers {
		identity := identifier.Identify(r)
		if identity != nil && res.identity == nil {
			res = resolved{identity: identity, identifier: identifier}
		}
	}

	if res.identity == nil {
		return r, res
	}

	if logging.IsDebugEnabled() {
		logging.FromContextOr(ctx, m.logger).Debug("Request identified",
			"identifier", res.identifier.Name(),
			"subject", res.identity.Subject,
			"tokens", auth.TokenSetFromContext(ctx).String(),
		)
	}

	ctx = auth.ContextWithIdentity(ctx, res.identity)
	ctx = auth.ContextWithAuthType(ctx, authType(res.identifier.Name()))
	return r.WithContext(ctx), res
}

// challenge asks each challenger in turn to replace an unauthorized response
func (m *Manager) challenge(w http.ResponseWriter, r *http.Request, status int, appHeaders auth.Headers, res resolved) {
	logger := logging.FromContextOr(r.Context(), m.logger)

	var forgetHeaders auth.Headers
	if res.identity != nil {
		forgetHeaders = res.identifier.Forget(r, res.identity)
	}

	for _, challenger := range m.challengers {
		handler := challenger.Challenge(r, status, appHeaders, forgetHeaders)
		if handler == nil {
			continue
		}
		logger.Info("Challenging request", "challenger", challenger.Name(), "path", r.URL.Path, "status", status)
		handler.ServeHTTP(w, r)
		return
	}

	logger.Warn("No challenger applied, replaying response", "status", status)
	appHeaders.Apply(w.Header())
	forgetHeaders.Apply(w.Header())
	http.Error(w, http.StatusText(status), status)
}

func (m *Manager) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		m.renderLoginForm(w, r)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContextOr(ctx, m.logger)

	cameFrom := ""
	var identity *auth.Identity
	if err := r.ParseForm(); err != nil {
		logger.Debug("Malformed login form", logging.Err(err))
	} else {
		cameFrom = safeRedirect(r, r.PostForm.Get(m.config.CameFromParam))
		creds := auth.Credentials{
			Login:    r.PostForm.Get("login"),
			Password: r.PostForm.Get("password"),
		}
		for _, authenticator := range m.authenticators {
			id, err := authenticator.Authenticate(ctx, creds)
			if err == nil && id != nil {
				identity = id
				break
			}
		}
	}

	if identity == nil {
		logger.Info("Login failed")
		if m.config.ReasonParam != "" {
			ctx = auth.ContextWithParam(ctx, m.config.ReasonParam, loginFailedReason)
		}
		m.challenge(w, retarget(r.WithContext(ctx), cameFrom), http.StatusUnauthorized, nil, resolved{})
		return
	}

	for _, identifier := range m.identifiers {
		identifier.Remember(r, identity).Apply(w.Header())
	}

	logger.Info("Login succeeded", "subject", identity.Subject, "provider", identity.Provider)
	http.Redirect(w, r, cameFrom, http.StatusFound)
}

func (m *Manager) handleLogout(w http.ResponseWriter, r *http.Request, res resolved) {
	logger := logging.FromContextOr(r.Context(), m.logger)

	for _, identifier := range m.identifiers {
		identifier.Forget(r, res.identity).Apply(w.Header())
	}

	if res.identity != nil {
		logger.Info("Logout", "subject", res.identity.Subject)
	}
	http.Redirect(w, r, m.config.LogoutRedirect, http.StatusFound)
}

var loginForm = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Log in</title></head>
<body>
{{if .Reason}}<p class="error">{{.Reason}}</p>{{end}}
<form method="post" action="{{.Action}}">
<input type="hidden" name="{{.CameFromParam}}" value="{{.CameFrom}}">
<label>Login <input type="text" name="login" autofocus></label>
<label>Password <input type="password" name="password"></label>
<button type="submit">Log in</button>
</form>
</body>
</html>
`))

func (m *Manager) renderLoginForm(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	data := struct {
		Action        string
		CameFromParam string
		CameFrom      string
		Reason        string
	}{
		Action:        m.config.LoginPath,
		CameFromParam: m.config.CameFromParam,
		CameFrom:      query.Get(m.config.CameFromParam),
	}
	if m.config.ReasonParam != "" {
		data.Reason = query.Get(m.config.ReasonParam)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := loginForm.Execute(w, data); err != nil {
		logging.FromContextOr(r.Context(), m.logger).Error("Failed to render login form", logging.Err(err))
	}
}

// safeRedirect returns target when it stays on the request's host, else "/"
func safeRedirect(r *http.Request, target string) string {
	if target == "" || strings.ContainsRune(target, '\\') || hasControl(target) {
		return "/"
	}
	// browsers treat "/\host" and "//host" as scheme-relative
	if len(target) > 1 && target[0] == '/' && (target[1] == '/' || target[1] == '\\') {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil {
		return "/"
	}
	if u.Scheme != "" || u.Host != "" {
		if (u.Scheme == "http" || u.Scheme == "https") && u.Host == r.Host {
			return target
		}
		return "/"
	}
	if !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return target
}

// retarget makes a failed login challenge point back at the page the caller came from
func retarget(r *http.Request, cameFrom string) *http.Request {
	u, err := url.Parse(cameFrom)
	if err != nil {
		return r
	}
	clone := r.Clone(r.Context())
	clone.URL = &url.URL{Path: u.Path, RawPath: u.RawPath, RawQuery: u.RawQuery}
	return clone
}

func isUnauthorized(status int) bool {
	return status == http.StatusUnauthorized
}

func authType(identifier string) auth.AuthType {
	if identifier == authtkt.Name {
		return auth.AuthTypeCookie
	}
	return auth.AuthType(identifier)
}

func hasControl(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7f {
			return true
		}
	}
	return false
}
