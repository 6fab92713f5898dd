package authtkt

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"ticketgate/internal/auth"
	"ticketgate/internal/observability/logging"
	"ticketgate/internal/observability/metrics"
	"ticketgate/internal/ticket"
)

const (
	// Name is the plugin name of the cookie ticket identifier
	Name = "authtkt"

	// DefaultCookieName is the cookie used when none is configured
	DefaultCookieName = "auth_tkt"

	expiredCookieAttrs = "Max-Age=0; Expires=Thu, 01 Jan 1970 00:00:00 GMT"
)

// Config holds cookie ticket identifier configuration
type Config struct {
	// Secret signs and verifies tickets
	Secret string

	// CookieName is the name of the ticket cookie
	CookieName string

	// Secure marks issued cookies as HTTPS-only
	Secure bool

	// IncludeIP binds tickets to the client address
	IncludeIP bool

	// TTL bounds ticket validity; zero means tickets do not expire
	TTL time.Duration
}

// Identifier identifies callers from a signed cookie ticket and reissues the
// ticket when their identity changes.
type Identifier struct {
	logger     *logging.Logger
	metrics    *metrics.Collector
	service    ticket.Service
	cookieName string
	secure     bool
	includeIP  bool
	ttl        time.Duration
}

// New creates a cookie ticket identifier signing tickets with config.Secret
func New(config Config, logger *logging.Logger, metrics *metrics.Collector) (*Identifier, error) {
	if config.Secret == "" {
		return nil, fmt.Errorf("auth_tkt identifier requires a secret")
	}

	signer, err := ticket.NewSigner(config.Secret, ticket.WithTTL(config.TTL))
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket signer: %w", err)
	}

	return NewWithService(config, signer, logger, metrics)
}

// NewWithService creates a cookie ticket identifier backed by svc.
// config.Secret is ignored.
func NewWithService(config Config, svc ticket.Service, logger *logging.Logger, metrics *metrics.Collector) (*Identifier, error) {
	if svc == nil {
		return nil, fmt.Errorf("auth_tkt identifier requires a ticket service")
	}

	cookieName := config.CookieName
	if cookieName == "" {
		cookieName = DefaultCookieName
	}

	return &Identifier{
		logger:     logger.WithModule("auth.authtkt"),
		metrics:    metrics,
		service:    svc,
		cookieName: cookieName,
		secure:     config.Secure,
		includeIP:  config.IncludeIP,
		ttl:        config.TTL,
	}, nil
}

// Name returns the name of this identifier
func (a *Identifier) Name() string {
	return Name
}

// Identify resolves the presented ticket. Missing, forged or expired tickets
// all yield nil.
func (a *Identifier) Identify(r *http.Request) *auth.Identity {
	logger := logging.FromContextOr(r.Context(), a.logger)

	value := a.presented(r)
	if value == "" {
		a.metrics.RecordIdentification(Name, metrics.OutcomeAbsent)
		return nil
	}

	t, err := a.service.Verify(value, a.fingerprint(r))
	if err != nil {
		logger.Debug("Ticket rejected",
			logging.Err(err),
			"cookie_name", a.cookieName,
			"credential", logging.RedactCredential(value),
		)
		a.metrics.RecordIdentification(Name, metrics.OutcomeRejected)
		return nil
	}

	if tokens := auth.TokenSetFromContext(r.Context()); tokens != nil {
		tokens.Add(t.Tokens...)
	}

	logger.Debug("Ticket verified", "subject", t.Subject)
	a.metrics.RecordIdentification(Name, metrics.OutcomeIdentified)

	return &auth.Identity{
		Subject:  t.Subject,
		Tokens:   t.Tokens,
		UserData: t.UserData,
		IssuedAt: t.IssuedAt,
		Provider: Name,
	}
}

// Forget expires the ticket cookie for the path-only, exact-host and
// wildcard-host scopes. A ticket set with an explicit domain can only be
// cleared by a directive carrying the same domain.
func (a *Identifier) Forget(r *http.Request, _ *auth.Identity) auth.Headers {
	host := requestHost(r)
	return auth.Headers{
		{Name: "Set-Cookie", Value: fmt.Sprintf(`%s=""; Path=/; %s`, a.cookieName, expiredCookieAttrs)},
		{Name: "Set-Cookie", Value: fmt.Sprintf(`%s=""; Path=/; Domain=%s; %s`, a.cookieName, host, expiredCookieAttrs)},
		{Name: "Set-Cookie", Value: fmt.Sprintf(`%s=""; Path=/; Domain=.%s; %s`, a.cookieName, host, expiredCookieAttrs)},
	}
}

// Remember reissues the ticket when identity differs from the one carried by
// the presented ticket. It returns nil when nothing has to change on the client.
func (a *Identifier) Remember(r *http.Request, identity *auth.Identity) auth.Headers {
	if identity == nil {
		return nil
	}
	logger := logging.FromContextOr(r.Context(), a.logger)

	fingerprint := a.fingerprint(r)
	old := a.presented(r)

	var oldSubject, oldTokens, oldUserData string
	if old != "" {
		if t, err := a.service.Verify(old, fingerprint); err == nil {
			oldSubject = t.Subject
			oldTokens = ticket.JoinTokens(t.Tokens)
			oldUserData = t.UserData
		}
	}

	newTokens := ticket.JoinTokens(identity.Tokens)
	if oldSubject == identity.Subject && oldTokens == newTokens && oldUserData == identity.UserData {
		return nil
	}

	value, err := a.service.Issue(ticket.Ticket{
		Subject:  identity.Subject,
		Tokens:   identity.Tokens,
		UserData: identity.UserData,
	}, fingerprint)
	if err != nil {
		logger.Error("Failed to issue ticket", logging.Err(err), "subject", identity.Subject)
		return nil
	}
	if value == old {
		return nil
	}

	logger.Debug("Ticket issued", "subject", identity.Subject, "previous_subject", oldSubject)
	a.metrics.RecordTicketIssued(Name)

	return auth.Headers{{Name: "Set-Cookie", Value: a.cookie(value).String()}}
}

func (a *Identifier) cookie(value string) *http.Cookie {
	c := &http.Cookie{
		Name:     a.cookieName,
		Value:    value,
		Path:     "/",
		Secure:   a.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if a.ttl > 0 {
		c.MaxAge = int(a.ttl.Seconds())
	}
	return c
}

// presented returns the ticket cookie value carried by the request
func (a *Identifier) presented(r *http.Request) string {
	c, err := r.Cookie(a.cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// fingerprint returns the client binding mixed into the ticket
func (a *Identifier) fingerprint(r *http.Request) string {
	if !a.includeIP {
		return ticket.NeutralFingerprint
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// requestHost returns the request host without its port. Requests without a
// Host fall back to the listener address, then to "localhost", so domain
// scoped cookies always name a host.
func requestHost(r *http.Request) string {
	host := r.Host
	if host == "" && r.URL != nil {
		host = r.URL.Host
	}
	if host == "" {
		if addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr); ok {
			host = addr.String()
		}
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "" {
		return "localhost"
	}
	return host
}
