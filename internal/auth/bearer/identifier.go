package bearer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"ticketgate/internal/auth"
	"ticketgate/internal/observability/logging"
	"ticketgate/internal/observability/metrics"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/exp/slices"
)

// Name is the plugin name of the bearer token identifier
const Name = "bearer"

// TokenVerifier verifies raw ID tokens; *oidc.IDTokenVerifier satisfies it
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// Identifier identifies callers by an OIDC bearer token
type Identifier struct {
	logger   *logging.Logger
	metrics  *metrics.Collector
	verifier TokenVerifier
	clientID string
}

// Config holds bearer identifier configuration
type Config struct {
	// Issuer is the token issuer URL
	Issuer string

	// ClientID is the client ID for token validation
	ClientID string
}

// audiences helps unmarshall the audience claim which can be either a string or an array
type audiences []string

func (a *audiences) UnmarshalJSON(data []byte) error {
	// Try as a single string
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = []string{single}
		return nil
	}

	// Try as an array of strings
	var multiple []string
	if err := json.Unmarshal(data, &multiple); err == nil {
		*a = multiple
		return nil
	}

	return fmt.Errorf("invalid audience claim format")
}

// claims are the ID token claims the identifier relies on
type claims struct {
	Subject string    `json:"sub"`
	Azp     string    `json:"azp,omitempty"`
	Aud     audiences `json:"aud,omitempty"`
	Scope   string    `json:"scope,omitempty"`
}

// New creates a bearer identifier, discovering the issuer's keys
func New(ctx context.Context, config Config, logger *logging.Logger, metrics *metrics.Collector) (*Identifier, error) {
	if config.Issuer == "" {
		return nil, fmt.Errorf("bearer identifier requires an issuer")
	}

	logger.Debug("Initializing OIDC provider for bearer tokens", "issuer", logging.RedactStringURL(config.Issuer))
	provider, err := oidc.NewProvider(ctx, config.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OIDC provider for bearer tokens: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID:          config.ClientID,
		SkipClientIDCheck: true, // audience and azp are checked by the identifier
	})

	return NewWithVerifier(config, verifier, logger, metrics)
}

// NewWithVerifier creates a bearer identifier using an existing verifier
func NewWithVerifier(config Config, verifier TokenVerifier, logger *logging.Logger, metrics *metrics.Collector) (*Identifier, error) {
	if config.ClientID == "" {
		return nil, fmt.Errorf("bearer identifier requires a client ID")
	}
	if verifier == nil {
		return nil, fmt.Errorf("bearer identifier requires a token verifier")
	}

	return &Identifier{
		logger:   logger.WithModule("auth.bearer"),
		metrics:  metrics,
		verifier: verifier,
		clientID: config.ClientID,
	}, nil
}

// Name returns the name of this identifier
func (a *Identifier) Name() string {
	return Name
}

// Identify verifies the Authorization bearer token. The token's scopes are
// contributed as tokens.
func (a *Identifier) Identify(r *http.Request) *auth.Identity {
	ctx := r.Context()
	logger := logging.FromContextOr(ctx, a.logger)

	tokenStr, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || tokenStr == "" {
		a.metrics.RecordIdentification(Name, metrics.OutcomeAbsent)
		return nil
	}

	idToken, err := a.verifier.Verify(ctx, tokenStr)
	if err != nil {
		logger.Debug("Bearer token verification failed", logging.Err(err))
		a.metrics.RecordIdentification(Name, metrics.OutcomeRejected)
		return nil
	}

	var c claims
	if err := idToken.Claims(&c); err != nil {
		logger.Debug("Failed to parse claims from bearer token", logging.Err(err))
		a.metrics.RecordIdentification(Name, metrics.OutcomeRejected)
		return nil
	}

	if c.Azp != a.clientID && !slices.Contains(c.Aud, a.clientID) {
		logger.Debug("Bearer token audience mismatch",
			"expectedClientID", a.clientID,
			"aud", c.Aud,
			"azp", c.Azp,
		)
		a.metrics.RecordIdentification(Name, metrics.OutcomeRejected)
		return nil
	}

	tokens := strings.Fields(c.Scope)
	if ts := auth.TokenSetFromContext(ctx); ts != nil {
		ts.Add(tokens...)
	}

	logger.Debug("Bearer token valid", "subject", c.Subject)
	a.metrics.RecordIdentification(Name, metrics.OutcomeIdentified)

	return &auth.Identity{
		Subject:  c.Subject,
		Tokens:   tokens,
		IssuedAt: idToken.IssuedAt,
		Provider: Name,
	}
}

// Remember is a no-op: bearer tokens are issued by the identity provider
func (a *Identifier) Remember(*http.Request, *auth.Identity) auth.Headers {
	return nil
}

// Forget is a no-op: bearer tokens are held by the client
func (a *Identifier) Forget(*http.Request, *auth.Identity) auth.Headers {
	return nil
}
