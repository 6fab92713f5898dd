package auth

import (
	"context"
	"net/http"
	"time"
)

// DefaultReasonHeader is the response header downstream handlers use to report why authorization failed
const DefaultReasonHeader = "X-Authorization-Failure-Reason"

// Identity represents an identified caller
type Identity struct {
	// Subject is the unique identifier for this identity
	Subject string

	// Tokens are the caller's tokens in provenance order
	Tokens []string

	// UserData is opaque application data carried with the identity
	UserData string

	// IssuedAt is when the credential backing this identity was issued
	IssuedAt time.Time

	// Provider is the plugin that produced the identity (e.g., "authtkt", "mtls", "bearer")
	Provider string

	// Attributes contains additional identity information
	Attributes map[string]interface{}
}

// Credentials are the values submitted to a login form
type Credentials struct {
	Login    string
	Password string
}

// Identifier extracts an identity from a request and manages the credential
// that carries it.
type Identifier interface {
	// Name returns the name of this identifier
	Name() string

	// Identify returns the caller's identity, or nil when the request carries none.
	// Verification failures are reported as nil, never as errors.
	Identify(r *http.Request) *Identity

	// Remember returns the headers needed to persist identity on the client
	Remember(r *http.Request, identity *Identity) Headers

	// Forget returns the headers needed to clear the credential on the client
	Forget(r *http.Request, identity *Identity) Headers
}

// Challenger turns a failed authentication into a response
type Challenger interface {
	// Name returns the name of this challenger
	Name() string

	// Challenge returns a handler producing the challenge response, or nil
	// when this challenger does not apply to the request.
	Challenge(r *http.Request, status int, appHeaders, forgetHeaders Headers) http.Handler
}

// Authenticator checks submitted credentials
type Authenticator interface {
	// Name returns the name of this authenticator
	Name() string

	// Authenticate returns the identity matching creds
	Authenticate(ctx context.Context, creds Credentials) (*Identity, error)
}
