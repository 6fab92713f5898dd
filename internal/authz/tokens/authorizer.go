// Package tokens authorizes requests by the tokens attached to the caller's identity.
package tokens

import (
	"ticketgate/internal/authz"
	"ticketgate/internal/observability/logging"

	"golang.org/x/exp/slices"
)

// Authorizer grants a permission when it is one of the request's tokens
type Authorizer struct {
	logger *logging.Logger
}

// New creates a token authorizer
func New(logger *logging.Logger) *Authorizer {
	return &Authorizer{
		logger: logger.WithModule("authz.tokens"),
	}
}

// Authorize checks the request token set, then the identity's own tokens
func (a *Authorizer) Authorize(req *authz.Request) *authz.Response {
	if req.Identity == nil {
		return authz.NoIdentity()
	}

	if req.Tokens.Contains(req.Permission) || slices.Contains(req.Identity.Tokens, req.Permission) {
		return &authz.Response{
			Decision: authz.Allow,
			Reason:   "Token granted",
		}
	}

	logger := a.logger
	if req.Context != nil {
		logger = logging.FromContextOr(req.Context, a.logger)
	}
	logger.Debug("Missing token",
		"subject", req.Identity.Subject,
		"permission", req.Permission,
		"tokens", req.Tokens.String(),
	)

	return &authz.Response{
		Decision: authz.Deny,
		Reason:   "Permission denied",
	}
}
