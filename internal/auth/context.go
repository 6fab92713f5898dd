package auth

import (
	"context"
)

// ContextKey is a type-safe key for context values
type ContextKey string

const (
	// IdentityContextKey is the key used to store the identity in the context
	IdentityContextKey ContextKey = "auth:identity"

	// AuthTypeContextKey is the key used to store the authentication type
	AuthTypeContextKey ContextKey = "auth:type"

	// TokenSetContextKey is the key used to store the request token set
	TokenSetContextKey ContextKey = "auth:tokens"

	paramContextKeyPrefix = "auth:param:"
)

// AuthType represents the type of authentication used
type AuthType string

const (
	// AuthTypeCookie represents signed cookie ticket authentication
	AuthTypeCookie AuthType = "cookie"

	// AuthTypeMTLS represents mTLS authentication
	AuthTypeMTLS AuthType = "mtls"

	// AuthTypeBearer represents Bearer token authentication
	AuthTypeBearer AuthType = "bearer"
)

// IdentityFromContext extracts the identity from the request context
func IdentityFromContext(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(IdentityContextKey).(*Identity); ok {
		return identity
	}
	return nil
}

// ContextWithIdentity adds an identity to a context
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// AuthTypeFromContext extracts the authentication type from the context
func AuthTypeFromContext(ctx context.Context) AuthType {
	if authType, ok := ctx.Value(AuthTypeContextKey).(AuthType); ok {
		return authType
	}
	return ""
}

// ContextWithAuthType adds an authentication type to a context
func ContextWithAuthType(ctx context.Context, authType AuthType) context.Context {
	return context.WithValue(ctx, AuthTypeContextKey, authType)
}

// TokenSetFromContext returns the request token set, or nil if none was attached
func TokenSetFromContext(ctx context.Context) *TokenSet {
	if tokens, ok := ctx.Value(TokenSetContextKey).(*TokenSet); ok {
		return tokens
	}
	return nil
}

// ContextWithTokenSet attaches a token set to a context
func ContextWithTokenSet(ctx context.Context, tokens *TokenSet) context.Context {
	return context.WithValue(ctx, TokenSetContextKey, tokens)
}

// ContextWithParam stores a named request parameter, such as a failure reason
// to be published by a challenger.
func ContextWithParam(ctx context.Context, name, value string) context.Context {
	return context.WithValue(ctx, ContextKey(paramContextKeyPrefix+name), value)
}

// ParamFromContext returns a named request parameter stored with ContextWithParam
func ParamFromContext(ctx context.Context, name string) string {
	if value, ok := ctx.Value(ContextKey(paramContextKeyPrefix + name)).(string); ok {
		return value
	}
	return ""
}
