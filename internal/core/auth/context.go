// Package auth provides authentication context and authorization functions.
// Identity is established by the external auth provider; this package only
// reads what the provider forwards.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marketsphere/marketsphere/internal/core/domain"
)

// =============================================================================
// Context Key
// =============================================================================

type contextKey string

const authContextKey contextKey = "auth"

// =============================================================================
// Types
// =============================================================================

// Context represents the authentication context for a request.
type Context struct {
	// UserID is the auth provider's user ID (e.g. "user_2abc...").
	UserID string

	// Role is the MarketSphere role. When empty, role-gated handlers fall
	// back to the role stored on the user record.
	Role domain.Role

	// Authenticated indicates whether the request is authenticated
	Authenticated bool
}

// HasRole reports whether the context is authenticated with role r.
func (c Context) HasRole(r domain.Role) bool {
	return c.Authenticated && c.Role == r
}

// =============================================================================
// Header Constants
// =============================================================================

const (
	// HeaderUserID is the header containing the authenticated user's ID
	HeaderUserID = "X-User-ID"

	// HeaderUserRole is the header containing the user's role
	HeaderUserRole = "X-User-Role"

	// HeaderGatewaySecret carries the secret shared with the auth gateway
	HeaderGatewaySecret = "X-Gateway-Secret"
)

// =============================================================================
// Context Extraction
// =============================================================================

// ExtractFromRequest extracts auth context from HTTP request headers.
func ExtractFromRequest(r *http.Request) Context {
	return ExtractFromHeaders(r.Header)
}

// HeaderGetter is an interface for getting header values.
// http.Header satisfies it.
type HeaderGetter interface {
	Get(key string) string
}

// ExtractFromHeaders extracts auth context from headers.
//
// Auth sources (checked in order):
//  1. X-User-ID header (+ optional X-User-Role)
//  2. Authorization: Bearer {jwt}: decode payload, extract sub and role claims
//
// Unknown roles are dropped rather than rejected.
func ExtractFromHeaders(headers HeaderGetter) Context {
	userID := headers.Get(HeaderUserID)
	role := domain.Role(strings.ToUpper(headers.Get(HeaderUserRole)))

	if userID == "" {
		claims := parseBearer(headers.Get("Authorization"))
		if claims == nil || claims.Subject == "" {
			return Context{Authenticated: false}
		}
		userID = claims.Subject
		role = domain.Role(strings.ToUpper(claims.Role))
	}

	if !role.IsValid() {
		role = ""
	}

	return Context{
		UserID:        userID,
		Role:          role,
		Authenticated: true,
	}
}

// bearerClaims holds the fields read from a gateway-issued JWT.
type bearerClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// parseBearer reads the claims of a Bearer token without verifying its
// signature; the gateway in front of the API has validated it.
func parseBearer(authHeader string) *bearerClaims {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return nil
	}
	var claims bearerClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	return &claims
}

// =============================================================================
// Context Storage
// =============================================================================

// WithContext stores the auth context in the request context.
func WithContext(ctx context.Context, authCtx Context) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

// FromContext retrieves the auth context from the request context.
// If no auth context is found, returns an unauthenticated context.
func FromContext(ctx context.Context) Context {
	if authCtx, ok := ctx.Value(authContextKey).(Context); ok {
		return authCtx
	}
	return Context{Authenticated: false}
}

// =============================================================================
// Helper Types for Testing
// =============================================================================

// MapHeaderGetter wraps a map to implement HeaderGetter interface.
type MapHeaderGetter map[string]string

func (m MapHeaderGetter) Get(key string) string {
	return m[key]
}
