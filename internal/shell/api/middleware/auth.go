// Package middleware provides HTTP middleware for the MarketSphere API.
// Identity comes from the external auth provider through a gateway that
// injects X-User-ID / X-User-Role headers.
package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/marketsphere/marketsphere/internal/core/auth"
	"github.com/marketsphere/marketsphere/internal/core/domain"
)

// =============================================================================
// Auth Configuration
// =============================================================================

// Auth modes.
const (
	ModeHeader = "header"
	ModeDev    = "dev"
	ModeNone   = "none"
)

// DevUserID is the identity every request receives in dev mode.
const DevUserID = "dev-user"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// Mode is "header" (default), "dev" or "none".
	//   header: read identity from gateway headers
	//   dev:    authenticate every request as DevUserID with DevRole
	//   none:   leave every request unauthenticated
	Mode string

	// SharedSecret is an optional secret to validate X-Gateway-Secret header.
	// If empty, secret validation is skipped.
	SharedSecret string

	// DevRole is the role used in dev mode. Defaults to MERCHANT.
	DevRole domain.Role

	// Logger for auth middleware logging.
	Logger *slog.Logger
}

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware extracts authentication context from gateway headers
// and stores it in the request context.
type AuthMiddleware struct {
	config AuthConfig
}

// NewAuthMiddleware creates a new auth middleware with the given config.
func NewAuthMiddleware(cfg AuthConfig) *AuthMiddleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeHeader
	}
	if !cfg.DevRole.IsValid() {
		cfg.DevRole = domain.RoleMerchant
	}
	return &AuthMiddleware{config: cfg}
}

// Handler returns the middleware handler function.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ctx auth.Context

		switch m.config.Mode {
		case ModeNone:
			ctx = auth.Context{}
		case ModeDev:
			ctx = auth.Context{
				UserID:        DevUserID,
				Role:          m.config.DevRole,
				Authenticated: true,
			}
			// Headers still win so several dev identities can be exercised.
			if fromHeaders := auth.ExtractFromRequest(r); fromHeaders.Authenticated {
				ctx = fromHeaders
			}
		default:
			if m.config.SharedSecret != "" && !validSecret(r.Header.Get(auth.HeaderGatewaySecret), m.config.SharedSecret) {
				m.config.Logger.Warn("invalid gateway secret",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				writeJSONError(w, http.StatusForbidden, "invalid gateway secret", "forbidden")
				return
			}
			ctx = auth.ExtractFromRequest(r)
		}

		r = r.WithContext(auth.WithContext(r.Context(), ctx))
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Require Auth Middleware
// =============================================================================

// RequireAuth is a middleware that requires authentication.
// Must be used AFTER AuthMiddleware.
func RequireAuth(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.FromContext(r.Context())

			if !ctx.Authenticated {
				logger.Warn("unauthenticated request to protected endpoint",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
				)
				writeJSONError(w, http.StatusUnauthorized, "authentication required", "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// JSON Error Response
// =============================================================================

// ErrorResponse mirrors the API error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSONError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}

func validSecret(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
