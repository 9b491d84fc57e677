package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketsphere/marketsphere/internal/core/auth"
	"github.com/marketsphere/marketsphere/internal/core/domain"
)

// =============================================================================
// Test Helpers
// =============================================================================

// testHandler is a simple handler that returns the auth context from request.
func testHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.FromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"authenticated": ctx.Authenticated,
			"user_id":       ctx.UserID,
			"role":          string(ctx.Role),
		})
	})
}

func serve(t *testing.T, h http.Handler, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("GET", "/api/v1/stores", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

// =============================================================================
// AuthMiddleware Tests
// =============================================================================

func TestAuthMiddleware_HeaderMode_ExtractsContext(t *testing.T) {
	m := NewAuthMiddleware(AuthConfig{Mode: ModeHeader})

	rec, resp := serve(t, m.Handler(testHandler()), map[string]string{
		"X-User-ID":   "user_123",
		"X-User-Role": "merchant",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["authenticated"])
	assert.Equal(t, "user_123", resp["user_id"])
	assert.Equal(t, "MERCHANT", resp["role"])
}

func TestAuthMiddleware_HeaderMode_NoHeaders(t *testing.T) {
	m := NewAuthMiddleware(AuthConfig{Mode: ModeHeader})

	rec, resp := serve(t, m.Handler(testHandler()), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["authenticated"])
}

func TestAuthMiddleware_EmptyMode_DefaultsToHeader(t *testing.T) {
	m := NewAuthMiddleware(AuthConfig{})

	_, resp := serve(t, m.Handler(testHandler()), map[string]string{"X-User-ID": "user_123"})

	assert.Equal(t, true, resp["authenticated"])
	assert.Equal(t, "", resp["role"])
}

func TestAuthMiddleware_ModeNone_IgnoresHeaders(t *testing.T) {
	m := NewAuthMiddleware(AuthConfig{Mode: ModeNone})

	_, resp := serve(t, m.Handler(testHandler()), map[string]string{"X-User-ID": "user_123"})

	assert.Equal(t, false, resp["authenticated"])
}

func TestAuthMiddleware_DevMode(t *testing.T) {
	m := NewAuthMiddleware(AuthConfig{Mode: ModeDev})

	_, resp := serve(t, m.Handler(testHandler()), nil)
	assert.Equal(t, true, resp["authenticated"])
	assert.Equal(t, DevUserID, resp["user_id"])
	assert.Equal(t, "MERCHANT", resp["role"])

	_, resp = serve(t, m.Handler(testHandler()), map[string]string{
		"X-User-ID":   "customer-7",
		"X-User-Role": "CUSTOMER",
	})
	assert.Equal(t, "customer-7", resp["user_id"])
	assert.Equal(t, "CUSTOMER", resp["role"])
}

func TestAuthMiddleware_DevMode_CustomRole(t *testing.T) {
	m := NewAuthMiddleware(AuthConfig{Mode: ModeDev, DevRole: domain.RoleAssociation})

	_, resp := serve(t, m.Handler(testHandler()), nil)
	assert.Equal(t, "ASSOCIATION", resp["role"])
}

func TestAuthMiddleware_SharedSecret(t *testing.T) {
	m := NewAuthMiddleware(AuthConfig{Mode: ModeHeader, SharedSecret: "s3cret"})
	h := m.Handler(testHandler())

	rec, _ := serve(t, h, map[string]string{
		"X-Gateway-Secret": "s3cret",
		"X-User-ID":        "user_123",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp := serve(t, h, map[string]string{
		"X-Gateway-Secret": "wrong",
		"X-User-ID":        "user_123",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", resp["code"])

	rec, _ = serve(t, h, map[string]string{"X-User-ID": "user_123"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// =============================================================================
// RequireAuth Tests
// =============================================================================

func TestRequireAuth_Authenticated(t *testing.T) {
	m := NewAuthMiddleware(AuthConfig{Mode: ModeHeader})
	h := m.Handler(RequireAuth(nil)(testHandler()))

	rec, resp := serve(t, h, map[string]string{"X-User-ID": "user_123"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user_123", resp["user_id"])
}

func TestRequireAuth_Unauthenticated(t *testing.T) {
	m := NewAuthMiddleware(AuthConfig{Mode: ModeHeader})
	h := m.Handler(RequireAuth(nil)(testHandler()))

	rec, resp := serve(t, h, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", resp["code"])
	assert.Equal(t, "authentication required", resp["error"])
}

func TestRequireAuth_ModeNone_StillRequires(t *testing.T) {
	m := NewAuthMiddleware(AuthConfig{Mode: ModeNone})
	h := m.Handler(RequireAuth(nil)(testHandler()))

	rec, _ := serve(t, h, map[string]string{"X-User-ID": "user_123"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWriteJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSONError(rec, http.StatusTeapot, "short and stout", "teapot")

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "short and stout", resp.Error)
	assert.Equal(t, "teapot", resp.Code)
}
