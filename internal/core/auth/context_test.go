package auth

import (
	"context"
	"encoding/base64"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/marketsphere/marketsphere/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ExtractFromHeaders Tests
// =============================================================================

func TestExtractFromHeaders_Unauthenticated(t *testing.T) {
	ctx := ExtractFromHeaders(MapHeaderGetter{})

	assert.False(t, ctx.Authenticated)
	assert.Empty(t, ctx.UserID)
}

func TestExtractFromHeaders_Authenticated(t *testing.T) {
	headers := MapHeaderGetter{
		HeaderUserID:   "user_12345",
		HeaderUserRole: "merchant",
	}
	ctx := ExtractFromHeaders(headers)

	assert.True(t, ctx.Authenticated)
	assert.Equal(t, "user_12345", ctx.UserID)
	assert.Equal(t, domain.RoleMerchant, ctx.Role)
}

func TestExtractFromHeaders_UnknownRoleDropped(t *testing.T) {
	ctx := ExtractFromHeaders(MapHeaderGetter{
		HeaderUserID:   "user_12345",
		HeaderUserRole: "superuser",
	})

	assert.True(t, ctx.Authenticated)
	assert.Empty(t, ctx.Role)
}

func makeToken(t *testing.T, claims map[string]string) string {
	t.Helper()
	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString([]byte("gateway-key"))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestExtractFromHeaders_BearerToken(t *testing.T) {
	ctx := ExtractFromHeaders(MapHeaderGetter{
		"Authorization": makeToken(t, map[string]string{"sub": "user_jwt", "role": "ASSOCIATION"}),
	})

	assert.True(t, ctx.Authenticated)
	assert.Equal(t, "user_jwt", ctx.UserID)
	assert.Equal(t, domain.RoleAssociation, ctx.Role)
}

func TestExtractFromHeaders_MalformedBearer(t *testing.T) {
	tests := []string{
		"Bearer not-a-jwt",
		"Bearer a.!!!.c",
		"Basic dXNlcjpwYXNz",
		"Bearer a." + base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"x"}`)) + ".c",
		makeToken(t, map[string]string{"role": "MERCHANT"}),
	}
	for _, h := range tests {
		ctx := ExtractFromHeaders(MapHeaderGetter{"Authorization": h})
		assert.False(t, ctx.Authenticated, h)
	}
}

func TestExtractFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderUserID, "user_1")

	ctx := ExtractFromRequest(r)
	assert.True(t, ctx.Authenticated)
	assert.Equal(t, "user_1", ctx.UserID)
}

// =============================================================================
// Context Storage Tests
// =============================================================================

func TestContextRoundTrip(t *testing.T) {
	authCtx := Context{UserID: "user_1", Role: domain.RoleCustomer, Authenticated: true}
	ctx := WithContext(context.Background(), authCtx)

	assert.Equal(t, authCtx, FromContext(ctx))
}

func TestFromContext_Missing(t *testing.T) {
	assert.False(t, FromContext(context.Background()).Authenticated)
}
