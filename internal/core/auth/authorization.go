package auth

import "github.com/marketsphere/marketsphere/internal/core/domain"

// =============================================================================
// Store Authorization
// =============================================================================

// CanManageStore checks if the user owns the store.
func CanManageStore(ctx Context, store domain.Store) bool {
	return ctx.Authenticated && store.OwnerID == ctx.UserID
}

// CanViewStore checks if the user can see the store. Approved stores are
// public; others are visible to their owner only.
func CanViewStore(ctx Context, store domain.Store) bool {
	if store.IsPublic() {
		return true
	}
	return CanManageStore(ctx, store)
}

// =============================================================================
// Market Authorization
// =============================================================================

// CanCreateMarket checks if the user may create markets.
// Only association accounts manage markets.
func CanCreateMarket(ctx Context) bool {
	return ctx.HasRole(domain.RoleAssociation)
}

// CanViewMarketDashboard checks if the user may see a market's dashboard.
func CanViewMarketDashboard(ctx Context) bool {
	return ctx.HasRole(domain.RoleAssociation)
}

// =============================================================================
// Favorite Authorization
// =============================================================================

// CanDeleteFavorite checks if the user owns the favorite.
func CanDeleteFavorite(ctx Context, fav domain.Favorite) bool {
	return ctx.Authenticated && fav.UserID == ctx.UserID
}

// =============================================================================
// Generic Helpers
// =============================================================================

// RequireAuthentication checks if the context is authenticated.
// Returns (true, "") if authenticated, or (false, "authentication required") if not.
func RequireAuthentication(ctx Context) (bool, string) {
	if !ctx.Authenticated {
		return false, "authentication required"
	}
	return true, ""
}
