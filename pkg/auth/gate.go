package auth

import "net/http"

// Drink menu permissions.
const (
	ScopeGetDrinksDetail = "get:drinks-detail"
	ScopePostDrinks      = "post:drinks"
	ScopePatchDrinks     = "patch:drinks"
	ScopeDeleteDrinks    = "delete:drinks"
)

// Authorize checks that claims grant requiredScope. An empty requiredScope
// always passes.
func Authorize(claims *Claims, requiredScope string) error {
	if requiredScope == "" {
		return nil
	}
	if claims == nil || claims.Scopes == nil {
		return NewError(CodeInvalidClaims, http.StatusBadRequest, "Permissions not included in JWT.", nil)
	}
	if !claims.HasScope(requiredScope) {
		return NewError(CodeUnauthorized, http.StatusForbidden, "Permission not found.", nil)
	}
	return nil
}
