package shared

import "context"

type orgContextKey struct{}

// Scope carries the organization context every core operation runs under.
type Scope struct {
	OrganizationID int64
	UserID         int64
}

// ContextWithScope stores the organization scope in context.
func ContextWithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, orgContextKey{}, scope)
}

// ScopeFromContext extracts the organization scope from context.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	scope, ok := ctx.Value(orgContextKey{}).(Scope)
	return scope, ok
}

// RequireScope returns the scope or ErrForbidden when it is absent or does
// not match the requested organization.
func RequireScope(ctx context.Context, orgID int64) (Scope, error) {
	scope, ok := ScopeFromContext(ctx)
	if !ok || scope.OrganizationID == 0 {
		return Scope{}, ErrForbidden
	}
	if orgID != 0 && scope.OrganizationID != orgID {
		return Scope{}, ErrForbidden
	}
	return scope, nil
}
