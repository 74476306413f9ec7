package domain

import (
	"context"
	"time"
)

// Principal holds the claims decoded from a validated token. It is scoped to
// a single request.
type Principal struct {
	Subject   string
	Role      Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type principalCtxKey struct{}

// ContextWithPrincipal returns a child of ctx carrying p.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext returns the authenticated caller of the current
// request, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(*Principal)
	if !ok || p == nil || p.Subject == "" {
		return nil, false
	}
	return p, true
}
