package auth

import "context"

type claimsKey struct{}

// WithClaims stores verified token claims on ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}

func SubjectFromContext(ctx context.Context) string {
	if c, ok := ClaimsFromContext(ctx); ok {
		return c.Sub
	}
	return ""
}

// AttemptFromContext returns the attempt a candidate token is bound to; "" for
// any other role.
func AttemptFromContext(ctx context.Context) string {
	if c, ok := ClaimsFromContext(ctx); ok && c.Role == RoleCandidate {
		return c.Sub
	}
	return ""
}
