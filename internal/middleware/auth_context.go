package middleware

import "context"

type contextKey string

const authContextKey contextKey = "auth_context"

// AuthContext holds the authenticated user's identity for the lifetime of
// a request, set by the session-cookie verification middleware.
type AuthContext struct {
	Username string
}

// GetAuthContext retrieves the AuthContext stashed by the session
// middleware, if the request carried a valid cookie.
func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	val, ok := ctx.Value(authContextKey).(*AuthContext)
	return val, ok
}

// WithAuthContext attaches an AuthContext to ctx.
func WithAuthContext(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}
