package middleware

import (
	"net/http"

	"github.com/rustream/server/internal/auth"
)

const sessionCookieName = "session_token"
const detailCookieName = "detail"

// SessionAuth verifies the session_token cookie on every request and
// injects an AuthContext on success, generalizing the teacher's bearer-
// token JWTAuth middleware to RuStream's encrypted-cookie session scheme.
type SessionAuth struct {
	authenticator *auth.Authenticator
	secureCookie  bool
}

func NewSessionAuth(a *auth.Authenticator, secureCookie bool) *SessionAuth {
	return &SessionAuth{authenticator: a, secureCookie: secureCookie}
}

// Require redirects to /error with a short-lived detail cookie unless the
// request carries a valid, unexpired session cookie, matching the 302
// InvalidSession behavior spec.md §4.7/§7 mandates for every protected
// handler.
func (m *SessionAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, ok := m.verify(r)
		if !ok {
			http.SetCookie(w, &http.Cookie{
				Name:     detailCookieName,
				Value:    result.Detail,
				Path:     "/error",
				HttpOnly: true,
				MaxAge:   3,
				Secure:   m.secureCookie,
			})
			http.Redirect(w, r, "/error", http.StatusFound)
			return
		}
		ctx := WithAuthContext(r.Context(), &AuthContext{Username: result.Username})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional attaches an AuthContext when the cookie is valid but does not
// reject the request otherwise, for routes like the login page that
// behave differently for already-authenticated visitors.
func (m *SessionAuth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if result, ok := m.verify(r); ok {
			ctx := WithAuthContext(r.Context(), &AuthContext{Username: result.Username})
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func (m *SessionAuth) verify(r *http.Request) (auth.TokenResult, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	value := ""
	if err == nil {
		value = cookie.Value
	}
	result := m.authenticator.VerifyToken(value)
	return result, result.OK
}
