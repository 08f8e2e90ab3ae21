package auth

import (
	"context"
	"net/http"
)

// contextKey is unexported so only this package can read or write the user
// ID in a request context; a plain string key could be shadowed by any
// package that guesses it.
type contextKey string

const userIDKey contextKey = "userID"

// CookieName is the HttpOnly cookie carrying the session token.
const CookieName = "token"

// RequireAuth blocks requests that don't carry a valid session token.
//
// It reads the JWT from the token cookie, validates it, and stores the user
// ID in the request context for handlers downstream. Missing or invalid
// tokens get 401 and the chain stops.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user's ID, or ("", false) for
// an anonymous request.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID reads the session cookie and validates the token inside it.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		// http.ErrNoCookie: anonymous request
		return "", err
	}

	return tokens.Validate(cookie.Value)
}
