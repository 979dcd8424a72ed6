package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is unexported so no other package can read or shadow the caller
// stored in a request context.
type contextKey string

const callerKey contextKey = "callerID"

// Identify is a middleware that records the calling user when the request
// carries a valid "Authorization: Bearer <jwt>" header.
//
// It never rejects a request: a missing, malformed or expired token simply
// leaves the request anonymous. Passing a nil TokenService (no JWT secret
// configured) turns the middleware into a pass-through.
func Identify(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokens != nil {
				if userID, ok := bearerUserID(r, tokens); ok {
					r = r.WithContext(WithCaller(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithCaller returns a copy of ctx carrying userID as the caller.
func WithCaller(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, callerKey, userID)
}

// CallerFromContext returns the calling user's ID.
// Returns (0, false) for anonymous requests.
func CallerFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(callerKey).(int64)
	return id, ok && id > 0
}

func bearerUserID(r *http.Request, tokens *TokenService) (int64, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return 0, false
	}

	userID, err := tokens.Validate(strings.TrimSpace(token))
	if err != nil {
		return 0, false
	}
	return userID, true
}
