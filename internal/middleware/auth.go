package middleware

import (
	"net/http"
	"strings"

	"github.com/Yearfield/lorien/internal/auth"
	"github.com/Yearfield/lorien/internal/httputil"
)

// Auth validates the bearer token and stores the actor identity in the
// request context. When verifier is nil (dev environments without a JWKS
// endpoint configured) the actor is taken from the X-Actor header, falling
// back to "dev".
func Auth(verifier auth.JWTVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				actor := r.Header.Get("X-Actor")
				if actor == "" {
					actor = "dev"
				}
				next.ServeHTTP(w, httputil.WithActor(r, actor))
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, httputil.WithActor(r, claims.Subject))
		})
	}
}
