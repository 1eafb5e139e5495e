package auth

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"
)

// Middleware guards the API with a static bearer token read from
// GDRIVE_API_TOKEN. When the variable is unset the API is open. Probe and
// metrics endpoints are always reachable.
func Middleware(next http.Handler) http.Handler {
	token := os.Getenv("GDRIVE_API_TOKEN")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token == "" || skipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		// Expect: Authorization: Bearer <token>
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			http.Error(w, "missing API token", http.StatusUnauthorized)
			return
		}

		got := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			http.Error(w, "invalid API token", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func skipAuth(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics":
		return true
	}
	return false
}
