package middleware

import (
	"crypto/subtle"
	"net/http"

	"aoe-companion-api/pkg/apierror"
	"aoe-companion-api/pkg/response"
)

// APIKeyHeader is the header clients send the key in.
const APIKeyHeader = "X-API-Key"

// AuthConfig holds the auth middleware dependencies.
type AuthConfig struct {
	// APIKey protects the API when non-empty. An empty key disables auth,
	// which is the normal single-user development setup.
	APIKey string
}

// NewAuthMiddleware creates an API-key check middleware.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.APIKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get(APIKeyHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.APIKey)) != 1 {
				response.Error(w, apierror.Unauthorized("invalid or missing API key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
