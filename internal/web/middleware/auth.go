package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/JonMunkholm/fits/internal/config"
	"github.com/JonMunkholm/fits/internal/fits"
	"github.com/JonMunkholm/fits/internal/logging"
)

var (
	missingKey = fits.UserMessage{
		Message: "Missing API key",
		Action:  "Send a key in the X-API-Key header",
		Code:    "AUTH001",
	}
	invalidKey = fits.UserMessage{
		Message: "Invalid API key",
		Action:  "Check the key in the X-API-Key header",
		Code:    "AUTH002",
	}
)

// APIKeyAuth checks X-API-Key against cfg.APIKeys. When RequireAPIKey is
// false every request passes; when it is true with no keys configured every
// request is rejected.
func APIKeyAuth(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	keys := make([][]byte, len(cfg.APIKeys))
	for i, k := range cfg.APIKeys {
		keys[i] = []byte(k)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			logger := logging.FromContext(r.Context())
			key := r.Header.Get("X-API-Key")
			if key == "" {
				logger.Warn("auth: missing API key", "path", r.URL.Path, "ip", ClientIP(r))
				writeError(w, http.StatusUnauthorized, missingKey)
				return
			}
			if !validKey([]byte(key), keys) {
				logger.Warn("auth: invalid API key", "path", r.URL.Path, "ip", ClientIP(r))
				writeError(w, http.StatusForbidden, invalidKey)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// validKey compares against every key so timing does not reveal which one
// matched.
func validKey(key []byte, keys [][]byte) bool {
	valid := 0
	for _, k := range keys {
		valid |= subtle.ConstantTimeCompare(key, k)
	}
	return valid == 1
}
