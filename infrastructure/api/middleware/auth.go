package middleware

import (
	"crypto/subtle"
	"net/http"
)

// AuthConfig holds the API keys accepted by the server. An empty key set
// disables authentication.
type AuthConfig struct {
	keys []string
}

// NewAuthConfigWithKeys creates an AuthConfig with the given keys.
func NewAuthConfigWithKeys(keys []string) AuthConfig {
	cp := make([]string, len(keys))
	copy(cp, keys)
	return AuthConfig{keys: cp}
}

// Enabled reports whether authentication is enforced.
func (c AuthConfig) Enabled() bool {
	return len(c.keys) > 0
}

// Valid reports whether the presented key matches a configured key.
func (c AuthConfig) Valid(key string) bool {
	for _, k := range c.keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

// WriteProtect returns a middleware that requires a valid X-API-KEY
// header for mutating methods. Read methods (GET, HEAD, OPTIONS) pass
// through unauthenticated.
func WriteProtect(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			if !config.Valid(r.Header.Get("X-API-KEY")) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
