package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// tokenAuth guards menu changes with a static API token.
type tokenAuth struct {
	digest []byte
}

func newTokenAuth(token string) *tokenAuth {
	if token == "" {
		return &tokenAuth{}
	}
	return &tokenAuth{digest: digest(token)}
}

func digest(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}

func (a *tokenAuth) enabled() bool {
	return a.digest != nil
}

// verify compares digests so the comparison time does not depend on where the
// provided token first differs.
func (a *tokenAuth) verify(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return false
	}
	provided := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if provided == "" {
		return false
	}
	return hmac.Equal(digest(provided), a.digest)
}

// require rejects requests without a valid token. Without a configured
// token every change is refused.
func (a *tokenAuth) require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.enabled() {
			writeError(w, http.StatusForbidden, "menu changes are disabled")
			return
		}
		if !a.verify(r) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="maestro"`)
			writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
