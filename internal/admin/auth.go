// Package admin hosts the super-admin console: provisioning companies and
// their users, suspending tenants, and broadcasting notifications.
package admin

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/olehkv/backend-vzuttia/internal/common"
)

// TokenAuth guards the admin routes with a static bearer token compared in
// constant time. An empty configured token disables the console entirely.
func TokenAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "not found", nil)
				return
			}
			presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid admin token", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
