package server

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/hazyhaar/odfpack/kit"
	"github.com/hazyhaar/odfpack/shield"
)

// dummyHash keeps unknown-user checks as slow as wrong-password checks.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("odfpack"), bcrypt.DefaultCost)

// basicAuth checks HTTP Basic credentials against bcrypt hashes keyed by
// user name. The authenticated user is stored with kit.WithUser.
func basicAuth(users map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if ok {
				hash, known := users[user]
				if !known {
					hash = string(dummyHash)
				}
				err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
				if known && err == nil {
					next.ServeHTTP(w, r.WithContext(kit.WithUser(r.Context(), user)))
					return
				}
				shield.GetLogger(r.Context()).Warn("auth: rejected credentials", "user", user)
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="odfpack", charset="UTF-8"`)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		})
	}
}
