package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

// AuthCookie is the cookie set after a successful login.
const AuthCookie = "authenticated"

// SessionToken derives the auth cookie value from the browser password.
// Changing the password invalidates every issued cookie.
func SessionToken(password string) string {
	mac := hmac.New(sha256.New, []byte(password))
	mac.Write([]byte(AuthCookie))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidToken reports whether value is the session token for password.
func ValidToken(value, password string) bool {
	return subtle.ConstantTimeCompare([]byte(value), []byte(SessionToken(password))) == 1
}

// AuthMiddleware lets a request through only when it carries a valid auth cookie.
// The login endpoints stay public. API requests get 401, pages are redirected to /login.
func AuthMiddleware(password string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		if r.URL.Path == "/login" ||
			r.URL.Path == "/auth/login" {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(AuthCookie)
		if err != nil || !ValidToken(cookie.Value, password) {
			if strings.HasPrefix(r.URL.Path, "/api/") ||
				r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Header.Get("Content-Type") == "application/json" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
