package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFHeader carries the token on responses and form posts.
const CSRFHeader = "X-CSRF-Token"

// CSRF protects cookie-authenticated form posts with gorilla/csrf. An empty
// key disables the check. JSON requests are exempt: browsers cannot send them
// cross-site without a CORS preflight.
func CSRF(authKey []byte, secure bool, trustedOrigins []string) gin.HandlerFunc {
	if len(authKey) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	protect := csrf.Protect(
		authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFHeader),
		csrf.TrustedOrigins(trustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"Forbidden - invalid CSRF token"}`))
		})),
	)

	return func(c *gin.Context) {
		if strings.HasPrefix(c.ContentType(), "application/json") {
			c.Next()
			return
		}
		req := c.Request
		if !secure {
			req = csrf.PlaintextHTTPRequest(req)
		}
		passed := false
		protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			if token := csrf.Token(r); token != "" {
				c.Header(CSRFHeader, token)
			}
			c.Next()
		})).ServeHTTP(c.Writer, req)
		if !passed {
			c.Abort()
		}
	}
}
