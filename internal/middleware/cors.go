package middleware

import (
	"net/http"
	"regexp"
)

// Local dev servers run on arbitrary ports; allow any of them without
// having to enumerate every port in config.
var localOriginRe = regexp.MustCompile(`^http://(localhost|127\.0\.0\.1):\d+$`)

// CORS returns a middleware that reflects allowed origins back with
// credentials enabled. Origins are allowed when they appear in the
// configured list or match the localhost pattern. Preflight requests
// are answered directly.
func CORS(allowedOrigins []string) func(http.HandlerFunc) http.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	originAllowed := func(origin string) bool {
		if _, ok := allowed[origin]; ok {
			return true
		}
		return localOriginRe.MatchString(origin)
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && originAllowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Correlation-ID")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}
}
