package middleware

import (
	"net/http"
)

// Cors adds Cross-Origin Resource Sharing headers to the response. The relay
// API is token protected and origin agnostic, so every origin is allowed.
func Cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Preflight requests are answered directly and stop the chain, some
		// other middleware may not handle OPTIONS requests correctly.
		// https://developer.mozilla.org/en-US/docs/Web/HTTP/CORS#preflighted_requests
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			handlePreflight(w, r)
			w.WriteHeader(http.StatusNoContent) // always return 204 No Content
			return
		}

		w.Header().Add("Vary", "Origin")
		if r.Header.Get("Origin") != "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		next.ServeHTTP(w, r)
	})
}

func handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Vary", "Origin, Access-Control-Request-Method, Access-Control-Request-Headers")

	if r.Header.Get("Origin") == "" {
		return // not a valid CORS request
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", r.Header.Get("Access-Control-Request-Method"))
	if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
		// The list of request headers can be unbounded, simply returning the
		// requested headers is enough.
		w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
	}
}
