package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/livevlm/vlm-relay/internal/app/api/core/respond"
	"github.com/livevlm/vlm-relay/internal/app/api/v0/model"
)

type authenticationHandler struct {
	token string
}

// NewAuthenticationHandler returns the bearer-token authenticator for the
// management API. If the configured token is empty, authentication is disabled
// and all requests pass.
func NewAuthenticationHandler(token string) authenticationHandler {
	return authenticationHandler{
		token: token,
	}
}

// LoggedIn checks if the request carries a valid API token.
func (h authenticationHandler) LoggedIn() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h.token == "" {
				next.ServeHTTP(w, r) // authentication is disabled
				return
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				// Abort the request with the appropriate error code
				respond.JSON(w, http.StatusUnauthorized,
					model.Error{Code: http.StatusUnauthorized, Message: "missing credentials"})
				return
			}

			if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(h.token)) != 1 {
				// Abort the request with the appropriate error code
				respond.JSON(w, http.StatusUnauthorized,
					model.Error{Code: http.StatusUnauthorized, Message: "invalid api token"})
				return
			}

			// Continue down the chain to the handler
			next.ServeHTTP(w, r)
		})
	}
}
