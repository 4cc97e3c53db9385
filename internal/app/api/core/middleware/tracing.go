package middleware

import (
	"context"
	"math/rand"
	"net/http"
)

// RequestIdHeader is the name of the request id header, for both the incoming
// request and the response.
const RequestIdHeader = "X-Request-Id"

const (
	idCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength  = 8
)

type requestIdKey struct{}

// RequestId assigns a random id to every request. If the client already sent
// an id in the request header, that id is reused. The id is written to the
// response header and stored in the request context.
func RequestId(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIdHeader)
		if id == "" {
			id = randomId(idLength)
		}

		w.Header().Set(RequestIdHeader, id)

		ctx := context.WithValue(r.Context(), requestIdKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIdFromContext returns the id assigned by the RequestId middleware, or
// an empty string if the middleware did not run.
func RequestIdFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIdKey{}).(string)
	return id
}

func randomId(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = idCharset[rand.Intn(len(idCharset))]
	}
	return string(b)
}
