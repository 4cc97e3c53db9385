// Package middleware contains the HTTP middlewares of the relay API server.
package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
)

// Recovery recovers from panics in downstream handlers and turns them into an
// Internal Server Error response. It should be the first middleware in the
// chain so that it also covers panics in other middlewares.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}

				// a broken connection is not worth a stack trace
				if isBrokenPipeError(err) {
					slog.Debug("connection broke during request", "error", err,
						"method", r.Method, "path", r.URL.Path)
					return
				}

				slog.Error("recovered from panic in http handler", "error", err,
					"method", r.Method, "path", r.URL.Path, "stack", string(debug.Stack()))

				body, _ := json.Marshal(map[string]any{"error": "Internal Server Error"})
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write(body)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func isBrokenPipeError(err error) bool {
	var syscallErr *os.SyscallError
	if errors.As(err, &syscallErr) {
		msg := strings.ToLower(syscallErr.Err.Error())
		return strings.Contains(msg, "broken pipe") ||
			strings.Contains(msg, "connection reset by peer")
	}

	return false
}
