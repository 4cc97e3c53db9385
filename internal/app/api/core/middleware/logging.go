package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// RequestLogging logs one line per handled request, including the response
// status, the response size and the request duration. It should run after the
// RequestId middleware so that the log line carries the request id.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := newWriterWrapper(w)
		start := time.Now()

		next.ServeHTTP(ww, r)

		slog.Debug(fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			"protocol", r.Proto,
			"status", ww.StatusCode,
			"dataLength", ww.WrittenBytes,
			"duration", time.Since(start).String(),
			"clientIP", clientIP(r),
			"userAgent", r.UserAgent(),
			"requestId", RequestIdFromContext(r.Context()),
		)
	})
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}

	// no proxy header, use the remote address without the port number
	if i := strings.LastIndex(r.RemoteAddr, ":"); i != -1 {
		return r.RemoteAddr[:i]
	}

	return r.RemoteAddr
}

// writerWrapper wraps a http.ResponseWriter and tracks the status code and the
// number of bytes written to it.
type writerWrapper struct {
	http.ResponseWriter

	// StatusCode is the last code passed to WriteHeader. If no such call is
	// made, a default code of http.StatusOK is assumed.
	StatusCode int

	// WrittenBytes is the number of bytes successfully written by the Write
	// function. Headers are not included, so the count usually matches the
	// size of the response body.
	WrittenBytes int64
}

func newWriterWrapper(w http.ResponseWriter) *writerWrapper {
	return &writerWrapper{ResponseWriter: w, StatusCode: http.StatusOK}
}

func (w *writerWrapper) WriteHeader(code int) {
	w.StatusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *writerWrapper) Write(data []byte) (int, error) {
	n, err := w.ResponseWriter.Write(data)
	w.WrittenBytes += int64(n)
	return n, err
}
