// Package healthcheck provides a minimal web server for container health probes.
// It runs besides the management API so that probes keep working even if the
// API is protected or bound to a TLS listener.
package healthcheck

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"
)

type service struct {
	listenAddress string
	checkFunc     func() int
}

type Option func(svc *service)

// New creates a new healthcheck instance that can be started with either
// StartWithContext() or StartForeground(). Without options, the server listens
// on ":11223" and always reports healthy.
func New(opts ...Option) *service {
	svc := &service{
		listenAddress: ":11223",
		checkFunc: func() int {
			return http.StatusOK
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// StartForeground runs the healthcheck webserver. The function blocks until the
// context gets canceled or the server crashes.
func (s *service) StartForeground(ctx context.Context) {
	router := http.NewServeMux()
	router.Handle("/health", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(s.checkFunc())
	}))

	srv := &http.Server{
		Addr:         s.listenAddress,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	srvContext, cancelFn := context.WithCancel(ctx)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("[HEALTHCHECK] web service exited", "address", s.listenAddress, "error", err)
			cancelFn()
		}
	}()
	slog.Info("[HEALTHCHECK] started web service", "address", s.listenAddress)

	// Wait for the main context to end, this call blocks
	<-srvContext.Done()

	// 1-second grace period
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	srv.SetKeepAlivesEnabled(false) // disable keep-alive kills idle connections
	_ = srv.Shutdown(shutdownCtx)

	slog.Debug("[HEALTHCHECK] web service stopped")
}

// StartWithContext starts a background goroutine with the healthcheck webserver.
// The goroutine will be stopped if the context gets canceled or the server crashes.
func (s *service) StartWithContext(ctx context.Context) {
	go s.StartForeground(ctx)
}

// ListenOn allows to change the default listening address of ":11223".
func ListenOn(addr string) Option {
	return func(svc *service) {
		svc.listenAddress = addr
	}
}

// WithCustomCheck allows to use a custom check function. The integer return
// value of the check function is used as HTTP status code.
func WithCustomCheck(fnc func() int) Option {
	return func(svc *service) {
		if fnc != nil {
			svc.checkFunc = fnc
		}
	}
}

// ListenOnFromEnv sets the listening address from the environment variable
// HC_LISTEN_ADDR, or from the variable named by the first argument. If the
// variable is empty, the listening address is not overridden.
func ListenOnFromEnv(envName ...string) Option {
	return func(svc *service) {
		varName := "HC_LISTEN_ADDR"
		if len(envName) > 0 {
			varName = envName[0]
		}

		listenAddr := os.Getenv(varName)
		if listenAddr != "" {
			svc.listenAddress = listenAddr
		}
	}
}
