// Package server exposes the predictions operations over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/BagasRo/predictions"
	"github.com/BagasRo/predictions/server/middleware"
	"github.com/go-michi/michi"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"
)

const (
	maxHeaderBytes    = 1 << 20
	readTimeout       = 30 * time.Second
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 30 * time.Second
	defaultRateLimit  = time.Second / 5
	defaultRateBurst  = 20
)

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	Addr           string
	RateLimit      rate.Limit
	RateBurst      int
	AllowedOrigins []string
}

type Server struct {
	Server  *http.Server
	Router  *michi.Router
	Handler *Handler

	limiter *middleware.RateLimiter
	logger  *slog.Logger
}

// NewServer builds the HTTP server around svc. Nothing listens until
// ListenAndServe or Serve is called.
func NewServer(svc *predictions.Service, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = rate.Every(defaultRateLimit)
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = defaultRateBurst
	}

	h := NewHandler(svc, logger)
	router := michi.NewRouter()
	router.Handle("GET /healthz", http.HandlerFunc(h.Healthz))
	router.Handle("PUT /predictions/{id}", http.HandlerFunc(h.PutPrediction))
	router.Handle("GET /predictions/{id}", http.HandlerFunc(h.GetPrediction))
	router.Handle("DELETE /predictions/{id}", http.HandlerFunc(h.DeletePrediction))

	limiter := middleware.NewRateLimiter(logger, middleware.IPAddressKeyFunc, opts.RateLimit, opts.RateBurst,
		middleware.WithSkipper(func(r *http.Request) bool { return r.URL.Path == "/healthz" }),
	)

	handler := applyMiddleware(router,
		middleware.WithRecovery(logger),
		middleware.WithLogger(logger),
		middleware.WithCORS(logger, opts.AllowedOrigins),
		limiter.Limit,
	)

	return &Server{
		Server: &http.Server{
			Addr:              opts.Addr,
			Handler:           h2c.NewHandler(handler, &http2.Server{}),
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      writeTimeout,
			MaxHeaderBytes:    maxHeaderBytes,
		},
		Router:  router,
		Handler: h,
		limiter: limiter,
		logger:  logger,
	}
}

// ServeHTTP implements the http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Server.Handler.ServeHTTP(w, r)
}

// ListenAndServe blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.logger.Info("predictions server listening", "addr", s.Server.Addr)
	return ignoreClosed(s.Server.ListenAndServe())
}

// Serve accepts connections on ln until the server stops.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("predictions server listening", "addr", ln.Addr().String())
	return ignoreClosed(s.Server.Serve(ln))
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Debug("shutting down server")
	defer s.limiter.Stop()
	if err := s.Server.Shutdown(ctx); err != nil {
		s.logger.Error("error shutting down server", "error", err)
		return err
	}
	return nil
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func applyMiddleware(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	// Apply middleware in reverse order so the first middleware in the slice
	// is the outermost one (first to process the request)
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
