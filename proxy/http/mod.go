// Package http implements the proxy over HTTP with a chi router. Every request
// gets an ID, echoed in the response, and is logged once served. The CORS
// policy restricts the origins of the browsers.
package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/blitz"
	"golang.org/x/xerrors"
)

// RequestIDHeader is the header carrying the ID of a request.
const RequestIDHeader = "X-Request-Id"

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type ctxKey struct{}

// Server is a proxy serving HTTP requests.
//
// - implements proxy.Proxy
type Server struct {
	sync.Mutex

	router chi.Router
	logger zerolog.Logger
	addr   string

	srv  *http.Server
	ln   net.Listener
	done chan struct{}
}

// NewServer returns a server for the address. The CORS policy allows the
// origins, or any origin when none is given.
func NewServer(addr string, origins ...string) *Server {
	logger := blitz.Logger.With().Str("role", "http proxy").Logger()

	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := chi.NewRouter()
	router.Use(
		withRequestID(func() string { return xid.New().String() }),
		accessLog(logger),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
			ExposedHeaders: []string{RequestIDHeader},
			MaxAge:         300,
		}),
	)

	return &Server{
		router: router,
		logger: logger,
		addr:   addr,
	}
}

// Listen implements proxy.Proxy.
func (s *Server) Listen() error {
	s.Lock()
	defer s.Unlock()

	if s.ln != nil {
		return xerrors.Errorf("already listening on %s", s.ln.Addr())
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return xerrors.Errorf("failed to listen on %s: %v", s.addr, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		err := srv.Serve(ln)
		if err != nil && err != http.ErrServerClosed {
			s.logger.Err(err).Msg("server failed")
		}
	}()

	s.srv = srv
	s.ln = ln
	s.done = done

	s.logger.Info().Stringer("addr", ln.Addr()).Msg("server listening")

	return nil
}

// Close implements proxy.Proxy.
func (s *Server) Close() error {
	s.Lock()
	defer s.Unlock()

	if s.ln == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.srv.Shutdown(ctx)
	<-s.done

	s.ln = nil

	if err != nil {
		return xerrors.Errorf("failed to shut down: %v", err)
	}

	s.logger.Info().Msg("server stopped")

	return nil
}

// RegisterHandler implements proxy.Proxy.
func (s *Server) RegisterHandler(pattern string, handler http.Handler) {
	s.router.Handle(pattern, handler)
}

// GetAddr implements proxy.Proxy.
func (s *Server) GetAddr() net.Addr {
	s.Lock()
	defer s.Unlock()

	if s.ln == nil {
		return nil
	}

	return s.ln.Addr()
}

// RequestID returns the ID of the request of the context, or an empty string.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)

	return id
}

// withRequestID keeps the ID sent by the client, or creates one.
func withRequestID(newID func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = newID()
			}

			w.Header().Set(RequestIDHeader, id)

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
		})
	}
}

// accessLog writes an entry per request once it is served.
func accessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			id := RequestID(r.Context())
			if id == "" {
				id = "-"
			}

			logger.Info().
				Str("request", id).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Msg("request served")
		})
	}
}
