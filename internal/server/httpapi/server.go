// Package httpapi exposes the user and entry services over the REST
// contract spoken by the custom remote provider.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/threeline/internal/logging"
	"github.com/dmitrijs2005/threeline/internal/server/models"
	"github.com/dmitrijs2005/threeline/internal/server/services"
)

const (
	maxBodyBytes      = 4 << 20
	readHeaderTimeout = 10 * time.Second
)

// Users is the account surface used by the handlers.
type Users interface {
	Register(ctx context.Context, email, password string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	LoginWithIdentity(ctx context.Context, provider, token string) (*services.AuthResult, error)
	Authenticate(token string) (string, error)
}

// Entries is the sync surface used by the handlers.
type Entries interface {
	Pull(ctx context.Context, userID string, since int64) ([]models.Entry, int64, error)
	Push(ctx context.Context, userID string, list []models.Entry) (int, error)
}

type HTTPServer struct {
	address         string
	users           Users
	entries         Entries
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewHTTPServer(address string, l logging.Logger, us Users, es Entries, shutdownTimeout time.Duration) *HTTPServer {
	return &HTTPServer{
		address:         address,
		logger:          l.With("module", "http_server"),
		users:           us,
		entries:         es,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(sctx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}

// Handler returns the routed handler wrapped in request logging.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("POST /auth/email/register", s.register)
	mux.HandleFunc("POST /auth/email/login", s.loginEmail)
	mux.HandleFunc("POST /auth/{provider}/login", s.loginIdentity)
	mux.Handle("GET /entries/pull", s.authenticated(s.pull))
	mux.Handle("POST /entries/push", s.authenticated(s.push))

	return s.logRequests(mux)
}
