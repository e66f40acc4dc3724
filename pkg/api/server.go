package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/goran-ethernal/DonationIndexor/internal/hub"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	"github.com/goran-ethernal/DonationIndexor/pkg/api/docs"
	"github.com/goran-ethernal/DonationIndexor/pkg/config"
	"github.com/goran-ethernal/DonationIndexor/pkg/rpc"
	"github.com/goran-ethernal/DonationIndexor/pkg/store"
)

// Ensure docs are initialized
var _ = docs.SwaggerInfo

const shutdownCtxTimeout = 10 * time.Second

// Dependencies are the components served by the API.
type Dependencies struct {
	Chain       rpc.ChainClient
	Store       store.Gateway
	Indexer     IndexerStatus
	Hub         *hub.Hub
	Subscribers SubscriberCounter
	Contract    common.Address
	Contracts   map[string]string
}

// Server represents the API HTTP server.
type Server struct {
	config  *config.APIConfig
	handler *Handler
	server  *http.Server
	log     *logger.Logger
}

// NewServer creates a new API server. cfg must have defaults applied.
func NewServer(cfg *config.APIConfig, deps Dependencies, log *logger.Logger) *Server {
	if deps.Subscribers == nil && deps.Hub != nil {
		deps.Subscribers = deps.Hub
	}

	tokens := NewTokenIssuer(cfg.Auth)
	handler := NewHandler(deps, tokens, log)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health)

	mux.HandleFunc("POST /api/v1/auth/login", handler.Login)
	mux.HandleFunc("GET /api/v1/auth/verify", handler.Verify)

	mux.HandleFunc("GET /api/v1/blockchain/contracts/addresses", handler.ContractAddresses)
	mux.HandleFunc("GET /api/v1/blockchain/transaction/{txHash}", handler.Transaction)
	mux.HandleFunc("GET /api/v1/blockchain/block/latest", handler.LatestBlock)

	if deps.Hub != nil {
		opts := hub.OptionsFrom(cfg.WebSocket)
		if cfg.Auth != nil && cfg.Auth.RequireForWebSocket {
			opts.Authenticate = tokens.Authenticate
		}
		// origin policy is enforced by the CORS configuration
		opts.CheckOrigin = func(*http.Request) bool { return true }
		mux.Handle("GET /ws", hub.Handler(deps.Hub, opts, log))
	}

	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
	))

	var h http.Handler = mux
	h = RecoveryMiddleware(log)(h)
	h = LoggingMiddleware(log)(h)
	if cfg.CORS != nil {
		h = CORSMiddleware(cfg.CORS)(h)
	}

	httpServer := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
		IdleTimeout:  cfg.IdleTimeout.Duration,
	}

	return &Server{
		config:  cfg,
		handler: handler,
		server:  httpServer,
		log:     log,
	}
}

// Handler returns the root HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("API server is disabled")
		return nil
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves the API on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Infof("Starting API server on %s", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownCtxTimeout)
	defer cancel()

	s.log.Info("Shutting down API server...")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown error: %w", err)
	}

	s.log.Info("API server stopped")
	return nil
}
