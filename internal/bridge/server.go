package bridge

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/pinewood-robotics/chatbridge/internal/config"
)

// ServerConfig holds the bridge HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// ServerConfigFrom maps the root configuration onto a ServerConfig.
func ServerConfigFrom(cfg *config.Config) *ServerConfig {
	serverConfig := DefaultServerConfig()
	if cfg == nil {
		return serverConfig
	}
	if cfg.ServerHost != "" {
		serverConfig.Host = cfg.ServerHost
	}
	if cfg.ServerPort > 0 {
		serverConfig.Port = cfg.ServerPort
	}
	if cfg.ServerReadTimeout > 0 {
		serverConfig.ReadTimeout = cfg.ServerReadTimeout
	}
	if cfg.ServerWriteTimeout > 0 {
		serverConfig.WriteTimeout = cfg.ServerWriteTimeout
	}
	if cfg.ServerIdleTimeout > 0 {
		serverConfig.IdleTimeout = cfg.ServerIdleTimeout
	}
	if cfg.ServerShutdownTimeout > 0 {
		serverConfig.ShutdownTimeout = cfg.ServerShutdownTimeout
	}
	return serverConfig
}

// Server hosts the Slack events endpoint.
type Server struct {
	config       *ServerConfig
	handler      *Handler
	httpServer   *http.Server
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer creates a bridge server around the events handler.
func NewServer(serverConfig *ServerConfig, handler *Handler, logger *log.Logger) *Server {
	if serverConfig == nil {
		serverConfig = DefaultServerConfig()
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[bridge] ", log.LstdFlags)
	}
	return &Server{
		config:  serverConfig,
		handler: handler,
		logger:  logger,
	}
}

// Run starts the server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.recoverMiddleware(s.loggingMiddleware(mux)),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("Listening on %s:%d", s.config.Host, s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errChan:
		return err
	}
}

// shutdown performs graceful shutdown.
func (s *Server) shutdown() error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}
	})
	return shutdownErr
}

// setupRoutes configures HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/slack/events", s.handler)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// handleHealth reports liveness and configuration completeness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if missing := s.handler.cfg.MissingVars(); len(missing) > 0 {
		writeJSONError(w, http.StatusInternalServerError, "missing configuration")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// recoverMiddleware is the single outermost exception boundary: any panic in
// the pipeline becomes a generic 500 with detail kept out of the response.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Printf("panic handling %s %s: %v", r.Method, r.URL.Path, rec)
				recordOutcome(r.Context(), outcomeError)
				writeJSONError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
