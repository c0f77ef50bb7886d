package update

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mtckit/mtckit/internal/logging"
)

// UpdatePath is the endpoint the module's updater connects to.
const UpdatePath = "/service/update"

// DefaultChunkSize matches the transfer unit observed in captures of
// the vendor's update sessions.
const DefaultChunkSize = 4096

// Config holds the delivery server configuration.
type Config struct {
	Host      string
	Port      int
	ChunkSize int
	LogLevel  string
}

// Server delivers a staged firmware image to connecting modules.
type Server struct {
	config *Config
	staged *StagedImage

	httpSrv  *http.Server
	upgrader websocket.Upgrader

	wg       sync.WaitGroup
	mu       sync.Mutex
	sessions map[string]*websocket.Conn
}

// New creates a delivery server for the staged image.
func New(config *Config, staged *StagedImage) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if staged == nil || staged.Size() == 0 {
		return nil, fmt.Errorf("no firmware image staged")
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}

	return &Server{
		config: config,
		staged: staged,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The module's updater sends no Origin header; browsers are
			// not a client of this service.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sessions: make(map[string]*websocket.Conn),
	}, nil
}

// Handler returns the HTTP handler serving the update endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(UpdatePath, s.handleUpdate)
	return mux
}

// Start listens and blocks until a shutdown signal or a listener error.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Starting firmware update delivery server",
		zap.String("addr", addr),
		zap.String("image", s.staged.Name),
		zap.String("version", s.staged.Version),
		zap.Int("size", s.staged.Size()),
		zap.String("sha256", s.staged.SHA256),
		zap.Int("chunk_size", s.config.ChunkSize),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return fmt.Errorf("listener failed: %w", err)
	}
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("WebSocket upgrade failed",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}

	logging.LogConnection(remoteAddr, "connected")

	s.mu.Lock()
	s.sessions[remoteAddr] = conn
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			_ = conn.Close()
			s.mu.Lock()
			delete(s.sessions, remoteAddr)
			s.mu.Unlock()
			logging.LogConnection(remoteAddr, "disconnected")
		}()

		if err := s.runSession(conn, remoteAddr); err != nil {
			logging.Error("Update session failed",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
		}
	}()
}

// Shutdown stops accepting connections, closes active sessions and
// waits for their goroutines to drain.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down update server...")

	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}

	s.mu.Lock()
	for addr, conn := range s.sessions {
		logging.Info("Closing active session", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	logging.Info("Update server stopped")
	return err
}
