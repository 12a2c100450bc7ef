package websocket

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

// Controls is the part of the application the server exposes over HTTP.
type Controls interface {
	DisplayState() DisplayState
	StartMonitoring()
	StopMonitoring()
}

// Server serves the status endpoints and pushes display updates to websocket clients.
type Server struct {
	addr       string
	httpServer *http.Server
	hub        *Hub
	controls   Controls
	upgrader   websocket.Upgrader
	logger     *logrus.Entry
}

// NewServer creates a new, fully configured status server. An empty allow-list accepts every origin.
func NewServer(addr string, allowedOrigins []string, controls Controls, logger *logrus.Entry) *Server {
	originAllowed := func(origin string) bool {
		if len(allowedOrigins) == 0 {
			return true
		}
		return slices.Contains(allowedOrigins, origin)
	}

	return &Server{
		addr:     addr,
		hub:      NewHub(logger.WithField("component", "hub")),
		controls: controls,
		upgrader: newUpgrader(originAllowed),
		logger:   logger,
	}
}

// Broadcast pushes a display update to every connected client.
func (s *Server) Broadcast(state DisplayState) {
	s.hub.Broadcast(state)
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/status", s.statusHandler)
	mux.HandleFunc("/monitoring/start", s.monitoringHandler(s.controls.StartMonitoring))
	mux.HandleFunc("/monitoring/stop", s.monitoringHandler(s.controls.StopMonitoring))
	mux.HandleFunc("/", s.serveRoot)
	return mux
}

// Run starts the hub and the http server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		s.hub.Run(ctx)
	})
	wg.Go(func() {
		<-ctx.Done()
		s.logger.Info("shutdown signal received, stopping http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Error("http server shutdown error")
		}
	})

	s.logger.WithField("addr", s.addr).Info("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	wg.Wait()
	return nil
}
