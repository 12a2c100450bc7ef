package websocket

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// serveWebsocket upgrades the request and runs the client's pumps until it disconnects.
func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		s.logger.WithError(err).WithField("origin", r.Header.Get("Origin")).Warn("websocket upgrade failed")
		return
	}

	client := newClient(s.hub, conn, s.logger)
	if !s.hub.add(client) {
		_ = conn.Close()
		return
	}

	// Send the current state immediately upon connection.
	client.queue(s.controls.DisplayState())

	go client.writePump()
	client.readPump()
}

// serveRoot handles websocket upgrades and answers plain HTTP on "/" with 426.
func (s *Server) serveRoot(w http.ResponseWriter, r *http.Request) {
	isWebSocket := strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")

	if isWebSocket {
		s.serveWebsocket(w, r)
		return
	}
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Upgrade", "websocket")
	w.Header().Set("Connection", "Upgrade")
	w.WriteHeader(http.StatusUpgradeRequired)
	if _, err := w.Write([]byte("426 Upgrade Required")); err != nil {
		s.logger.WithError(err).Warn("failed to write upgrade required response")
	}
}

// healthHandler reports liveness along with whether monitoring is running.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	state := s.controls.DisplayState()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"monitoring": state.Monitoring,
		"clients":    s.hub.Clients(),
	})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.controls.DisplayState())
}

// monitoringHandler returns a handler that forwards a start or stop request to the app.
func (s *Server) monitoringHandler(request func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		request()
		s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Warn("failed to write response")
	}
}

func newUpgrader(originAllowed func(string) bool) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"))
		},
	}
}
