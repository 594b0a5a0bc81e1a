package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/nerrad567/bitswitch-core/internal/session"
)

// upgrader configures the WebSocket upgrader. Device firmware does not
// send an Origin header; browser clients are covered by the CORS
// middleware, so the upgrade itself accepts any origin.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// handleDeviceWS upgrades the connection and attaches it to the device's
// session set. The server only pushes; client messages beyond keep-alive
// are read and discarded.
func (s *Server) handleDeviceWS(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")

	if _, err := s.registry.Get(r.Context(), deviceID); err != nil {
		writeDomainError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "device_id", deviceID, "error", err)
		return
	}

	sess := s.sessions.Attach(deviceID)
	s.logger.Info("device session opened", "device_id", deviceID, "session_id", sess.ID)

	go s.writePump(conn, sess)
	go s.readPump(conn, sess)
}

// readPump drains inbound frames. Their content is ignored; reading
// serves to detect closure and to reset the keep-alive deadline.
func (s *Server) readPump(conn *websocket.Conn, sess *session.Session) {
	defer func() {
		s.sessions.Detach(sess)
		conn.Close()
	}()

	pingInterval := time.Duration(s.wsCfg.PingInterval) * time.Second
	pongWait := time.Duration(s.wsCfg.PongTimeout) * time.Second

	conn.SetReadLimit(int64(s.wsCfg.MaxMessageSize))
	//nolint:errcheck // Best-effort deadline on connection setup
	conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("device session read error", "device_id", sess.DeviceID, "error", err)
			} else {
				s.logger.Debug("device session closed", "device_id", sess.DeviceID, "error", err)
			}
			return
		}
		// Any client message resets the read deadline; firmware that
		// cannot answer protocol pings can send anything to stay alive.
		//nolint:errcheck // Best-effort deadline reset
		conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	}
}

// writePump forwards queued trigger payloads and sends protocol pings.
func (s *Server) writePump(conn *websocket.Conn, sess *session.Session) {
	pingInterval := time.Duration(s.wsCfg.PingInterval) * time.Second
	pongWait := time.Duration(s.wsCfg.PongTimeout) * time.Second

	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.sessions.Detach(sess)
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-sess.Send():
			if !ok {
				// Registry detached the session.
				//nolint:errcheck // Best-effort close message
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
