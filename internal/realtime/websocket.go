package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"example.com/fitcoach/internal/auth"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 1024
	sendBuffer     = 32
)

// command is a client frame asking to change room membership.
type command struct {
	Action string `json:"action"`
	UserID string `json:"userId"`
}

// wsSink adapts one WebSocket connection to the hub's Sink contract. Sends
// go through a buffered channel drained by a single writer goroutine; a
// full buffer reports the connection as stalled instead of blocking the
// broadcast.
type wsSink struct {
	send chan []byte
	done chan struct{}
}

func (s *wsSink) Send(frame []byte) bool {
	select {
	case <-s.done:
		return true // already closing; not the publisher's problem
	default:
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

func (s *wsSink) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// WebSocketHandler upgrades HTTP requests into hub connections and
// translates client join/leave commands into room membership.
type WebSocketHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler constructs a WebSocketHandler for the hub.
func NewWebSocketHandler(hub *Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser origins are enforced by the CORS layer; the
			// handshake itself accepts any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles the realtime endpoint.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade: %v", err)
		return
	}

	connID := uuid.NewString()
	sink := &wsSink{send: make(chan []byte, sendBuffer), done: make(chan struct{})}
	h.hub.Register(connID, sink)
	log.Printf("realtime: connected %s (user %s)", connID, claims.UserID)

	go h.writePump(conn, sink)
	h.readPump(conn, connID, claims)

	h.hub.Unregister(connID)
	log.Printf("realtime: disconnected %s", connID)
}

func (h *WebSocketHandler) readPump(conn *websocket.Conn, connID string, claims *auth.Claims) {
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("realtime: read %s: %v", connID, err)
			}
			return
		}

		var cmd command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			log.Printf("realtime: bad command from %s: %v", connID, err)
			continue
		}
		h.apply(connID, cmd, claims)
	}
}

// apply maps a client command onto hub membership. Clients may only join
// rooms scoped to their own user id; trainers and admins may also watch
// their clients' progress rooms.
func (h *WebSocketHandler) apply(connID string, cmd command, claims *auth.Claims) {
	target := cmd.UserID
	if target == "" {
		target = claims.UserID
	}
	if target != claims.UserID && !claims.IsTrainer() {
		log.Printf("realtime: %s denied %s for user %s", connID, cmd.Action, target)
		return
	}

	switch cmd.Action {
	case "joinProgressRoom":
		h.hub.Join(connID, ProgressRoom(target))
	case "leaveProgressRoom":
		h.hub.Leave(connID, ProgressRoom(target))
	case "joinNotificationRoom":
		h.hub.Join(connID, UserRoom(target))
	case "leaveNotificationRoom":
		h.hub.Leave(connID, UserRoom(target))
	case "joinDashboard":
		h.hub.Join(connID, DashboardRoom(target))
	case "leaveDashboard":
		h.hub.Leave(connID, DashboardRoom(target))
	default:
		log.Printf("realtime: unknown action %q from %s", cmd.Action, connID)
	}
}

func (h *WebSocketHandler) writePump(conn *websocket.Conn, sink *wsSink) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame := <-sink.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sink.done:
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
