// Package realtime delivers transient push events to connected clients
// through named rooms. Delivery is best-effort: no acknowledgment, no
// retry, no buffering for offline recipients — a client not connected at
// publish time must re-fetch on reconnect.
package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

// Room naming convention shared with clients.
func ProgressRoom(userID string) string  { return "progress:" + userID }
func UserRoom(userID string) string      { return "user:" + userID }
func DashboardRoom(userID string) string { return "dashboard:" + userID }

// Sink receives events for a single connection. Send must not block: a
// transport that cannot keep up reports false and the hub drops it.
type Sink interface {
	Send(frame []byte) bool
	Close()
}

// Envelope is the wire frame for every pushed event.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub is the room-based broker. All state is process-local and ephemeral;
// membership vanishes with the connection.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Sink     // room -> connID -> sink
	conns map[string]connState           // connID -> sink + joined rooms
}

type connState struct {
	sink  Sink
	rooms map[string]struct{}
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[string]Sink),
		conns: make(map[string]connState),
	}
}

// Register adds a connection to the hub with no room memberships.
func (h *Hub) Register(connID string, sink Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.conns[connID]; ok {
		// Stale registration under the same id; drop it first.
		h.removeLocked(connID, existing)
	}
	h.conns[connID] = connState{sink: sink, rooms: make(map[string]struct{})}
	connectionGauge.Set(float64(len(h.conns)))
}

// Unregister removes a connection from the hub and from every room it
// joined, atomically with respect to publishes.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.conns[connID]
	if !ok {
		return
	}
	h.removeLocked(connID, state)
	connectionGauge.Set(float64(len(h.conns)))
}

func (h *Hub) removeLocked(connID string, state connState) {
	for room := range state.rooms {
		delete(h.rooms[room], connID)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.conns, connID)
	state.sink.Close()
	roomGauge.Set(float64(len(h.rooms)))
}

// Join adds a connection to a room. Idempotent; unknown connections are
// ignored (the connection raced its own disconnect).
func (h *Hub) Join(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.conns[connID]
	if !ok {
		return
	}
	state.rooms[room] = struct{}{}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]Sink)
		h.rooms[room] = members
	}
	members[connID] = state.sink
	roomGauge.Set(float64(len(h.rooms)))
}

// Leave removes a connection from a room. Idempotent; a no-op when the
// connection is not a member.
func (h *Hub) Leave(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(state.rooms, room)
	delete(h.rooms[room], connID)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
	roomGauge.Set(float64(len(h.rooms)))
}

// Publish delivers payload under event to every current member of room.
// Best-effort and fire-and-forget: a room with no members is a normal
// no-op, and a member whose transport cannot accept the frame is dropped
// rather than blocking the broadcast. Events published by one producer to
// one room are handed to each sink in publish order because the whole
// fan-out happens under the hub lock.
func (h *Hub) Publish(room, event string, payload interface{}) {
	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		log.Printf("realtime: marshal %s: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var stalled []string
	for connID, sink := range h.rooms[room] {
		if !sink.Send(frame) {
			stalled = append(stalled, connID)
		}
	}
	for _, connID := range stalled {
		log.Printf("realtime: dropping stalled connection %s", connID)
		if state, ok := h.conns[connID]; ok {
			h.removeLocked(connID, state)
		}
	}
	publishCounter.WithLabelValues(event).Inc()
}

// Broadcast delivers payload under event to every connection regardless of
// room membership; used for system-wide alerts.
func (h *Hub) Broadcast(event string, payload interface{}) {
	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		log.Printf("realtime: marshal %s: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var stalled []string
	for connID, state := range h.conns {
		if !state.sink.Send(frame) {
			stalled = append(stalled, connID)
		}
	}
	for _, connID := range stalled {
		if state, ok := h.conns[connID]; ok {
			h.removeLocked(connID, state)
		}
	}
	publishCounter.WithLabelValues(event).Inc()
}

// RoomSize reports the current membership count of a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// InRoom reports whether a connection is currently a member of a room.
func (h *Hub) InRoom(connID, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[room][connID]
	return ok
}
