package realtime

import (
	"encoding/json"
	"time"

	"example.com/fitcoach/internal/domain"
)

// NotificationPayload is the wire shape of a pushed notification. Metadata
// fields are inlined at the top level, matching what clients already parse.
type NotificationPayload struct {
	Type      string
	Title     string
	Message   string
	Timestamp time.Time
	Metadata  map[string]interface{}
}

// MarshalJSON flattens Metadata into the payload object. The fixed fields
// win on a name collision.
func (p NotificationPayload) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(p.Metadata)+4)
	for k, v := range p.Metadata {
		flat[k] = v
	}
	flat["type"] = p.Type
	flat["title"] = p.Title
	flat["message"] = p.Message
	flat["timestamp"] = p.Timestamp
	return json.Marshal(flat)
}

// Emitter translates domain notifications into room publishes. It is the
// single place that knows which rooms and event names each notification
// type maps to.
type Emitter struct {
	hub *Hub
}

// NewEmitter constructs an Emitter for the hub.
func NewEmitter(hub *Hub) *Emitter {
	return &Emitter{hub: hub}
}

// Notify pushes one notification over the live channel. Every type lands
// in the recipient's user room under "notification"; several types also
// carry a specialized event for dashboard widgets.
func (e *Emitter) Notify(n domain.Notification) {
	payload := NotificationPayload{
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Timestamp: n.CreatedAt,
		Metadata:  n.Metadata,
	}

	switch n.Type {
	case domain.NotificationWorkoutCompleted:
		e.hub.Publish(DashboardRoom(n.UserID), "workoutCompleted", map[string]interface{}{
			"calories": n.Metadata["calories"],
			"duration": n.Metadata["duration"],
		})
	case domain.NotificationAchievement:
		e.hub.Publish(DashboardRoom(n.UserID), "achievementUnlocked", map[string]interface{}{
			"name":    n.Metadata["name"],
			"message": n.Message,
		})
		e.hub.Publish(UserRoom(n.UserID), "achievement", payload)
	case domain.NotificationWorkoutAssigned:
		e.hub.Publish(UserRoom(n.UserID), "workoutAssigned", payload)
	case domain.NotificationNewMessage:
		e.hub.Publish(UserRoom(n.UserID), "newMessage", payload)
	case domain.NotificationSystemAlert:
		if n.UserID == "" {
			e.hub.Broadcast("systemAlert", payload)
			e.hub.Broadcast("notification", payload)
			return
		}
		e.hub.Publish(UserRoom(n.UserID), "systemAlert", payload)
	case domain.NotificationDietPlan:
		e.hub.Publish(UserRoom(n.UserID), "dietPlanUpdated", payload)
	}

	e.hub.Publish(UserRoom(n.UserID), "notification", payload)
}
