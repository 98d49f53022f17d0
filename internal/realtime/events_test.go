package realtime

import (
	"testing"
	"time"

	"example.com/fitcoach/internal/domain"
)

func TestNotifyWorkoutCompleted(t *testing.T) {
	hub := NewHub()
	dashboard := newChanSink()
	user := newChanSink()
	hub.Register("dash", dashboard)
	hub.Register("notif", user)
	hub.Join("dash", DashboardRoom("u1"))
	hub.Join("notif", UserRoom("u1"))

	NewEmitter(hub).Notify(domain.Notification{
		UserID:  "u1",
		Type:    domain.NotificationWorkoutCompleted,
		Title:   "Workout Completed",
		Message: "Great job!",
		Metadata: map[string]interface{}{
			"calories": 250.0,
			"duration": 45,
		},
		CreatedAt: time.Now().UTC(),
	})

	dashEvents := dashboard.events(t)
	if len(dashEvents) != 1 || dashEvents[0].Event != "workoutCompleted" {
		t.Fatalf("expected workoutCompleted on dashboard, got %+v", dashEvents)
	}
	userEvents := user.events(t)
	if len(userEvents) != 1 || userEvents[0].Event != "notification" {
		t.Fatalf("expected notification in user room, got %+v", userEvents)
	}

	data, ok := userEvents[0].Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected payload %T", userEvents[0].Data)
	}
	if data["type"] != domain.NotificationWorkoutCompleted {
		t.Fatalf("payload type mismatch: %v", data["type"])
	}
	// Metadata must be flattened into the payload.
	if data["calories"] != 250.0 {
		t.Fatalf("metadata not inlined: %v", data)
	}
}

func TestNotifyWorkoutAssignedDualEvents(t *testing.T) {
	hub := NewHub()
	user := newChanSink()
	hub.Register("c", user)
	hub.Join("c", UserRoom("m1"))

	NewEmitter(hub).Notify(domain.Notification{
		UserID:    "m1",
		Type:      domain.NotificationWorkoutAssigned,
		Title:     "New Workout Assigned",
		Message:   "Coach assigned you a new workout",
		CreatedAt: time.Now().UTC(),
	})

	events := user.events(t)
	if len(events) != 2 {
		t.Fatalf("expected workoutAssigned + notification, got %d events", len(events))
	}
	if events[0].Event != "workoutAssigned" || events[1].Event != "notification" {
		t.Fatalf("unexpected event sequence: %s, %s", events[0].Event, events[1].Event)
	}
}

func TestNotifySystemAlertBroadcast(t *testing.T) {
	hub := NewHub()
	a := newChanSink()
	b := newChanSink()
	hub.Register("c1", a)
	hub.Register("c2", b)

	// Empty user id means a fleet-wide alert.
	NewEmitter(hub).Notify(domain.Notification{
		Type:      domain.NotificationSystemAlert,
		Title:     "System Alert",
		Message:   "maintenance at midnight",
		CreatedAt: time.Now().UTC(),
	})

	for _, sink := range []*chanSink{a, b} {
		events := sink.events(t)
		if len(events) != 2 {
			t.Fatalf("expected systemAlert + notification broadcast, got %d", len(events))
		}
	}
}
