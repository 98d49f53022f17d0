package domain

import "time"

// Notification types pushed over the live channel and persisted as fallback.
const (
	NotificationWorkoutCompleted = "workout_completed"
	NotificationClientWorkout    = "client_workout"
	NotificationAchievement      = "achievement"
	NotificationWorkoutAssigned  = "workout_assigned"
	NotificationNewMessage       = "new_message"
	NotificationSystemAlert      = "system_alert"
	NotificationDietPlan         = "diet_plan"
)

// Notification is a durable copy of a transient push event. Delivery over
// the live channel is at-most-once; undelivered copies stay pollable.
type Notification struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"user_id"`
	Type        string                 `json:"type"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Read        bool                   `json:"read"`
	CreatedAt   time.Time              `json:"created_at"`
	DeliveredAt *time.Time             `json:"delivered_at,omitempty"`
}
