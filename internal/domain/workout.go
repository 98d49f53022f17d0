// Package domain defines the business logic for the fitcoach API.
package domain

import "time"

// ExerciseEntry is a single exercise performed within a workout.
type ExerciseEntry struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Duration int     `json:"duration,omitempty"` // minutes
	Sets     int     `json:"sets,omitempty"`
	Reps     int     `json:"reps,omitempty"`
	Weight   float64 `json:"weight,omitempty"` // kg
	Distance float64 `json:"distance,omitempty"` // km
	Notes    string  `json:"notes,omitempty"`
}

// Exercise types accepted for an entry.
const (
	ExerciseTypeCardio      = "cardio"
	ExerciseTypeStrength    = "strength"
	ExerciseTypeFlexibility = "flexibility"
	ExerciseTypeSports      = "sports"
	ExerciseTypeOther       = "other"
)

// Workout is the canonical workout record stored in the document store.
type Workout struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Date          time.Time       `json:"date"`
	Exercises     []ExerciseEntry `json:"exercises"`
	TotalDuration int             `json:"total_duration"` // minutes
	TotalCalories float64         `json:"total_calories"`
	Intensity     string          `json:"intensity"`
	Notes         string          `json:"notes,omitempty"`
	AssignedBy    string          `json:"assigned_by,omitempty"` // trainer user id for assigned workouts
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// WorkoutStats is the all-time aggregate produced by the store's group query.
type WorkoutStats struct {
	TotalWorkouts int     `json:"totalWorkouts"`
	TotalCalories float64 `json:"totalCalories"`
	TotalDuration int     `json:"totalDuration"`
	AvgCalories   float64 `json:"avgCalories"`
	AvgDuration   float64 `json:"avgDuration"`
}

// User is the account record; only the fields the core touches.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TrainerID string `json:"trainer_id,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// DisplayName prefers the profile first name, falling back to the username.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

// Exercise is a catalog entry (reference data, distinct from ExerciseEntry).
type Exercise struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MuscleGroup string `json:"muscle_group"`
	Equipment   string `json:"equipment,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	Description string `json:"description,omitempty"`
}
