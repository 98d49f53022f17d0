// Package suggest produces workout plan suggestions, preferring an external
// model service and falling back to rule-based plans when it is unavailable.
package suggest

import (
	"context"
	"log"

	"example.com/fitcoach/internal/domain"
)

// PlannedExercise is one recommended exercise in a suggested plan.
type PlannedExercise struct {
	Exercise  string `json:"exercise"`
	Type      string `json:"type"`
	Duration  int    `json:"duration,omitempty"` // minutes
	Sets      int    `json:"sets,omitempty"`
	Reps      int    `json:"reps,omitempty"`
	Intensity string `json:"intensity,omitempty"`
}

// Plan is a suggested workout plan.
type Plan struct {
	Recommended []PlannedExercise `json:"recommended"`
	Tips        []string          `json:"tips"`
	Source      string            `json:"source"`
	Note        string            `json:"note,omitempty"`
}

// Plan sources.
const (
	SourceModel     = "model"
	SourceRuleBased = "rule-based"
)

// Generator produces a plan from the user's recent activity.
type Generator interface {
	WorkoutPlan(ctx context.Context, user domain.User, recent []domain.Workout) (Plan, error)
}

// Fallback tries the primary generator and falls back to rule-based plans.
type Fallback struct {
	primary Generator
}

// NewFallback constructs a Fallback. A nil primary always uses the
// rule-based plans.
func NewFallback(primary Generator) *Fallback {
	return &Fallback{primary: primary}
}

// WorkoutPlan implements Generator. It never returns an error.
func (f *Fallback) WorkoutPlan(ctx context.Context, user domain.User, recent []domain.Workout) (Plan, error) {
	if f.primary != nil {
		plan, err := f.primary.WorkoutPlan(ctx, user, recent)
		if err == nil {
			return plan, nil
		}
		log.Printf("suggest: model service unavailable, using rule-based plan: %v", err)
	}

	plan := RuleBasedPlan(user, recent)
	if f.primary != nil {
		plan.Note = "model service temporarily unavailable, using rule-based suggestions"
	}
	return plan, nil
}

// fitnessLevel buckets a user by recent activity volume.
func fitnessLevel(recent []domain.Workout) string {
	switch {
	case len(recent) <= 2:
		return "beginner"
	case len(recent) <= 7:
		return "intermediate"
	default:
		return "advanced"
	}
}

// RuleBasedPlan builds a plan from the recent-activity level.
func RuleBasedPlan(user domain.User, recent []domain.Workout) Plan {
	plan := Plan{Source: SourceRuleBased}

	switch fitnessLevel(recent) {
	case "beginner":
		plan.Recommended = []PlannedExercise{
			{Exercise: "Walking", Type: domain.ExerciseTypeCardio, Duration: 30, Intensity: "low"},
			{Exercise: "Bodyweight Squats", Type: domain.ExerciseTypeStrength, Sets: 3, Reps: 10},
			{Exercise: "Push-ups (modified)", Type: domain.ExerciseTypeStrength, Sets: 3, Reps: 8},
		}
		plan.Tips = []string{
			"Start slow and focus on proper form",
			"Rest at least 48 hours between strength training sessions",
			"Stay hydrated throughout your workout",
		}
	case "intermediate":
		plan.Recommended = []PlannedExercise{
			{Exercise: "Running", Type: domain.ExerciseTypeCardio, Duration: 30, Intensity: "moderate"},
			{Exercise: "Weighted Squats", Type: domain.ExerciseTypeStrength, Sets: 4, Reps: 12},
			{Exercise: "Pull-ups", Type: domain.ExerciseTypeStrength, Sets: 3, Reps: 8},
			{Exercise: "Plank", Type: domain.ExerciseTypeStrength, Duration: 1},
		}
		plan.Tips = []string{
			"Incorporate progressive overload into your routine",
			"Mix cardio and strength training throughout the week",
			"Consider adding HIIT sessions for better results",
		}
	default:
		plan.Recommended = []PlannedExercise{
			{Exercise: "HIIT Running", Type: domain.ExerciseTypeCardio, Duration: 45, Intensity: "high"},
			{Exercise: "Deadlifts", Type: domain.ExerciseTypeStrength, Sets: 5, Reps: 5},
			{Exercise: "Weighted Pull-ups", Type: domain.ExerciseTypeStrength, Sets: 4, Reps: 10},
			{Exercise: "Advanced Core Circuit", Type: domain.ExerciseTypeStrength, Duration: 20},
		}
		plan.Tips = []string{
			"Focus on periodization in your training",
			"Ensure adequate recovery between intense sessions",
			"Consider working with a trainer for advanced techniques",
		}
	}

	return plan
}
