package domain

import "time"

// ProgressWindow is the trailing period a snapshot summarises.
const ProgressWindow = 30 * 24 * time.Hour

// RecentWorkoutLimit caps the recent-workout sample carried in a snapshot.
const RecentWorkoutLimit = 5

// ProgressSnapshot is the derived 30-day summary of a user's activity.
// It is recomputed from workouts on every mutation and only transiently
// cached; the workout records remain the source of truth.
type ProgressSnapshot struct {
	TotalWorkouts         int       `json:"totalWorkouts"`
	TotalCalories         float64   `json:"totalCalories"`
	TotalDuration         int       `json:"totalDuration"`
	AvgCaloriesPerWorkout float64   `json:"avgCaloriesPerWorkout"`
	AvgDurationPerWorkout float64   `json:"avgDurationPerWorkout"`
	RecentWorkouts        []Workout `json:"recentWorkouts"`
	LastUpdated           time.Time `json:"lastUpdated"`
}

// ComputeSnapshot folds workouts into a ProgressSnapshot. The input must
// already be limited to the progress window and sorted date-descending;
// averages are zero for an empty input, never NaN.
func ComputeSnapshot(workouts []Workout, now time.Time) ProgressSnapshot {
	snapshot := ProgressSnapshot{
		RecentWorkouts: []Workout{},
		LastUpdated:    now,
	}

	for _, w := range workouts {
		snapshot.TotalWorkouts++
		snapshot.TotalCalories += w.TotalCalories
		snapshot.TotalDuration += w.TotalDuration
	}

	if snapshot.TotalWorkouts > 0 {
		n := float64(snapshot.TotalWorkouts)
		snapshot.AvgCaloriesPerWorkout = snapshot.TotalCalories / n
		snapshot.AvgDurationPerWorkout = float64(snapshot.TotalDuration) / n
	}

	limit := RecentWorkoutLimit
	if len(workouts) < limit {
		limit = len(workouts)
	}
	snapshot.RecentWorkouts = append(snapshot.RecentWorkouts, workouts[:limit]...)

	return snapshot
}
