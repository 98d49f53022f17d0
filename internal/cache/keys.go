package cache

import (
	"strings"
	"time"
)

// TTLs per resource kind, chosen by data volatility.
const (
	TTLCatalog     = 24 * time.Hour
	TTLWorkoutList = 5 * time.Minute
	TTLProgress    = 5 * time.Minute
	TTLStats       = 10 * time.Minute
	TTLProfile     = 10 * time.Minute
)

// Key namespace. The exact strings are a deployment contract: any process
// sharing the cache (or a pre-existing deployment) must compose identical
// keys. Keys are always scoped by kind prefix and, for per-user data, by
// user id, so entries never collide across users or resource kinds.

// ProfileKey is the cached account profile for a user.
func ProfileKey(userID string) string { return "user:" + userID + ":profile" }

// ProgressKey is the cached 30-day snapshot for a user.
func ProgressKey(userID string) string { return "user:" + userID + ":progress" }

// WorkoutsKey is the cached workout list for a user.
func WorkoutsKey(userID string) string { return "user:" + userID + ":workouts" }

// StatsKey is the cached all-time aggregate for a user.
func StatsKey(userID string) string { return "user:" + userID + ":stats" }

// UserPattern matches every cached read model scoped to a user.
func UserPattern(userID string) string { return "user:" + userID + ":*" }

// ExercisesAllKey is the cached full exercise catalog.
const ExercisesAllKey = "exercises:all"

// ExercisesPattern matches every cached catalog listing.
const ExercisesPattern = "exercises:*"

// ExerciseKey is a single cached catalog entry.
func ExerciseKey(exerciseID string) string { return "exercise:" + exerciseID }

// ExercisesMuscleKey is the cached catalog listing for one muscle group.
func ExercisesMuscleKey(muscleGroup string) string {
	return "exercises:muscle:" + strings.ToLower(muscleGroup)
}

// MemberWorkoutsKey is the trainer-facing cached workout list for a member.
func MemberWorkoutsKey(memberID string) string { return "workouts:member:" + memberID }
