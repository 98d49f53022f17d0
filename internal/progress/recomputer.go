// Package progress keeps the derived 30-day snapshot consistent with the
// workout records and propagates changes to connected clients.
package progress

import (
	"context"
	"log"
	"time"

	"example.com/fitcoach/internal/domain"
	"example.com/fitcoach/internal/realtime"
)

// WorkoutSource is the slice of the store the recomputer reads.
type WorkoutSource interface {
	ListByUserSince(ctx context.Context, userID string, since time.Time) ([]domain.Workout, error)
}

// Publisher is the slice of the hub the recomputer pushes to.
type Publisher interface {
	Publish(room, event string, payload interface{})
}

// ProgressInvalidator drops the cached snapshot after the push.
type ProgressInvalidator interface {
	InvalidateProgress(ctx context.Context, userID string)
}

// Update is the payload pushed under progressUpdated.
type Update struct {
	Success   bool                    `json:"success"`
	Data      domain.ProgressSnapshot `json:"data"`
	Timestamp time.Time               `json:"timestamp"`
}

// Recomputer re-aggregates a user's trailing window on every workout
// mutation, pushes the fresh snapshot, then invalidates the cached copy.
type Recomputer struct {
	workouts    WorkoutSource
	publisher   Publisher
	invalidator ProgressInvalidator
	now         func() time.Time
}

// NewRecomputer constructs a Recomputer.
func NewRecomputer(workouts WorkoutSource, publisher Publisher, invalidator ProgressInvalidator) *Recomputer {
	return &Recomputer{
		workouts:    workouts,
		publisher:   publisher,
		invalidator: invalidator,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock; test hook.
func (r *Recomputer) WithClock(now func() time.Time) *Recomputer {
	r.now = now
	return r
}

// WorkoutChanged runs the recompute → publish → invalidate sequence for a
// user. The order is deliberate: connected clients get the fresh snapshot
// immediately, and dropping the cache entry afterwards means a poll issued
// right after the push takes a miss and reloads rather than reading a
// value that predates the mutation.
//
// The triggering write has already committed, so nothing here may fail it:
// a query error is logged and the cache keeps its pre-mutation entry until
// the TTL expires. That staleness window is an accepted gap.
func (r *Recomputer) WorkoutChanged(ctx context.Context, userID string) {
	now := r.now()
	workouts, err := r.workouts.ListByUserSince(ctx, userID, now.Add(-domain.ProgressWindow))
	if err != nil {
		log.Printf("progress: recompute for user %s: %v", userID, err)
		return
	}

	snapshot := domain.ComputeSnapshot(workouts, now)
	r.publisher.Publish(realtime.ProgressRoom(userID), "progressUpdated", Update{
		Success:   true,
		Data:      snapshot,
		Timestamp: now,
	})
	r.invalidator.InvalidateProgress(ctx, userID)
}
