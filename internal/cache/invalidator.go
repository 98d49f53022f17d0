package cache

import "context"

// Invalidator deletes the cache keys a write may have made stale. It runs
// after the document-store write commits and before the HTTP response
// returns, so a client that sees a 200 for its write cannot read the
// pre-write value back out of the cache. Failures are logged by the Store
// and swallowed; the entry's own TTL then bounds the staleness.
type Invalidator struct {
	store Store
}

// NewInvalidator constructs an Invalidator.
func NewInvalidator(store Store) *Invalidator {
	return &Invalidator{store: store}
}

// InvalidateWorkoutData drops every read model a workout mutation affects:
// the workout list, the progress snapshot, the all-time stats, and the
// trainer-facing member listing.
func (i *Invalidator) InvalidateWorkoutData(ctx context.Context, userID string) {
	i.store.Delete(ctx,
		WorkoutsKey(userID),
		ProgressKey(userID),
		StatsKey(userID),
		MemberWorkoutsKey(userID),
	)
	invalidationCounter.WithLabelValues("workout").Inc()
}

// InvalidateProgress drops only the progress snapshot; used by the
// recomputer after it has already pushed the fresh value.
func (i *Invalidator) InvalidateProgress(ctx context.Context, userID string) {
	i.store.Delete(ctx, ProgressKey(userID))
	invalidationCounter.WithLabelValues("progress").Inc()
}

// InvalidateProfile drops the cached account profile.
func (i *Invalidator) InvalidateProfile(ctx context.Context, userID string) {
	i.store.Delete(ctx, ProfileKey(userID))
	invalidationCounter.WithLabelValues("profile").Inc()
}

// InvalidateUser drops everything scoped to a user; used for bulk
// invalidation such as trainer reassignment.
func (i *Invalidator) InvalidateUser(ctx context.Context, userID string) {
	i.store.DeletePattern(ctx, UserPattern(userID))
	invalidationCounter.WithLabelValues("user").Inc()
}

// InvalidateExerciseCatalog drops the catalog listings a mutation affects:
// the single entry, the full listing, and the entry's muscle-group listing.
func (i *Invalidator) InvalidateExerciseCatalog(ctx context.Context, exerciseID, muscleGroup string) {
	keys := []string{ExerciseKey(exerciseID), ExercisesAllKey}
	if muscleGroup != "" {
		keys = append(keys, ExercisesMuscleKey(muscleGroup))
	}
	i.store.Delete(ctx, keys...)
	invalidationCounter.WithLabelValues("exercise").Inc()
}
