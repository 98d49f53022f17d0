package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"example.com/fitcoach/internal/domain"
	"example.com/fitcoach/internal/realtime"
)

type stubSource struct {
	workouts []domain.Workout
	err      error
	since    time.Time
}

func (s *stubSource) ListByUserSince(_ context.Context, _ string, since time.Time) ([]domain.Workout, error) {
	s.since = since
	return s.workouts, s.err
}

type recordedPublish struct {
	room, event string
	payload     interface{}
}

type stubPublisher struct {
	published []recordedPublish
}

func (s *stubPublisher) Publish(room, event string, payload interface{}) {
	s.published = append(s.published, recordedPublish{room, event, payload})
}

type stubInvalidator struct {
	invalidated []string
	afterPub    *stubPublisher // asserts ordering when set
	t           *testing.T
}

func (s *stubInvalidator) InvalidateProgress(_ context.Context, userID string) {
	if s.afterPub != nil && len(s.afterPub.published) == 0 {
		s.t.Fatal("invalidate ran before publish")
	}
	s.invalidated = append(s.invalidated, userID)
}

func TestWorkoutChangedPublishesThenInvalidates(t *testing.T) {
	now := time.Date(2026, time.June, 10, 8, 0, 0, 0, time.UTC)
	source := &stubSource{workouts: []domain.Workout{
		{ID: "w1", TotalCalories: 300, TotalDuration: 45, Date: now.Add(-24 * time.Hour)},
		{ID: "w2", TotalCalories: 200, TotalDuration: 30, Date: now.Add(-48 * time.Hour)},
	}}
	publisher := &stubPublisher{}
	invalidator := &stubInvalidator{afterPub: publisher, t: t}

	rec := NewRecomputer(source, publisher, invalidator).WithClock(func() time.Time { return now })
	rec.WorkoutChanged(context.Background(), "u1")

	if want := now.Add(-domain.ProgressWindow); !source.since.Equal(want) {
		t.Fatalf("window start %s, want %s", source.since, want)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(publisher.published))
	}
	pub := publisher.published[0]
	if pub.room != realtime.ProgressRoom("u1") || pub.event != "progressUpdated" {
		t.Fatalf("unexpected publish target %s/%s", pub.room, pub.event)
	}

	update := pub.payload.(Update)
	if !update.Success {
		t.Fatal("update must carry success=true")
	}
	if update.Data.TotalWorkouts != 2 || update.Data.TotalCalories != 500 || update.Data.TotalDuration != 75 {
		t.Fatalf("bad totals: %+v", update.Data)
	}
	if update.Data.AvgCaloriesPerWorkout != 250 {
		t.Fatalf("bad average: %v", update.Data.AvgCaloriesPerWorkout)
	}

	if len(invalidator.invalidated) != 1 || invalidator.invalidated[0] != "u1" {
		t.Fatalf("progress cache not invalidated: %v", invalidator.invalidated)
	}
}

func TestWorkoutChangedQueryFailureIsSwallowed(t *testing.T) {
	source := &stubSource{err: errors.New("store down")}
	publisher := &stubPublisher{}
	invalidator := &stubInvalidator{}

	NewRecomputer(source, publisher, invalidator).WorkoutChanged(context.Background(), "u1")

	if len(publisher.published) != 0 {
		t.Fatal("failed recompute must not publish")
	}
	if len(invalidator.invalidated) != 0 {
		t.Fatal("failed recompute must not invalidate; TTL bounds the staleness")
	}
}

func TestSnapshotZeroWorkouts(t *testing.T) {
	snapshot := domain.ComputeSnapshot(nil, time.Now().UTC())
	if snapshot.TotalWorkouts != 0 || snapshot.TotalCalories != 0 || snapshot.TotalDuration != 0 {
		t.Fatalf("empty fold must be all-zero: %+v", snapshot)
	}
	if snapshot.AvgCaloriesPerWorkout != 0 || snapshot.AvgDurationPerWorkout != 0 {
		t.Fatalf("averages must be zero, not NaN: %+v", snapshot)
	}
	if snapshot.RecentWorkouts == nil || len(snapshot.RecentWorkouts) != 0 {
		t.Fatalf("recentWorkouts must be an empty slice: %+v", snapshot.RecentWorkouts)
	}
}

func TestSnapshotRecentWorkoutsCapped(t *testing.T) {
	now := time.Now().UTC()
	workouts := make([]domain.Workout, 8)
	for i := range workouts {
		workouts[i] = domain.Workout{ID: string(rune('a' + i)), TotalCalories: 100, TotalDuration: 30}
	}

	snapshot := domain.ComputeSnapshot(workouts, now)
	if len(snapshot.RecentWorkouts) != domain.RecentWorkoutLimit {
		t.Fatalf("expected %d recent workouts, got %d", domain.RecentWorkoutLimit, len(snapshot.RecentWorkouts))
	}
	if snapshot.RecentWorkouts[0].ID != "a" {
		t.Fatal("recent workouts must preserve input order (newest first)")
	}
	if snapshot.TotalWorkouts != 8 || snapshot.TotalCalories != 800 {
		t.Fatalf("totals must cover the full window: %+v", snapshot)
	}
}
