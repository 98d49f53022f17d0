package domain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type mockWorkoutRepo struct {
	workouts  map[string]Workout
	createErr error
}

func newMockWorkoutRepo() *mockWorkoutRepo {
	return &mockWorkoutRepo{workouts: make(map[string]Workout)}
}

func (m *mockWorkoutRepo) Create(ctx context.Context, workout Workout) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.workouts[workout.ID] = workout
	return nil
}

func (m *mockWorkoutRepo) Get(ctx context.Context, userID, workoutID string) (*Workout, error) {
	workout, ok := m.workouts[workoutID]
	if !ok || workout.UserID != userID {
		return nil, nil
	}
	return &workout, nil
}

func (m *mockWorkoutRepo) Update(ctx context.Context, workout Workout) error {
	m.workouts[workout.ID] = workout
	return nil
}

func (m *mockWorkoutRepo) Delete(ctx context.Context, userID, workoutID string) error {
	delete(m.workouts, workoutID)
	return nil
}

func (m *mockWorkoutRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Workout, error) {
	var out []Workout
	for _, w := range m.workouts {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *mockWorkoutRepo) ListByUserSince(ctx context.Context, userID string, since time.Time) ([]Workout, error) {
	return m.ListByUser(ctx, userID, 0)
}

func (m *mockWorkoutRepo) Stats(ctx context.Context, userID string) (WorkoutStats, error) {
	return WorkoutStats{}, nil
}

type mockUserRepo struct {
	users map[string]User
}

func (m *mockUserRepo) Get(ctx context.Context, userID string) (*User, error) {
	user, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) ListClients(ctx context.Context, trainerID string) ([]User, error) {
	return nil, nil
}

type mockNotificationRepo struct {
	created []Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, n Notification) error {
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error) {
	return nil, nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	return 0, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, userID, id string) (*Notification, error) {
	return nil, nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return 0, nil
}

func (m *mockNotificationRepo) ClaimUndelivered(ctx context.Context, batch int) ([]Notification, error) {
	return nil, nil
}

func (m *mockNotificationRepo) MarkDelivered(ctx context.Context, ids []string, at time.Time) error {
	return nil
}

// pipelineRecorder logs recompute and invalidate calls in arrival order.
type pipelineRecorder struct {
	mu    sync.Mutex
	steps []string
}

func (p *pipelineRecorder) record(step string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, step)
}

type recordingRecomputer struct{ rec *pipelineRecorder }

func (r recordingRecomputer) WorkoutChanged(ctx context.Context, userID string) {
	r.rec.record("recompute:" + userID)
}

type recordingInvalidator struct{ rec *pipelineRecorder }

func (r recordingInvalidator) InvalidateWorkoutData(ctx context.Context, userID string) {
	r.rec.record("invalidate-workout:" + userID)
}

func (r recordingInvalidator) InvalidateProfile(ctx context.Context, userID string) {
	r.rec.record("invalidate-profile:" + userID)
}

func (r recordingInvalidator) InvalidateExerciseCatalog(ctx context.Context, exerciseID, muscleGroup string) {
	r.rec.record("invalidate-exercise:" + exerciseID)
}

type fixture struct {
	service       *Service
	workouts      *mockWorkoutRepo
	users         *mockUserRepo
	notifications *mockNotificationRepo
	pipeline      *pipelineRecorder
}

func newFixture() *fixture {
	workouts := newMockWorkoutRepo()
	users := &mockUserRepo{users: make(map[string]User)}
	notifications := &mockNotificationRepo{}
	pipeline := &pipelineRecorder{}
	service := NewService(
		workouts,
		nil,
		notifications,
		users,
		recordingRecomputer{rec: pipeline},
		recordingInvalidator{rec: pipeline},
	)
	return &fixture{
		service:       service,
		workouts:      workouts,
		users:         users,
		notifications: notifications,
		pipeline:      pipeline,
	}
}

func validInput() CreateWorkoutInput {
	return CreateWorkoutInput{
		Exercises:     []ExerciseEntry{{Name: "Running", Type: ExerciseTypeCardio, Duration: 30}},
		TotalCalories: 300,
	}
}

func TestCreateWorkoutRunsPipelineInOrder(t *testing.T) {
	f := newFixture()

	workout, err := f.service.CreateWorkout(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}
	if workout.ID == "" {
		t.Fatal("workout id not assigned")
	}
	if workout.TotalDuration != 30 {
		t.Fatalf("total duration = %d, want 30 (summed from exercises)", workout.TotalDuration)
	}
	if workout.Intensity != "moderate" {
		t.Fatalf("intensity = %q, want moderate default", workout.Intensity)
	}

	want := []string{"recompute:user-1", "invalidate-workout:user-1"}
	if len(f.pipeline.steps) != 2 || f.pipeline.steps[0] != want[0] || f.pipeline.steps[1] != want[1] {
		t.Fatalf("pipeline = %v, want %v", f.pipeline.steps, want)
	}
}

func TestCreateWorkoutEnqueuesCompletionNotifications(t *testing.T) {
	f := newFixture()
	f.users.users["user-1"] = User{ID: "user-1", Username: "alex", TrainerID: "trainer-9"}

	if _, err := f.service.CreateWorkout(context.Background(), "user-1", validInput()); err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}

	if len(f.notifications.created) != 2 {
		t.Fatalf("created %d notifications, want 2", len(f.notifications.created))
	}
	member, trainer := f.notifications.created[0], f.notifications.created[1]
	if member.UserID != "user-1" || member.Type != NotificationWorkoutCompleted {
		t.Fatalf("member notification = %+v", member)
	}
	if trainer.UserID != "trainer-9" || trainer.Type != NotificationClientWorkout {
		t.Fatalf("trainer notification = %+v", trainer)
	}
	if member.ID == "" || member.CreatedAt.IsZero() {
		t.Fatal("notification id or created_at not assigned")
	}
}

func TestCreateWorkoutNoTrainerNotificationWithoutTrainer(t *testing.T) {
	f := newFixture()
	f.users.users["user-1"] = User{ID: "user-1", Username: "alex"}

	if _, err := f.service.CreateWorkout(context.Background(), "user-1", validInput()); err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}
	if len(f.notifications.created) != 1 {
		t.Fatalf("created %d notifications, want 1", len(f.notifications.created))
	}
}

func TestCreateWorkoutStoreFailureSkipsPipeline(t *testing.T) {
	f := newFixture()
	f.workouts.createErr = errors.New("write failed")

	if _, err := f.service.CreateWorkout(context.Background(), "user-1", validInput()); err == nil {
		t.Fatal("expected error from failed store write")
	}
	if len(f.pipeline.steps) != 0 {
		t.Fatalf("pipeline ran after failed write: %v", f.pipeline.steps)
	}
	if len(f.notifications.created) != 0 {
		t.Fatal("notifications enqueued after failed write")
	}
}

func TestUpdateWorkoutNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.service.UpdateWorkout(context.Background(), "user-1", "missing", validInput())
	if !errors.Is(err, ErrWorkoutNotFound) {
		t.Fatalf("err = %v, want ErrWorkoutNotFound", err)
	}
	if len(f.pipeline.steps) != 0 {
		t.Fatalf("pipeline ran for missing workout: %v", f.pipeline.steps)
	}
}

func TestDeleteWorkoutRunsPipeline(t *testing.T) {
	f := newFixture()
	workout, err := f.service.CreateWorkout(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}
	f.pipeline.steps = nil

	if err := f.service.DeleteWorkout(context.Background(), "user-1", workout.ID); err != nil {
		t.Fatalf("DeleteWorkout: %v", err)
	}
	want := []string{"recompute:user-1", "invalidate-workout:user-1"}
	if len(f.pipeline.steps) != 2 || f.pipeline.steps[0] != want[0] || f.pipeline.steps[1] != want[1] {
		t.Fatalf("pipeline = %v, want %v", f.pipeline.steps, want)
	}
}

func TestAssignWorkoutRejectsNonClient(t *testing.T) {
	f := newFixture()
	f.users.users["member-1"] = User{ID: "member-1", TrainerID: "someone-else"}

	_, err := f.service.AssignWorkout(context.Background(), "trainer-1", "member-1", validInput())
	if !errors.Is(err, ErrNotClient) {
		t.Fatalf("err = %v, want ErrNotClient", err)
	}
}

func TestAssignWorkoutNotifiesMember(t *testing.T) {
	f := newFixture()
	f.users.users["trainer-1"] = User{ID: "trainer-1", Username: "coach", FirstName: "Sam"}
	f.users.users["member-1"] = User{ID: "member-1", TrainerID: "trainer-1"}

	workout, err := f.service.AssignWorkout(context.Background(), "trainer-1", "member-1", validInput())
	if err != nil {
		t.Fatalf("AssignWorkout: %v", err)
	}
	if workout.AssignedBy != "trainer-1" {
		t.Fatalf("assigned_by = %q, want trainer-1", workout.AssignedBy)
	}
	if len(f.notifications.created) != 1 {
		t.Fatalf("created %d notifications, want 1", len(f.notifications.created))
	}
	n := f.notifications.created[0]
	if n.UserID != "member-1" || n.Type != NotificationWorkoutAssigned {
		t.Fatalf("notification = %+v", n)
	}
	if n.Metadata["workoutId"] != workout.ID {
		t.Fatalf("metadata workoutId = %v, want %s", n.Metadata["workoutId"], workout.ID)
	}
}

func TestUpdateProfileInvalidatesProfile(t *testing.T) {
	f := newFixture()
	f.users.users["user-1"] = User{ID: "user-1", Username: "alex"}

	updated, err := f.service.UpdateProfile(context.Background(), "user-1", UpdateProfileInput{FirstName: "Alex"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.FirstName != "Alex" {
		t.Fatalf("first name = %q, want Alex", updated.FirstName)
	}
	if len(f.pipeline.steps) != 1 || f.pipeline.steps[0] != "invalidate-profile:user-1" {
		t.Fatalf("pipeline = %v, want [invalidate-profile:user-1]", f.pipeline.steps)
	}
}
