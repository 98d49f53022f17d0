package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrWorkoutNotFound is returned when a workout cannot be located for the caller.
	ErrWorkoutNotFound = errors.New("workout not found")
	// ErrExerciseNotFound is returned when a catalog entry cannot be located.
	ErrExerciseNotFound = errors.New("exercise not found")
	// ErrNotificationNotFound is returned when a notification cannot be located for the caller.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrUserNotFound is returned when an account cannot be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotClient indicates the member is not assigned to the requesting trainer.
	ErrNotClient = errors.New("member is not a client of this trainer")
)

// WorkoutRepository captures persistence operations for workouts.
type WorkoutRepository interface {
	Create(ctx context.Context, workout Workout) error
	Get(ctx context.Context, userID, workoutID string) (*Workout, error)
	Update(ctx context.Context, workout Workout) error
	Delete(ctx context.Context, userID, workoutID string) error
	ListByUser(ctx context.Context, userID string, limit int) ([]Workout, error)
	// ListByUserSince returns workouts dated at or after since, newest first.
	ListByUserSince(ctx context.Context, userID string, since time.Time) ([]Workout, error)
	// Stats runs the all-time aggregation for a user.
	Stats(ctx context.Context, userID string) (WorkoutStats, error)
}

// ExerciseRepository captures persistence operations for the exercise catalog.
type ExerciseRepository interface {
	List(ctx context.Context) ([]Exercise, error)
	Get(ctx context.Context, exerciseID string) (*Exercise, error)
	ListByMuscleGroup(ctx context.Context, muscleGroup string) ([]Exercise, error)
	Create(ctx context.Context, exercise Exercise) error
	Update(ctx context.Context, exercise Exercise) error
	Delete(ctx context.Context, exerciseID string) error
}

// NotificationRepository captures persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) (*Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	// ClaimUndelivered fetches at most batch undelivered notifications for dispatch.
	ClaimUndelivered(ctx context.Context, batch int) ([]Notification, error)
	MarkDelivered(ctx context.Context, ids []string, at time.Time) error
}

// UserRepository captures persistence operations for accounts.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*User, error)
	Update(ctx context.Context, user User) error
	ListClients(ctx context.Context, trainerID string) ([]User, error)
}

// Recomputer refreshes the derived progress snapshot after a workout mutation.
// Implementations must not fail the caller: recompute errors are logged only.
type Recomputer interface {
	WorkoutChanged(ctx context.Context, userID string)
}

// CacheInvalidator removes cached read models after a write commits.
// Implementations are fail-open; they never return errors.
type CacheInvalidator interface {
	InvalidateWorkoutData(ctx context.Context, userID string)
	InvalidateProfile(ctx context.Context, userID string)
	InvalidateExerciseCatalog(ctx context.Context, exerciseID, muscleGroup string)
}

// Service orchestrates writes against the document store with the
// recompute/publish/invalidate pipeline that keeps cached read models and
// connected clients consistent.
type Service struct {
	workouts      WorkoutRepository
	exercises     ExerciseRepository
	notifications NotificationRepository
	users         UserRepository
	recomputer    Recomputer
	invalidator   CacheInvalidator
	now           func() time.Time
}

// NewService constructs a Service.
func NewService(
	workouts WorkoutRepository,
	exercises ExerciseRepository,
	notifications NotificationRepository,
	users UserRepository,
	recomputer Recomputer,
	invalidator CacheInvalidator,
) *Service {
	return &Service{
		workouts:      workouts,
		exercises:     exercises,
		notifications: notifications,
		users:         users,
		recomputer:    recomputer,
		invalidator:   invalidator,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock; test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateWorkoutInput captures the payload from the API layer.
type CreateWorkoutInput struct {
	Date          time.Time
	Exercises     []ExerciseEntry
	TotalDuration int
	TotalCalories float64
	Intensity     string
	Notes         string
}

// Validate ensures input correctness.
func (in CreateWorkoutInput) Validate() error {
	if len(in.Exercises) == 0 {
		return errors.New("at least one exercise is required")
	}
	for i, ex := range in.Exercises {
		if ex.Name == "" {
			return fmt.Errorf("exercise %d: name is required", i)
		}
	}
	if in.TotalCalories < 0 {
		return errors.New("total_calories must be >= 0")
	}
	if in.TotalDuration < 0 {
		return errors.New("total_duration must be >= 0")
	}
	return nil
}

// CreateWorkout persists a workout, then runs the post-write pipeline:
// progress recompute + realtime publish, cache invalidation, and the
// completion notifications. The pipeline is best-effort; only the store
// write can fail the call.
func (s *Service) CreateWorkout(ctx context.Context, userID string, input CreateWorkoutInput) (*Workout, error) {
	now := s.now()
	workout := Workout{
		ID:            uuid.NewString(),
		UserID:        userID,
		Date:          input.Date.UTC(),
		Exercises:     input.Exercises,
		TotalDuration: input.TotalDuration,
		TotalCalories: input.TotalCalories,
		Intensity:     input.Intensity,
		Notes:         input.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if workout.Date.IsZero() {
		workout.Date = now
	}
	if workout.TotalDuration == 0 {
		for _, ex := range input.Exercises {
			workout.TotalDuration += ex.Duration
		}
	}
	if workout.Intensity == "" {
		workout.Intensity = "moderate"
	}

	if err := s.workouts.Create(ctx, workout); err != nil {
		return nil, err
	}

	s.afterWorkoutWrite(ctx, userID)
	s.enqueueCompletionNotifications(ctx, workout)

	return &workout, nil
}

// UpdateWorkout replaces the mutable fields of an owned workout.
func (s *Service) UpdateWorkout(ctx context.Context, userID, workoutID string, input CreateWorkoutInput) (*Workout, error) {
	existing, err := s.workouts.Get(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrWorkoutNotFound
	}

	updated := *existing
	if !input.Date.IsZero() {
		updated.Date = input.Date.UTC()
	}
	updated.Exercises = input.Exercises
	updated.TotalDuration = input.TotalDuration
	updated.TotalCalories = input.TotalCalories
	if input.Intensity != "" {
		updated.Intensity = input.Intensity
	}
	updated.Notes = input.Notes
	updated.UpdatedAt = s.now()

	if err := s.workouts.Update(ctx, updated); err != nil {
		return nil, err
	}

	s.afterWorkoutWrite(ctx, userID)
	return &updated, nil
}

// DeleteWorkout removes an owned workout.
func (s *Service) DeleteWorkout(ctx context.Context, userID, workoutID string) error {
	existing, err := s.workouts.Get(ctx, userID, workoutID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrWorkoutNotFound
	}

	if err := s.workouts.Delete(ctx, userID, workoutID); err != nil {
		return err
	}

	s.afterWorkoutWrite(ctx, userID)
	return nil
}

// GetWorkout fetches an owned workout.
func (s *Service) GetWorkout(ctx context.Context, userID, workoutID string) (*Workout, error) {
	workout, err := s.workouts.Get(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if workout == nil {
		return nil, ErrWorkoutNotFound
	}
	return workout, nil
}

// ListWorkouts fetches the caller's workouts, newest first.
func (s *Service) ListWorkouts(ctx context.Context, userID string, limit int) ([]Workout, error) {
	return s.workouts.ListByUser(ctx, userID, limit)
}

// WorkoutStats runs the all-time aggregation for a user.
func (s *Service) WorkoutStats(ctx context.Context, userID string) (WorkoutStats, error) {
	return s.workouts.Stats(ctx, userID)
}

// Progress computes the trailing-window snapshot from the store.
func (s *Service) Progress(ctx context.Context, userID string) (ProgressSnapshot, error) {
	now := s.now()
	workouts, err := s.workouts.ListByUserSince(ctx, userID, now.Add(-ProgressWindow))
	if err != nil {
		return ProgressSnapshot{}, err
	}
	return ComputeSnapshot(workouts, now), nil
}

// EnsureClient verifies memberID is an assigned client of trainerID.
func (s *Service) EnsureClient(ctx context.Context, trainerID, memberID string) error {
	member, err := s.users.Get(ctx, memberID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrUserNotFound
	}
	if member.TrainerID != trainerID {
		return ErrNotClient
	}
	return nil
}

// ListClients fetches the members assigned to a trainer.
func (s *Service) ListClients(ctx context.Context, trainerID string) ([]User, error) {
	return s.users.ListClients(ctx, trainerID)
}

// AssignWorkout creates a workout on behalf of a member and notifies them.
func (s *Service) AssignWorkout(ctx context.Context, trainerID, memberID string, input CreateWorkoutInput) (*Workout, error) {
	if err := s.EnsureClient(ctx, trainerID, memberID); err != nil {
		return nil, err
	}

	now := s.now()
	workout := Workout{
		ID:            uuid.NewString(),
		UserID:        memberID,
		Date:          input.Date.UTC(),
		Exercises:     input.Exercises,
		TotalDuration: input.TotalDuration,
		TotalCalories: input.TotalCalories,
		Intensity:     input.Intensity,
		Notes:         input.Notes,
		AssignedBy:    trainerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if workout.Date.IsZero() {
		workout.Date = now
	}
	if workout.Intensity == "" {
		workout.Intensity = "moderate"
	}

	if err := s.workouts.Create(ctx, workout); err != nil {
		return nil, err
	}

	s.afterWorkoutWrite(ctx, memberID)

	name := "your trainer"
	if trainer, err := s.users.Get(ctx, trainerID); err == nil && trainer != nil {
		name = trainer.DisplayName()
	}
	s.enqueue(ctx, Notification{
		UserID:  memberID,
		Type:    NotificationWorkoutAssigned,
		Title:   "New Workout Assigned",
		Message: fmt.Sprintf("%s assigned you a new workout (%d min)", name, workout.TotalDuration),
		Metadata: map[string]interface{}{
			"workoutId": workout.ID,
			"trainerId": trainerID,
		},
	})

	return &workout, nil
}

// Profile fetches the account record for a user.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfileInput captures the editable profile fields.
type UpdateProfileInput struct {
	FirstName string
	LastName  string
	Email     string
}

// UpdateProfile persists profile edits and invalidates the cached profile.
func (s *Service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated := *user
	if input.FirstName != "" {
		updated.FirstName = input.FirstName
	}
	if input.LastName != "" {
		updated.LastName = input.LastName
	}
	if input.Email != "" {
		updated.Email = input.Email
	}

	if err := s.users.Update(ctx, updated); err != nil {
		return nil, err
	}

	s.invalidator.InvalidateProfile(ctx, userID)
	return &updated, nil
}

// ListExercises fetches the full catalog.
func (s *Service) ListExercises(ctx context.Context) ([]Exercise, error) {
	return s.exercises.List(ctx)
}

// GetExercise fetches a catalog entry.
func (s *Service) GetExercise(ctx context.Context, exerciseID string) (*Exercise, error) {
	exercise, err := s.exercises.Get(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if exercise == nil {
		return nil, ErrExerciseNotFound
	}
	return exercise, nil
}

// ExercisesByMuscle fetches catalog entries for a muscle group.
func (s *Service) ExercisesByMuscle(ctx context.Context, muscleGroup string) ([]Exercise, error) {
	return s.exercises.ListByMuscleGroup(ctx, muscleGroup)
}

// CreateExercise adds a catalog entry and invalidates the cached catalog.
func (s *Service) CreateExercise(ctx context.Context, exercise Exercise) (*Exercise, error) {
	if exercise.Name == "" {
		return nil, errors.New("name is required")
	}
	if exercise.ID == "" {
		exercise.ID = uuid.NewString()
	}
	if err := s.exercises.Create(ctx, exercise); err != nil {
		return nil, err
	}
	s.invalidator.InvalidateExerciseCatalog(ctx, exercise.ID, exercise.MuscleGroup)
	return &exercise, nil
}

// UpdateExercise replaces a catalog entry and invalidates the cached catalog.
func (s *Service) UpdateExercise(ctx context.Context, exercise Exercise) (*Exercise, error) {
	existing, err := s.GetExercise(ctx, exercise.ID)
	if err != nil {
		return nil, err
	}
	if err := s.exercises.Update(ctx, exercise); err != nil {
		return nil, err
	}
	// Both the old and new muscle-group listings may hold the entry.
	s.invalidator.InvalidateExerciseCatalog(ctx, exercise.ID, existing.MuscleGroup)
	if exercise.MuscleGroup != existing.MuscleGroup {
		s.invalidator.InvalidateExerciseCatalog(ctx, exercise.ID, exercise.MuscleGroup)
	}
	return &exercise, nil
}

// DeleteExercise removes a catalog entry and invalidates the cached catalog.
func (s *Service) DeleteExercise(ctx context.Context, exerciseID string) error {
	existing, err := s.GetExercise(ctx, exerciseID)
	if err != nil {
		return err
	}
	if err := s.exercises.Delete(ctx, exerciseID); err != nil {
		return err
	}
	s.invalidator.InvalidateExerciseCatalog(ctx, exerciseID, existing.MuscleGroup)
	return nil
}

// ListNotifications fetches the caller's notifications and unread count.
func (s *Service) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, int, error) {
	notifications, err := s.notifications.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return notifications, unread, nil
}

// MarkNotificationRead marks one owned notification as read.
func (s *Service) MarkNotificationRead(ctx context.Context, userID, notificationID string) (*Notification, error) {
	notification, err := s.notifications.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, ErrNotificationNotFound
	}
	return notification, nil
}

// MarkAllNotificationsRead marks every notification of the caller as read.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}

// afterWorkoutWrite runs the post-commit pipeline for a workout mutation.
// Ordering matters: recompute publishes the fresh snapshot to connected
// clients first, then the cached read models are dropped so a poll issued
// right after the push reloads from the store instead of hitting a stale
// entry.
func (s *Service) afterWorkoutWrite(ctx context.Context, userID string) {
	s.recomputer.WorkoutChanged(ctx, userID)
	s.invalidator.InvalidateWorkoutData(ctx, userID)
}

func (s *Service) enqueueCompletionNotifications(ctx context.Context, workout Workout) {
	s.enqueue(ctx, Notification{
		UserID:  workout.UserID,
		Type:    NotificationWorkoutCompleted,
		Title:   "Workout Completed",
		Message: fmt.Sprintf("Great job! You completed a workout with %d exercises", len(workout.Exercises)),
		Metadata: map[string]interface{}{
			"workoutId": workout.ID,
			"duration":  workout.TotalDuration,
			"calories":  workout.TotalCalories,
		},
	})

	user, err := s.users.Get(ctx, workout.UserID)
	if err != nil || user == nil || user.TrainerID == "" {
		return
	}
	s.enqueue(ctx, Notification{
		UserID:  user.TrainerID,
		Type:    NotificationClientWorkout,
		Title:   "Client Workout Completed",
		Message: fmt.Sprintf("%s completed a workout (%d min, %.0f cal)", user.DisplayName(), workout.TotalDuration, workout.TotalCalories),
		Metadata: map[string]interface{}{
			"memberId":  workout.UserID,
			"workoutId": workout.ID,
		},
	})
}

// enqueue persists a notification for the dispatcher; failures are logged
// by the repository caller path and never surface to the write that
// triggered them.
func (s *Service) enqueue(ctx context.Context, notification Notification) {
	notification.ID = uuid.NewString()
	notification.CreatedAt = s.now()
	if err := s.notifications.Create(ctx, notification); err != nil {
		log.Printf("notify: enqueue %s for user %s: %v", notification.Type, notification.UserID, err)
	}
}
