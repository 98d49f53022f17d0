// Package memstore provides in-memory repositories for local development
// and tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"example.com/fitcoach/internal/domain"
)

// Store holds every collection behind one lock. Good enough for the
// single-process dev mode it serves.
type Store struct {
	mu            sync.RWMutex
	workouts      map[string]domain.Workout
	users         map[string]domain.User
	exercises     map[string]domain.Exercise
	notifications map[string]domain.Notification
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		workouts:      make(map[string]domain.Workout),
		users:         make(map[string]domain.User),
		exercises:     make(map[string]domain.Exercise),
		notifications: make(map[string]domain.Notification),
	}
}

// SeedUser inserts or replaces an account.
func (s *Store) SeedUser(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *Store) Create(ctx context.Context, workout domain.Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workouts[workout.ID] = workout
	return nil
}

func (s *Store) Get(ctx context.Context, userID, workoutID string) (*domain.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	workout, ok := s.workouts[workoutID]
	if !ok || workout.UserID != userID {
		return nil, nil
	}
	return &workout, nil
}

func (s *Store) Update(ctx context.Context, workout domain.Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.workouts[workout.ID]
	if !ok || existing.UserID != workout.UserID {
		return domain.ErrWorkoutNotFound
	}
	s.workouts[workout.ID] = workout
	return nil
}

func (s *Store) Delete(ctx context.Context, userID, workoutID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	workout, ok := s.workouts[workoutID]
	if !ok || workout.UserID != userID {
		return domain.ErrWorkoutNotFound
	}
	delete(s.workouts, workoutID)
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	workouts := s.collectWorkouts(userID, time.Time{})
	if limit > 0 && len(workouts) > limit {
		workouts = workouts[:limit]
	}
	return workouts, nil
}

func (s *Store) ListByUserSince(ctx context.Context, userID string, since time.Time) ([]domain.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectWorkouts(userID, since), nil
}

// collectWorkouts returns a user's workouts newest first; callers hold the lock.
func (s *Store) collectWorkouts(userID string, since time.Time) []domain.Workout {
	workouts := make([]domain.Workout, 0)
	for _, workout := range s.workouts {
		if workout.UserID != userID {
			continue
		}
		if !since.IsZero() && workout.Date.Before(since) {
			continue
		}
		workouts = append(workouts, workout)
	}
	sort.Slice(workouts, func(i, j int) bool {
		return workouts[i].Date.After(workouts[j].Date)
	})
	return workouts
}

func (s *Store) Stats(ctx context.Context, userID string) (domain.WorkoutStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.WorkoutStats
	for _, workout := range s.workouts {
		if workout.UserID != userID {
			continue
		}
		stats.TotalWorkouts++
		stats.TotalCalories += workout.TotalCalories
		stats.TotalDuration += workout.TotalDuration
	}
	if stats.TotalWorkouts > 0 {
		stats.AvgCalories = stats.TotalCalories / float64(stats.TotalWorkouts)
		stats.AvgDuration = float64(stats.TotalDuration) / float64(stats.TotalWorkouts)
	}
	return stats, nil
}

// Users adapts the store to domain.UserRepository.
func (s *Store) Users() domain.UserRepository { return (*userView)(s) }

// Exercises adapts the store to domain.ExerciseRepository.
func (s *Store) Exercises() domain.ExerciseRepository { return (*exerciseView)(s) }

// Notifications adapts the store to domain.NotificationRepository.
func (s *Store) Notifications() domain.NotificationRepository { return (*notificationView)(s) }

type userView Store

func (v *userView) Get(ctx context.Context, userID string) (*domain.User, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	user, ok := v.users[userID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (v *userView) Update(ctx context.Context, user domain.User) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	v.users[user.ID] = user
	return nil
}

func (v *userView) ListClients(ctx context.Context, trainerID string) ([]domain.User, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	clients := make([]domain.User, 0)
	for _, user := range v.users {
		if user.TrainerID == trainerID {
			clients = append(clients, user)
		}
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].Username < clients[j].Username })
	return clients, nil
}

type exerciseView Store

func (v *exerciseView) List(ctx context.Context) ([]domain.Exercise, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.collect(func(domain.Exercise) bool { return true }), nil
}

func (v *exerciseView) Get(ctx context.Context, exerciseID string) (*domain.Exercise, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	exercise, ok := v.exercises[exerciseID]
	if !ok {
		return nil, nil
	}
	return &exercise, nil
}

func (v *exerciseView) ListByMuscleGroup(ctx context.Context, muscleGroup string) ([]domain.Exercise, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	want := strings.ToLower(muscleGroup)
	return v.collect(func(e domain.Exercise) bool {
		return strings.ToLower(e.MuscleGroup) == want
	}), nil
}

func (v *exerciseView) collect(keep func(domain.Exercise) bool) []domain.Exercise {
	exercises := make([]domain.Exercise, 0)
	for _, exercise := range v.exercises {
		if keep(exercise) {
			exercises = append(exercises, exercise)
		}
	}
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].Name < exercises[j].Name })
	return exercises
}

func (v *exerciseView) Create(ctx context.Context, exercise domain.Exercise) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.exercises[exercise.ID] = exercise
	return nil
}

func (v *exerciseView) Update(ctx context.Context, exercise domain.Exercise) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.exercises[exercise.ID]; !ok {
		return domain.ErrExerciseNotFound
	}
	v.exercises[exercise.ID] = exercise
	return nil
}

func (v *exerciseView) Delete(ctx context.Context, exerciseID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.exercises[exerciseID]; !ok {
		return domain.ErrExerciseNotFound
	}
	delete(v.exercises, exerciseID)
	return nil
}

type notificationView Store

func (v *notificationView) Create(ctx context.Context, notification domain.Notification) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notifications[notification.ID] = notification
	return nil
}

func (v *notificationView) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	notifications := make([]domain.Notification, 0)
	for _, notification := range v.notifications {
		if notification.UserID != userID {
			continue
		}
		if unreadOnly && notification.Read {
			continue
		}
		notifications = append(notifications, notification)
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	if limit > 0 && len(notifications) > limit {
		notifications = notifications[:limit]
	}
	return notifications, nil
}

func (v *notificationView) CountUnread(ctx context.Context, userID string) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	count := 0
	for _, notification := range v.notifications {
		if notification.UserID == userID && !notification.Read {
			count++
		}
	}
	return count, nil
}

func (v *notificationView) MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	notification, ok := v.notifications[notificationID]
	if !ok || notification.UserID != userID {
		return nil, nil
	}
	notification.Read = true
	v.notifications[notificationID] = notification
	return &notification, nil
}

func (v *notificationView) MarkAllRead(ctx context.Context, userID string) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	count := 0
	for id, notification := range v.notifications {
		if notification.UserID == userID && !notification.Read {
			notification.Read = true
			v.notifications[id] = notification
			count++
		}
	}
	return count, nil
}

func (v *notificationView) ClaimUndelivered(ctx context.Context, batch int) ([]domain.Notification, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	pending := make([]domain.Notification, 0)
	for _, notification := range v.notifications {
		if notification.DeliveredAt == nil {
			pending = append(pending, notification)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if batch > 0 && len(pending) > batch {
		pending = pending[:batch]
	}
	return pending, nil
}

func (v *notificationView) MarkDelivered(ctx context.Context, ids []string, at time.Time) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, id := range ids {
		notification, ok := v.notifications[id]
		if !ok {
			continue
		}
		delivered := at
		notification.DeliveredAt = &delivered
		v.notifications[id] = notification
	}
	return nil
}
