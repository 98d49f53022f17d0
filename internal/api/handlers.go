// Package api exposes the HTTP handlers for the coaching backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/fitcoach/internal/auth"
	"example.com/fitcoach/internal/cache"
	"example.com/fitcoach/internal/domain"
	"example.com/fitcoach/internal/suggest"
)

// Handler coordinates HTTP requests with the domain service and the
// cache-aside read path.
type Handler struct {
	service   *domain.Service
	store     cache.Store
	suggester suggest.Generator
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, store cache.Store, suggester suggest.Generator) *Handler {
	return &Handler{service: service, store: store, suggester: suggester}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/workouts", h.workouts)
	mux.HandleFunc("/v1/workouts/", h.workoutSubtree)
	mux.HandleFunc("/v1/progress", h.progress)
	mux.HandleFunc("/v1/exercises", h.exercises)
	mux.HandleFunc("/v1/exercises/", h.exerciseSubtree)
	mux.HandleFunc("/v1/notifications", h.notifications)
	mux.HandleFunc("/v1/notifications/", h.notificationSubtree)
	mux.HandleFunc("/v1/profile", h.profile)
	mux.HandleFunc("/v1/trainer/clients", h.trainerClients)
	mux.HandleFunc("/v1/trainer/clients/", h.trainerClientSubtree)
	mux.HandleFunc("/v1/suggestions/workout", h.workoutSuggestions)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) workouts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createWorkout(w, r)
	case http.MethodGet:
		h.listWorkouts(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) workoutSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/workouts/")
	switch {
	case rest == "stats":
		h.workoutStats(w, r)
	case strings.HasPrefix(rest, "member/"):
		h.memberWorkouts(w, r, strings.TrimPrefix(rest, "member/"))
	case rest != "" && !strings.Contains(rest, "/"):
		h.workoutByID(w, r, rest)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
	}
}

func (h *Handler) createWorkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req WorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	input := req.toInput()
	if err := input.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	workout, err := h.service.CreateWorkout(r.Context(), claims.UserID, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, successResponse{Success: true, Data: workout})
}

func (h *Handler) listWorkouts(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	limit := parseLimit(r, 20)

	workouts, source, err := cache.Through(r.Context(), h.store,
		cache.WorkoutsKey(claims.UserID), cache.TTLWorkoutList,
		func(ctx context.Context) ([]domain.Workout, error) {
			return h.service.ListWorkouts(ctx, claims.UserID, limit)
		})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: workouts, Source: string(source)})
}

func (h *Handler) workoutStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	stats, source, err := cache.Through(r.Context(), h.store,
		cache.StatsKey(claims.UserID), cache.TTLStats,
		func(ctx context.Context) (domain.WorkoutStats, error) {
			return h.service.WorkoutStats(ctx, claims.UserID)
		})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: stats, Source: string(source)})
}

func (h *Handler) memberWorkouts(w http.ResponseWriter, r *http.Request, memberID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	if !claims.IsTrainer() {
		writeError(w, http.StatusForbidden, "forbidden", "trainer role required")
		return
	}
	if memberID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing member id")
		return
	}
	if err := h.service.EnsureClient(r.Context(), claims.UserID, memberID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	workouts, source, err := cache.Through(r.Context(), h.store,
		cache.MemberWorkoutsKey(memberID), cache.TTLWorkoutList,
		func(ctx context.Context) ([]domain.Workout, error) {
			return h.service.ListWorkouts(ctx, memberID, 0)
		})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: workouts, Source: string(source)})
}

func (h *Handler) workoutByID(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		workout, err := h.service.GetWorkout(r.Context(), claims.UserID, id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true, Data: workout})
	case http.MethodPut:
		var req WorkoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		input := req.toInput()
		if err := input.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		workout, err := h.service.UpdateWorkout(r.Context(), claims.UserID, id, input)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true, Data: workout})
	case http.MethodDelete:
		if err := h.service.DeleteWorkout(r.Context(), claims.UserID, id); err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) progress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	snapshot, source, err := cache.Through(r.Context(), h.store,
		cache.ProgressKey(claims.UserID), cache.TTLProgress,
		func(ctx context.Context) (domain.ProgressSnapshot, error) {
			return h.service.Progress(ctx, claims.UserID)
		})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: snapshot, Source: string(source)})
}

func (h *Handler) exercises(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		exercises, source, err := cache.Through(r.Context(), h.store,
			cache.ExercisesAllKey, cache.TTLCatalog,
			func(ctx context.Context) ([]domain.Exercise, error) {
				return h.service.ListExercises(ctx)
			})
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true, Data: exercises, Source: string(source)})
	case http.MethodPost:
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}
		if !claims.IsAdmin() {
			writeError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		var exercise domain.Exercise
		if err := json.NewDecoder(r.Body).Decode(&exercise); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		created, err := h.service.CreateExercise(r.Context(), exercise)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, successResponse{Success: true, Data: created})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) exerciseSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/exercises/")
	if strings.HasPrefix(rest, "muscle/") {
		h.exercisesByMuscle(w, r, strings.TrimPrefix(rest, "muscle/"))
		return
	}
	if rest == "" || strings.Contains(rest, "/") {
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
		return
	}
	h.exerciseByID(w, r, rest)
}

func (h *Handler) exercisesByMuscle(w http.ResponseWriter, r *http.Request, group string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if group == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing muscle group")
		return
	}

	exercises, source, err := cache.Through(r.Context(), h.store,
		cache.ExercisesMuscleKey(group), cache.TTLCatalog,
		func(ctx context.Context) ([]domain.Exercise, error) {
			return h.service.ExercisesByMuscle(ctx, group)
		})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: exercises, Source: string(source)})
}

func (h *Handler) exerciseByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		exercise, source, err := cache.Through(r.Context(), h.store,
			cache.ExerciseKey(id), cache.TTLCatalog,
			func(ctx context.Context) (*domain.Exercise, error) {
				return h.service.GetExercise(ctx, id)
			})
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true, Data: exercise, Source: string(source)})
	case http.MethodPut:
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}
		if !claims.IsAdmin() {
			writeError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		var exercise domain.Exercise
		if err := json.NewDecoder(r.Body).Decode(&exercise); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		exercise.ID = id
		updated, err := h.service.UpdateExercise(r.Context(), exercise)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true, Data: updated})
	case http.MethodDelete:
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}
		if !claims.IsAdmin() {
			writeError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		if err := h.service.DeleteExercise(r.Context(), id); err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	unreadOnly := r.URL.Query().Get("unread_only") == "true"
	limit := parseLimit(r, 50)

	notifications, unread, err := h.service.ListNotifications(r.Context(), claims.UserID, unreadOnly, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NotificationsResponse{
		Success:     true,
		Data:        notifications,
		UnreadCount: unread,
	})
}

func (h *Handler) notificationSubtree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/notifications/")
	if rest == "read-all" {
		count, err := h.service.MarkAllNotificationsRead(r.Context(), claims.UserID)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true, Data: map[string]int{"updated": count}})
		return
	}

	id, action, found := strings.Cut(rest, "/")
	if !found || action != "read" || id == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
		return
	}
	notification, err := h.service.MarkNotificationRead(r.Context(), claims.UserID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: notification})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, source, err := cache.Through(r.Context(), h.store,
			cache.ProfileKey(claims.UserID), cache.TTLProfile,
			func(ctx context.Context) (*domain.User, error) {
				return h.service.Profile(ctx, claims.UserID)
			})
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true, Data: user, Source: string(source)})
	case http.MethodPut:
		var req UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		user, err := h.service.UpdateProfile(r.Context(), claims.UserID, domain.UpdateProfileInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
		})
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true, Data: user})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) trainerClients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	if !claims.IsTrainer() {
		writeError(w, http.StatusForbidden, "forbidden", "trainer role required")
		return
	}

	clients, err := h.service.ListClients(r.Context(), claims.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: clients})
}

func (h *Handler) trainerClientSubtree(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	if !claims.IsTrainer() {
		writeError(w, http.StatusForbidden, "forbidden", "trainer role required")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/trainer/clients/")
	memberID, tail, found := strings.Cut(rest, "/")
	if !found || tail != "workouts" || memberID == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req WorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	input := req.toInput()
	if err := input.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	workout, err := h.service.AssignWorkout(r.Context(), claims.UserID, memberID, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, successResponse{Success: true, Data: workout})
}

func (h *Handler) workoutSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	user, err := h.service.Profile(r.Context(), claims.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	recent, err := h.service.ListWorkouts(r.Context(), claims.UserID, 10)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	plan, err := h.suggester.WorkoutPlan(r.Context(), *user, recent)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: plan, Source: plan.Source})
}

// WorkoutRequest is the payload for workout create, update, and assignment.
type WorkoutRequest struct {
	Date          time.Time              `json:"date"`
	Exercises     []domain.ExerciseEntry `json:"exercises"`
	TotalDuration int                    `json:"total_duration"`
	TotalCalories float64                `json:"total_calories"`
	Intensity     string                 `json:"intensity"`
	Notes         string                 `json:"notes"`
}

func (r WorkoutRequest) toInput() domain.CreateWorkoutInput {
	return domain.CreateWorkoutInput{
		Date:          r.Date,
		Exercises:     r.Exercises,
		TotalDuration: r.TotalDuration,
		TotalCalories: r.TotalCalories,
		Intensity:     r.Intensity,
		Notes:         r.Notes,
	}
}

// UpdateProfileRequest is the payload for PUT /v1/profile.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// successResponse is the common response envelope. Source is set on reads
// served through the cache-aside path.
type successResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Source  string      `json:"source,omitempty"`
}

// NotificationsResponse packages a notification listing with its unread count.
type NotificationsResponse struct {
	Success     bool                  `json:"success"`
	Data        []domain.Notification `json:"data"`
	UnreadCount int                   `json:"unread_count"`
}

func requireClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	return claims, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrWorkoutNotFound):
		writeError(w, http.StatusNotFound, "not_found", "workout not found")
	case errors.Is(err, domain.ErrExerciseNotFound):
		writeError(w, http.StatusNotFound, "not_found", "exercise not found")
	case errors.Is(err, domain.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, "not_found", "notification not found")
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", "user not found")
	case errors.Is(err, domain.ErrNotClient):
		writeError(w, http.StatusForbidden, "forbidden", "member is not assigned to this trainer")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func parseLimit(r *http.Request, fallback int) int {
	limit := fallback
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return limit
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
