package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"example.com/fitcoach/internal/domain"
)

// HTTPGenerator calls an upstream model service for plan generation.
type HTTPGenerator struct {
	client *http.Client
	url    string
	token  string
}

// NewHTTPGenerator constructs an HTTPGenerator.
func NewHTTPGenerator(endpoint, token string, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		client: &http.Client{Timeout: timeout},
		url:    strings.TrimRight(endpoint, "/"),
		token:  token,
	}
}

type planRequest struct {
	UserID         string           `json:"userId"`
	Username       string           `json:"username"`
	RecentWorkouts []recentActivity `json:"recentWorkouts"`
}

type recentActivity struct {
	Date      time.Time `json:"date"`
	Duration  int       `json:"duration"`
	Calories  float64   `json:"calories"`
	Intensity string    `json:"intensity"`
}

// WorkoutPlan implements Generator against the model service.
func (g *HTTPGenerator) WorkoutPlan(ctx context.Context, user domain.User, recent []domain.Workout) (Plan, error) {
	payload := planRequest{
		UserID:         user.ID,
		Username:       user.Username,
		RecentWorkouts: make([]recentActivity, 0, len(recent)),
	}
	for _, workout := range recent {
		payload.RecentWorkouts = append(payload.RecentWorkouts, recentActivity{
			Date:      workout.Date,
			Duration:  workout.TotalDuration,
			Calories:  workout.TotalCalories,
			Intensity: workout.Intensity,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Plan{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return Plan{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Plan{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Plan{}, &GenerationError{Status: resp.StatusCode}
	}

	var plan Plan
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		return Plan{}, err
	}
	plan.Source = SourceModel
	return plan, nil
}

// GenerationError represents a non-successful model service response.
type GenerationError struct {
	Status int
}

func (e *GenerationError) Error() string {
	return "plan generation failed with status " + http.StatusText(e.Status)
}
