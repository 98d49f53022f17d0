package suggest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"example.com/fitcoach/internal/domain"
)

type stubGenerator struct {
	plan Plan
	err  error
}

func (g *stubGenerator) WorkoutPlan(ctx context.Context, user domain.User, recent []domain.Workout) (Plan, error) {
	return g.plan, g.err
}

func recentWorkouts(n int) []domain.Workout {
	workouts := make([]domain.Workout, n)
	for i := range workouts {
		workouts[i] = domain.Workout{ID: "w", UserID: "u", TotalDuration: 30}
	}
	return workouts
}

func TestFallbackPrefersPrimary(t *testing.T) {
	want := Plan{Source: SourceModel, Tips: []string{"from the model"}}
	f := NewFallback(&stubGenerator{plan: want})

	plan, err := f.WorkoutPlan(context.Background(), domain.User{ID: "u"}, nil)
	if err != nil {
		t.Fatalf("WorkoutPlan: %v", err)
	}
	if plan.Source != SourceModel {
		t.Errorf("source = %q, want %q", plan.Source, SourceModel)
	}
	if plan.Note != "" {
		t.Errorf("unexpected note %q on primary plan", plan.Note)
	}
}

func TestFallbackUsesRulesOnPrimaryFailure(t *testing.T) {
	f := NewFallback(&stubGenerator{err: errors.New("upstream down")})

	plan, err := f.WorkoutPlan(context.Background(), domain.User{ID: "u"}, recentWorkouts(5))
	if err != nil {
		t.Fatalf("WorkoutPlan: %v", err)
	}
	if plan.Source != SourceRuleBased {
		t.Errorf("source = %q, want %q", plan.Source, SourceRuleBased)
	}
	if plan.Note == "" {
		t.Error("expected degraded-mode note on fallback plan")
	}
	if len(plan.Recommended) == 0 {
		t.Error("fallback plan has no recommendations")
	}
}

func TestRuleBasedPlanScalesWithActivity(t *testing.T) {
	beginner := RuleBasedPlan(domain.User{}, recentWorkouts(1))
	advanced := RuleBasedPlan(domain.User{}, recentWorkouts(10))

	if beginner.Recommended[0].Intensity != "low" {
		t.Errorf("beginner intensity = %q, want low", beginner.Recommended[0].Intensity)
	}
	if advanced.Recommended[0].Intensity != "high" {
		t.Errorf("advanced intensity = %q, want high", advanced.Recommended[0].Intensity)
	}
}

func TestHTTPGeneratorRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"recommended":[{"exercise":"Rowing","type":"cardio","duration":20}],"tips":["keep a steady pace"]}`))
	}))
	defer server.Close()

	g := NewHTTPGenerator(server.URL, "secret", time.Second)
	plan, err := g.WorkoutPlan(context.Background(), domain.User{ID: "u", Username: "alex"}, recentWorkouts(3))
	if err != nil {
		t.Fatalf("WorkoutPlan: %v", err)
	}
	if plan.Source != SourceModel {
		t.Errorf("source = %q, want %q", plan.Source, SourceModel)
	}
	if len(plan.Recommended) != 1 || plan.Recommended[0].Exercise != "Rowing" {
		t.Errorf("unexpected recommendations %+v", plan.Recommended)
	}
}

func TestHTTPGeneratorStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	g := NewHTTPGenerator(server.URL, "", time.Second)
	_, err := g.WorkoutPlan(context.Background(), domain.User{ID: "u"}, nil)

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %v, want GenerationError", err)
	}
	if genErr.Status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", genErr.Status)
	}
}
