package cache

import (
	"context"
	"testing"
)

func TestInvalidateWorkoutDataDropsAffectedKeys(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	store.Set(ctx, WorkoutsKey("u1"), []byte(`[]`), TTLWorkoutList)
	store.Set(ctx, ProgressKey("u1"), []byte(`{}`), TTLProgress)
	store.Set(ctx, StatsKey("u1"), []byte(`{}`), TTLStats)
	store.Set(ctx, MemberWorkoutsKey("u1"), []byte(`[]`), TTLWorkoutList)
	store.Set(ctx, WorkoutsKey("u2"), []byte(`[]`), TTLWorkoutList)

	NewInvalidator(store).InvalidateWorkoutData(ctx, "u1")

	for _, key := range []string{WorkoutsKey("u1"), ProgressKey("u1"), StatsKey("u1"), MemberWorkoutsKey("u1")} {
		if _, ok := store.Get(ctx, key); ok {
			t.Fatalf("key %s should have been invalidated", key)
		}
	}
	if _, ok := store.Get(ctx, WorkoutsKey("u2")); !ok {
		t.Fatal("another user's keys must not be touched")
	}
}

func TestInvalidateUserUsesPattern(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	store.Set(ctx, WorkoutsKey("u1"), []byte(`[]`), TTLWorkoutList)
	store.Set(ctx, ProfileKey("u1"), []byte(`{}`), TTLProfile)
	store.Set(ctx, ExercisesAllKey, []byte(`[]`), TTLCatalog)

	NewInvalidator(store).InvalidateUser(ctx, "u1")

	if _, ok := store.Get(ctx, WorkoutsKey("u1")); ok {
		t.Fatal("user-scoped key survived pattern invalidation")
	}
	if _, ok := store.Get(ctx, ProfileKey("u1")); ok {
		t.Fatal("profile key survived pattern invalidation")
	}
	if _, ok := store.Get(ctx, ExercisesAllKey); !ok {
		t.Fatal("catalog key must not match the user pattern")
	}
}

func TestInvalidateExerciseCatalog(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	store.Set(ctx, ExercisesAllKey, []byte(`[]`), TTLCatalog)
	store.Set(ctx, ExerciseKey("e1"), []byte(`{}`), TTLCatalog)
	store.Set(ctx, ExercisesMuscleKey("Chest"), []byte(`[]`), TTLCatalog)

	NewInvalidator(store).InvalidateExerciseCatalog(ctx, "e1", "Chest")

	for _, key := range []string{ExercisesAllKey, ExerciseKey("e1"), ExercisesMuscleKey("chest")} {
		if _, ok := store.Get(ctx, key); ok {
			t.Fatalf("key %s should have been invalidated", key)
		}
	}
}

func TestKeyNamespace(t *testing.T) {
	cases := map[string]string{
		ProfileKey("42"):              "user:42:profile",
		ProgressKey("42"):             "user:42:progress",
		WorkoutsKey("42"):             "user:42:workouts",
		StatsKey("42"):                "user:42:stats",
		ExerciseKey("e9"):             "exercise:e9",
		ExercisesMuscleKey("Biceps"): "exercises:muscle:biceps",
		MemberWorkoutsKey("m7"):       "workouts:member:m7",
		UserPattern("42"):             "user:42:*",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("key mismatch: got %q want %q", got, want)
		}
	}
	if ExercisesAllKey != "exercises:all" {
		t.Fatalf("catalog key drifted: %s", ExercisesAllKey)
	}
}
