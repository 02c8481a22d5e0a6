package export

import (
	"os"
	"strings"
	"testing"
	"time"

	"ai-workout-coach/internal/workout"
)

func calendarPlan() *workout.WorkoutPlan {
	return &workout.WorkoutPlan{
		PlanID:     "plan-1",
		UserID:     "user-1",
		WeekNumber: 1,
		CreatedAt:  time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		Days: []workout.DayPlan{
			{
				Day:   workout.Monday,
				Focus: "upper_body",
				Exercises: []workout.PlannedExercise{
					{ExerciseID: "push_ups", ExerciseName: "Push-ups", Sets: 3, Reps: "8-15", RestSeconds: 60, TargetRPE: 7},
				},
				EstimatedDuration: 40,
			},
			{
				Day:   workout.Wednesday,
				Focus: "cardio",
				Exercises: []workout.PlannedExercise{
					{ExerciseID: "jumping_jacks", ExerciseName: "Jumping Jacks", Sets: 4, Reps: "30 seconds", RestSeconds: 30, TargetRPE: 8},
				},
				EstimatedDuration: 25,
			},
		},
	}
}

func TestRenderICS(t *testing.T) {
	// Monday 2026-08-24.
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	ics := RenderICS(calendarPlan(), start)

	if !strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n") || !strings.HasSuffix(ics, "END:VCALENDAR\r\n") {
		t.Error("Expected a complete VCALENDAR envelope")
	}
	if got := strings.Count(ics, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("Expected 2 events, got %d", got)
	}
	if !strings.Contains(ics, "DTSTART:20260824T090000") {
		t.Error("Expected Monday session to start at 09:00")
	}
	if !strings.Contains(ics, "DTEND:20260824T094000") {
		t.Error("Expected Monday session to run 40 minutes")
	}
	if !strings.Contains(ics, "DTSTART:20260826T090000") {
		t.Error("Expected Wednesday session two days later")
	}
	if !strings.Contains(ics, "SUMMARY:Upper Body Workout") {
		t.Error("Expected focus-titled summary")
	}
	if !strings.Contains(ics, "TRIGGER:-PT15M") {
		t.Error("Expected a 15 minute reminder alarm")
	}
	if !strings.Contains(ics, "LOCATION:Home Gym") {
		t.Error("Expected the default location")
	}
}

func TestNextMonday(t *testing.T) {
	cases := map[string]struct {
		now  time.Time
		want time.Time
	}{
		"MidWeek": {
			now:  time.Date(2026, 8, 27, 15, 30, 0, 0, time.UTC), // Thursday
			want: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
		"OnMondayRollsToNext": {
			now:  time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
		"Sunday": {
			now:  time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := NextMonday(tc.now); !got.Equal(tc.want) {
				t.Errorf("NextMonday(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestFocusTitle(t *testing.T) {
	cases := map[string]string{
		"upper_body": "Upper Body",
		"cardio":     "Cardio",
		"full_body":  "Full Body",
		"":           "Training",
	}
	for input, want := range cases {
		if got := FocusTitle(input); got != want {
			t.Errorf("FocusTitle(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCalendarStore(t *testing.T) {
	store, err := NewCalendarStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create CalendarStore: %v", err)
	}
	plan := calendarPlan()
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	if store.Exists(plan) {
		t.Error("Expected no export before saving")
	}

	path, err := store.Save(plan, start)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasSuffix(path, "user-1_week1.ics") {
		t.Errorf("Unexpected export path: %s", path)
	}
	if !store.Exists(plan) {
		t.Error("Expected export to exist after saving")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	if !strings.Contains(string(data), "BEGIN:VCALENDAR") {
		t.Error("Expected calendar content on disk")
	}
}
