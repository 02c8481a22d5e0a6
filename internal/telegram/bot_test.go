package telegram

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ai-workout-coach/internal/database"
	"ai-workout-coach/internal/engine"
	"ai-workout-coach/internal/workout"
)

func TestFormatPlanMarkdown(t *testing.T) {
	plan := &workout.WorkoutPlan{
		PlanID:     "plan-1",
		UserID:     "123",
		WeekNumber: 2,
		Days: []workout.DayPlan{
			{
				Day:   workout.Monday,
				Focus: "upper_body",
				Exercises: []workout.PlannedExercise{
					{ExerciseName: "Push-ups", Sets: 3, Reps: "8-15", TargetRPE: 7},
				},
				EstimatedDuration: 40,
			},
		},
		AdaptationRationale: "Building on last week",
	}

	out := FormatPlanMarkdown(plan)

	if !strings.Contains(out, "📅 *Week 2 Training Plan*") {
		t.Error("Missing plan header")
	}
	if !strings.Contains(out, "*Monday* — Upper Body (40 min)") {
		t.Error("Missing day line")
	}
	if !strings.Contains(out, "• Push-ups: 3 x 8-15, RPE 7") {
		t.Error("Missing exercise line")
	}
	if !strings.Contains(out, "_Building on last week_") {
		t.Error("Missing rationale")
	}
}

func TestFormatAdaptationMarkdown(t *testing.T) {
	result := &engine.AdaptationResult{
		Rationale:  "We lowered intensity after a hard week.",
		KeyChanges: []string{"Lowered target intensity"},
		Metrics: &workout.WeeklyMetrics{
			CompletedSessions:    4,
			TotalPlannedSessions: 5,
			AverageRPE:           8.7,
		},
	}

	out := FormatAdaptationMarkdown(result)

	if !strings.Contains(out, "🔁 *Plan Adapted*") {
		t.Error("Missing header")
	}
	if !strings.Contains(out, "We lowered intensity after a hard week.") {
		t.Error("Missing rationale")
	}
	if !strings.Contains(out, "• Lowered target intensity") {
		t.Error("Missing key change")
	}
	if !strings.Contains(out, "4/5 sessions, average RPE 8.7") {
		t.Error("Missing metrics line")
	}
}

func TestSessionRepository(t *testing.T) {
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sessions := NewSessionRepository(db.SQL)
	ctx := context.Background()

	t.Run("CreateAndGetActive", func(t *testing.T) {
		id, err := sessions.Create(ctx, "123", SessionAdaptFeedback, "awaiting_feedback",
			SessionContextData{WeekNumber: 3}, 600)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if id == 0 {
			t.Fatal("Expected a session ID")
		}

		session, err := sessions.GetActive(ctx, "123", time.Now())
		if err != nil {
			t.Fatalf("GetActive failed: %v", err)
		}
		if session == nil || session.SessionType != SessionAdaptFeedback {
			t.Fatalf("Unexpected session: %+v", session)
		}
		data, err := session.GetContextData()
		if err != nil {
			t.Fatalf("GetContextData failed: %v", err)
		}
		if data.WeekNumber != 3 {
			t.Errorf("Expected week 3 in context, got %d", data.WeekNumber)
		}
	})

	t.Run("ExpiredIsInvisible", func(t *testing.T) {
		if _, err := sessions.Create(ctx, "456", SessionAdaptFeedback, "awaiting_feedback",
			SessionContextData{WeekNumber: 1}, 600); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		session, err := sessions.GetActive(ctx, "456", time.Now().Add(time.Hour))
		if err != nil {
			t.Fatalf("GetActive failed: %v", err)
		}
		if session != nil {
			t.Errorf("Expected expired session to be invisible, got %+v", session)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		id, err := sessions.Create(ctx, "789", SessionAdaptFeedback, "awaiting_feedback",
			SessionContextData{WeekNumber: 1}, 600)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := sessions.Delete(ctx, id); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		session, err := sessions.GetActive(ctx, "789", time.Now())
		if err != nil {
			t.Fatalf("GetActive failed: %v", err)
		}
		if session != nil {
			t.Errorf("Expected session deleted, got %+v", session)
		}
	})

	t.Run("CleanupExpired", func(t *testing.T) {
		if _, err := sessions.Create(ctx, "999", SessionAdaptFeedback, "awaiting_feedback",
			SessionContextData{}, -60); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := sessions.CleanupExpired(ctx); err != nil {
			t.Fatalf("CleanupExpired failed: %v", err)
		}
		session, err := sessions.GetActive(ctx, "999", time.Now())
		if err != nil {
			t.Fatalf("GetActive failed: %v", err)
		}
		if session != nil {
			t.Errorf("Expected expired session gone, got %+v", session)
		}
	})
}
