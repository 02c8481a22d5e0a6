package acceptance_tests

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ai-workout-coach/internal/database"
	"ai-workout-coach/internal/engine"
	"ai-workout-coach/internal/exercises"
	"ai-workout-coach/internal/export"
	"ai-workout-coach/internal/llm"
	"ai-workout-coach/internal/shared"
	"ai-workout-coach/internal/workout"
)

// --- Mock LLM Client ---
//
// Routes on prompt content the way the real prompts are phrased, so the full
// workflow runs against realistic model payloads without network access.
type mockLLMClient struct {
	planCalls      int
	feedbackCalls  int
	rationaleCalls int
}

const mockPlanJSON = `{
  "days": [
    {"day": "monday", "focus": "upper_body", "estimated_duration": 40, "exercises": [
      {"exercise_id": "push_ups", "exercise_name": "Push-ups", "sets": 3, "reps": "8-12", "rest_seconds": 60, "target_rpe": 7}
    ]},
    {"day": "tuesday", "focus": "lower_body", "estimated_duration": 35, "exercises": [
      {"exercise_id": "bodyweight_squats", "exercise_name": "Bodyweight Squats", "sets": 3, "reps": "12-15", "rest_seconds": 60, "target_rpe": 7}
    ]},
    {"day": "wednesday", "focus": "cardio", "estimated_duration": 25, "exercises": [
      {"exercise_id": "jumping_jacks", "exercise_name": "Jumping Jacks", "sets": 4, "reps": "30s", "rest_seconds": 30, "target_rpe": 6}
    ]},
    {"day": "thursday", "focus": "core", "estimated_duration": 30, "exercises": [
      {"exercise_id": "planks", "exercise_name": "Planks", "sets": 3, "reps": "45s", "rest_seconds": 45, "target_rpe": 7}
    ]},
    {"day": "friday", "focus": "full_body", "estimated_duration": 35, "exercises": [
      {"exercise_id": "lunges", "exercise_name": "Lunges", "sets": 3, "reps": "10-12", "rest_seconds": 60, "target_rpe": 7}
    ]}
  ],
  "rationale": "Balanced bodyweight week."
}`

func (m *mockLLMClient) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	usage := shared.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150}

	switch {
	case strings.Contains(prompt, "reviewing a client's written feedback"):
		m.feedbackCalls++
		return llm.ContentResponse{
			Content: `{"sentiment": "negative", "fatigue_indicators": ["wiped out by Thursday"], "pain_flags": ["knee ache during lunges"], "preferences": [], "schedule_conflicts": []}`,
			Usage:   usage,
		}, nil
	case strings.Contains(prompt, "explaining next week's plan changes"):
		m.rationaleCalls++
		return llm.ContentResponse{
			Content: "You pushed hard this week, so we are easing the volume back to let your knee recover.",
			Usage:   usage,
		}, nil
	default:
		m.planCalls++
		return llm.ContentResponse{Content: mockPlanJSON, Usage: usage}, nil
	}
}

type mockEmbedder struct{}

func (m *mockEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.5, 0.5}, nil
}

func testProfile(userID string) *workout.UserProfile {
	return &workout.UserProfile{
		UserID:          userID,
		Goals:           []string{"strength"},
		ExperienceLevel: workout.Beginner,
		Equipment:       []string{"bodyweight"},
		Schedule: workout.Schedule{
			DaysPerWeek:     5,
			SessionDuration: 45,
			PreferredTimes:  []string{"morning"},
		},
	}
}

func TestWeeklyWorkflowAcceptance(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := database.NewDB(filepath.Join(dir, "acceptance.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := workout.NewRepository(db.SQL)
	model := &mockLLMClient{}

	exerciseRepo := exercises.NewRepository(db.SQL)
	vectorRepo := exercises.NewVectorRepository(db.SQL)
	library := exercises.NewLibrary(exerciseRepo, vectorRepo, llm.NewCachedEmbeddingGenerator(&mockEmbedder{}))
	if _, err := library.Reindex(ctx); err != nil {
		t.Fatalf("Failed to reindex library: %v", err)
	}

	eng := engine.New(repo, model, library)

	const userID = "acceptance_user"
	if err := repo.SaveProfile(ctx, testProfile(userID)); err != nil {
		t.Fatalf("Failed to save profile: %v", err)
	}

	// Week 1: generation should use the model response verbatim and persist it.
	plan, metas, err := eng.GeneratePlan(ctx, userID, 1)
	if err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}
	if len(plan.Days) != 5 {
		t.Fatalf("Expected 5 training days, got %d", len(plan.Days))
	}
	if model.planCalls != 1 {
		t.Errorf("Expected exactly 1 synthesis call, got %d", model.planCalls)
	}
	if len(metas) == 0 {
		t.Error("Expected telemetry metadata from the generation run")
	}

	stored, err := repo.GetPlanForWeek(ctx, userID, 1)
	if err != nil || stored == nil {
		t.Fatalf("Expected week 1 plan to be persisted, got %+v err %v", stored, err)
	}
	if stored.PlanID != plan.PlanID {
		t.Errorf("Stored plan ID %s does not match returned %s", stored.PlanID, plan.PlanID)
	}

	// Log only 2 of 5 sessions: adherence lands well below the volume threshold.
	for _, day := range []workout.Weekday{workout.Monday, workout.Tuesday} {
		log := &workout.WorkoutLog{
			LogID:       "log-" + string(day),
			UserID:      userID,
			PlanID:      plan.PlanID,
			Day:         day,
			CompletedAt: time.Now(),
			SessionRPE:  8,
		}
		if err := repo.SaveLog(ctx, log); err != nil {
			t.Fatalf("Failed to save log for %s: %v", day, err)
		}
	}

	// Free-text feedback is interpreted and stored for the adaptation run.
	fb, _, err := eng.ProcessFeedback(ctx, userID, 1, "Really wiped out, and my knee aches during lunges")
	if err != nil {
		t.Fatalf("ProcessFeedback failed: %v", err)
	}
	if fb.Sentiment != workout.SentimentNegative {
		t.Errorf("Expected negative sentiment, got %s", fb.Sentiment)
	}
	if len(fb.ExtractedInsights.PainFlags) == 0 {
		t.Error("Expected pain flags from the feedback")
	}

	// Adaptation: low adherence must reduce volume, the reported pain must
	// trigger substitution, and the next week's plan must be persisted.
	result, _, err := eng.AdaptPlan(ctx, userID, 1, "Really wiped out, and my knee aches during lunges")
	if err != nil {
		t.Fatalf("AdaptPlan failed: %v", err)
	}
	if result.NextPlan == nil {
		t.Fatal("Expected a plan for the following week")
	}
	if result.NextPlan.WeekNumber != 2 {
		t.Errorf("Expected week 2, got %d", result.NextPlan.WeekNumber)
	}
	if result.Rationale == "" {
		t.Error("Expected a non-empty adaptation rationale")
	}

	foundReduce, foundSubstitution := false, false
	for _, a := range result.Actions {
		switch a {
		case engine.ActionReduceVolume:
			foundReduce = true
		case engine.ActionExerciseSubstitution:
			foundSubstitution = true
		}
	}
	if !foundReduce {
		t.Errorf("Expected reduce_volume among actions, got %v", result.Actions)
	}
	if !foundSubstitution {
		t.Errorf("Expected exercise_substitution among actions, got %v", result.Actions)
	}

	current, err := repo.GetCurrentPlan(ctx, userID)
	if err != nil || current == nil {
		t.Fatalf("Expected a current plan, got %+v err %v", current, err)
	}
	if current.WeekNumber != 2 {
		t.Errorf("Current plan should be week 2, got %d", current.WeekNumber)
	}

	// The adapted plan exports as a calendar.
	ics := export.RenderICS(current, export.NextMonday(time.Now()))
	if !strings.Contains(ics, "BEGIN:VCALENDAR") || !strings.Contains(ics, "BEGIN:VEVENT") {
		t.Error("Expected a calendar with events")
	}

	// A different user never sees this data.
	other, err := repo.GetCurrentPlan(ctx, "someone_else")
	if err != nil {
		t.Fatalf("Lookup for another user failed: %v", err)
	}
	if other != nil {
		t.Errorf("Expected no plan for another user, got %+v", other)
	}
}
