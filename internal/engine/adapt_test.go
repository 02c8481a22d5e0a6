package engine

import (
	"context"
	"strings"
	"testing"

	"ai-workout-coach/internal/workout"
)

func metricsState(adherence, avgRPE float64) State {
	return State{
		UserID:     "user-1",
		TargetWeek: 1,
		Metrics: &workout.WeeklyMetrics{
			UserID:               "user-1",
			WeekNumber:           1,
			AdherenceRate:        adherence,
			AverageRPE:           avgRPE,
			CompletedSessions:    3,
			TotalPlannedSessions: 5,
		},
	}
}

func TestAdaptationDecision(t *testing.T) {
	ctx := context.Background()
	engine := New(nil, nil, nil)

	t.Run("LowAdherenceReducesVolume", func(t *testing.T) {
		s, err := engine.adaptationDecision(ctx, metricsState(0.5, 7.0))
		if err != nil {
			t.Fatalf("adaptationDecision failed: %v", err)
		}
		if len(s.Actions) != 1 || s.Actions[0] != ActionReduceVolume {
			t.Errorf("Expected reduce_volume only, got %v", s.Actions)
		}
	})

	t.Run("HighRPEDeloads", func(t *testing.T) {
		s, err := engine.adaptationDecision(ctx, metricsState(0.8, 9.0))
		if err != nil {
			t.Fatalf("adaptationDecision failed: %v", err)
		}
		if len(s.Actions) != 1 || s.Actions[0] != ActionDeloadIntensity {
			t.Errorf("Expected deload_intensity only, got %v", s.Actions)
		}
	})

	t.Run("RuleOrderIsStable", func(t *testing.T) {
		state := metricsState(0.5, 9.0)
		state.Insights = workout.ExtractedInsights{
			PainFlags:         []string{"knee pain during squats"},
			ScheduleConflicts: []string{"busy on Wednesdays"},
		}

		s, err := engine.adaptationDecision(ctx, state)
		if err != nil {
			t.Fatalf("adaptationDecision failed: %v", err)
		}
		expected := []Action{ActionReduceVolume, ActionDeloadIntensity, ActionExerciseSubstitution, ActionAdjustTiming}
		if len(s.Actions) != len(expected) {
			t.Fatalf("Expected %d actions, got %v", len(expected), s.Actions)
		}
		for i, a := range expected {
			if s.Actions[i] != a {
				t.Errorf("Action %d: expected %s, got %s", i, a, s.Actions[i])
			}
		}
		if len(s.KeyChanges) < len(expected) {
			t.Errorf("Expected a key change per action, got %v", s.KeyChanges)
		}
	})

	t.Run("NoMetricsSkipsMetricRules", func(t *testing.T) {
		state := State{UserID: "user-1", TargetWeek: 1}
		state.Insights = workout.ExtractedInsights{PainFlags: []string{"shoulder twinge"}}

		s, err := engine.adaptationDecision(ctx, state)
		if err != nil {
			t.Fatalf("adaptationDecision failed: %v", err)
		}
		if len(s.Actions) != 1 || s.Actions[0] != ActionExerciseSubstitution {
			t.Errorf("Expected only exercise_substitution, got %v", s.Actions)
		}
		if s.Reasoning != "No sessions were logged this week" {
			t.Errorf("Unexpected reasoning: %q", s.Reasoning)
		}
	})

	t.Run("SubstituteSuggestionsLandInKeyChanges", func(t *testing.T) {
		withSubs := New(nil, nil, &stubSubstituteFinder{results: []string{"Glute Bridges", "Wall Sits"}})
		state := State{UserID: "user-1", TargetWeek: 1}
		state.Insights = workout.ExtractedInsights{PainFlags: []string{"knee pain during squats"}}

		s, err := withSubs.adaptationDecision(ctx, state)
		if err != nil {
			t.Fatalf("adaptationDecision failed: %v", err)
		}
		found := false
		for _, c := range s.KeyChanges {
			if strings.Contains(c, "Glute Bridges") {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected substitute suggestions in key changes, got %v", s.KeyChanges)
		}
	})

	t.Run("ReasoningSummary", func(t *testing.T) {
		s, err := engine.adaptationDecision(ctx, metricsState(0.6, 7.3))
		if err != nil {
			t.Fatalf("adaptationDecision failed: %v", err)
		}
		if s.Reasoning != "Adherence: 60.0%, Average RPE: 7.3, Completed: 3/5" {
			t.Errorf("Unexpected reasoning: %q", s.Reasoning)
		}
	})
}

func TestRationaleGeneration(t *testing.T) {
	ctx := context.Background()

	t.Run("NoActionsSkipsModel", func(t *testing.T) {
		gen := &stubGenerator{}
		engine := New(nil, gen, nil)

		s, err := engine.rationaleGeneration(ctx, State{})
		if err != nil {
			t.Fatalf("rationaleGeneration failed: %v", err)
		}
		if s.Rationale != congratulatoryRationale {
			t.Errorf("Expected the congratulatory rationale, got %q", s.Rationale)
		}
		if gen.calls != 0 {
			t.Errorf("Expected no model calls, got %d", gen.calls)
		}
	})

	t.Run("ModelTextBecomesRationale", func(t *testing.T) {
		gen := &stubGenerator{responses: []string{"We trimmed a session so the week fits your schedule better.\n"}}
		engine := New(nil, gen, nil)

		state := State{
			Actions:    []Action{ActionReduceVolume},
			KeyChanges: []string{"Reduced weekly volume"},
			Reasoning:  "Adherence: 40.0%, Average RPE: 7.0, Completed: 2/5",
		}
		s, err := engine.rationaleGeneration(ctx, state)
		if err != nil {
			t.Fatalf("rationaleGeneration failed: %v", err)
		}
		if s.Rationale != "We trimmed a session so the week fits your schedule better." {
			t.Errorf("Unexpected rationale: %q", s.Rationale)
		}
	})

	t.Run("FallsBackToKeyChanges", func(t *testing.T) {
		gen := &stubGenerator{responses: []string{"   "}}
		engine := New(nil, gen, nil)

		state := State{
			Actions:    []Action{ActionDeloadIntensity},
			KeyChanges: []string{"Lowered target intensity"},
		}
		s, err := engine.rationaleGeneration(ctx, state)
		if err == nil {
			t.Fatal("Expected an error for an empty model response")
		}
		if !strings.Contains(s.Rationale, "Lowered target intensity") {
			t.Errorf("Expected fallback rationale from key changes, got %q", s.Rationale)
		}
	})
}
