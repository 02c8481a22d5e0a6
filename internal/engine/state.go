package engine

import (
	"fmt"

	"ai-workout-coach/internal/shared"
	"ai-workout-coach/internal/workout"
)

// Stage tags the workflow step that last touched a State.
type Stage string

const (
	StageProfileIntake       Stage = "profile_intake"
	StagePlanGeneration      Stage = "plan_generation"
	StagePlanValidation      Stage = "plan_validation"
	StageFeedbackAnalysis    Stage = "feedback_analysis"
	StageMetricsCalculation  Stage = "metrics_calculation"
	StageAdaptationDecision  Stage = "adaptation_decision"
	StageRationaleGeneration Stage = "rationale_generation"
	StageTerminal            Stage = "terminal"
)

// Action is a discrete plan adaptation chosen by the decision stage.
type Action string

const (
	ActionReduceVolume         Action = "reduce_volume"
	ActionDeloadIntensity      Action = "deload_intensity"
	ActionExerciseSubstitution Action = "exercise_substitution"
	ActionAdjustTiming         Action = "adjust_timing"
)

// State is the single carrier threaded through the workflow stages. It is
// passed by value: each stage returns its successor state instead of mutating
// a shared object. A State lives for exactly one workflow invocation; only
// the terminal plan and rationale outlive it.
type State struct {
	UserID     string
	Profile    *workout.UserProfile
	TargetWeek int

	PlanHistory   []workout.WorkoutPlan
	CandidatePlan *workout.WorkoutPlan
	Violations    []Violation

	Logs         []workout.WorkoutLog
	FeedbackText string
	Insights     workout.ExtractedInsights

	Metrics *workout.WeeklyMetrics

	Actions    []Action
	Reasoning  string
	Rationale  string
	KeyChanges []string

	Stage     Stage
	ErrorNote string

	Metas []shared.AgentMeta
}

// withError records a stage failure on the state without aborting the run.
func (s State) withError(stage Stage, err error) State {
	note := fmt.Sprintf("%s error: %v", stage, err)
	if s.ErrorNote != "" {
		note = s.ErrorNote + "; " + note
	}
	s.ErrorNote = note
	return s
}

// withMeta appends the operational metadata of one model call.
func (s State) withMeta(meta shared.AgentMeta) State {
	s.Metas = append(s.Metas, meta)
	return s
}
