package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-workout-coach/internal/llm"
	"ai-workout-coach/internal/shared"
	"ai-workout-coach/internal/workout"

	"github.com/google/uuid"
)

// ErrProfileNotFound is returned when an operation is requested for a user
// without a stored profile. It is the only error class surfaced to callers;
// everything downstream degrades to fallbacks instead of failing.
var ErrProfileNotFound = errors.New("user profile not found")

// SubstituteFinder suggests replacement exercises when pain flags force a
// substitution. Implemented by the exercise library's similarity search.
type SubstituteFinder interface {
	FindSubstitutes(ctx context.Context, query string, limit int) ([]string, error)
}

// AdaptationResult is the outcome of an adaptation run: the decision trail
// plus the freshly generated plan for the following week.
type AdaptationResult struct {
	AdaptationID string                 `json:"adaptation_id"`
	Rationale    string                 `json:"rationale"`
	NextPlan     *workout.WorkoutPlan   `json:"next_plan"`
	Actions      []Action               `json:"actions"`
	KeyChanges   []string               `json:"key_changes"`
	Metrics      *workout.WeeklyMetrics `json:"metrics,omitempty"`
}

// Engine runs the plan-generation and adaptation workflows. Both paths are
// ordered tables of stage functions driven by the same run loop; stages
// communicate only through the State they pass along.
type Engine struct {
	repo    *workout.Repository
	textGen llm.TextGenerator
	subs    SubstituteFinder
}

// stageFunc advances the workflow by one stage. On failure it returns its
// best partial state together with the error; the run loop records the error
// and keeps going.
type stageFunc func(ctx context.Context, s State) (State, error)

type stageStep struct {
	stage Stage
	fn    stageFunc
}

// New creates a workflow engine. subs may be nil; substitution suggestions
// are then skipped.
func New(repo *workout.Repository, textGen llm.TextGenerator, subs SubstituteFinder) *Engine {
	return &Engine{
		repo:    repo,
		textGen: textGen,
		subs:    subs,
	}
}

func (e *Engine) generationSteps() []stageStep {
	return []stageStep{
		{StageProfileIntake, e.profileIntake},
		{StagePlanGeneration, e.planGeneration},
		{StagePlanValidation, e.planValidation},
	}
}

func (e *Engine) adaptationSteps() []stageStep {
	return []stageStep{
		{StageFeedbackAnalysis, e.feedbackAnalysis},
		{StageMetricsCalculation, e.metricsCalculation},
		{StageAdaptationDecision, e.adaptationDecision},
		{StageRationaleGeneration, e.rationaleGeneration},
	}
}

// run drives the stages in order. A stage error is written into the state's
// error note and the pipeline continues with whatever partial state exists.
// The run itself fails only for a missing stage function, which is a
// programming error, not a runtime condition.
func (e *Engine) run(ctx context.Context, state State, steps []stageStep) (State, error) {
	for _, step := range steps {
		if step.fn == nil {
			return state, fmt.Errorf("workflow stage %q has no function", step.stage)
		}
		state.Stage = step.stage
		next, err := step.fn(ctx, state)
		state = next
		if err != nil {
			state = state.withError(step.stage, err)
		}
	}
	state.Stage = StageTerminal
	return state, nil
}

// GeneratePlan runs the generation path for the given user and week and
// returns the persisted plan. A missing profile is fatal; model failures are
// absorbed by the template fallback so a usable plan always comes back.
func (e *Engine) GeneratePlan(ctx context.Context, userID string, weekNumber int) (*workout.WorkoutPlan, []shared.AgentMeta, error) {
	if weekNumber < 1 {
		return nil, nil, fmt.Errorf("week number must be >= 1, got %d", weekNumber)
	}

	profile, err := e.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, nil, ErrProfileNotFound
	}

	state := State{
		UserID:     userID,
		Profile:    profile,
		TargetWeek: weekNumber,
	}

	state, err = e.run(ctx, state, e.generationSteps())
	if err != nil {
		return nil, state.Metas, err
	}
	return state.CandidatePlan, state.Metas, nil
}

// AdaptPlan runs the adaptation path for the given week, then the generation
// path for week+1 seeded with the adaptation outcome. Both paths share one
// state, so the metas and error notes accumulate across all stages.
func (e *Engine) AdaptPlan(ctx context.Context, userID string, weekNumber int, feedbackText string) (*AdaptationResult, []shared.AgentMeta, error) {
	if weekNumber < 1 {
		return nil, nil, fmt.Errorf("week number must be >= 1, got %d", weekNumber)
	}

	profile, err := e.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, nil, ErrProfileNotFound
	}

	state := State{
		UserID:       userID,
		Profile:      profile,
		TargetWeek:   weekNumber,
		FeedbackText: feedbackText,
	}

	state, err = e.run(ctx, state, e.adaptationSteps())
	if err != nil {
		return nil, state.Metas, err
	}

	// The new plan belongs to the following week; the candidate slot is
	// cleared so metrics computed for the finished week are not mistaken for
	// a plan under construction.
	state.TargetWeek = weekNumber + 1
	state.CandidatePlan = nil
	state, err = e.run(ctx, state, e.generationSteps())
	if err != nil {
		return nil, state.Metas, err
	}

	rationale := state.Rationale
	if rationale == "" {
		rationale = "Plan adapted based on your progress and feedback"
	}

	return &AdaptationResult{
		AdaptationID: uuid.NewString(),
		Rationale:    rationale,
		NextPlan:     state.CandidatePlan,
		Actions:      state.Actions,
		KeyChanges:   state.KeyChanges,
		Metrics:      state.Metrics,
	}, state.Metas, nil
}

// ProcessFeedback analyzes one free-text submission and stores it with its
// extracted insights. Analysis failures degrade to empty insights.
func (e *Engine) ProcessFeedback(ctx context.Context, userID string, weekNumber int, text string) (*workout.UserFeedback, []shared.AgentMeta, error) {
	profile, err := e.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, nil, ErrProfileNotFound
	}

	insights, meta, analysisErr := e.analyzeFeedback(ctx, text)
	metas := []shared.AgentMeta{meta}

	fb := &workout.UserFeedback{
		FeedbackID:        uuid.NewString(),
		UserID:            userID,
		WeekNumber:        weekNumber,
		FeedbackText:      text,
		Sentiment:         insights.Sentiment,
		ExtractedInsights: insights,
		SubmittedAt:       time.Now().UTC(),
	}
	if analysisErr != nil {
		fb.Sentiment = workout.SentimentNeutral
	}

	if err := e.repo.SaveFeedback(ctx, fb); err != nil {
		return nil, metas, fmt.Errorf("failed to save feedback: %w", err)
	}
	return fb, metas, nil
}

// ComputeWeekMetrics exposes the metrics calculation outside a workflow run.
// A nil result means no logs exist for that week yet.
func (e *Engine) ComputeWeekMetrics(ctx context.Context, userID string, weekNumber int) (*workout.WeeklyMetrics, error) {
	logs, err := e.repo.ListWeekLogs(ctx, userID, weekNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load week logs: %w", err)
	}
	planned, err := e.plannedSessions(ctx, userID, weekNumber, nil)
	if err != nil {
		return nil, err
	}
	return computeMetrics(userID, weekNumber, logs, planned), nil
}

// profileIntake attaches the user's plan history to the state. The profile
// itself was loaded by the public operation; it is read-only from here on.
func (e *Engine) profileIntake(ctx context.Context, s State) (State, error) {
	current, err := e.repo.GetCurrentPlan(ctx, s.UserID)
	if err != nil {
		return s, fmt.Errorf("failed to load plan history: %w", err)
	}
	if current != nil {
		s.PlanHistory = append(s.PlanHistory, *current)
	}
	return s, nil
}
