package engine

import (
	"context"
	"fmt"

	"ai-workout-coach/internal/workout"
)

// highFatigueRPE is the average session RPE above which the week is flagged.
const highFatigueRPE = 8.5

// defaultPlannedSessions is the denominator used when no plan can be
// resolved for the week.
const defaultPlannedSessions = 5

// plannedSessions resolves how many sessions the week's plan prescribed.
// Pass the plan when the caller already has it; otherwise it is loaded.
func (e *Engine) plannedSessions(ctx context.Context, userID string, weekNumber int, plan *workout.WorkoutPlan) (int, error) {
	if plan == nil {
		var err error
		plan, err = e.repo.GetPlanForWeek(ctx, userID, weekNumber)
		if err != nil {
			return 0, fmt.Errorf("failed to load plan for week %d: %w", weekNumber, err)
		}
	}
	if plan == nil {
		return defaultPlannedSessions, nil
	}
	return len(plan.Days), nil
}

// computeMetrics aggregates one week of logs. It is pure; a nil return means
// no sessions were logged, which callers must treat differently from a week
// of zeros.
func computeMetrics(userID string, weekNumber int, logs []workout.WorkoutLog, plannedCount int) *workout.WeeklyMetrics {
	if len(logs) == 0 {
		return nil
	}
	// More logs than planned sessions caps adherence at 1.0 rather than
	// letting the rate leave its 0-1 range.
	if plannedCount < len(logs) {
		plannedCount = len(logs)
	}

	var rpeSum float64
	for _, l := range logs {
		rpeSum += float64(l.SessionRPE)
	}
	avgRPE := rpeSum / float64(len(logs))
	adherence := float64(len(logs)) / float64(plannedCount)

	m := &workout.WeeklyMetrics{
		UserID:               userID,
		WeekNumber:           weekNumber,
		AdherenceRate:        adherence,
		AverageRPE:           avgRPE,
		CompletedSessions:    len(logs),
		TotalPlannedSessions: plannedCount,
		ProgressionIndicators: workout.ProgressionIndicators{
			// Sustainable effort with high adherence reads as strength gains.
			StrengthGains: avgRPE < 8 && adherence > 0.8,
			// Showing up is the endurance signal this data can support.
			EnduranceImprovements: true,
			FormQuality:           "stable",
		},
	}
	if avgRPE < 7 {
		m.ProgressionIndicators.FormQuality = "improving"
	}
	if avgRPE > highFatigueRPE {
		m.Concerns = append(m.Concerns, "high_fatigue")
	}
	return m
}

// metricsCalculation loads the finished week's logs and derives its metrics.
// A week without logs leaves Metrics nil and is not an error.
func (e *Engine) metricsCalculation(ctx context.Context, s State) (State, error) {
	logs, err := e.repo.ListWeekLogs(ctx, s.UserID, s.TargetWeek)
	if err != nil {
		return s, fmt.Errorf("failed to load week logs: %w", err)
	}
	s.Logs = logs

	planned, err := e.plannedSessions(ctx, s.UserID, s.TargetWeek, nil)
	if err != nil {
		return s, err
	}
	s.Metrics = computeMetrics(s.UserID, s.TargetWeek, logs, planned)
	return s, nil
}
