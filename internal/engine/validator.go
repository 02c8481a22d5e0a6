package engine

import (
	"context"
	"fmt"

	"ai-workout-coach/internal/workout"
)

// Violation describes one plan defect found during validation.
type Violation struct {
	Code    string `json:"code"`
	Day     string `json:"day,omitempty"`
	Message string `json:"message"`
}

const (
	violationNoDays     = "no_days"
	violationEmptyDay   = "empty_day"
	violationOverBudget = "over_budget"
)

// timeBudgetToleranceMinutes is how far a day may exceed the user's session
// duration before it counts as a violation.
const timeBudgetToleranceMinutes = 15

// validatePlan checks a candidate against the profile's constraints.
func validatePlan(plan *workout.WorkoutPlan, profile *workout.UserProfile) []Violation {
	if plan == nil || len(plan.Days) == 0 {
		return []Violation{{Code: violationNoDays, Message: "plan has no training days"}}
	}

	var violations []Violation
	budget := profile.Schedule.SessionDuration + timeBudgetToleranceMinutes
	for _, day := range plan.Days {
		if len(day.Exercises) == 0 {
			violations = append(violations, Violation{
				Code:    violationEmptyDay,
				Day:     string(day.Day),
				Message: fmt.Sprintf("%s has no exercises", day.Day),
			})
		}
		if profile.Schedule.SessionDuration > 0 && day.EstimatedDuration > budget {
			violations = append(violations, Violation{
				Code:    violationOverBudget,
				Day:     string(day.Day),
				Message: fmt.Sprintf("%s estimated at %d minutes, budget is %d", day.Day, day.EstimatedDuration, budget),
			})
		}
	}
	return violations
}

// repairPlan fixes violations additively: empty days get a basic bodyweight
// exercise. Over-budget days stay as prescribed; the violation is recorded
// but the duration is not touched. Repair never removes or alters an
// exercise the model prescribed, so it is idempotent.
func repairPlan(plan *workout.WorkoutPlan, violations []Violation) *workout.WorkoutPlan {
	if plan == nil {
		return plan
	}
	for _, v := range violations {
		if v.Code != violationEmptyDay {
			continue
		}
		for i := range plan.Days {
			if string(plan.Days[i].Day) != v.Day {
				continue
			}
			plan.Days[i].Exercises = append(plan.Days[i].Exercises, workout.PlannedExercise{
				ExerciseID:   "push_ups",
				ExerciseName: "Push-ups",
				Sets:         2,
				Reps:         "5-10",
				RestSeconds:  60,
				TargetRPE:    6,
				Notes:        "Added to keep the day active",
			})
		}
	}
	return plan
}

// planValidation validates the candidate, repairs what it can, and persists
// the result. An unrepairable plan (no days at all) is replaced by the
// template fallback before saving, so this stage always persists something.
func (e *Engine) planValidation(ctx context.Context, s State) (State, error) {
	if s.CandidatePlan == nil {
		s.CandidatePlan = fallbackPlan(s.Profile, s.TargetWeek)
	}

	s.Violations = validatePlan(s.CandidatePlan, s.Profile)
	if len(s.Violations) == 1 && s.Violations[0].Code == violationNoDays {
		s.CandidatePlan = fallbackPlan(s.Profile, s.TargetWeek)
		s.Violations = validatePlan(s.CandidatePlan, s.Profile)
	}
	s.CandidatePlan = repairPlan(s.CandidatePlan, s.Violations)

	if err := e.repo.SavePlan(ctx, s.CandidatePlan); err != nil {
		return s, fmt.Errorf("failed to save plan: %w", err)
	}
	return s, nil
}
