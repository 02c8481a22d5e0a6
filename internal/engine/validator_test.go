package engine

import (
	"testing"

	"ai-workout-coach/internal/workout"
)

func validationProfile() *workout.UserProfile {
	return &workout.UserProfile{
		UserID:          "user-1",
		ExperienceLevel: workout.Beginner,
		Equipment:       []string{"bodyweight"},
		Schedule:        workout.Schedule{DaysPerWeek: 3, SessionDuration: 45},
	}
}

func TestValidatePlan(t *testing.T) {
	profile := validationProfile()

	t.Run("NoDays", func(t *testing.T) {
		violations := validatePlan(&workout.WorkoutPlan{}, profile)
		if len(violations) != 1 || violations[0].Code != violationNoDays {
			t.Errorf("Expected a single no_days violation, got %v", violations)
		}
	})

	t.Run("EmptyDay", func(t *testing.T) {
		plan := &workout.WorkoutPlan{Days: []workout.DayPlan{
			{Day: workout.Monday, Focus: "upper_body", EstimatedDuration: 40},
		}}
		violations := validatePlan(plan, profile)
		if len(violations) != 1 || violations[0].Code != violationEmptyDay {
			t.Errorf("Expected an empty_day violation, got %v", violations)
		}
	})

	t.Run("OverBudget", func(t *testing.T) {
		plan := &workout.WorkoutPlan{Days: []workout.DayPlan{
			{
				Day:               workout.Monday,
				Focus:             "upper_body",
				Exercises:         []workout.PlannedExercise{{ExerciseID: "push_ups", ExerciseName: "Push-ups", Sets: 3, Reps: "10", RestSeconds: 60, TargetRPE: 7}},
				EstimatedDuration: 75,
			},
		}}
		violations := validatePlan(plan, profile)
		if len(violations) != 1 || violations[0].Code != violationOverBudget {
			t.Errorf("Expected an over_budget violation, got %v", violations)
		}
	})

	t.Run("WithinTolerance", func(t *testing.T) {
		plan := &workout.WorkoutPlan{Days: []workout.DayPlan{
			{
				Day:               workout.Monday,
				Focus:             "upper_body",
				Exercises:         []workout.PlannedExercise{{ExerciseID: "push_ups", ExerciseName: "Push-ups", Sets: 3, Reps: "10", RestSeconds: 60, TargetRPE: 7}},
				EstimatedDuration: 60, // 45 + 15 is still acceptable
			},
		}}
		if violations := validatePlan(plan, profile); len(violations) != 0 {
			t.Errorf("Expected no violations at the tolerance boundary, got %v", violations)
		}
	})
}

func TestRepairPlan(t *testing.T) {
	profile := validationProfile()

	t.Run("FillsEmptyDay", func(t *testing.T) {
		plan := &workout.WorkoutPlan{Days: []workout.DayPlan{
			{Day: workout.Monday, Focus: "upper_body", EstimatedDuration: 40},
		}}
		violations := validatePlan(plan, profile)
		plan = repairPlan(plan, violations)

		if len(plan.Days[0].Exercises) != 1 {
			t.Fatalf("Expected one filler exercise, got %d", len(plan.Days[0].Exercises))
		}
		ex := plan.Days[0].Exercises[0]
		if ex.ExerciseID != "push_ups" || ex.Sets != 2 || ex.Reps != "5-10" || ex.RestSeconds != 60 || ex.TargetRPE != 6 {
			t.Errorf("Unexpected filler exercise: %+v", ex)
		}
	})

	t.Run("OverBudgetDayStaysAsPrescribed", func(t *testing.T) {
		plan := &workout.WorkoutPlan{Days: []workout.DayPlan{
			{
				Day:               workout.Tuesday,
				Focus:             "lower_body",
				Exercises:         []workout.PlannedExercise{{ExerciseID: "squats", ExerciseName: "Squats", Sets: 3, Reps: "12", RestSeconds: 60, TargetRPE: 7}},
				EstimatedDuration: 90,
			},
		}}
		violations := validatePlan(plan, profile)
		if len(violations) != 1 || violations[0].Code != violationOverBudget {
			t.Fatalf("Expected an over_budget violation, got %v", violations)
		}
		plan = repairPlan(plan, violations)

		// Repair is additive-only: the finding is reported, the duration
		// the model prescribed is kept.
		if plan.Days[0].EstimatedDuration != 90 {
			t.Errorf("Expected duration untouched at 90, got %d", plan.Days[0].EstimatedDuration)
		}
	})

	t.Run("RepairIsIdempotent", func(t *testing.T) {
		plan := &workout.WorkoutPlan{Days: []workout.DayPlan{
			{Day: workout.Monday, Focus: "upper_body", EstimatedDuration: 90},
		}}

		plan = repairPlan(plan, validatePlan(plan, profile))
		for _, v := range validatePlan(plan, profile) {
			if v.Code == violationEmptyDay {
				t.Fatalf("Empty day survived repair: %v", v)
			}
		}

		plan = repairPlan(plan, validatePlan(plan, profile))
		if len(plan.Days[0].Exercises) != 1 {
			t.Errorf("Second repair pass changed the plan: %+v", plan.Days[0].Exercises)
		}
		if plan.Days[0].EstimatedDuration != 90 {
			t.Errorf("Repair altered the estimated duration: %d", plan.Days[0].EstimatedDuration)
		}
	})
}
