package engine

import (
	"fmt"
	"strings"
	"time"

	"ai-workout-coach/internal/workout"

	"github.com/google/uuid"
)

// fallbackPlan is the hand-authored five-day template used whenever AI
// synthesis fails. It is parameterized only by equipment substitution and
// must never fail.
func fallbackPlan(profile *workout.UserProfile, weekNumber int) *workout.WorkoutPlan {
	rowName := "Resistance Band Rows"
	if profile.HasEquipment("dumbbells") {
		rowName = "Dumbbell Rows"
	}

	days := []workout.DayPlan{
		{
			Day:   workout.Monday,
			Focus: "upper_body",
			Exercises: []workout.PlannedExercise{
				{ExerciseID: "push_ups", ExerciseName: "Push-ups", Sets: 3, Reps: "8-15", RestSeconds: 60, TargetRPE: 7, Notes: "Modify on knees if needed"},
				{ExerciseID: "dumbbell_rows", ExerciseName: rowName, Sets: 3, Reps: "10-12", RestSeconds: 90, TargetRPE: 7, Notes: "Keep back straight, squeeze shoulder blades"},
				{ExerciseID: "planks", ExerciseName: "Plank Hold", Sets: 3, Reps: "30-60 seconds", RestSeconds: 60, TargetRPE: 6, Notes: "Keep straight body line"},
			},
			EstimatedDuration: 40,
		},
		{
			Day:   workout.Tuesday,
			Focus: "lower_body",
			Exercises: []workout.PlannedExercise{
				{ExerciseID: "squats", ExerciseName: "Bodyweight Squats", Sets: 3, Reps: "12-20", RestSeconds: 60, TargetRPE: 7, Notes: "Full depth, weight in heels"},
				{ExerciseID: "lunges", ExerciseName: "Forward Lunges", Sets: 3, Reps: "10 each leg", RestSeconds: 60, TargetRPE: 7, Notes: "Keep front knee over ankle"},
			},
			EstimatedDuration: 35,
		},
		{
			Day:   workout.Wednesday,
			Focus: "cardio",
			Exercises: []workout.PlannedExercise{
				{ExerciseID: "jumping_jacks", ExerciseName: "Jumping Jacks", Sets: 4, Reps: "30 seconds", RestSeconds: 30, TargetRPE: 8, Notes: "High intensity intervals"},
				{ExerciseID: "mountain_climbers", ExerciseName: "Mountain Climbers", Sets: 3, Reps: "20 seconds", RestSeconds: 40, TargetRPE: 7, Notes: "Keep hips level"},
			},
			EstimatedDuration: 25,
		},
		{
			Day:   workout.Thursday,
			Focus: "upper_body",
			Exercises: []workout.PlannedExercise{
				{ExerciseID: "push_ups", ExerciseName: "Push-ups (Different Variation)", Sets: 3, Reps: "10-18", RestSeconds: 60, TargetRPE: 8, Notes: "Try diamond or wide variations"},
				{ExerciseID: "tricep_dips", ExerciseName: "Tricep Dips", Sets: 3, Reps: "8-12", RestSeconds: 60, TargetRPE: 7, Notes: "Use chair or bench"},
			},
			EstimatedDuration: 30,
		},
		{
			Day:   workout.Friday,
			Focus: "full_body",
			Exercises: []workout.PlannedExercise{
				{ExerciseID: "burpees", ExerciseName: "Modified Burpees", Sets: 3, Reps: "5-10", RestSeconds: 90, TargetRPE: 8, Notes: "Step back instead of jumping if needed"},
				{ExerciseID: "squats", ExerciseName: "Bodyweight Squats", Sets: 2, Reps: "15", RestSeconds: 45, TargetRPE: 6, Notes: "Focus on form"},
				{ExerciseID: "push_ups", ExerciseName: "Push-ups", Sets: 2, Reps: "8-12", RestSeconds: 45, TargetRPE: 6, Notes: "End the week strong!"},
			},
			EstimatedDuration: 35,
		},
	}

	return &workout.WorkoutPlan{
		PlanID:     uuid.NewString(),
		UserID:     profile.UserID,
		WeekNumber: weekNumber,
		CreatedAt:  time.Now().UTC(),
		Days:       days,
		AdaptationRationale: fmt.Sprintf("Week %d plan customized for %s level with available equipment: %s",
			weekNumber, profile.ExperienceLevel, strings.Join(profile.Equipment, ", ")),
	}
}
