package app

import (
	"context"
	"fmt"

	"ai-workout-coach/internal/workout"
)

// DemoUserID is the profile seeded for local walkthroughs.
const DemoUserID = "demo_user"

// SeedDemo stores a demo profile so generate/adapt can be tried immediately.
func (a *App) SeedDemo(ctx context.Context) error {
	profile := &workout.UserProfile{
		UserID:          DemoUserID,
		Goals:           []string{"general_fitness", "strength"},
		ExperienceLevel: workout.Beginner,
		Equipment:       []string{"bodyweight", "resistance_bands"},
		Schedule: workout.Schedule{
			DaysPerWeek:     5,
			SessionDuration: 45,
			PreferredTimes:  []string{"morning"},
		},
		Constraints: workout.Constraints{
			Injuries:    []string{},
			Limitations: []string{"no gym access"},
		},
	}

	if err := a.repo.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to seed demo profile: %w", err)
	}
	fmt.Printf("Seeded demo profile %q (beginner, 5 sessions/week, 45 min).\n", DemoUserID)
	fmt.Println("Try: ai-workout-coach generate demo_user 1")
	return nil
}
