package engine

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"ai-workout-coach/internal/shared"
	"ai-workout-coach/internal/workout"

	"github.com/google/uuid"
)

//go:embed plan_prompt.md
var planPrompt string

type planPromptData struct {
	Experience         string
	Goals              string
	Equipment          string
	SessionDuration    int
	MinDuration        int
	MaxDuration        int
	PreferredTimes     string
	Constraints        string
	WeekNumber         int
	History            string
	AdaptationGuidance string
}

// planPayload is the structure the model is asked to return.
type planPayload struct {
	Days      []dayPayload `json:"days"`
	Rationale string       `json:"rationale"`
}

type dayPayload struct {
	Day               string                    `json:"day"`
	Focus             string                    `json:"focus"`
	Exercises         []workout.PlannedExercise `json:"exercises"`
	EstimatedDuration int                       `json:"estimated_duration"`
}

// planGeneration synthesizes the candidate plan. A model failure, timeout or
// unparseable response falls back to the deterministic template; the error is
// recorded but the stage always yields a plan.
func (e *Engine) planGeneration(ctx context.Context, s State) (State, error) {
	prompt, err := buildPlanPrompt(s.Profile, s.TargetWeek, s.PlanHistory, s.Actions, s.KeyChanges)
	if err != nil {
		s.CandidatePlan = fallbackPlan(s.Profile, s.TargetWeek)
		return s, fmt.Errorf("failed to build plan prompt: %w", err)
	}

	start := time.Now()
	resp, err := e.textGen.GenerateContent(ctx, prompt)
	s = s.withMeta(shared.AgentMeta{
		AgentName: "Synthesizer",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	})
	if err != nil {
		s.CandidatePlan = fallbackPlan(s.Profile, s.TargetWeek)
		return s, fmt.Errorf("plan generation call failed: %w", err)
	}

	payload, err := parsePlanPayload(resp.Content)
	if err != nil {
		s.CandidatePlan = fallbackPlan(s.Profile, s.TargetWeek)
		return s, err
	}

	plan, err := planFromPayload(payload, s.Profile.UserID, s.TargetWeek)
	if err != nil {
		s.CandidatePlan = fallbackPlan(s.Profile, s.TargetWeek)
		return s, err
	}

	if s.Rationale != "" {
		plan.AdaptationRationale = s.Rationale
	}
	s.CandidatePlan = plan
	return s, nil
}

// historySummary condenses prior plans into one line per week so the model
// can progress from what the user already trained, not repeat it.
func historySummary(history []workout.WorkoutPlan) string {
	var lines []string
	for _, p := range history {
		seen := make(map[string]bool)
		var names []string
		for _, d := range p.Days {
			for _, ex := range d.Exercises {
				if seen[ex.ExerciseName] {
					continue
				}
				seen[ex.ExerciseName] = true
				names = append(names, ex.ExerciseName)
			}
		}
		lines = append(lines, fmt.Sprintf("Week %d: %s", p.WeekNumber, strings.Join(names, ", ")))
	}
	return strings.Join(lines, "\n")
}

func buildPlanPrompt(profile *workout.UserProfile, weekNumber int, history []workout.WorkoutPlan, actions []Action, keyChanges []string) (string, error) {
	equipment := strings.Join(profile.Equipment, ", ")
	if equipment == "" {
		equipment = "bodyweight only"
	}
	goals := strings.Join(profile.Goals, ", ")
	if goals == "" {
		goals = "general fitness"
	}
	constraints := strings.Join(append(append([]string{}, profile.Constraints.Injuries...), profile.Constraints.Limitations...), ", ")
	if constraints == "" {
		constraints = "None"
	}

	var guidance string
	if len(actions) > 0 {
		parts := make([]string, 0, len(actions))
		for _, a := range actions {
			parts = append(parts, string(a))
		}
		guidance = "Apply these adaptations: " + strings.Join(parts, ", ")
		if len(keyChanges) > 0 {
			guidance += ". " + strings.Join(keyChanges, ". ")
		}
	}

	data := planPromptData{
		Experience:         string(profile.ExperienceLevel),
		Goals:              goals,
		Equipment:          equipment,
		SessionDuration:    profile.Schedule.SessionDuration,
		MinDuration:        profile.Schedule.SessionDuration - 5,
		MaxDuration:        profile.Schedule.SessionDuration + 5,
		PreferredTimes:     strings.Join(profile.Schedule.PreferredTimes, ", "),
		Constraints:        constraints,
		WeekNumber:         weekNumber,
		History:            historySummary(history),
		AdaptationGuidance: guidance,
	}

	tmpl, err := template.New("plan").Parse(planPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// parsePlanPayload extracts the first balanced JSON object from the model
// response and checks its structure.
func parsePlanPayload(response string) (*planPayload, error) {
	raw, err := extractJSON(response)
	if err != nil {
		return nil, fmt.Errorf("no plan payload in response: %w. Response: %s", err, response)
	}

	var payload planPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse plan payload: %w. Response: %s", err, response)
	}

	if len(payload.Days) == 0 {
		return nil, fmt.Errorf("plan payload has no days. Response: %s", response)
	}
	return &payload, nil
}

func planFromPayload(payload *planPayload, userID string, weekNumber int) (*workout.WorkoutPlan, error) {
	days := make([]workout.DayPlan, 0, len(payload.Days))
	for _, d := range payload.Days {
		day, err := workout.ParseWeekday(strings.ToLower(d.Day))
		if err != nil {
			return nil, fmt.Errorf("plan payload: %w", err)
		}
		days = append(days, workout.DayPlan{
			Day:               day,
			Focus:             d.Focus,
			Exercises:         d.Exercises,
			EstimatedDuration: d.EstimatedDuration,
		})
	}

	rationale := payload.Rationale
	if rationale == "" {
		rationale = fmt.Sprintf("AI-generated plan for week %d", weekNumber)
	}

	return &workout.WorkoutPlan{
		PlanID:              uuid.NewString(),
		UserID:              userID,
		WeekNumber:          weekNumber,
		CreatedAt:           time.Now().UTC(),
		Days:                days,
		AdaptationRationale: rationale,
	}, nil
}
