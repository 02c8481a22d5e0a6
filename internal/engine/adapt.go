package engine

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"ai-workout-coach/internal/shared"
)

//go:embed rationale_prompt.md
var rationalePrompt string

type rationalePromptData struct {
	Reasoning string
	Changes   string
	Insights  string
}

// lowAdherenceRate is the weekly adherence below which volume is reduced.
const lowAdherenceRate = 0.6

// congratulatoryRationale is used when the week needed no changes at all.
const congratulatoryRationale = "Great work this week! Continuing with progressive overload."

// adaptationDecision applies the rules in a fixed order so two runs over the
// same week always decide the same actions. Metric rules are skipped when the
// week produced no metrics; insight rules apply regardless.
func (e *Engine) adaptationDecision(ctx context.Context, s State) (State, error) {
	s.Actions = nil
	s.KeyChanges = nil

	if s.Metrics != nil {
		if s.Metrics.AdherenceRate < lowAdherenceRate {
			s.Actions = append(s.Actions, ActionReduceVolume)
			s.KeyChanges = append(s.KeyChanges, fmt.Sprintf(
				"Reduced weekly volume: only %d of %d planned sessions were completed",
				s.Metrics.CompletedSessions, s.Metrics.TotalPlannedSessions))
		}
		if s.Metrics.AverageRPE > highFatigueRPE {
			s.Actions = append(s.Actions, ActionDeloadIntensity)
			s.KeyChanges = append(s.KeyChanges, fmt.Sprintf(
				"Lowered target intensity: average session RPE was %.1f", s.Metrics.AverageRPE))
		}
	}

	if len(s.Insights.PainFlags) > 0 {
		s.Actions = append(s.Actions, ActionExerciseSubstitution)
		s.KeyChanges = append(s.KeyChanges,
			"Substituted exercises around reported pain: "+strings.Join(s.Insights.PainFlags, "; "))
		if e.subs != nil {
			for _, flag := range s.Insights.PainFlags {
				alternatives, err := e.subs.FindSubstitutes(ctx, flag, 3)
				if err != nil || len(alternatives) == 0 {
					continue
				}
				s.KeyChanges = append(s.KeyChanges,
					fmt.Sprintf("Alternatives for %q: %s", flag, strings.Join(alternatives, ", ")))
			}
		}
	}

	if len(s.Insights.ScheduleConflicts) > 0 {
		s.Actions = append(s.Actions, ActionAdjustTiming)
		s.KeyChanges = append(s.KeyChanges,
			"Adjusted session timing around: "+strings.Join(s.Insights.ScheduleConflicts, "; "))
	}

	s.Reasoning = adaptationReasoning(s)
	return s, nil
}

func adaptationReasoning(s State) string {
	if s.Metrics == nil {
		return "No sessions were logged this week"
	}
	return fmt.Sprintf("Adherence: %.1f%%, Average RPE: %.1f, Completed: %d/%d",
		s.Metrics.AdherenceRate*100, s.Metrics.AverageRPE,
		s.Metrics.CompletedSessions, s.Metrics.TotalPlannedSessions)
}

// rationaleGeneration phrases the decision for the user. No actions means a
// fixed congratulatory message with no model call; otherwise the model writes
// the explanation, falling back to the raw change list on failure.
func (e *Engine) rationaleGeneration(ctx context.Context, s State) (State, error) {
	if len(s.Actions) == 0 {
		s.Rationale = congratulatoryRationale
		return s, nil
	}

	fallback := "Adjusted your plan: " + strings.Join(s.KeyChanges, ". ")

	tmpl, err := template.New("rationale").Parse(rationalePrompt)
	if err != nil {
		s.Rationale = fallback
		return s, fmt.Errorf("failed to build rationale prompt: %w", err)
	}

	var insightParts []string
	insightParts = append(insightParts, s.Insights.FatigueIndicators...)
	insightParts = append(insightParts, s.Insights.PainFlags...)
	insightParts = append(insightParts, s.Insights.ScheduleConflicts...)

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, rationalePromptData{
		Reasoning: s.Reasoning,
		Changes:   strings.Join(s.KeyChanges, "\n"),
		Insights:  strings.Join(insightParts, "\n"),
	})
	if err != nil {
		s.Rationale = fallback
		return s, fmt.Errorf("failed to build rationale prompt: %w", err)
	}

	start := time.Now()
	resp, err := e.textGen.GenerateContent(ctx, buf.String())
	s = s.withMeta(shared.AgentMeta{
		AgentName: "RationaleWriter",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	})
	if err != nil {
		s.Rationale = fallback
		return s, fmt.Errorf("rationale generation call failed: %w", err)
	}

	rationale := strings.TrimSpace(resp.Content)
	if rationale == "" {
		s.Rationale = fallback
		return s, fmt.Errorf("rationale generation returned empty text")
	}
	s.Rationale = rationale
	return s, nil
}
