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
)

//go:embed feedback_prompt.md
var feedbackPrompt string

type feedbackPromptData struct {
	FeedbackText string
}

// analyzeFeedback turns free text into structured insights. Empty text skips
// the model entirely; a failed call or unparseable response degrades to
// neutral empty insights with the error returned for the caller to record.
func (e *Engine) analyzeFeedback(ctx context.Context, text string) (workout.ExtractedInsights, shared.AgentMeta, error) {
	neutral := workout.ExtractedInsights{Sentiment: workout.SentimentNeutral}
	meta := shared.AgentMeta{AgentName: "FeedbackInterpreter"}

	if strings.TrimSpace(text) == "" {
		return neutral, meta, nil
	}

	tmpl, err := template.New("feedback").Parse(feedbackPrompt)
	if err != nil {
		return neutral, meta, fmt.Errorf("failed to build feedback prompt: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, feedbackPromptData{FeedbackText: text}); err != nil {
		return neutral, meta, fmt.Errorf("failed to build feedback prompt: %w", err)
	}

	start := time.Now()
	resp, err := e.textGen.GenerateContent(ctx, buf.String())
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)
	if err != nil {
		return neutral, meta, fmt.Errorf("feedback analysis call failed: %w", err)
	}

	insights, err := parseInsights(resp.Content)
	if err != nil {
		return neutral, meta, err
	}
	return insights, meta, nil
}

func parseInsights(response string) (workout.ExtractedInsights, error) {
	neutral := workout.ExtractedInsights{Sentiment: workout.SentimentNeutral}

	raw, err := extractJSON(response)
	if err != nil {
		return neutral, fmt.Errorf("no insights in response: %w. Response: %s", err, response)
	}

	var insights workout.ExtractedInsights
	if err := json.Unmarshal([]byte(raw), &insights); err != nil {
		return neutral, fmt.Errorf("failed to parse insights: %w. Response: %s", err, response)
	}

	switch insights.Sentiment {
	case workout.SentimentPositive, workout.SentimentNeutral, workout.SentimentNegative:
	default:
		insights.Sentiment = workout.SentimentNeutral
	}
	return insights, nil
}

// feedbackAnalysis runs the interpreter over the state's feedback text and
// stashes the insights for the decision stage.
func (e *Engine) feedbackAnalysis(ctx context.Context, s State) (State, error) {
	insights, meta, err := e.analyzeFeedback(ctx, s.FeedbackText)
	s = s.withMeta(meta)
	s.Insights = insights
	if err != nil {
		return s, err
	}
	return s, nil
}
