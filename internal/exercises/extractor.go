package exercises

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ai-workout-coach/internal/llm"

	"github.com/PuerkitoBio/goquery"
)

// Extractor ingests exercises from web pages: fetch, strip noise, extract
// structured data with the model, then add to the library.
type Extractor struct {
	library    *Library
	textGen    llm.TextGenerator
	httpClient *http.Client
}

// extractedExercise is the structure the model is asked to return.
type extractedExercise struct {
	Name              string   `json:"name"`
	Category          string   `json:"category"`
	EquipmentRequired []string `json:"equipment_required"`
	DifficultyLevel   string   `json:"difficulty_level"`
	Instructions      string   `json:"instructions"`
	SafetyNotes       []string `json:"safety_notes"`
	Progressions      []string `json:"progressions"`
}

// NewExtractor creates a new Extractor.
func NewExtractor(library *Library, textGen llm.TextGenerator) *Extractor {
	return &Extractor{
		library:    library,
		textGen:    textGen,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// IngestURL fetches the URL, extracts the exercise using the model, and adds
// it to the library with its embedding.
func (e *Extractor) IngestURL(ctx context.Context, url string) (*Exercise, error) {
	content, err := e.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`
You are an exercise database curator. Extract the exercise details from the following page content.
Return the result strictly as a JSON object with this structure:
{
  "name": "Exercise Name",
  "category": "one of: chest, back, legs, core, shoulders, arms, cardio, full_body",
  "equipment_required": ["bodyweight" or equipment names],
  "difficulty_level": "beginner, intermediate, or advanced",
  "instructions": "Short step-by-step execution description",
  "safety_notes": ["key form cue 1", "key form cue 2"],
  "progressions": ["easier variation", "standard variation", "harder variation"]
}

Page Content:
%s
`, content)

	resp, err := e.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}

	var extracted extractedExercise
	if err := json.Unmarshal([]byte(resp.Content), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, resp.Content)
	}
	if extracted.Name == "" {
		return nil, fmt.Errorf("extraction produced no exercise name. Response: %s", resp.Content)
	}

	ex := &Exercise{
		ExerciseID:        SlugFromName(extracted.Name),
		Name:              extracted.Name,
		Category:          extracted.Category,
		EquipmentRequired: extracted.EquipmentRequired,
		DifficultyLevel:   extracted.DifficultyLevel,
		Instructions:      extracted.Instructions,
		SafetyNotes:       extracted.SafetyNotes,
		Progressions:      extracted.Progressions,
	}
	if err := e.library.Add(ctx, ex); err != nil {
		return nil, err
	}
	return ex, nil
}

func (e *Extractor) fetchAndCleanHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Find("body").Text(), nil
}
