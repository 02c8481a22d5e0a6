package exercises

import (
	"fmt"
	"strings"
)

// Exercise is one entry in the exercise library. The library seeds a basic
// bodyweight set via migrations and grows through ingestion.
type Exercise struct {
	ExerciseID        string   `json:"exercise_id"`
	Name              string   `json:"name"`
	Category          string   `json:"category"`
	EquipmentRequired []string `json:"equipment_required"`
	DifficultyLevel   string   `json:"difficulty_level"`
	Instructions      string   `json:"instructions"`
	SafetyNotes       []string `json:"safety_notes"`
	Progressions      []string `json:"progressions"`
}

// EmbeddingText is the canonical text representation used for similarity
// search. Keeping it stable means stored embeddings stay comparable.
func (e Exercise) EmbeddingText() string {
	return fmt.Sprintf("%s. Category: %s. Equipment: %s. Difficulty: %s. %s",
		e.Name, e.Category, strings.Join(e.EquipmentRequired, ", "), e.DifficultyLevel, e.Instructions)
}

// SlugFromName derives a stable exercise_id from a display name.
func SlugFromName(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '/':
			return '_'
		default:
			return -1
		}
	}, slug)
	for strings.Contains(slug, "__") {
		slug = strings.ReplaceAll(slug, "__", "_")
	}
	return strings.Trim(slug, "_")
}
