package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ai-workout-coach/internal/workout"
)

// CalendarStore writes rendered calendar files to disk so they can be served
// or shared.
type CalendarStore struct {
	basePath string
}

// NewCalendarStore creates a new CalendarStore and ensures the base directory exists.
func NewCalendarStore(basePath string) (*CalendarStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create exports directory %s: %w", basePath, err)
	}
	return &CalendarStore{basePath: basePath}, nil
}

func (s *CalendarStore) path(plan *workout.WorkoutPlan) string {
	filename := fmt.Sprintf("%s_week%d.ics", plan.UserID, plan.WeekNumber)
	return filepath.Join(s.basePath, filename)
}

// Save renders the plan as iCalendar and writes it, returning the file path.
// Re-exporting the same week overwrites the previous file.
func (s *CalendarStore) Save(plan *workout.WorkoutPlan, start time.Time) (string, error) {
	content := RenderICS(plan, start)
	filePath := s.path(plan)
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write calendar file: %w", err)
	}
	return filePath, nil
}

// Exists checks whether a calendar export for the plan's week is on disk.
func (s *CalendarStore) Exists(plan *workout.WorkoutPlan) bool {
	_, err := os.Stat(s.path(plan))
	return !os.IsNotExist(err)
}
