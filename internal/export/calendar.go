package export

import (
	"fmt"
	"strings"
	"time"

	"ai-workout-coach/internal/workout"
)

const (
	sessionStartHour = 9
	reminderMinutes  = 15
	defaultLocation  = "Home Gym"
)

// icsTimeLayout is the floating local time format iCalendar expects.
const icsTimeLayout = "20060102T150405"

// RenderICS produces an iCalendar document with one event per planned day.
// Events start at 09:00 local time during the week beginning at start, which
// must be a Monday; each carries a reminder alarm 15 minutes before.
func RenderICS(plan *workout.WorkoutPlan, start time.Time) string {
	var sb strings.Builder
	sb.WriteString("BEGIN:VCALENDAR\r\n")
	sb.WriteString("VERSION:2.0\r\n")
	sb.WriteString("PRODID:-//ai-workout-coach//Workout Plans//EN\r\n")
	sb.WriteString("CALSCALE:GREGORIAN\r\n")

	stamp := plan.CreatedAt.UTC().Format(icsTimeLayout) + "Z"
	for _, day := range plan.Days {
		begin := time.Date(start.Year(), start.Month(), start.Day()+day.Day.Offset(),
			sessionStartHour, 0, 0, 0, start.Location())
		duration := day.EstimatedDuration
		if duration <= 0 {
			duration = 45
		}
		end := begin.Add(time.Duration(duration) * time.Minute)

		sb.WriteString("BEGIN:VEVENT\r\n")
		sb.WriteString(fmt.Sprintf("UID:%s-%s@ai-workout-coach\r\n", plan.PlanID, day.Day))
		sb.WriteString("DTSTAMP:" + stamp + "\r\n")
		sb.WriteString("DTSTART:" + begin.Format(icsTimeLayout) + "\r\n")
		sb.WriteString("DTEND:" + end.Format(icsTimeLayout) + "\r\n")
		sb.WriteString("SUMMARY:" + escapeICS(FocusTitle(day.Focus)+" Workout") + "\r\n")
		sb.WriteString("DESCRIPTION:" + escapeICS(dayDescription(day)) + "\r\n")
		sb.WriteString("LOCATION:" + escapeICS(defaultLocation) + "\r\n")
		sb.WriteString("BEGIN:VALARM\r\n")
		sb.WriteString(fmt.Sprintf("TRIGGER:-PT%dM\r\n", reminderMinutes))
		sb.WriteString("ACTION:DISPLAY\r\n")
		sb.WriteString("DESCRIPTION:Workout reminder\r\n")
		sb.WriteString("END:VALARM\r\n")
		sb.WriteString("END:VEVENT\r\n")
	}

	sb.WriteString("END:VCALENDAR\r\n")
	return sb.String()
}

// NextMonday returns the Monday strictly after now at midnight, so exported
// plans always land in a full upcoming week.
func NextMonday(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(time.Monday) - int(day.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return day.AddDate(0, 0, offset)
}

// FocusTitle turns a focus tag like "upper_body" into "Upper Body".
func FocusTitle(focus string) string {
	if focus == "" {
		return "Training"
	}
	words := strings.Split(focus, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func dayDescription(day workout.DayPlan) string {
	lines := make([]string, 0, len(day.Exercises)+1)
	for _, ex := range day.Exercises {
		lines = append(lines, fmt.Sprintf("%s: %d x %s (RPE %d)", ex.ExerciseName, ex.Sets, ex.Reps, ex.TargetRPE))
	}
	lines = append(lines, fmt.Sprintf("Estimated duration: %d minutes", day.EstimatedDuration))
	return strings.Join(lines, "\n")
}

func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
