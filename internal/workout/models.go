package workout

import (
	"fmt"
	"time"
)

// Weekday is a training weekday. Weekends are rest days and never planned.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
)

// Weekdays lists the plannable days in week order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

// ParseWeekday validates and normalizes a weekday string.
func ParseWeekday(s string) (Weekday, error) {
	d := Weekday(s)
	for _, w := range Weekdays {
		if d == w {
			return d, nil
		}
	}
	return "", fmt.Errorf("invalid weekday %q", s)
}

// Offset returns the number of days after Monday (0 for monday, 4 for friday).
func (d Weekday) Offset() int {
	for i, w := range Weekdays {
		if d == w {
			return i
		}
	}
	return 0
}

// ExperienceLevel is the user's self-reported training tier.
type ExperienceLevel string

const (
	Beginner     ExperienceLevel = "beginner"
	Intermediate ExperienceLevel = "intermediate"
	Advanced     ExperienceLevel = "advanced"
)

// Sentiment classifies free-text feedback.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Schedule describes when and how long the user can train.
type Schedule struct {
	DaysPerWeek     int      `json:"days_per_week"`
	SessionDuration int      `json:"session_duration"`
	PreferredTimes  []string `json:"preferred_times"`
}

// Constraints lists free-text injuries and limitations to plan around.
type Constraints struct {
	Injuries    []string `json:"injuries"`
	Limitations []string `json:"limitations"`
}

// UserProfile is the stored profile a workflow run reads. It is loaded once
// per run and treated as read-only thereafter.
type UserProfile struct {
	UserID          string          `json:"user_id"`
	Goals           []string        `json:"goals"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	Equipment       []string        `json:"equipment"`
	Schedule        Schedule        `json:"schedule"`
	Constraints     Constraints     `json:"constraints"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// HasEquipment reports whether the user declared the given equipment.
func (p *UserProfile) HasEquipment(name string) bool {
	for _, e := range p.Equipment {
		if e == name {
			return true
		}
	}
	return false
}

// PlannedExercise is a single prescribed exercise within a day.
type PlannedExercise struct {
	ExerciseID   string `json:"exercise_id"`
	ExerciseName string `json:"exercise_name"`
	Sets         int    `json:"sets"`
	Reps         string `json:"reps"` // a number or a range/text descriptor, e.g. "8-12"
	RestSeconds  int    `json:"rest_seconds"`
	TargetRPE    int    `json:"target_rpe"`
	Notes        string `json:"notes,omitempty"`
}

// DayPlan is one weekday's session within a plan.
type DayPlan struct {
	Day               Weekday           `json:"day"`
	Focus             string            `json:"focus"`
	Exercises         []PlannedExercise `json:"exercises"`
	EstimatedDuration int               `json:"estimated_duration"`
}

// WorkoutPlan is a full week of sessions. Plans are immutable once persisted;
// adaptation creates a new plan for the following week.
type WorkoutPlan struct {
	PlanID              string    `json:"plan_id"`
	UserID              string    `json:"user_id"`
	WeekNumber          int       `json:"week_number"`
	CreatedAt           time.Time `json:"created_at"`
	Days                []DayPlan `json:"days"`
	AdaptationRationale string    `json:"adaptation_rationale,omitempty"`
}

// CompletedExercise records what was actually performed for one exercise.
type CompletedExercise struct {
	ExerciseID    string   `json:"exercise_id"`
	ExerciseName  string   `json:"exercise_name"`
	CompletedSets int      `json:"completed_sets"`
	ActualReps    []int    `json:"actual_reps"`
	WeightUsed    *float64 `json:"weight_used,omitempty"`
	RPE           int      `json:"rpe"`
	Notes         string   `json:"notes,omitempty"`
}

// WorkoutLog records one completed session. Logs are write-once.
type WorkoutLog struct {
	LogID           string              `json:"log_id"`
	UserID          string              `json:"user_id"`
	PlanID          string              `json:"plan_id"`
	Day             Weekday             `json:"day"`
	CompletedAt     time.Time           `json:"completed_at"`
	Exercises       []CompletedExercise `json:"exercises"`
	SessionRPE      int                 `json:"session_rpe"`
	DurationMinutes int                 `json:"duration_minutes"`
	GeneralFeedback string              `json:"general_feedback,omitempty"`
}

// ExtractedInsights is the structured reading of free-text feedback.
type ExtractedInsights struct {
	Sentiment         Sentiment `json:"sentiment"`
	FatigueIndicators []string  `json:"fatigue_indicators"`
	PainFlags         []string  `json:"pain_flags"`
	Preferences       []string  `json:"preferences"`
	ScheduleConflicts []string  `json:"schedule_conflicts"`
}

// ProgressionIndicators summarize the week's training trend.
type ProgressionIndicators struct {
	StrengthGains         bool   `json:"strength_gains"`
	EnduranceImprovements bool   `json:"endurance_improvements"`
	FormQuality           string `json:"form_quality"` // improving, stable, declining
}

// WeeklyMetrics aggregates a week's logs against the planned schedule.
// Derived on demand; a nil *WeeklyMetrics means "no data yet", which is
// distinct from zero-valued metrics.
type WeeklyMetrics struct {
	UserID                string                `json:"user_id"`
	WeekNumber            int                   `json:"week_number"`
	AdherenceRate         float64               `json:"adherence_rate"`
	AverageRPE            float64               `json:"average_rpe"`
	CompletedSessions     int                   `json:"completed_sessions"`
	TotalPlannedSessions  int                   `json:"total_planned_sessions"`
	ProgressionIndicators ProgressionIndicators `json:"progression_indicators"`
	Concerns              []string              `json:"concerns"`
}

// UserFeedback is a stored free-text feedback submission with its analysis.
type UserFeedback struct {
	FeedbackID        string            `json:"feedback_id"`
	UserID            string            `json:"user_id"`
	WeekNumber        int               `json:"week_number"`
	FeedbackText      string            `json:"feedback_text"`
	Sentiment         Sentiment         `json:"sentiment"`
	ExtractedInsights ExtractedInsights `json:"extracted_insights"`
	SubmittedAt       time.Time         `json:"submitted_at"`
}
