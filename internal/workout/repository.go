package workout

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository is the database-backed store for profiles, plans, logs and
// feedback. Persistence is last-write-wins: concurrent adaptation runs for the
// same user can interleave writes, and this layer does not coordinate them.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// SaveProfile inserts or replaces a user profile.
func (r *Repository) SaveProfile(ctx context.Context, profile *UserProfile) error {
	goals, err := json.Marshal(profile.Goals)
	if err != nil {
		return fmt.Errorf("failed to marshal goals: %w", err)
	}
	equipment, err := json.Marshal(profile.Equipment)
	if err != nil {
		return fmt.Errorf("failed to marshal equipment: %w", err)
	}
	schedule, err := json.Marshal(profile.Schedule)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}
	constraints, err := json.Marshal(profile.Constraints)
	if err != nil {
		return fmt.Errorf("failed to marshal constraints: %w", err)
	}

	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO users
		(user_id, goals, experience_level, equipment, schedule, constraints, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.UserID,
		string(goals),
		string(profile.ExperienceLevel),
		string(equipment),
		string(schedule),
		string(constraints),
		createdAt,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile for user %s: %w", profile.UserID, err)
	}
	return nil
}

// GetProfile retrieves a user profile, or (nil, nil) if it does not exist.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*UserProfile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, goals, experience_level, equipment, schedule, constraints, created_at, updated_at
		FROM users WHERE user_id = ?`, userID)

	var (
		p                                        UserProfile
		goals, equipment, schedule, constraints  string
		level                                    string
	)
	err := row.Scan(&p.UserID, &goals, &level, &equipment, &schedule, &constraints, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile for user %s: %w", userID, err)
	}

	p.ExperienceLevel = ExperienceLevel(level)
	if err := json.Unmarshal([]byte(goals), &p.Goals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal goals: %w", err)
	}
	if err := json.Unmarshal([]byte(equipment), &p.Equipment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal equipment: %w", err)
	}
	if err := json.Unmarshal([]byte(schedule), &p.Schedule); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schedule: %w", err)
	}
	if err := json.Unmarshal([]byte(constraints), &p.Constraints); err != nil {
		return nil, fmt.Errorf("failed to unmarshal constraints: %w", err)
	}
	return &p, nil
}

// SavePlan persists a workout plan. Plans are never updated after persistence.
func (r *Repository) SavePlan(ctx context.Context, plan *WorkoutPlan) error {
	days, err := json.Marshal(plan.Days)
	if err != nil {
		return fmt.Errorf("failed to marshal plan days: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workout_plans
		(plan_id, user_id, week_number, days, adaptation_rationale, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		plan.PlanID,
		plan.UserID,
		plan.WeekNumber,
		string(days),
		plan.AdaptationRationale,
		plan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save plan %s: %w", plan.PlanID, err)
	}
	return nil
}

const planColumns = "plan_id, user_id, week_number, days, adaptation_rationale, created_at"

func (r *Repository) scanPlan(row *sql.Row) (*WorkoutPlan, error) {
	var (
		plan      WorkoutPlan
		days      string
		rationale sql.NullString
	)
	err := row.Scan(&plan.PlanID, &plan.UserID, &plan.WeekNumber, &days, &rationale, &plan.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}
	plan.AdaptationRationale = rationale.String
	if err := json.Unmarshal([]byte(days), &plan.Days); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan days: %w", err)
	}
	return &plan, nil
}

// GetPlan retrieves a plan by ID, or (nil, nil) if absent.
func (r *Repository) GetPlan(ctx context.Context, planID string) (*WorkoutPlan, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+planColumns+" FROM workout_plans WHERE plan_id = ?", planID)
	return r.scanPlan(row)
}

// GetCurrentPlan retrieves the user's most recent plan by week number then
// creation time, or (nil, nil) if the user has no plans.
func (r *Repository) GetCurrentPlan(ctx context.Context, userID string) (*WorkoutPlan, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+planColumns+` FROM workout_plans
		WHERE user_id = ?
		ORDER BY week_number DESC, created_at DESC
		LIMIT 1`, userID)
	return r.scanPlan(row)
}

// GetPlanForWeek retrieves the most recent plan for a specific week, or (nil, nil).
func (r *Repository) GetPlanForWeek(ctx context.Context, userID string, weekNumber int) (*WorkoutPlan, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+planColumns+` FROM workout_plans
		WHERE user_id = ? AND week_number = ?
		ORDER BY created_at DESC
		LIMIT 1`, userID, weekNumber)
	return r.scanPlan(row)
}

// SaveLog persists a completed-session log. Logs are write-once.
func (r *Repository) SaveLog(ctx context.Context, log *WorkoutLog) error {
	exercises, err := json.Marshal(log.Exercises)
	if err != nil {
		return fmt.Errorf("failed to marshal log exercises: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workout_logs
		(log_id, user_id, plan_id, day, exercises, session_rpe, duration_minutes, general_feedback, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.LogID,
		log.UserID,
		log.PlanID,
		string(log.Day),
		string(exercises),
		log.SessionRPE,
		log.DurationMinutes,
		log.GeneralFeedback,
		log.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save log %s: %w", log.LogID, err)
	}
	return nil
}

// ListWeekLogs retrieves all of a user's logs whose plan belongs to the given
// week, joined through the plan id.
func (r *Repository) ListWeekLogs(ctx context.Context, userID string, weekNumber int) ([]WorkoutLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT wl.log_id, wl.user_id, wl.plan_id, wl.day, wl.exercises,
		       wl.session_rpe, wl.duration_minutes, wl.general_feedback, wl.completed_at
		FROM workout_logs wl
		JOIN workout_plans wp ON wl.plan_id = wp.plan_id
		WHERE wl.user_id = ? AND wp.week_number = ?
		ORDER BY wl.completed_at`, userID, weekNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list week logs: %w", err)
	}
	defer rows.Close()

	var logs []WorkoutLog
	for rows.Next() {
		var (
			l         WorkoutLog
			day       string
			exercises string
			feedback  sql.NullString
		)
		if err := rows.Scan(&l.LogID, &l.UserID, &l.PlanID, &day, &exercises,
			&l.SessionRPE, &l.DurationMinutes, &feedback, &l.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		l.Day = Weekday(day)
		l.GeneralFeedback = feedback.String
		if err := json.Unmarshal([]byte(exercises), &l.Exercises); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log exercises: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// SaveFeedback persists a feedback submission with its extracted insights.
func (r *Repository) SaveFeedback(ctx context.Context, fb *UserFeedback) error {
	insights, err := json.Marshal(fb.ExtractedInsights)
	if err != nil {
		return fmt.Errorf("failed to marshal insights: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO feedback
		(feedback_id, user_id, week_number, feedback_text, sentiment, extracted_insights, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fb.FeedbackID,
		fb.UserID,
		fb.WeekNumber,
		fb.FeedbackText,
		string(fb.Sentiment),
		string(insights),
		fb.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save feedback %s: %w", fb.FeedbackID, err)
	}
	return nil
}
