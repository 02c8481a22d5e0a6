package exercises

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Repository is the database-backed store for the exercise library.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts or replaces an exercise.
func (r *Repository) Save(ctx context.Context, ex *Exercise) error {
	equipment, err := json.Marshal(ex.EquipmentRequired)
	if err != nil {
		return fmt.Errorf("failed to marshal equipment: %w", err)
	}
	safety, err := json.Marshal(ex.SafetyNotes)
	if err != nil {
		return fmt.Errorf("failed to marshal safety notes: %w", err)
	}
	progressions, err := json.Marshal(ex.Progressions)
	if err != nil {
		return fmt.Errorf("failed to marshal progressions: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO exercises
		(exercise_id, name, category, equipment_required, difficulty_level, instructions, safety_notes, progressions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ExerciseID, ex.Name, ex.Category, string(equipment), ex.DifficultyLevel,
		ex.Instructions, string(safety), string(progressions),
	)
	if err != nil {
		return fmt.Errorf("failed to save exercise %s: %w", ex.ExerciseID, err)
	}
	return nil
}

// Get retrieves an exercise by ID, or (nil, nil) if it does not exist.
func (r *Repository) Get(ctx context.Context, exerciseID string) (*Exercise, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT exercise_id, name, category, equipment_required, difficulty_level, instructions, safety_notes, progressions
		FROM exercises WHERE exercise_id = ?`, exerciseID)

	ex, err := scanExercise(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get exercise %s: %w", exerciseID, err)
	}
	return ex, nil
}

// List retrieves all exercises in the library.
func (r *Repository) List(ctx context.Context) ([]Exercise, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT exercise_id, name, category, equipment_required, difficulty_level, instructions, safety_notes, progressions
		FROM exercises ORDER BY exercise_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	defer rows.Close()

	var out []Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		out = append(out, *ex)
	}
	return out, rows.Err()
}

// Count returns the number of exercises in the library.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exercises`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count exercises: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExercise(row rowScanner) (*Exercise, error) {
	var (
		ex                              Exercise
		equipment, safety, progressions sql.NullString
	)
	err := row.Scan(&ex.ExerciseID, &ex.Name, &ex.Category, &equipment, &ex.DifficultyLevel,
		&ex.Instructions, &safety, &progressions)
	if err != nil {
		return nil, err
	}
	if equipment.Valid && equipment.String != "" {
		if err := json.Unmarshal([]byte(equipment.String), &ex.EquipmentRequired); err != nil {
			return nil, fmt.Errorf("failed to unmarshal equipment: %w", err)
		}
	}
	if safety.Valid && safety.String != "" {
		if err := json.Unmarshal([]byte(safety.String), &ex.SafetyNotes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal safety notes: %w", err)
		}
	}
	if progressions.Valid && progressions.String != "" {
		if err := json.Unmarshal([]byte(progressions.String), &ex.Progressions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal progressions: %w", err)
		}
	}
	return &ex, nil
}
