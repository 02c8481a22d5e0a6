package exercises

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"slices"
)

// VectorRepository stores exercise embeddings for similarity search.
// Embeddings are JSON arrays in a TEXT column; the library is small enough
// that scans stay cheap.
type VectorRepository struct {
	db *sql.DB
}

// NewVectorRepository creates a new VectorRepository.
func NewVectorRepository(d *sql.DB) *VectorRepository {
	return &VectorRepository{db: d}
}

// Save inserts or replaces the embedding for an exercise.
func (r *VectorRepository) Save(ctx context.Context, exerciseID string, embedding []float32) error {
	data, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO exercise_embeddings (exercise_id, embedding)
		VALUES (?, ?)`, exerciseID, string(data))
	if err != nil {
		return fmt.Errorf("failed to save embedding for %s: %w", exerciseID, err)
	}
	return nil
}

// Get retrieves the embedding for an exercise, or (nil, nil) if absent.
func (r *VectorRepository) Get(ctx context.Context, exerciseID string) ([]float32, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `
		SELECT embedding FROM exercise_embeddings WHERE exercise_id = ?`, exerciseID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get embedding for %s: %w", exerciseID, err)
	}

	var embedding []float32
	if err := json.Unmarshal([]byte(data), &embedding); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedding for %s: %w", exerciseID, err)
	}
	return embedding, nil
}

// FindSimilar returns the IDs of the exercises closest to the query
// embedding, best first.
func (r *VectorRepository) FindSimilar(ctx context.Context, queryEmbedding []float32, limit int, excludeIDs []string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT exercise_id, embedding FROM exercise_embeddings`)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}
	defer rows.Close()

	excludeMap := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excludeMap[id] = struct{}{}
	}

	type scoredExercise struct {
		ExerciseID string
		Score      float64
	}
	var scored []scoredExercise

	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		if _, excluded := excludeMap[id]; excluded {
			continue
		}

		var embedding []float32
		if err := json.Unmarshal([]byte(data), &embedding); err != nil {
			log.Printf("Warning: skipping malformed embedding for exercise %s: %v", id, err)
			continue
		}

		scored = append(scored, scoredExercise{
			ExerciseID: id,
			Score:      cosineSimilarity(queryEmbedding, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(scored, func(a, b scoredExercise) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if limit > len(scored) {
		limit = len(scored)
	}
	result := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		result = append(result, scored[i].ExerciseID)
	}
	return result, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
