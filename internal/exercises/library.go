package exercises

import (
	"context"
	"fmt"

	"ai-workout-coach/internal/llm"
)

// Library combines the exercise store with semantic search over embeddings.
// It backs substitution suggestions during plan adaptation.
type Library struct {
	repo    *Repository
	vectors *VectorRepository
	embGen  llm.EmbeddingGenerator
}

// NewLibrary creates a new Library.
func NewLibrary(repo *Repository, vectors *VectorRepository, embGen llm.EmbeddingGenerator) *Library {
	return &Library{repo: repo, vectors: vectors, embGen: embGen}
}

// Add saves an exercise and its embedding in one step.
func (l *Library) Add(ctx context.Context, ex *Exercise) error {
	if err := l.repo.Save(ctx, ex); err != nil {
		return err
	}
	embedding, err := l.embGen.GenerateEmbedding(ctx, ex.EmbeddingText())
	if err != nil {
		return fmt.Errorf("failed to embed exercise %s: %w", ex.ExerciseID, err)
	}
	return l.vectors.Save(ctx, ex.ExerciseID, embedding)
}

// Reindex generates embeddings for every exercise missing one. Seeded
// exercises arrive via migration without embeddings, so this runs at startup.
func (l *Library) Reindex(ctx context.Context) (int, error) {
	all, err := l.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, ex := range all {
		existing, err := l.vectors.Get(ctx, ex.ExerciseID)
		if err != nil {
			return indexed, err
		}
		if existing != nil {
			continue
		}
		embedding, err := l.embGen.GenerateEmbedding(ctx, ex.EmbeddingText())
		if err != nil {
			return indexed, fmt.Errorf("failed to embed exercise %s: %w", ex.ExerciseID, err)
		}
		if err := l.vectors.Save(ctx, ex.ExerciseID, embedding); err != nil {
			return indexed, err
		}
		indexed++
	}
	return indexed, nil
}

// FindSubstitutes suggests replacement exercise names for a free-text query
// such as a pain complaint. Best matches come first.
func (l *Library) FindSubstitutes(ctx context.Context, query string, limit int) ([]string, error) {
	queryEmbedding, err := l.embGen.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed substitution query: %w", err)
	}

	ids, err := l.vectors.FindSimilar(ctx, queryEmbedding, limit, nil)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		ex, err := l.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if ex == nil {
			continue
		}
		names = append(names, ex.Name)
	}
	return names, nil
}
