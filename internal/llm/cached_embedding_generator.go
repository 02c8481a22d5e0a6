package llm

import (
	"context"
	"fmt"
	"sync"
)

// CachedEmbeddingGenerator wraps an EmbeddingGenerator with an in-memory
// cache, reducing API calls when the same text is embedded repeatedly
// (exercise ingestion retries, substitution lookups).
type CachedEmbeddingGenerator struct {
	realGen EmbeddingGenerator
	cache   map[string][]float32
	mu      sync.Mutex
}

// NewCachedEmbeddingGenerator creates a new CachedEmbeddingGenerator.
func NewCachedEmbeddingGenerator(realGen EmbeddingGenerator) *CachedEmbeddingGenerator {
	return &CachedEmbeddingGenerator{
		realGen: realGen,
		cache:   make(map[string][]float32),
	}
}

// GenerateEmbedding checks the cache first. If the embedding is not found,
// it calls the real generator, stores the result in the cache, and returns it.
func (c *CachedEmbeddingGenerator) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if embedding, ok := c.cache[text]; ok {
		return embedding, nil
	}

	embedding, err := c.realGen.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding using real generator: %w", err)
	}

	c.cache[text] = embedding
	return embedding, nil
}
