package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ai-workout-coach/internal/config"
	"ai-workout-coach/internal/database"
	"ai-workout-coach/internal/llm"
)

type stubGenerator struct {
	err error
}

func (g *stubGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	if g.err != nil {
		return llm.ContentResponse{}, g.err
	}
	return llm.ContentResponse{Content: "{}"}, nil
}

type stubEmbedder struct{}

func (s *stubEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewDB(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		DatabasePath: filepath.Join(dir, "test.db"),
		ExportsPath:  filepath.Join(dir, "exports"),
		JWTSecret:    "test-secret",
	}

	gen := &stubGenerator{err: errors.New("model unavailable")}
	a, err := NewApp(context.Background(), cfg, db, gen, &stubEmbedder{}, gen)
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}
	return a
}

func TestAppWorkflow(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	if err := a.SeedDemo(ctx); err != nil {
		t.Fatalf("SeedDemo failed: %v", err)
	}

	if err := a.ReindexExercises(ctx); err != nil {
		t.Fatalf("ReindexExercises failed: %v", err)
	}

	// Generation works end to end even with the model down: the fallback
	// template carries the run.
	if err := a.GeneratePlan(ctx, DemoUserID, 1); err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}

	plan, err := a.Repository().GetCurrentPlan(ctx, DemoUserID)
	if err != nil || plan == nil {
		t.Fatalf("Expected a persisted plan, got %+v err %v", plan, err)
	}
	if len(plan.Days) != 5 {
		t.Errorf("Expected 5 days, got %d", len(plan.Days))
	}

	if err := a.AdaptPlan(ctx, DemoUserID, 1, "all good"); err != nil {
		t.Fatalf("AdaptPlan failed: %v", err)
	}
	next, err := a.Repository().GetCurrentPlan(ctx, DemoUserID)
	if err != nil || next == nil {
		t.Fatalf("Expected an adapted plan, got %+v err %v", next, err)
	}
	if next.WeekNumber != 2 {
		t.Errorf("Expected week 2 after adaptation, got %d", next.WeekNumber)
	}

	if err := a.ExportCalendar(ctx, DemoUserID); err != nil {
		t.Fatalf("ExportCalendar failed: %v", err)
	}
}

func TestAppGenerateWithoutProfile(t *testing.T) {
	a := newTestApp(t)
	if err := a.GeneratePlan(context.Background(), "nobody", 1); err == nil {
		t.Fatal("Expected error for a missing profile")
	}
}
