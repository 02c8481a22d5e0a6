package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"ai-workout-coach/internal/config"
	"ai-workout-coach/internal/database"
	"ai-workout-coach/internal/engine"
	"ai-workout-coach/internal/exercises"
	"ai-workout-coach/internal/export"
	"ai-workout-coach/internal/llm"
	"ai-workout-coach/internal/metrics"
	"ai-workout-coach/internal/server"
	"ai-workout-coach/internal/shared"
	"ai-workout-coach/internal/workout"
)

// App holds the application's dependencies.
type App struct {
	cfg          *config.Config
	db           *database.DB
	repo         *workout.Repository
	library      *exercises.Library
	extractor    *exercises.Extractor
	engine       *engine.Engine
	metricsStore *metrics.Store
	calendars    *export.CalendarStore
}

// NewApp wires the full dependency graph on top of an opened database.
func NewApp(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	textGen llm.TextGenerator,
	embedGen llm.EmbeddingGenerator,
	extractorGen llm.TextGenerator,
) (*App, error) {
	repo := workout.NewRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	exerciseRepo := exercises.NewRepository(db.SQL)
	vectorRepo := exercises.NewVectorRepository(db.SQL)
	library := exercises.NewLibrary(exerciseRepo, vectorRepo, llm.NewCachedEmbeddingGenerator(embedGen))
	extractor := exercises.NewExtractor(library, extractorGen)

	calendars, err := export.NewCalendarStore(cfg.ExportsPath)
	if err != nil {
		return nil, err
	}

	bounded := llm.NewBoundedGenerator(textGen, cfg.LLMTimeout)
	eng := engine.New(repo, bounded, library)

	return &App{
		cfg:          cfg,
		db:           db,
		repo:         repo,
		library:      library,
		extractor:    extractor,
		engine:       eng,
		metricsStore: metricsStore,
		calendars:    calendars,
	}, nil
}

// Engine exposes the workflow engine for surfaces built on the App.
func (a *App) Engine() *engine.Engine { return a.engine }

// Repository exposes the workout store.
func (a *App) Repository() *workout.Repository { return a.repo }

// MetricsStore exposes the execution metrics store.
func (a *App) MetricsStore() *metrics.Store { return a.metricsStore }

// ReindexExercises embeds any library entries still missing embeddings.
func (a *App) ReindexExercises(ctx context.Context) error {
	indexed, err := a.library.Reindex(ctx)
	if err != nil {
		return fmt.Errorf("failed to reindex exercises: %w", err)
	}
	if indexed > 0 {
		log.Printf("Indexed %d exercises for similarity search.", indexed)
	}
	return nil
}

// GeneratePlan runs plan generation for a user and prints the result.
func (a *App) GeneratePlan(ctx context.Context, userID string, week int) error {
	fmt.Printf("Generating week %d plan for %s...\n", week, userID)

	plan, metas, err := a.engine.GeneratePlan(ctx, userID, week)
	a.recordMetas(metas)
	if err != nil {
		return fmt.Errorf("failed to generate plan: %w", err)
	}

	printPlan(plan)
	return nil
}

// AdaptPlan runs the adaptation workflow and prints the outcome.
func (a *App) AdaptPlan(ctx context.Context, userID string, week int, feedback string) error {
	fmt.Printf("Adapting week %d for %s...\n", week, userID)

	result, metas, err := a.engine.AdaptPlan(ctx, userID, week, feedback)
	a.recordMetas(metas)
	if err != nil {
		return fmt.Errorf("failed to adapt plan: %w", err)
	}

	fmt.Println("\n=== ADAPTATION ===")
	fmt.Println(result.Rationale)
	for _, c := range result.KeyChanges {
		fmt.Printf("- %s\n", c)
	}
	if result.Metrics != nil {
		fmt.Printf("\nLast week: %d/%d sessions, adherence %.0f%%, average RPE %.1f\n",
			result.Metrics.CompletedSessions, result.Metrics.TotalPlannedSessions,
			result.Metrics.AdherenceRate*100, result.Metrics.AverageRPE)
	}
	if result.NextPlan != nil {
		printPlan(result.NextPlan)
	}
	return nil
}

// ProcessFeedback stores one free-text feedback submission.
func (a *App) ProcessFeedback(ctx context.Context, userID string, week int, text string) error {
	fb, metas, err := a.engine.ProcessFeedback(ctx, userID, week, text)
	a.recordMetas(metas)
	if err != nil {
		return fmt.Errorf("failed to process feedback: %w", err)
	}
	fmt.Printf("Feedback recorded (%s). Pain flags: %v\n", fb.Sentiment, fb.ExtractedInsights.PainFlags)
	return nil
}

// IngestExercise fetches a page and adds the extracted exercise to the library.
func (a *App) IngestExercise(ctx context.Context, url string) error {
	fmt.Printf("Ingesting exercise from %s...\n", url)
	ex, err := a.extractor.IngestURL(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to ingest exercise: %w", err)
	}
	fmt.Printf("Added %q (%s, %s) to the library.\n", ex.Name, ex.Category, ex.DifficultyLevel)
	return nil
}

// ExportCalendar writes the user's current plan as an .ics file.
func (a *App) ExportCalendar(ctx context.Context, userID string) error {
	plan, err := a.repo.GetCurrentPlan(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load current plan: %w", err)
	}
	if plan == nil {
		return fmt.Errorf("no plan to export for user %s", userID)
	}

	path, err := a.calendars.Save(plan, export.NextMonday(time.Now()))
	if err != nil {
		return err
	}
	fmt.Printf("Calendar exported to %s\n", path)
	return nil
}

// Serve starts the HTTP API on the given address. Blocks until the server exits.
func (a *App) Serve(addr string) error {
	srv := server.New(a.repo, a.engine, a.metricsStore, a.calendars, a.cfg.JWTSecret)
	log.Printf("HTTP API listening on %s", addr)
	return http.ListenAndServe(addr, srv)
}

func (a *App) recordMetas(metas []shared.AgentMeta) {
	for _, meta := range metas {
		if err := a.metricsStore.RecordMeta(context.Background(), meta); err != nil {
			log.Printf("Warning: failed to record metrics for %s: %v", meta.AgentName, err)
		}
	}
}

func printPlan(plan *workout.WorkoutPlan) {
	fmt.Printf("\n=== WEEK %d PLAN ===\n", plan.WeekNumber)
	for _, day := range plan.Days {
		fmt.Printf("%-10s %s (%d min)\n", day.Day, export.FocusTitle(day.Focus), day.EstimatedDuration)
		for _, ex := range day.Exercises {
			fmt.Printf("  - %s: %d x %s, rest %ds, RPE %d\n",
				ex.ExerciseName, ex.Sets, ex.Reps, ex.RestSeconds, ex.TargetRPE)
		}
	}
	if plan.AdaptationRationale != "" {
		fmt.Printf("\n%s\n", plan.AdaptationRationale)
	}
}
