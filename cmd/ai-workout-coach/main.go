package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"ai-workout-coach/internal/app"
	"ai-workout-coach/internal/config"
	"ai-workout-coach/internal/database"
	"ai-workout-coach/internal/llm"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}
	defer geminiClient.Close()

	extractorModel := llm.NewGroqClient(cfg, llm.ModelExtractor, 0.1)

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	application, err := app.NewApp(ctx, cfg, db, geminiClient, geminiClient, extractorModel)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
		addr := serveCmd.String("addr", ":8080", "Address for the HTTP API to listen on")
		serveCmd.Parse(os.Args[2:])

		if err := application.ReindexExercises(ctx); err != nil {
			log.Fatalf("Failed to index exercise library: %v", err)
		}
		if err := application.Serve(*addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case "seed-demo":
		if err := application.SeedDemo(ctx); err != nil {
			log.Fatalf("Demo seeding failed: %v", err)
		}
	case "generate":
		userID, week := userWeekArgs("generate")
		if err := application.GeneratePlan(ctx, userID, week); err != nil {
			log.Fatalf("Generation failed: %v", err)
		}
	case "adapt":
		userID, week := userWeekArgs("adapt")
		feedback := strings.Join(os.Args[4:], " ")
		if err := application.AdaptPlan(ctx, userID, week, feedback); err != nil {
			log.Fatalf("Adaptation failed: %v", err)
		}
	case "feedback":
		userID, week := userWeekArgs("feedback")
		if len(os.Args) < 5 {
			log.Fatal("Usage: ai-workout-coach feedback <user-id> <week> <text...>")
		}
		text := strings.Join(os.Args[4:], " ")
		if err := application.ProcessFeedback(ctx, userID, week, text); err != nil {
			log.Fatalf("Feedback processing failed: %v", err)
		}
	case "ingest-exercise":
		if len(os.Args) < 3 {
			log.Fatal("Usage: ai-workout-coach ingest-exercise <url>")
		}
		if err := application.ReindexExercises(ctx); err != nil {
			log.Fatalf("Failed to index exercise library: %v", err)
		}
		if err := application.IngestExercise(ctx, os.Args[2]); err != nil {
			log.Fatalf("Ingestion failed: %v", err)
		}
	case "export":
		if len(os.Args) < 3 {
			log.Fatal("Usage: ai-workout-coach export <user-id>")
		}
		if err := application.ExportCalendar(ctx, os.Args[2]); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		affected, err := application.MetricsStore().Cleanup(ctx, *days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func userWeekArgs(command string) (string, int) {
	if len(os.Args) < 4 {
		log.Fatalf("Usage: ai-workout-coach %s <user-id> <week>", command)
	}
	week, err := strconv.Atoi(os.Args[3])
	if err != nil {
		log.Fatalf("Week must be a number, got %q", os.Args[3])
	}
	return os.Args[2], week
}

func printUsage() {
	fmt.Println("Usage: ai-workout-coach <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve [-addr :8080]              Start the HTTP API")
	fmt.Println("  seed-demo                        Create a demo user profile")
	fmt.Println("  generate <user-id> <week>        Generate a weekly training plan")
	fmt.Println("  adapt <user-id> <week> [text]    Adapt the plan from last week's results")
	fmt.Println("  feedback <user-id> <week> <text> Record free-text feedback for a week")
	fmt.Println("  ingest-exercise <url>            Add an exercise from a web page")
	fmt.Println("  export <user-id>                 Export the current plan as an .ics calendar")
	fmt.Println("  metrics-cleanup [-days 30]       Remove old metric records")
}
