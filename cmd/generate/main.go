package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"doesitwork/internal/config"
	"doesitwork/internal/database"
	"doesitwork/internal/generator"
	"doesitwork/internal/logging"
	"doesitwork/internal/services"
)

// Manual trigger for the generation pipeline. Runs one batch and prints a
// summary; exits nonzero if the run failed outright or every attempted
// idea failed.
func main() {
	logging.Init()

	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg := config.Load()

	batchSize := flag.Int("batch", cfg.BatchSize, "daily target count of published articles")
	poolSize := flag.Int("pool", cfg.PoolSize, "maximum ideas to sample")
	dryRun := flag.Bool("dry-run", false, "select ideas but do not mark or generate")
	flag.Parse()

	if cfg.MongoURI == "" {
		log.Fatal("❌ MONGODB_URI environment variable is required")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Fatal("❌ OPENAI_API_KEY environment variable is required")
	}

	mongoDB, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Close(context.Background())

	gen, err := generator.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		log.Fatalf("❌ Failed to initialize OpenAI generator: %v", err)
	}

	service := services.NewGenerationService(
		services.NewIdeaService(mongoDB),
		services.NewQuestionService(mongoDB),
		gen,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	result, err := service.Run(ctx, services.GenerationOptions{
		BatchSize: *batchSize,
		PoolSize:  *poolSize,
		DryRun:    *dryRun,
	})
	if err != nil {
		log.Fatalf("❌ Generation run failed: %v", err)
	}

	fmt.Printf("\nRun %s\n", result.RunID)
	fmt.Printf("  Published today: %d (target %d)\n", result.PublishedToday, *batchSize)
	fmt.Printf("  Attempted:       %d\n", result.Attempted)
	fmt.Printf("  Successful:      %d\n", result.Successful)
	fmt.Printf("  Duplicates:      %d\n", result.Duplicates)
	fmt.Printf("  Failed:          %d\n", result.Failed)
	for _, slug := range result.CreatedSlugs {
		fmt.Printf("  + %s\n", slug)
	}
	fmt.Println(result.Summary)

	if result.Attempted > 0 && result.Successful == 0 && result.Duplicates == 0 {
		os.Exit(1)
	}
}
