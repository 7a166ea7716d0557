package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"doesitwork/internal/config"
	"doesitwork/internal/database"
	"doesitwork/internal/generator"
	"doesitwork/internal/handlers"
	"doesitwork/internal/jobs"
	"doesitwork/internal/logging"
	"doesitwork/internal/middleware"
	"doesitwork/internal/services"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Does It Actually Work server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Model: %s, Batch: %d)", cfg.Port, cfg.OpenAIModel, cfg.BatchSize)

	if cfg.MongoURI == "" {
		log.Fatal("❌ MONGODB_URI environment variable is required")
	}

	log.Println("🔗 Connecting to MongoDB...")
	mongoDB, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Close(context.Background())

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mongoDB.Initialize(initCtx); err != nil {
		cancelInit()
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	cancelInit()
	log.Println("✅ MongoDB connected and indexes ensured")

	// Services
	ideaService := services.NewIdeaService(mongoDB)
	questionService := services.NewQuestionService(mongoDB)
	subscriberService := services.NewSubscriberService(mongoDB)
	cleanupService := services.NewCleanupService(ideaService, questionService)

	var generationService *services.GenerationService
	var enhanceService *services.EnhanceService
	if cfg.OpenAIAPIKey == "" {
		log.Println("⚠️ OPENAI_API_KEY not set - generation and enhancement disabled")
	} else {
		gen, err := generator.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			log.Fatalf("❌ Failed to initialize OpenAI generator: %v", err)
		}
		generationService = services.NewGenerationService(ideaService, questionService, gen)
		enhanceService = services.NewEnhanceService(questionService, gen)
		log.Printf("✅ Generator initialized (model: %s)", cfg.OpenAIModel)
	}

	// Background scheduler for the daily generation run
	var scheduler *jobs.Scheduler
	if generationService != nil {
		scheduler, err = jobs.NewScheduler(generationService, services.GenerationOptions{
			BatchSize: cfg.BatchSize,
			PoolSize:  cfg.PoolSize,
		}, cfg.DailyRunHour)
		if err != nil {
			log.Fatalf("❌ Failed to create job scheduler: %v", err)
		}
		scheduler.Start()
		log.Printf("🕐 Daily generation scheduled at %02d:00 UTC", cfg.DailyRunHour)
	}

	app := fiber.New(fiber.Config{
		AppName:      "Does It Actually Work v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // generation triggers run a full batch inline
		IdleTimeout:  2 * time.Minute,
		BodyLimit:    5 * 1024 * 1024, // bulk idea imports
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("doesitwork")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Public=%d/min",
		rateLimitConfig.GlobalAPIMax, rateLimitConfig.PublicReadMax)

	allowedOrigins := cfg.AllowedOrigins
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,X-Cron-Secret",
		AllowCredentials: allowedOrigins != "*",
	}))

	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Handlers
	healthHandler := handlers.NewHealthHandler(mongoDB)
	authHandler := handlers.NewAuthHandler(cfg)
	questionHandler := handlers.NewQuestionHandler(questionService, enhanceService)
	ideaHandler := handlers.NewIdeaHandler(ideaService, cleanupService)
	subscribeHandler := handlers.NewSubscribeHandler(subscriberService)

	// Public routes
	app.Get("/health", healthHandler.Health)

	public := app.Group("/api", middleware.PublicReadRateLimiter(rateLimitConfig))
	public.Get("/questions", questionHandler.List)
	public.Get("/questions/search", questionHandler.Search)
	public.Get("/questions/:slug", questionHandler.GetBySlug)
	public.Get("/categories", questionHandler.Categories)
	public.Post("/subscribe", subscribeHandler.Subscribe)

	// Admin auth
	app.Post("/api/admin/login", authHandler.Login)
	app.Post("/api/admin/logout", authHandler.Logout)

	// Admin routes behind the session cookie
	admin := app.Group("/api/admin", middleware.AdminMiddleware())
	admin.Get("/questions", questionHandler.ListAdmin)
	admin.Post("/questions", questionHandler.Create)
	admin.Put("/questions/:id", questionHandler.Update)
	admin.Get("/ideas", ideaHandler.List)
	admin.Post("/ideas", ideaHandler.Create)
	admin.Post("/ideas/bulk", ideaHandler.BulkImport)
	admin.Post("/ideas/cleanup", ideaHandler.Cleanup)

	if generationService != nil {
		generationHandler := handlers.NewGenerationHandler(generationService, cfg)
		app.Post("/api/cron/generate-questions", generationHandler.TriggerCron)
		admin.Post("/generate", generationHandler.TriggerAdmin)
		admin.Post("/questions/:id/enhance", questionHandler.EnhanceOne)
		admin.Post("/questions/enhance-all", questionHandler.EnhanceAll)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if scheduler != nil {
			if err := scheduler.Stop(); err != nil {
				log.Printf("⚠️ Error stopping scheduler: %v", err)
			}
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
