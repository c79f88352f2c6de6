package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/videoremix/api/internal/cache"
	"github.com/videoremix/api/internal/client"
	"github.com/videoremix/api/internal/config"
	"github.com/videoremix/api/internal/handler"
	"github.com/videoremix/api/internal/middleware"
	"github.com/videoremix/api/internal/pipeline"
	"github.com/videoremix/api/internal/service"
	"github.com/videoremix/api/internal/store"
	"github.com/videoremix/api/internal/timeline"
	"github.com/videoremix/api/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// External clients
	shotstackClient := client.NewShotstackClient(&cfg.Shotstack)
	pexelsClient := client.NewPexelsClient(&cfg.Pexels)

	var storage client.StorageClient
	if r2Client, err := client.NewR2Client(&cfg.R2); err != nil {
		log.Printf("R2 storage not configured, narration stays simulated: %v", err)
	} else {
		storage = r2Client
	}

	ttsClient := client.NewTTSClient(&cfg.TTS, storage)

	// Stores and caches
	projectStore := store.NewProjectStore(redisClient)
	urlCache := cache.NewRenderURLCache(shotstackClient,
		time.Duration(cfg.Playback.CacheTTLMinutes)*time.Minute)

	// Pipeline orchestrator
	remixPipeline := pipeline.New(projectStore, ttsClient, pexelsClient, shotstackClient, pipeline.Options{
		Storage:        storage,
		ArchiveRenders: cfg.R2.ArchiveRenders,
		Output: timeline.Options{
			Resolution: cfg.Shotstack.Resolution,
			FPS:        cfg.Shotstack.FPS,
			Quality:    cfg.Shotstack.Quality,
		},
	})

	// Services
	remixService := service.NewRemixService(projectStore, asynqClient)

	// Handlers
	remixHandler := handler.NewRemixHandler(remixService, validate)
	playbackHandler := handler.NewPlaybackHandler(urlCache)

	// Middleware
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"shotstack": shotstackClient.IsConfigured(),
				"pexels":    pexelsClient.IsConfigured(),
				"tts":       ttsClient.IsConfigured(),
				"storage":   storage != nil,
			},
		})
	})

	// API routes
	api := app.Group("/api")
	api.Post("/remix", rateLimiter.RemixLimit(cfg.RateLimit.RemixPerHour), remixHandler.Start)
	api.Get("/projects", remixHandler.ListProjects)
	api.Get("/projects/:id", remixHandler.GetProject)
	api.Get("/videos/:renderId", playbackHandler.Resolve)

	// Start Asynq worker server
	go startWorkerServer(cfg, remixPipeline)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// startWorkerServer runs the queue consumer. Concurrency is fixed at one:
// exactly one remix job is ever in flight per process.
func startWorkerServer(cfg *config.Config, remixPipeline *pipeline.Pipeline) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"remix": 1,
			},
		},
	)

	remixWorker := worker.NewRemixWorker(remixPipeline)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeRemix, remixWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
