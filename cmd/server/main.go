package main

import (
	"log"

	openai "github.com/sashabaranov/go-openai"

	"github.com/autosolutionsai-didac/Falcon/internal/api"
	"github.com/autosolutionsai-didac/Falcon/internal/config"
	"github.com/autosolutionsai-didac/Falcon/internal/database"
	"github.com/autosolutionsai-didac/Falcon/internal/services"
	"github.com/autosolutionsai-didac/Falcon/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize postgres
	repo, err := database.NewRepository(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}

	// Initialize MongoDB client (optional - for analysis result caching)
	var mongoClient *database.MongoDBClient
	if cfg.MongoDB.URI != "" || cfg.MongoDB.Host != "" {
		mongoClient, err = database.NewMongoDBClient(cfg.MongoDB)
		if err != nil {
			log.Printf("WARNING: Failed to connect to MongoDB (caching disabled): %v", err)
			mongoClient = nil
		} else {
			log.Printf("Successfully connected to MongoDB for analysis caching")
			defer mongoClient.Close()
		}
	} else {
		log.Printf("MongoDB not configured, analysis result caching disabled")
	}

	// Initialize object storage for uploaded documents
	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO client: %v", err)
	}

	// Initialize the reasoning backend
	openaiConfig := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		openaiConfig.BaseURL = cfg.OpenAI.BaseURL
	}
	openaiClient := openai.NewClientWithConfig(openaiConfig)

	// Initialize services
	forensicService := services.NewForensicService(openaiClient, cfg.OpenAI)
	reportService := services.NewReportService()
	pdfService := services.NewPDFService()
	emailService := services.NewEmailService(cfg.Email)
	taskService := services.NewTaskService()
	extractionService := services.NewExtractionService(minioClient, nil, repo)

	// The worker treats a typed nil cache as enabled, so only hand it
	// a cacher when MongoDB actually connected.
	var cacher services.ResultCacher
	if mongoClient != nil {
		cacher = mongoClient
	}

	worker := services.NewAnalysisWorker(
		forensicService,
		reportService,
		pdfService,
		repo,
		emailService,
		cacher,
		taskService,
		cfg.Task,
	)

	// Hourly sweep of expired terminal tasks
	retentionCron := taskService.StartRetentionSweep(cfg.Task.Retention)
	defer retentionCron.Stop()

	// Initialize handlers and routes
	handlers := api.NewHandlers(repo, worker, taskService, extractionService, minioClient, mongoClient)
	router := api.SetupRoutes(handlers, cfg.JWT.Secret)

	// Start server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
