package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lexoria/practice_service/internal/audio"
	"github.com/lexoria/practice_service/internal/client"
	"github.com/lexoria/practice_service/internal/config"
	httphandler "github.com/lexoria/practice_service/internal/handler/http"
	wshandler "github.com/lexoria/practice_service/internal/handler/ws"
	"github.com/lexoria/practice_service/internal/logger"
	"github.com/lexoria/practice_service/internal/repository"
	"github.com/lexoria/practice_service/internal/server"
	"github.com/lexoria/practice_service/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Info().Str("env", cfg.Environment).Msg("Starting practice_service")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize object storage: GCS primary, R2 alternative
	var objectStore service.ObjectStore
	switch cfg.StorageBackend {
	case "r2":
		if cfg.CloudflareAccessKeyID != "" && cfg.CloudflareSecretKey != "" && cfg.CloudflareR2Endpoint != "" && cfg.CloudflareBucketName != "" {
			r2Client, err := client.NewR2Client(ctx,
				cfg.CloudflareAccessKeyID,
				cfg.CloudflareSecretKey,
				cfg.CloudflareR2Endpoint,
				cfg.CloudflareBucketName,
				cfg.CloudflarePublicURL,
			)
			if err != nil {
				log.Error().Err(err).Msg("Failed to initialize Cloudflare R2 client")
			} else {
				log.Info().Msg("Cloudflare R2 storage initialized")
				objectStore = r2Client
			}
		} else {
			log.Warn().Msg("Cloudflare configuration missing, skipping R2 initialization")
		}
	default:
		if cfg.GCSBucketName != "" {
			gcsClient, err := client.NewStorageClient(ctx, cfg.GCSBucketName)
			if err != nil {
				log.Error().Err(err).Msg("Failed to initialize GCS client")
			} else {
				log.Info().Str("bucket", cfg.GCSBucketName).Msg("GCS storage initialized")
				objectStore = gcsClient
			}
		} else {
			log.Warn().Msg("GCS_BUCKET_NAME not set, skipping storage initialization")
		}
	}

	// Initialize Redis client (upload result channel)
	var redisClient *client.RedisClient
	if cfg.RedisURL != "" {
		redisClient, err = client.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Redis client")
		} else {
			log.Info().Msg("Redis client initialized")
		}
	}

	// Initialize Postgres client
	var postgresClient *client.PostgresClient
	if cfg.DatabaseURL != "" {
		postgresClient, err = client.NewPostgresClient(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Postgres client")
		} else {
			log.Info().Msg("Postgres client initialized")
		}
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory repositories")
	}

	// Initialize Pub/Sub publisher (practice progress events)
	var events service.EventPublisher
	if cfg.PubSubProjectID != "" {
		pubsubClient, err := client.NewPubSubClient(ctx, cfg.PubSubProjectID, cfg.PubSubTopicID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Pub/Sub client")
		} else {
			log.Info().Str("topic", cfg.PubSubTopicID).Msg("Pub/Sub publisher initialized")
			events = pubsubClient
			defer pubsubClient.Close()
		}
	}

	// Initialize repositories
	var wordRepo repository.WordRepository
	var progressRepo repository.ProgressRepository
	if postgresClient != nil {
		wordRepo = repository.NewPostgresWordRepository(postgresClient)
		progressRepo = repository.NewPostgresProgressRepository(postgresClient)
	} else {
		wordRepo = repository.NewInMemoryWordRepository()
		progressRepo = repository.NewInMemoryProgressRepository()
	}

	// Initialize capture device and trimmer
	format := audio.Format{
		SampleRate:    cfg.SampleRate,
		Channels:      cfg.Channels,
		BitsPerSample: 16,
	}
	recorder, err := audio.NewRecorder(format, cfg.MaxRecording, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize capture device")
	}
	defer recorder.Close()

	trimmer := audio.NewTrimmer(int16(cfg.SilenceLevel), log)

	// Initialize remote collaborators
	var comparator service.Comparator
	if cfg.ScoringURL != "" {
		comparator = client.NewScoringClient(cfg.ScoringURL, cfg.ScoringAPIKey, cfg.ScoringTimeout)
		log.Info().Str("url", cfg.ScoringURL).Msg("Scoring engine configured")
	} else {
		log.Warn().Msg("SCORING_URL not set, feedback will always be synthesized locally")
	}

	// Reference synthesis: dedicated endpoint preferred, OpenAI TTS as the
	// alternative backend
	var synthesizer service.ReferenceSynthesizer
	switch {
	case cfg.SynthesisURL != "":
		synthesizer = client.NewSynthesisClient(cfg.SynthesisURL, cfg.SynthesisAPIKey, cfg.SynthesisTimeout)
		log.Info().Str("url", cfg.SynthesisURL).Msg("Reference synthesis endpoint configured")
	case cfg.OpenAIAPIKey != "" && objectStore != nil:
		openaiClient := client.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAITTSVoice)
		synthesizer = service.NewTTSSynthesizer(openaiClient, objectStore)
		log.Info().Str("voice", cfg.OpenAITTSVoice).Msg("OpenAI TTS reference synthesis configured")
	default:
		log.Warn().Msg("No reference synthesis backend configured")
	}

	var reference *service.ReferenceService
	if synthesizer != nil {
		reference = service.NewReferenceService(synthesizer, wordRepo, log)
	}

	// Initialize the upload worker
	var uploadService *service.UploadService
	var uploader service.Uploader
	if objectStore != nil {
		var results service.ResultQueue
		if redisClient != nil {
			results = redisClient
		}
		uploadService = service.NewUploadService(objectStore, progressRepo, results, log)
		uploadService.Start(ctx)
		uploader = uploadService
	} else {
		log.Warn().Msg("No object store configured, recordings will not be uploaded")
	}

	// Initialize the WebSocket hub (session change-notification channel)
	hub := server.NewWebSocketHub(log)
	go hub.Run(ctx)

	// Initialize the session orchestrator
	orchestrator := service.NewOrchestrator(
		recorder,
		trimmer,
		comparator,
		reference,
		uploader,
		service.NewFallbackScorer(),
		wordRepo,
		events,
		hub,
		cfg.TempDir,
		cfg.MaxRecording,
		log,
	)

	// Initialize handlers
	healthHandler := httphandler.NewHealthHandler()
	practiceHandler := httphandler.NewPracticeHandler(log, orchestrator, uploadService)
	wsHandler := wshandler.NewHandler(log, orchestrator)

	// Initialize HTTP server
	httpServer := server.NewHTTPServer(cfg, log, healthHandler, practiceHandler, hub, wsHandler)

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server error")
			cancel()
		}
	}()

	log.Info().
		Str("http_addr", cfg.HTTPAddress()).
		Msg("Servers started")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down servers...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Stop background workers and close clients
	cancel()
	if uploadService != nil {
		uploadService.Wait()
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if postgresClient != nil {
		postgresClient.Close()
	}

	log.Info().Msg("Server stopped")
}
