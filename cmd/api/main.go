package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iQube-Protocol/moneypenny/internal/api"
	"github.com/iQube-Protocol/moneypenny/internal/api/handlers"
	"github.com/iQube-Protocol/moneypenny/internal/config"
	"github.com/iQube-Protocol/moneypenny/internal/extraction"
	"github.com/iQube-Protocol/moneypenny/internal/gcsuploader"
	infraBQ "github.com/iQube-Protocol/moneypenny/internal/infra/bigquery"
	"github.com/iQube-Protocol/moneypenny/internal/jobs/inmemory"
	"github.com/iQube-Protocol/moneypenny/internal/logger"
	"github.com/iQube-Protocol/moneypenny/internal/notionsync"
	"github.com/iQube-Protocol/moneypenny/internal/pipeline"
	"github.com/iQube-Protocol/moneypenny/internal/records"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file (or set CONFIG_FILE env)")
	flag.Parse()

	bootLog := logger.New("")

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := config.LoadDotEnv(); err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load .env")
	}
	if err := cfg.ApplyEnv(); err != nil {
		bootLog.Fatal().Err(err).Msg("Invalid environment")
	}
	if err := cfg.Validate(); err != nil {
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := logger.New(cfg.Log.Level)
	ctx := logger.WithContext(context.Background(), log)

	extractor, err := extraction.New(ctx, cfg.Extraction)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extraction provider")
	}
	log.Info().Str("provider", extractor.Name()).Msg("Extraction provider ready")

	// Optional sinks
	var archive gcsuploader.RawArchive = gcsuploader.NopArchive{}
	if cfg.Storage.Bucket != "" {
		gcsArchive, err := gcsuploader.NewGCSArchive(ctx, cfg.Storage.Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS archive")
		}
		defer gcsArchive.Close()
		archive = gcsArchive
	} else {
		log.Warn().Msg("No GCS bucket configured - raw statements will not be archived")
	}

	var (
		recorders records.Multi
		history   records.HistoryReader
	)
	if cfg.BigQuery.ProjectID != "" {
		repo, err := infraBQ.NewProfileRepository(ctx, cfg.BigQuery)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
		}
		defer repo.Close()
		recorders = append(recorders, repo)
		history = repo
	}
	if cfg.Notion.Token != "" {
		client := notionsync.NewNotionClient(cfg.Notion.Token)
		recorders = append(recorders, notionsync.NewReviewPublisher(client, cfg.Notion.DatabaseID))
	}

	svc := pipeline.NewService(extractor,
		pipeline.WithArchive(archive),
		pipeline.WithRecorder(recorders),
	)

	// Job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(inmemory.Options{
		BufferSize: cfg.Queue.BufferSize,
		Workers:    cfg.Queue.Workers,
		MaxRetries: cfg.Queue.MaxRetries,
	}, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Int("workers", cfg.Queue.Workers).Msg("Starting job workers")
	if err := jobQueue.Start(workerCtx, handlers.ExtractJobHandler(svc)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	handler := api.NewRouter(log, api.Deps{
		Service:   svc,
		Archive:   archive,
		Publisher: jobQueue,
		JobStore:  jobStore,
		History:   history,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
