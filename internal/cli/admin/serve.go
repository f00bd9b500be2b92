package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/ragpipe/internal/api/handlers"
	"github.com/cloo-solutions/ragpipe/internal/config"
	"github.com/cloo-solutions/ragpipe/internal/database"
	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/cloo-solutions/ragpipe/internal/jobs"
	"github.com/cloo-solutions/ragpipe/internal/openai"
	"github.com/cloo-solutions/ragpipe/internal/pipeline"
	"github.com/cloo-solutions/ragpipe/internal/repository"
	"github.com/cloo-solutions/ragpipe/internal/server"
	"github.com/cloo-solutions/ragpipe/internal/service"
	"github.com/cloo-solutions/ragpipe/internal/storage"
	"github.com/cloo-solutions/ragpipe/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the ragpipe API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Disable the background reindex worker")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.HasSentry() {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	deps, err := buildPipeline(ctx, cfg, pool)
	if err != nil {
		return err
	}

	documentHandler := handlers.NewDocumentHandler(deps.documentSvc, cfg.DefaultProjectID)
	configHandler := handlers.NewRagConfigHandler(deps.configRepo)
	indexHandler := handlers.NewIndexHandler(deps.indexSvc, cfg.DefaultProjectID)

	var reindexWorker *jobs.Worker
	noWorker, _ := cmd.Flags().GetBool("no-worker")
	if !noWorker && deps.fullyConfigured {
		processor := jobs.NewReindexProcessor(deps.indexSvc, cfg.DefaultProjectID)
		reindexWorker = jobs.NewWorker(processor, cfg.ReindexInterval)
		go reindexWorker.Start(ctx)
		log.Println("reindex worker started")
	}

	routerCfg := server.RouterConfig{
		DocumentHandler:  documentHandler,
		RagConfigHandler: configHandler,
		IndexHandler:     indexHandler,
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if reindexWorker != nil {
		reindexWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// pipelineDeps bundles everything the commands wire up from one config
type pipelineDeps struct {
	store       *repository.Store
	documentSvc handlers.DocumentService
	configRepo  *repository.RagConfigRepository
	indexSvc    *service.IndexService

	// fullyConfigured is true when both storage and the embedding provider
	// are available, so background reindexing can make progress end to end
	fullyConfigured bool
}

func buildPipeline(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (*pipelineDeps, error) {
	store := repository.NewStore(pool)
	documentRepo := repository.NewDocumentRepository(pool)
	configRepo := repository.NewRagConfigRepository(pool)

	var fetcher service.ObjectFetcher = &unconfiguredStorage{}
	var documentSvc handlers.DocumentService = &NoOpDocumentService{}
	hasS3 := cfg.HasS3()
	if hasS3 {
		s3Config := storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		}
		s3Client, err := storage.NewS3Client(ctx, s3Config)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)

		fetcher = s3Client
		documentSvc = service.NewDocumentService(documentRepo, &S3StorageAdapter{client: s3Client})
	}

	var embedder pipeline.EmbeddingAdapter = &unconfiguredEmbedder{}
	hasOpenAI := cfg.HasOpenAI()
	if hasOpenAI {
		embedder = openai.NewClient(cfg.OpenAIAPIKey)
	}

	extractor := service.NewPassthroughExtractor(fetcher)
	chunker := service.NewTextChunker()

	orchestrator := pipeline.NewOrchestrator(store, extractor, chunker, embedder,
		pipeline.WithConcurrency(cfg.PipelineConcurrency),
	)
	orchestrator.Bus().Subscribe(telemetry.NewPipelineObserver())

	aggregator := pipeline.NewAggregator(store)
	indexSvc := service.NewIndexService(configRepo, orchestrator, aggregator)

	return &pipelineDeps{
		store:           store,
		documentSvc:     documentSvc,
		configRepo:      configRepo,
		indexSvc:        indexSvc,
		fullyConfigured: hasS3 && hasOpenAI,
	}, nil
}

type S3StorageAdapter struct {
	client *storage.S3Client
}

func (a *S3StorageAdapter) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	return a.client.GenerateUploadURL(ctx, key, contentType)
}

func (a *S3StorageAdapter) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	return a.client.GenerateDownloadURL(ctx, key)
}

func (a *S3StorageAdapter) DeleteObject(ctx context.Context, key string) error {
	return a.client.DeleteObject(ctx, key)
}

func (a *S3StorageAdapter) HeadObject(ctx context.Context, key string) (*service.ObjectMetadata, error) {
	meta, err := a.client.HeadObject(ctx, key)
	if err != nil {
		return nil, err
	}
	return &service.ObjectMetadata{
		ContentLength: meta.ContentLength,
		ContentType:   meta.ContentType,
		ETag:          meta.ETag,
	}, nil
}

type unconfiguredStorage struct{}

func (s *unconfiguredStorage) GetObject(ctx context.Context, key string) ([]byte, error) {
	return nil, fmt.Errorf("storage not configured: S3_ENDPOINT required")
}

type unconfiguredEmbedder struct{}

func (e *unconfiguredEmbedder) Embed(ctx context.Context, texts []string, cfg domain.EmbeddingConfig) ([][]float32, error) {
	return nil, fmt.Errorf("embedding provider not configured: OPENAI_API_KEY required")
}

type NoOpDocumentService struct{}

func (s *NoOpDocumentService) InitUpload(ctx context.Context, input service.InitUploadInput) (*service.InitUploadResult, error) {
	return nil, fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

func (s *NoOpDocumentService) CompleteUpload(ctx context.Context, input service.CompleteUploadInput) (*domain.Document, error) {
	return nil, fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

func (s *NoOpDocumentService) List(ctx context.Context, projectID string, cursor string, limit int) (*repository.DocumentPageResult, error) {
	return nil, fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

func (s *NoOpDocumentService) GetDownloadURL(ctx context.Context, documentID string) (string, error) {
	return "", fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

func (s *NoOpDocumentService) Delete(ctx context.Context, documentID string) error {
	return fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
