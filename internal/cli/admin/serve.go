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

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/api/handlers"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/cache"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/config"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/database"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/jobs"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/memory"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/openai"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/repository"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/server"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/service"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/storage"
	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the FAQ assistant API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: cfg.SentryTracesSampleRate,
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

	deps, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	indexProcessor := jobs.NewIndexWorker(deps.Knowledge, time.Duration(cfg.IndexScheduleHours)*time.Hour)
	indexWorker := jobs.NewWorker(indexProcessor, time.Hour)
	go indexWorker.Start(ctx)
	log.Println("index worker started")

	routerCfg := server.RouterConfig{
		QueryHandler:     handlers.NewQueryHandler(deps.Query),
		KnowledgeHandler: handlers.NewKnowledgeHandler(deps.Knowledge),
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

	indexWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// pipeline holds the wired services shared by the serve, index and ask
// commands, along with the connections behind them.
type pipeline struct {
	Query     *service.QueryService
	Knowledge *service.KnowledgeService

	pool          *pgxpool.Pool
	cacheClient   *redis.Client
	contextClient *redis.Client
}

func (p *pipeline) Close() {
	if p.cacheClient != nil {
		p.cacheClient.Close()
	}
	if p.contextClient != nil {
		p.contextClient.Close()
	}
	if p.pool != nil {
		p.pool.Close()
	}
}

func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	if !cfg.HasOpenAI() {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("connected to database")

	deps := &pipeline{pool: pool}

	documentRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	faqRepo := repository.NewFAQRepository(pool)

	client := openai.NewClientWithConfig(openai.Config{
		APIKey:          cfg.OpenAIAPIKey,
		CompletionModel: cfg.CompletionModel,
		RerankModel:     cfg.RerankingModel,
	})

	var reranker *service.Reranker
	if cfg.RerankingEnabled {
		cacheTTL := time.Duration(cfg.RerankingCacheTTLHours) * time.Hour
		deps.cacheClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisCacheDB,
		})
		scoreCache := cache.NewTiered(
			cache.NewLRUStore(cfg.RerankingCacheSize, cacheTTL),
			cache.NewRedisStore(deps.cacheClient, cacheTTL),
		)
		reranker = service.NewReranker(client, scoreCache, service.RerankConfig{
			MinScore:  cfg.RerankingMinScore,
			MaxChunks: cfg.RerankingMaxChunks,
		})
	}

	retriever := service.NewRetriever(client, chunkRepo, reranker, service.RetrievalConfig{
		TopK:             cfg.TopChunks,
		InitialK:         cfg.RerankingInitialChunks,
		RerankingEnabled: cfg.RerankingEnabled,
	})

	if cfg.ContextMemoryEnabled {
		deps.contextClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisContextDB,
		})
	}
	mem := memory.New(deps.contextClient, cfg.ContextMemoryMaxTurns,
		time.Duration(cfg.ContextMemoryTTLDays)*24*time.Hour)

	confidence, err := service.NewConfidenceEstimator(cfg.ConfidenceBaseline)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to configure confidence estimation: %w", err)
	}

	var archiver service.DocumentArchiver
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archiver = s3Client
	}

	deps.Query = service.NewQueryService(retriever, client, confidence, mem)
	deps.Knowledge = service.NewKnowledgeService(documentRepo, chunkRepo, faqRepo, client, archiver, service.ChunkConfig{})

	return deps, nil
}

func runMigrations(databaseURL string) error {
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
