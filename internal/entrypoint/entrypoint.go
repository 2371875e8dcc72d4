package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mrlokans/anisync/internal/config"
	"github.com/mrlokans/anisync/internal/database"
	"github.com/mrlokans/anisync/internal/database/anime"
	"github.com/mrlokans/anisync/internal/database/progress"
	http_controllers "github.com/mrlokans/anisync/internal/http"
	"github.com/mrlokans/anisync/internal/scheduler"
	"github.com/mrlokans/anisync/internal/settingsstore"
	"github.com/mrlokans/anisync/internal/sync"
	"github.com/mrlokans/anisync/internal/sync/anilist"
	"github.com/mrlokans/anisync/internal/sync/kitsu"
	"github.com/mrlokans/anisync/internal/tasks"
	"github.com/mrlokans/anisync/internal/tokenstore"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop the task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting anisync v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	animeRepo := anime.NewRepository(db.DB)
	settingsStore := settingsstore.New(db)

	// Token store keeps service credentials in its own encrypted database
	tokens, err := tokenstore.New(tokenstore.Config{
		DatabasePath:  cfg.Tokens.DatabasePath,
		EncryptionKey: cfg.Tokens.EncryptionKey,
		KeyFilePath:   cfg.Tokens.KeyFilePath,
	})
	if err != nil {
		log.Fatalf("Failed to initialize token store: %v", err)
	}

	credentials := settingsstore.NewCredentials(settingsStore, tokens)

	// Register service adapters
	registry := sync.NewRegistry()
	anilistService, err := anilist.New(animeRepo, credentials)
	if err != nil {
		log.Fatalf("Failed to create AniList adapter: %v", err)
	}
	kitsuService, err := kitsu.New(animeRepo, credentials)
	if err != nil {
		log.Fatalf("Failed to create Kitsu adapter: %v", err)
	}
	if err := registry.Register(anilistService); err != nil {
		log.Fatalf("Failed to register AniList adapter: %v", err)
	}
	if err := registry.Register(kitsuService); err != nil {
		log.Fatalf("Failed to register Kitsu adapter: %v", err)
	}

	manager := sync.NewManager(registry, sync.NewHTTPTransport())

	// Library sync scheduler
	progressRepo := progress.NewRepository(db.DB)
	librarySyncScheduler := scheduler.NewLibrarySyncScheduler(manager, settingsStore, progressRepo)
	if err := librarySyncScheduler.Start(context.Background()); err != nil {
		log.Printf("WARNING: Failed to start library sync scheduler: %v", err)
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		// Register task queues
		taskClient.Register(
			tasks.NewRefreshAnimeQueue(manager, animeRepo),
			tasks.NewRefreshLibraryQueue(taskClient, animeRepo),
		)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		// Kick off a stale-metadata sweep on startup when enabled
		if cfg.MetadataRefresh.Enabled {
			if _, err := taskClient.Add(tasks.RefreshLibraryTask{
				StaleDays: cfg.MetadataRefresh.StaleDays,
				BatchSize: cfg.MetadataRefresh.BatchSize,
			}).Save(); err != nil {
				log.Printf("WARNING: Failed to enqueue metadata refresh: %v", err)
			}
		}
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Database:      db,
		AnimeRepo:     animeRepo,
		Manager:       manager,
		SettingsStore: settingsStore,
		TokenStore:    tokens,
		Scheduler:     librarySyncScheduler,
		TaskClient:    taskClient,
		Version:       version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		librarySyncScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
