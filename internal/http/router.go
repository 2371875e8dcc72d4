package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Create controllers
	health := NewHealthController(cfg.Database, cfg.Version)
	libraryController := NewLibraryController(cfg.AnimeRepo)
	syncController := NewSyncController(cfg.Manager, cfg.SettingsStore, cfg.Scheduler)
	settingsController := NewSettingsController(cfg.SettingsStore, cfg.TokenStore, cfg.Manager, cfg.Scheduler)

	// Health endpoints
	router.GET("/healthz", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Library endpoints
	router.GET("/api/library", libraryController.GetLibrary)
	router.GET("/api/library/stats", libraryController.GetStats)
	router.GET("/api/anime/:id", libraryController.GetByID)
	router.GET("/api/search", syncController.Search)

	// Sync endpoints
	router.POST("/api/sync", syncController.TriggerLibrarySync)
	router.GET("/api/sync/status", syncController.GetSyncStatus)
	router.POST("/api/fetch/:id", syncController.FetchMetadata)

	// Settings endpoints
	router.GET("/api/settings", settingsController.GetSettings)
	router.POST("/api/settings", settingsController.UpdateSettings)
	router.POST("/api/settings/token", settingsController.SaveToken)
	router.DELETE("/api/settings/token", settingsController.DeleteToken)

	// Background refresh endpoints
	if cfg.TaskClient != nil && cfg.AnimeRepo != nil {
		refreshController := NewRefreshController(cfg.TaskClient, cfg.AnimeRepo)
		router.POST("/api/anime/:id/refresh", refreshController.RefreshAnime)
		router.POST("/api/library/refresh", refreshController.RefreshLibrary)
		router.GET("/api/tasks/:id", refreshController.GetTaskStatus)
	}

	return router
}
