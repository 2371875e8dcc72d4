package http

import (
	"github.com/mrlokans/anisync/internal/database"
	"github.com/mrlokans/anisync/internal/database/anime"
	"github.com/mrlokans/anisync/internal/scheduler"
	"github.com/mrlokans/anisync/internal/settingsstore"
	"github.com/mrlokans/anisync/internal/sync"
	"github.com/mrlokans/anisync/internal/tasks"
	"github.com/mrlokans/anisync/internal/tokenstore"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
// Optional fields may be nil; the owning controllers respond with an error
// or skip the feature.
type RouterConfig struct {
	// Core dependencies
	Database  *database.Database
	AnimeRepo *anime.Repository
	Manager   *sync.Manager

	// Settings and credentials
	SettingsStore *settingsstore.SettingsStore
	TokenStore    *tokenstore.TokenStore

	// Background work (optional)
	Scheduler  *scheduler.LibrarySyncScheduler
	TaskClient *tasks.Client

	// Application info
	Version string
}
