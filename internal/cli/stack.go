// Package cli implements the command-line subcommands that run sync
// operations without the HTTP server.
package cli

import (
	"fmt"

	"github.com/mrlokans/anisync/internal/config"
	"github.com/mrlokans/anisync/internal/database"
	"github.com/mrlokans/anisync/internal/database/anime"
	"github.com/mrlokans/anisync/internal/settingsstore"
	"github.com/mrlokans/anisync/internal/sync"
	"github.com/mrlokans/anisync/internal/sync/anilist"
	"github.com/mrlokans/anisync/internal/sync/kitsu"
	"github.com/mrlokans/anisync/internal/tokenstore"
)

// syncStack bundles everything a subcommand needs to talk to a service.
type syncStack struct {
	db            *database.Database
	repo          *anime.Repository
	settingsStore *settingsstore.SettingsStore
	manager       *sync.Manager
}

func (s *syncStack) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// buildSyncStack opens the database and wires the adapters the same way the
// server entrypoint does.
func buildSyncStack(dbPath string) (*syncStack, error) {
	db, err := database.NewDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	repo := anime.NewRepository(db.DB)
	settingsStore := settingsstore.New(db)

	tokens, err := tokenstore.New(tokenstore.Config{
		DatabasePath: config.DefaultTokenDatabasePath,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token store: %w", err)
	}

	credentials := settingsstore.NewCredentials(settingsStore, tokens)

	registry := sync.NewRegistry()
	anilistService, err := anilist.New(repo, credentials)
	if err != nil {
		db.Close()
		return nil, err
	}
	kitsuService, err := kitsu.New(repo, credentials)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := registry.Register(anilistService); err != nil {
		db.Close()
		return nil, err
	}
	if err := registry.Register(kitsuService); err != nil {
		db.Close()
		return nil, err
	}

	manager := sync.NewManager(registry, sync.NewHTTPTransport())

	return &syncStack{
		db:            db,
		repo:          repo,
		settingsStore: settingsStore,
		manager:       manager,
	}, nil
}

// resolveService picks the explicit service flag or falls back to the
// configured active service.
func (s *syncStack) resolveService(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return s.settingsStore.GetActiveService()
}
