package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/mrlokans/anisync/internal/database/anime"
	"github.com/mrlokans/anisync/internal/sync"
)

// RefreshAnimeTask refreshes the metadata of a single stored anime from the
// service it originally came from.
type RefreshAnimeTask struct {
	AnimeID uint `json:"anime_id"`
}

// Config returns the queue configuration for single-item refresh tasks.
func (t RefreshAnimeTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "refresh_anime",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RefreshAnimeProcessor creates a processor function for RefreshAnimeTask.
// The item's source service answers the metadata request and the handler
// upserts the result.
func RefreshAnimeProcessor(manager *sync.Manager, repo *anime.Repository) backlite.QueueProcessor[RefreshAnimeTask] {
	return func(ctx context.Context, task RefreshAnimeTask) error {
		item, err := repo.GetByID(task.AnimeID)
		if err != nil {
			return fmt.Errorf("load anime %d: %w", task.AnimeID, err)
		}

		req := sync.NewRequest(sync.RequestGetMetadataByID)
		req.Data["id"] = item.ExternalID

		resp, err := manager.Do(ctx, item.Service.Name, req)
		if err != nil {
			return fmt.Errorf("refresh anime %d: %w", task.AnimeID, err)
		}
		if msg := resp.Err(); msg != "" {
			return fmt.Errorf("refresh anime %d: %s", task.AnimeID, msg)
		}

		log.Printf("[TASK] Refreshed anime %d (%s) from %s", task.AnimeID, item.Title, item.Service.Name)
		return nil
	}
}

// NewRefreshAnimeQueue creates a backlite queue for single-item refresh tasks.
func NewRefreshAnimeQueue(manager *sync.Manager, repo *anime.Repository) backlite.Queue {
	return backlite.NewQueue(RefreshAnimeProcessor(manager, repo))
}
