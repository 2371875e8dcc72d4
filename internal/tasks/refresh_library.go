package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/mrlokans/anisync/internal/database/anime"
)

// RefreshLibraryTask fans out single-item refresh tasks for every library
// item whose metadata has gone stale.
type RefreshLibraryTask struct {
	// StaleDays sets the age threshold; items modified within this window
	// are skipped. 0 falls back to 7 days.
	StaleDays int `json:"stale_days,omitempty"`

	// BatchSize caps how many items are enqueued per run (0 = 25).
	BatchSize int `json:"batch_size,omitempty"`
}

// Config returns the queue configuration for library refresh fan-out tasks.
func (t RefreshLibraryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "refresh_library",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RefreshLibraryProcessor creates a processor function for RefreshLibraryTask.
// It only enqueues RefreshAnimeTask items; the per-item queue does the
// network work so failures retry independently.
func RefreshLibraryProcessor(client *Client, repo *anime.Repository) backlite.QueueProcessor[RefreshLibraryTask] {
	return func(ctx context.Context, task RefreshLibraryTask) error {
		staleDays := task.StaleDays
		if staleDays <= 0 {
			staleDays = 7
		}
		batchSize := task.BatchSize
		if batchSize <= 0 {
			batchSize = 25
		}

		cutoff := time.Now().AddDate(0, 0, -staleDays)
		stale, err := repo.GetStale(cutoff, batchSize)
		if err != nil {
			return fmt.Errorf("list stale anime: %w", err)
		}

		if len(stale) == 0 {
			log.Printf("[TASK] Library refresh: nothing stale")
			return nil
		}

		var enqueued int
		for _, item := range stale {
			if _, err := client.Add(RefreshAnimeTask{AnimeID: item.ID}).Save(); err != nil {
				log.Printf("[TASK] Library refresh: failed to enqueue anime %d: %v", item.ID, err)
				continue
			}
			enqueued++
		}

		log.Printf("[TASK] Library refresh: enqueued %d of %d stale items", enqueued, len(stale))
		return nil
	}
}

// NewRefreshLibraryQueue creates a backlite queue for library refresh tasks.
func NewRefreshLibraryQueue(client *Client, repo *anime.Repository) backlite.Queue {
	return backlite.NewQueue(RefreshLibraryProcessor(client, repo))
}
