package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mrlokans/anisync/internal/config"
	"github.com/mrlokans/anisync/internal/sync"
)

// FetchCommand fetches metadata for one title by its id on a service.
type FetchCommand struct {
	DatabasePath string
	Service      string
	ID           string
}

// NewFetchCommand creates a new FetchCommand.
func NewFetchCommand() *FetchCommand {
	return &FetchCommand{}
}

// ParseFlags parses command line flags.
func (cmd *FetchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.StringVar(&cmd.Service, "service", "", "Service to fetch from (defaults to the configured active service)")
	fs.StringVar(&cmd.ID, "id", "", "Title id on the service")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s fetch -id <id> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Fetch metadata for one title and store it locally.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s fetch -id 5114\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s fetch -service kitsu -id 1376\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ID == "" {
		return fmt.Errorf("-id is required")
	}
	return nil
}

// Run executes the fetch command.
func (cmd *FetchCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	stack, err := buildSyncStack(absDBPath)
	if err != nil {
		return err
	}
	defer stack.Close()

	service := stack.resolveService(cmd.Service)

	fmt.Printf("Fetching %s from %s...\n", cmd.ID, service)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	req := sync.NewRequest(sync.RequestGetMetadataByID)
	req.Data["id"] = cmd.ID

	resp, err := stack.manager.Do(ctx, service, req)
	if err != nil {
		return err
	}
	if msg := resp.Err(); msg != "" {
		return fmt.Errorf("%s", msg)
	}

	svc, err := stack.db.GetServiceByName(service)
	if err != nil {
		return fmt.Errorf("failed to look up service: %w", err)
	}

	item, err := stack.repo.GetBySourceKey(svc.ID, cmd.ID)
	if err != nil {
		return fmt.Errorf("metadata stored but could not be read back: %w", err)
	}

	fmt.Printf("Title:    %s\n", item.Title)
	if item.EnglishTitle != "" {
		fmt.Printf("English:  %s\n", item.EnglishTitle)
	}
	fmt.Printf("Type:     %s\n", item.Type)
	fmt.Printf("Episodes: %d\n", item.EpisodeCount)
	if !item.StartDate.IsZero() {
		fmt.Printf("Aired:    %s", item.StartDate)
		if !item.EndDate.IsZero() {
			fmt.Printf(" to %s", item.EndDate)
		}
		fmt.Println()
	}
	if item.Score > 0 {
		fmt.Printf("Score:    %.1f\n", item.Score)
	}
	if len(item.Genres) > 0 {
		fmt.Printf("Genres:   %v\n", []string(item.Genres))
	}

	return nil
}
