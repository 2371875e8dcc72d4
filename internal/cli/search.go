package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mrlokans/anisync/internal/config"
	"github.com/mrlokans/anisync/internal/entities"
	"github.com/mrlokans/anisync/internal/sync"
)

// SearchCommand searches a service by title and prints the matches.
type SearchCommand struct {
	DatabasePath string
	Service      string
	Query        string
}

// NewSearchCommand creates a new SearchCommand.
func NewSearchCommand() *SearchCommand {
	return &SearchCommand{}
}

// ParseFlags parses command line flags.
func (cmd *SearchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.StringVar(&cmd.Service, "service", "", "Service to search (defaults to the configured active service)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s search [options] <title>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Search a service by title and store the matches locally.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s search \"fullmetal alchemist\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s search -service kitsu cowboy bebop\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.Query = strings.TrimSpace(strings.Join(fs.Args(), " "))
	if cmd.Query == "" {
		return fmt.Errorf("a search query is required")
	}
	return nil
}

// Run executes the search command.
func (cmd *SearchCommand) Run() error {
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

	fmt.Printf("Searching %s for %q...\n", service, cmd.Query)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	req := sync.NewRequest(sync.RequestSearchTitle)
	req.Data["title"] = cmd.Query

	resp, err := stack.manager.Do(ctx, service, req)
	if err != nil {
		return err
	}
	if msg := resp.Err(); msg != "" {
		return fmt.Errorf("%s", msg)
	}

	raw := resp.Data["ids"]
	if raw == "" {
		fmt.Println("No results.")
		return nil
	}

	svc, err := stack.db.GetServiceByName(service)
	if err != nil {
		return fmt.Errorf("failed to look up service: %w", err)
	}

	ids := strings.Split(raw, ",")
	fmt.Printf("%d results:\n", len(ids))
	for _, id := range ids {
		item, err := stack.repo.GetBySourceKey(svc.ID, id)
		if err != nil {
			fmt.Printf("  %s\n", id)
			continue
		}
		line := item.Title
		if item.Type != entities.SeriesTypeUnknown {
			line = fmt.Sprintf("%s (%s)", line, item.Type)
		}
		fmt.Printf("  %-8s %s\n", id, line)
	}

	return nil
}
