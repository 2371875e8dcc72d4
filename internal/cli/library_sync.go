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

// LibrarySyncCommand pulls the remote library into the local database.
type LibrarySyncCommand struct {
	DatabasePath string
	Service      string
	Username     string
}

// NewLibrarySyncCommand creates a new LibrarySyncCommand.
func NewLibrarySyncCommand() *LibrarySyncCommand {
	return &LibrarySyncCommand{}
}

// ParseFlags parses command line flags.
func (cmd *LibrarySyncCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.StringVar(&cmd.Service, "service", "", "Service to sync from (defaults to the configured active service)")
	fs.StringVar(&cmd.Username, "username", "", "Account to sync (defaults to the configured username)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Fetch the remote anime library and store it locally.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s sync\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sync -service anilist -username erengy\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the sync command.
func (cmd *LibrarySyncCommand) Run() error {
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
	username := cmd.Username
	if username == "" {
		username = stack.settingsStore.GetUsername(service)
	}
	if username == "" {
		return fmt.Errorf("no username configured for %s (use -username or set it in settings)", service)
	}

	fmt.Printf("Syncing library for %q from %s...\n", username, service)
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	req := sync.NewRequest(sync.RequestGetLibraryEntries)
	req.Data["username"] = username

	resp, err := stack.manager.Do(ctx, service, req)
	if err != nil {
		return err
	}
	if msg := resp.Err(); msg != "" {
		return fmt.Errorf("%s", msg)
	}

	fmt.Printf("Synced %s entries in %v", resp.Data["parsed"], time.Since(startTime).Round(time.Millisecond))
	if failed := resp.Data["failed"]; failed != "" && failed != "0" {
		fmt.Printf(" (%s skipped)", failed)
	}
	fmt.Println()

	return nil
}
