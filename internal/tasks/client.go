// Package tasks runs the background refresh work on a backlite queue backed
// by its own SQLite database, kept separate so queue churn never contends
// with library writes.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// queueDSNOptions enables WAL and a busy timeout so workers and enqueuers
// can share the file.
const queueDSNOptions = "?_journal=WAL&_timeout=5000&_busy_timeout=5000"

// QueueDBPath derives the queue database path from the main database path:
// "anisync.db" becomes "anisync-tasks.db".
func QueueDBPath(mainDBPath string) string {
	ext := filepath.Ext(mainDBPath)
	return strings.TrimSuffix(mainDBPath, ext) + "-tasks" + ext
}

// Client owns the queue database and the backlite dispatcher running on it.
type Client struct {
	dispatcher *backlite.Client
	db         *sql.DB
	workers    int
	started    atomic.Bool
}

// NewClient opens (or creates) the queue database next to the main one and
// prepares the dispatcher. Zero-valued Config fields fall back to defaults.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	db, err := sql.Open("sqlite3", QueueDBPath(mainDBPath)+queueDSNOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	dispatcher, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLog{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create backlite client: %w", err)
	}

	if err := dispatcher.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install backlite schema: %w", err)
	}

	return &Client{dispatcher: dispatcher, db: db, workers: cfg.Workers}, nil
}

// Register adds queues to the dispatcher. Must happen before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.dispatcher.Register(q)
	}
}

// Start launches the workers. Calling Start again is a no-op.
func (c *Client) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	log.Printf("Task queue started with %d workers", c.workers)
	c.dispatcher.Start(ctx)
}

// Stop waits for in-flight tasks until the context deadline and reports
// whether every worker finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.started.Load() {
		return true
	}

	log.Println("Stopping task queue...")
	done := c.dispatcher.Stop(ctx)
	if done {
		log.Println("Task queue stopped gracefully")
	} else {
		log.Println("Task queue stopped with timeout (some tasks may not have completed)")
	}
	return done
}

// Close releases the queue database. Call after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Add starts an enqueue operation; call Save on the result to persist it.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.dispatcher.Add(tasks...)
}

// Status reports the queue state of a task by its id.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.dispatcher.Status(ctx, taskID)
}

// queueLog adapts the standard logger to backlite's interface.
type queueLog struct{}

func (queueLog) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (queueLog) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
