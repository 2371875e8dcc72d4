package progress

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/anisync/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_progress_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&entities.SyncProgress{}))

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_StartAndGet(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Get()
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.Start(10))

	progress, err := repo.Get()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncTypeLibrary, progress.SyncType)
	assert.Equal(t, entities.SyncStatusRunning, progress.Status)
	assert.Equal(t, 10, progress.TotalItems)
	assert.Nil(t, progress.CompletedAt)
}

func TestRepository_StartResetsPreviousRun(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Start(10))
	require.NoError(t, repo.Update(10, 8, 2, 0, ""))
	require.NoError(t, repo.Complete(true, ""))

	require.NoError(t, repo.Start(5))

	progress, err := repo.Get()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusRunning, progress.Status)
	assert.Equal(t, 5, progress.TotalItems)
	assert.Equal(t, 0, progress.Processed)
	assert.Equal(t, 0, progress.Succeeded)
	assert.Nil(t, progress.CompletedAt)
}

func TestRepository_Complete(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Start(3))
	require.NoError(t, repo.Update(3, 2, 1, 0, ""))

	t.Run("success", func(t *testing.T) {
		require.NoError(t, repo.Complete(true, ""))

		progress, err := repo.Get()
		require.NoError(t, err)
		assert.Equal(t, entities.SyncStatusCompleted, progress.Status)
		assert.Equal(t, 2, progress.Succeeded)
		assert.Equal(t, 1, progress.Failed)
		require.NotNil(t, progress.CompletedAt)
	})

	t.Run("failure records the error", func(t *testing.T) {
		require.NoError(t, repo.Start(3))
		require.NoError(t, repo.Complete(false, "service unavailable"))

		progress, err := repo.Get()
		require.NoError(t, err)
		assert.Equal(t, entities.SyncStatusFailed, progress.Status)
		assert.Equal(t, "service unavailable", progress.Error)
	})
}

func TestRepository_IsRunning(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	running, err := repo.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)

	require.NoError(t, repo.Start(1))

	running, err = repo.IsRunning()
	require.NoError(t, err)
	assert.True(t, running)

	require.NoError(t, repo.Complete(true, ""))

	running, err = repo.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)
}

func TestRepository_IsRunning_StaleRunIsClosed(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Start(1))

	// Backdate the record past the staleness threshold
	err := repo.db.Model(&entities.SyncProgress{}).
		Where("sync_type = ?", entities.SyncTypeLibrary).
		Update("updated_at", time.Now().Add(-15*time.Minute)).Error
	require.NoError(t, err)

	running, err := repo.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)

	progress, err := repo.Get()
	require.NoError(t, err)
	assert.Equal(t, entities.SyncStatusFailed, progress.Status)
	assert.Equal(t, "sync was interrupted", progress.Error)
}

func TestRepository_SyncTypesAreIsolated(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	refreshRepo := NewRepositoryWithType(repo.db, entities.SyncTypeRefresh)

	require.NoError(t, repo.Start(10))
	require.NoError(t, refreshRepo.Start(3))
	require.NoError(t, repo.Complete(true, ""))

	running, err := refreshRepo.IsRunning()
	require.NoError(t, err)
	assert.True(t, running)
}
