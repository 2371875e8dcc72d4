package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) (*Database, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func TestNewDatabase_SeedsServices(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	anilist, err := db.GetServiceByName("anilist")
	require.NoError(t, err)
	assert.Equal(t, "AniList", anilist.DisplayName)

	kitsu, err := db.GetServiceByName("kitsu")
	require.NoError(t, err)
	assert.Equal(t, "Kitsu", kitsu.DisplayName)

	_, err = db.GetServiceByName("myanimelist")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestNewDatabase_SeedingIsIdempotent(t *testing.T) {
	dbPath := "./test_seed_twice.db"
	defer os.Remove(dbPath)

	db, err := NewDatabase(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening the same file must not duplicate the seeded rows
	db, err = NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int64
	require.NoError(t, db.DB.Table("services").Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSettings(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	t.Run("missing key returns an error", func(t *testing.T) {
		_, err := db.GetSetting("nonexistent")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("set and get round trip", func(t *testing.T) {
		require.NoError(t, db.SetSetting("active_service", "kitsu"))

		setting, err := db.GetSetting("active_service")
		require.NoError(t, err)
		assert.Equal(t, "kitsu", setting.Value)
	})

	t.Run("set updates in place", func(t *testing.T) {
		require.NoError(t, db.SetSetting("active_service", "anilist"))

		setting, err := db.GetSetting("active_service")
		require.NoError(t, err)
		assert.Equal(t, "anilist", setting.Value)

		var count int64
		require.NoError(t, db.DB.Table("settings").Where("key = ?", "active_service").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, db.SetSetting("to_delete", "x"))
		require.NoError(t, db.DeleteSetting("to_delete"))
		require.NoError(t, db.DeleteSetting("to_delete"))

		_, err := db.GetSetting("to_delete")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}
