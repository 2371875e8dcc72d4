package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/anisync/internal/entities"
)

var defaultServices = []entities.Service{
	{Name: "anilist", DisplayName: "AniList"},
	{Name: "kitsu", DisplayName: "Kitsu"},
}

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.Service{},
		&entities.Anime{},
		&entities.LibraryEntry{},
		&entities.Setting{},
		&entities.SyncProgress{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedServices(); err != nil {
		return nil, fmt.Errorf("failed to seed services: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) seedServices() error {
	for _, service := range defaultServices {
		var existing entities.Service
		result := d.DB.Where("name = ?", service.Name).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := d.DB.Create(&service).Error; err != nil {
				return err
			}
		} else if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// GetServiceByName looks up a seeded service record.
func (d *Database) GetServiceByName(name string) (*entities.Service, error) {
	var service entities.Service
	if err := d.DB.Where("name = ?", name).First(&service).Error; err != nil {
		return nil, err
	}
	return &service, nil
}
