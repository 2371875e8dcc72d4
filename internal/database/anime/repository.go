// Package anime provides database operations for the canonical anime
// library.
//
// The repository is the single place library items live: service adapters
// hand it transiently built items and it decides whether to create a new
// record or merge into an existing one keyed by (service, external id).
package anime

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/anisync/internal/entities"
	"github.com/mrlokans/anisync/internal/sync"
)

// Repository handles all anime and library-entry database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new anime repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertAnime inserts or merges an item keyed by (service, external id) and
// returns the persistent record id. Merging keeps known values when the
// incoming item leaves a field blank, unions the genre and synonym sets, and
// upserts the attached library entry when present. The whole operation runs
// in one transaction so concurrent upserts for the same key serialize.
func (r *Repository) UpsertAnime(item *entities.Anime) (uint, error) {
	if item.ExternalID == "" {
		return entities.IDUnknown, fmt.Errorf("external id is required")
	}

	// Resolve the service record when only the name is set
	if item.ServiceID == 0 {
		if item.Service.Name == "" {
			return entities.IDUnknown, fmt.Errorf("service is required")
		}
		var service entities.Service
		if err := r.db.Where("name = ?", item.Service.Name).First(&service).Error; err != nil {
			return entities.IDUnknown, fmt.Errorf("unknown service %q: %w", item.Service.Name, err)
		}
		item.ServiceID = service.ID
	}

	var id uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing entities.Anime
		result := tx.Where("service_id = ? AND external_id = ?", item.ServiceID, item.ExternalID).
			First(&existing)

		switch {
		case result.Error == gorm.ErrRecordNotFound:
			created := *item
			created.ID = 0
			created.Service = entities.Service{}
			if created.Entry != nil {
				entry := *created.Entry
				entry.ID = 0
				created.Entry = &entry
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
			id = created.ID
			return nil

		case result.Error != nil:
			return result.Error
		}

		mergeAnime(&existing, item)
		if err := tx.Omit("Service", "Entry").Save(&existing).Error; err != nil {
			return err
		}

		if item.Entry != nil {
			if err := upsertEntry(tx, existing.ID, item.Entry); err != nil {
				return err
			}
		}

		id = existing.ID
		return nil
	})
	if err != nil {
		return entities.IDUnknown, err
	}

	return id, nil
}

// mergeAnime folds the incoming item into the stored record. Blank incoming
// fields never erase known values; set-valued fields are unioned.
func mergeAnime(existing, incoming *entities.Anime) {
	if !incoming.LastModified.IsZero() {
		existing.LastModified = incoming.LastModified
	}

	if incoming.Title != "" {
		existing.Title = incoming.Title
	}
	if incoming.EnglishTitle != "" {
		existing.EnglishTitle = incoming.EnglishTitle
	}
	if incoming.JapaneseTitle != "" {
		existing.JapaneseTitle = incoming.JapaneseTitle
	}
	if incoming.Type != "" && incoming.Type != entities.SeriesTypeUnknown {
		existing.Type = incoming.Type
	}
	if incoming.Synopsis != "" {
		existing.Synopsis = incoming.Synopsis
	}
	if !incoming.StartDate.IsZero() {
		existing.StartDate = incoming.StartDate
	}
	if !incoming.EndDate.IsZero() {
		existing.EndDate = incoming.EndDate
	}
	if incoming.EpisodeCount != 0 {
		existing.EpisodeCount = incoming.EpisodeCount
	}
	if incoming.EpisodeLength != 0 {
		existing.EpisodeLength = incoming.EpisodeLength
	}
	if incoming.CoverURL != "" {
		existing.CoverURL = incoming.CoverURL
	}
	if incoming.Score != 0 {
		existing.Score = incoming.Score
	}
	if incoming.Popularity != 0 {
		existing.Popularity = incoming.Popularity
	}
	existing.Genres.Add(incoming.Genres...)
	existing.Synonyms.Add(incoming.Synonyms...)
}

func upsertEntry(tx *gorm.DB, animeID uint, incoming *entities.LibraryEntry) error {
	var existing entities.LibraryEntry
	result := tx.Where("anime_id = ?", animeID).First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		entry := *incoming
		entry.ID = 0
		entry.AnimeID = animeID
		return tx.Create(&entry).Error
	} else if result.Error != nil {
		return result.Error
	}

	entry := *incoming
	entry.ID = existing.ID
	entry.AnimeID = animeID
	entry.CreatedAt = existing.CreatedAt
	return tx.Save(&entry).Error
}

// GetByID retrieves an anime with its service and library entry.
func (r *Repository) GetByID(id uint) (*entities.Anime, error) {
	var item entities.Anime
	err := r.db.Preload("Service").Preload("Entry").First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetBySourceKey retrieves an anime by its natural key.
func (r *Repository) GetBySourceKey(serviceID uint, externalID string) (*entities.Anime, error) {
	var item entities.Anime
	err := r.db.Preload("Service").Preload("Entry").
		Where("service_id = ? AND external_id = ?", serviceID, externalID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetLibrary retrieves every item that has a library entry.
func (r *Repository) GetLibrary() ([]entities.Anime, error) {
	var items []entities.Anime
	err := r.db.Preload("Service").Preload("Entry").
		Joins("JOIN library_entries ON library_entries.anime_id = anime.id").
		Order("anime.title ASC").
		Find(&items).Error
	return items, err
}

// Search finds items by title (case-insensitive partial match over the
// primary, English and Japanese titles).
func (r *Repository) Search(query string) ([]entities.Anime, error) {
	var items []entities.Anime
	pattern := "%" + query + "%"
	err := r.db.Preload("Service").Preload("Entry").
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(english_title) LIKE LOWER(?) OR LOWER(japanese_title) LIKE LOWER(?)",
			pattern, pattern, pattern).
		Order("title ASC").
		Find(&items).Error
	return items, err
}

// GetStale lists library items whose metadata has not been refreshed since
// the cutoff, oldest first.
func (r *Repository) GetStale(cutoff time.Time, limit int) ([]entities.Anime, error) {
	var items []entities.Anime
	q := r.db.Preload("Service").
		Joins("JOIN library_entries ON library_entries.anime_id = anime.id").
		Where("anime.last_modified < ?", cutoff).
		Order("anime.last_modified ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&items).Error
	return items, err
}

// Count returns the number of stored items and how many are in the library.
func (r *Repository) Count() (total int64, inLibrary int64, err error) {
	if err = r.db.Model(&entities.Anime{}).Count(&total).Error; err != nil {
		return
	}
	err = r.db.Model(&entities.LibraryEntry{}).Count(&inLibrary).Error
	return
}

// Compile-time interface check
var _ sync.Store = (*Repository)(nil)
