package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// IDUnknown is returned by parsers and repositories when an item could not be
// identified or stored.
const IDUnknown uint = 0

type SeriesType string

const (
	SeriesTypeUnknown SeriesType = "unknown"
	SeriesTypeTV      SeriesType = "tv"
	SeriesTypeOVA     SeriesType = "ova"
	SeriesTypeMovie   SeriesType = "movie"
	SeriesTypeSpecial SeriesType = "special"
	SeriesTypeONA     SeriesType = "ona"
	SeriesTypeMusic   SeriesType = "music"
)

type ListStatus string

const (
	ListStatusUnknown     ListStatus = "unknown"
	ListStatusWatching    ListStatus = "watching"
	ListStatusCompleted   ListStatus = "completed"
	ListStatusOnHold      ListStatus = "on_hold"
	ListStatusDropped     ListStatus = "dropped"
	ListStatusPlanToWatch ListStatus = "plan_to_watch"
)

// Service is a remote tracking service the library can be synchronized with.
type Service struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50" json:"name"` // e.g., "anilist", "kitsu"
	DisplayName string    `gorm:"size:100" json:"display_name"`    // e.g., "AniList", "Kitsu"
	CreatedAt   time.Time `json:"created_at"`
}

// StringList is a set of strings persisted as a JSON array. Duplicates are
// suppressed on Add; ordering is not significant.
type StringList []string

// Add appends values that are not already present.
func (l *StringList) Add(values ...string) {
	for _, v := range values {
		if v == "" || l.Contains(v) {
			continue
		}
		*l = append(*l, v)
	}
}

func (l StringList) Contains(value string) bool {
	for _, v := range l {
		if v == value {
			return true
		}
	}
	return false
}

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(l))
}

// Anime is the canonical, service-agnostic representation of one media item.
// The pair (ServiceID, ExternalID) is the natural key used for upserts.
type Anime struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	ServiceID  uint    `gorm:"uniqueIndex:idx_anime_service_external" json:"service_id"`
	ExternalID string  `gorm:"uniqueIndex:idx_anime_service_external;size:64" json:"external_id"`
	Service    Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`

	LastModified time.Time `json:"last_modified"`

	Title         string `gorm:"index;size:512" json:"title"`
	EnglishTitle  string `gorm:"size:512" json:"english_title,omitempty"`
	JapaneseTitle string `gorm:"size:512" json:"japanese_title,omitempty"`

	Type     SeriesType `gorm:"size:20;default:'unknown'" json:"type"`
	Synopsis string     `gorm:"type:text" json:"synopsis,omitempty"`

	StartDate FuzzyDate `gorm:"embedded;embeddedPrefix:start_" json:"start_date"`
	EndDate   FuzzyDate `gorm:"embedded;embeddedPrefix:end_" json:"end_date"`

	EpisodeCount  int `json:"episode_count,omitempty"`
	EpisodeLength int `json:"episode_length,omitempty"` // minutes

	CoverURL   string  `gorm:"size:2048" json:"cover_url,omitempty"`
	Score      float64 `json:"score,omitempty"` // 0-10 local scale
	Popularity int     `json:"popularity,omitempty"`

	Genres   StringList `gorm:"type:text" json:"genres,omitempty"`
	Synonyms StringList `gorm:"type:text" json:"synonyms,omitempty"`

	// Entry is the authenticated user's list entry for this item, present
	// only when the item is in the user's library.
	Entry *LibraryEntry `gorm:"foreignKey:AnimeID" json:"entry,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// LibraryEntry holds the per-user list attributes of an Anime.
type LibraryEntry struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	AnimeID uint `gorm:"uniqueIndex" json:"anime_id"`

	EntryID string `gorm:"size:64" json:"entry_id,omitempty"` // service-side list entry id

	Status       ListStatus `gorm:"size:20;default:'unknown'" json:"status"`
	Score        float64    `json:"score,omitempty"` // 0-10 local scale
	Progress     int        `json:"progress,omitempty"`
	RewatchCount int        `json:"rewatch_count,omitempty"`
	Notes        string     `gorm:"type:text" json:"notes,omitempty"`

	StartedAt   FuzzyDate `gorm:"embedded;embeddedPrefix:started_" json:"started_at"`
	CompletedAt FuzzyDate `gorm:"embedded;embeddedPrefix:completed_" json:"completed_at"`

	// LastUpdated is the service-supplied last-update marker, kept opaque.
	LastUpdated string `gorm:"size:64" json:"last_updated,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Service) TableName() string {
	return "services"
}

func (Anime) TableName() string {
	return "anime"
}

func (LibraryEntry) TableName() string {
	return "library_entries"
}
