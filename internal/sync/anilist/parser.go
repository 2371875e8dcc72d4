package anilist

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/mrlokans/anisync/internal/entities"
)

// Wire documents. Fields AniList reports as null decode to their zero value,
// which the mapping below treats as absent.

type mediaTitleObject struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

type mediaObject struct {
	ID          int              `json:"id"`
	Title       mediaTitleObject `json:"title"`
	Format      string           `json:"format"`
	Description string           `json:"description"`
	StartDate   fuzzyDate        `json:"startDate"`
	EndDate     fuzzyDate        `json:"endDate"`
	Episodes    int              `json:"episodes"`
	Duration    int              `json:"duration"`
	CoverImage  struct {
		Large string `json:"large"`
	} `json:"coverImage"`
	Genres       []interface{} `json:"genres"`
	Synonyms     []interface{} `json:"synonyms"`
	AverageScore int           `json:"averageScore"`
	Popularity   int           `json:"popularity"`
}

type mediaListObject struct {
	ID          int         `json:"id"`
	Status      string      `json:"status"`
	Score       int         `json:"score"`
	Progress    int         `json:"progress"`
	Repeat      int         `json:"repeat"`
	Notes       string      `json:"notes"`
	StartedAt   fuzzyDate   `json:"startedAt"`
	CompletedAt fuzzyDate   `json:"completedAt"`
	UpdatedAt   json.Number `json:"updatedAt"`
	Media       mediaObject `json:"media"`
}

// filterStrings keeps the string-typed elements of a mixed JSON array.
// Non-string elements are skipped, not errors.
func filterStrings(values []interface{}) []string {
	var result []string
	for _, v := range values {
		if s, ok := v.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

// parseMediaObject maps one media document onto the canonical model and
// upserts it, returning the store-assigned id. A document without a usable id
// is logged and skipped.
func (s *Service) parseMediaObject(doc *mediaObject) uint {
	if doc.ID == 0 {
		log.Printf("AniList: could not parse media object: missing id")
		return entities.IDUnknown
	}

	item := entities.Anime{
		Service:       entities.Service{Name: canonicalName},
		ExternalID:    strconv.Itoa(doc.ID),
		LastModified:  time.Now(),
		Title:         doc.Title.Romaji,
		EnglishTitle:  doc.Title.English,
		JapaneseTitle: doc.Title.Native,
		Type:          translateSeriesTypeFrom(doc.Format),
		Synopsis:      decodeDescription(doc.Description),
		StartDate:     translateFuzzyDateFrom(doc.StartDate),
		EndDate:       translateFuzzyDateFrom(doc.EndDate),
		EpisodeCount:  doc.Episodes,
		EpisodeLength: doc.Duration,
		CoverURL:      doc.CoverImage.Large,
		Score:         translateSeriesRatingFrom(doc.AverageScore),
		Popularity:    doc.Popularity,
	}
	item.Genres.Add(filterStrings(doc.Genres)...)
	item.Synonyms.Add(filterStrings(doc.Synonyms)...)

	id, err := s.store.UpsertAnime(&item)
	if err != nil {
		log.Printf("AniList: failed to store media %d: %v", doc.ID, err)
		return entities.IDUnknown
	}
	return id
}

// parseMediaListObject maps one library entry. The nested media document is
// parsed first so the media side is always current, then the user-list
// attributes are merged onto the same canonical key. A failure here never
// aborts the caller's loop over sibling entries.
func (s *Service) parseMediaListObject(doc *mediaListObject) uint {
	if doc.Media.ID == 0 {
		log.Printf("AniList: could not parse library entry #%d: missing media id", doc.ID)
		return entities.IDUnknown
	}

	if id := s.parseMediaObject(&doc.Media); id == entities.IDUnknown {
		return entities.IDUnknown
	}

	item := entities.Anime{
		Service:      entities.Service{Name: canonicalName},
		ExternalID:   strconv.Itoa(doc.Media.ID),
		LastModified: time.Now(),
		Entry: &entities.LibraryEntry{
			EntryID:      strconv.Itoa(doc.ID),
			Status:       translateMyStatusFrom(doc.Status),
			Score:        translateSeriesRatingFrom(doc.Score),
			Progress:     doc.Progress,
			RewatchCount: doc.Repeat,
			Notes:        doc.Notes,
			StartedAt:    translateFuzzyDateFrom(doc.StartedAt),
			CompletedAt:  translateFuzzyDateFrom(doc.CompletedAt),
			LastUpdated:  doc.UpdatedAt.String(),
		},
	}

	id, err := s.store.UpsertAnime(&item)
	if err != nil {
		log.Printf("AniList: failed to store library entry #%d: %v", doc.ID, err)
		return entities.IDUnknown
	}
	return id
}
