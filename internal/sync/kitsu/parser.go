package kitsu

import (
	"log"
	"time"

	"github.com/mrlokans/anisync/internal/entities"
)

// JSON:API resource documents. Kitsu serializes every resource id as a
// string; an empty id means the document is unusable.

type animeAttributes struct {
	CanonicalTitle string `json:"canonicalTitle"`
	Titles         struct {
		En   string `json:"en"`
		EnJp string `json:"en_jp"`
		JaJp string `json:"ja_jp"`
	} `json:"titles"`
	AbbreviatedTitles []interface{} `json:"abbreviatedTitles"`
	Synopsis          string        `json:"synopsis"`
	Subtype           string        `json:"subtype"`
	StartDate         string        `json:"startDate"`
	EndDate           string        `json:"endDate"`
	EpisodeCount      int           `json:"episodeCount"`
	EpisodeLength     int           `json:"episodeLength"`
	PosterImage       struct {
		Large string `json:"large"`
	} `json:"posterImage"`
	AverageRating string `json:"averageRating"`
	UserCount     int    `json:"userCount"`
}

type animeResource struct {
	ID         string          `json:"id"`
	Attributes animeAttributes `json:"attributes"`
}

type libraryEntryAttributes struct {
	Status         string `json:"status"`
	Progress       int    `json:"progress"`
	ReconsumeCount int    `json:"reconsumeCount"`
	Notes          string `json:"notes"`
	RatingTwenty   int    `json:"ratingTwenty"`
	StartedAt      string `json:"startedAt"`
	FinishedAt     string `json:"finishedAt"`
	UpdatedAt      string `json:"updatedAt"`
}

type libraryEntryResource struct {
	ID            string                 `json:"id"`
	Attributes    libraryEntryAttributes `json:"attributes"`
	Relationships struct {
		Anime struct {
			Data struct {
				Type string `json:"type"`
				ID   string `json:"id"`
			} `json:"data"`
		} `json:"anime"`
	} `json:"relationships"`
}

func filterStrings(values []interface{}) []string {
	var result []string
	for _, v := range values {
		if s, ok := v.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

// parseAnimeResource maps one anime resource onto the canonical model and
// upserts it.
func (s *Service) parseAnimeResource(doc *animeResource) uint {
	if doc.ID == "" {
		log.Printf("Kitsu: could not parse anime resource: missing id")
		return entities.IDUnknown
	}

	attr := &doc.Attributes
	item := entities.Anime{
		Service:       entities.Service{Name: canonicalName},
		ExternalID:    doc.ID,
		LastModified:  time.Now(),
		Title:         attr.Titles.EnJp,
		EnglishTitle:  attr.Titles.En,
		JapaneseTitle: attr.Titles.JaJp,
		Type:          translateSeriesTypeFrom(attr.Subtype),
		Synopsis:      attr.Synopsis,
		StartDate:     translateDateFrom(attr.StartDate),
		EndDate:       translateDateFrom(attr.EndDate),
		EpisodeCount:  attr.EpisodeCount,
		EpisodeLength: attr.EpisodeLength,
		CoverURL:      attr.PosterImage.Large,
		Score:         translateSeriesRatingFrom(attr.AverageRating),
		Popularity:    attr.UserCount,
	}
	if item.Title == "" {
		item.Title = attr.CanonicalTitle
	} else if attr.CanonicalTitle != "" && attr.CanonicalTitle != item.Title {
		item.Synonyms.Add(attr.CanonicalTitle)
	}
	item.Synonyms.Add(filterStrings(attr.AbbreviatedTitles)...)

	id, err := s.store.UpsertAnime(&item)
	if err != nil {
		log.Printf("Kitsu: failed to store anime %s: %v", doc.ID, err)
		return entities.IDUnknown
	}
	return id
}

// parseLibraryEntryResource maps one library entry together with its related
// anime resource, which the caller resolves from the document's "included"
// section. A failure never aborts sibling entries.
func (s *Service) parseLibraryEntryResource(doc *libraryEntryResource, anime *animeResource) uint {
	if anime == nil || anime.ID == "" {
		log.Printf("Kitsu: could not parse library entry #%s: missing anime resource", doc.ID)
		return entities.IDUnknown
	}

	if id := s.parseAnimeResource(anime); id == entities.IDUnknown {
		return entities.IDUnknown
	}

	attr := &doc.Attributes
	item := entities.Anime{
		Service:      entities.Service{Name: canonicalName},
		ExternalID:   anime.ID,
		LastModified: time.Now(),
		Entry: &entities.LibraryEntry{
			EntryID:      doc.ID,
			Status:       translateMyStatusFrom(attr.Status),
			Score:        translateMyRatingFrom(attr.RatingTwenty),
			Progress:     attr.Progress,
			RewatchCount: attr.ReconsumeCount,
			Notes:        attr.Notes,
			StartedAt:    translateDateFrom(dateOnly(attr.StartedAt)),
			CompletedAt:  translateDateFrom(dateOnly(attr.FinishedAt)),
			LastUpdated:  attr.UpdatedAt,
		},
	}

	id, err := s.store.UpsertAnime(&item)
	if err != nil {
		log.Printf("Kitsu: failed to store library entry #%s: %v", doc.ID, err)
		return entities.IDUnknown
	}
	return id
}

// dateOnly trims the time portion off Kitsu's RFC 3339 timestamps, leaving
// the "YYYY-MM-DD" prefix for fuzzy-date translation.
func dateOnly(value string) string {
	if i := len("2006-01-02"); len(value) > i {
		return value[:i]
	}
	return value
}
