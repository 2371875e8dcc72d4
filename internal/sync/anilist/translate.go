package anilist

import (
	"html"
	"regexp"
	"strings"

	"github.com/mrlokans/anisync/internal/entities"
)

// Translation tables between AniList's schema enumerations and the canonical
// model. Every "from" direction maps unrecognized values to the unknown
// sentinel instead of failing; the wire vocabulary can grow ahead of us.

func translateSeriesTypeFrom(value string) entities.SeriesType {
	switch value {
	case "TV", "TV_SHORT":
		return entities.SeriesTypeTV
	case "MOVIE":
		return entities.SeriesTypeMovie
	case "OVA":
		return entities.SeriesTypeOVA
	case "ONA":
		return entities.SeriesTypeONA
	case "SPECIAL":
		return entities.SeriesTypeSpecial
	case "MUSIC":
		return entities.SeriesTypeMusic
	}
	return entities.SeriesTypeUnknown
}

func translateSeriesTypeTo(value entities.SeriesType) string {
	switch value {
	case entities.SeriesTypeTV:
		return "TV"
	case entities.SeriesTypeMovie:
		return "MOVIE"
	case entities.SeriesTypeOVA:
		return "OVA"
	case entities.SeriesTypeONA:
		return "ONA"
	case entities.SeriesTypeSpecial:
		return "SPECIAL"
	case entities.SeriesTypeMusic:
		return "MUSIC"
	}
	return ""
}

func translateMyStatusFrom(value string) entities.ListStatus {
	switch value {
	case "CURRENT", "REPEATING":
		return entities.ListStatusWatching
	case "COMPLETED":
		return entities.ListStatusCompleted
	case "PAUSED":
		return entities.ListStatusOnHold
	case "DROPPED":
		return entities.ListStatusDropped
	case "PLANNING":
		return entities.ListStatusPlanToWatch
	}
	return entities.ListStatusUnknown
}

func translateMyStatusTo(value entities.ListStatus) string {
	switch value {
	case entities.ListStatusWatching:
		return "CURRENT"
	case entities.ListStatusCompleted:
		return "COMPLETED"
	case entities.ListStatusOnHold:
		return "PAUSED"
	case entities.ListStatusDropped:
		return "DROPPED"
	case entities.ListStatusPlanToWatch:
		return "PLANNING"
	}
	return ""
}

func translateSeasonTo(value string) string {
	return strings.ToUpper(value)
}

// AniList scores media and list entries on a 0-100 scale; the local scale is
// 0-10.
func translateSeriesRatingFrom(value int) float64 {
	return float64(value) / 10.0
}

func translateSeriesRatingTo(value float64) int {
	return int(value * 10.0)
}

// fuzzyDate mirrors AniList's FuzzyDate object ({year, month, day}, each
// nullable). Absent and null components both decode to zero, which is exactly
// the canonical "unknown" encoding, so translation is a field-wise copy.
type fuzzyDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func translateFuzzyDateFrom(value fuzzyDate) entities.FuzzyDate {
	return entities.FuzzyDate{Year: value.Year, Month: value.Month, Day: value.Day}
}

func translateFuzzyDateTo(value entities.FuzzyDate) fuzzyDate {
	return fuzzyDate{Year: value.Year, Month: value.Month, Day: value.Day}
}

var (
	htmlBreakRE = regexp.MustCompile(`(?i)<br\s*/?>`)
	htmlTagRE   = regexp.MustCompile(`<[^>]+>`)
)

// decodeDescription strips the HTML markup AniList embeds in descriptions
// (line breaks, emphasis tags, entities) down to plain text.
func decodeDescription(text string) string {
	text = htmlBreakRE.ReplaceAllString(text, "\n")
	text = htmlTagRE.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	return strings.TrimSpace(text)
}
