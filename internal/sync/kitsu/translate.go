package kitsu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrlokans/anisync/internal/entities"
)

// Translation tables between Kitsu's JSON:API vocabulary and the canonical
// model. Unrecognized wire values map to the unknown sentinel.

func translateSeriesTypeFrom(value string) entities.SeriesType {
	switch value {
	case "TV":
		return entities.SeriesTypeTV
	case "movie":
		return entities.SeriesTypeMovie
	case "OVA":
		return entities.SeriesTypeOVA
	case "ONA":
		return entities.SeriesTypeONA
	case "special":
		return entities.SeriesTypeSpecial
	case "music":
		return entities.SeriesTypeMusic
	}
	return entities.SeriesTypeUnknown
}

func translateMyStatusFrom(value string) entities.ListStatus {
	switch value {
	case "current":
		return entities.ListStatusWatching
	case "completed":
		return entities.ListStatusCompleted
	case "on_hold":
		return entities.ListStatusOnHold
	case "dropped":
		return entities.ListStatusDropped
	case "planned":
		return entities.ListStatusPlanToWatch
	}
	return entities.ListStatusUnknown
}

func translateMyStatusTo(value entities.ListStatus) string {
	switch value {
	case entities.ListStatusWatching:
		return "current"
	case entities.ListStatusCompleted:
		return "completed"
	case entities.ListStatusOnHold:
		return "on_hold"
	case entities.ListStatusDropped:
		return "dropped"
	case entities.ListStatusPlanToWatch:
		return "planned"
	}
	return ""
}

// Kitsu rates media on a 0-100 scale serialized as a decimal string
// ("82.27") and list entries on a 0-20 integer scale.
func translateSeriesRatingFrom(value string) float64 {
	rating, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return rating / 10.0
}

func translateMyRatingFrom(value int) float64 {
	return float64(value) / 2.0
}

func translateMyRatingTo(value float64) int {
	return int(value * 2.0)
}

// translateDateFrom parses Kitsu's "YYYY-MM-DD" date strings, tolerating
// truncated values ("2006", "2006-01"). Empty and unparsable strings map to
// the unknown date.
func translateDateFrom(value string) entities.FuzzyDate {
	var date entities.FuzzyDate
	if value == "" {
		return date
	}

	parts := strings.SplitN(value, "-", 3)
	if len(parts) > 0 {
		date.Year, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		date.Month, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		date.Day, _ = strconv.Atoi(parts[2])
	}
	return date
}

// translateDateTo renders a fuzzy date back into Kitsu's string form,
// truncating at the first unknown component. The unknown date renders empty.
func translateDateTo(date entities.FuzzyDate) string {
	if date.Year == 0 {
		return ""
	}
	if date.Month == 0 {
		return fmt.Sprintf("%04d", date.Year)
	}
	if date.Day == 0 {
		return fmt.Sprintf("%04d-%02d", date.Year, date.Month)
	}
	return fmt.Sprintf("%04d-%02d-%02d", date.Year, date.Month, date.Day)
}
