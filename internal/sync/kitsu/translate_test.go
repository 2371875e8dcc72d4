package kitsu

import (
	"testing"

	"github.com/mrlokans/anisync/internal/entities"
	"github.com/stretchr/testify/assert"
)

func TestTranslateSeriesTypeFrom(t *testing.T) {
	tests := []struct {
		subtype string
		want    entities.SeriesType
	}{
		{"TV", entities.SeriesTypeTV},
		{"movie", entities.SeriesTypeMovie},
		{"OVA", entities.SeriesTypeOVA},
		{"ONA", entities.SeriesTypeONA},
		{"special", entities.SeriesTypeSpecial},
		{"music", entities.SeriesTypeMusic},
		{"tv", entities.SeriesTypeUnknown},
		{"", entities.SeriesTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.subtype, func(t *testing.T) {
			assert.Equal(t, tt.want, translateSeriesTypeFrom(tt.subtype))
		})
	}
}

func TestTranslateMyStatus(t *testing.T) {
	tests := []struct {
		wire string
		want entities.ListStatus
	}{
		{"current", entities.ListStatusWatching},
		{"completed", entities.ListStatusCompleted},
		{"on_hold", entities.ListStatusOnHold},
		{"dropped", entities.ListStatusDropped},
		{"planned", entities.ListStatusPlanToWatch},
		{"CURRENT", entities.ListStatusUnknown},
		{"", entities.ListStatusUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, translateMyStatusFrom(tt.wire), tt.wire)
	}

	// Known statuses survive the round trip
	for _, status := range []entities.ListStatus{
		entities.ListStatusWatching,
		entities.ListStatusCompleted,
		entities.ListStatusOnHold,
		entities.ListStatusDropped,
		entities.ListStatusPlanToWatch,
	} {
		assert.Equal(t, status, translateMyStatusFrom(translateMyStatusTo(status)))
	}
	assert.Equal(t, "", translateMyStatusTo(entities.ListStatusUnknown))
}

func TestTranslateSeriesRatingFrom(t *testing.T) {
	assert.Equal(t, 8.227, translateSeriesRatingFrom("82.27"))
	assert.Equal(t, 9.0, translateSeriesRatingFrom("90"))
	assert.Equal(t, 0.0, translateSeriesRatingFrom(""))
	assert.Equal(t, 0.0, translateSeriesRatingFrom("not a number"))
}

func TestTranslateMyRating(t *testing.T) {
	assert.Equal(t, 8.5, translateMyRatingFrom(17))
	assert.Equal(t, 0.0, translateMyRatingFrom(0))
	assert.Equal(t, 17, translateMyRatingTo(8.5))
	assert.Equal(t, 0, translateMyRatingTo(0))
}

func TestTranslateDateFrom(t *testing.T) {
	tests := []struct {
		value string
		want  entities.FuzzyDate
	}{
		{"2011-04-07", entities.FuzzyDate{Year: 2011, Month: 4, Day: 7}},
		{"2011-04", entities.FuzzyDate{Year: 2011, Month: 4}},
		{"2011", entities.FuzzyDate{Year: 2011}},
		{"", entities.FuzzyDate{}},
		{"garbage", entities.FuzzyDate{}},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, translateDateFrom(tt.value))
		})
	}
}

func TestTranslateDateTo(t *testing.T) {
	tests := []struct {
		date entities.FuzzyDate
		want string
	}{
		{entities.FuzzyDate{Year: 2011, Month: 4, Day: 7}, "2011-04-07"},
		{entities.FuzzyDate{Year: 2011, Month: 4}, "2011-04"},
		{entities.FuzzyDate{Year: 2011}, "2011"},
		{entities.FuzzyDate{Month: 4, Day: 7}, ""},
		{entities.FuzzyDate{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, translateDateTo(tt.date))
		})
	}
}

func TestDateOnly(t *testing.T) {
	assert.Equal(t, "2024-06-07", dateOnly("2024-06-07T18:00:00.000Z"))
	assert.Equal(t, "2024-06-07", dateOnly("2024-06-07"))
	assert.Equal(t, "", dateOnly(""))
}
