package anilist

import (
	"encoding/json"
	"testing"

	"github.com/mrlokans/anisync/internal/entities"
	"github.com/mrlokans/anisync/internal/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records upserted items and assigns sequential ids.
type fakeStore struct {
	items []entities.Anime
	err   error
}

func (s *fakeStore) UpsertAnime(item *entities.Anime) (uint, error) {
	if s.err != nil {
		return entities.IDUnknown, s.err
	}
	s.items = append(s.items, *item)
	return uint(len(s.items)), nil
}

type fakeCredentials struct {
	secure   bool
	username string
	token    string
}

func (c *fakeCredentials) UseSecureTransport(service string) bool { return c.secure }
func (c *fakeCredentials) Username(service string) string         { return c.username }
func (c *fakeCredentials) AccessToken(service string) string      { return c.token }

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeCredentials) {
	t.Helper()
	store := &fakeStore{}
	credentials := &fakeCredentials{secure: true, username: "erengy", token: "token-123"}
	svc, err := New(store, credentials)
	require.NoError(t, err)
	return svc, store, credentials
}

func TestNewCoversEveryOperation(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, rt := range sync.RequestTypes() {
		assert.NotNil(t, svc.builders[rt], "no builder for %s", rt)
		assert.NotNil(t, svc.handlers[rt], "no handler for %s", rt)
	}
}

func TestRequestNeedsAuthentication(t *testing.T) {
	svc, _, _ := newTestService(t)

	assert.True(t, svc.RequestNeedsAuthentication(sync.RequestAddLibraryEntry))
	assert.True(t, svc.RequestNeedsAuthentication(sync.RequestDeleteLibraryEntry))
	assert.True(t, svc.RequestNeedsAuthentication(sync.RequestUpdateLibraryEntry))
	assert.True(t, svc.RequestNeedsAuthentication(sync.RequestAuthenticateUser))

	assert.False(t, svc.RequestNeedsAuthentication(sync.RequestGetLibraryEntries))
	assert.False(t, svc.RequestNeedsAuthentication(sync.RequestGetMetadataByID))
	assert.False(t, svc.RequestNeedsAuthentication(sync.RequestSearchTitle))
	assert.False(t, svc.RequestNeedsAuthentication(sync.RequestGetSeason))
}

func TestBuildRequest_CommonEnvelope(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := sync.NewRequest(sync.RequestSearchTitle)
	req.Data["title"] = "cowboy bebop"

	var httpReq sync.HTTPRequest
	require.NoError(t, svc.BuildRequest(req, &httpReq))

	assert.Equal(t, "graphql.anilist.co", httpReq.Host)
	assert.Equal(t, "POST", httpReq.Method)
	assert.True(t, httpReq.Secure)
	assert.Equal(t, "application/json", httpReq.Header["Content-Type"])
	assert.Equal(t, "application/json", httpReq.Header["Accept"])
	assert.NotContains(t, httpReq.Header, "Authorization")
	assert.NotEmpty(t, httpReq.Body)
}

func TestBuildRequest_InsecureTransport(t *testing.T) {
	store := &fakeStore{}
	svc, err := New(store, &fakeCredentials{secure: false, username: "erengy"})
	require.NoError(t, err)

	req := sync.NewRequest(sync.RequestGetMetadataByID)
	req.Data["id"] = "1"

	var httpReq sync.HTTPRequest
	require.NoError(t, svc.BuildRequest(req, &httpReq))
	assert.False(t, httpReq.Secure)
}

func TestBuildRequest_AuthenticatedOperationCarriesToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := sync.NewRequest(sync.RequestUpdateLibraryEntry)
	var httpReq sync.HTTPRequest
	err := svc.BuildRequest(req, &httpReq)

	// The builder itself is a placeholder, but the envelope is set first
	assert.True(t, sync.IsNotImplemented(err))
	assert.Equal(t, "Bearer token-123", httpReq.Header["Authorization"])
}

func TestBuildGetLibraryEntries(t *testing.T) {
	t.Run("explicit username wins", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		req := sync.NewRequest(sync.RequestGetLibraryEntries)
		req.Data["username"] = "someone-else"

		var httpReq sync.HTTPRequest
		require.NoError(t, svc.BuildRequest(req, &httpReq))

		var doc struct {
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.Unmarshal(httpReq.Body, &doc))
		assert.Equal(t, "someone-else", doc.Variables["userName"])
	})

	t.Run("falls back to configured username", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		req := sync.NewRequest(sync.RequestGetLibraryEntries)

		var httpReq sync.HTTPRequest
		require.NoError(t, svc.BuildRequest(req, &httpReq))

		var doc struct {
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.Unmarshal(httpReq.Body, &doc))
		assert.Equal(t, "erengy", doc.Variables["userName"])
	})

	t.Run("no username anywhere is an error", func(t *testing.T) {
		svc, err := New(&fakeStore{}, &fakeCredentials{secure: true})
		require.NoError(t, err)

		req := sync.NewRequest(sync.RequestGetLibraryEntries)
		var httpReq sync.HTTPRequest
		assert.Error(t, svc.BuildRequest(req, &httpReq))
	})
}

func TestBuildGetMetadataByID_InvalidID(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := sync.NewRequest(sync.RequestGetMetadataByID)
	req.Data["id"] = "not-a-number"

	var httpReq sync.HTTPRequest
	assert.Error(t, svc.BuildRequest(req, &httpReq))
}

func TestBuildRequest_UnsupportedOperations(t *testing.T) {
	svc, _, _ := newTestService(t)

	unsupported := []sync.RequestType{
		sync.RequestAddLibraryEntry,
		sync.RequestAuthenticateUser,
		sync.RequestDeleteLibraryEntry,
		sync.RequestGetSeason,
		sync.RequestUpdateLibraryEntry,
	}
	for _, rt := range unsupported {
		var httpReq sync.HTTPRequest
		err := svc.BuildRequest(sync.NewRequest(rt), &httpReq)
		assert.True(t, sync.IsNotImplemented(err), "%s should be unimplemented", rt)
	}
}

const mediaJSON = `{
	"id": 5114,
	"title": {"romaji": "Hagane no Renkinjutsushi", "english": "Fullmetal Alchemist: Brotherhood", "native": "鋼の錬金術師"},
	"format": "TV",
	"description": "The story<br>continues &amp; ends.",
	"startDate": {"year": 2009, "month": 4, "day": 5},
	"endDate": {"year": 2010, "month": 7, "day": 4},
	"episodes": 64,
	"duration": 24,
	"coverImage": {"large": "https://example.com/cover.jpg"},
	"genres": ["Action", 42, "Adventure", null],
	"synonyms": ["FMA:B", {"bad": true}],
	"averageScore": 90,
	"popularity": 12345
}`

func TestHandleGetMetadataByID(t *testing.T) {
	svc, store, _ := newTestService(t)

	resp := sync.NewResponse(sync.RequestGetMetadataByID)
	svc.HandleResponse(resp, &sync.HTTPResponse{
		StatusCode: 200,
		Body:       []byte(`{"data":{"Media":` + mediaJSON + `}}`),
	})

	assert.Empty(t, resp.Err())
	assert.Equal(t, "1", resp.Data["id"])
	require.Len(t, store.items, 1)

	item := store.items[0]
	assert.Equal(t, "anilist", item.Service.Name)
	assert.Equal(t, "5114", item.ExternalID)
	assert.Equal(t, "Hagane no Renkinjutsushi", item.Title)
	assert.Equal(t, "Fullmetal Alchemist: Brotherhood", item.EnglishTitle)
	assert.Equal(t, entities.SeriesTypeTV, item.Type)
	assert.Equal(t, "The story\ncontinues & ends.", item.Synopsis)
	assert.Equal(t, entities.FuzzyDate{Year: 2009, Month: 4, Day: 5}, item.StartDate)
	assert.Equal(t, 64, item.EpisodeCount)
	assert.Equal(t, 24, item.EpisodeLength)
	assert.Equal(t, 9.0, item.Score)
	assert.Equal(t, 12345, item.Popularity)

	// Non-string genre and synonym elements are skipped, not errors
	assert.Equal(t, entities.StringList{"Action", "Adventure"}, item.Genres)
	assert.Equal(t, entities.StringList{"FMA:B"}, item.Synonyms)
}

func TestHandleGetMetadataByID_MissingID(t *testing.T) {
	svc, store, _ := newTestService(t)

	resp := sync.NewResponse(sync.RequestGetMetadataByID)
	svc.HandleResponse(resp, &sync.HTTPResponse{
		StatusCode: 200,
		Body:       []byte(`{"data":{"Media":{"title":{"romaji":"No ID"}}}}`),
	})

	assert.Equal(t, "Could not parse anime object", resp.Err())
	assert.Empty(t, store.items)
}

func TestHandleGetMetadataByID_MalformedBody(t *testing.T) {
	svc, store, _ := newTestService(t)

	resp := sync.NewResponse(sync.RequestGetMetadataByID)
	svc.HandleResponse(resp, &sync.HTTPResponse{StatusCode: 200, Body: []byte("not json")})

	assert.Equal(t, "Could not parse anime object", resp.Err())
	assert.Empty(t, store.items)
}

func TestHandleGetLibraryEntries(t *testing.T) {
	svc, store, _ := newTestService(t)

	body := `{"data":{"MediaListCollection":{"lists":[
		{"entries":[
			{"id": 901, "status": "CURRENT", "score": 85, "progress": 12, "repeat": 1,
			 "notes": "great", "startedAt": {"year": 2024}, "completedAt": {},
			 "updatedAt": 1717777777, "media": ` + mediaJSON + `},
			{"id": 902, "status": "COMPLETED", "media": {"title": {"romaji": "Broken"}}}
		]},
		{"entries":[
			{"id": 903, "status": "PLANNING", "media": {"id": 1, "title": {"romaji": "Cowboy Bebop"}, "format": "TV"}}
		]}
	]}}}`

	resp := sync.NewResponse(sync.RequestGetLibraryEntries)
	svc.HandleResponse(resp, &sync.HTTPResponse{StatusCode: 200, Body: []byte(body)})

	// One entry lacks a media id; the rest still land
	assert.Empty(t, resp.Err())
	assert.Equal(t, "2", resp.Data["parsed"])
	assert.Equal(t, "1", resp.Data["failed"])

	// Each good entry upserts media first, then the list attributes
	require.Len(t, store.items, 4)

	entryUpsert := store.items[1]
	require.NotNil(t, entryUpsert.Entry)
	assert.Equal(t, "901", entryUpsert.Entry.EntryID)
	assert.Equal(t, entities.ListStatusWatching, entryUpsert.Entry.Status)
	assert.Equal(t, 8.5, entryUpsert.Entry.Score)
	assert.Equal(t, 12, entryUpsert.Entry.Progress)
	assert.Equal(t, 1, entryUpsert.Entry.RewatchCount)
	assert.Equal(t, "great", entryUpsert.Entry.Notes)
	assert.Equal(t, entities.FuzzyDate{Year: 2024}, entryUpsert.Entry.StartedAt)
	assert.True(t, entryUpsert.Entry.CompletedAt.IsZero())
	assert.Equal(t, "1717777777", entryUpsert.Entry.LastUpdated)
}

func TestHandleSearchTitle(t *testing.T) {
	svc, store, _ := newTestService(t)

	body := `{"data":{"Page":{"media":[
		` + mediaJSON + `,
		{"id": 1, "title": {"romaji": "Cowboy Bebop"}, "format": "TV"},
		{"title": {"romaji": "Missing ID"}}
	]}}}`

	resp := sync.NewResponse(sync.RequestSearchTitle)
	svc.HandleResponse(resp, &sync.HTTPResponse{StatusCode: 200, Body: []byte(body)})

	assert.Empty(t, resp.Err())
	assert.Equal(t, "1,2", resp.Data["ids"])
	assert.Len(t, store.items, 2)
}

func TestErrorClassification(t *testing.T) {
	t.Run("any 2xx is a success", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		for _, code := range []int{200, 201, 204, 299} {
			resp := sync.NewResponse(sync.RequestSearchTitle)
			svc.HandleResponse(resp, &sync.HTTPResponse{
				StatusCode: code,
				Body:       []byte(`{"data":{"Page":{"media":[]}}}`),
			})
			assert.Empty(t, resp.Err(), "status %d", code)
		}
	})

	t.Run("error message is taken from the errors list", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		resp := sync.NewResponse(sync.RequestGetMetadataByID)
		svc.HandleResponse(resp, &sync.HTTPResponse{
			StatusCode: 404,
			Body:       []byte(`{"errors":[{"message":"Not Found."},{"message":"second"}]}`),
		})
		assert.Equal(t, "AniList returned an error: Not Found.", resp.Err())
	})

	t.Run("unusable body synthesizes a fallback", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		resp := sync.NewResponse(sync.RequestGetMetadataByID)
		svc.HandleResponse(resp, &sync.HTTPResponse{
			StatusCode: 500,
			Body:       []byte("<html>Internal Server Error</html>"),
		})
		assert.Equal(t, "AniList returned an error: Unknown error (anilist|get_metadata_by_id|500)", resp.Err())
	})

	t.Run("empty errors list also synthesizes", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		resp := sync.NewResponse(sync.RequestGetLibraryEntries)
		svc.HandleResponse(resp, &sync.HTTPResponse{
			StatusCode: 429,
			Body:       []byte(`{"errors":[]}`),
		})
		assert.Equal(t, "AniList returned an error: Unknown error (anilist|get_library_entries|429)", resp.Err())
	})

	t.Run("failure skips the payload handler", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		resp := sync.NewResponse(sync.RequestSearchTitle)
		svc.HandleResponse(resp, &sync.HTTPResponse{
			StatusCode: 400,
			Body:       []byte(`{"errors":[{"message":"bad request"}]}`),
		})
		assert.NotEmpty(t, resp.Err())
		assert.Empty(t, store.items)
	})
}

func TestHandleResponse_UnsupportedOperation(t *testing.T) {
	svc, _, _ := newTestService(t)

	resp := sync.NewResponse(sync.RequestGetSeason)
	svc.HandleResponse(resp, &sync.HTTPResponse{StatusCode: 200, Body: []byte("{}")})

	assert.Contains(t, resp.Err(), "not implemented")
}
