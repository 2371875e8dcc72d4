// Package kitsu implements the sync.Service adapter for Kitsu's JSON:API
// REST interface.
//
// API documentation: https://kitsu.docs.apiary.io/
package kitsu

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mrlokans/anisync/internal/entities"
	"github.com/mrlokans/anisync/internal/sync"
)

const (
	host          = "kitsu.io"
	basePath      = "/api/edge"
	contentType   = "application/vnd.api+json"
	canonicalName = "kitsu"
	displayName   = "Kitsu"

	// Kitsu pages collection endpoints; this is the maximum page size the
	// API allows for library entries.
	libraryPageLimit = 500
)

type builderFunc func(*sync.Request, *sync.HTTPRequest) error
type handlerFunc func(*sync.Response, *sync.HTTPResponse)

// Service is the Kitsu adapter. Unlike AniList's single GraphQL endpoint,
// Kitsu exposes one REST resource per collection, so builders produce GET
// requests with filter parameters rather than query documents.
type Service struct {
	store       sync.Store
	credentials sync.Credentials

	builders map[sync.RequestType]builderFunc
	handlers map[sync.RequestType]handlerFunc
}

// New creates the Kitsu adapter and validates dispatch coverage.
func New(store sync.Store, credentials sync.Credentials) (*Service, error) {
	s := &Service{store: store, credentials: credentials}

	s.builders = map[sync.RequestType]builderFunc{
		sync.RequestAddLibraryEntry:    s.buildNotImplemented,
		sync.RequestAuthenticateUser:   s.buildNotImplemented,
		sync.RequestDeleteLibraryEntry: s.buildNotImplemented,
		sync.RequestGetLibraryEntries:  s.buildGetLibraryEntries,
		sync.RequestGetMetadataByID:    s.buildGetMetadataByID,
		sync.RequestGetSeason:          s.buildNotImplemented,
		sync.RequestSearchTitle:        s.buildSearchTitle,
		sync.RequestUpdateLibraryEntry: s.buildNotImplemented,
	}
	s.handlers = map[sync.RequestType]handlerFunc{
		sync.RequestAddLibraryEntry:    s.handleNotImplemented,
		sync.RequestAuthenticateUser:   s.handleNotImplemented,
		sync.RequestDeleteLibraryEntry: s.handleNotImplemented,
		sync.RequestGetLibraryEntries:  s.handleGetLibraryEntries,
		sync.RequestGetMetadataByID:    s.handleGetMetadataByID,
		sync.RequestGetSeason:          s.handleNotImplemented,
		sync.RequestSearchTitle:        s.handleSearchTitle,
		sync.RequestUpdateLibraryEntry: s.handleNotImplemented,
	}

	covered := make(map[sync.RequestType]bool)
	for t := range s.builders {
		if _, ok := s.handlers[t]; ok {
			covered[t] = true
		}
	}
	if err := sync.CheckDispatchCoverage(canonicalName, covered); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) CanonicalName() string { return canonicalName }
func (s *Service) Name() string          { return displayName }

// RequestNeedsAuthentication reports which operations must carry a bearer
// token. Kitsu's read endpoints are anonymous; list mutations and the
// authentication exchange itself are not.
func (s *Service) RequestNeedsAuthentication(t sync.RequestType) bool {
	switch t {
	case sync.RequestAddLibraryEntry,
		sync.RequestDeleteLibraryEntry,
		sync.RequestUpdateLibraryEntry,
		sync.RequestAuthenticateUser:
		return true
	}
	return false
}

func (s *Service) BuildRequest(req *sync.Request, httpReq *sync.HTTPRequest) error {
	httpReq.Host = host
	httpReq.Method = "GET"
	httpReq.Secure = s.credentials.UseSecureTransport(canonicalName)
	httpReq.Header = map[string]string{
		"Accept":          contentType,
		"Accept-Charset":  "utf-8",
		"Accept-Encoding": "gzip",
		"Content-Type":    contentType,
	}

	if s.RequestNeedsAuthentication(req.Type) {
		httpReq.Header["Authorization"] = "Bearer " + s.credentials.AccessToken(canonicalName)
	}

	return s.builders[req.Type](req, httpReq)
}

func (s *Service) HandleResponse(resp *sync.Response, httpResp *sync.HTTPResponse) {
	if s.requestSucceeded(resp, httpResp) {
		s.handlers[resp.Type](resp, httpResp)
	}
}

// Request builders

// buildGetLibraryEntries fetches the user's anime library in one page. The
// account name for Kitsu, whether passed on the request or configured, is the
// numeric user id; the slug-to-id lookup endpoint is deliberately not wired
// here.
func (s *Service) buildGetLibraryEntries(req *sync.Request, httpReq *sync.HTTPRequest) error {
	userID := req.Data["username"]
	if userID == "" {
		userID = s.credentials.Username(canonicalName)
	}
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	httpReq.Path = basePath + "/library-entries"
	httpReq.Query = url.Values{
		"filter[userId]": {userID},
		"filter[kind]":   {"anime"},
		"include":        {"anime"},
		"page[limit]":    {strconv.Itoa(libraryPageLimit)},
	}
	return nil
}

func (s *Service) buildGetMetadataByID(req *sync.Request, httpReq *sync.HTTPRequest) error {
	id := req.Data["id"]
	if _, err := strconv.Atoi(id); err != nil {
		return fmt.Errorf("invalid media id %q: %w", id, err)
	}

	httpReq.Path = basePath + "/anime/" + id
	return nil
}

func (s *Service) buildSearchTitle(req *sync.Request, httpReq *sync.HTTPRequest) error {
	httpReq.Path = basePath + "/anime"
	httpReq.Query = url.Values{
		"filter[text]": {req.Data["title"]},
	}
	return nil
}

func (s *Service) buildNotImplemented(req *sync.Request, _ *sync.HTTPRequest) error {
	return sync.NotImplemented(canonicalName, req.Type)
}

// Response handlers

func (s *Service) handleGetLibraryEntries(resp *sync.Response, httpResp *sync.HTTPResponse) {
	var root struct {
		Data     []libraryEntryResource `json:"data"`
		Included []animeResource        `json:"included"`
	}
	if !s.parseResponseBody(httpResp.Body, resp, &root) {
		return
	}

	included := make(map[string]*animeResource, len(root.Included))
	for i := range root.Included {
		included[root.Included[i].ID] = &root.Included[i]
	}

	var parsed, failed int
	for i := range root.Data {
		entry := &root.Data[i]
		anime := included[entry.Relationships.Anime.Data.ID]
		if s.parseLibraryEntryResource(entry, anime) == entities.IDUnknown {
			failed++
			continue
		}
		parsed++
	}

	resp.Data["parsed"] = strconv.Itoa(parsed)
	resp.Data["failed"] = strconv.Itoa(failed)
}

func (s *Service) handleGetMetadataByID(resp *sync.Response, httpResp *sync.HTTPResponse) {
	var root struct {
		Data animeResource `json:"data"`
	}
	if !s.parseResponseBody(httpResp.Body, resp, &root) {
		return
	}

	id := s.parseAnimeResource(&root.Data)
	if id == entities.IDUnknown {
		resp.SetError("Could not parse anime object")
		return
	}
	resp.Data["id"] = strconv.FormatUint(uint64(id), 10)
}

func (s *Service) handleSearchTitle(resp *sync.Response, httpResp *sync.HTTPResponse) {
	var root struct {
		Data []animeResource `json:"data"`
	}
	if !s.parseResponseBody(httpResp.Body, resp, &root) {
		return
	}

	var ids []string
	for i := range root.Data {
		if id := s.parseAnimeResource(&root.Data[i]); id != entities.IDUnknown {
			ids = append(ids, strconv.FormatUint(uint64(id), 10))
		}
	}
	resp.Data["ids"] = strings.Join(ids, ",")
}

func (s *Service) handleNotImplemented(resp *sync.Response, _ *sync.HTTPResponse) {
	resp.SetError(sync.NotImplemented(canonicalName, resp.Type).Error())
}

// Error classification

// requestSucceeded classifies the transport result against Kitsu's JSON:API
// error document shape ({"errors":[{"title","detail"}]}).
func (s *Service) requestSucceeded(resp *sync.Response, httpResp *sync.HTTPResponse) bool {
	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		return true
	}

	var description string
	var payload struct {
		Errors []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(httpResp.Body, &payload); err == nil && len(payload.Errors) > 0 {
		description = payload.Errors[0].Detail
		if description == "" {
			description = payload.Errors[0].Title
		}
	}

	if description == "" {
		description = fmt.Sprintf("Unknown error (%s|%s|%d)",
			canonicalName, resp.Type, httpResp.StatusCode)
	}

	resp.SetError(displayName + " returned an error: " + description)
	return false
}

func (s *Service) parseResponseBody(body []byte, resp *sync.Response, root interface{}) bool {
	if err := json.Unmarshal(body, root); err == nil {
		return true
	}

	switch resp.Type {
	case sync.RequestGetLibraryEntries:
		resp.SetError("Could not parse library entries")
	case sync.RequestGetMetadataByID:
		resp.SetError("Could not parse anime object")
	case sync.RequestSearchTitle:
		resp.SetError("Could not parse search results")
	default:
		resp.SetError("Could not parse response")
	}
	return false
}

// Compile-time interface check
var _ sync.Service = (*Service)(nil)
