// Package anilist implements the sync.Service adapter for AniList's GraphQL
// API.
//
// API documentation:
// https://docs.anilist.co/
// https://anilist.github.io/ApiV2-GraphQL-Docs/
package anilist

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mrlokans/anisync/internal/entities"
	"github.com/mrlokans/anisync/internal/sync"
)

const (
	host          = "graphql.anilist.co"
	canonicalName = "anilist"
	displayName   = "AniList"
)

type builderFunc func(*sync.Request, *sync.HTTPRequest) error
type handlerFunc func(*sync.Response, *sync.HTTPResponse)

// Service is the AniList adapter. It is stateless between calls; all
// persistent state lives in the store and the credentials source.
type Service struct {
	store       sync.Store
	credentials sync.Credentials

	builders map[sync.RequestType]builderFunc
	handlers map[sync.RequestType]handlerFunc
}

// New creates the AniList adapter. The constructor validates that the
// dispatch tables cover every operation tag so an unhandled tag is a startup
// error, not a silent no-op.
func New(store sync.Store, credentials sync.Credentials) (*Service, error) {
	s := &Service{store: store, credentials: credentials}

	s.builders = map[sync.RequestType]builderFunc{
		sync.RequestAddLibraryEntry:    s.buildAddLibraryEntry,
		sync.RequestAuthenticateUser:   s.buildAuthenticateUser,
		sync.RequestDeleteLibraryEntry: s.buildDeleteLibraryEntry,
		sync.RequestGetLibraryEntries:  s.buildGetLibraryEntries,
		sync.RequestGetMetadataByID:    s.buildGetMetadataByID,
		sync.RequestGetSeason:          s.buildGetSeason,
		sync.RequestSearchTitle:        s.buildSearchTitle,
		sync.RequestUpdateLibraryEntry: s.buildUpdateLibraryEntry,
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
// token. Metadata lookup, title search and library fetch by user name are
// anonymous on AniList; everything touching the user's list is not.
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

// BuildRequest constructs the transport request for one logical operation.
func (s *Service) BuildRequest(req *sync.Request, httpReq *sync.HTTPRequest) error {
	httpReq.Host = host
	httpReq.Method = "POST"
	httpReq.Secure = s.credentials.UseSecureTransport(canonicalName)
	httpReq.Header = map[string]string{
		"Accept":          "application/json",
		"Accept-Charset":  "utf-8",
		"Accept-Encoding": "gzip",
		"Content-Type":    "application/json",
	}

	if s.RequestNeedsAuthentication(req.Type) {
		httpReq.Header["Authorization"] = "Bearer " + s.credentials.AccessToken(canonicalName)
	}

	return s.builders[req.Type](req, httpReq)
}

// HandleResponse classifies the transport result and dispatches the payload
// to the operation's parser.
func (s *Service) HandleResponse(resp *sync.Response, httpResp *sync.HTTPResponse) {
	if s.requestSucceeded(resp, httpResp) {
		s.handlers[resp.Type](resp, httpResp)
	}
}

// Request builders

func (s *Service) buildGetLibraryEntries(req *sync.Request, httpReq *sync.HTTPRequest) error {
	username := req.Data["username"]
	if username == "" {
		username = s.credentials.Username(canonicalName)
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	body, err := buildRequestBody(queryGetLibraryEntries, map[string]interface{}{
		"userName": username,
	})
	if err != nil {
		return err
	}
	httpReq.Body = body
	return nil
}

func (s *Service) buildGetMetadataByID(req *sync.Request, httpReq *sync.HTTPRequest) error {
	id, err := strconv.Atoi(req.Data["id"])
	if err != nil {
		return fmt.Errorf("invalid media id %q: %w", req.Data["id"], err)
	}

	body, err := buildRequestBody(queryGetMetadataByID, map[string]interface{}{
		"id": id,
	})
	if err != nil {
		return err
	}
	httpReq.Body = body
	return nil
}

func (s *Service) buildSearchTitle(req *sync.Request, httpReq *sync.HTTPRequest) error {
	body, err := buildRequestBody(querySearchTitle, map[string]interface{}{
		"query": req.Data["title"],
	})
	if err != nil {
		return err
	}
	httpReq.Body = body
	return nil
}

func (s *Service) buildAuthenticateUser(req *sync.Request, _ *sync.HTTPRequest) error {
	return sync.NotImplemented(canonicalName, req.Type)
}

func (s *Service) buildAddLibraryEntry(req *sync.Request, _ *sync.HTTPRequest) error {
	return sync.NotImplemented(canonicalName, req.Type)
}

func (s *Service) buildDeleteLibraryEntry(req *sync.Request, _ *sync.HTTPRequest) error {
	return sync.NotImplemented(canonicalName, req.Type)
}

func (s *Service) buildUpdateLibraryEntry(req *sync.Request, _ *sync.HTTPRequest) error {
	return sync.NotImplemented(canonicalName, req.Type)
}

func (s *Service) buildGetSeason(req *sync.Request, _ *sync.HTTPRequest) error {
	return sync.NotImplemented(canonicalName, req.Type)
}

// Response handlers

func (s *Service) handleGetLibraryEntries(resp *sync.Response, httpResp *sync.HTTPResponse) {
	var root struct {
		Data struct {
			MediaListCollection struct {
				Lists []struct {
					Entries []mediaListObject `json:"entries"`
				} `json:"lists"`
			} `json:"MediaListCollection"`
		} `json:"data"`
	}
	if !s.parseResponseBody(httpResp.Body, resp, &root) {
		return
	}

	var parsed, failed int
	for _, list := range root.Data.MediaListCollection.Lists {
		for i := range list.Entries {
			if s.parseMediaListObject(&list.Entries[i]) == entities.IDUnknown {
				failed++
				continue
			}
			parsed++
		}
	}

	resp.Data["parsed"] = strconv.Itoa(parsed)
	resp.Data["failed"] = strconv.Itoa(failed)
}

func (s *Service) handleGetMetadataByID(resp *sync.Response, httpResp *sync.HTTPResponse) {
	var root struct {
		Data struct {
			Media mediaObject `json:"Media"`
		} `json:"data"`
	}
	if !s.parseResponseBody(httpResp.Body, resp, &root) {
		return
	}

	id := s.parseMediaObject(&root.Data.Media)
	if id == entities.IDUnknown {
		resp.SetError("Could not parse anime object")
		return
	}
	resp.Data["id"] = strconv.FormatUint(uint64(id), 10)
}

func (s *Service) handleSearchTitle(resp *sync.Response, httpResp *sync.HTTPResponse) {
	var root struct {
		Data struct {
			Page struct {
				Media []mediaObject `json:"media"`
			} `json:"Page"`
		} `json:"data"`
	}
	if !s.parseResponseBody(httpResp.Body, resp, &root) {
		return
	}

	var ids []string
	for i := range root.Data.Page.Media {
		if id := s.parseMediaObject(&root.Data.Page.Media[i]); id != entities.IDUnknown {
			ids = append(ids, strconv.FormatUint(uint64(id), 10))
		}
	}
	resp.Data["ids"] = strings.Join(ids, ",")
}

func (s *Service) handleNotImplemented(resp *sync.Response, _ *sync.HTTPResponse) {
	resp.SetError(sync.NotImplemented(canonicalName, resp.Type).Error())
}

// Error classification

// requestSucceeded classifies the transport result. Any 2xx status is a
// success regardless of body content. Otherwise the body is inspected for
// AniList's error list; when no usable message can be extracted a fallback
// description naming the service, operation and status code is synthesized.
func (s *Service) requestSucceeded(resp *sync.Response, httpResp *sync.HTTPResponse) bool {
	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		return true
	}

	var description string
	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(httpResp.Body, &payload); err == nil && len(payload.Errors) > 0 {
		description = payload.Errors[0].Message
	}

	if description == "" {
		description = fmt.Sprintf("Unknown error (%s|%s|%d)",
			canonicalName, resp.Type, httpResp.StatusCode)
	}

	resp.SetError(displayName + " returned an error: " + description)
	return false
}

// parseResponseBody decodes a 2xx payload, recording an operation-specific
// message when the body is not usable JSON.
func (s *Service) parseResponseBody(body []byte, resp *sync.Response, root interface{}) bool {
	if err := json.Unmarshal(body, root); err == nil {
		return true
	}

	switch resp.Type {
	case sync.RequestGetLibraryEntries:
		resp.SetError("Could not parse library entries")
	case sync.RequestGetMetadataByID:
		resp.SetError("Could not parse anime object")
	case sync.RequestGetSeason:
		resp.SetError("Could not parse season data")
	case sync.RequestSearchTitle:
		resp.SetError("Could not parse search results")
	case sync.RequestUpdateLibraryEntry:
		resp.SetError("Could not parse library entry")
	default:
		resp.SetError("Could not parse response")
	}
	return false
}

// Compile-time interface check
var _ sync.Service = (*Service)(nil)
