// Package sync defines the request/response contract every service adapter
// implements, the transport boundary types, and the dispatcher that routes
// logical operations to the active adapter.
package sync

// RequestType identifies the logical operation a Request represents.
type RequestType int

const (
	RequestAddLibraryEntry RequestType = iota
	RequestAuthenticateUser
	RequestDeleteLibraryEntry
	RequestGetLibraryEntries
	RequestGetMetadataByID
	RequestGetSeason
	RequestSearchTitle
	RequestUpdateLibraryEntry
)

// RequestTypes lists every operation tag. Adapters must provide a builder and
// a handler for each of these; see CheckDispatchCoverage.
func RequestTypes() []RequestType {
	return []RequestType{
		RequestAddLibraryEntry,
		RequestAuthenticateUser,
		RequestDeleteLibraryEntry,
		RequestGetLibraryEntries,
		RequestGetMetadataByID,
		RequestGetSeason,
		RequestSearchTitle,
		RequestUpdateLibraryEntry,
	}
}

func (t RequestType) String() string {
	switch t {
	case RequestAddLibraryEntry:
		return "add_library_entry"
	case RequestAuthenticateUser:
		return "authenticate_user"
	case RequestDeleteLibraryEntry:
		return "delete_library_entry"
	case RequestGetLibraryEntries:
		return "get_library_entries"
	case RequestGetMetadataByID:
		return "get_metadata_by_id"
	case RequestGetSeason:
		return "get_season"
	case RequestSearchTitle:
		return "search_title"
	case RequestUpdateLibraryEntry:
		return "update_library_entry"
	}
	return "unknown"
}

// Request is one logical operation to perform against a service. Data carries
// free-form per-operation parameters ("username", "id", "title", ...), all as
// strings; adapters convert values to the types their schema expects.
type Request struct {
	Type RequestType
	Data map[string]string
}

// NewRequest creates a Request with an empty parameter map.
func NewRequest(t RequestType) *Request {
	return &Request{Type: t, Data: make(map[string]string)}
}

// Response carries the result of one logical operation. On failure the
// "error" key holds a human-readable message and no other result data is
// guaranteed to be present.
type Response struct {
	Type RequestType
	Data map[string]string
}

// NewResponse creates a Response for the given operation.
func NewResponse(t RequestType) *Response {
	return &Response{Type: t, Data: make(map[string]string)}
}

// SetError records a failure message on the response.
func (r *Response) SetError(message string) {
	r.Data["error"] = message
}

// Err returns the recorded failure message, or "" on success.
func (r *Response) Err() string {
	return r.Data["error"]
}
