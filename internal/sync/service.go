package sync

import (
	"fmt"
	"sort"

	"github.com/mrlokans/anisync/internal/entities"
)

// Store is the canonical item store adapters upsert into. Implementations
// must serialize concurrent upserts for the same (service, external id) key.
type Store interface {
	// UpsertAnime inserts or merges the item keyed by (service, external id)
	// and returns the persistent identifier of the stored record.
	UpsertAnime(item *entities.Anime) (uint, error)
}

// Credentials supplies the externally stored configuration a service adapter
// consumes: the transport preference, the account name on the service, and a
// previously obtained access token (opaque to the adapters).
type Credentials interface {
	UseSecureTransport(service string) bool
	Username(service string) string
	AccessToken(service string) string
}

// Service is the contract every backend adapter implements. BuildRequest and
// HandleResponse are pure transformations; the network exchange between them
// belongs to the Transport.
type Service interface {
	// CanonicalName is the lowercase identifier ("anilist").
	CanonicalName() string
	// Name is the display name ("AniList").
	Name() string

	// BuildRequest constructs the transport request for a logical operation.
	// Operations the service does not support yet fail with
	// NotImplementedError.
	BuildRequest(req *Request, httpReq *HTTPRequest) error

	// HandleResponse classifies the transport result and, on success, parses
	// the payload and upserts items into the store. Failures are recorded on
	// the response's "error" key.
	HandleResponse(resp *Response, httpResp *HTTPResponse)

	// RequestNeedsAuthentication reports whether the operation must carry a
	// bearer token.
	RequestNeedsAuthentication(t RequestType) bool
}

// CheckDispatchCoverage verifies that an adapter's dispatch table covers the
// whole operation enumeration. Adapters call this from their constructor so a
// newly added tag fails at startup rather than falling through silently.
func CheckDispatchCoverage(service string, covered map[RequestType]bool) error {
	var missing []string
	for _, t := range RequestTypes() {
		if !covered[t] {
			missing = append(missing, t.String())
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%s: dispatch table missing operations: %v", service, missing)
	}
	return nil
}

// Registry holds the known service adapters keyed by canonical name.
type Registry struct {
	services map[string]Service
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{services: make(map[string]Service)}
}

// Register adds an adapter. Registering the same canonical name twice is a
// programming error.
func (r *Registry) Register(s Service) error {
	name := s.CanonicalName()
	if _, exists := r.services[name]; exists {
		return fmt.Errorf("service %q is already registered", name)
	}
	r.services[name] = s
	r.order = append(r.order, name)
	return nil
}

// Get returns the adapter registered under the canonical name.
func (r *Registry) Get(name string) (Service, error) {
	s, ok := r.services[name]
	if !ok {
		return nil, fmt.Errorf("unknown service %q", name)
	}
	return s, nil
}

// Names lists registered canonical names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
