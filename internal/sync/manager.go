package sync

import (
	"context"
	"fmt"
	"log"
)

// Manager is the dispatcher: it selects the adapter for a service, builds the
// transport request, performs the exchange and hands the raw response back to
// the adapter. One call per logical operation; the Manager holds no state
// between calls and performs no retries.
type Manager struct {
	registry  *Registry
	transport Transport
}

// NewManager creates a dispatcher over the given registry and transport.
func NewManager(registry *Registry, transport Transport) *Manager {
	return &Manager{registry: registry, transport: transport}
}

// Registry exposes the underlying service registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Do executes one logical operation against the named service. The returned
// Response always matches the request's operation tag; check Response.Err for
// application-level failures. A non-nil error means the operation never
// produced a usable transport response.
func (m *Manager) Do(ctx context.Context, service string, req *Request) (*Response, error) {
	adapter, err := m.registry.Get(service)
	if err != nil {
		return nil, err
	}

	httpReq := &HTTPRequest{}
	if err := adapter.BuildRequest(req, httpReq); err != nil {
		return nil, fmt.Errorf("%s: failed to build %s request: %w", service, req.Type, err)
	}

	httpResp, err := m.transport.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %s exchange failed: %w", service, req.Type, err)
	}

	resp := NewResponse(req.Type)
	adapter.HandleResponse(resp, httpResp)

	if msg := resp.Err(); msg != "" {
		log.Printf("Sync: %s %s failed: %s", service, req.Type, msg)
	}

	return resp, nil
}
