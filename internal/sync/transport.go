package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 30 * time.Second

// HTTPRequest is the transport-level request an adapter builds. The transport
// owns scheduling, TLS and timeouts; adapters only describe the exchange.
type HTTPRequest struct {
	Host   string
	Path   string
	Query  url.Values
	Method string
	Secure bool
	Header map[string]string
	Body   []byte
}

// URL assembles the full request URL.
func (r *HTTPRequest) URL() string {
	scheme := "http"
	if r.Secure {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.Path}
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}
	return u.String()
}

// HTTPResponse is the raw transport result handed back to the adapter.
type HTTPResponse struct {
	StatusCode int
	Body       []byte
}

// Transport executes a built request and returns the raw response. The
// production implementation wraps net/http; tests substitute doubles.
type Transport interface {
	Do(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error)
}

// HTTPTransport executes requests with net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport with a default timeout.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{Timeout: defaultTimeout},
	}
}

func (t *HTTPTransport) Do(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range req.Header {
		httpReq.Header.Set(key, value)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &HTTPResponse{StatusCode: resp.StatusCode, Body: respBody}, nil
}
