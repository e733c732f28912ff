package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-detector/internal/netlink"
)

// defaultTimeout bounds a registry call when none is configured.
const defaultTimeout = 10 * time.Second

// maxResponseSize caps how much of a registry response is read.
const maxResponseSize = 64 << 10

// Registry endpoint paths.
const (
	lookupPath   = "/detector/"
	registerPath = "/detector/new"
	UploadPath   = "/log/upload"
)

// Client issues synchronous HTTP calls to the registry. One request is in
// flight at a time per caller; each is bounded by the client timeout.
//
// Thread Safety: All methods are safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a registry client.
//
// Parameters:
//   - baseURL: Registry root, e.g. "http://192.168.1.10:8080"
//   - timeout: Per-request timeout (zero uses 10s)
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the registry root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Lookup fetches the configuration document for mac.
//
// Returns:
//   - []byte: Raw response body on 200
//   - error: ErrNotRegistered for any other status, ErrTransport if the
//     request failed
func (c *Client) Lookup(ctx context.Context, mac string) ([]byte, error) {
	endpoint := c.baseURL + lookupPath + url.PathEscape(mac)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building lookup request: %w", err)
	}

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: lookup status %d", ErrNotRegistered, status)
	}
	return body, nil
}

// Register submits the device identity to the registry.
//
// Returns:
//   - []byte: Registry response body on 201
//   - error: ErrRegistrationRejected for any other status, ErrTransport if
//     the request failed
func (c *Client) Register(ctx context.Context, id netlink.Identity) ([]byte, error) {
	payload, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("encoding identity: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+registerPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated {
		return body, fmt.Errorf("%w: status %d", ErrRegistrationRejected, status)
	}
	return body, nil
}

// Post sends body to path with a JSON content type and returns the status
// and response body. Any status is returned without error; only transport
// failures are errors.
func (c *Client) Post(ctx context.Context, path string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: reading response: %w", ErrTransport, err)
	}
	// Drain the rest to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, body, nil
}
