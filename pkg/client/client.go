// Package client implements the HTTP client for the remote records API.
//
// The API owns all persistence, validation, and identifier assignment; this
// client only moves JSON and translates transport failures into typed errors
// the UI layers can render. There is no retry or backoff: every operation is
// one-shot and bounded by a timeout.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/recadm/recadm/pkg/logging"
	"github.com/recadm/recadm/pkg/record"
)

// Default operation timeouts. Health probes fail fast; data operations get
// a little more room for slow backends.
const (
	DefaultHealthTimeout = 8 * time.Second
	DefaultDataTimeout   = 15 * time.Second
)

// Client provides methods for communicating with the records API.
type Client interface {
	// Health reports whether the API responds 2xx on /health within the
	// health timeout. It never returns an error; an unreachable or
	// unhealthy API is simply false. The raw payload is returned when
	// the server sent a decodable JSON body.
	Health(ctx context.Context) (bool, map[string]any)
	// List returns all records in server order.
	List(ctx context.Context) ([]record.Record, error)
	// Create creates a new record from the given fields. The server
	// assigns id and createdAt.
	Create(ctx context.Context, fields record.Fields) (record.Record, error)
	// Update replaces the free-form fields of an existing record.
	// Reserved members are stripped from the payload before sending.
	Update(ctx context.Context, id string, fields record.Fields) (record.Record, error)
	// Delete removes a record by id.
	Delete(ctx context.Context, id string) error
}

// httpClient implements Client over net/http.
type httpClient struct {
	baseURL       string
	hc            *http.Client
	healthTimeout time.Duration
	dataTimeout   time.Duration
	log           *slog.Logger
}

// Option configures a client.
type Option func(*httpClient)

// WithHTTPClient replaces the underlying http.Client (for tests or custom
// transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.hc = hc }
}

// WithHealthTimeout overrides the health probe timeout.
func WithHealthTimeout(d time.Duration) Option {
	return func(c *httpClient) { c.healthTimeout = d }
}

// WithDataTimeout overrides the data operation timeout.
func WithDataTimeout(d time.Duration) Option {
	return func(c *httpClient) { c.dataTimeout = d }
}

// WithLogger sets the logger for request-level debug logging.
func WithLogger(log *slog.Logger) Option {
	return func(c *httpClient) { c.log = log }
}

// New creates a records API client for the given base URL
// (e.g. "https://medchain-mock-api.onrender.com").
func New(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL:       baseURL,
		hc:            &http.Client{},
		healthTimeout: DefaultHealthTimeout,
		dataTimeout:   DefaultDataTimeout,
		log:           logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health checks the /health endpoint.
func (c *httpClient) Health(ctx context.Context) (bool, map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		c.log.Debug("health probe failed", "url", c.baseURL, "error", err)
		return false, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Debug("health probe unhealthy", "status", resp.StatusCode)
		return false, nil
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		// A healthy server with a non-JSON body still counts as healthy.
		return true, nil
	}
	return true, payload
}

// List fetches the full record collection.
func (c *httpClient) List(ctx context.Context) ([]record.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.dataTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, "/records", nil)
	if err != nil {
		return nil, &FetchError{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{StatusCode: resp.StatusCode, Message: readErrorBody(resp)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Message: fmt.Sprintf("failed to read response: %v", err)}
	}

	// A non-array body is treated as an empty collection, not an error.
	// Some backends answer {"error": ...} with a 200; the table simply
	// renders empty in that case.
	if !looksLikeArray(body) {
		c.log.Debug("list response is not a collection, treating as empty")
		return []record.Record{}, nil
	}

	var records []record.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &FetchError{Message: fmt.Sprintf("failed to parse response: %v", err)}
	}
	return records, nil
}

// Create creates a new record.
func (c *httpClient) Create(ctx context.Context, fields record.Fields) (record.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.dataTimeout)
	defer cancel()

	body, err := json.Marshal(fields)
	if err != nil {
		return record.Record{}, &CreateError{Message: fmt.Sprintf("failed to encode fields: %v", err)}
	}

	resp, err := c.do(ctx, http.MethodPost, "/records", body)
	if err != nil {
		return record.Record{}, &CreateError{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return record.Record{}, &CreateError{StatusCode: resp.StatusCode, Message: readErrorBody(resp)}
	}

	var created record.Record
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return record.Record{}, &CreateError{Message: fmt.Sprintf("failed to parse response: %v", err)}
	}
	return created, nil
}

// Update replaces the fields of an existing record.
func (c *httpClient) Update(ctx context.Context, id string, fields record.Fields) (record.Record, error) {
	if id == "" {
		return record.Record{}, ErrNoID
	}

	ctx, cancel := context.WithTimeout(ctx, c.dataTimeout)
	defer cancel()

	body, err := json.Marshal(fields.WithoutReserved())
	if err != nil {
		return record.Record{}, &UpdateError{ID: id, Message: fmt.Sprintf("failed to encode fields: %v", err)}
	}

	resp, err := c.do(ctx, http.MethodPut, "/records/"+url.PathEscape(id), body)
	if err != nil {
		return record.Record{}, &UpdateError{ID: id, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return record.Record{}, &UpdateError{ID: id, StatusCode: resp.StatusCode, Message: readErrorBody(resp)}
	}

	var updated record.Record
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return record.Record{}, &UpdateError{ID: id, Message: fmt.Sprintf("failed to parse response: %v", err)}
	}
	return updated, nil
}

// Delete removes a record by id.
func (c *httpClient) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrNoID
	}

	ctx, cancel := context.WithTimeout(ctx, c.dataTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodDelete, "/records/"+url.PathEscape(id), nil)
	if err != nil {
		return &DeleteError{ID: id, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeleteError{ID: id, StatusCode: resp.StatusCode, Message: readErrorBody(resp)}
	}
	return nil
}

// do performs an HTTP request against the API.
func (c *httpClient) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	fullURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot reach records API at %s: %v", c.baseURL, err)
	}
	c.log.Debug("api call", "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}

// readErrorBody extracts a human-readable message from an error response.
// The API is a collaborator we do not own, so both {"error": ...} and
// {"message": ...} shapes are tolerated; anything else is reported raw.
func readErrorBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Message != "" {
			return errResp.Message
		}
		if errResp.Error != "" {
			return errResp.Error
		}
	}
	return fmt.Sprintf("server returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
}

// looksLikeArray reports whether a JSON body starts with '['.
func looksLikeArray(body []byte) bool {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
