// Package apiclient is a client for the activities HTTP API: listing the catalog, signing up for
// an activity and unregistering from one.
//
// Example usage:
//
//	client, err := apiclient.New("http://localhost:8000")
//	if err != nil {
//	    return err
//	}
//	activities, err := client.ListActivities(ctx)
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/nomis52/signupboard/catalog"
	"github.com/nomis52/signupboard/logging"
)

var (
	// ErrTransport marks failures where the request never completed.
	ErrTransport = errors.New("transport failure")
	// ErrInvalidResponse marks responses whose body could not be parsed.
	ErrInvalidResponse = errors.New("invalid response")
)

// StatusError is returned when an endpoint that has no structured error payload answers with a
// non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// Client talks to the activities API.
// Use New() to create a client for a given base URL.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests. The default client has no timeout:
// requests are bounded only by the caller's context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the API at baseURL, which must include the scheme
// (e.g. "http://localhost:8000"). A path prefix on baseURL is kept.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListActivities fetches the full catalog in server order.
func (c *Client) ListActivities(ctx context.Context) (catalog.Catalog, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/activities")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	activities, err := catalog.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal response: %w", ErrInvalidResponse, err)
	}
	return activities, nil
}

// Signup asks the API to enroll email in activity.
// A non-2xx answer is not an error: the returned Reply carries the status and the server's detail.
// Errors are limited to ErrTransport and ErrInvalidResponse.
func (c *Client) Signup(ctx context.Context, activity, email string) (Reply, error) {
	return c.participantAction(ctx, activity, "signup", email)
}

// Unregister asks the API to remove email from activity. Errors follow Signup.
func (c *Client) Unregister(ctx context.Context, activity, email string) (Reply, error) {
	return c.participantAction(ctx, activity, "unregister", email)
}

func (c *Client) participantAction(ctx context.Context, activity, action, email string) (Reply, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, ParticipantPath(activity, action, email))
	if err != nil {
		return Reply{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}

	reply, err := decodeReply(resp.StatusCode, body)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: failed to unmarshal response: %w", ErrInvalidResponse, err)
	}
	return reply, nil
}

// ParticipantPath builds /activities/{activity}/{action}?email={email} with the activity
// percent-encoded as a path segment and the email as a query value.
func ParticipantPath(activity, action, email string) string {
	q := url.Values{}
	q.Set("email", email)
	return "/activities/" + url.PathEscape(activity) + "/" + action + "?" + q.Encode()
}

// doRequest sends a request to path, which is already escaped and may carry a query.
func (c *Client) doRequest(ctx context.Context, method, path string) (*http.Response, error) {
	target := strings.TrimSuffix(c.baseURL.String(), "/") + path

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("api request", "method", method, "url", target)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, target, err)
	}
	c.logger.Debug("api response", "method", method, "url", target, "status", resp.StatusCode)
	return resp, nil
}

// participantReply is the wire form of the signup and unregister responses.
type participantReply struct {
	Message json.RawMessage `json:"message"`
	Detail  json.RawMessage `json:"detail"`
}

// decodeReply reads a signup or unregister body. A null body is invalid. Any other JSON value
// that is not an object carries no message or detail.
func decodeReply(status int, body []byte) (Reply, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return Reply{}, errors.New("response body is not valid JSON")
	}
	reply := Reply{StatusCode: status}
	switch {
	case string(trimmed) == "null":
		return Reply{}, errors.New("response body is null")
	case trimmed[0] != '{':
		return reply, nil
	}
	var raw participantReply
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Reply{}, err
	}
	reply.Message = rawText(raw.Message)
	reply.Detail = rawText(raw.Detail)
	return reply, nil
}

// rawText renders a JSON value as display text: strings unquoted, null or absent as empty, and
// anything else as its JSON encoding.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
