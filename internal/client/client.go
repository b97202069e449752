package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"radiocalico/internal/api"
	"radiocalico/internal/config"
	"radiocalico/internal/store"
)

const defaultHTTPTimeout = 10 * time.Second

// ErrUnauthorized reports a rejected or missing admin token.
var ErrUnauthorized = errors.New("unauthorized")

// HTTPDoer describes the HTTP client used to reach the API.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match ErrUnauthorized for auth failures.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// Client talks to the rating API.
type Client struct {
	baseURL    string
	adminToken string
	http       HTTPDoer
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithAdminToken sets the bearer token sent to admin endpoints.
func WithAdminToken(token string) Option {
	return func(c *Client) {
		c.adminToken = strings.TrimSpace(token)
	}
}

// New constructs a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a client from the [client] section, using the
// configured request timeout and the server admin token.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	if cfg == nil {
		return New("", opts...)
	}
	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	base := []Option{
		WithHTTPClient(&http.Client{Timeout: timeout}),
		WithAdminToken(cfg.Server.AdminToken),
	}
	return New(cfg.Client.APIURL, append(base, opts...)...)
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health calls GET /api/health.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var resp api.HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/health", nil, false, &resp)
	return resp, err
}

// DatabaseInfo calls GET /api/test.
func (c *Client) DatabaseInfo(ctx context.Context) (api.DatabaseInfo, error) {
	var resp api.DatabaseInfo
	err := c.do(ctx, http.MethodGet, "/api/test", nil, false, &resp)
	return resp, err
}

// RegisterUser calls POST /api/users/register.
func (c *Client) RegisterUser(ctx context.Context, userID string) (store.User, error) {
	var resp api.RegisterUserResponse
	if err := c.do(ctx, http.MethodPost, "/api/users/register", api.RegisterUserRequest{UserID: userID}, false, &resp); err != nil {
		return store.User{}, err
	}
	return resp.User, nil
}

// SubmitRating calls POST /api/ratings and returns the song's new aggregate.
func (c *Client) SubmitRating(ctx context.Context, req api.SubmitRatingRequest) (store.Summary, error) {
	var resp api.DataResponse[store.Summary]
	if err := c.do(ctx, http.MethodPost, "/api/ratings", req, false, &resp); err != nil {
		return store.Summary{}, err
	}
	return resp.Data, nil
}

// SongRating calls GET /api/ratings/{artist}/{title}. An empty userID omits
// the listener's vote from the lookup.
func (c *Client) SongRating(ctx context.Context, artist, title, userID string) (api.SongRating, error) {
	path := "/api/ratings/" + url.PathEscape(artist) + "/" + url.PathEscape(title)
	if userID != "" {
		path += "?" + url.Values{"user_id": {userID}}.Encode()
	}
	var resp api.DataResponse[api.SongRating]
	if err := c.do(ctx, http.MethodGet, path, nil, false, &resp); err != nil {
		return api.SongRating{}, err
	}
	return resp.Data, nil
}

// TopRated calls GET /api/ratings/top. A non-positive limit uses the server default.
func (c *Client) TopRated(ctx context.Context, limit int) ([]store.RankedSong, error) {
	path := "/api/ratings/top"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp api.DataResponse[[]store.RankedSong]
	if err := c.do(ctx, http.MethodGet, path, nil, false, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// AdminData calls GET /api/admin/data with the admin token.
func (c *Client) AdminData(ctx context.Context) (api.AdminReport, error) {
	var resp api.DataResponse[api.AdminReport]
	if err := c.do(ctx, http.MethodGet, "/api/admin/data", nil, true, &resp); err != nil {
		return api.AdminReport{}, err
	}
	return resp.Data, nil
}

// InitDatabase calls POST /api/admin/init-db and returns the server message.
func (c *Client) InitDatabase(ctx context.Context) (string, error) {
	var resp api.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/api/admin/init-db", nil, true, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, admin bool, out any) error {
	if c == nil || c.http == nil {
		return errors.New("api client unavailable")
	}
	if c.baseURL == "" {
		return errors.New("api url not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin && c.adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.adminToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeAPIError reads {"error"} bodies, and {"message"} from failed health checks.
func decodeAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		apiErr.Message = payload.Error
		if apiErr.Message == "" {
			apiErr.Message = payload.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
