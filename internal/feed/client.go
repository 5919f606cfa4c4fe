package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/ransomwatch/internal/model"
)

// Endpoint paths relative to the base URL.
const (
	EndpointRecentVictims  = "recentvictims"
	EndpointRecentAttacks  = "recentcyberattacks"
	endpointCountryVictims = "countryvictims/"
)

// Default client settings.
const (
	// DefaultBaseURL is the public ransomware.live v2 API.
	DefaultBaseURL = "https://api.ransomware.live/v2"

	// DefaultTimeout bounds a single request so a hung endpoint cannot
	// block a whole refresh cycle.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits how much of a response is read.
	DefaultMaxBodySize = 20 * 1024 * 1024 // 20MB

	// DefaultUserAgent identifies ransomwatch in requests.
	DefaultUserAgent = "ransomwatch/1.0 (+https://github.com/nao1215/ransomwatch)"
)

// CountryEndpoint returns the endpoint path for a country feed.
func CountryEndpoint(code string) string {
	return endpointCountryVictims + strings.ToUpper(code)
}

// Client fetches records from the feed API.
// A Client is safe for concurrent use.
type Client struct {
	// baseURL is the API root without a trailing slash.
	baseURL string

	// httpClient performs the requests. Its transport decides whether
	// traffic goes direct or through a proxy.
	httpClient *http.Client

	// timeout bounds each request.
	timeout time.Duration

	// maxBodySize limits how much of a response is read.
	maxBodySize int64

	// userAgent is sent with every request.
	userAgent string

	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		httpClient:  &http.Client{},
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		userAgent:   DefaultUserAgent,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RecentVictims fetches the aggregate recent victims feed.
func (c *Client) RecentVictims(ctx context.Context) ([]*model.Victim, error) {
	raw, err := c.fetchArray(ctx, EndpointRecentVictims)
	if err != nil {
		return nil, err
	}
	return Normalize[model.Victim](raw, c.logger), nil
}

// RecentAttacks fetches the aggregate recent attacks feed.
func (c *Client) RecentAttacks(ctx context.Context) ([]*model.Attack, error) {
	raw, err := c.fetchArray(ctx, EndpointRecentAttacks)
	if err != nil {
		return nil, err
	}
	return Normalize[model.Attack](raw, c.logger), nil
}

// CountryVictims fetches the victims feed of one alpha-2 country code.
func (c *Client) CountryVictims(ctx context.Context, code string) ([]*model.Victim, error) {
	raw, err := c.fetchArray(ctx, CountryEndpoint(code))
	if err != nil {
		return nil, err
	}
	return Normalize[model.Victim](raw, c.logger), nil
}

// fetchArray GETs an endpoint and decodes the body into array elements.
// All failures are returned as *FetchError.
func (c *Client) fetchArray(ctx context.Context, endpoint string) ([]json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096) //nolint:errcheck // best effort
		return nil, &FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, &FetchError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("response exceeds %d bytes", c.maxBodySize),
		}
	}

	raw, err := DecodeArray(body)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("feed fetched",
		"endpoint", endpoint,
		"entries", len(raw),
		"elapsed", time.Since(start),
	)

	return raw, nil
}

// IsFetchError reports whether err is a feed fetch failure.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
