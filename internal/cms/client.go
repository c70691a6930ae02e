// Package cms reads the product catalog from the Sanity content lake over
// its HTTP query API.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/SashaVektor/apple-store-clone/pkg/errors"
	"github.com/SashaVektor/apple-store-clone/pkg/httpclient"
)

// Config locates a Sanity dataset.
type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
	// BaseURL replaces https://<project>.api[cdn].sanity.io when set.
	BaseURL string
}

func (c Config) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	host := "api.sanity.io"
	if c.UseCDN {
		host = "apicdn.sanity.io"
	}
	return fmt.Sprintf("https://%s.%s", c.ProjectID, host)
}

// Client runs GROQ queries through a retrying, circuit-broken HTTP client.
type Client struct {
	cfg      Config
	endpoint string
	http     *httpclient.CircuitBreakerClient
	logger   *slog.Logger
}

// NewClient builds a client with the shared outbound HTTP defaults.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	hc := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(hc, httpclient.DefaultCircuitBreakerConfig("sanity"), logger)
	return NewClientWithHTTP(cfg, cb, logger)
}

// NewClientWithHTTP is NewClient with a caller-supplied transport.
func NewClientWithHTTP(cfg Config, hc *httpclient.CircuitBreakerClient, logger *slog.Logger) *Client {
	apiVersion := strings.TrimPrefix(cfg.APIVersion, "v")
	return &Client{
		cfg:      cfg,
		endpoint: fmt.Sprintf("%s/v%s/data/query/%s", cfg.baseURL(), apiVersion, url.PathEscape(cfg.Dataset)),
		http:     hc,
		logger:   logger,
	}
}

// ProjectID and Dataset are needed to build image URLs.
func (c *Client) ProjectID() string { return c.cfg.ProjectID }
func (c *Client) Dataset() string   { return c.cfg.Dataset }

type queryResponse struct {
	Result json.RawMessage `json:"result"`
	Ms     int             `json:"ms"`
}

// Query runs groq with params and decodes the response's result into dst.
// Each param is sent as "$name" with a JSON-encoded value.
func (c *Client) Query(ctx context.Context, groq string, params map[string]any, dst any) error {
	q := url.Values{}
	q.Set("query", groq)
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode query param %s: %w", name, err)
		}
		q.Set("$"+name, string(encoded))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("build sanity request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		if errors.Is(err, httpclient.ErrCircuitOpen) {
			return apperrors.ServiceUnavailable("catalog is temporarily unavailable")
		}
		return fmt.Errorf("sanity query: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp, "sanity")
	}
	defer func() { _ = resp.Body.Close() }()

	var envelope queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode sanity response: %w", err)
	}
	c.logger.DebugContext(ctx, "sanity query", slog.Int("server_ms", envelope.Ms))

	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return errNoResult
	}
	if err := json.Unmarshal(envelope.Result, dst); err != nil {
		return fmt.Errorf("decode sanity result: %w", err)
	}
	return nil
}

// errNoResult is returned by Query when the document set is empty, e.g.
// a [0] lookup that matched nothing.
var errNoResult = errors.New("sanity: empty result")
