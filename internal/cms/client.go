// Package cms is a read-only client for a microCMS-style content API.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"blogfront/internal/model"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const apiKeyHeader = "X-MICROCMS-API-KEY"

// Config holds CMS client configuration.
type Config struct {
	ServiceDomain string
	APIKey        string
	// BaseURL overrides https://{ServiceDomain}.microcms.io/api/v1.
	BaseURL   string
	Endpoint  string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
}

// StatusError is returned for any non-2xx response other than a 404 on Get.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cms: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	endpoint   string
	apiKey     string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// New creates a client. Service domain (or an explicit base URL) and API key
// are mandatory.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("cms: api key is required")
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		if cfg.ServiceDomain == "" {
			return nil, errors.New("cms: service domain is required")
		}
		base = fmt.Sprintf("https://%s.microcms.io/api/v1", cfg.ServiceDomain)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "blogs"
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    base,
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger.With(zap.String("component", "cms"), zap.String("endpoint", endpoint)),
	}, nil
}

// List fetches one page of the list endpoint.
func (c *Client) List(ctx context.Context, q model.ListQuery) (*model.ListResponse, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Orders != "" {
		params.Set("orders", q.Orders)
	}

	u := c.baseURL + "/" + c.endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var resp model.ListResponse
	if err := c.do(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("list %s offset %d: %w", c.endpoint, q.Offset, err)
	}

	c.logger.Debug("listed contents",
		zap.Int("offset", q.Offset),
		zap.Int("count", len(resp.Contents)),
		zap.Int("total", resp.TotalCount),
	)
	return &resp, nil
}

// Get fetches a single record by content id. A 404 maps to model.ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (*model.RawArticle, error) {
	if id == "" {
		return nil, model.ErrNotFound
	}

	u := c.baseURL + "/" + c.endpoint + "/" + url.PathEscape(id)

	var article model.RawArticle
	if err := c.do(ctx, u, &article); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("get %q: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("get %q: %w", id, err)
	}
	return &article, nil
}

func (c *Client) do(ctx context.Context, u string, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, URL: u, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
