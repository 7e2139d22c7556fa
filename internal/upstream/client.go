// Package upstream calls the external lookup APIs described in the schema
// document and extracts their result lists.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/precliniverse/wizard/internal/domain"
	"github.com/precliniverse/wizard/internal/metrics"
	"github.com/precliniverse/wizard/internal/schema"
)

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 32 << 20

// Client performs upstream lookups.
type Client struct {
	http      *http.Client
	userAgent string
	logger    *zap.Logger
}

// Config holds the upstream client settings.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	Logger    *zap.Logger
}

// NewClient creates a Client. Redirects are followed.
func NewClient(cfg *Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// Search queries the API registered as apiKey and returns at most def.Limit()
// hits found at def.ResultPath.
func (c *Client) Search(
	ctx context.Context, apiKey string, def schema.APIDefinition, q, species string,
) ([]any, error) {
	req, err := buildRequest(ctx, def, BuildParams(def, q, species))
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(apiKey, "build_request").Inc()
		return nil, err
	}
	for k, v := range def.Headers {
		req.Header.Set(k, v)
	}
	c.setUserAgent(req)

	start := time.Now()
	body, status, err := c.do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(apiKey).Observe(time.Since(start).Seconds())

	if err != nil {
		errType := "transport"
		if errors.Is(err, domain.ErrUpstreamTimeout) {
			errType = "timeout"
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(apiKey, "error").Inc()
		metrics.UpstreamErrorsTotal.WithLabelValues(apiKey, errType).Inc()
		return nil, err
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(apiKey, fmt.Sprint(status)).Inc()
	if status != http.StatusOK {
		metrics.UpstreamErrorsTotal.WithLabelValues(apiKey, "status").Inc()
		return nil, domain.NewUpstreamStatus(status)
	}

	data, err := decodeJSON(body)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(apiKey, "decode").Inc()
		return nil, err
	}

	hits := ExtractHits(data, def.ResultPath, def.Limit())
	c.logger.Debug("Upstream search done",
		zap.String("api", apiKey),
		zap.Int("hits", len(hits)),
		zap.Duration("latency", time.Since(start)),
	)
	return hits, nil
}

// Fetch GETs rawURL and returns the body of a 200 response.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setUserAgent(req)

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, domain.NewUpstreamStatus(status)
	}
	return body, nil
}

func (c *Client) setUserAgent(req *http.Request) {
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// do sends req and reads the whole body.
func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, classify(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, classify(err)
	}
	return body, resp.StatusCode, nil
}

// classify wraps timeouts with domain.ErrUpstreamTimeout.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("upstream request: %w", err)
}

// buildRequest sends params as a query string for GET and as a JSON body
// for any other method, which is always issued as POST.
func buildRequest(ctx context.Context, def schema.APIDefinition, params map[string]any) (*http.Request, error) {
	method := strings.ToUpper(def.Method)
	if method == "" {
		method = http.MethodGet
	}

	if method != http.MethodGet {
		body, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encode params: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, def.URL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	u, err := url.Parse(def.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", def.URL, err)
	}
	query := u.Query()
	for k, v := range params {
		query.Set(k, paramString(v))
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return req, nil
}

func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamDecode, err)
	}
	return v, nil
}
