package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/ghassane04/EcoLabel-MS/internal/cache"
	"github.com/ghassane04/EcoLabel-MS/internal/model"
	"github.com/ghassane04/EcoLabel-MS/internal/util"
)

// Stage endpoints, relative to each service's base URL
const (
	IngestionPath  = "/product/parse"
	ExtractionPath = "/nlp/extract"
	ImpactPath     = "/lca/calc"
	ScoringPath    = "/score/compute"
)

// Client talks to the four stage services
type Client struct {
	httpClient *http.Client
	urls       model.ServicesConfig
	userAgent  string
	maxBytes   int64
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewClient creates a stage client from configuration. A nil logger discards logs.
func NewClient(cfg *model.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		httpClient: util.NewHTTPClient(cfg.HTTP),
		urls:       cfg.Services,
		userAgent:  cfg.HTTP.UserAgent,
		maxBytes:   cfg.HTTP.MaxBodyBytes,
		logger:     logger,
	}
	if c.maxBytes <= 0 {
		c.maxBytes = model.DefaultConfig().HTTP.MaxBodyBytes
	}
	if cfg.Cache.Enabled {
		c.cache = cache.NewMemoryCache(cfg.Cache.TTL, 2*cfg.Cache.TTL)
		c.cacheTTL = cfg.Cache.TTL
	}
	return c
}

// SetCache replaces the response cache; nil disables caching
func (c *Client) SetCache(rc cache.Cache, ttl time.Duration) {
	c.cache = rc
	c.cacheTTL = ttl
}

// PurgeCache drops every cached response. It is a no-op without a cache.
func (c *Client) PurgeCache() error {
	if c.cache == nil {
		return nil
	}
	if err := c.cache.Clear(); err != nil {
		return fmt.Errorf("purge response cache: %w", err)
	}
	c.logger.Debug("service.cache.purged")
	return nil
}

func endpoint(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}

// postJSON submits payload to url, checks the response against schema and decodes it into out.
// Responses of idempotent stages are served from the cache when one is configured.
func (c *Client) postJSON(ctx context.Context, url string, schema *jsonschema.Schema, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var key string
	if c.cache != nil {
		key = cache.ResponseKey(url, body)
		if cached, ok := c.cache.Get(key); ok {
			c.logger.Debug("service.cache.hit", zap.String("endpoint", url))
			if err := json.Unmarshal(cached, out); err == nil {
				return nil
			}
			_ = c.cache.Delete(key)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.send(req)
	if err != nil {
		return err
	}

	if err := c.decode(url, schema, respBody, out); err != nil {
		return err
	}

	if c.cache != nil {
		if err := c.cache.Set(key, respBody, c.cacheTTL); err != nil {
			c.logger.Warn("service.cache.store_failed", zap.String("endpoint", url), zap.Error(err))
		}
	}
	return nil
}

// send executes req and returns the body of a 2xx response
func (c *Client) send(req *http.Request) ([]byte, error) {
	url := req.URL.String()
	requestID := uuid.NewString()

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("service.request.failed",
			zap.String("endpoint", url),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, &TransportError{Endpoint: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, &TransportError{Endpoint: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug("service.request.done",
		zap.String("endpoint", url),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			Endpoint:   url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s: %s", resp.Status, snippet(body)),
		}
	}
	return body, nil
}

func (c *Client) decode(url string, schema *jsonschema.Schema, body []byte, out any) error {
	if err := conform(schema, body); err != nil {
		return &ShapeError{Endpoint: url, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ShapeError{Endpoint: url, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
