package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ghassane04/EcoLabel-MS/internal/model"
	"github.com/ghassane04/EcoLabel-MS/internal/util"
)

// DefaultProbeTimeout bounds a single health probe
const DefaultProbeTimeout = 3 * time.Second

// Status is the outcome of a health probe
type Status string

const (
	Online  Status = "online"
	Offline Status = "offline"
)

// Service is a remote service to probe
type Service struct {
	ID   string
	Name string
	URL  string // Health endpoint
}

// ServicesFromConfig lists every configured service with its /health endpoint
func ServicesFromConfig(cfg model.ServicesConfig) []Service {
	all := []Service{
		{ID: "ingestion", Name: "Parser Produit", URL: cfg.Ingestion},
		{ID: "extraction", Name: "NLP Ingrédients", URL: cfg.Extraction},
		{ID: "impact", Name: "LCA Lite", URL: cfg.Impact},
		{ID: "scoring", Name: "Scoring", URL: cfg.Scoring},
		{ID: "widget", Name: "Widget API", URL: cfg.Widget},
		{ID: "provenance", Name: "Provenance", URL: cfg.Provenance},
	}

	services := make([]Service, 0, len(all))
	for _, s := range all {
		if s.URL == "" {
			continue
		}
		s.URL = strings.TrimRight(s.URL, "/") + "/health"
		services = append(services, s)
	}
	return services
}

// Prober checks a single health endpoint; a nil error means online.
// Implementations must return once ctx is done. The checker stops waiting at
// its deadline, but a probe that ignores ctx keeps its goroutine alive.
type Prober interface {
	Probe(ctx context.Context, url string) error
}

// HTTPProber probes with GET and treats any 2xx as healthy
type HTTPProber struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPProber creates a prober sharing the stage services' proxy settings
func NewHTTPProber(cfg model.HTTPConfig) *HTTPProber {
	return &HTTPProber{
		httpClient: util.NewHTTPClient(cfg),
		userAgent:  cfg.UserAgent,
	}
}

func (p *HTTPProber) Probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// Checker runs one round of probes
type Checker struct {
	prober  Prober
	timeout time.Duration
	logger  *zap.Logger
}

// NewChecker creates a checker. A non-positive timeout uses DefaultProbeTimeout.
func NewChecker(prober Prober, timeout time.Duration, logger *zap.Logger) *Checker {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{prober: prober, timeout: timeout, logger: logger}
}

// CheckAll probes every service concurrently under one shared deadline and
// returns once all probes have settled. A probe still pending at the deadline
// is reported offline.
func (c *Checker) CheckAll(ctx context.Context, services []Service) map[string]Status {
	cycleCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	statuses := make([]Status, len(services))
	g, gctx := errgroup.WithContext(cycleCtx)
	for i, svc := range services {
		i, svc := i, svc
		g.Go(func() error {
			statuses[i] = c.probe(gctx, svc)
			return nil
		})
	}
	_ = g.Wait()

	result := make(map[string]Status, len(services))
	for i, svc := range services {
		result[svc.ID] = statuses[i]
	}
	return result
}

// probe waits for the prober or the deadline, whichever comes first
func (c *Checker) probe(ctx context.Context, svc Service) Status {
	done := make(chan error, 1)
	go func() {
		done <- c.prober.Probe(ctx, svc.URL)
	}()

	select {
	case err := <-done:
		if err != nil {
			c.logger.Debug("health.probe.offline", zap.String("service", svc.ID), zap.Error(err))
			return Offline
		}
		return Online
	case <-ctx.Done():
		c.logger.Debug("health.probe.timeout", zap.String("service", svc.ID))
		return Offline
	}
}
