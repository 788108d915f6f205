package pipeline

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/ghassane04/EcoLabel-MS/internal/autofill"
	"github.com/ghassane04/EcoLabel-MS/internal/model"
	"github.com/ghassane04/EcoLabel-MS/internal/service"
)

// Backend submits stage payloads to the remote services
type Backend interface {
	Ingest(ctx context.Context, files []service.File, gtin string) ([]model.IngestedDocument, error)
	ExtractEntities(ctx context.Context, req service.ExtractionRequest) (*model.ExtractionResult, error)
	CalculateImpact(ctx context.Context, req service.ImpactRequest) (*model.ImpactResult, error)
	ComputeScore(ctx context.Context, req service.ScoringRequest) (*model.ScoreResult, error)
}

// cachePurger is implemented by backends that keep a response cache;
// a reset starts the session over against fresh responses
type cachePurger interface {
	PurgeCache() error
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newSessionID returns a sortable session id; the monotonic reader is not goroutine-safe
func newSessionID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// Coordinator runs the four stages of one pipeline session against a Backend
type Coordinator struct {
	id           string
	backend      Backend
	state        *State
	resolver     *autofill.Resolver
	refs         model.ScoringConfig
	stageTimeout time.Duration
	logger       *zap.Logger
}

// NewCoordinator creates a session with its own idle State. A nil logger discards logs.
func NewCoordinator(backend Backend, cfg *model.Config, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}

	id := newSessionID()
	timeout := cfg.HTTP.StageTimeout
	if timeout <= 0 {
		timeout = DefaultStageTimeout
	}

	return &Coordinator{
		id:           id,
		backend:      backend,
		state:        NewState(),
		resolver:     autofill.NewResolver(),
		refs:         cfg.Scoring,
		stageTimeout: timeout,
		logger:       logger.With(zap.String("session", id)),
	}
}

// ID returns the session id
func (c *Coordinator) ID() string { return c.id }

// State returns the session state for observation
func (c *Coordinator) State() *State { return c.state }

// Ingest uploads files and keeps the first returned document
func (c *Coordinator) Ingest(ctx context.Context, files []service.File, gtin string) (*model.IngestedDocument, error) {
	return runStage(ctx, c, model.StageIngesting,
		func(ctx context.Context) (*model.IngestedDocument, error) {
			docs, err := c.backend.Ingest(ctx, files, gtin)
			if err != nil {
				return nil, err
			}
			if len(docs) == 0 {
				return nil, fmt.Errorf("ingest: %w", service.ErrShape)
			}
			doc := docs[0]
			return &doc, nil
		},
		func(s *Snapshot, doc *model.IngestedDocument) { s.Document = doc })
}

// Extract runs entity extraction over the edited text
func (c *Coordinator) Extract(ctx context.Context, form ExtractionForm) (*model.ExtractionResult, error) {
	return runStage(ctx, c, model.StageExtracting,
		func(ctx context.Context) (*model.ExtractionResult, error) {
			return c.backend.ExtractEntities(ctx, service.ExtractionRequest{Text: form.Text})
		},
		func(s *Snapshot, res *model.ExtractionResult) { s.Extraction = res })
}

// Calculate parses the edited summaries and computes the life-cycle impact
func (c *Coordinator) Calculate(ctx context.Context, form ImpactForm) (*model.ImpactResult, error) {
	return runStage(ctx, c, model.StageCalculating,
		func(ctx context.Context) (*model.ImpactResult, error) {
			return c.backend.CalculateImpact(ctx, buildImpactRequest(form))
		},
		func(s *Snapshot, res *model.ImpactResult) { s.Impact = res })
}

// Score grades the product from the edited impact totals
func (c *Coordinator) Score(ctx context.Context, form ScoringForm) (*model.ScoreResult, error) {
	return runStage(ctx, c, model.StageScoring,
		func(ctx context.Context) (*model.ScoreResult, error) {
			return c.backend.ComputeScore(ctx, buildScoringRequest(form, c.refs))
		},
		func(s *Snapshot, res *model.ScoreResult) { s.Score = res })
}

// AutoFill applies the latest document and extraction result to form.
// It reports whether the upstream source changed since the previous call.
func (c *Coordinator) AutoFill(form *autofill.Form) bool {
	snap := c.state.Snapshot()
	return c.resolver.Apply(form, snap.Document, snap.Extraction)
}

// RunAll chains the four stages, auto-filling each input from the previous output.
// On failure the results of completed stages remain in the State.
func (c *Coordinator) RunAll(ctx context.Context, files []service.File, gtin string) (Snapshot, error) {
	form := autofill.DefaultForm()

	if _, err := c.Ingest(ctx, files, gtin); err != nil {
		return c.state.Snapshot(), err
	}
	c.AutoFill(&form)

	if _, err := c.Extract(ctx, ExtractionFormFrom(form)); err != nil {
		return c.state.Snapshot(), err
	}
	c.AutoFill(&form)

	impact, err := c.Calculate(ctx, ImpactFormFrom(form))
	if err != nil {
		return c.state.Snapshot(), err
	}

	if _, err := c.Score(ctx, ScoringFormFrom(impact, form)); err != nil {
		return c.state.Snapshot(), err
	}

	snap := c.state.Snapshot()
	if snap.Score != nil {
		c.logger.Info("pipeline.run.done",
			zap.String("product", snap.Score.ProductName),
			zap.String("letter", string(snap.Score.Letter)))
	}
	return snap, nil
}

// Reset clears every result and forgets the auto-fill source
func (c *Coordinator) Reset() {
	c.state.Reset()
	c.resolver.Forget()
	if p, ok := c.backend.(cachePurger); ok {
		if err := p.PurgeCache(); err != nil {
			c.logger.Warn("pipeline.reset.cache", zap.String("session", c.id), zap.Error(err))
		}
	}
	c.logger.Debug("pipeline.reset")
}
