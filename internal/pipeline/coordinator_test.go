package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghassane04/EcoLabel-MS/internal/model"
	"github.com/ghassane04/EcoLabel-MS/internal/service"
)

const productSheet = `FICHE PRODUIT - Sauce Tomate Bio Basilic
GTIN: 3760000000001

INGRÉDIENTS:
- Tomates bio (92%)
- Sucre (5%)

EMBALLAGE:
- Verre recyclable 720g

TRANSPORT:
- Camion - 250km
`

// fakeServices stands in for the four stage services
type fakeServices struct {
	mu       sync.Mutex
	requests map[string]map[string]any
	fail     map[string]int // path -> status to answer with
	bodies   map[string]string
	calls    map[string]int
}

func newFakeServices() *fakeServices {
	return &fakeServices{
		requests: make(map[string]map[string]any),
		fail:     make(map[string]int),
		calls:    make(map[string]int),
		bodies: map[string]string{
			service.ExtractionPath: `{"entities": [
				{"word": "Tomates bio", "entity_group": "MISC", "score": 0.93},
				{"word": "Sucre", "entity_group": "ORG", "score": 0.81}
			], "normalized_ingredients": ["tomates bio", "sucre"]}`,
			service.ImpactPath:  `{"product_name": "Sauce Tomate Bio Basilic", "total_co2_kg": 1.8, "total_water_l": 120, "total_energy_mj": 9.5}`,
			service.ScoringPath: `{"product_name": "Sauce Tomate Bio Basilic", "score_letter": "B", "score_numerical": 71, "confidence_level": 0.82, "explanation": "glass packaging"}`,
		},
	}
}

func (f *fakeServices) set(path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[path] = status
	if body != "" {
		f.bodies[path] = body
	}
}

func (f *fakeServices) request(path string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

func (f *fakeServices) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeServices) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.URL.Path]++
	status := f.fail[r.URL.Path]
	body := f.bodies[r.URL.Path]
	f.mu.Unlock()

	if status != 0 {
		http.Error(w, "unavailable", status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == service.IngestionPath {
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": 1, "gtin": r.FormValue("gtin"), "raw_text": productSheet, "source_type": "image"}})
		return
	}

	var req map[string]any
	data, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(data, &req)
	f.mu.Lock()
	f.requests[r.URL.Path] = req
	f.mu.Unlock()

	_, _ = io.WriteString(w, body)
}

func newTestCoordinator(t *testing.T, handler http.Handler) *Coordinator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := model.DefaultConfig()
	cfg.Services = model.ServicesConfig{Ingestion: srv.URL, Extraction: srv.URL, Impact: srv.URL, Scoring: srv.URL}
	cfg.HTTP.StageTimeout = 5 * time.Second
	return NewCoordinator(service.NewClient(cfg, nil), cfg, nil)
}

var sheetFile = []service.File{{Name: "sauce.png", Data: []byte("png")}}

func TestRunAllProductSheet(t *testing.T) {
	fake := newFakeServices()
	c := newTestCoordinator(t, fake)

	snap, err := c.RunAll(context.Background(), sheetFile, "3760000000001")
	require.NoError(t, err)

	assert.Equal(t, model.StageDone, snap.Stage)
	require.NotNil(t, snap.Document)
	assert.Equal(t, "1", snap.Document.ID)

	// Extraction runs over the ingredients section
	assert.Equal(t, "Tomates bio (92%), Sucre (5%)", fake.request(service.ExtractionPath)["text"])

	// Calculation uses the product title, the entity summary and the parsed sections
	impactReq := fake.request(service.ImpactPath)
	assert.Equal(t, "Sauce Tomate Bio Basilic", impactReq["product_name"])
	assert.Equal(t, []any{
		map[string]any{"name": "tomates_bio", "quantity_kg": 0.1},
		map[string]any{"name": "sucre", "quantity_kg": 0.1},
	}, impactReq["ingredients"])
	assert.Equal(t, map[string]any{"material": "glass", "weight_kg": 0.72}, impactReq["packaging"])
	assert.Equal(t, map[string]any{"distance_km": 250.0, "mode": "truck"}, impactReq["transport"])

	scoreReq := fake.request(service.ScoringPath)
	assert.Equal(t, 1.8, scoreReq["total_co2"])
	assert.Equal(t, 10.0, scoreReq["max_co2_ref"])
	assert.Equal(t, 1.0, scoreReq["has_bio_label"])
	assert.Equal(t, 1.0, scoreReq["has_recyclable"])

	require.NotNil(t, snap.Score)
	assert.Equal(t, model.ScoreB, snap.Score.Letter)
	assert.NotNil(t, snap.Extraction)
	assert.NotNil(t, snap.Impact)
}

func TestStageFailureKeepsEarlierResults(t *testing.T) {
	fake := newFakeServices()
	fake.set(service.ExtractionPath, http.StatusInternalServerError, "")
	c := newTestCoordinator(t, fake)

	snap, err := c.RunAll(context.Background(), sheetFile, "")

	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, model.StageExtracting, serviceErr.Stage)
	assert.True(t, errors.Is(err, service.ErrTransport))

	assert.Equal(t, model.StageIdle, snap.Stage)
	assert.NotNil(t, snap.Document)
	assert.Nil(t, snap.Extraction)

	// Retry only the failed stage
	fake.set(service.ExtractionPath, 0, "")
	res, err := c.Extract(context.Background(), ExtractionForm{Text: "Tomates bio (92%), Sucre (5%)"})
	require.NoError(t, err)
	assert.Len(t, res.Entities, 2)

	snap = c.State().Snapshot()
	assert.Equal(t, model.StageCalculating, snap.Stage)
	assert.NotNil(t, snap.Document)
}

func TestStageOutOfSequence(t *testing.T) {
	fake := newFakeServices()
	c := newTestCoordinator(t, fake)

	form := ImpactForm{ProductName: "Confiture", Ingredients: "Fraises (55%), Sucre", Packaging: "bocal 370 g", Transport: "bateau 1200 km"}
	_, err := c.Calculate(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, model.StageScoring, c.State().Snapshot().Stage)

	req := fake.request(service.ImpactPath)
	assert.Equal(t, map[string]any{"distance_km": 1200.0, "mode": "ship"}, req["transport"])
	assert.Equal(t, map[string]any{"material": "glass", "weight_kg": 0.37}, req["packaging"])
}

func TestStageFailureFromIdle(t *testing.T) {
	fake := newFakeServices()
	fake.set(service.ImpactPath, http.StatusBadGateway, "")
	c := newTestCoordinator(t, fake)

	_, err := c.Calculate(context.Background(), ImpactForm{ProductName: "x"})
	require.Error(t, err)

	snap := c.State().Snapshot()
	assert.Equal(t, model.StageIdle, snap.Stage)
	assert.Nil(t, snap.Impact)
}

func TestShapeErrorFailsStage(t *testing.T) {
	fake := newFakeServices()
	fake.set(service.ScoringPath, 0, `{"score_letter": "Z", "score_numerical": 50}`)
	c := newTestCoordinator(t, fake)

	_, err := c.Score(context.Background(), ScoringForm{ProductName: "x"})

	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, model.StageScoring, serviceErr.Stage)
	assert.True(t, errors.Is(err, service.ErrShape))
	assert.Equal(t, model.StageIdle, c.State().Snapshot().Stage)
}

func TestRerunOverwritesResult(t *testing.T) {
	fake := newFakeServices()
	c := newTestCoordinator(t, fake)

	_, err := c.Calculate(context.Background(), ImpactForm{ProductName: "a"})
	require.NoError(t, err)

	fake.set(service.ImpactPath, 0, `{"total_co2_kg": 3, "total_water_l": 1, "total_energy_mj": 1}`)
	_, err = c.Calculate(context.Background(), ImpactForm{ProductName: "b"})
	require.NoError(t, err)

	impact := c.State().Snapshot().Impact
	assert.Equal(t, 3.0, impact.CO2Kg)
	assert.Equal(t, "b", impact.ProductName)
}

// blockingImpact holds impact requests until release is closed
func blockingImpact(started chan<- struct{}, release <-chan struct{}) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		_, _ = io.WriteString(w, `{"total_co2_kg": 1, "total_water_l": 1, "total_energy_mj": 1}`)
	})
}

func TestConcurrentStageRejected(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	c := newTestCoordinator(t, blockingImpact(started, release))

	done := make(chan error, 1)
	go func() {
		_, err := c.Calculate(context.Background(), ImpactForm{ProductName: "first"})
		done <- err
	}()
	<-started

	_, err := c.Calculate(context.Background(), ImpactForm{ProductName: "second"})
	assert.ErrorIs(t, err, ErrStageInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, model.StageScoring, c.State().Snapshot().Stage)
}

func TestResetDiscardsInFlightResult(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	c := newTestCoordinator(t, blockingImpact(started, release))

	done := make(chan error, 1)
	go func() {
		_, err := c.Calculate(context.Background(), ImpactForm{ProductName: "orphan"})
		done <- err
	}()
	<-started

	c.Reset()
	close(release)
	require.NoError(t, <-done)

	snap := c.State().Snapshot()
	assert.Equal(t, model.StageIdle, snap.Stage)
	assert.Nil(t, snap.Impact)
}

func TestStageTimeout(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	defer close(release)

	srv := httptest.NewServer(blockingImpact(started, release))
	defer srv.Close()

	cfg := model.DefaultConfig()
	cfg.Services.Impact = srv.URL
	cfg.HTTP.StageTimeout = 50 * time.Millisecond
	c := NewCoordinator(service.NewClient(cfg, nil), cfg, nil)

	_, err := c.Calculate(context.Background(), ImpactForm{ProductName: "slow"})

	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, model.StageIdle, c.State().Snapshot().Stage)
}

func TestResetClearsEverything(t *testing.T) {
	c := newTestCoordinator(t, newFakeServices())
	_, err := c.RunAll(context.Background(), sheetFile, "")
	require.NoError(t, err)

	var notified []Snapshot
	c.State().Subscribe(func(s Snapshot) { notified = append(notified, s) })
	c.Reset()

	require.Len(t, notified, 1, "reset must publish a single snapshot")
	got := notified[0]
	assert.Equal(t, model.StageIdle, got.Stage)
	assert.Nil(t, got.Document)
	assert.Nil(t, got.Extraction)
	assert.Nil(t, got.Impact)
	assert.Nil(t, got.Score)
}

func TestResetPurgesResponseCache(t *testing.T) {
	fake := newFakeServices()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := model.DefaultConfig()
	cfg.Services = model.ServicesConfig{Ingestion: srv.URL, Extraction: srv.URL, Impact: srv.URL, Scoring: srv.URL}
	cfg.Cache.Enabled = true
	cfg.Cache.TTL = time.Minute
	c := NewCoordinator(service.NewClient(cfg, nil), cfg, nil)

	_, err := c.RunAll(context.Background(), sheetFile, "")
	require.NoError(t, err)
	_, err = c.RunAll(context.Background(), sheetFile, "")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.callCount(service.ImpactPath), "second run is served from the cache")

	c.Reset()
	_, err = c.RunAll(context.Background(), sheetFile, "")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.callCount(service.ImpactPath))
	assert.Equal(t, 3, fake.callCount(service.IngestionPath), "ingestion is never cached")
}

func TestSessionIDsAreUnique(t *testing.T) {
	cfg := model.DefaultConfig()
	a := NewCoordinator(nil, cfg, nil)
	b := NewCoordinator(nil, cfg, nil)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Len(t, a.ID(), 26)
}
