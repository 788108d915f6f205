package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ghassane04/EcoLabel-MS/internal/model"
	"github.com/ghassane04/EcoLabel-MS/internal/pipeline"
	"github.com/ghassane04/EcoLabel-MS/internal/service"
)

// SessionResult is the outcome of one file's pipeline session
type SessionResult struct {
	Index     int // Position in the input list
	Path      string
	SessionID string
	Snapshot  pipeline.Snapshot
	Err       error
}

// BatchProcessor runs one independent pipeline session per product file
type BatchProcessor struct {
	backend     pipeline.Backend
	cfg         *model.Config
	concurrency int
	logger      *zap.Logger
}

// NewBatchProcessor creates a processor running up to cfg.Workers sessions at once
func NewBatchProcessor(backend pipeline.Backend, cfg *model.Config, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		backend:     backend,
		cfg:         cfg,
		concurrency: cfg.Workers,
		logger:      logger,
	}
}

// ProcessFiles runs the full pipeline for each path and returns results in input order
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string, gtin string) []*SessionResult {
	if len(paths) == 0 {
		return []*SessionResult{}
	}

	pool := NewPool[*SessionResult](ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()

	go func() {
		for i, path := range paths {
			if !pool.Submit(b.sessionJob(i, path, gtin)) {
				break
			}
		}
		pool.Close()
	}()

	results := make([]*SessionResult, 0, len(paths))
	for r := range pool.Results() {
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}

func (b *BatchProcessor) sessionJob(index int, path, gtin string) Job[*SessionResult] {
	return func(ctx context.Context) *SessionResult {
		coord := pipeline.NewCoordinator(b.backend, b.cfg, b.logger.With(zap.String("file", path)))
		result := &SessionResult{Index: index, Path: path, SessionID: coord.ID()}

		data, err := os.ReadFile(path)
		if err != nil {
			result.Err = fmt.Errorf("read %s: %w", path, err)
			result.Snapshot = coord.State().Snapshot()
			return result
		}

		files := []service.File{{Name: filepath.Base(path), Data: data}}
		result.Snapshot, result.Err = coord.RunAll(ctx, files, gtin)
		return result
	}
}

// ReadPathsFromFile reads product file paths, one per line. Blank lines and
// #-comments are skipped, duplicates dropped, and relative paths resolved
// against the list file's directory.
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	dir := filepath.Dir(listPath)
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(dir, line)
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return paths, nil
}
