package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ghassane04/EcoLabel-MS/internal/model"
)

// DefaultStageTimeout bounds a stage submission when none is configured
const DefaultStageTimeout = 60 * time.Second

// ServiceError reports a failed stage submission
type ServiceError struct {
	Stage model.Stage
	Cause error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

// runStage drives one stage: mark it active, submit with the stage timeout,
// then store the result and advance, or fall back to idle on failure.
func runStage[T any](ctx context.Context, c *Coordinator, stage model.Stage, submit func(context.Context) (T, error), store func(*Snapshot, T)) (T, error) {
	var zero T

	token, err := c.state.begin(stage)
	if err != nil {
		return zero, err
	}

	log := c.logger.With(zap.Stringer("stage", stage))
	log.Debug("pipeline.stage.start")
	start := time.Now()

	stageCtx, cancel := context.WithTimeout(ctx, c.stageTimeout)
	defer cancel()

	result, err := submit(stageCtx)
	if err != nil {
		c.state.fail(token)
		log.Warn("pipeline.stage.failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return zero, &ServiceError{Stage: stage, Cause: err}
	}

	if !c.state.succeed(token, stage, func(s *Snapshot) { store(s, result) }) {
		log.Info("pipeline.stage.discarded", zap.String("reason", "reset during run"))
		return result, nil
	}

	log.Info("pipeline.stage.ok", zap.Duration("elapsed", time.Since(start)))
	return result, nil
}
