// Package chemprop runs the trained message-passing model behind the
// logk.Engine interface.
package chemprop

import (
	"context"
	"sync"

	"github.com/turtacn/logkpredict/internal/config"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/internal/intelligence/logk"
	"github.com/turtacn/logkpredict/pkg/errors"
)

// Exchange file names inside the per-call working directory.
const (
	InputFile       = "input.csv"
	FeaturesFile    = "features.csv"
	PredictionsFile = "predictions.csv"
)

// Exchange file headers.
const (
	SequenceHeader = "smiles"
	FeaturesHeader = "I_in, Z_lig, Z_met, nrot, met_r, met_CN, E_strain, G_solv, rdhE, rdhC"
)

var (
	_ logk.Engine = (*SubprocessEngine)(nil)
	_ logk.Engine = (*StaticEngine)(nil)
)

// New builds the engine selected by cfg.Kind.
func New(cfg config.EngineConfig, logger logging.Logger) (logk.Engine, error) {
	switch cfg.Kind {
	case config.EngineSubprocess, "":
		return NewSubprocessEngine(cfg, logger), nil
	case config.EngineStatic:
		return NewStaticEngine(cfg.StaticValue), nil
	default:
		return nil, errors.Newf(errors.CodeConfiguration, "unknown engine kind %q", cfg.Kind)
	}
}

// StaticEngine returns a fixed value and remembers the last request.  It is
// used for dry runs and tests.
type StaticEngine struct {
	value float64
	err   error

	mu    sync.Mutex
	last  *logk.EngineRequest
	calls int
}

// NewStaticEngine creates an engine that always predicts value.
func NewStaticEngine(value float64) *StaticEngine {
	return &StaticEngine{value: value}
}

// NewFailingEngine creates an engine that always returns err.
func NewFailingEngine(err error) *StaticEngine {
	return &StaticEngine{err: err}
}

// Predict implements logk.Engine.
func (e *StaticEngine) Predict(ctx context.Context, req *logk.EngineRequest) (float64, error) {
	e.mu.Lock()
	e.last = req
	e.calls++
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, errors.Wrap(err, errors.CodePredictionEngine, "chemprop prediction cancelled")
	}
	if e.err != nil {
		return 0, e.err
	}
	return e.value, nil
}

// LastRequest returns the most recent request, or nil.
func (e *StaticEngine) LastRequest() *logk.EngineRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Calls returns the number of Predict calls.
func (e *StaticEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
