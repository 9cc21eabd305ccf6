package logk

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/logkpredict/internal/config"
	"github.com/turtacn/logkpredict/pkg/errors"
)

type fakeEngine struct {
	value float64
	err   error

	mu  sync.Mutex
	req *EngineRequest
}

func (f *fakeEngine) Predict(_ context.Context, req *EngineRequest) (float64, error) {
	f.mu.Lock()
	f.req = req
	f.mu.Unlock()
	return f.value, f.err
}

func modelDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultModelFile), []byte("checkpoint"), 0o600))
	return dir
}

func newTestPredictor(t *testing.T, eng Engine, opts ...PredictorOption) *Predictor {
	t.Helper()
	p, err := NewPredictor(config.PredictorConfig{ModelDir: modelDir(t)}, eng, opts...)
	require.NoError(t, err)
	return p
}

func inputRecord(block string) string {
	return "logK input\ncomplex1 logK 0.1 2 3 4 5.55555 6 7 8 9 10\n" + block + "$$$$\n"
}

func TestNewPredictor_ModelResolution(t *testing.T) {
	t.Run("no directory", func(t *testing.T) {
		t.Setenv(config.LegacyModelDirEnv, "")
		_, err := NewPredictor(config.PredictorConfig{}, &fakeEngine{})
		require.Error(t, err)
		assert.True(t, errors.IsEnvironment(err))
		assert.Contains(t, err.Error(), config.LegacyModelDirEnv)
	})

	t.Run("environment fallback", func(t *testing.T) {
		dir := modelDir(t)
		t.Setenv(config.LegacyModelDirEnv, dir)
		p, err := NewPredictor(config.PredictorConfig{}, &fakeEngine{})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "model.pt"), p.Checkpoint())
	})

	t.Run("explicit directory wins", func(t *testing.T) {
		t.Setenv(config.LegacyModelDirEnv, t.TempDir())
		dir := modelDir(t)
		p, err := NewPredictor(config.PredictorConfig{ModelDir: dir}, &fakeEngine{})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "model.pt"), p.Checkpoint())
	})

	t.Run("missing checkpoint", func(t *testing.T) {
		dir := t.TempDir()
		_, err := NewPredictor(config.PredictorConfig{ModelDir: dir}, &fakeEngine{})
		require.Error(t, err)
		assert.True(t, errors.IsModelNotFound(err))
		assert.Contains(t, err.Error(), filepath.Join(dir, "model.pt"))
	})
}

func TestNewPredictor_ConfigurationErrors(t *testing.T) {
	dir := modelDir(t)
	tests := []struct {
		name string
		cfg  config.PredictorConfig
		eng  Engine
	}{
		{"nil engine", config.PredictorConfig{ModelDir: dir}, nil},
		{"bad donor", config.PredictorConfig{ModelDir: dir, DonorElements: []string{"Qq"}}, &fakeEngine{}},
		{"bad descriptor", config.PredictorConfig{ModelDir: dir, Descriptors: []string{"Nope"}}, &fakeEngine{}},
		{"bad mask", config.PredictorConfig{ModelDir: dir, FeatureMask: "True Perhaps"}, &fakeEngine{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPredictor(tt.cfg, tt.eng)
			assert.True(t, errors.IsConfiguration(err), "got %v", err)
		})
	}
}

func TestPredictor_Predict(t *testing.T) {
	eng := &fakeEngine{value: 8.31}
	p := newTestPredictor(t, eng)

	scalar := []float64{0.1, 2, 3, 4, 5.55555, 6, 7, 8, 9, 10}
	v, err := p.Predict(context.Background(), scalar, diammineCopper())
	require.NoError(t, err)
	assert.Equal(t, 8.31, v)

	require.NotNil(t, eng.req)
	assert.Equal(t, "N->[Cu]<-N", eng.req.Sequence)
	assert.Equal(t, p.Checkpoint(), eng.req.Checkpoint)
	require.Len(t, eng.req.Features, 21)
	assert.Equal(t, 2.0, eng.req.Features[0], "position 1 is the second scalar")
	assert.Equal(t, 5.5556, eng.req.Features[1], "scalars are rounded")
}

func TestPredictor_Trace(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	p := newTestPredictor(t, &fakeEngine{value: 3.5}, WithStageObserver(func(stage string, _ time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		assert.NoError(t, err)
		seen[stage]++
	}))

	rec, err := ParseInputRecord(inputRecord(copperEnAqua()))
	require.NoError(t, err)
	tr, err := p.Trace(context.Background(), rec.Scalar, rec.MolBlock)
	require.NoError(t, err)

	assert.Equal(t, 3.5, tr.LogK)
	assert.Equal(t, 3, tr.DativeBonds)
	assert.Empty(t, tr.Diagnostics)
	assert.Len(t, tr.Descriptors, 40)
	assert.Equal(t, 40, tr.DescriptorVector().Len())
	assert.Len(t, tr.Features, 21)
	assert.NotEmpty(t, tr.Sequence)
	for _, stage := range []string{StageParse, StageNormalize, StageSequence, StageDescriptors, StageFeatures, StageEngine} {
		assert.Equal(t, 1, seen[stage], stage)
		assert.Contains(t, tr.Durations, stage)
	}
}

func TestPredictor_StageErrors(t *testing.T) {
	scalar := make([]float64, 10)

	t.Run("unparseable structure", func(t *testing.T) {
		p := newTestPredictor(t, &fakeEngine{})
		_, err := p.Predict(context.Background(), scalar, "not a molfile")
		require.Error(t, err)
		assert.True(t, errors.IsMolecularProcessing(err))
		assert.Contains(t, err.Error(), "stage parse")
	})

	t.Run("structure without atoms", func(t *testing.T) {
		eng := &fakeEngine{}
		p := newTestPredictor(t, eng)
		_, err := p.Predict(context.Background(), scalar, v2000(nil, nil))
		require.Error(t, err)
		assert.True(t, errors.IsMolecularProcessing(err))
		assert.Contains(t, err.Error(), "stage sequence")
		assert.Nil(t, eng.req, "engine is never reached")
	})

	t.Run("scalar count mismatch", func(t *testing.T) {
		p := newTestPredictor(t, &fakeEngine{})
		_, err := p.Predict(context.Background(), scalar[:4], ethanol())
		assert.True(t, errors.IsConfiguration(err))
	})

	t.Run("engine failure keeps its code", func(t *testing.T) {
		p := newTestPredictor(t, &fakeEngine{err: errors.New(errors.CodePredictionEngine, "exit status 1")})
		_, err := p.Predict(context.Background(), scalar, ethanol())
		assert.True(t, errors.IsPredictionEngine(err))
		assert.Contains(t, err.Error(), "stage engine")
	})

	t.Run("uncoded engine failure", func(t *testing.T) {
		p := newTestPredictor(t, &fakeEngine{err: fmt.Errorf("pipe closed")})
		_, err := p.Predict(context.Background(), scalar, ethanol())
		assert.True(t, errors.IsPredictionEngine(err))
	})

	t.Run("non-finite prediction", func(t *testing.T) {
		p := newTestPredictor(t, &fakeEngine{value: math.NaN()})
		_, err := p.Predict(context.Background(), scalar, ethanol())
		assert.True(t, errors.IsPredictionEngine(err))
	})
}

func TestParseInputRecord(t *testing.T) {
	text := inputRecord(ethanol()) + "second record is ignored\n"
	rec, err := ParseInputRecord(text)
	require.NoError(t, err)
	assert.Equal(t, "logK input", rec.Header)
	assert.Equal(t, []float64{0.1, 2, 3, 4, 5.55555, 6, 7, 8, 9, 10}, rec.Scalar)
	assert.Equal(t, ethanol(), rec.MolBlock)

	crlf := strings.ReplaceAll(inputRecord(ethanol()), "\n", "\r\n")
	rec, err = ParseInputRecord(crlf)
	require.NoError(t, err)
	assert.Equal(t, ethanol(), rec.MolBlock)
}

func TestParseInputRecord_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"too short", "header\nid logK 1\n", "at least header"},
		{"labels only", "header\nid logK\n" + ethanol() + "$$$$\n", "failed to parse features"},
		{"bad number", "header\nid logK 1 x 3\n" + ethanol() + "$$$$\n", "failed to parse features"},
		{"no terminator", "header\nid logK 1 2\n" + ethanol(), "no MOL block"},
		{"empty block", "header\nid logK 1 2\n$$$$\n", "no MOL block"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInputRecord(tt.text)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidInput(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPredictor_PredictFromFile(t *testing.T) {
	p := newTestPredictor(t, &fakeEngine{value: 4.75})
	path := filepath.Join(t.TempDir(), "logk_input")
	require.NoError(t, os.WriteFile(path, []byte(inputRecord(diammineCopper())), 0o600))

	v, err := p.PredictFromFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 4.75, v)

	_, err = p.PredictFromFile(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.IsInvalidInput(err))

	_, err = p.PredictFromReader(context.Background(), strings.NewReader("header\n"))
	assert.True(t, errors.IsInvalidInput(err))
}

func TestPredictor_ConcurrentUse(t *testing.T) {
	p := newTestPredictor(t, &fakeEngine{value: 1})
	scalar := make([]float64, 10)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Predict(context.Background(), scalar, copperEnAqua())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
