package chemprop

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/logkpredict/internal/config"
	"github.com/turtacn/logkpredict/internal/intelligence/logk"
	"github.com/turtacn/logkpredict/pkg/errors"
)

// stubEngine writes an executable shell script standing in for
// chemprop_predict and returns an engine that runs it.
func stubEngine(t *testing.T, body string, timeout time.Duration) (*SubprocessEngine, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a unix shell")
	}
	dir := t.TempDir()
	script := "#!/bin/sh\n" +
		"while [ $# -gt 0 ]; do\n" +
		"  case \"$1\" in\n" +
		"    --test_path) input=\"$2\"; shift ;;\n" +
		"    --features_path) feats=\"$2\"; shift ;;\n" +
		"    --checkpoint_path) ckpt=\"$2\"; shift ;;\n" +
		"    --preds_path) preds=\"$2\"; shift ;;\n" +
		"  esac\n" +
		"  shift\n" +
		"done\n" +
		body + "\n"
	exe := filepath.Join(dir, "chemprop_predict")
	require.NoError(t, os.WriteFile(exe, []byte(script), 0o755))

	work := t.TempDir()
	eng := NewSubprocessEngine(config.EngineConfig{
		Executable: exe,
		Timeout:    timeout,
		TempDir:    work,
	}, nil)
	return eng, work
}

func request() *logk.EngineRequest {
	return &logk.EngineRequest{
		Sequence:   "N->[Cu]<-N",
		Features:   logk.MaskedFeatureVector{1.5, 2.0, 0.25},
		Checkpoint: "/models/model.pt",
	}
}

func TestSubprocessEngine_Success(t *testing.T) {
	capture := t.TempDir()
	t.Setenv("STUB_CAPTURE", capture)
	eng, work := stubEngine(t, `cp "$input" "$STUB_CAPTURE/input.csv"
cp "$feats" "$STUB_CAPTURE/features.csv"
echo "$ckpt" > "$STUB_CAPTURE/checkpoint"
printf 'smiles,logK\nN->[Cu]<-N,7.42\n' > "$preds"`, time.Minute)

	v, err := eng.Predict(context.Background(), request())
	require.NoError(t, err)
	assert.InDelta(t, 7.42, v, 1e-12)

	input, err := os.ReadFile(filepath.Join(capture, "input.csv"))
	require.NoError(t, err)
	assert.Equal(t, "smiles\nN->[Cu]<-N\n", string(input))

	features, err := os.ReadFile(filepath.Join(capture, "features.csv"))
	require.NoError(t, err)
	assert.Equal(t, FeaturesHeader+"\n1.5, 2.0, 0.25\n", string(features))

	ckpt, err := os.ReadFile(filepath.Join(capture, "checkpoint"))
	require.NoError(t, err)
	assert.Equal(t, "/models/model.pt", strings.TrimSpace(string(ckpt)))

	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries, "working directory removed")
}

func TestSubprocessEngine_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		timeout time.Duration
		want    string
	}{
		{"non-zero exit", "echo 'checkpoint is corrupt' >&2\nexit 3", time.Minute, "checkpoint is corrupt"},
		{"no predictions file", "exit 0", time.Minute, "invalid prediction output format"},
		{"header only", `printf 'smiles,logK\n' > "$preds"`, time.Minute, "invalid prediction output format"},
		{"single column", `printf 'smiles\nCCO\n' > "$preds"`, time.Minute, "invalid prediction output format"},
		{"non-numeric", `printf 'smiles,logK\nCCO,abc\n' > "$preds"`, time.Minute, "failed to parse prediction output"},
		{"timeout", "exec sleep 5", 100 * time.Millisecond, "timed out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, work := stubEngine(t, tt.body, tt.timeout)
			_, err := eng.Predict(context.Background(), request())
			require.Error(t, err)
			assert.True(t, errors.IsPredictionEngine(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)

			entries, rerr := os.ReadDir(work)
			require.NoError(t, rerr)
			assert.Empty(t, entries)
		})
	}
}

func TestSubprocessEngine_MissingExecutable(t *testing.T) {
	eng := NewSubprocessEngine(config.EngineConfig{
		Executable: filepath.Join(t.TempDir(), "chemprop_predict"),
		Timeout:    time.Minute,
	}, nil)

	_, err := eng.Predict(context.Background(), request())
	require.Error(t, err)
	assert.True(t, errors.IsPredictionEngine(err))
	assert.Contains(t, err.Error(), "not found")
	assert.Error(t, eng.Available())
}

func TestSubprocessEngine_EmptyRequest(t *testing.T) {
	eng := NewSubprocessEngine(config.EngineConfig{}, nil)
	_, err := eng.Predict(context.Background(), &logk.EngineRequest{})
	assert.True(t, errors.IsPredictionEngine(err))
}

func TestSubprocessEngine_Args(t *testing.T) {
	eng := NewSubprocessEngine(config.EngineConfig{}, nil)
	assert.Equal(t, []string{
		"--num_workers", "0",
		"--test_path", "in.csv",
		"--features_path", "f.csv",
		"--checkpoint_path", "model.pt",
		"--preds_path", "p.csv",
	}, eng.Args("in.csv", "f.csv", "model.pt", "p.csv"))
}

func TestParsePrediction(t *testing.T) {
	v, err := ParsePrediction(strings.NewReader("smiles,logK\n\"N->[Cu]\",  -3.5\nCC,1\n"))
	require.NoError(t, err)
	assert.Equal(t, -3.5, v)

	_, err = ParsePrediction(strings.NewReader(""))
	assert.True(t, errors.IsPredictionEngine(err))
}

func TestNew(t *testing.T) {
	eng, err := New(config.EngineConfig{Kind: config.EngineStatic, StaticValue: 4.2}, nil)
	require.NoError(t, err)
	v, err := eng.Predict(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, 4.2, v)

	eng, err = New(config.EngineConfig{Kind: config.EngineSubprocess}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SubprocessEngine{}, eng)

	_, err = New(config.EngineConfig{Kind: "grpc"}, nil)
	assert.True(t, errors.IsConfiguration(err))
}

func TestStaticEngine(t *testing.T) {
	eng := NewStaticEngine(1.25)
	req := request()
	v, err := eng.Predict(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1.25, v)
	assert.Same(t, req, eng.LastRequest())
	assert.Equal(t, 1, eng.Calls())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.Predict(ctx, req)
	assert.True(t, errors.IsPredictionEngine(err))

	failing := NewFailingEngine(errors.New(errors.CodePredictionEngine, "down"))
	_, err = failing.Predict(context.Background(), req)
	assert.True(t, errors.IsPredictionEngine(err))
}
