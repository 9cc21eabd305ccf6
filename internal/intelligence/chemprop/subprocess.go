package chemprop

import (
	"bytes"
	"context"
	"encoding/csv"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/logkpredict/internal/config"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/internal/intelligence/logk"
	"github.com/turtacn/logkpredict/pkg/errors"
)

// maxStderr bounds the stderr excerpt carried in errors.
const maxStderr = 4096

// SubprocessEngine runs chemprop_predict once per request in a private
// working directory.
type SubprocessEngine struct {
	executable string
	numWorkers int
	timeout    time.Duration
	tempDir    string
	logger     logging.Logger
}

// NewSubprocessEngine creates a SubprocessEngine from cfg.
func NewSubprocessEngine(cfg config.EngineConfig, logger logging.Logger) *SubprocessEngine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	exe := cfg.Executable
	if exe == "" {
		exe = config.DefaultEngineExec
	}
	return &SubprocessEngine{
		executable: exe,
		numWorkers: cfg.NumWorkers,
		timeout:    cfg.Timeout,
		tempDir:    cfg.TempDir,
		logger:     logger.Named("chemprop"),
	}
}

// Available reports whether the executable can be resolved.
func (e *SubprocessEngine) Available() error {
	if _, err := exec.LookPath(e.executable); err != nil {
		return errors.Wrap(err, errors.CodePredictionEngine,
			"chemprop_predict command not found; make sure chemprop is installed and on PATH")
	}
	return nil
}

// Args returns the command line for the given exchange files.
func (e *SubprocessEngine) Args(input, features, checkpoint, preds string) []string {
	return []string{
		"--num_workers", strconv.Itoa(e.numWorkers),
		"--test_path", input,
		"--features_path", features,
		"--checkpoint_path", checkpoint,
		"--preds_path", preds,
	}
}

// Predict implements logk.Engine.
func (e *SubprocessEngine) Predict(ctx context.Context, req *logk.EngineRequest) (float64, error) {
	if req == nil || req.Sequence == "" {
		return 0, errors.New(errors.CodePredictionEngine, "empty engine request")
	}

	dir, err := os.MkdirTemp(e.tempDir, "logk-")
	if err != nil {
		return 0, errors.Wrap(err, errors.CodePredictionEngine, "cannot create engine working directory")
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			e.logger.Warn("cannot remove engine working directory", logging.String("dir", dir), logging.Err(rmErr))
		}
	}()

	input := filepath.Join(dir, InputFile)
	features := filepath.Join(dir, FeaturesFile)
	preds := filepath.Join(dir, PredictionsFile)

	if err := WriteInputFile(input, req.Sequence); err != nil {
		return 0, err
	}
	if err := WriteFeaturesFile(features, req.Features); err != nil {
		return 0, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.executable, e.Args(input, features, req.Checkpoint, preds)...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	e.logger.Debug("chemprop_predict finished",
		logging.Duration("elapsed", time.Since(start)),
		logging.Bool("ok", runErr == nil))
	if runErr != nil {
		return 0, e.runError(ctx, runErr, stderr.String())
	}
	return ReadPrediction(preds)
}

func (e *SubprocessEngine) runError(ctx context.Context, err error, stderr string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrap(ctxErr, errors.CodePredictionEngine, "chemprop prediction cancelled or timed out")
	}
	if stderrors.Is(err, exec.ErrNotFound) || stderrors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, errors.CodePredictionEngine,
			"chemprop_predict command not found; make sure chemprop is installed and on PATH")
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		stderr = strings.TrimSpace(stderr)
		if len(stderr) > maxStderr {
			stderr = stderr[len(stderr)-maxStderr:]
		}
		return errors.Newf(errors.CodePredictionEngine, "chemprop prediction failed: exit status %d",
			exitErr.ExitCode()).WithDetail(stderr)
	}
	return errors.Wrap(err, errors.CodePredictionEngine, "chemprop prediction failed")
}

// WriteInputFile writes the single-row sequence file.
func WriteInputFile(path, sequence string) error {
	content := SequenceHeader + "\n" + sequence + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return errors.Wrap(err, errors.CodePredictionEngine, "cannot write "+InputFile)
	}
	return nil
}

// WriteFeaturesFile writes the header and the ", "-joined feature row.
func WriteFeaturesFile(path string, features logk.MaskedFeatureVector) error {
	content := FeaturesHeader + "\n" + features.String() + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return errors.Wrap(err, errors.CodePredictionEngine, "cannot write "+FeaturesFile)
	}
	return nil
}

// ReadPrediction returns the second column of the first data row.
func ReadPrediction(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodePredictionEngine, "invalid prediction output format: no predictions file")
	}
	defer f.Close()
	return ParsePrediction(f)
}

// ParsePrediction reads a predictions table from r.
func ParsePrediction(r io.Reader) (float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		return 0, errors.Wrap(err, errors.CodePredictionEngine, "invalid prediction output format: missing header")
	}
	row, err := cr.Read()
	if err != nil {
		return 0, errors.Wrap(err, errors.CodePredictionEngine, "invalid prediction output format: missing data row")
	}
	if len(row) < 2 {
		return 0, errors.Newf(errors.CodePredictionEngine,
			"invalid prediction output format: expected at least 2 columns, got %d", len(row))
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodePredictionEngine, "failed to parse prediction output")
	}
	return v, nil
}
