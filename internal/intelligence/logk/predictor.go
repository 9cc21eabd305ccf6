package logk

import (
	"bufio"
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/logkpredict/internal/config"
	"github.com/turtacn/logkpredict/internal/domain/molecule"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/pkg/errors"
)

// Pipeline stage names, used in error messages, logs and metrics labels.
const (
	StageParse       = "parse"
	StageNormalize   = "normalize"
	StageSequence    = "sequence"
	StageDescriptors = "descriptors"
	StageFeatures    = "features"
	StageEngine      = "engine"
)

// RecordTerminator ends the structural block of an input record.
const RecordTerminator = "$$$$"

// EngineRequest is one invocation of the external model.
type EngineRequest struct {
	Sequence   string
	Features   MaskedFeatureVector
	Checkpoint string
}

// Engine produces a stability constant from a sequence and feature vector.
type Engine interface {
	Predict(ctx context.Context, req *EngineRequest) (float64, error)
}

// StageObserver is notified after each pipeline stage.  err is nil on
// success.
type StageObserver func(stage string, elapsed time.Duration, err error)

// PipelineTrace carries the intermediate outputs of a single prediction.
type PipelineTrace struct {
	Sequence    string              `json:"sequence"`
	DativeBonds int                 `json:"dative_bonds"`
	Diagnostics []string            `json:"diagnostics,omitempty"`
	Descriptors map[string]float64  `json:"descriptors"`
	Features    MaskedFeatureVector `json:"features"`
	LogK        float64             `json:"log_k"`
	Durations   map[string]float64  `json:"stage_ms,omitempty"`

	descriptors DescriptorVector
}

// DescriptorVector returns the ordered descriptor values.
func (t *PipelineTrace) DescriptorVector() DescriptorVector { return t.descriptors }

// InputRecord is the parsed logk_input file.
type InputRecord struct {
	Header   string
	Scalar   []float64
	MolBlock string
}

// PredictorOption configures a Predictor.
type PredictorOption func(*Predictor)

// WithLogger sets the predictor logger.
func WithLogger(l logging.Logger) PredictorOption {
	return func(p *Predictor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithStageObserver registers fn for stage timings.
func WithStageObserver(fn StageObserver) PredictorOption {
	return func(p *Predictor) { p.observer = fn }
}

// Predictor runs the full pipeline: parse, normalize, sequence, descriptors,
// feature assembly and the engine call.  It holds no per-call state and is
// safe for concurrent use.
type Predictor struct {
	checkpoint  string
	normalizer  *Normalizer
	descriptors *DescriptorCalculator
	assembler   *Assembler
	engine      Engine
	logger      logging.Logger
	observer    StageObserver
}

// ResolveModelDir returns dir, or LOGKPREDICT_DIR when dir is empty.
func ResolveModelDir(dir string) (string, error) {
	if strings.TrimSpace(dir) != "" {
		return dir, nil
	}
	if env := strings.TrimSpace(os.Getenv(config.LegacyModelDirEnv)); env != "" {
		return env, nil
	}
	return "", errors.New(errors.CodeEnvironment,
		"model directory not provided and "+config.LegacyModelDirEnv+" environment variable not set")
}

// CheckpointPath resolves the model directory and verifies the checkpoint
// file exists.
func CheckpointPath(cfg config.PredictorConfig) (string, error) {
	dir, err := ResolveModelDir(cfg.ModelDir)
	if err != nil {
		return "", err
	}
	file := cfg.ModelFile
	if file == "" {
		file = config.DefaultModelFile
	}
	path := filepath.Join(dir, file)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", errors.Newf(errors.CodeModelNotFound, "model file not found at %s", path)
	}
	return path, nil
}

// NewPredictor validates the model location and builds the pipeline.
func NewPredictor(cfg config.PredictorConfig, engine Engine, opts ...PredictorOption) (*Predictor, error) {
	if engine == nil {
		return nil, errors.New(errors.CodeConfiguration, "prediction engine is required")
	}
	checkpoint, err := CheckpointPath(cfg)
	if err != nil {
		return nil, err
	}

	donors := DefaultDonors
	if len(cfg.DonorElements) > 0 {
		if donors, err = DonorNumbers(cfg.DonorElements); err != nil {
			return nil, err
		}
	}
	calc, err := NewDescriptorCalculator(cfg.Descriptors)
	if err != nil {
		return nil, err
	}
	mask := DefaultFeatureMask
	if strings.TrimSpace(cfg.FeatureMask) != "" {
		if mask, err = ParseFeatureMask("custom", cfg.FeatureMask); err != nil {
			return nil, err
		}
	}

	p := &Predictor{
		checkpoint:  checkpoint,
		descriptors: calc,
		assembler:   NewAssembler(mask),
		engine:      engine,
		logger:      logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(p)
	}
	p.normalizer = NewNormalizer(donors, p.logger)
	return p, nil
}

// Checkpoint returns the validated model file path.
func (p *Predictor) Checkpoint() string { return p.checkpoint }

// Predict returns the predicted log K for the scalar features and molfile.
func (p *Predictor) Predict(ctx context.Context, scalar []float64, molBlock string) (float64, error) {
	tr, err := p.Trace(ctx, scalar, molBlock)
	if err != nil {
		return 0, err
	}
	return tr.LogK, nil
}

// Trace is Predict that also returns every intermediate output.
func (p *Predictor) Trace(ctx context.Context, scalar []float64, molBlock string) (*PipelineTrace, error) {
	tr := &PipelineTrace{Durations: make(map[string]float64)}
	started := time.Now()

	var g *molecule.Graph
	err := p.stage(tr, StageParse, func() error {
		parsed, err := molecule.ParseMolBlock(molBlock)
		if err != nil {
			return errors.Wrap(err, errors.CodeMolecularProcessing, "failed to process MOL block")
		}
		g = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}

	var norm *NormalizedGraph
	if err = p.stage(tr, StageNormalize, func() error {
		norm, err = p.normalizer.Normalize(g)
		return err
	}); err != nil {
		return nil, err
	}
	tr.DativeBonds = norm.DativeBonds
	for _, d := range norm.Diagnostics {
		tr.Diagnostics = append(tr.Diagnostics, d.String())
	}

	if err = p.stage(tr, StageSequence, func() error {
		tr.Sequence = CanonicalSequence(norm.Graph)
		if tr.Sequence == "" {
			return errors.New(errors.CodeMolecularProcessing, "failed to write canonical sequence: empty graph")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err = p.stage(tr, StageDescriptors, func() error {
		tr.descriptors, err = p.descriptors.Calculate(norm.Graph)
		return err
	}); err != nil {
		return nil, err
	}
	tr.Descriptors = make(map[string]float64, tr.descriptors.Len())
	for i, name := range tr.descriptors.Names {
		tr.Descriptors[name] = tr.descriptors.Values[i]
	}

	if err = p.stage(tr, StageFeatures, func() error {
		tr.Features, err = p.assembler.Assemble(scalar, tr.descriptors)
		return err
	}); err != nil {
		return nil, err
	}

	if err = p.stage(tr, StageEngine, func() error {
		v, err := p.engine.Predict(ctx, &EngineRequest{
			Sequence:   tr.Sequence,
			Features:   tr.Features,
			Checkpoint: p.checkpoint,
		})
		if err != nil {
			if errors.GetCode(err) == errors.CodeUnknown {
				return errors.Wrap(err, errors.CodePredictionEngine, "prediction engine failed")
			}
			return err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Newf(errors.CodePredictionEngine, "prediction engine returned non-finite value %v", v)
		}
		tr.LogK = v
		return nil
	}); err != nil {
		return nil, err
	}

	p.logger.Info("prediction completed",
		logging.String("sequence", tr.Sequence),
		logging.Float64("log_k", tr.LogK),
		logging.Duration("elapsed", time.Since(started)))
	return tr, nil
}

// stage times fn, reports it, and tags failures with the stage name while
// keeping their code.
func (p *Predictor) stage(tr *PipelineTrace, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	tr.Durations[name] = float64(elapsed.Microseconds()) / 1000
	if p.observer != nil {
		p.observer(name, elapsed, err)
	}
	if err != nil {
		p.logger.Error("prediction stage failed", logging.Stage(name), logging.Code(err), logging.Err(err))
		if ae, ok := err.(*errors.AppError); ok && ae.Detail == "" {
			return ae.WithDetail("stage " + name)
		}
		return errors.Wrap(err, errors.CodeUnknown, "stage "+name)
	}
	p.logger.Debug("stage finished", logging.Stage(name), logging.Duration("elapsed", elapsed))
	return nil
}

// PredictRecord runs the pipeline on a parsed input record.
func (p *Predictor) PredictRecord(ctx context.Context, rec *InputRecord) (float64, error) {
	return p.Predict(ctx, rec.Scalar, rec.MolBlock)
}

// PredictFromReader parses an input record from r and predicts it.
func (p *Predictor) PredictFromReader(ctx context.Context, r io.Reader) (float64, error) {
	rec, err := ReadInputRecord(r)
	if err != nil {
		return 0, err
	}
	return p.PredictRecord(ctx, rec)
}

// PredictFromFile is PredictFromReader on the file at path.
func (p *Predictor) PredictFromFile(ctx context.Context, path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeInvalidInput, "cannot open input file "+path)
	}
	defer f.Close()
	return p.PredictFromReader(ctx, f)
}

// ReadInputRecord reads r fully and parses it with ParseInputRecord.
func ReadInputRecord(r io.Reader) (*InputRecord, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "cannot read input record")
	}
	return parseLines(lines)
}

// ParseInputRecord splits a record into its header, scalar features and
// structural block.  The first two tokens of the scalar line are labels.
// The block runs up to the first "$$$$" line.
func ParseInputRecord(text string) (*InputRecord, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return parseLines(strings.Split(strings.TrimSuffix(text, "\n"), "\n"))
}

func parseLines(lines []string) (*InputRecord, error) {
	if len(lines) < 3 {
		return nil, errors.New(errors.CodeInvalidInput,
			"input file must contain at least header, features, and MOL block")
	}

	tokens := strings.Fields(lines[1])
	if len(tokens) < 3 {
		return nil, errors.Newf(errors.CodeInvalidInput,
			"failed to parse features: expected two labels and at least one value, got %d tokens", len(tokens))
	}
	scalar := make([]float64, 0, len(tokens)-2)
	for _, tok := range tokens[2:] {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "failed to parse features: "+tok)
		}
		scalar = append(scalar, v)
	}

	end := -1
	for i := 2; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == RecordTerminator {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, errors.New(errors.CodeInvalidInput, "no MOL block found in input: missing "+RecordTerminator)
	}
	if end == 2 {
		return nil, errors.New(errors.CodeInvalidInput, "no MOL block found in input")
	}

	return &InputRecord{
		Header:   lines[0],
		Scalar:   scalar,
		MolBlock: strings.Join(lines[2:end], "\n") + "\n",
	}, nil
}
