// Package prediction provides the application-level service that runs log K
// predictions for the CLI, HTTP and worker entry points and records their
// outcome.
package prediction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domain "github.com/turtacn/logkpredict/internal/domain/prediction"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/logkpredict/internal/intelligence/logk"
	"github.com/turtacn/logkpredict/pkg/errors"
)

// Entry points, recorded as the request source.
const (
	SourceCLI    = "cli"
	SourceHTTP   = "http"
	SourceWorker = "worker"
)

// ErrLedgerDisabled is returned by lookups when no repository is wired.
var ErrLedgerDisabled = errors.New(errors.ErrCodeServiceUnavailable, "prediction ledger is disabled")

// Pipeline runs the prediction stages for one structure.
type Pipeline interface {
	Trace(ctx context.Context, scalar []float64, molBlock string) (*logk.PipelineTrace, error)
}

// Service defines the prediction application operations.
type Service interface {
	Predict(ctx context.Context, req *Request) (*Result, error)
	PredictBatch(ctx context.Context, reqs []*Request) ([]*Result, error)
	Get(ctx context.Context, id string) (*domain.Record, error)
	Recent(ctx context.Context, limit int) ([]*domain.Record, error)
}

// Request is one prediction.  Either Record (a complete input record) or
// Scalar and MolBlock must be supplied.
type Request struct {
	RequestID string    `json:"request_id,omitempty"`
	Scalar    []float64 `json:"scalar_features,omitempty"`
	MolBlock  string    `json:"molblock,omitempty"`
	Record    string    `json:"record,omitempty"`
	Explain   bool      `json:"explain,omitempty"`

	Source string `json:"-"`
}

// ErrorInfo is the failure half of a Result.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of one request.
type Result struct {
	RequestID   string              `json:"request_id"`
	Status      domain.Status       `json:"status"`
	LogK        *float64            `json:"log_k,omitempty"`
	Sequence    string              `json:"sequence,omitempty"`
	DativeBonds int                 `json:"dative_bonds,omitempty"`
	DurationMs  float64             `json:"duration_ms"`
	Error       *ErrorInfo          `json:"error,omitempty"`
	Trace       *logk.PipelineTrace `json:"trace,omitempty"`
}

// Options carries the optional collaborators of the service.
type Options struct {
	Repository  domain.Repository
	Metrics     *prometheus.AppMetrics
	Logger      logging.Logger
	Concurrency int
	MaxBatch    int
}

type serviceImpl struct {
	pipeline    Pipeline
	repo        domain.Repository
	metrics     *prometheus.AppMetrics
	logger      logging.Logger
	concurrency int
	maxBatch    int
}

// NewService creates the prediction service.  A nil repository disables the
// ledger and a nil metrics set disables metrics.
func NewService(pipeline Pipeline, opts Options) Service {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &serviceImpl{
		pipeline:    pipeline,
		repo:        opts.Repository,
		metrics:     opts.Metrics,
		logger:      opts.Logger.Named("prediction"),
		concurrency: opts.Concurrency,
		maxBatch:    opts.MaxBatch,
	}
}

func (s *serviceImpl) Predict(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, errors.New(errors.CodeInvalidInput, "prediction request is nil")
	}
	id := requestID(req.RequestID)
	rec := domain.NewRecord(id, req.Source)
	log := s.logger.With(logging.RequestID(id.String()), logging.String("source", req.Source))
	start := time.Now()

	tr, err := s.run(ctx, req)
	elapsed := time.Since(start)

	res := &Result{RequestID: id.String(), DurationMs: float64(elapsed.Microseconds()) / 1000}
	if err != nil {
		rec.Fail(err, elapsed)
		res.Status = domain.StatusFailed
		res.Error = &ErrorInfo{Code: errors.GetCode(err).String(), Message: err.Error()}
		log.Warn("prediction failed", logging.Code(err), logging.Err(err))
	} else {
		rec.Succeed(tr.LogK, tr.Sequence, tr.DativeBonds, elapsed)
		logK := tr.LogK
		res.Status = domain.StatusSucceeded
		res.LogK = &logK
		res.Sequence = tr.Sequence
		res.DativeBonds = tr.DativeBonds
		if req.Explain {
			res.Trace = tr
		}
	}

	if s.metrics != nil {
		prometheus.RecordPrediction(s.metrics, req.Source, rec.LogKOrZero(), elapsed, err)
	}
	s.save(ctx, rec, log)
	return res, err
}

func (s *serviceImpl) run(ctx context.Context, req *Request) (*logk.PipelineTrace, error) {
	scalar, molBlock := req.Scalar, req.MolBlock
	switch {
	case req.Record != "" && req.MolBlock != "":
		return nil, errors.New(errors.CodeInvalidInput, "request must carry either a record or a MOL block, not both")
	case req.Record != "":
		in, err := logk.ParseInputRecord(req.Record)
		if err != nil {
			return nil, err
		}
		scalar, molBlock = in.Scalar, in.MolBlock
	case req.MolBlock == "":
		return nil, errors.New(errors.CodeInvalidInput, "request must carry a record or a MOL block")
	}
	return s.pipeline.Trace(ctx, scalar, molBlock)
}

// save writes the ledger entry.  Ledger failures never fail a prediction.
func (s *serviceImpl) save(ctx context.Context, rec *domain.Record, log logging.Logger) {
	if s.repo == nil {
		return
	}
	err := s.repo.Save(ctx, rec)
	if s.metrics != nil {
		prometheus.RecordLedger(s.metrics, "save", err)
	}
	if err != nil {
		log.Warn("failed to record prediction", logging.Err(err))
	}
}

// PredictBatch runs reqs with bounded concurrency.  Per-request failures are
// reported in each Result; only a malformed batch is an error.
func (s *serviceImpl) PredictBatch(ctx context.Context, reqs []*Request) ([]*Result, error) {
	if len(reqs) == 0 {
		return nil, errors.New(errors.CodeInvalidInput, "batch is empty")
	}
	if s.maxBatch > 0 && len(reqs) > s.maxBatch {
		return nil, errors.Newf(errors.CodeInvalidInput, "batch of %d requests exceeds the limit of %d", len(reqs), s.maxBatch)
	}
	if s.metrics != nil && len(reqs) > 0 {
		s.metrics.BatchSize.WithLabelValues(reqs[0].Source).Observe(float64(len(reqs)))
	}

	results := make([]*Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if req == nil {
				results[i] = failedResult(uuid.NewString(), errors.New(errors.CodeInvalidInput, "prediction request is nil"))
				return nil
			}
			results[i], _ = s.Predict(gctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (*domain.Record, error) {
	if s.repo == nil {
		return nil, ErrLedgerDisabled
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.Newf(errors.CodeInvalidParam, "invalid request id %q", id)
	}
	rec, err := s.repo.FindByID(ctx, uid)
	if s.metrics != nil {
		prometheus.RecordLedger(s.metrics, "get", err)
	}
	return rec, err
}

func (s *serviceImpl) Recent(ctx context.Context, limit int) ([]*domain.Record, error) {
	if s.repo == nil {
		return nil, ErrLedgerDisabled
	}
	recs, err := s.repo.ListRecent(ctx, limit)
	if s.metrics != nil {
		prometheus.RecordLedger(s.metrics, "list", err)
	}
	return recs, err
}

func failedResult(id string, err error) *Result {
	return &Result{
		RequestID: id,
		Status:    domain.StatusFailed,
		Error:     &ErrorInfo{Code: errors.GetCode(err).String(), Message: err.Error()},
	}
}

// requestID parses id, or mints a new one when id is empty or malformed.
func requestID(id string) uuid.UUID {
	if id != "" {
		if u, err := uuid.Parse(id); err == nil {
			return u
		}
	}
	return uuid.New()
}
