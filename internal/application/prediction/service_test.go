package prediction

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/turtacn/logkpredict/internal/domain/prediction"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/logkpredict/internal/intelligence/logk"
	"github.com/turtacn/logkpredict/pkg/errors"
)

const molBlock = "mol\n  test\n\n  1  0  0  0  0  0  0  0  0  0999 V2000\n    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0\nM  END\n"

type fakePipeline struct {
	logK   float64
	err    error
	calls  atomic.Int32
	scalar []float64
	mu     sync.Mutex
}

func (f *fakePipeline) Trace(_ context.Context, scalar []float64, block string) (*logk.PipelineTrace, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.scalar = scalar
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if strings.Contains(block, "FAIL") {
		return nil, errors.New(errors.CodeMolecularProcessing, "failed to process MOL block")
	}
	return &logk.PipelineTrace{Sequence: "C", LogK: f.logK, DativeBonds: 1}, nil
}

type memRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.Record
	saveErr error
}

func newMemRepo() *memRepo { return &memRepo{records: map[uuid.UUID]*domain.Record{}} }

func (m *memRepo) Save(_ context.Context, r *domain.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if err := r.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = r
	return nil
}

func (m *memRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, errors.NotFound("prediction not found")
	}
	return r, nil
}

func (m *memRepo) ListRecent(_ context.Context, limit int) ([]*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func newMetrics(t *testing.T) (*prometheus.AppMetrics, *promclient.Registry) {
	t.Helper()
	c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, logging.NewNopLogger())
	require.NoError(t, err)
	return prometheus.NewAppMetrics(c), c.Registry()
}

func TestService_Predict(t *testing.T) {
	repo := newMemRepo()
	metrics, reg := newMetrics(t)
	pipe := &fakePipeline{logK: 9.12}
	svc := NewService(pipe, Options{Repository: repo, Metrics: metrics})

	res, err := svc.Predict(context.Background(), &Request{Scalar: []float64{1, 2}, MolBlock: molBlock, Source: SourceHTTP})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, res.Status)
	require.NotNil(t, res.LogK)
	assert.Equal(t, 9.12, *res.LogK)
	assert.Equal(t, "C", res.Sequence)
	assert.Nil(t, res.Trace, "trace only on explain")
	assert.Nil(t, res.Error)

	rec, err := svc.Get(context.Background(), res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, SourceHTTP, rec.Source)
	assert.Equal(t, domain.StatusSucceeded, rec.Status)

	n, err := testutil.GatherAndCount(reg, "test_predictions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestService_PredictKeepsRequestID(t *testing.T) {
	svc := NewService(&fakePipeline{logK: 1}, Options{})
	id := uuid.NewString()

	res, err := svc.Predict(context.Background(), &Request{RequestID: id, MolBlock: molBlock})
	require.NoError(t, err)
	assert.Equal(t, id, res.RequestID)

	res, err = svc.Predict(context.Background(), &Request{RequestID: "not-a-uuid", MolBlock: molBlock})
	require.NoError(t, err)
	_, perr := uuid.Parse(res.RequestID)
	assert.NoError(t, perr)
}

func TestService_PredictExplain(t *testing.T) {
	svc := NewService(&fakePipeline{logK: 2}, Options{})
	res, err := svc.Predict(context.Background(), &Request{MolBlock: molBlock, Explain: true})
	require.NoError(t, err)
	require.NotNil(t, res.Trace)
	assert.Equal(t, "C", res.Trace.Sequence)
}

func TestService_PredictFromRecord(t *testing.T) {
	pipe := &fakePipeline{logK: 3}
	svc := NewService(pipe, Options{})

	record := "header\ncomplex logK 0.5 1.5\n" + molBlock + "$$$$\n"
	res, err := svc.Predict(context.Background(), &Request{Record: record})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, res.Status)
	assert.Equal(t, []float64{0.5, 1.5}, pipe.scalar)
}

func TestService_PredictInputErrors(t *testing.T) {
	repo := newMemRepo()
	pipe := &fakePipeline{}
	svc := NewService(pipe, Options{Repository: repo})

	tests := []struct {
		name string
		req  *Request
	}{
		{"empty", &Request{}},
		{"both", &Request{Record: "x", MolBlock: molBlock}},
		{"bad record", &Request{Record: "header\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Predict(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidInput(err))
			require.NotNil(t, res)
			assert.Equal(t, domain.StatusFailed, res.Status)
			assert.Equal(t, "LOGK_INVALID_INPUT", res.Error.Code)
		})
	}
	assert.Equal(t, int32(0), pipe.calls.Load())
	assert.Equal(t, len(tests), repo.len(), "failures are recorded")

	_, err := svc.Predict(context.Background(), nil)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestService_PredictPipelineError(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(&fakePipeline{err: errors.New(errors.CodePredictionEngine, "exit status 1")}, Options{Repository: repo})

	res, err := svc.Predict(context.Background(), &Request{MolBlock: molBlock})
	require.Error(t, err)
	assert.True(t, errors.IsPredictionEngine(err))
	assert.Equal(t, "LOGK_ENGINE", res.Error.Code)

	rec, err := svc.Get(context.Background(), res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, "LOGK_ENGINE", rec.ErrorCode)
}

func TestService_LedgerFailureIsNotFatal(t *testing.T) {
	repo := newMemRepo()
	repo.saveErr = fmt.Errorf("redis down")
	metrics, reg := newMetrics(t)
	svc := NewService(&fakePipeline{logK: 4}, Options{Repository: repo, Metrics: metrics})

	res, err := svc.Predict(context.Background(), &Request{MolBlock: molBlock})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, res.Status)

	n, err := testutil.GatherAndCount(reg, "test_ledger_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestService_PredictBatch(t *testing.T) {
	repo := newMemRepo()
	pipe := &fakePipeline{logK: 5}
	svc := NewService(pipe, Options{Repository: repo, Concurrency: 3, MaxBatch: 10})

	reqs := make([]*Request, 7)
	for i := range reqs {
		block := molBlock
		if i == 2 {
			block = "FAIL\n" + molBlock
		}
		reqs[i] = &Request{MolBlock: block, Source: SourceWorker}
	}
	reqs[5] = nil

	results, err := svc.PredictBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 7)
	for i, r := range results {
		switch i {
		case 2:
			assert.Equal(t, domain.StatusFailed, r.Status)
			assert.Equal(t, "LOGK_MOLECULAR", r.Error.Code)
		case 5:
			assert.Equal(t, domain.StatusFailed, r.Status)
			assert.Equal(t, "LOGK_INVALID_INPUT", r.Error.Code)
		default:
			assert.Equal(t, domain.StatusSucceeded, r.Status, "item %d", i)
		}
	}
	assert.Equal(t, int32(6), pipe.calls.Load())
	assert.Equal(t, 6, repo.len())
}

func TestService_PredictBatchLimits(t *testing.T) {
	svc := NewService(&fakePipeline{}, Options{MaxBatch: 2})

	_, err := svc.PredictBatch(context.Background(), nil)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = svc.PredictBatch(context.Background(), []*Request{{}, {}, {}})
	assert.True(t, errors.IsInvalidInput(err))
}

func TestService_LedgerDisabled(t *testing.T) {
	svc := NewService(&fakePipeline{}, Options{})
	_, err := svc.Get(context.Background(), uuid.NewString())
	assert.Equal(t, ErrLedgerDisabled, err)
	_, err = svc.Recent(context.Background(), 5)
	assert.Equal(t, ErrLedgerDisabled, err)
}

func TestService_GetInvalidID(t *testing.T) {
	svc := NewService(&fakePipeline{}, Options{Repository: newMemRepo()})
	_, err := svc.Get(context.Background(), "abc")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = svc.Get(context.Background(), uuid.NewString())
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestService_Recent(t *testing.T) {
	svc := NewService(&fakePipeline{logK: 1}, Options{Repository: newMemRepo()})
	for i := 0; i < 3; i++ {
		_, err := svc.Predict(context.Background(), &Request{MolBlock: molBlock})
		require.NoError(t, err)
	}
	recs, err := svc.Recent(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	u, err := uuid.Parse(s)
	require.NoError(t, err)
	return u
}
