package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/logkpredict/internal/application/prediction"
	domain "github.com/turtacn/logkpredict/internal/domain/prediction"
	"github.com/turtacn/logkpredict/internal/interfaces/http/middleware"
	"github.com/turtacn/logkpredict/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	mu       sync.Mutex
	requests []*prediction.Request

	predictErr error
	batchErr   error
	records    map[string]*domain.Record
	recentErr  error
	limit      int
}

func (f *fakeService) Predict(_ context.Context, req *prediction.Request) (*prediction.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.predictErr != nil || strings.Contains(req.MolBlock, "FAIL") {
		err := f.predictErr
		if err == nil {
			err = errors.New(errors.CodeMolecularProcessing, "cannot sanitize")
		}
		return &prediction.Result{
			RequestID: req.RequestID,
			Status:    domain.StatusFailed,
			Error:     &prediction.ErrorInfo{Code: errors.GetCode(err).String(), Message: err.Error()},
		}, err
	}
	v := 4.2
	return &prediction.Result{RequestID: req.RequestID, Status: domain.StatusSucceeded, LogK: &v, Sequence: "CCO"}, nil
}

func (f *fakeService) PredictBatch(ctx context.Context, reqs []*prediction.Request) ([]*prediction.Result, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([]*prediction.Result, len(reqs))
	for i, r := range reqs {
		out[i], _ = f.Predict(ctx, r)
	}
	return out, nil
}

func (f *fakeService) Get(_ context.Context, id string) (*domain.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.InvalidParam("invalid request id")
	}
	if rec, ok := f.records[id]; ok {
		return rec, nil
	}
	return nil, errors.NotFound("prediction " + id + " not found")
}

func (f *fakeService) Recent(_ context.Context, limit int) ([]*domain.Record, error) {
	f.limit = limit
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	var out []*domain.Record
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, nil
}

func predictionRouter(svc prediction.Service) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	NewPredictionHandler(svc, nil).RegisterRoutes(r.Group("/api/v1"), nil)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestPredictionHandler_Create(t *testing.T) {
	svc := &fakeService{}
	w := do(predictionRouter(svc), http.MethodPost, "/api/v1/predictions",
		`{"scalar_features":[1,2,3,4,5,6,7,8,9,10],"molblock":"M  END"}`)

	require.Equal(t, http.StatusOK, w.Code)
	res := decode[prediction.Result](t, w)
	assert.Equal(t, domain.StatusSucceeded, res.Status)
	assert.Equal(t, 4.2, *res.LogK)

	require.Len(t, svc.requests, 1)
	assert.Equal(t, prediction.SourceHTTP, svc.requests[0].Source)
	assert.Equal(t, w.Header().Get(middleware.HeaderRequestID), svc.requests[0].RequestID,
		"header request id keys the prediction")
	assert.Len(t, svc.requests[0].Scalar, 10)
}

func TestPredictionHandler_CreateKeepsBodyID(t *testing.T) {
	svc := &fakeService{}
	id := uuid.NewString()
	do(predictionRouter(svc), http.MethodPost, "/api/v1/predictions", `{"request_id":"`+id+`","record":"x"}`)
	require.Len(t, svc.requests, 1)
	assert.Equal(t, id, svc.requests[0].RequestID)
}

func TestPredictionHandler_CreateErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
		code   string
	}{
		{"malformed json", nil, `{"molblock":`, http.StatusBadRequest, "LOGK_INVALID_INPUT"},
		{"molecular", nil, `{"molblock":"FAIL"}`, http.StatusUnprocessableEntity, "LOGK_MOLECULAR"},
		{"engine", errors.New(errors.CodePredictionEngine, "exit status 1"), `{"molblock":"x"}`, http.StatusBadGateway, "LOGK_ENGINE"},
		{"model", errors.New(errors.CodeModelNotFound, "gone"), `{"molblock":"x"}`, http.StatusServiceUnavailable, "LOGK_MODEL_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(predictionRouter(&fakeService{predictErr: tt.err}), http.MethodPost, "/api/v1/predictions", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestPredictionHandler_Batch(t *testing.T) {
	svc := &fakeService{}
	w := do(predictionRouter(svc), http.MethodPost, "/api/v1/predictions/batch",
		`{"requests":[{"molblock":"a"},{"molblock":"FAIL"},{"molblock":"b"}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[BatchResponse](t, w)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, domain.StatusFailed, resp.Results[1].Status)
	for _, r := range svc.requests {
		assert.Equal(t, prediction.SourceHTTP, r.Source)
	}
}

func TestPredictionHandler_BatchRejected(t *testing.T) {
	svc := &fakeService{batchErr: errors.New(errors.CodeInvalidInput, "batch is empty")}
	w := do(predictionRouter(svc), http.MethodPost, "/api/v1/predictions/batch", `{"requests":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[ErrorResponse](t, w)
	assert.Equal(t, "LOGK_INVALID_INPUT", body.Code)
	assert.NotEmpty(t, body.RequestID)
}

func TestPredictionHandler_Get(t *testing.T) {
	id := uuid.New()
	v := 3.3
	svc := &fakeService{records: map[string]*domain.Record{
		id.String(): {ID: id, Status: domain.StatusSucceeded, LogK: &v},
	}}
	r := predictionRouter(svc)

	w := do(r, http.MethodGet, "/api/v1/predictions/"+id.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode[domain.Record](t, w)
	assert.Equal(t, id, rec.ID)

	w = do(r, http.MethodGet, "/api/v1/predictions/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/v1/predictions/nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictionHandler_List(t *testing.T) {
	svc := &fakeService{}
	r := predictionRouter(svc)

	w := do(r, http.MethodGet, "/api/v1/predictions?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"records":[]}`, w.Body.String())
	assert.Equal(t, 5, svc.limit)

	do(r, http.MethodGet, "/api/v1/predictions?limit=100000", "")
	assert.Equal(t, maxListLimit, svc.limit)

	do(r, http.MethodGet, "/api/v1/predictions?limit=abc", "")
	assert.Equal(t, defaultListLimit, svc.limit)
}

func TestPredictionHandler_LedgerErrors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		w := do(predictionRouter(&fakeService{recentErr: prediction.ErrLedgerDisabled}), http.MethodGet, "/api/v1/predictions", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("internal details masked", func(t *testing.T) {
		err := errors.New(errors.CodeCacheError, "dial tcp 10.0.0.7:6379: refused")
		w := do(predictionRouter(&fakeService{recentErr: err}), http.MethodGet, "/api/v1/predictions", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "10.0.0.7")
	})
}
