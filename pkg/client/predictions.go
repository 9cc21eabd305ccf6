package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// PredictionRequest is one prediction.  Supply Record, or ScalarFeatures
// together with MolBlock.
type PredictionRequest struct {
	RequestID      string    `json:"request_id,omitempty"`
	ScalarFeatures []float64 `json:"scalar_features,omitempty"`
	MolBlock       string    `json:"molblock,omitempty"`
	Record         string    `json:"record,omitempty"`
	Explain        bool      `json:"explain,omitempty"`
}

// ErrorInfo describes a failed prediction.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Prediction is the outcome of one request.  Trace is present when
// Explain was set.
type Prediction struct {
	RequestID   string          `json:"request_id"`
	Status      string          `json:"status"`
	LogK        *float64        `json:"log_k,omitempty"`
	Sequence    string          `json:"sequence,omitempty"`
	DativeBonds int             `json:"dative_bonds,omitempty"`
	DurationMs  float64         `json:"duration_ms"`
	Error       *ErrorInfo      `json:"error,omitempty"`
	Trace       json.RawMessage `json:"trace,omitempty"`
}

// Succeeded reports whether a value was predicted.
func (p *Prediction) Succeeded() bool { return p.Status == "succeeded" && p.LogK != nil }

// BatchResult reports every item in request order.
type BatchResult struct {
	Results   []*Prediction `json:"results"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

// Record is a ledger entry.
type Record struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Status       string    `json:"status"`
	LogK         *float64  `json:"log_k,omitempty"`
	Sequence     string    `json:"sequence,omitempty"`
	DativeBonds  int       `json:"dative_bonds"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	DurationMs   float64   `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

const predictionsPath = "/api/v1/predictions"

// Predict runs one prediction.  A failed prediction is returned as an
// *APIError carrying the pipeline error code.
func (c *Client) Predict(ctx context.Context, req *PredictionRequest) (*Prediction, error) {
	if req == nil {
		return nil, fmt.Errorf("prediction request is nil")
	}
	var out Prediction
	if err := c.do(ctx, http.MethodPost, predictionsPath, req.RequestID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PredictBatch runs several predictions in one call.  Item failures are
// reported in the result, not as an error.
func (c *Client) PredictBatch(ctx context.Context, reqs []*PredictionRequest) (*BatchResult, error) {
	var out BatchResult
	body := struct {
		Requests []*PredictionRequest `json:"requests"`
	}{reqs}
	if err := c.do(ctx, http.MethodPost, predictionsPath+"/batch", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches the ledger entry for id.
func (c *Client) Get(ctx context.Context, id string) (*Record, error) {
	var out Record
	if err := c.do(ctx, http.MethodGet, predictionsPath+"/"+url.PathEscape(id), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recent lists up to limit ledger entries, newest first.
func (c *Client) Recent(ctx context.Context, limit int) ([]*Record, error) {
	var out struct {
		Records []*Record `json:"records"`
	}
	path := predictionsPath
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// Ready probes /readyz.
func (c *Client) Ready(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/readyz", "", nil, nil)
}
