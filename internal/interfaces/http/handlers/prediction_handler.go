package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/logkpredict/internal/application/prediction"
	domain "github.com/turtacn/logkpredict/internal/domain/prediction"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/internal/interfaces/http/middleware"
	"github.com/turtacn/logkpredict/pkg/errors"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// BatchRequest is the body of POST /predictions/batch.
type BatchRequest struct {
	Requests []*prediction.Request `json:"requests"`
}

// BatchResponse reports every item in request order.
type BatchResponse struct {
	Results   []*prediction.Result `json:"results"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
}

// ListResponse is the body of GET /predictions.
type ListResponse struct {
	Records []*domain.Record `json:"records"`
}

// PredictionHandler serves the prediction endpoints.
type PredictionHandler struct {
	svc    prediction.Service
	logger logging.Logger
}

// NewPredictionHandler creates a PredictionHandler.
func NewPredictionHandler(svc prediction.Service, logger logging.Logger) *PredictionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PredictionHandler{svc: svc, logger: logger.Named("http.prediction")}
}

// RegisterRoutes mounts the endpoints on rg.  Compute-bound POST routes pass
// through limit first when it is non-nil.
func (h *PredictionHandler) RegisterRoutes(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	compute := rg.Group("")
	if limit != nil {
		compute.Use(limit)
	}
	compute.POST("/predictions", h.Create)
	compute.POST("/predictions/batch", h.Batch)
	rg.GET("/predictions", h.List)
	rg.GET("/predictions/:id", h.Get)
}

// Create handles POST /predictions.  A failed prediction still returns the
// Result body, with the status mapped from its error code.
func (h *PredictionHandler) Create(c *gin.Context) {
	var req prediction.Request
	if err := bindJSON(c, &req); err != nil {
		writeAppError(c, err)
		return
	}
	req.Source = prediction.SourceHTTP
	if req.RequestID == "" {
		req.RequestID = middleware.GetRequestID(c)
	}

	res, err := h.svc.Predict(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		c.JSON(errors.HTTPStatus(errors.GetCode(err)), res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Batch handles POST /predictions/batch.  Item failures are reported per
// item with an overall 200.
func (h *PredictionHandler) Batch(c *gin.Context) {
	var body BatchRequest
	if err := bindJSON(c, &body); err != nil {
		writeAppError(c, err)
		return
	}
	for _, r := range body.Requests {
		if r != nil {
			r.Source = prediction.SourceHTTP
		}
	}

	results, err := h.svc.PredictBatch(c.Request.Context(), body.Requests)
	if err != nil {
		writeAppError(c, err)
		return
	}
	resp := BatchResponse{Results: results}
	for _, r := range results {
		if r.Status == domain.StatusSucceeded {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	h.logger.Info("batch completed",
		logging.RequestID(middleware.GetRequestID(c)),
		logging.Int("succeeded", resp.Succeeded),
		logging.Int("failed", resp.Failed))
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /predictions/:id.
func (h *PredictionHandler) Get(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// List handles GET /predictions?limit=N, newest first.
func (h *PredictionHandler) List(c *gin.Context) {
	recs, err := h.svc.Recent(c.Request.Context(), parseLimit(c, defaultListLimit, maxListLimit))
	if err != nil {
		writeAppError(c, err)
		return
	}
	if recs == nil {
		recs = []*domain.Record{}
	}
	c.JSON(http.StatusOK, ListResponse{Records: recs})
}
