package prediction

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/logkpredict/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/prometheus"
)

// WorkerSource is the envelope source of published results.
const WorkerSource = "logk-worker"

// Publisher sends a message to the broker.
type Publisher interface {
	Publish(ctx context.Context, msg *kafka.ProducerMessage) error
}

// RequestHandler turns request envelopes into result envelopes.
type RequestHandler struct {
	svc         Service
	pub         Publisher
	resultTopic string
	metrics     *prometheus.AppMetrics
	logger      logging.Logger
}

func NewRequestHandler(svc Service, pub Publisher, resultTopic string, metrics *prometheus.AppMetrics, logger logging.Logger) *RequestHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RequestHandler{svc: svc, pub: pub, resultTopic: resultTopic, metrics: metrics, logger: logger.Named("worker")}
}

// Handle is a kafka.MessageHandler.  Undecodable messages are answered with
// a failed result when they carry a usable id, and are otherwise dropped.
// Only a publish failure is returned, so the consumer retries it.
func (h *RequestHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	start := time.Now()
	res, err := h.process(ctx, msg)
	if err == nil {
		err = h.publish(ctx, res)
	}
	if h.metrics != nil {
		prometheus.RecordMessage(h.metrics, msg.Topic, time.Since(start), err)
	}
	return err
}

func (h *RequestHandler) process(ctx context.Context, msg *kafka.Message) (*Result, error) {
	env, err := kafka.ParseEnvelope(msg)
	if err != nil {
		h.logger.Warn("dropping undecodable message",
			logging.String("topic", msg.Topic),
			logging.Any("offset", msg.Offset),
			logging.Err(err))
		return nil, nil
	}

	var req Request
	if err := env.DecodePayload(&req); err != nil {
		id := correlationID(env)
		h.logger.Warn("invalid prediction request", logging.RequestID(id), logging.Err(err))
		return failedResult(id, err), nil
	}
	if req.RequestID == "" {
		req.RequestID = correlationID(env)
	}
	req.Source = SourceWorker

	res, _ := h.svc.Predict(ctx, &req)
	return res, nil
}

func (h *RequestHandler) publish(ctx context.Context, res *Result) error {
	if res == nil {
		return nil
	}
	env, err := kafka.NewEnvelope(kafka.EventPredictionCompleted, WorkerSource, res)
	if err != nil {
		return err
	}
	env.CorrelationID = res.RequestID
	out, err := env.ToMessage(h.resultTopic, res.RequestID)
	if err != nil {
		return err
	}
	return h.pub.Publish(ctx, out)
}

func correlationID(env *kafka.Envelope) string {
	if _, err := uuid.Parse(env.CorrelationID); err == nil {
		return env.CorrelationID
	}
	if _, err := uuid.Parse(env.EventID); err == nil {
		return env.EventID
	}
	return uuid.NewString()
}

// NewRequestMessage wraps req for the request topic, minting a request id
// when it has none.
func NewRequestMessage(topic, source string, req *Request) (*kafka.ProducerMessage, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	env, err := kafka.NewEnvelope(kafka.EventPredictionRequested, source, req)
	if err != nil {
		return nil, err
	}
	env.CorrelationID = req.RequestID
	return env.ToMessage(topic, req.RequestID)
}
