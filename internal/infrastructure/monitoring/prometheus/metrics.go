package prometheus

import (
	"strconv"
	"time"

	"github.com/turtacn/logkpredict/pkg/errors"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Prediction pipeline
	PredictionsTotal   CounterVec
	PredictionDuration HistogramVec
	StageDuration      HistogramVec
	StageFailures      CounterVec
	PredictedLogK      HistogramVec
	BatchSize          HistogramVec

	// Infrastructure Layer
	LedgerOperations       CounterVec
	MessagesTotal          CounterVec
	MessageProcessDuration HistogramVec
	ModelPullsTotal        CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets       = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}
	DefaultPredictionDurationBuckets = []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300}
	DefaultStageDurationBuckets      = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 30, 120}
	DefaultLogKBuckets               = []float64{-5, 0, 2, 4, 6, 8, 10, 15, 20, 30, 40}
	DefaultBatchBuckets              = []float64{1, 2, 5, 10, 25, 50, 100, 256}
)

// NewAppMetrics registers all metrics and returns AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	// Prediction
	m.PredictionsTotal = collector.RegisterCounter("predictions_total", "Predictions by outcome and error code", "source", "status", "code")
	m.PredictionDuration = collector.RegisterHistogram("prediction_duration_seconds", "End-to-end prediction duration", DefaultPredictionDurationBuckets, "source")
	m.StageDuration = collector.RegisterHistogram("stage_duration_seconds", "Pipeline stage duration", DefaultStageDurationBuckets, "stage")
	m.StageFailures = collector.RegisterCounter("stage_failures_total", "Pipeline stage failures", "stage", "code")
	m.PredictedLogK = collector.RegisterHistogram("predicted_log_k", "Distribution of predicted stability constants", DefaultLogKBuckets)
	m.BatchSize = collector.RegisterHistogram("batch_size", "Requests per batch", DefaultBatchBuckets, "source")

	// Infrastructure
	m.LedgerOperations = collector.RegisterCounter("ledger_operations_total", "Prediction ledger operations", "operation", "status")
	m.MessagesTotal = collector.RegisterCounter("worker_messages_total", "Worker messages by outcome", "topic", "status")
	m.MessageProcessDuration = collector.RegisterHistogram("worker_message_duration_seconds", "Worker message processing duration", DefaultPredictionDurationBuckets, "topic")
	m.ModelPullsTotal = collector.RegisterCounter("model_pulls_total", "Model checkpoint downloads", "status")

	return m
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func code(err error) string {
	if err == nil {
		return ""
	}
	return errors.GetCode(err).String()
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPrediction records the outcome of one prediction.  source is the
// entry point ("cli", "http", "worker").
func RecordPrediction(m *AppMetrics, source string, logK float64, duration time.Duration, err error) {
	m.PredictionsTotal.WithLabelValues(source, status(err), code(err)).Inc()
	m.PredictionDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err == nil {
		m.PredictedLogK.WithLabelValues().Observe(logK)
	}
}

// StageObserver returns a pipeline stage callback feeding the stage
// metrics.
func StageObserver(m *AppMetrics) func(stage string, elapsed time.Duration, err error) {
	return func(stage string, elapsed time.Duration, err error) {
		m.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
		if err != nil {
			m.StageFailures.WithLabelValues(stage, code(err)).Inc()
		}
	}
}

// RecordLedger records a ledger read or write.
func RecordLedger(m *AppMetrics, operation string, err error) {
	m.LedgerOperations.WithLabelValues(operation, status(err)).Inc()
}

// RecordMessage records a processed worker message.
func RecordMessage(m *AppMetrics, topic string, duration time.Duration, err error) {
	m.MessagesTotal.WithLabelValues(topic, status(err)).Inc()
	m.MessageProcessDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

// RecordModelPull records a checkpoint download.
func RecordModelPull(m *AppMetrics, err error) {
	m.ModelPullsTotal.WithLabelValues(status(err)).Inc()
}
