package prediction

import (
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/logkpredict/pkg/errors"
)

// Status is the outcome of a prediction request.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Record is the ledger entry kept for every prediction request.
type Record struct {
	ID           uuid.UUID `json:"id"`
	Source       string    `json:"source"`
	Status       Status    `json:"status"`
	LogK         *float64  `json:"log_k,omitempty"`
	Sequence     string    `json:"sequence,omitempty"`
	DativeBonds  int       `json:"dative_bonds"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	DurationMs   float64   `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewRecord starts a record for a request arriving through source.
func NewRecord(id uuid.UUID, source string) *Record {
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Record{ID: id, Source: source, CreatedAt: time.Now().UTC()}
}

// Succeed marks the record as a successful prediction.
func (r *Record) Succeed(logK float64, sequence string, dativeBonds int, elapsed time.Duration) {
	r.Status = StatusSucceeded
	r.LogK = &logK
	r.Sequence = sequence
	r.DativeBonds = dativeBonds
	r.ErrorCode, r.ErrorMessage = "", ""
	r.DurationMs = millis(elapsed)
}

// Fail marks the record as failed with err's code and message.
func (r *Record) Fail(err error, elapsed time.Duration) {
	r.Status = StatusFailed
	r.LogK = nil
	r.ErrorCode = errors.GetCode(err).String()
	if err != nil {
		r.ErrorMessage = err.Error()
	}
	r.DurationMs = millis(elapsed)
}

// Validate checks the record before it is persisted.
func (r *Record) Validate() error {
	if r == nil {
		return errors.InvalidParam("prediction record is nil")
	}
	if r.ID == uuid.Nil {
		return errors.InvalidParam("prediction record has no id")
	}
	switch r.Status {
	case StatusSucceeded:
		if r.LogK == nil {
			return errors.InvalidParam("succeeded prediction record has no log K")
		}
	case StatusFailed:
		if r.ErrorCode == "" {
			return errors.InvalidParam("failed prediction record has no error code")
		}
	default:
		return errors.InvalidParam("prediction record has invalid status " + string(r.Status))
	}
	return nil
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// LogKOrZero returns the predicted value, or 0 for a failed record.
func (r *Record) LogKOrZero() float64 {
	if r.LogK == nil {
		return 0
	}
	return *r.LogK
}
