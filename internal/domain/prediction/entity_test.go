package prediction

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/logkpredict/pkg/errors"
)

func TestNewRecord(t *testing.T) {
	r := NewRecord(uuid.Nil, "cli")
	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, "cli", r.Source)
	assert.False(t, r.CreatedAt.IsZero())

	id := uuid.New()
	assert.Equal(t, id, NewRecord(id, "http").ID)
}

func TestRecord_Succeed(t *testing.T) {
	r := NewRecord(uuid.Nil, "http")
	r.Succeed(7.25, "N->[Cu]", 1, 1500*time.Microsecond)

	require.NoError(t, r.Validate())
	assert.Equal(t, StatusSucceeded, r.Status)
	require.NotNil(t, r.LogK)
	assert.Equal(t, 7.25, *r.LogK)
	assert.Equal(t, 1.5, r.DurationMs)
}

func TestRecord_Fail(t *testing.T) {
	r := NewRecord(uuid.Nil, "worker")
	r.Succeed(1, "C", 0, 0)
	r.Fail(errors.New(errors.CodePredictionEngine, "exit status 2"), time.Second)

	require.NoError(t, r.Validate())
	assert.Equal(t, StatusFailed, r.Status)
	assert.Nil(t, r.LogK)
	assert.Equal(t, "LOGK_ENGINE", r.ErrorCode)
	assert.Contains(t, r.ErrorMessage, "exit status 2")
}

func TestRecord_Validate(t *testing.T) {
	var nilRecord *Record
	assert.Error(t, nilRecord.Validate())

	assert.Error(t, (&Record{}).Validate(), "missing id")
	assert.Error(t, (&Record{ID: uuid.New(), Status: StatusSucceeded}).Validate(), "missing log K")
	assert.Error(t, (&Record{ID: uuid.New(), Status: StatusFailed}).Validate(), "missing code")
	assert.Error(t, (&Record{ID: uuid.New(), Status: "pending"}).Validate())
}
