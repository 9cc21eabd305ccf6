package prediction

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/turtacn/logkpredict/internal/domain/prediction"
	"github.com/turtacn/logkpredict/internal/infrastructure/messaging/kafka"
)

type capturePublisher struct {
	mu   sync.Mutex
	msgs []*kafka.ProducerMessage
	err  error
}

func (c *capturePublisher) Publish(_ context.Context, msg *kafka.ProducerMessage) error {
	if c.err != nil {
		return c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func consumed(t *testing.T, pm *kafka.ProducerMessage) *kafka.Message {
	t.Helper()
	return &kafka.Message{Topic: pm.Topic, Key: pm.Key, Value: pm.Value, Headers: pm.Headers}
}

func decodeResult(t *testing.T, pm *kafka.ProducerMessage) (*kafka.Envelope, *Result) {
	t.Helper()
	env, err := kafka.ParseEnvelope(&kafka.Message{Value: pm.Value})
	require.NoError(t, err)
	var res Result
	require.NoError(t, env.DecodePayload(&res))
	return env, &res
}

func TestRequestHandler_Success(t *testing.T) {
	repo := newMemRepo()
	pub := &capturePublisher{}
	h := NewRequestHandler(NewService(&fakePipeline{logK: 6.5}, Options{Repository: repo}), pub, "results", nil, nil)

	in, err := NewRequestMessage("requests", "test", &Request{Scalar: []float64{1}, MolBlock: molBlock})
	require.NoError(t, err)
	id := string(in.Key)
	assert.Equal(t, id, in.Headers["correlation_id"])

	require.NoError(t, h.Handle(context.Background(), consumed(t, in)))
	require.Len(t, pub.msgs, 1)
	out := pub.msgs[0]
	assert.Equal(t, "results", out.Topic)
	assert.Equal(t, id, string(out.Key))

	env, res := decodeResult(t, out)
	assert.Equal(t, kafka.EventPredictionCompleted, env.EventType)
	assert.Equal(t, WorkerSource, env.Source)
	assert.Equal(t, id, res.RequestID)
	assert.Equal(t, domain.StatusSucceeded, res.Status)
	require.NotNil(t, res.LogK)
	assert.Equal(t, 6.5, *res.LogK)

	rec, err := repo.FindByID(context.Background(), mustUUID(t, id))
	require.NoError(t, err)
	assert.Equal(t, SourceWorker, rec.Source)
}

func TestRequestHandler_PredictionFailurePublished(t *testing.T) {
	pub := &capturePublisher{}
	h := NewRequestHandler(NewService(&fakePipeline{}, Options{}), pub, "results", nil, nil)

	in, err := NewRequestMessage("requests", "test", &Request{MolBlock: "FAIL\n" + molBlock})
	require.NoError(t, err)
	require.NoError(t, h.Handle(context.Background(), consumed(t, in)))

	require.Len(t, pub.msgs, 1)
	_, res := decodeResult(t, pub.msgs[0])
	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Equal(t, "LOGK_MOLECULAR", res.Error.Code)
}

func TestRequestHandler_BadPayloadAnswered(t *testing.T) {
	pub := &capturePublisher{}
	h := NewRequestHandler(NewService(&fakePipeline{}, Options{}), pub, "results", nil, nil)

	env, err := kafka.NewEnvelope(kafka.EventPredictionRequested, "test", []int{1, 2})
	require.NoError(t, err)
	pm, err := env.ToMessage("requests", "")
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), consumed(t, pm)))
	require.Len(t, pub.msgs, 1)
	_, res := decodeResult(t, pub.msgs[0])
	assert.Equal(t, env.EventID, res.RequestID)
	assert.Equal(t, "LOGK_INVALID_INPUT", res.Error.Code)
}

func TestRequestHandler_GarbageDropped(t *testing.T) {
	pub := &capturePublisher{}
	h := NewRequestHandler(NewService(&fakePipeline{}, Options{}), pub, "results", nil, nil)

	require.NoError(t, h.Handle(context.Background(), &kafka.Message{Topic: "requests", Value: []byte("not json")}))
	assert.Empty(t, pub.msgs)
}

func TestRequestHandler_PublishFailureReturned(t *testing.T) {
	pub := &capturePublisher{err: fmt.Errorf("broker down")}
	h := NewRequestHandler(NewService(&fakePipeline{logK: 1}, Options{}), pub, "results", nil, nil)

	in, err := NewRequestMessage("requests", "test", &Request{MolBlock: molBlock})
	require.NoError(t, err)
	err = h.Handle(context.Background(), consumed(t, in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestNewRequestMessage_KeepsID(t *testing.T) {
	req := &Request{RequestID: "6f1c1b8e-3f57-4f38-9d6a-0d9f2a7f3c11", MolBlock: molBlock}
	pm, err := NewRequestMessage("requests", "cli", req)
	require.NoError(t, err)
	assert.Equal(t, req.RequestID, string(pm.Key))
	assert.Equal(t, kafka.EventPredictionRequested, pm.Headers["event_type"])
}
