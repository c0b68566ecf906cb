package amqp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxdesk/internal/log"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{15, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial AMQP: connection refused"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"channel closed", errors.New("message channel closed"), true},
		{"amqp closed", fmt.Errorf("consume: %w", amqp091.ErrClosed), true},
		{"other error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isConnectionError(tt.err))
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "fx", queueName: "journal"}

	assert.False(t, client.isCircuitOpen(), "closed initially")

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	assert.True(t, client.isCircuitOpen())
	assert.Equal(t, StateOpen, atomic.LoadInt32(&client.state))

	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	assert.False(t, client.isCircuitOpen(), "half-open after timeout")
	assert.Equal(t, StateHalfOpen, atomic.LoadInt32(&client.state))

	client.recordFailure()
	assert.Equal(t, StateOpen, atomic.LoadInt32(&client.state), "a half-open failure reopens")

	client.recordSuccess()
	assert.False(t, client.isCircuitOpen())
	assert.Zero(t, atomic.LoadInt64(&client.failureCount))
}

func TestClient_PublishGuards(t *testing.T) {
	client := &Client{exchangeName: "fx", queueName: "journal"}

	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now()
	err := client.PublishTransactionEvent(context.Background(), 1, ActionCreated)
	assert.ErrorIs(t, err, ErrCircuitOpen)

	atomic.StoreInt32(&client.state, StateClosed)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = client.PublishTransactionEvent(ctx, 1, ActionCreated)
	assert.Equal(t, context.Canceled, err)
}

func TestTransactionEventMessage(t *testing.T) {
	msg := NewTransactionEventMessage(42, ActionUpdated)
	assert.Equal(t, int64(42), msg.ID)
	assert.NotEmpty(t, msg.MessageID)
	assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Second)

	body, err := msg.ToJSON()
	require.NoError(t, err)
	decoded, err := TransactionEventMessageFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, decoded.ID)
	assert.Equal(t, ActionUpdated, decoded.Action)
	assert.Equal(t, msg.MessageID, decoded.MessageID)
	assert.True(t, decoded.Timestamp.Equal(msg.Timestamp))
}

func TestTransactionEventMessage_Invalid(t *testing.T) {
	for _, body := range []string{
		`{"id":"nope","action":"created"}`,
		`{"id":0,"action":"created"}`,
		`{"id":3,"action":"archived"}`,
		`not json`,
	} {
		_, err := TransactionEventMessageFromJSON([]byte(body))
		assert.Error(t, err, body)
	}
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_ bool, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func TestDispatch(t *testing.T) {
	var out bytes.Buffer
	logger := log.New(log.Config{Output: &out, Component: log.ComponentAMQP})
	body, _ := NewTransactionEventMessage(7, ActionCreated).ToJSON()

	t.Run("ack on success", func(t *testing.T) {
		ack := &fakeAck{}
		var seen int64
		dispatch(context.Background(), logger, body, ack, func(_ context.Context, m *TransactionEventMessage) error {
			seen = m.ID
			return nil
		})
		assert.True(t, ack.acked)
		assert.Equal(t, int64(7), seen)
	})

	t.Run("requeue on handler error", func(t *testing.T) {
		ack := &fakeAck{}
		dispatch(context.Background(), logger, body, ack, func(context.Context, *TransactionEventMessage) error {
			return errors.New("sheets down")
		})
		assert.True(t, ack.nacked)
		assert.True(t, ack.requeued)
	})

	t.Run("drop undecodable body", func(t *testing.T) {
		ack := &fakeAck{}
		called := false
		dispatch(context.Background(), logger, []byte("garbage"), ack, func(context.Context, *TransactionEventMessage) error {
			called = true
			return nil
		})
		assert.False(t, called)
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeued)
	})
}
