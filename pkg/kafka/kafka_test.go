package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"futsal/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func buildMsg(t *testing.T) Message {
	t.Helper()
	msg, err := NewMessage().
		WithKey("booking-1").
		WithValue(map[string]string{"status": "pending"}).
		WithEventType("booking.created").
		WithCorrelationID("req-1").
		Build()
	require.NoError(t, err)
	return msg
}

func TestMessageBuilder(t *testing.T) {
	msg := buildMsg(t)
	assert.NotEmpty(t, msg.GetEventID())
	assert.Equal(t, "booking.created", msg.GetEventType())
	assert.Equal(t, "req-1", msg.GetCorrelationID())
	assert.NotEmpty(t, msg.Headers[HeaderTimestamp])

	var payload map[string]string
	require.NoError(t, msg.DecodeValue(&payload))
	assert.Equal(t, "pending", payload["status"])

	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	assert.Error(t, err)
}

func TestMessage_RetryCount(t *testing.T) {
	msg := Message{}
	assert.Equal(t, 0, msg.GetRetryCount())
	for n := 0; n < 12; n++ {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.GetRetryCount())
}

func TestProducer_PublishRunsMiddlewareInOrder(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, "futsal.events", logger.Discard())

	var order []string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "first")
		return next(ctx, msg)
	})
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "second")
		return next(ctx, msg)
	})

	require.NoError(t, p.Publish(context.Background(), buildMsg(t)))
	assert.Equal(t, []string{"first", "second"}, order)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "booking-1", string(w.msgs[0].Key))
	assert.Equal(t, "booking.created", header(w.msgs[0], HeaderEventType))
}

func TestProducer_RejectsInvalidMessages(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{}, nil, "t", logger.Discard())
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Value: []byte("x")}), ErrEmptyKey)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), buildMsg(t)), ErrProducerClosed)
}

func TestProducer_FailedWriteGoesToDLQ(t *testing.T) {
	writeErr := errors.New("connection refused")
	dlq := &fakeWriter{}
	p := NewProducerWithWriter(&fakeWriter{err: writeErr}, dlq, "futsal.events", logger.Discard())

	err := p.Publish(context.Background(), buildMsg(t))
	assert.ErrorIs(t, err, writeErr)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "futsal.events", header(dlq.msgs[0], HeaderOriginalTopic))
	assert.Equal(t, "connection refused", header(dlq.msgs[0], "dlq-error"))
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, ClassifyError(nil))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(context.DeadlineExceeded))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(errors.New("dial tcp: i/o TIMEOUT")))
	assert.Equal(t, ErrorTypePermanent, ClassifyError(errors.New("bad payload")))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(NewTransientError("x", nil)))
	assert.Equal(t, ErrorTypePermanent, ClassifyError(NewPermanentError("timeout", nil)))

	assert.True(t, ShouldRetry(context.DeadlineExceeded, 0, 3))
	assert.False(t, ShouldRetry(context.DeadlineExceeded, 3, 3))
	assert.False(t, ShouldRetry(errors.New("bad payload"), 0, 3))
}

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	closed    chan struct{}
	once      sync.Once
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{msgs: msgs, closed: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case <-r.closed:
		return kafka.Message{}, io.EOF
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}

func TestConsumer_RetriesTransientThenParksOnDLQ(t *testing.T) {
	reader := newFakeReader(kafka.Message{Key: []byte("k"), Value: []byte(`{}`), Offset: 7})
	dlq := &fakeWriter{}

	var calls int
	handler := func(ctx context.Context, msg Message) error {
		calls++
		return NewTransientError("store unavailable", nil)
	}
	c := NewConsumerWithReader(reader, dlq, "futsal.inconsistencies", "g", handler, logger.Discard())
	c.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool {
		reader.mu.Lock()
		defer reader.mu.Unlock()
		return len(reader.committed) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, c.maxRetries+1, calls)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "g", header(dlq.msgs[0], "dlq-consumer-group"))
	assert.Equal(t, []int64{7}, reader.committed)
}

func TestConsumer_PermanentErrorIsNotRetried(t *testing.T) {
	reader := newFakeReader(kafka.Message{Key: []byte("k"), Value: []byte(`{}`), Offset: 1})

	var calls int
	c := NewConsumerWithReader(reader, nil, "t", "g", func(ctx context.Context, msg Message) error {
		calls++
		return errors.New("undecodable payload")
	}, logger.Discard())

	go func() {
		assert.Eventually(t, func() bool {
			reader.mu.Lock()
			defer reader.mu.Unlock()
			return len(reader.committed) == 1
		}, time.Second, 5*time.Millisecond)
		_ = c.Close()
	}()

	err := c.Start(context.Background())
	assert.ErrorIs(t, err, ErrConsumerClosed)
	assert.Equal(t, 1, calls)
}
