package kafkasource

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfmartins/importflow/internal/model"
)

type readResult struct {
	msg kafka.Message
	err error
}

// fakeReader replays scripted reads, then blocks like an idle topic until the
// fetch context expires.
type fakeReader struct {
	responses []readResult
	idx       int
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if f.idx >= len(f.responses) {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	r := f.responses[f.idx]
	f.idx++
	return r.msg, r.err
}

func (f *fakeReader) Close() error { return nil }

func newTestConsumer(reader messageReader) *Consumer {
	return &Consumer{
		reader:   reader,
		idleWait: 20 * time.Millisecond,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func collect(t *testing.T, ch <-chan model.NotificationResult) []model.NotificationResult {
	t.Helper()
	var results []model.NotificationResult
	timeout := time.After(2 * time.Second)
	for {
		select {
		case r, ok := <-ch:
			if !ok {
				return results
			}
			results = append(results, r)
		case <-timeout:
			t.Fatal("stream did not close")
		}
	}
}

func TestMessagesDeliversNotificationsAndClosesWhenIdle(t *testing.T) {
	c := newTestConsumer(&fakeReader{responses: []readResult{
		{msg: kafka.Message{Value: []byte(`{"id":"abc","s3Path":"uploads/contacts.csv","status":"Pending","createdAt":"2024-05-01T10:30:00Z"}`)}},
	}})

	results := collect(t, c.Messages(context.Background()))

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "abc", results[0].Notification.ID)
	assert.Equal(t, "uploads/contacts.csv", results[0].Notification.S3Path)
}

func TestMessagesDecodeFailureDoesNotTerminateStream(t *testing.T) {
	c := newTestConsumer(&fakeReader{responses: []readResult{
		{msg: kafka.Message{Value: []byte(`{"status":"Pending"}`)}},
		{msg: kafka.Message{Value: []byte(`{"id":"abc","s3Path":"uploads/contacts.csv"}`)}},
	}})

	results := collect(t, c.Messages(context.Background()))

	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	require.NoError(t, results[1].Err)
	assert.Equal(t, "abc", results[1].Notification.ID)
}

func TestMessagesBrokerErrorDoesNotTerminateStream(t *testing.T) {
	c := newTestConsumer(&fakeReader{responses: []readResult{
		{err: errors.New("broker unreachable")},
		{msg: kafka.Message{Value: []byte(`{"id":"abc","s3Path":"uploads/contacts.csv"}`)}},
	}})

	results := collect(t, c.Messages(context.Background()))

	require.Len(t, results, 2)
	require.Error(t, results[0].Err)
	assert.Contains(t, results[0].Err.Error(), "kafka consume")
	assert.NoError(t, results[1].Err)
}

func TestMessagesClosesOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newTestConsumer(&fakeReader{responses: []readResult{
		{msg: kafka.Message{Value: []byte(`{"id":"abc","s3Path":"uploads/contacts.csv"}`)}},
	}})

	ch := c.Messages(ctx)

	// A cancelled context closes the stream; whether the already-read message
	// squeezes through first is a scheduling race, so only the close matters.
	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("stream did not close on cancellation")
		}
	}
}
