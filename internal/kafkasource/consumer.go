// Package kafkasource turns a Kafka consumer-group subscription into a lazy,
// pull-based stream of decoded file notifications.
package kafkasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lfmartins/importflow/internal/config"
	"github.com/lfmartins/importflow/internal/model"
)

// messageReader is the subset of kafka.Reader the consumer depends on.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads file-arrival notifications from the configured topic.
// Offsets commit on read, so delivery is at-least-once and the pipeline's own
// pending check handles redelivery.
type Consumer struct {
	reader   messageReader
	idleWait time.Duration
	logger   *slog.Logger
}

// New constructs a consumer joined to the worker's consumer group.
func New(cfg *config.Config, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		GroupID:     cfg.KafkaGroupID,
		Topic:       cfg.KafkaTopic,
		StartOffset: kafka.FirstOffset,
	})
	return &Consumer{
		reader:   reader,
		idleWait: cfg.SourceIdleWait,
		logger:   logger.With(slog.String("component", "kafkasource")),
	}
}

// Close releases the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Messages returns a channel of notification results for one cycle. The
// channel closes when the topic yields nothing within the idle wait (the
// cycle's worth of messages is exhausted) or when ctx is cancelled. Broker and
// decode failures are delivered as error items, never by terminating the
// stream.
func (c *Consumer) Messages(ctx context.Context) <-chan model.NotificationResult {
	out := make(chan model.NotificationResult)
	go func() {
		defer close(out)
		for {
			fetchCtx, cancel := context.WithTimeout(ctx, c.idleWait)
			msg, err := c.reader.ReadMessage(fetchCtx)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					c.logger.Info("consume cancelled")
					return
				}
				if errors.Is(err, context.DeadlineExceeded) {
					return
				}
				c.logger.Error("kafka consume error", slog.Any("error", err))
				if !emit(ctx, out, model.NotificationResult{Err: fmt.Errorf("kafka consume: %w", err)}) {
					return
				}
				continue
			}

			notification, err := model.DecodeNotification(msg.Value)
			if err != nil {
				if !emit(ctx, out, model.NotificationResult{Err: err}) {
					return
				}
				continue
			}
			if !emit(ctx, out, model.NotificationResult{Notification: notification}) {
				return
			}
		}
	}()
	return out
}

func emit(ctx context.Context, out chan<- model.NotificationResult, r model.NotificationResult) bool {
	select {
	case out <- r:
		return true
	case <-ctx.Done():
		return false
	}
}
