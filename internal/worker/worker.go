// Package worker drives file-arrival notifications through the
// fetch-validate-record pipeline.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lfmartins/importflow/internal/csvval"
	"github.com/lfmartins/importflow/internal/model"
)

// Source yields one cycle's worth of notifications per call. The returned
// channel closes when the cycle is exhausted or the context is cancelled.
type Source interface {
	Messages(ctx context.Context) <-chan model.NotificationResult
}

// StatusStore records the lifecycle of each file, keyed by storage path.
type StatusStore interface {
	IsPending(ctx context.Context, s3Path string) bool
	ClaimPending(ctx context.Context, s3Path string) (bool, error)
	MarkProcessing(ctx context.Context, s3Path string) error
	MarkProcessed(ctx context.Context, s3Path string) error
	MarkFailed(ctx context.Context, s3Path string) error
}

// BlobFetcher resolves a storage path to file content.
type BlobFetcher interface {
	Download(ctx context.Context, s3Path string) ([]byte, error)
}

// Validator checks a payload against the contact field rules.
type Validator interface {
	Validate(data []byte) csvval.Outcome
}

// Worker is the pipeline orchestrator. One notification is fully resolved
// before the next is pulled; nothing in a cycle is fatal to the loop.
type Worker struct {
	source      Source
	store       StatusStore
	fetcher     BlobFetcher
	validator   Validator
	interval    time.Duration
	strictClaim bool
	logger      *slog.Logger
}

// Option adjusts worker behavior.
type Option func(*Worker)

// WithInterval overrides the delay between cycles.
func WithInterval(d time.Duration) Option {
	return func(w *Worker) { w.interval = d }
}

// WithStrictClaim switches the pending guard to the conditional
// Pending-to-Processing update, closing the check-then-act race between
// concurrent worker instances.
func WithStrictClaim() Option {
	return func(w *Worker) { w.strictClaim = true }
}

// New constructs a Worker.
func New(source Source, store StatusStore, fetcher BlobFetcher, validator Validator, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		source:    source,
		store:     store,
		fetcher:   fetcher,
		validator: validator,
		interval:  15 * time.Minute,
		logger:    logger.With(slog.String("component", "worker")),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes cycles until the context is cancelled. Each cycle drains the
// source, then sleeps the configured interval; cancellation during the sleep
// exits immediately.
func (w *Worker) Run(ctx context.Context) error {
	for {
		logger := w.logger.With(slog.String("cycle", uuid.NewString()))
		logger.Info("cycle started")
		w.runCycle(ctx, logger)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Info("cycle finished, waiting", slog.Duration("interval", w.interval))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.interval):
		}
	}
}

func (w *Worker) runCycle(ctx context.Context, logger *slog.Logger) {
	for result := range w.source.Messages(ctx) {
		if ctx.Err() != nil {
			return
		}
		if result.Err != nil {
			logger.Warn("skipping invalid message", slog.Any("error", result.Err))
			continue
		}
		notification := result.Notification
		if strings.TrimSpace(notification.S3Path) == "" {
			logger.Warn("skipping notification without storage path", slog.String("id", notification.ID))
			continue
		}
		logger.Info("processing notification",
			slog.String("id", notification.ID),
			slog.String("s3_path", notification.S3Path),
			slog.String("status", string(notification.Status)))

		if !w.claim(ctx, notification.S3Path) {
			logger.Info("file already handled", slog.String("id", notification.ID))
			continue
		}

		if err := w.processFile(ctx, notification); err != nil {
			// Transition writes are fire-and-forget: the store logs its
			// own failures and the loop moves on either way.
			_ = w.store.MarkFailed(ctx, notification.S3Path)
			logger.Error("processing failed", slog.String("id", notification.ID), slog.Any("error", err))
			continue
		}
		_ = w.store.MarkProcessed(ctx, notification.S3Path)
		logger.Info("file processed", slog.String("id", notification.ID))
	}
}

// claim marks the file as Processing and reports whether this worker owns it.
// The default path reproduces the original check-then-act pair; strict mode
// collapses both into one conditional update.
func (w *Worker) claim(ctx context.Context, s3Path string) bool {
	if w.strictClaim {
		claimed, err := w.store.ClaimPending(ctx, s3Path)
		return err == nil && claimed
	}
	if !w.store.IsPending(ctx, s3Path) {
		return false
	}
	// Marking before the fetch means a crash mid-download leaves the row in
	// Processing, a detectable stuck state, instead of silently Pending.
	_ = w.store.MarkProcessing(ctx, s3Path)
	return true
}

// processFile is the fault boundary around fetch and validate: any error or
// panic inside it resolves to a Failed transition in the caller, never a
// crashed cycle.
func (w *Worker) processFile(ctx context.Context, notification model.FileNotification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processing panic: %v", r)
		}
	}()
	data, err := w.fetcher.Download(ctx, notification.S3Path)
	if err != nil {
		return fmt.Errorf("download %s: %w", notification.S3Path, err)
	}
	outcome := w.validator.Validate(data)
	if !outcome.OK {
		return fmt.Errorf("validation failed: %s", outcome.Message)
	}
	return nil
}
