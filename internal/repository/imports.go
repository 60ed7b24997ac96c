package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lfmartins/importflow/internal/model"
)

// ImportRepository wraps all SQL against the imports table. Rows are created
// by the upstream producer; this worker only moves them through the lifecycle.
type ImportRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewImportRepository constructs a repository.
func NewImportRepository(pool *pgxpool.Pool, logger *slog.Logger) *ImportRepository {
	return &ImportRepository{
		pool:   pool,
		logger: logger.With(slog.String("component", "repository")),
	}
}

// IsPending reports whether a Pending row exists for the path. Both "not
// found" and a failed query degrade to false: a store fault must read as
// "already handled" so it can never trigger duplicate downstream work.
func (r *ImportRepository) IsPending(ctx context.Context, s3Path string) bool {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(1) FROM imports WHERE s3_path=$1 AND status=$2
	`, s3Path, model.StatusPending).Scan(&count)
	if err != nil {
		r.logger.Error("pending check failed", slog.String("s3_path", s3Path), slog.Any("error", err))
		return false
	}
	return count > 0
}

// ClaimPending sets the row to Processing only if it is currently Pending and
// reports whether it changed anything, closing the check-then-act window that
// IsPending followed by MarkProcessing leaves open.
func (r *ImportRepository) ClaimPending(ctx context.Context, s3Path string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE imports SET status=$1, processed_at=$2 WHERE s3_path=$3 AND status=$4
	`, model.StatusProcessing, time.Now().UTC(), s3Path, model.StatusPending)
	if err != nil {
		r.logger.Error("claim failed", slog.String("s3_path", s3Path), slog.Any("error", err))
		return false, fmt.Errorf("claim pending import: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkProcessing sets the status to Processing.
func (r *ImportRepository) MarkProcessing(ctx context.Context, s3Path string) error {
	return r.updateStatus(ctx, s3Path, model.StatusProcessing)
}

// MarkProcessed sets the status to Processed.
func (r *ImportRepository) MarkProcessed(ctx context.Context, s3Path string) error {
	return r.updateStatus(ctx, s3Path, model.StatusProcessed)
}

// MarkFailed sets the status to Failed.
func (r *ImportRepository) MarkFailed(ctx context.Context, s3Path string) error {
	return r.updateStatus(ctx, s3Path, model.StatusFailed)
}

// updateStatus is an unconditional write keyed by exact path. The error is
// logged here and also returned so a caller can escalate, though the default
// pipeline treats these transitions as fire-and-forget.
func (r *ImportRepository) updateStatus(ctx context.Context, s3Path string, status model.ImportStatus) error {
	r.logger.Info("status transition",
		slog.String("s3_path", s3Path), slog.String("status", string(status)))
	_, err := r.pool.Exec(ctx, `
		UPDATE imports SET status=$1, processed_at=$2 WHERE s3_path=$3
	`, status, time.Now().UTC(), s3Path)
	if err != nil {
		r.logger.Error("status transition failed",
			slog.String("s3_path", s3Path), slog.String("status", string(status)), slog.Any("error", err))
		return fmt.Errorf("update import status: %w", err)
	}
	return nil
}
