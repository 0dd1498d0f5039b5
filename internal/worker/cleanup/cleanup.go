// Package cleanup provides the auth hygiene job: periodic deletion of
// expired sessions and expired or consumed password reset tokens.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dquezada/titula/internal/repository"
)

// CleanupJob deletes expired auth artifacts. Designed as a periodic
// batch job; every run is idempotent.
type CleanupJob struct {
	cleaner repository.ExpiredCleaner
	logger  *slog.Logger
}

// NewCleanupJob builds a CleanupJob.
func NewCleanupJob(cleaner repository.ExpiredCleaner, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		cleaner: cleaner,
		logger:  logger,
	}
}

// Run deletes every session past its expiry and every reset token that
// has expired or was already consumed. Running with nothing to delete is
// not an error.
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	now := time.Now()

	sessions, err := j.cleaner.DeleteExpiredSessions(ctx, now)
	if err != nil {
		j.logger.Error("session cleanup failed",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	tokens, err := j.cleaner.DeleteExpiredResetTokens(ctx, now)
	if err != nil {
		j.logger.Error("reset token cleanup failed",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}

	j.logger.Info("auth cleanup completed",
		slog.Int64("deleted_sessions", sessions),
		slog.Int64("deleted_reset_tokens", tokens),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}
