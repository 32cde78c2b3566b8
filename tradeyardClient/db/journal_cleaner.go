package db

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// JournalCleaner periodically removes finished operations older than the
// retention period.
type JournalCleaner struct {
	db              *DB
	logger          zerolog.Logger
	stopCh          chan struct{}
	cleanupInterval time.Duration
	retentionPeriod time.Duration
}

// NewJournalCleaner creates a new journal cleaner
func NewJournalCleaner(db *DB, cleanupInterval, retentionPeriod time.Duration, logger zerolog.Logger) *JournalCleaner {
	return &JournalCleaner{
		db:              db,
		cleanupInterval: cleanupInterval,
		retentionPeriod: retentionPeriod,
		logger:          logger.With().Str("component", "journal_cleaner").Logger(),
		stopCh:          make(chan struct{}),
	}
}

// Start performs one cleanup and then repeats it every cleanup interval
// until ctx is cancelled or Stop is called.
func (jc *JournalCleaner) Start(ctx context.Context) {
	jc.logger.Info().
		Dur("cleanup_interval", jc.cleanupInterval).
		Dur("retention_period", jc.retentionPeriod).
		Msg("starting journal cleaner")

	if _, err := jc.PerformCleanup(); err != nil {
		jc.logger.Error().Err(err).Msg("failed to perform initial cleanup")
	}

	ticker := time.NewTicker(jc.cleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				jc.logger.Info().Msg("context cancelled, stopping journal cleaner")
				return
			case <-jc.stopCh:
				jc.logger.Info().Msg("stop signal received, stopping journal cleaner")
				return
			case <-ticker.C:
				if _, err := jc.PerformCleanup(); err != nil {
					jc.logger.Error().Err(err).Msg("failed to perform scheduled cleanup")
				}
			}
		}
	}()
}

// Stop stops the cleaner. It must be called at most once.
func (jc *JournalCleaner) Stop() {
	close(jc.stopCh)
}

// PerformCleanup deletes expired operations and returns how many were removed.
func (jc *JournalCleaner) PerformCleanup() (int64, error) {
	start := time.Now()
	deleted, err := jc.db.DeleteOperationsBefore(start.Add(-jc.retentionPeriod))
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		jc.logger.Info().
			Int64("deleted_count", deleted).
			Dur("duration", time.Since(start)).
			Msg("journal cleanup completed")
	}
	return deleted, nil
}
