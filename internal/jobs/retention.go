package jobs

import (
	"log/slog"
	"time"

	"github.com/adima959/vl-marketing-tool-sub006/internal/config"
	"github.com/adima959/vl-marketing-tool-sub006/internal/database"
	"github.com/adima959/vl-marketing-tool-sub006/internal/visits"
)

// RetentionJob handles cleanup of visits that aged out of the retention
// window. Attribution only ever scans the requested date range, so rows
// past retention are dead weight in the tracker store.
type RetentionJob struct {
	tracker *database.TrackerManager
	logger  *slog.Logger
	cfg     *config.Config
}

func NewRetentionJob(tracker *database.TrackerManager, logger *slog.Logger, cfg *config.Config) *RetentionJob {
	return &RetentionJob{
		tracker: tracker,
		logger:  logger,
		cfg:     cfg,
	}
}

// Run removes visits older than the configured retention period.
func (j *RetentionJob) Run() error {
	retentionDays := j.cfg.VisitsRetentionDays
	db := j.tracker.GetConnection()
	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	j.logger.Info("Starting cleanup of old visits",
		slog.Int("retention_days", retentionDays),
		slog.Time("cutoff_date", cutoffDate))

	// Count visits to be deleted first
	countToDelete, err := visits.CountBefore(db, cutoffDate)
	if err != nil {
		j.logger.Error("Failed to count old visits", slog.Any("error", err))
		return err
	}

	if countToDelete == 0 {
		j.logger.Debug("No old visits to clean up")
		return nil
	}

	deleted, err := visits.DeleteOlderThan(db, cutoffDate)
	if err != nil {
		j.logger.Error("Failed to delete old visits",
			slog.Any("error", err),
			slog.Int64("deleted_so_far", deleted))
		return err
	}

	j.logger.Info("Cleaned up old visits",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", retentionDays))

	return nil
}
