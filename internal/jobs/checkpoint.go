package jobs

import (
	"log/slog"

	"github.com/adima959/vl-marketing-tool-sub006/internal/database"
)

// CheckpointJob periodically folds the tracker's WAL back into the main
// database file. The tracker is write-light but long-running; without a
// periodic checkpoint the WAL can outgrow the database between restarts.
type CheckpointJob struct {
	tracker *database.TrackerManager
	logger  *slog.Logger
}

func NewCheckpointJob(tracker *database.TrackerManager, logger *slog.Logger) *CheckpointJob {
	return &CheckpointJob{
		tracker: tracker,
		logger:  logger,
	}
}

// Run performs a passive checkpoint. PASSIVE never blocks readers, so a
// drill-down report in flight is unaffected; pages that cannot be moved
// yet are picked up on the next tick.
func (j *CheckpointJob) Run() error {
	if err := j.tracker.CheckpointWAL("PASSIVE"); err != nil {
		j.logger.Error("WAL checkpoint failed", slog.Any("error", err))
		return err
	}

	j.logger.Debug("WAL checkpoint completed")
	return nil
}
