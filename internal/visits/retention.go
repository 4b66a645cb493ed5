package visits

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// retentionBatchSize bounds each delete statement so cleanup never holds the
// write lock for long stretches.
const retentionBatchSize = 1000

// DeleteOlderThan removes visits that occurred before the cutoff, in
// batches. It returns the number of rows removed.
func DeleteOlderThan(db *gorm.DB, cutoff time.Time) (int64, error) {
	var totalDeleted int64

	for {
		result := db.Where("occurred_at < ?", cutoff).
			Limit(retentionBatchSize).
			Delete(&Visit{})
		if result.Error != nil {
			return totalDeleted, fmt.Errorf("deleting visits before %s: %w", cutoff.Format(time.RFC3339), result.Error)
		}

		totalDeleted += result.RowsAffected
		if result.RowsAffected < int64(retentionBatchSize) {
			return totalDeleted, nil
		}

		time.Sleep(100 * time.Millisecond)
	}
}

// CountBefore returns how many visits occurred before the cutoff.
func CountBefore(db *gorm.DB, cutoff time.Time) (int64, error) {
	var count int64
	err := db.Model(&Visit{}).Where("occurred_at < ?", cutoff).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting visits before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return count, nil
}
