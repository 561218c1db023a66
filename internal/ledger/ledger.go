// Package ledger derives point statistics from a progress record and applies
// point awards to it.
package ledger

import (
	"fmt"
	"math"

	"github.com/dmitrijs2005/bountyhunter/internal/models"
)

// RedemptionAward is the fixed number of points granted for one redemption.
const RedemptionAward int64 = 100

// PointsPerLevel is the width of one level band.
const PointsPerLevel int64 = 100

// Level is floor(currentPoints/100) + 1.
func Level(r *models.ProgressRecord) int64 {
	return r.CurrentPoints/PointsPerLevel + 1
}

// AveragePerTask is lifetimePoints / completedCount rounded half away from
// zero, or 0 before the first completed task.
func AveragePerTask(r *models.ProgressRecord) int64 {
	if r.CompletedCount <= 0 {
		return 0
	}
	return int64(math.Round(float64(r.LifetimePoints) / float64(r.CompletedCount)))
}

// Stats is a read-only view of a record for presentation.
type Stats struct {
	DisplayName     string
	Level           int64
	CompletedCount  int64
	CurrentPoints   int64
	LifetimePoints  int64
	PointsThisMonth int64
	AveragePerTask  int64
}

func Snapshot(r *models.ProgressRecord) Stats {
	return Stats{
		DisplayName:     r.DisplayName,
		Level:           Level(r),
		CompletedCount:  r.CompletedCount,
		CurrentPoints:   r.CurrentPoints,
		LifetimePoints:  r.LifetimePoints,
		PointsThisMonth: r.PointsThisMonth,
		AveragePerTask:  AveragePerTask(r),
	}
}

// CompleteTask credits points to every point counter and counts one more
// completed task. Negative awards are rejected so lifetime points never
// decrease.
func CompleteTask(r *models.ProgressRecord, points int64) error {
	if points < 0 {
		return fmt.Errorf("negative award %d", points)
	}
	r.CurrentPoints += points
	r.LifetimePoints += points
	r.PointsThisMonth += points
	r.CompletedCount++
	return nil
}
