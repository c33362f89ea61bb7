// Package staleness contains the pure expiry policy for expertise records.
// Foundational records never expire; tactical and observational records
// expire once their whole-day age exceeds the configured shelf life.
package staleness

import (
	"math"
	"time"

	"github.com/example/mulch/internal/models"
)

const day = 24 * time.Hour

// ShelfLife holds the day-count thresholds for non-foundational tiers.
type ShelfLife struct {
	Tactical      int
	Observational int
}

// AgeInDays returns the whole days elapsed between recording and now.
// Partial days round down, so a record from 23h59m ago has age 0.
func AgeInDays(r models.Record, now time.Time) int {
	return int(math.Floor(float64(now.Sub(r.RecordedAt)) / float64(day)))
}

// IsStale reports whether r has outlived the shelf life of its classification.
// Unknown classifications are never stale.
func IsStale(r models.Record, now time.Time, sl ShelfLife) bool {
	switch r.Classification {
	case models.Tactical:
		return AgeInDays(r, now) > sl.Tactical
	case models.Observational:
		return AgeInDays(r, now) > sl.Observational
	default:
		return false
	}
}
