package staleness

import (
	"time"

	"github.com/example/mulch/internal/models"
)

// PrunePlanInput contains pre-fetched data for planning a prune of one domain.
type PrunePlanInput struct {
	Records   []models.Record
	Now       time.Time
	ShelfLife ShelfLife
}

// PrunePlan partitions a domain's records. Kept preserves file order.
type PrunePlan struct {
	Kept    []models.Record
	Expired []models.Record
}

// Changed reports whether applying the plan would rewrite the file.
func (p PrunePlan) Changed() bool {
	return len(p.Expired) > 0
}

// GeneratePrunePlan partitions records into kept and expired.
// This is a pure function - all input data must be pre-fetched.
func GeneratePrunePlan(input PrunePlanInput) PrunePlan {
	plan := PrunePlan{
		Kept: make([]models.Record, 0, len(input.Records)),
	}
	for _, r := range input.Records {
		if IsStale(r, input.Now, input.ShelfLife) {
			plan.Expired = append(plan.Expired, r)
			continue
		}
		plan.Kept = append(plan.Kept, r)
	}
	return plan
}
