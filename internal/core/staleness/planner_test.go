package staleness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/mulch/internal/models"
)

func labelled(label string, c models.Classification, age time.Duration) models.Record {
	r := recordAged(c, age)
	r.Body = models.Convention{Content: label}
	return r
}

func TestGeneratePrunePlan(t *testing.T) {
	sl := ShelfLife{Tactical: 14, Observational: 30}
	records := []models.Record{
		labelled("a", models.Foundational, 400*day),
		labelled("b", models.Tactical, 20*day),
		labelled("c", models.Observational, 5*day),
		labelled("d", models.Observational, 40*day),
		labelled("e", models.Tactical, 1*day),
	}

	plan := GeneratePrunePlan(PrunePlanInput{Records: records, Now: now, ShelfLife: sl})

	assert.True(t, plan.Changed())
	assert.Equal(t, []string{"a", "c", "e"}, summaries(plan.Kept), "kept must preserve file order")
	assert.Equal(t, []string{"b", "d"}, summaries(plan.Expired))
}

func TestGeneratePrunePlan_Idempotent(t *testing.T) {
	sl := ShelfLife{Tactical: 14, Observational: 30}
	records := []models.Record{
		labelled("a", models.Tactical, 20*day),
		labelled("b", models.Tactical, 2*day),
	}

	first := GeneratePrunePlan(PrunePlanInput{Records: records, Now: now, ShelfLife: sl})
	second := GeneratePrunePlan(PrunePlanInput{Records: first.Kept, Now: now, ShelfLife: sl})

	assert.Len(t, first.Expired, 1)
	assert.False(t, second.Changed())
	assert.Equal(t, first.Kept, second.Kept)
}

func TestGeneratePrunePlan_Empty(t *testing.T) {
	plan := GeneratePrunePlan(PrunePlanInput{Now: now})
	assert.False(t, plan.Changed())
	assert.Empty(t, plan.Kept)
	assert.Empty(t, plan.Expired)
}

func summaries(records []models.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Summary())
	}
	return out
}
