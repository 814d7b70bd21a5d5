package main

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextEventMilestoneNeverFiresEarly(t *testing.T) {
	fired := map[float64]bool{}
	assert.Equal(t, -1.0, nextEventMilestone(0.0, fired))
	assert.Equal(t, -1.0, nextEventMilestone(0.10, fired))
	assert.Equal(t, -1.0, nextEventMilestone(0.249, fired))
}

func TestNextEventMilestoneFiresInOrder(t *testing.T) {
	fired := map[float64]bool{}
	assert.Equal(t, 0.25, nextEventMilestone(0.30, fired))

	fired[0.25] = true
	assert.Equal(t, -1.0, nextEventMilestone(0.30, fired))
	assert.Equal(t, 0.50, nextEventMilestone(0.55, fired))

	fired[0.50] = true
	fired[0.75] = true
	assert.Equal(t, -1.0, nextEventMilestone(1.0, fired))
}

// A conflict that was idle through early milestones catches up one
// milestone per tick, not all at once.
func TestNextEventMilestoneCatchesUpOneAtATime(t *testing.T) {
	fired := map[float64]bool{}
	assert.Equal(t, 0.25, nextEventMilestone(0.80, fired))
	fired[0.25] = true
	assert.Equal(t, 0.50, nextEventMilestone(0.80, fired))
	fired[0.50] = true
	assert.Equal(t, 0.75, nextEventMilestone(0.80, fired))
	fired[0.75] = true
	assert.Equal(t, -1.0, nextEventMilestone(0.80, fired))
}

func TestPickEventDrawsFromCatalog(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	seen := map[EventType]bool{}
	for i := 0; i < 200; i++ {
		spec := pickEvent(rng)
		_, ok := eventCatalog[spec.Type]
		require.True(t, ok, "picked event %q not in catalog", spec.Type)
		assert.True(t, isValidCategory(spec.TargetCategory))
		assert.Greater(t, spec.Multiplier, 1.0)
		seen[spec.Type] = true
	}
	// Uniform selection over four types should hit all of them in 200 draws.
	assert.Len(t, seen, len(eventCatalog))
}

func TestSortEventTypes(t *testing.T) {
	types := []EventType{EventWarBonds, EventBloodFrenzy, EventSiegeSurge, EventDuelistsHour}
	sortEventTypes(types)
	assert.Equal(t, []EventType{EventBloodFrenzy, EventDuelistsHour, EventSiegeSurge, EventWarBonds}, types)
}

func TestLoadEventCatalogRejectsUnknownType(t *testing.T) {
	err := LoadEventCatalog([]byte("goblin_rush:\n  multiplier: 5.0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestLoadEventCatalogRejectsUnknownCategory(t *testing.T) {
	err := LoadEventCatalog([]byte("blood_frenzy:\n  targetCategory: sabotage\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target category")
}

func TestLoadEventCatalogAppliesOverrides(t *testing.T) {
	original := eventCatalog[EventBloodFrenzy]
	defer func() { eventCatalog[EventBloodFrenzy] = original }()

	err := LoadEventCatalog([]byte("blood_frenzy:\n  multiplier: 2.5\n  durationMinutes: 15\n"))
	require.NoError(t, err)

	spec := eventCatalog[EventBloodFrenzy]
	assert.Equal(t, 2.5, spec.Multiplier)
	assert.Equal(t, 15*time.Minute, spec.Duration)
	// Untouched fields keep their compiled-in values.
	assert.Equal(t, original.TargetCategory, spec.TargetCategory)
	assert.Equal(t, original.TargetGoal, spec.TargetGoal)
}

func TestLoadEventCatalogDefaultFileParses(t *testing.T) {
	snapshot := map[EventType]EventSpec{}
	for k, v := range eventCatalog {
		snapshot[k] = v
	}
	defer func() {
		for k, v := range snapshot {
			eventCatalog[k] = v
		}
	}()

	require.NoError(t, LoadEventCatalog(defaultCatalogYAML))
}
