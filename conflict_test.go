package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictIsTerminal(t *testing.T) {
	c := &Conflict{Status: ConflictStatusPending}
	assert.False(t, c.IsTerminal())
	c.Status = ConflictStatusActive
	assert.False(t, c.IsTerminal())
	c.Status = ConflictStatusCompleted
	assert.True(t, c.IsTerminal())
	c.Status = ConflictStatusExpired
	assert.True(t, c.IsTerminal())
}

func TestConflictProgress(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := &Conflict{CreatedAt: start, ExpiresAt: start.Add(10 * time.Hour)}

	assert.Equal(t, 0.0, c.Progress(start))
	assert.Equal(t, 0.5, c.Progress(start.Add(5*time.Hour)))
	assert.Equal(t, 1.0, c.Progress(start.Add(10*time.Hour)))

	// Clamped outside the window.
	assert.Equal(t, 0.0, c.Progress(start.Add(-time.Hour)))
	assert.Equal(t, 1.0, c.Progress(start.Add(20*time.Hour)))
}

func TestConflictProgressDegenerateWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := &Conflict{CreatedAt: start, ExpiresAt: start}
	assert.Equal(t, 1.0, c.Progress(start))
}

func TestCheckConflictIntegrity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	healthy := &Conflict{
		ConflictID:   "war-1",
		Kind:         ConflictKindGuildWar,
		ChallengerID: "g1",
		OpponentID:   "g2",
		Status:       ConflictStatusActive,
		CreatedAt:    now.Add(-time.Hour),
		ExpiresAt:    now.Add(time.Hour),
	}
	assert.Nil(t, checkConflictIntegrity(healthy, now))

	malformed := &Conflict{
		ConflictID: "war-2",
		Status:     ConflictStatusActive,
		CreatedAt:  now,
		ExpiresAt:  now.Add(-time.Hour),
	}
	err := checkConflictIntegrity(malformed, now)
	require.NotNil(t, err)
	assert.Equal(t, "MALFORMED_EXPIRY", err.Code)
	assert.Equal(t, ErrIntegrity, err.Kind)
}

func TestCheckConflictIntegrityStaleActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stale := &Conflict{
		ConflictID: "war-3",
		Kind:       ConflictKindGuildWar,
		Status:     ConflictStatusActive,
		CreatedAt:  now.Add(-24 * time.Hour),
		ExpiresAt:  now.Add(-time.Hour),
	}
	err := checkConflictIntegrity(stale, now)
	require.NotNil(t, err)
	assert.Equal(t, "STALE_ACTIVE_CONFLICT", err.Code)

	// Just past expiry is the supervisor's normal settlement path, not
	// an integrity violation.
	recent := &Conflict{
		ConflictID: "war-4",
		Kind:       ConflictKindGuildWar,
		Status:     ConflictStatusActive,
		CreatedAt:  now.Add(-24 * time.Hour),
		ExpiresAt:  now.Add(-time.Minute),
	}
	assert.Nil(t, checkConflictIntegrity(recent, now))
}

func TestCheckConflictIntegrityBossHealth(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raid := &Conflict{
		ConflictID:    "raid-1",
		Kind:          ConflictKindRaidBoss,
		ChallengerID:  "world",
		BossMaxHealth: 0,
		Status:        ConflictStatusActive,
		CreatedAt:     now.Add(-time.Hour),
		ExpiresAt:     now.Add(time.Hour),
	}
	err := checkConflictIntegrity(raid, now)
	require.NotNil(t, err)
	assert.Equal(t, "MALFORMED_BOSS_HEALTH", err.Code)

	raid.BossMaxHealth = 100000
	assert.Nil(t, checkConflictIntegrity(raid, now))
}
