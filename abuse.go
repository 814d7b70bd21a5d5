package main

import (
	"database/sql"
	"time"
)

// AbuseGuard fronts the anti-abuse collaborator. It is constructed once
// and injected; a deny blocks the ledger write and surfaces a reason
// code, never a fatal error. Scoring internals stay out of the engine.
type AbuseGuard struct {
	db           *sql.DB
	minInterval  map[string]time.Duration
	maxMagnitude map[string]int64
}

func NewAbuseGuard(db *sql.DB) *AbuseGuard {
	return &AbuseGuard{
		db: db,
		minInterval: map[string]time.Duration{
			CategoryPvPVictory: 30 * time.Second,
			CategoryDonation:   5 * time.Second,
			CategoryAttack:     2 * time.Second,
		},
		maxMagnitude: map[string]int64{
			CategoryPvPVictory: 1,
			CategoryDonation:   10000,
			CategoryAttack:     5000,
		},
	}
}

// CheckRateLimit rejects an action arriving faster than the per-category
// floor, judged against the actor's latest ledger row.
func (g *AbuseGuard) CheckRateLimit(playerID, category string) error {
	minInterval, ok := g.minInterval[category]
	if !ok || minInterval <= 0 {
		return nil
	}

	var last time.Time
	err := g.db.QueryRow(`
		SELECT created_at
		FROM contributions
		WHERE player_id = $1 AND category = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, playerID, category).Scan(&last)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return transientError("STORE_UNAVAILABLE", err)
	}

	if time.Since(last) < minInterval {
		emitServerTelemetry(g.db, "", playerID, "abuse_rate_limited", map[string]interface{}{
			"category": category,
		})
		return stateConflictError("RATE_LIMITED")
	}
	return nil
}

// ValidateAction bounds a contribution's magnitude per category.
func (g *AbuseGuard) ValidateAction(playerID, category string, magnitude int64) error {
	limit, ok := g.maxMagnitude[category]
	if !ok {
		return nil
	}
	if magnitude > limit {
		emitServerTelemetry(g.db, "", playerID, "abuse_action_rejected", map[string]interface{}{
			"category":  category,
			"magnitude": magnitude,
			"limit":     limit,
		})
		return userFacingError("ACTION_REJECTED", "magnitude exceeds category limit")
	}
	return nil
}
