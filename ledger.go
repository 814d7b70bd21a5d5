package main

import (
	"database/sql"
	"time"
)

const (
	CategoryPvPVictory = "pvp_victory"
	CategoryDonation   = "resource_donation"
	CategoryAttack     = "attack"
)

var contributionCategories = []string{
	CategoryPvPVictory,
	CategoryDonation,
	CategoryAttack,
}

func isValidCategory(category string) bool {
	for _, c := range contributionCategories {
		if c == category {
			return true
		}
	}
	return false
}

type ContributionEntry struct {
	ID         int64     `json:"id"`
	ConflictID string    `json:"conflictId"`
	PlayerID   string    `json:"playerId"`
	GuildID    string    `json:"guildId"`
	Category   string    `json:"category"`
	Magnitude  int64     `json:"magnitude"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AppendContribution is the only write path into the ledger. Entries are
// immutable once written; everything downstream recomputes aggregates
// from the full set instead of keeping running totals.
func AppendContribution(db *sql.DB, guard *AbuseGuard, conflictID, playerID, guildID, category string, magnitude int64) (*ContributionEntry, error) {
	if !isValidCategory(category) {
		return nil, userFacingError("UNKNOWN_CATEGORY", "unknown contribution category: "+category)
	}
	if magnitude <= 0 {
		return nil, userFacingError("INVALID_MAGNITUDE", "magnitude must be positive")
	}

	conflict, err := LoadConflict(db, conflictID)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	if conflict == nil {
		return nil, notFoundError("CONFLICT_NOT_FOUND")
	}
	if conflict.Status != ConflictStatusActive {
		return nil, stateConflictError("CONFLICT_NOT_ACTIVE")
	}

	if guard != nil {
		if err := guard.CheckRateLimit(playerID, category); err != nil {
			return nil, err
		}
		if err := guard.ValidateAction(playerID, category, magnitude); err != nil {
			return nil, err
		}
	}

	entry := &ContributionEntry{
		ConflictID: conflictID,
		PlayerID:   playerID,
		GuildID:    guildID,
		Category:   category,
		Magnitude:  magnitude,
		CreatedAt:  time.Now().UTC(),
	}
	err = db.QueryRow(`
		INSERT INTO contributions (conflict_id, player_id, guild_id, category, magnitude, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, entry.ConflictID, entry.PlayerID, entry.GuildID, entry.Category, entry.Magnitude, entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}

	recordEventProgress(db, conflictID, guildID, category, magnitude)
	return entry, nil
}

func loadContributions(db *sql.DB, conflictID string) ([]ContributionEntry, error) {
	rows, err := db.Query(`
		SELECT id, conflict_id, player_id, guild_id, category, magnitude, created_at
		FROM contributions
		WHERE conflict_id = $1
		ORDER BY created_at, id
	`, conflictID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ContributionEntry
	for rows.Next() {
		var e ContributionEntry
		if err := rows.Scan(&e.ID, &e.ConflictID, &e.PlayerID, &e.GuildID, &e.Category, &e.Magnitude, &e.CreatedAt); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type ActorTotal struct {
	PlayerID string    `json:"playerId"`
	GuildID  string    `json:"guildId"`
	Score    int64     `json:"score"`
	FirstAt  time.Time `json:"firstAt"`
}

type LedgerAggregate struct {
	PerActor map[string]*ActorTotal `json:"perActor"`
	PerGuild map[string]int64       `json:"perGuild"`
}

// aggregateEntries sums magnitudes per actor and per guild. Addition is
// commutative, so the result is independent of write order.
func aggregateEntries(entries []ContributionEntry, category string) LedgerAggregate {
	agg := LedgerAggregate{
		PerActor: map[string]*ActorTotal{},
		PerGuild: map[string]int64{},
	}
	for _, e := range entries {
		if category != "" && e.Category != category {
			continue
		}
		total, ok := agg.PerActor[e.PlayerID]
		if !ok {
			total = &ActorTotal{PlayerID: e.PlayerID, GuildID: e.GuildID, FirstAt: e.CreatedAt}
			agg.PerActor[e.PlayerID] = total
		}
		total.Score += e.Magnitude
		if e.CreatedAt.Before(total.FirstAt) {
			total.FirstAt = e.CreatedAt
		}
		agg.PerGuild[e.GuildID] += e.Magnitude
	}
	return agg
}

// aggregateWeighted applies bonus-event multipliers at read time: an
// entry whose category matches an event's target, written inside that
// event's window, counts at the boosted rate. Raw ledger rows are never
// rewritten.
func aggregateWeighted(entries []ContributionEntry, events []ConflictEvent) LedgerAggregate {
	agg := LedgerAggregate{
		PerActor: map[string]*ActorTotal{},
		PerGuild: map[string]int64{},
	}
	for _, e := range entries {
		magnitude := e.Magnitude
		for _, ev := range events {
			if ev.TargetCategory != e.Category {
				continue
			}
			if e.CreatedAt.Before(ev.StartsAt) || !e.CreatedAt.Before(ev.ExpiresAt) {
				continue
			}
			magnitude = int64(float64(e.Magnitude) * ev.Multiplier)
			break
		}
		total, ok := agg.PerActor[e.PlayerID]
		if !ok {
			total = &ActorTotal{PlayerID: e.PlayerID, GuildID: e.GuildID, FirstAt: e.CreatedAt}
			agg.PerActor[e.PlayerID] = total
		}
		total.Score += magnitude
		if e.CreatedAt.Before(total.FirstAt) {
			total.FirstAt = e.CreatedAt
		}
		agg.PerGuild[e.GuildID] += magnitude
	}
	return agg
}

func AggregateContributions(db *sql.DB, conflictID, category string) (LedgerAggregate, error) {
	entries, err := loadContributions(db, conflictID)
	if err != nil {
		return LedgerAggregate{}, transientError("STORE_UNAVAILABLE", err)
	}
	return aggregateEntries(entries, category), nil
}

// BossHealthRemaining derives raid boss health from raw attack damage.
// Event multipliers are reward metadata only and do not speed the kill.
func BossHealthRemaining(c *Conflict, entries []ContributionEntry) int64 {
	var damage int64
	for _, e := range entries {
		if e.Category == CategoryAttack {
			damage += e.Magnitude
		}
	}
	remaining := c.BossMaxHealth - damage
	if remaining < 0 {
		return 0
	}
	return remaining
}
