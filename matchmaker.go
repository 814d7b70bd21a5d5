package main

import (
	"database/sql"
	"math"
	"time"
)

const matchPowerBand = 0.30

type MatchCandidate struct {
	GuildID        string  `json:"guildId"`
	Name           string  `json:"name"`
	Power          float64 `json:"power"`
	RequesterPower float64 `json:"requesterPower"`
	PowerGap       float64 `json:"powerGap"`
}

// findOpponent is the pure core of matchmaking: given the requester, the
// population, and the exclusion set, pick the eligible guild with the
// smallest absolute power difference inside the ±30% band.
func findOpponent(requester Guild, population []Guild, excluded map[string]bool) *MatchCandidate {
	requesterPower := GuildPower(requester)

	var best *MatchCandidate
	for _, g := range population {
		if g.GuildID == requester.GuildID || excluded[g.GuildID] {
			continue
		}
		power := GuildPower(g)
		gap := math.Abs(power - requesterPower)
		if gap > matchPowerBand*requesterPower {
			continue
		}
		if best == nil || gap < best.PowerGap {
			best = &MatchCandidate{
				GuildID:        g.GuildID,
				Name:           g.Name,
				Power:          power,
				RequesterPower: requesterPower,
				PowerGap:       gap,
			}
		}
	}
	return best
}

// busyGuilds returns every guild already a participant in a pending or
// active war.
func busyGuilds(db *sql.DB) (map[string]bool, error) {
	wars, err := ListConflictsByStatus(db, ConflictStatusPending, ConflictStatusActive)
	if err != nil {
		return nil, err
	}
	busy := map[string]bool{}
	for _, c := range wars {
		if c.Kind != ConflictKindGuildWar {
			continue
		}
		busy[c.ChallengerID] = true
		busy[c.OpponentID] = true
	}
	return busy, nil
}

func ProposeMatch(db *sql.DB, guildID string) (*MatchCandidate, error) {
	requester, err := LoadGuild(db, guildID)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	if requester == nil {
		return nil, notFoundError("GUILD_NOT_FOUND")
	}

	busy, err := busyGuilds(db)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	if busy[guildID] {
		return nil, stateConflictError("ALREADY_AT_WAR")
	}

	shielded, err := shieldedGuilds(db, time.Now().UTC())
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	for id := range shielded {
		busy[id] = true
	}

	population, err := ListGuilds(db)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}

	candidate := findOpponent(*requester, population, busy)
	if candidate == nil {
		// Soft failure, not an exception: the caller just retries later.
		return nil, notFoundError("NO_ELIGIBLE_OPPONENT")
	}
	return candidate, nil
}

// CreateWar is the explicit confirm step after ProposeMatch. The busy
// re-check is a best-effort race guard; the live-pair unique index is
// what actually keeps two simultaneous confirms from both landing.
func CreateWar(db *sql.DB, challengerID, opponentID string, prizePool int64, duration time.Duration) (*Conflict, error) {
	busy, err := busyGuilds(db)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	if busy[challengerID] || busy[opponentID] {
		return nil, stateConflictError("ALREADY_AT_WAR")
	}

	c, err := insertWar(db, challengerID, opponentID, prizePool, duration, ConflictStatusPending)
	if err != nil {
		return nil, err
	}
	// Matchmaking-accept wars go live immediately. The supervisor picks
	// up any row left pending between these two statements.
	if flipped, err := transitionConflict(db, c.ConflictID, ConflictStatusPending, ConflictStatusActive); err == nil && flipped {
		c.Status = ConflictStatusActive
	}
	return c, nil
}
