package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

type StandingsView struct {
	ConflictID       string           `json:"conflictId"`
	Kind             string           `json:"kind"`
	Status           string           `json:"status"`
	SecondsRemaining int64            `json:"secondsRemaining"`
	GuildScores      map[string]int64 `json:"guildScores"`
	BossName         string           `json:"bossName,omitempty"`
	BossMaxHealth    int64            `json:"bossMaxHealth,omitempty"`
	BossHealth       int64            `json:"bossHealth,omitempty"`
	ActiveEvent      *ConflictEvent   `json:"activeEvent,omitempty"`
	TopContributors  []ActorTotal     `json:"topContributors"`
}

// GetLiveStandings aggregates the ledger on demand. Scores shown here
// are raw sums; bonus-event weighting applies at settlement.
func GetLiveStandings(db *sql.DB, conflictID string) (*StandingsView, error) {
	c, err := LoadConflict(db, conflictID)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	if c == nil {
		return nil, notFoundError("CONFLICT_NOT_FOUND")
	}

	entries, err := loadContributions(db, conflictID)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	agg := aggregateEntries(entries, "")

	now := time.Now().UTC()
	remaining := int64(c.ExpiresAt.Sub(now).Seconds())
	if remaining < 0 {
		remaining = 0
	}

	view := &StandingsView{
		ConflictID:       c.ConflictID,
		Kind:             c.Kind,
		Status:           c.Status,
		SecondsRemaining: remaining,
		GuildScores:      agg.PerGuild,
	}

	if c.Kind == ConflictKindRaidBoss {
		view.BossName = c.BossName
		view.BossMaxHealth = c.BossMaxHealth
		view.BossHealth = BossHealthRemaining(c, entries)
	}

	if c.Status == ConflictStatusActive {
		event, err := activeConflictEvent(db, conflictID)
		if err == nil {
			view.ActiveEvent = event
		}
	}

	top := topContributors(allActors(agg))
	if len(top) > 10 {
		top = top[:10]
	}
	for _, actor := range top {
		view.TopContributors = append(view.TopContributors, *actor)
	}
	return view, nil
}

// standingsStreamHandler pushes standings snapshots over SSE so open
// clients track a conflict without polling the JSON endpoint.
func standingsStreamHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		conflictID := r.URL.Query().Get("conflictId")
		if !isValidID(conflictID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		sendSnapshot := func() bool {
			view, err := GetLiveStandings(db, conflictID)
			if err != nil {
				return false
			}
			payload, err := json.Marshal(view)
			if err != nil {
				return false
			}
			if _, err := w.Write([]byte("event: standings\n")); err != nil {
				return false
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return false
			}
			if _, err := w.Write(payload); err != nil {
				return false
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return false
			}
			flusher.Flush()
			return true
		}

		if !sendSnapshot() {
			return
		}

		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !sendSnapshot() {
					return
				}
			}
		}
	}
}
