package main

import (
	"database/sql"
	"log"
	"math/rand"
	"time"
)

// Supervisor drives every conflict through its state machine from one
// coordinated loop. It only runs on the instance holding the startup
// lock, so the status compare-and-set is a second line of defense rather
// than the only one.
type Supervisor struct {
	db  *sql.DB
	cfg Config
	rng *rand.Rand
}

func NewSupervisor(db *sql.DB, cfg Config, rng *rand.Rand) *Supervisor {
	return &Supervisor{db: db, cfg: cfg, rng: rng}
}

func (s *Supervisor) Start() {
	ticker := time.NewTicker(s.cfg.PollInterval)

	go func() {
		for t := range ticker.C {
			s.Tick(t.UTC())
		}
	}()
}

func (s *Supervisor) Tick(now time.Time) {
	conflicts, err := ListConflictsByStatus(s.db, ConflictStatusPending, ConflictStatusActive)
	if err != nil {
		log.Println("supervisor: list conflicts failed:", err)
		return
	}

	for _, c := range conflicts {
		switch c.Status {
		case ConflictStatusPending:
			s.activate(c)
		case ConflictStatusActive:
			s.advance(c, now)
		}
	}

	updateTickHeartbeat(s.db, now)
}

func (s *Supervisor) activate(c *Conflict) {
	flipped, err := transitionConflict(s.db, c.ConflictID, ConflictStatusPending, ConflictStatusActive)
	if err != nil {
		log.Println("supervisor: activate failed:", err)
		return
	}
	if flipped {
		log.Println("conflict activated:", c.ConflictID)
	}
}

func (s *Supervisor) advance(c *Conflict, now time.Time) {
	if integrity := checkConflictIntegrity(c, now); integrity != nil {
		log.Println("supervisor: integrity:", integrity.Error())
		// Re-flagged every tick until settlement lands, so rate-limit it.
		emitServerTelemetryWithCooldown(s.db, c.ConflictID, "", "integrity_violation", map[string]interface{}{
			"code":   integrity.Code,
			"detail": integrity.Message,
		}, 10*time.Minute)
		s.finish(c, now, true)
		return
	}

	if c.Kind == ConflictKindRaidBoss {
		entries, err := loadContributions(s.db, c.ConflictID)
		if err != nil {
			log.Println("supervisor: load contributions failed:", err)
			return
		}
		if BossHealthRemaining(c, entries) == 0 {
			// Boss down early: the only way a conflict ends before its
			// fixed expiry.
			s.finish(c, now, false)
			return
		}
	}

	if !now.Before(c.ExpiresAt) {
		s.finish(c, now, false)
		return
	}

	if GetGlobalSettings().EventInjectionEnabled {
		if err := maybeInjectEvent(s.db, c, now, s.rng); err != nil {
			log.Println("supervisor: event injection failed:", err)
		}
	}
}

// finish settles a conflict exactly once: only the observer whose CAS
// lands performs settlement, everyone else sees the flip and walks away.
func (s *Supervisor) finish(c *Conflict, now time.Time, forced bool) {
	entries, err := loadContributions(s.db, c.ConflictID)
	if err != nil {
		log.Println("supervisor: load contributions failed:", err)
		return
	}
	events, err := loadConflictEvents(s.db, c.ConflictID)
	if err != nil {
		log.Println("supervisor: load events failed:", err)
		return
	}

	terminal := ConflictStatusCompleted
	var plan settlementPlan
	if c.Kind == ConflictKindRaidBoss {
		bossDefeated := BossHealthRemaining(c, entries) == 0
		if !bossDefeated {
			terminal = ConflictStatusExpired
		}
		plan = planRaidSettlement(c, aggregateWeighted(entries, events), bossDefeated)
	} else {
		plan = planWarSettlement(c, aggregateWeighted(entries, events))
	}

	flipped, err := transitionConflict(s.db, c.ConflictID, ConflictStatusActive, terminal)
	if err != nil {
		log.Println("supervisor: terminal transition failed:", err)
		return
	}
	if !flipped {
		// Someone else settled it first; nothing left to do.
		return
	}

	if _, err := s.db.Exec(`
		UPDATE conflict_events
		SET status = $2
		WHERE conflict_id = $1 AND status = $3
	`, c.ConflictID, EventStatusExpired, EventStatusActive); err != nil {
		log.Println("supervisor: event close-out failed:", err)
	}

	if err := settleConflict(s.db, c, plan); err != nil {
		log.Println("supervisor: settlement failed:", err)
		emitServerTelemetry(s.db, c.ConflictID, "", "settlement_failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if forced {
		emitServerTelemetry(s.db, c.ConflictID, "", "forced_settlement", map[string]interface{}{
			"status": terminal,
		})
	}
}
