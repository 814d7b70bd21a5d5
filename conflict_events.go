package main

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	EventStatusActive  = "active"
	EventStatusExpired = "expired"
)

// EventType is a closed enumeration. Adding a bonus event means adding a
// constant and a catalog row here, not a runtime key.
type EventType string

const (
	EventBloodFrenzy  EventType = "blood_frenzy"
	EventWarBonds     EventType = "war_bonds"
	EventDuelistsHour EventType = "duelists_hour"
	EventSiegeSurge   EventType = "siege_surge"
)

type EventSpec struct {
	Type           EventType
	Name           string
	TargetCategory string
	Multiplier     float64
	Duration       time.Duration
	TargetGoal     int64
}

var eventCatalog = map[EventType]EventSpec{
	EventBloodFrenzy: {
		Type:           EventBloodFrenzy,
		Name:           "Blood Frenzy",
		TargetCategory: CategoryAttack,
		Multiplier:     2.0,
		Duration:       30 * time.Minute,
		TargetGoal:     1000,
	},
	EventWarBonds: {
		Type:           EventWarBonds,
		Name:           "War Bonds",
		TargetCategory: CategoryDonation,
		Multiplier:     3.0,
		Duration:       20 * time.Minute,
		TargetGoal:     500,
	},
	EventDuelistsHour: {
		Type:           EventDuelistsHour,
		Name:           "Duelists' Hour",
		TargetCategory: CategoryPvPVictory,
		Multiplier:     2.0,
		Duration:       45 * time.Minute,
		TargetGoal:     25,
	},
	EventSiegeSurge: {
		Type:           EventSiegeSurge,
		Name:           "Siege Surge",
		TargetCategory: CategoryAttack,
		Multiplier:     1.5,
		Duration:       60 * time.Minute,
		TargetGoal:     2000,
	},
}

//go:embed event_catalog.yaml
var defaultCatalogYAML []byte

type catalogOverride struct {
	Name            string  `yaml:"name"`
	TargetCategory  string  `yaml:"targetCategory"`
	Multiplier      float64 `yaml:"multiplier"`
	DurationMinutes int     `yaml:"durationMinutes"`
	TargetGoal      int64   `yaml:"targetGoal"`
}

// LoadEventCatalog overlays tuning values from YAML onto the compiled-in
// catalog. Only known event types may appear; an unknown key is a
// configuration error, not a new event.
func LoadEventCatalog(raw []byte) error {
	overrides := map[string]catalogOverride{}
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return err
	}
	for key, override := range overrides {
		spec, ok := eventCatalog[EventType(key)]
		if !ok {
			return fmt.Errorf("unknown event type in catalog: %s", key)
		}
		if override.Multiplier > 0 {
			spec.Multiplier = override.Multiplier
		}
		if override.DurationMinutes > 0 {
			spec.Duration = time.Duration(override.DurationMinutes) * time.Minute
		}
		if override.TargetGoal > 0 {
			spec.TargetGoal = override.TargetGoal
		}
		if override.Name != "" {
			spec.Name = override.Name
		}
		if override.TargetCategory != "" {
			if !isValidCategory(override.TargetCategory) {
				return fmt.Errorf("unknown target category for %s: %s", key, override.TargetCategory)
			}
			spec.TargetCategory = override.TargetCategory
		}
		eventCatalog[EventType(key)] = spec
	}
	return nil
}

var eventMilestones = []float64{0.25, 0.50, 0.75}

type ConflictEvent struct {
	EventID        string           `json:"eventId"`
	ConflictID     string           `json:"conflictId"`
	Type           EventType        `json:"eventType"`
	Name           string           `json:"name"`
	Multiplier     float64          `json:"multiplier"`
	TargetCategory string           `json:"targetCategory"`
	TargetGoal     int64            `json:"targetGoal"`
	Milestone      float64          `json:"milestone"`
	Status         string           `json:"status"`
	Progress       map[string]int64 `json:"progress"`
	StartsAt       time.Time        `json:"startsAt"`
	ExpiresAt      time.Time        `json:"expiresAt"`
}

func loadConflictEvents(db *sql.DB, conflictID string) ([]ConflictEvent, error) {
	rows, err := db.Query(`
		SELECT event_id, conflict_id, event_type, multiplier, target_category,
			target_goal, milestone, status, starts_at, expires_at
		FROM conflict_events
		WHERE conflict_id = $1
		ORDER BY starts_at
	`, conflictID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ConflictEvent
	for rows.Next() {
		var ev ConflictEvent
		if err := rows.Scan(&ev.EventID, &ev.ConflictID, &ev.Type, &ev.Multiplier,
			&ev.TargetCategory, &ev.TargetGoal, &ev.Milestone, &ev.Status,
			&ev.StartsAt, &ev.ExpiresAt); err != nil {
			continue
		}
		if spec, ok := eventCatalog[ev.Type]; ok {
			ev.Name = spec.Name
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func activeConflictEvent(db *sql.DB, conflictID string) (*ConflictEvent, error) {
	events, err := loadConflictEvents(db, conflictID)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].Status == EventStatusActive {
			ev := events[i]
			progress, err := loadEventProgress(db, ev.EventID)
			if err == nil {
				ev.Progress = progress
			}
			return &ev, nil
		}
	}
	return nil, nil
}

// nextEventMilestone picks the first unattained milestone at or below
// the current progress, or -1 when none is due. A milestone counts as
// attained once any event has been recorded for it.
func nextEventMilestone(progress float64, fired map[float64]bool) float64 {
	for _, milestone := range eventMilestones {
		if progress < milestone {
			return -1
		}
		if !fired[milestone] {
			return milestone
		}
	}
	return -1
}

// maybeInjectEvent advances the bonus-event machinery for one conflict:
// expire the active event if its window closed, then fire the next
// milestone event if one is due and nothing is active. Concurrent
// injectors racing on the same milestone are resolved by the
// single-active partial index; losing the race is cosmetic.
func maybeInjectEvent(db *sql.DB, c *Conflict, now time.Time, rng *rand.Rand) error {
	if _, err := db.Exec(`
		UPDATE conflict_events
		SET status = $2
		WHERE conflict_id = $1 AND status = $3 AND expires_at <= $4
	`, c.ConflictID, EventStatusExpired, EventStatusActive, now); err != nil {
		return err
	}

	events, err := loadConflictEvents(db, c.ConflictID)
	if err != nil {
		return err
	}
	fired := map[float64]bool{}
	for _, ev := range events {
		if ev.Status == EventStatusActive {
			return nil
		}
		fired[ev.Milestone] = true
	}

	milestone := nextEventMilestone(c.Progress(now), fired)
	if milestone < 0 {
		return nil
	}

	spec := pickEvent(rng)
	expiresAt := now.Add(spec.Duration)
	if expiresAt.After(c.ExpiresAt) {
		expiresAt = c.ExpiresAt
	}
	_, err = db.Exec(`
		INSERT INTO conflict_events (
			event_id, conflict_id, event_type, multiplier, target_category,
			target_goal, milestone, status, starts_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, uuid.NewString(), c.ConflictID, string(spec.Type), spec.Multiplier,
		spec.TargetCategory, spec.TargetGoal, milestone, EventStatusActive, now, expiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			// Another observer fired first.
			return nil
		}
		return err
	}
	log.Printf("event injected: conflict=%s type=%s milestone=%.2f", c.ConflictID, spec.Type, milestone)
	return nil
}

func pickEvent(rng *rand.Rand) EventSpec {
	types := make([]EventType, 0, len(eventCatalog))
	for t := range eventCatalog {
		types = append(types, t)
	}
	// Map order is random but not uniformly so; sort before drawing.
	sortEventTypes(types)
	return eventCatalog[types[rng.Intn(len(types))]]
}

func sortEventTypes(types []EventType) {
	for i := 1; i < len(types); i++ {
		for j := i; j > 0 && types[j] < types[j-1]; j-- {
			types[j], types[j-1] = types[j-1], types[j]
		}
	}
}

// recordEventProgress bumps the active event's per-guild goal counter
// when a contribution matches its target category. Partial progress is
// kept for history and never rolls into the next event.
func recordEventProgress(db *sql.DB, conflictID, guildID, category string, magnitude int64) {
	_, err := db.Exec(`
		INSERT INTO conflict_event_progress (event_id, guild_id, amount)
		SELECT event_id, $2, $3
		FROM conflict_events
		WHERE conflict_id = $1 AND status = 'active' AND target_category = $4
		ON CONFLICT (event_id, guild_id)
		DO UPDATE SET amount = conflict_event_progress.amount + EXCLUDED.amount
	`, conflictID, guildID, magnitude, category)
	if err != nil {
		log.Println("event progress update failed:", err)
	}
}

func loadEventProgress(db *sql.DB, eventID string) (map[string]int64, error) {
	rows, err := db.Query(`
		SELECT guild_id, amount
		FROM conflict_event_progress
		WHERE event_id = $1
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	progress := map[string]int64{}
	for rows.Next() {
		var guildID string
		var amount int64
		if err := rows.Scan(&guildID, &amount); err != nil {
			continue
		}
		progress[guildID] = amount
	}
	return progress, rows.Err()
}
