package main

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	ConflictKindGuildWar = "guild_war"
	ConflictKindRaidBoss = "raid_boss"
)

const (
	ConflictStatusPending   = "pending"
	ConflictStatusActive    = "active"
	ConflictStatusCompleted = "completed"
	ConflictStatusExpired   = "expired"
)

type Conflict struct {
	ConflictID    string     `json:"conflictId"`
	Kind          string     `json:"kind"`
	ChallengerID  string     `json:"challengerId"`
	OpponentID    string     `json:"opponentId,omitempty"`
	BossName      string     `json:"bossName,omitempty"`
	BossMaxHealth int64      `json:"bossMaxHealth,omitempty"`
	Status        string     `json:"status"`
	PrizePool     int64      `json:"prizePool"`
	WinnerID      *string    `json:"winnerId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	SettledAt     *time.Time `json:"settledAt,omitempty"`
}

func (c *Conflict) IsTerminal() bool {
	return c.Status == ConflictStatusCompleted || c.Status == ConflictStatusExpired
}

// Progress reports how far through its window the conflict is, clamped
// to [0, 1]. Event milestones key off this.
func (c *Conflict) Progress(now time.Time) float64 {
	total := c.ExpiresAt.Sub(c.CreatedAt).Seconds()
	if total <= 0 {
		return 1
	}
	progress := now.Sub(c.CreatedAt).Seconds() / total
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

func scanConflict(row interface {
	Scan(dest ...interface{}) error
}) (*Conflict, error) {
	var c Conflict
	var opponent sql.NullString
	var bossName sql.NullString
	var bossMax sql.NullInt64
	var winner sql.NullString
	var settledAt sql.NullTime
	err := row.Scan(
		&c.ConflictID, &c.Kind, &c.ChallengerID, &opponent,
		&bossName, &bossMax, &c.Status, &c.PrizePool,
		&winner, &c.CreatedAt, &c.ExpiresAt, &settledAt,
	)
	if err != nil {
		return nil, err
	}
	c.OpponentID = opponent.String
	c.BossName = bossName.String
	c.BossMaxHealth = bossMax.Int64
	if winner.Valid {
		c.WinnerID = &winner.String
	}
	if settledAt.Valid {
		t := settledAt.Time
		c.SettledAt = &t
	}
	return &c, nil
}

const conflictColumns = `
	conflict_id, kind, challenger_id, opponent_id,
	boss_name, boss_max_health, status, prize_pool,
	winner_id, created_at, expires_at, settled_at
`

func LoadConflict(db *sql.DB, conflictID string) (*Conflict, error) {
	row := db.QueryRow(`
		SELECT `+conflictColumns+`
		FROM conflicts
		WHERE conflict_id = $1
	`, conflictID)
	c, err := scanConflict(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func ListConflictsByStatus(db *sql.DB, statuses ...string) ([]*Conflict, error) {
	rows, err := db.Query(`
		SELECT `+conflictColumns+`
		FROM conflicts
		WHERE status = ANY($1)
		ORDER BY created_at
	`, pq.Array(statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []*Conflict
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			continue
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

func insertWar(db *sql.DB, challengerID, opponentID string, prizePool int64, duration time.Duration, status string) (*Conflict, error) {
	now := time.Now().UTC()
	c := &Conflict{
		ConflictID:   uuid.NewString(),
		Kind:         ConflictKindGuildWar,
		ChallengerID: challengerID,
		OpponentID:   opponentID,
		Status:       status,
		PrizePool:    prizePool,
		CreatedAt:    now,
		ExpiresAt:    now.Add(duration),
	}
	_, err := db.Exec(`
		INSERT INTO conflicts (
			conflict_id, kind, challenger_id, opponent_id,
			status, prize_pool, created_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ConflictID, c.Kind, c.ChallengerID, c.OpponentID, c.Status, c.PrizePool, c.CreatedAt, c.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, stateConflictError("ALREADY_AT_WAR")
		}
		return nil, err
	}
	return c, nil
}

func insertRaidBoss(db *sql.DB, bossName string, maxHealth int64, prizePool int64, duration time.Duration) (*Conflict, error) {
	now := time.Now().UTC()
	c := &Conflict{
		ConflictID:    uuid.NewString(),
		Kind:          ConflictKindRaidBoss,
		ChallengerID:  "world",
		BossName:      bossName,
		BossMaxHealth: maxHealth,
		Status:        ConflictStatusActive,
		PrizePool:     prizePool,
		CreatedAt:     now,
		ExpiresAt:     now.Add(duration),
	}
	_, err := db.Exec(`
		INSERT INTO conflicts (
			conflict_id, kind, challenger_id, boss_name, boss_max_health,
			status, prize_pool, created_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ConflictID, c.Kind, c.ChallengerID, c.BossName, c.BossMaxHealth, c.Status, c.PrizePool, c.CreatedAt, c.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// transitionConflict is the status compare-and-set every lifecycle step
// goes through. Only the caller that flips the row owns the follow-up
// work (settlement, activation); everyone else sees zero rows affected.
func transitionConflict(db *sql.DB, conflictID, from, to string) (bool, error) {
	result, err := db.Exec(`
		UPDATE conflicts
		SET status = $3
		WHERE conflict_id = $1 AND status = $2
	`, conflictID, from, to)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// checkConflictIntegrity flags records that violate the data model:
// a malformed window or an expiry already passed while still active.
// Flagged conflicts are treated as immediately eligible for settlement.
func checkConflictIntegrity(c *Conflict, now time.Time) *EngineError {
	if !c.ExpiresAt.After(c.CreatedAt) {
		return integrityError("MALFORMED_EXPIRY", "expires_at precedes created_at for "+c.ConflictID)
	}
	if c.Status == ConflictStatusActive && now.Sub(c.ExpiresAt) > 10*time.Minute {
		return integrityError("STALE_ACTIVE_CONFLICT", "conflict "+c.ConflictID+" active long past expiry")
	}
	if c.Kind == ConflictKindRaidBoss && c.BossMaxHealth <= 0 {
		return integrityError("MALFORMED_BOSS_HEALTH", "non-positive boss health for "+c.ConflictID)
	}
	return nil
}
