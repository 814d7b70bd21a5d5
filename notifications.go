package main

import (
	"database/sql"
	"time"
)

const (
	ChallengeStatusPending  = "pending"
	ChallengeStatusAccepted = "accepted"
	ChallengeStatusDeclined = "declined"
)

type ChallengeNotice struct {
	ID          int64      `json:"id"`
	FromGuildID string     `json:"fromGuildId"`
	ToGuildID   string     `json:"toGuildId"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
}

// SendChallenge records a war challenge for the target guild to accept
// or decline. No conflict exists until the target accepts; declining
// leaves nothing behind but the resolved notice.
func SendChallenge(db *sql.DB, fromGuildID, toGuildID string) (*ChallengeNotice, error) {
	if fromGuildID == toGuildID {
		return nil, userFacingError("SELF_CHALLENGE", "a guild cannot challenge itself")
	}

	busy, err := busyGuilds(db)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	if busy[fromGuildID] || busy[toGuildID] {
		return nil, stateConflictError("ALREADY_AT_WAR")
	}

	var pending int
	if err := db.QueryRow(`
		SELECT COUNT(*)
		FROM challenge_notices
		WHERE from_guild_id = $1 AND to_guild_id = $2 AND status = 'pending'
	`, fromGuildID, toGuildID).Scan(&pending); err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	if pending > 0 {
		return nil, stateConflictError("CHALLENGE_ALREADY_PENDING")
	}

	notice := &ChallengeNotice{
		FromGuildID: fromGuildID,
		ToGuildID:   toGuildID,
		Status:      ChallengeStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	err = db.QueryRow(`
		INSERT INTO challenge_notices (from_guild_id, to_guild_id, status, created_at)
		VALUES ($1, $2, 'pending', $3)
		RETURNING id
	`, fromGuildID, toGuildID, notice.CreatedAt).Scan(&notice.ID)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	return notice, nil
}

func ListPendingChallenges(db *sql.DB, guildID string) ([]ChallengeNotice, error) {
	rows, err := db.Query(`
		SELECT id, from_guild_id, to_guild_id, status, created_at, resolved_at
		FROM challenge_notices
		WHERE to_guild_id = $1 AND status = 'pending'
		ORDER BY created_at
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notices := []ChallengeNotice{}
	for rows.Next() {
		var n ChallengeNotice
		var resolvedAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.FromGuildID, &n.ToGuildID, &n.Status, &n.CreatedAt, &resolvedAt); err != nil {
			continue
		}
		if resolvedAt.Valid {
			t := resolvedAt.Time
			n.ResolvedAt = &t
		}
		notices = append(notices, n)
	}
	return notices, rows.Err()
}

// RespondToChallenge resolves a pending notice. Accepting creates the
// war through the same confirm path matchmaking uses; the resolve UPDATE
// is filtered on status so a notice can only be answered once.
func RespondToChallenge(db *sql.DB, noticeID int64, guildID string, accept bool, prizePool int64, duration time.Duration) (*Conflict, error) {
	var notice ChallengeNotice
	err := db.QueryRow(`
		SELECT id, from_guild_id, to_guild_id, status
		FROM challenge_notices
		WHERE id = $1
	`, noticeID).Scan(&notice.ID, &notice.FromGuildID, &notice.ToGuildID, &notice.Status)
	if err == sql.ErrNoRows {
		return nil, notFoundError("CHALLENGE_NOT_FOUND")
	}
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	if notice.ToGuildID != guildID {
		return nil, userFacingError("NOT_CHALLENGE_TARGET", "only the challenged guild may respond")
	}
	if notice.Status != ChallengeStatusPending {
		return nil, stateConflictError("CHALLENGE_ALREADY_RESOLVED")
	}

	status := ChallengeStatusDeclined
	if accept {
		status = ChallengeStatusAccepted
	}
	result, err := db.Exec(`
		UPDATE challenge_notices
		SET status = $2, resolved_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, noticeID, status)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	if rows == 0 {
		return nil, stateConflictError("CHALLENGE_ALREADY_RESOLVED")
	}

	if !accept {
		return nil, nil
	}
	return CreateWar(db, notice.FromGuildID, notice.ToGuildID, prizePool, duration)
}
