package main

import (
	"database/sql"
	"time"
)

const shieldDuration = 12 * time.Hour

func GrantShield(db *sql.DB, guildID string, expiresAt time.Time) error {
	_, err := db.Exec(`
		INSERT INTO guild_shields (guild_id, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (guild_id)
		DO UPDATE SET expires_at = EXCLUDED.expires_at
	`, guildID, expiresAt)
	return err
}

func IsGuildShielded(db *sql.DB, guildID string, now time.Time) (bool, error) {
	var expiresAt time.Time
	err := db.QueryRow(`
		SELECT expires_at
		FROM guild_shields
		WHERE guild_id = $1
	`, guildID).Scan(&expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return now.Before(expiresAt), nil
}

func shieldedGuilds(db *sql.DB, now time.Time) (map[string]bool, error) {
	rows, err := db.Query(`
		SELECT guild_id
		FROM guild_shields
		WHERE expires_at > $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shielded := map[string]bool{}
	for rows.Next() {
		var guildID string
		if err := rows.Scan(&guildID); err != nil {
			continue
		}
		shielded[guildID] = true
	}
	return shielded, rows.Err()
}
