package main

import (
	"database/sql"
)

func ensureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS guilds (
			guild_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			member_count INT NOT NULL DEFAULT 0,
			treasury BIGINT NOT NULL DEFAULT 0,
			trophies INT NOT NULL DEFAULT 0,
			level INT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS guild_holdings (
			guild_id TEXT NOT NULL REFERENCES guilds(guild_id),
			ticker TEXT NOT NULL,
			shares BIGINT NOT NULL DEFAULT 0,
			price DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (guild_id, ticker)
		)`,
		`CREATE TABLE IF NOT EXISTS conflicts (
			conflict_id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			challenger_id TEXT NOT NULL,
			opponent_id TEXT,
			boss_name TEXT,
			boss_max_health BIGINT,
			status TEXT NOT NULL,
			prize_pool BIGINT NOT NULL DEFAULT 0,
			winner_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL,
			settled_at TIMESTAMPTZ
		)`,
		// One live war per guild pair. Turns the propose/create race into
		// an insert error instead of a duplicate conflict.
		`CREATE UNIQUE INDEX IF NOT EXISTS conflicts_live_pair
			ON conflicts (LEAST(challenger_id, opponent_id), GREATEST(challenger_id, opponent_id))
			WHERE status IN ('pending', 'active') AND kind = 'guild_war'`,
		`CREATE INDEX IF NOT EXISTS conflicts_status_idx ON conflicts (status)`,
		`CREATE TABLE IF NOT EXISTS contributions (
			id BIGSERIAL PRIMARY KEY,
			conflict_id TEXT NOT NULL REFERENCES conflicts(conflict_id),
			player_id TEXT NOT NULL,
			guild_id TEXT NOT NULL,
			category TEXT NOT NULL,
			magnitude BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS contributions_conflict_idx ON contributions (conflict_id)`,
		`CREATE TABLE IF NOT EXISTS conflict_events (
			event_id TEXT PRIMARY KEY,
			conflict_id TEXT NOT NULL REFERENCES conflicts(conflict_id),
			event_type TEXT NOT NULL,
			multiplier DOUBLE PRECISION NOT NULL,
			target_category TEXT NOT NULL,
			target_goal BIGINT NOT NULL,
			milestone DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			starts_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		// The single-active-event invariant, enforced at the store.
		`CREATE UNIQUE INDEX IF NOT EXISTS conflict_events_single_active
			ON conflict_events (conflict_id)
			WHERE status = 'active'`,
		`CREATE INDEX IF NOT EXISTS conflict_events_conflict_idx ON conflict_events (conflict_id)`,
		`CREATE TABLE IF NOT EXISTS conflict_event_progress (
			event_id TEXT NOT NULL REFERENCES conflict_events(event_id),
			guild_id TEXT NOT NULL,
			amount BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (event_id, guild_id)
		)`,
		`CREATE TABLE IF NOT EXISTS reward_records (
			reward_id TEXT PRIMARY KEY,
			recipient_id TEXT NOT NULL,
			source_conflict_id TEXT NOT NULL REFERENCES conflicts(conflict_id),
			coins BIGINT NOT NULL DEFAULT 0,
			gems BIGINT NOT NULL DEFAULT 0,
			xp BIGINT NOT NULL DEFAULT 0,
			claimed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (source_conflict_id, recipient_id)
		)`,
		`CREATE TABLE IF NOT EXISTS guild_shields (
			guild_id TEXT PRIMARY KEY REFERENCES guilds(guild_id),
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS challenge_notices (
			id BIGSERIAL PRIMARY KEY,
			from_guild_id TEXT NOT NULL,
			to_guild_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			resolved_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS global_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS engine_telemetry (
			id BIGSERIAL PRIMARY KEY,
			conflict_id TEXT,
			guild_id TEXT,
			event_type TEXT NOT NULL,
			payload JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
