package main

import (
	"context"
	"database/sql"
	"log"
	"time"
)

const startupAdvisoryLockID int64 = 739918422

var startupLockConn *sql.Conn

// acquireStartupLock elects the single instance allowed to run the
// lifecycle supervisor and raid scheduler. The lock rides the connection
// for the process lifetime; losing instances serve HTTP only.
func acquireStartupLock(ctx context.Context, db *sql.DB) (*sql.Conn, bool, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, false, err
	}
	var acquired bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, startupAdvisoryLockID).Scan(&acquired); err != nil {
		_ = conn.Close()
		return nil, false, err
	}
	if !acquired {
		_ = conn.Close()
		return nil, false, nil
	}
	return conn, true, nil
}

func updateTickHeartbeat(db *sql.DB, now time.Time) {
	_, err := db.Exec(`
		INSERT INTO global_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, "supervisor_tick_utc", now.UTC().Format(time.RFC3339))
	if err != nil {
		log.Println("tick heartbeat update failed:", err)
	}
}

func readTickHeartbeat(ctx context.Context, db *sql.DB) (time.Time, error) {
	var value string
	if err := db.QueryRowContext(ctx, `
		SELECT value
		FROM global_settings
		WHERE key = 'supervisor_tick_utc'
	`).Scan(&value); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}
