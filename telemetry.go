package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"sync"
	"time"
)

var (
	telemetryCooldownMu sync.Mutex
	telemetryCooldowns  = map[string]time.Time{}
)

// emitServerTelemetry hands a monitoring row to the telemetry
// collaborator. Failures are logged and swallowed; monitoring must never
// break the engine path that triggered it.
func emitServerTelemetry(db *sql.DB, conflictID, guildID, eventType string, payload map[string]interface{}) {
	if !featureFlags.Telemetry {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Println("telemetry marshal failed:", err)
		return
	}
	_, err = db.Exec(`
		INSERT INTO engine_telemetry (conflict_id, guild_id, event_type, payload, created_at)
		VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, $4, NOW())
	`, conflictID, guildID, eventType, raw)
	if err != nil {
		log.Println("telemetry insert failed:", err)
	}
}

// emitServerTelemetryWithCooldown suppresses repeat emissions of the
// same event key inside the window. For noisy per-tick emitters.
func emitServerTelemetryWithCooldown(db *sql.DB, conflictID, guildID, eventType string, payload map[string]interface{}, window time.Duration) {
	key := eventType + "|" + conflictID + "|" + guildID
	now := time.Now()

	telemetryCooldownMu.Lock()
	last, seen := telemetryCooldowns[key]
	if seen && now.Sub(last) < window {
		telemetryCooldownMu.Unlock()
		return
	}
	telemetryCooldowns[key] = now
	telemetryCooldownMu.Unlock()

	emitServerTelemetry(db, conflictID, guildID, eventType, payload)
}
