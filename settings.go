package main

import (
	"database/sql"
	"strconv"
	"strings"
	"sync"
)

type GlobalSettings struct {
	EventInjectionEnabled bool
	SkirmishEnabled       bool
	RaidBossBaseHealth    int64
	MaxActiveRaids        int
}

var (
	settingsMu     sync.RWMutex
	cachedSettings = GlobalSettings{
		EventInjectionEnabled: true,
		SkirmishEnabled:       true,
		RaidBossBaseHealth:    100000,
		MaxActiveRaids:        2,
	}
)

func LoadGlobalSettings(db *sql.DB) error {
	rows, err := db.Query(`
		SELECT key, value
		FROM global_settings
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	settingsMu.Lock()
	defer settingsMu.Unlock()

	for rows.Next() {
		var key string
		var value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		applySetting(&cachedSettings, key, value)
	}
	return rows.Err()
}

func GetGlobalSettings() GlobalSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return cachedSettings
}

func UpdateGlobalSettings(db *sql.DB, updates map[string]string) (GlobalSettings, error) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	for key, value := range updates {
		applySetting(&cachedSettings, key, value)
		_, err := db.Exec(`
			INSERT INTO global_settings (key, value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		`, key, value)
		if err != nil {
			return cachedSettings, err
		}
	}
	return cachedSettings, nil
}

func applySetting(settings *GlobalSettings, key, value string) {
	value = strings.TrimSpace(value)
	switch key {
	case "event_injection_enabled":
		settings.EventInjectionEnabled = parseBoolSetting(value, settings.EventInjectionEnabled)
	case "skirmish_enabled":
		settings.SkirmishEnabled = parseBoolSetting(value, settings.SkirmishEnabled)
	case "raid_boss_base_health":
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil && parsed > 0 {
			settings.RaidBossBaseHealth = parsed
		}
	case "max_active_raids":
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			settings.MaxActiveRaids = parsed
		}
	}
}

func parseBoolSetting(value string, fallback bool) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return fallback
}
