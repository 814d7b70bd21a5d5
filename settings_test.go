package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBoolSetting(t *testing.T) {
	assert.True(t, parseBoolSetting("true", false))
	assert.True(t, parseBoolSetting("1", false))
	assert.True(t, parseBoolSetting("YES", false))
	assert.True(t, parseBoolSetting("on", false))

	assert.False(t, parseBoolSetting("false", true))
	assert.False(t, parseBoolSetting("0", true))
	assert.False(t, parseBoolSetting("off", true))

	// Garbage keeps the fallback.
	assert.True(t, parseBoolSetting("maybe", true))
	assert.False(t, parseBoolSetting("", false))
}

func TestApplySetting(t *testing.T) {
	settings := GlobalSettings{
		EventInjectionEnabled: true,
		SkirmishEnabled:       true,
		RaidBossBaseHealth:    100000,
		MaxActiveRaids:        2,
	}

	applySetting(&settings, "event_injection_enabled", "false")
	assert.False(t, settings.EventInjectionEnabled)

	applySetting(&settings, "raid_boss_base_health", " 250000 ")
	assert.Equal(t, int64(250000), settings.RaidBossBaseHealth)

	applySetting(&settings, "raid_boss_base_health", "-5")
	assert.Equal(t, int64(250000), settings.RaidBossBaseHealth)

	applySetting(&settings, "max_active_raids", "0")
	assert.Equal(t, 0, settings.MaxActiveRaids)

	applySetting(&settings, "unknown_key", "whatever")
	assert.False(t, settings.EventInjectionEnabled)
	assert.True(t, settings.SkirmishEnabled)
}
