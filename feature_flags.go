package main

import "os"

type FeatureFlags struct {
	RaidScheduler bool
	Telemetry     bool
	Skirmishes    bool
}

var featureFlags = loadFeatureFlags()

func loadFeatureFlags() FeatureFlags {
	return FeatureFlags{
		RaidScheduler: envFlag("ENABLE_RAID_SCHEDULER", true),
		Telemetry:     envFlag("ENABLE_TELEMETRY", true),
		Skirmishes:    envFlag("ENABLE_SKIRMISHES", true),
	}
}

func envFlag(name string, fallback bool) bool {
	val := os.Getenv(name)
	if val == "" {
		return fallback
	}
	return val == "true" || val == "1" || val == "yes"
}
