package main

import (
	"database/sql"
	"log"
	"math/rand"
	"time"
)

var raidBossNames = []string{
	"Ashen Colossus",
	"Tidewrath Serpent",
	"Hollow King",
	"Gravemaw",
	"The Sunderer",
}

// RaidScheduler spawns world-boss conflicts on the leader instance.
// Boss health scales with recent attack volume so an active population
// faces proportionally tougher bosses.
type RaidScheduler struct {
	db  *sql.DB
	cfg Config
	rng *rand.Rand
}

func NewRaidScheduler(db *sql.DB, cfg Config, rng *rand.Rand) *RaidScheduler {
	return &RaidScheduler{db: db, cfg: cfg, rng: rng}
}

func (r *RaidScheduler) Start() {
	ticker := time.NewTicker(r.cfg.RaidScanInterval)

	go func() {
		for t := range ticker.C {
			r.scan(t.UTC())
		}
	}()
}

func (r *RaidScheduler) scan(now time.Time) {
	if !featureFlags.RaidScheduler {
		return
	}

	var activeRaids int
	if err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM conflicts
		WHERE kind = $1 AND status IN ('pending', 'active')
	`, ConflictKindRaidBoss).Scan(&activeRaids); err != nil {
		log.Println("raid scheduler: count query failed:", err)
		return
	}

	settings := GetGlobalSettings()
	maxRaids := settings.MaxActiveRaids
	if r.cfg.MaxActiveRaids > 0 {
		maxRaids = r.cfg.MaxActiveRaids
	}
	if activeRaids >= maxRaids {
		return
	}

	health := r.scaledBossHealth(now, settings.RaidBossBaseHealth)
	bossName := raidBossNames[r.rng.Intn(len(raidBossNames))]
	c, err := insertRaidBoss(r.db, bossName, health, r.cfg.RaidPrizePool, r.cfg.RaidDuration)
	if err != nil {
		log.Println("raid scheduler: spawn failed:", err)
		return
	}
	log.Printf("raid spawned: conflict=%s boss=%q health=%d", c.ConflictID, bossName, health)
	emitServerTelemetry(r.db, c.ConflictID, "", "raid_spawned", map[string]interface{}{
		"boss":      bossName,
		"maxHealth": health,
	})
}

// scaledBossHealth compares the last day's attack volume against the
// trailing week's daily average and nudges boss health toward demand,
// clamped to half and double the base.
func (r *RaidScheduler) scaledBossHealth(now time.Time, baseHealth int64) int64 {
	var last24h int64
	var last7d int64
	if err := r.db.QueryRow(`
		SELECT COALESCE(SUM(magnitude), 0)
		FROM contributions
		WHERE category = $1 AND created_at >= $2
	`, CategoryAttack, now.Add(-24*time.Hour)).Scan(&last24h); err != nil {
		log.Println("raid scheduler: last24h query failed:", err)
		return baseHealth
	}
	if err := r.db.QueryRow(`
		SELECT COALESCE(SUM(magnitude), 0)
		FROM contributions
		WHERE category = $1 AND created_at >= $2
	`, CategoryAttack, now.Add(-7*24*time.Hour)).Scan(&last7d); err != nil {
		log.Println("raid scheduler: last7d query failed:", err)
		return baseHealth
	}

	longTermDaily := float64(last7d) / 7.0
	if longTermDaily < 1 {
		return baseHealth
	}
	ratio := float64(last24h) / longTermDaily
	if ratio < 0.5 {
		ratio = 0.5
	}
	if ratio > 2.0 {
		ratio = 2.0
	}
	return int64(float64(baseHealth) * ratio)
}
