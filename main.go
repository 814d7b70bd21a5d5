package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}
	if cfg.DevMode {
		log.Println("⚠️  DEV MODE ENABLED")
	}
	log.Println("Poll interval:", cfg.PollInterval)
	log.Println("War duration:", cfg.WarDuration)

	// Database
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to open database:", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatal("failed to ping database:", err)
	}
	log.Println("Connected to PostgreSQL")

	if err := ensureSchema(db); err != nil {
		log.Fatal("Failed to ensure schema:", err)
	}

	// Event catalog: compiled-in defaults, then file overrides if set.
	if err := LoadEventCatalog(defaultCatalogYAML); err != nil {
		log.Fatal("Failed to load embedded event catalog:", err)
	}
	if cfg.EventCatalogPath != "" {
		raw, err := os.ReadFile(cfg.EventCatalogPath)
		if err != nil {
			log.Fatal("Failed to read event catalog override:", err)
		}
		if err := LoadEventCatalog(raw); err != nil {
			log.Fatal("Failed to load event catalog override:", err)
		}
	}

	if err := LoadGlobalSettings(db); err != nil {
		log.Println("Failed to load global settings:", err)
	}

	ctx := context.Background()
	lockConn, acquired, err := acquireStartupLock(ctx, db)
	if err != nil {
		log.Fatal("Failed to acquire startup lock:", err)
	}
	if acquired {
		startupLockConn = lockConn
		log.Println("Startup lock acquired; running lifecycle supervisor")
		NewSupervisor(db, cfg, newLockedRand()).Start()
		if featureFlags.RaidScheduler {
			NewRaidScheduler(db, cfg, newLockedRand()).Start()
		}
	} else {
		log.Println("Startup lock held by another instance; serving HTTP only")
	}

	guard := NewAbuseGuard(db)

	// HTTP server
	mux := http.NewServeMux()
	registerRoutes(mux, db, guard, cfg)

	addr := "0.0.0.0:" + cfg.Port
	log.Println("Listening on", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("server failed:", err)
	}
}

/* ======================
   Routes
   ====================== */

func registerRoutes(mux *http.ServeMux, db *sql.DB, guard *AbuseGuard, cfg Config) {
	battleRand := newLockedRand()

	mux.HandleFunc("/health", healthHandler(db))
	mux.HandleFunc("/match/propose", proposeMatchHandler(db))
	mux.HandleFunc("/conflicts/create", createConflictHandler(db, cfg))
	mux.HandleFunc("/conflicts/contribute", contributeHandler(db, guard))
	mux.HandleFunc("/conflicts/standings", standingsHandler(db))
	mux.HandleFunc("/conflicts/standings/stream", standingsStreamHandler(db))
	mux.HandleFunc("/conflicts/settlement", settlementHandler(db))
	mux.HandleFunc("/challenges/send", challengeHandler(db))
	mux.HandleFunc("/challenges", challengeListHandler(db))
	mux.HandleFunc("/challenges/respond", challengeRespondHandler(db, cfg))
	mux.HandleFunc("/raids/skirmish", skirmishHandler(db, battleRand))
	mux.HandleFunc("/rewards", rewardListHandler(db))
	mux.HandleFunc("/rewards/claim", claimRewardHandler(db))
	mux.HandleFunc("/leaderboard", leaderboardHandler(db))
	mux.HandleFunc("/settings", settingsHandler(db, cfg))
}
