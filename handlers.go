package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"time"
)

/* ======================
   Request / Response Types
   ====================== */

type SimpleResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type ProposeMatchRequest struct {
	GuildID string `json:"guildId"`
}

type ProposeMatchResponse struct {
	OK        bool            `json:"ok"`
	Error     string          `json:"error,omitempty"`
	Candidate *MatchCandidate `json:"candidate,omitempty"`
}

type CreateConflictRequest struct {
	ChallengerID string `json:"challengerId"`
	OpponentID   string `json:"opponentId"`
}

type ConflictResponse struct {
	OK       bool      `json:"ok"`
	Error    string    `json:"error,omitempty"`
	Conflict *Conflict `json:"conflict,omitempty"`
}

type ChallengeRequest struct {
	FromGuildID string `json:"fromGuildId"`
	ToGuildID   string `json:"toGuildId"`
}

type ChallengeResponse struct {
	OK     bool             `json:"ok"`
	Error  string           `json:"error,omitempty"`
	Notice *ChallengeNotice `json:"notice,omitempty"`
}

type ChallengeListResponse struct {
	OK      bool              `json:"ok"`
	Error   string            `json:"error,omitempty"`
	Notices []ChallengeNotice `json:"notices,omitempty"`
}

type ChallengeRespondRequest struct {
	NoticeID int64  `json:"noticeId"`
	GuildID  string `json:"guildId"`
	Accept   bool   `json:"accept"`
}

type ContributeRequest struct {
	ConflictID string `json:"conflictId"`
	PlayerID   string `json:"playerId"`
	GuildID    string `json:"guildId"`
	Category   string `json:"category"`
	Magnitude  int64  `json:"magnitude"`
}

type ContributeResponse struct {
	OK    bool               `json:"ok"`
	Error string             `json:"error,omitempty"`
	Entry *ContributionEntry `json:"entry,omitempty"`
}

type StandingsResponse struct {
	OK        bool           `json:"ok"`
	Error     string         `json:"error,omitempty"`
	Standings *StandingsView `json:"standings,omitempty"`
}

type SettlementResponse struct {
	OK         bool            `json:"ok"`
	Error      string          `json:"error,omitempty"`
	Settlement *SettlementView `json:"settlement,omitempty"`
}

type ClaimRewardRequest struct {
	RewardID    string `json:"rewardId"`
	RecipientID string `json:"recipientId"`
}

type ClaimRewardResponse struct {
	OK     bool          `json:"ok"`
	Error  string        `json:"error,omitempty"`
	Reward *RewardRecord `json:"reward,omitempty"`
}

type RewardListResponse struct {
	OK      bool           `json:"ok"`
	Error   string         `json:"error,omitempty"`
	Rewards []RewardRecord `json:"rewards,omitempty"`
}

type SkirmishRequest struct {
	AttackerID string `json:"attackerId"`
	DefenderID string `json:"defenderId"`
}

type SkirmishResponse struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result *SkirmishResult `json:"result,omitempty"`
}

type SettingsResponse struct {
	OK       bool            `json:"ok"`
	Error    string          `json:"error,omitempty"`
	Settings *GlobalSettings `json:"settings,omitempty"`
}

type HealthResponse struct {
	OK                   bool   `json:"ok"`
	SupervisorLastTick   string `json:"supervisorLastTick,omitempty"`
	SupervisorTickAgeSec int64  `json:"supervisorTickAgeSec,omitempty"`
}

/* ======================
   Handlers
   ====================== */

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return false
	}
	return true
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{OK: true}
		if tick, err := readTickHeartbeat(r.Context(), db); err == nil {
			resp.SupervisorLastTick = tick.UTC().Format(time.RFC3339)
			resp.SupervisorTickAgeSec = int64(time.Since(tick).Seconds())
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func proposeMatchHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProposeMatchRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !isValidID(req.GuildID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		candidate, err := ProposeMatch(db, req.GuildID)
		if err != nil {
			json.NewEncoder(w).Encode(ProposeMatchResponse{OK: false, Error: errorCode(err)})
			return
		}
		json.NewEncoder(w).Encode(ProposeMatchResponse{OK: true, Candidate: candidate})
	}
}

func createConflictHandler(db *sql.DB, cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateConflictRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !isValidID(req.ChallengerID) || !isValidID(req.OpponentID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		conflict, err := CreateWar(db, req.ChallengerID, req.OpponentID, cfg.WarPrizePool, cfg.WarDuration)
		if err != nil {
			json.NewEncoder(w).Encode(ConflictResponse{OK: false, Error: errorCode(err)})
			return
		}
		json.NewEncoder(w).Encode(ConflictResponse{OK: true, Conflict: conflict})
	}
}

func challengeHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChallengeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !isValidID(req.FromGuildID) || !isValidID(req.ToGuildID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		notice, err := SendChallenge(db, req.FromGuildID, req.ToGuildID)
		if err != nil {
			json.NewEncoder(w).Encode(ChallengeResponse{OK: false, Error: errorCode(err)})
			return
		}
		json.NewEncoder(w).Encode(ChallengeResponse{OK: true, Notice: notice})
	}
}

func challengeListHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		guildID := r.URL.Query().Get("guildId")
		if !isValidID(guildID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		notices, err := ListPendingChallenges(db, guildID)
		if err != nil {
			json.NewEncoder(w).Encode(ChallengeListResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}
		json.NewEncoder(w).Encode(ChallengeListResponse{OK: true, Notices: notices})
	}
}

func challengeRespondHandler(db *sql.DB, cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChallengeRespondRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.NoticeID <= 0 || !isValidID(req.GuildID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		conflict, err := RespondToChallenge(db, req.NoticeID, req.GuildID, req.Accept, cfg.WarPrizePool, cfg.WarDuration)
		if err != nil {
			json.NewEncoder(w).Encode(ConflictResponse{OK: false, Error: errorCode(err)})
			return
		}
		json.NewEncoder(w).Encode(ConflictResponse{OK: true, Conflict: conflict})
	}
}

func contributeHandler(db *sql.DB, guard *AbuseGuard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ContributeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !isValidID(req.ConflictID) || !isValidID(req.PlayerID) || !isValidID(req.GuildID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		entry, err := AppendContribution(db, guard, req.ConflictID, req.PlayerID, req.GuildID, req.Category, req.Magnitude)
		if err != nil {
			json.NewEncoder(w).Encode(ContributeResponse{OK: false, Error: errorCode(err)})
			return
		}
		json.NewEncoder(w).Encode(ContributeResponse{OK: true, Entry: entry})
	}
}

func standingsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		conflictID := r.URL.Query().Get("conflictId")
		if !isValidID(conflictID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		standings, err := GetLiveStandings(db, conflictID)
		if err != nil {
			json.NewEncoder(w).Encode(StandingsResponse{OK: false, Error: errorCode(err)})
			return
		}
		json.NewEncoder(w).Encode(StandingsResponse{OK: true, Standings: standings})
	}
}

func settlementHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		conflictID := r.URL.Query().Get("conflictId")
		if !isValidID(conflictID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		settlement, err := GetSettlement(db, conflictID)
		if err != nil {
			json.NewEncoder(w).Encode(SettlementResponse{OK: false, Error: errorCode(err)})
			return
		}
		json.NewEncoder(w).Encode(SettlementResponse{OK: true, Settlement: settlement})
	}
}

func claimRewardHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClaimRewardRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !isValidID(req.RewardID) || !isValidID(req.RecipientID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		reward, err := ClaimReward(db, req.RewardID, req.RecipientID)
		if err != nil {
			json.NewEncoder(w).Encode(ClaimRewardResponse{OK: false, Error: errorCode(err)})
			return
		}
		json.NewEncoder(w).Encode(ClaimRewardResponse{OK: true, Reward: reward})
	}
}

func rewardListHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		recipientID := r.URL.Query().Get("recipientId")
		if !isValidID(recipientID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		rewards, err := ListUnclaimedRewards(db, recipientID)
		if err != nil {
			log.Println("reward list failed:", err)
			json.NewEncoder(w).Encode(RewardListResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}
		json.NewEncoder(w).Encode(RewardListResponse{OK: true, Rewards: rewards})
	}
}

// settingsHandler exposes the engine's operational knobs. Writes are
// only allowed in dev mode; in production the settings table is edited
// by the ops tooling that owns it.
func settingsHandler(db *sql.DB, cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			settings := GetGlobalSettings()
			json.NewEncoder(w).Encode(SettingsResponse{OK: true, Settings: &settings})
		case http.MethodPost:
			if !cfg.DevMode {
				json.NewEncoder(w).Encode(SettingsResponse{OK: false, Error: "SETTINGS_READ_ONLY"})
				return
			}
			var updates map[string]string
			if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			settings, err := UpdateGlobalSettings(db, updates)
			if err != nil {
				json.NewEncoder(w).Encode(SettingsResponse{OK: false, Error: "INTERNAL_ERROR"})
				return
			}
			json.NewEncoder(w).Encode(SettingsResponse{OK: true, Settings: &settings})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func skirmishHandler(db *sql.DB, rng *rand.Rand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SkirmishRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !featureFlags.Skirmishes || !GetGlobalSettings().SkirmishEnabled {
			json.NewEncoder(w).Encode(SkirmishResponse{OK: false, Error: "SKIRMISHES_DISABLED"})
			return
		}
		if !isValidID(req.AttackerID) || !isValidID(req.DefenderID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		result, err := RaidGuild(db, req.AttackerID, req.DefenderID, rng)
		if err != nil {
			json.NewEncoder(w).Encode(SkirmishResponse{OK: false, Error: errorCode(err)})
			return
		}
		json.NewEncoder(w).Encode(SkirmishResponse{OK: true, Result: result})
	}
}
