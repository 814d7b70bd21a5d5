package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type LeaderboardEntry struct {
	Rank               int    `json:"rank"`
	PlayerID           string `json:"playerId"`
	GuildID            string `json:"guildId"`
	Score              int64  `json:"score"`
	Contributions      int64  `json:"contributions"`
	FirstContributedAt string `json:"firstContributedAt,omitempty"`
}

type LeaderboardResponse struct {
	OK       bool               `json:"ok"`
	Error    string             `json:"error,omitempty"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
	Total    int                `json:"total"`
	Results  []LeaderboardEntry `json:"results"`
}

type leaderboardFilters struct {
	ConflictID string
	Category   string
	Page       int
	PageSize   int
}

func leaderboardHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		filters := parseLeaderboardFilters(r)
		if !isValidID(filters.ConflictID) {
			json.NewEncoder(w).Encode(LeaderboardResponse{OK: false, Error: "INVALID_CONFLICT_ID"})
			return
		}
		if filters.Category != "" && !isValidCategory(filters.Category) {
			json.NewEncoder(w).Encode(LeaderboardResponse{OK: false, Error: "UNKNOWN_CATEGORY"})
			return
		}

		whereClauses := []string{"conflict_id = $1"}
		args := []interface{}{filters.ConflictID}
		if filters.Category != "" {
			whereClauses = append(whereClauses, "category = $2")
			args = append(args, filters.Category)
		}
		where := strings.Join(whereClauses, " AND ")

		var total int
		if err := db.QueryRow(`
			SELECT COUNT(DISTINCT player_id)
			FROM contributions
			WHERE `+where, args...).Scan(&total); err != nil {
			json.NewEncoder(w).Encode(LeaderboardResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}

		offset := (filters.Page - 1) * filters.PageSize
		argsWithPage := append(args, filters.PageSize, offset)
		rows, err := db.Query(`
			SELECT
				ROW_NUMBER() OVER (ORDER BY SUM(magnitude) DESC, MIN(created_at) ASC, player_id ASC) AS rank,
				player_id,
				MIN(guild_id) AS guild_id,
				SUM(magnitude) AS score,
				COUNT(*) AS contributions,
				MIN(created_at) AS first_at
			FROM contributions
			WHERE `+where+`
			GROUP BY player_id
			ORDER BY score DESC, first_at ASC, player_id ASC
			LIMIT $`+strconv.Itoa(len(args)+1)+` OFFSET $`+strconv.Itoa(len(args)+2),
			argsWithPage...)
		if err != nil {
			json.NewEncoder(w).Encode(LeaderboardResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}
		defer rows.Close()

		results := []LeaderboardEntry{}
		for rows.Next() {
			var entry LeaderboardEntry
			var firstAt time.Time
			if err := rows.Scan(&entry.Rank, &entry.PlayerID, &entry.GuildID, &entry.Score, &entry.Contributions, &firstAt); err != nil {
				continue
			}
			entry.FirstContributedAt = firstAt.UTC().Format(time.RFC3339)
			results = append(results, entry)
		}

		json.NewEncoder(w).Encode(LeaderboardResponse{
			OK:       true,
			Page:     filters.Page,
			PageSize: filters.PageSize,
			Total:    total,
			Results:  results,
		})
	}
}

func parseLeaderboardFilters(r *http.Request) leaderboardFilters {
	query := r.URL.Query()
	page := parsePositiveInt(query.Get("page"), 1)
	pageSize := parsePositiveInt(query.Get("pageSize"), 50)
	if pageSize > 200 {
		pageSize = 200
	}

	return leaderboardFilters{
		ConflictID: strings.TrimSpace(query.Get("conflictId")),
		Category:   strings.TrimSpace(query.Get("category")),
		Page:       page,
		PageSize:   pageSize,
	}
}

func parsePositiveInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}
