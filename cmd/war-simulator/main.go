package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// war-simulator drives contribution traffic against a running engine so
// conflicts fill with realistic load during playtests.

type SimPlayer struct {
	PlayerID string `json:"playerId"`
	GuildID  string `json:"guildId"`
}

type ContributeRequest struct {
	ConflictID string `json:"conflictId"`
	PlayerID   string `json:"playerId"`
	GuildID    string `json:"guildId"`
	Category   string `json:"category"`
	Magnitude  int64  `json:"magnitude"`
}

type ContributeResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type StandingsResponse struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	Standings *struct {
		ConflictID       string `json:"conflictId"`
		Kind             string `json:"kind"`
		Status           string `json:"status"`
		SecondsRemaining int64  `json:"secondsRemaining"`
	} `json:"standings,omitempty"`
}

var categories = []string{"attack", "resource_donation", "pvp_victory"}

func main() {
	baseURL := strings.TrimSpace(os.Getenv("API_BASE_URL"))
	if baseURL == "" {
		log.Fatal("API_BASE_URL is required")
	}
	conflictID := strings.TrimSpace(os.Getenv("CONFLICT_ID"))
	if conflictID == "" {
		log.Fatal("CONFLICT_ID is required")
	}

	players, err := loadPlayers()
	if err != nil {
		log.Fatal("failed to load players:", err)
	}
	if len(players) == 0 {
		log.Println("no players configured")
		return
	}

	minDelay := parseEnvInt("SIM_MIN_DELAY_MS", 2000)
	maxDelay := parseEnvInt("SIM_MAX_DELAY_MS", 8000)
	maxActions := parseEnvInt("SIM_MAX_ACTIONS_PER_PLAYER", 5)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	client := &http.Client{Timeout: 15 * time.Second}

	if err := checkConflict(client, baseURL, conflictID); err != nil {
		log.Fatal("conflict check failed:", err)
	}

	for i := 0; i < maxActions; i++ {
		for _, player := range players {
			category := categories[rng.Intn(len(categories))]
			magnitude := magnitudeFor(category, rng)
			if err := contribute(client, baseURL, conflictID, player, category, magnitude); err != nil {
				log.Printf("contribute failed for %s: %v", player.PlayerID, err)
			} else {
				log.Printf("%s contributed %s x%d", player.PlayerID, category, magnitude)
			}
			sleepJitter(rng, minDelay, maxDelay)
		}
	}
}

func loadPlayers() ([]SimPlayer, error) {
	if raw := strings.TrimSpace(os.Getenv("SIM_PLAYERS")); raw != "" {
		var players []SimPlayer
		if err := json.Unmarshal([]byte(raw), &players); err != nil {
			return nil, err
		}
		return players, nil
	}
	if raw := strings.TrimSpace(os.Getenv("SIM_PLAYERS_PATH")); raw != "" {
		data, err := os.ReadFile(filepath.Clean(raw))
		if err != nil {
			return nil, err
		}
		var players []SimPlayer
		if err := json.Unmarshal(data, &players); err != nil {
			return nil, err
		}
		return players, nil
	}
	return nil, nil
}

func magnitudeFor(category string, rng *rand.Rand) int64 {
	switch category {
	case "pvp_victory":
		return 1
	case "resource_donation":
		return int64(50 + rng.Intn(450))
	default:
		return int64(100 + rng.Intn(900))
	}
}

func checkConflict(client *http.Client, baseURL, conflictID string) error {
	resp, err := client.Get(baseURL + "/conflicts/standings?conflictId=" + conflictID)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body StandingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}
	if !body.OK || body.Standings == nil {
		return errors.New(body.Error)
	}
	if body.Standings.Status != "active" {
		return fmt.Errorf("conflict %s is %s, not active", conflictID, body.Standings.Status)
	}
	return nil
}

func contribute(client *http.Client, baseURL, conflictID string, player SimPlayer, category string, magnitude int64) error {
	payload, err := json.Marshal(ContributeRequest{
		ConflictID: conflictID,
		PlayerID:   player.PlayerID,
		GuildID:    player.GuildID,
		Category:   category,
		Magnitude:  magnitude,
	})
	if err != nil {
		return err
	}

	resp, err := client.Post(baseURL+"/conflicts/contribute", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body ContributeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}
	if !body.OK {
		return errors.New(body.Error)
	}
	return nil
}

func parseEnvInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func sleepJitter(rng *rand.Rand, minMs, maxMs int) {
	if maxMs <= minMs {
		time.Sleep(time.Duration(minMs) * time.Millisecond)
		return
	}
	delay := minMs + rng.Intn(maxMs-minMs)
	time.Sleep(time.Duration(delay) * time.Millisecond)
}
