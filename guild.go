package main

import (
	"database/sql"
	"time"
)

type Holding struct {
	Ticker string  `json:"ticker"`
	Shares int64   `json:"shares"`
	Price  float64 `json:"price"`
}

type Guild struct {
	GuildID     string    `json:"guildId"`
	Name        string    `json:"name"`
	MemberCount int       `json:"memberCount"`
	Treasury    int64     `json:"treasury"`
	Trophies    int       `json:"trophies"`
	Level       int       `json:"level"`
	Holdings    []Holding `json:"holdings,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func LoadGuild(db *sql.DB, guildID string) (*Guild, error) {
	var g Guild
	err := db.QueryRow(`
		SELECT guild_id, name, member_count, treasury, trophies, level, created_at
		FROM guilds
		WHERE guild_id = $1
	`, guildID).Scan(&g.GuildID, &g.Name, &g.MemberCount, &g.Treasury, &g.Trophies, &g.Level, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	holdings, err := loadHoldings(db, guildID)
	if err != nil {
		return nil, err
	}
	g.Holdings = holdings
	return &g, nil
}

func loadHoldings(db *sql.DB, guildID string) ([]Holding, error) {
	rows, err := db.Query(`
		SELECT ticker, shares, price
		FROM guild_holdings
		WHERE guild_id = $1
		ORDER BY ticker
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		var h Holding
		if err := rows.Scan(&h.Ticker, &h.Shares, &h.Price); err != nil {
			continue
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// ListGuilds returns the whole guild population with holdings attached.
// The population is small enough (browser game scale) that matchmaking
// reads it in full rather than paging.
func ListGuilds(db *sql.DB) ([]Guild, error) {
	rows, err := db.Query(`
		SELECT guild_id, name, member_count, treasury, trophies, level, created_at
		FROM guilds
		ORDER BY guild_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guilds []Guild
	byID := map[string]int{}
	for rows.Next() {
		var g Guild
		if err := rows.Scan(&g.GuildID, &g.Name, &g.MemberCount, &g.Treasury, &g.Trophies, &g.Level, &g.CreatedAt); err != nil {
			continue
		}
		byID[g.GuildID] = len(guilds)
		guilds = append(guilds, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	holdingRows, err := db.Query(`
		SELECT guild_id, ticker, shares, price
		FROM guild_holdings
		ORDER BY guild_id, ticker
	`)
	if err != nil {
		return nil, err
	}
	defer holdingRows.Close()

	for holdingRows.Next() {
		var guildID string
		var h Holding
		if err := holdingRows.Scan(&guildID, &h.Ticker, &h.Shares, &h.Price); err != nil {
			continue
		}
		if idx, ok := byID[guildID]; ok {
			guilds[idx].Holdings = append(guilds[idx].Holdings, h)
		}
	}
	return guilds, holdingRows.Err()
}

func AdjustTreasury(db *sql.DB, guildID string, delta int64) error {
	_, err := db.Exec(`
		UPDATE guilds
		SET treasury = GREATEST(treasury + $2, 0)
		WHERE guild_id = $1
	`, guildID, delta)
	return err
}

func AdjustHolding(db *sql.DB, guildID string, ticker string, sharesDelta int64) error {
	_, err := db.Exec(`
		UPDATE guild_holdings
		SET shares = GREATEST(shares + $3, 0)
		WHERE guild_id = $1 AND ticker = $2
	`, guildID, ticker, sharesDelta)
	return err
}
