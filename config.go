package main

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	Port        string `env:"PORT" envDefault:"8080"`

	PollInterval     time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	WarDuration      time.Duration `env:"WAR_DURATION" envDefault:"24h"`
	RaidDuration     time.Duration `env:"RAID_DURATION" envDefault:"6h"`
	RaidScanInterval time.Duration `env:"RAID_SCAN_INTERVAL" envDefault:"10m"`

	WarPrizePool  int64 `env:"WAR_PRIZE_POOL" envDefault:"15000"`
	RaidPrizePool int64 `env:"RAID_PRIZE_POOL" envDefault:"10000"`

	MaxActiveRaids int  `env:"MAX_ACTIVE_RAIDS" envDefault:"2"`
	DevMode        bool `env:"DEV_MODE" envDefault:"false"`

	EventCatalogPath string `env:"EVENT_CATALOG_PATH"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
