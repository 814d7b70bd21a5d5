package main

import (
	"database/sql"
	"log"
	"math/rand"
	"time"
)

const (
	battleRounds        = 3
	battleRollSpread    = 0.8 // rolls land in power * [0.6, 1.4)
	battleRollFloor     = 0.6
	lootTreasuryCapPct  = 0.20
	lootHoldingSkimPct  = 0.10
	lootMaxHoldingSkims = 3
)

const (
	BattleResultAttacker = "attacker"
	BattleResultDefender = "defender"
	BattleResultDraw     = "draw"
)

type BattleRound struct {
	AttackRoll  float64 `json:"attackRoll"`
	DefenseRoll float64 `json:"defenseRoll"`
	Winner      string  `json:"winner"`
}

type BattleOutcome struct {
	Result       string        `json:"result"`
	AttackerWins int           `json:"attackerWins"`
	DefenderWins int           `json:"defenderWins"`
	Rounds       []BattleRound `json:"rounds"`
}

func battleRoll(power float64, rng *rand.Rand) float64 {
	return power * (battleRollFloor + rng.Float64()*battleRollSpread)
}

// ResolveBattle runs the 3-round simulation. The wide roll spread is
// deliberate: a moderate power disadvantage stays winnable.
func ResolveBattle(attackPower, defensePower float64, rng *rand.Rand) BattleOutcome {
	outcome := BattleOutcome{}
	for i := 0; i < battleRounds; i++ {
		round := BattleRound{
			AttackRoll:  battleRoll(attackPower, rng),
			DefenseRoll: battleRoll(defensePower, rng),
		}
		if round.AttackRoll > round.DefenseRoll {
			round.Winner = BattleResultAttacker
			outcome.AttackerWins++
		} else if round.DefenseRoll > round.AttackRoll {
			round.Winner = BattleResultDefender
			outcome.DefenderWins++
		} else {
			round.Winner = BattleResultDraw
		}
		outcome.Rounds = append(outcome.Rounds, round)
	}

	switch {
	case outcome.AttackerWins > outcome.DefenderWins:
		outcome.Result = BattleResultAttacker
	case outcome.DefenderWins > outcome.AttackerWins:
		outcome.Result = BattleResultDefender
	default:
		outcome.Result = BattleResultDraw
	}
	return outcome
}

type HoldingSkim struct {
	Ticker string `json:"ticker"`
	Shares int64  `json:"shares"`
}

type LootPackage struct {
	Coins    int64         `json:"coins"`
	Holdings []HoldingSkim `json:"holdings,omitempty"`
}

// ComputeLoot prices out what a winning attacker extracts from the
// defender: coins capped at 20% of treasury with a random realization,
// plus up to 3 holding positions skimmed at ~10% each. Positions are
// sampled with replacement, so a ticker may be hit more than once.
func ComputeLoot(defender Guild, rng *rand.Rand) LootPackage {
	loot := LootPackage{}

	coinCap := float64(defender.Treasury) * lootTreasuryCapPct
	loot.Coins = int64(coinCap * (0.5 + rng.Float64()*0.5))

	if len(defender.Holdings) == 0 {
		return loot
	}
	for i := 0; i < lootMaxHoldingSkims; i++ {
		h := defender.Holdings[rng.Intn(len(defender.Holdings))]
		skim := int64(float64(h.Shares) * lootHoldingSkimPct)
		if skim <= 0 {
			continue
		}
		loot.Holdings = append(loot.Holdings, HoldingSkim{Ticker: h.Ticker, Shares: skim})
	}
	return loot
}

type SkirmishResult struct {
	Outcome BattleOutcome `json:"outcome"`
	Loot    *LootPackage  `json:"loot,omitempty"`
}

// RaidGuild resolves an instantaneous guild-vs-guild raid: battle, loot
// transfer on an attacker win, and a 12-hour shield for the defender.
// Shielded guilds are not targetable; that exclusion lives here and in
// the matchmaker, never in the resolver itself.
func RaidGuild(db *sql.DB, attackerID, defenderID string, rng *rand.Rand) (*SkirmishResult, error) {
	if attackerID == defenderID {
		return nil, userFacingError("SELF_RAID", "a guild cannot raid itself")
	}

	now := time.Now().UTC()
	shielded, err := IsGuildShielded(db, defenderID, now)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	if shielded {
		return nil, stateConflictError("TARGET_SHIELDED")
	}

	attacker, err := LoadGuild(db, attackerID)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	defender, err := LoadGuild(db, defenderID)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	if attacker == nil || defender == nil {
		return nil, notFoundError("GUILD_NOT_FOUND")
	}

	result := &SkirmishResult{
		Outcome: ResolveBattle(GuildPower(*attacker), GuildPower(*defender), rng),
	}

	if result.Outcome.Result == BattleResultAttacker {
		loot := ComputeLoot(*defender, rng)
		if err := applyLoot(db, attackerID, defenderID, loot); err != nil {
			return nil, transientError("STORE_UNAVAILABLE", err)
		}
		result.Loot = &loot
	}

	if err := GrantShield(db, defenderID, now.Add(shieldDuration)); err != nil {
		log.Println("shield grant failed:", err)
	}
	return result, nil
}

func applyLoot(db *sql.DB, attackerID, defenderID string, loot LootPackage) error {
	if loot.Coins > 0 {
		if err := AdjustTreasury(db, defenderID, -loot.Coins); err != nil {
			return err
		}
		if err := AdjustTreasury(db, attackerID, loot.Coins); err != nil {
			return err
		}
	}
	for _, skim := range loot.Holdings {
		if err := AdjustHolding(db, defenderID, skim.Ticker, -skim.Shares); err != nil {
			return err
		}
	}
	return nil
}
