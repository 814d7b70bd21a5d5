package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBattleRoundsAndResult(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	outcome := ResolveBattle(1000, 1000, rng)

	require.Len(t, outcome.Rounds, battleRounds)
	assert.Equal(t, battleRounds, outcome.AttackerWins+outcome.DefenderWins)
	switch outcome.Result {
	case BattleResultAttacker:
		assert.Greater(t, outcome.AttackerWins, outcome.DefenderWins)
	case BattleResultDefender:
		assert.Greater(t, outcome.DefenderWins, outcome.AttackerWins)
	case BattleResultDraw:
		assert.Equal(t, outcome.AttackerWins, outcome.DefenderWins)
	default:
		t.Fatalf("unexpected result %q", outcome.Result)
	}
}

func TestResolveBattleRollBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		outcome := ResolveBattle(500, 800, rng)
		for _, round := range outcome.Rounds {
			assert.GreaterOrEqual(t, round.AttackRoll, 500*battleRollFloor)
			assert.Less(t, round.AttackRoll, 500*(battleRollFloor+battleRollSpread))
			assert.GreaterOrEqual(t, round.DefenseRoll, 800*battleRollFloor)
			assert.Less(t, round.DefenseRoll, 800*(battleRollFloor+battleRollSpread))
		}
	}
}

// With equal power the attacker and defender should win about equally
// often. Statistical check with a fixed seed, not exact equality.
func TestResolveBattleEqualPowerIsFair(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const trials = 5000

	var attackerWins, defenderWins int
	for i := 0; i < trials; i++ {
		switch ResolveBattle(1000, 1000, rng).Result {
		case BattleResultAttacker:
			attackerWins++
		case BattleResultDefender:
			defenderWins++
		}
	}

	assert.InDelta(t, attackerWins, defenderWins, 0.06*trials,
		"attacker won %d, defender won %d of %d", attackerWins, defenderWins, trials)
}

// A moderate underdog still wins a meaningful share of battles; a huge
// favorite should nearly always win.
func TestResolveBattleUnderdogStaysWinnable(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	const trials = 5000

	var underdogWins, favoriteWins int
	for i := 0; i < trials; i++ {
		switch ResolveBattle(800, 1000, rng).Result {
		case BattleResultAttacker:
			underdogWins++
		case BattleResultDefender:
			favoriteWins++
		}
	}
	assert.Greater(t, underdogWins, trials/10)
	assert.Greater(t, favoriteWins, underdogWins)

	var crushed int
	for i := 0; i < trials; i++ {
		if ResolveBattle(3000, 1000, rng).Result == BattleResultAttacker {
			crushed++
		}
	}
	assert.Greater(t, crushed, int(0.99*trials))
}

func TestComputeLootCoinCap(t *testing.T) {
	defender := Guild{GuildID: "prey", Treasury: 10000}
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 500; i++ {
		loot := ComputeLoot(defender, rng)
		// Coins realize inside [10%, 20%] of treasury.
		assert.LessOrEqual(t, loot.Coins, int64(2000))
		assert.GreaterOrEqual(t, loot.Coins, int64(1000))
		assert.Empty(t, loot.Holdings)
	}
}

func TestComputeLootHoldingSkims(t *testing.T) {
	defender := Guild{
		GuildID:  "prey",
		Treasury: 10000,
		Holdings: []Holding{
			{Ticker: "IRON", Shares: 1000, Price: 2},
			{Ticker: "GOLD", Shares: 50, Price: 40},
		},
	}
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 500; i++ {
		loot := ComputeLoot(defender, rng)
		require.LessOrEqual(t, len(loot.Holdings), lootMaxHoldingSkims)
		for _, skim := range loot.Holdings {
			switch skim.Ticker {
			case "IRON":
				assert.Equal(t, int64(100), skim.Shares)
			case "GOLD":
				assert.Equal(t, int64(5), skim.Shares)
			default:
				t.Fatalf("skimmed unknown ticker %q", skim.Ticker)
			}
		}
	}
}

func TestComputeLootSkipsDustPositions(t *testing.T) {
	defender := Guild{
		GuildID:  "prey",
		Treasury: 100,
		Holdings: []Holding{{Ticker: "DUST", Shares: 5, Price: 1}},
	}
	rng := rand.New(rand.NewSource(5))

	loot := ComputeLoot(defender, rng)
	// 10% of 5 shares floors to zero, so no skim is recorded.
	assert.Empty(t, loot.Holdings)
}
