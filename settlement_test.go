package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actorFixture(playerID, guildID string, score int64, firstAt time.Time) *ActorTotal {
	return &ActorTotal{PlayerID: playerID, GuildID: guildID, Score: score, FirstAt: firstAt}
}

func TestTopContributorsKeepsTopHalf(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	actors := []*ActorTotal{
		actorFixture("p1", "g1", 10, base),
		actorFixture("p2", "g1", 40, base),
		actorFixture("p3", "g1", 20, base),
		actorFixture("p4", "g1", 30, base),
	}

	top := topContributors(actors)
	require.Len(t, top, 2)
	assert.Equal(t, "p2", top[0].PlayerID)
	assert.Equal(t, "p4", top[1].PlayerID)
}

func TestTopContributorsOddCountRoundsUp(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	actors := []*ActorTotal{
		actorFixture("p1", "g1", 5, base),
		actorFixture("p2", "g1", 15, base),
		actorFixture("p3", "g1", 10, base),
	}
	assert.Len(t, topContributors(actors), 2)

	solo := []*ActorTotal{actorFixture("p1", "g1", 1, base)}
	assert.Len(t, topContributors(solo), 1)
}

func TestTopContributorsTieBreaksByFirstContribution(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	actors := []*ActorTotal{
		actorFixture("late", "g1", 50, base.Add(time.Hour)),
		actorFixture("early", "g1", 50, base),
	}

	top := topContributors(actors)
	require.Len(t, top, 1)
	assert.Equal(t, "early", top[0].PlayerID)
}

func TestSplitPrizeProportional(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	top := []*ActorTotal{
		actorFixture("p1", "g1", 40, base),
		actorFixture("p2", "g1", 30, base),
		actorFixture("p3", "g1", 20, base),
		actorFixture("p4", "g1", 10, base),
	}

	payouts := splitPrize(15000, top)
	assert.Equal(t, int64(6000), payouts["p1"])
	assert.Equal(t, int64(4500), payouts["p2"])
	assert.Equal(t, int64(3000), payouts["p3"])
	assert.Equal(t, int64(1500), payouts["p4"])
}

func TestSplitPrizeFloorNeverOverAllocates(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	top := []*ActorTotal{
		actorFixture("p1", "g1", 7, base),
		actorFixture("p2", "g1", 11, base),
		actorFixture("p3", "g1", 13, base),
	}

	payouts := splitPrize(1000, top)
	var sum int64
	for _, amount := range payouts {
		sum += amount
	}
	assert.LessOrEqual(t, sum, int64(1000))
	assert.Greater(t, sum, int64(0))
}

func TestSplitPrizeAllZeroScoresEqualSplit(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	top := []*ActorTotal{
		actorFixture("p1", "g1", 0, base),
		actorFixture("p2", "g1", 0, base),
		actorFixture("p3", "g1", 0, base),
	}

	payouts := splitPrize(900, top)
	require.Len(t, payouts, 3)
	for playerID, amount := range payouts {
		assert.Equal(t, int64(300), amount, "player %s", playerID)
	}
}

func TestSplitPrizeEmptyOrZeroPool(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Empty(t, splitPrize(1000, nil))
	assert.Empty(t, splitPrize(0, []*ActorTotal{actorFixture("p1", "g1", 5, base)}))
}

func warFixture() *Conflict {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &Conflict{
		ConflictID:   "war-1",
		Kind:         ConflictKindGuildWar,
		ChallengerID: "g1",
		OpponentID:   "g2",
		Status:       ConflictStatusActive,
		PrizePool:    15000,
		CreatedAt:    now,
		ExpiresAt:    now.Add(24 * time.Hour),
	}
}

func TestPlanWarSettlementDecisive(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	agg := LedgerAggregate{
		PerActor: map[string]*ActorTotal{
			"p1": actorFixture("p1", "g1", 40, base),
			"p2": actorFixture("p2", "g1", 30, base.Add(time.Minute)),
			"p3": actorFixture("p3", "g1", 20, base.Add(2*time.Minute)),
			"p4": actorFixture("p4", "g1", 10, base.Add(3*time.Minute)),
			"p5": actorFixture("p5", "g2", 60, base),
		},
		PerGuild: map[string]int64{"g1": 100, "g2": 60},
	}

	plan := planWarSettlement(warFixture(), agg)
	require.NotNil(t, plan.WinnerID)
	assert.Equal(t, "g1", *plan.WinnerID)
	assert.False(t, plan.Draw)
	assert.Equal(t, winnerTrophyDelta, plan.TrophyDeltas["g1"])
	assert.Equal(t, loserTrophyDelta, plan.TrophyDeltas["g2"])

	// Top half of the four winning contributors: p1 and p2.
	require.Len(t, plan.Rewards, 2)
	assert.Equal(t, "p1", plan.Rewards[0].RecipientID)
	assert.Equal(t, "p2", plan.Rewards[1].RecipientID)
}

func TestPlanWarSettlementPayouts(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	agg := LedgerAggregate{
		PerActor: map[string]*ActorTotal{
			"p1": actorFixture("p1", "g1", 40, base),
			"p2": actorFixture("p2", "g1", 30, base.Add(time.Minute)),
			"p3": actorFixture("p3", "g1", 20, base.Add(2*time.Minute)),
			"p4": actorFixture("p4", "g1", 10, base.Add(3*time.Minute)),
			"p5": actorFixture("p5", "g2", 60, base),
		},
		PerGuild: map[string]int64{"g1": 100, "g2": 60},
	}

	plan := planWarSettlement(warFixture(), agg)
	require.Len(t, plan.Rewards, 2)

	// Prize splits over the kept contributors' scores [40, 30].
	assert.Equal(t, "p1", plan.Rewards[0].RecipientID)
	assert.Equal(t, int64(15000*40/70), plan.Rewards[0].Coins)
	assert.Equal(t, int64(topContributorGems), plan.Rewards[0].Gems)
	assert.Equal(t, int64(winnerXP), plan.Rewards[0].XP)

	assert.Equal(t, "p2", plan.Rewards[1].RecipientID)
	assert.Equal(t, int64(15000*30/70), plan.Rewards[1].Coins)
	assert.Equal(t, int64(0), plan.Rewards[1].Gems)
}

func TestPlanWarSettlementDraw(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	agg := LedgerAggregate{
		PerActor: map[string]*ActorTotal{
			"p1": actorFixture("p1", "g1", 50, base),
			"p2": actorFixture("p2", "g2", 50, base),
		},
		PerGuild: map[string]int64{"g1": 50, "g2": 50},
	}

	plan := planWarSettlement(warFixture(), agg)
	assert.True(t, plan.Draw)
	assert.Nil(t, plan.WinnerID)
	assert.Empty(t, plan.TrophyDeltas)

	require.Len(t, plan.Rewards, 2)
	for _, reward := range plan.Rewards {
		assert.Equal(t, int64(drawConsolationXP), reward.XP)
		assert.Equal(t, int64(0), reward.Coins)
		assert.Equal(t, int64(0), reward.Gems)
	}
}

func raidFixture() *Conflict {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &Conflict{
		ConflictID:    "raid-1",
		Kind:          ConflictKindRaidBoss,
		ChallengerID:  "world",
		BossName:      "Ember Tyrant",
		BossMaxHealth: 100000,
		Status:        ConflictStatusActive,
		PrizePool:     10000,
		CreatedAt:     now,
		ExpiresAt:     now.Add(6 * time.Hour),
	}
}

func TestPlanRaidSettlementBossDefeated(t *testing.T) {
	base := time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC)
	agg := LedgerAggregate{
		PerActor: map[string]*ActorTotal{
			"p1": actorFixture("p1", "g1", 60000, base),
			"p2": actorFixture("p2", "g2", 45000, base.Add(time.Minute)),
		},
		PerGuild: map[string]int64{"g1": 60000, "g2": 45000},
	}

	plan := planRaidSettlement(raidFixture(), agg, true)
	require.NotNil(t, plan.WinnerID)
	assert.Equal(t, "g1", *plan.WinnerID)
	assert.Equal(t, winnerTrophyDelta, plan.TrophyDeltas["g1"])
	assert.NotContains(t, plan.TrophyDeltas, "g2")

	// Two contributors, top half keeps one: the highest scorer.
	require.Len(t, plan.Rewards, 1)
	assert.Equal(t, "p1", plan.Rewards[0].RecipientID)
	assert.Equal(t, int64(10000), plan.Rewards[0].Coins)
	assert.Equal(t, int64(topContributorGems), plan.Rewards[0].Gems)
}

func TestPlanRaidSettlementBossSurvives(t *testing.T) {
	base := time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC)
	agg := LedgerAggregate{
		PerActor: map[string]*ActorTotal{
			"p1": actorFixture("p1", "g1", 30000, base),
			"p2": actorFixture("p2", "g2", 20000, base),
		},
		PerGuild: map[string]int64{"g1": 30000, "g2": 20000},
	}

	plan := planRaidSettlement(raidFixture(), agg, false)
	assert.Nil(t, plan.WinnerID)
	assert.Empty(t, plan.TrophyDeltas)

	require.Len(t, plan.Rewards, 2)
	for _, reward := range plan.Rewards {
		assert.Equal(t, int64(participationXP), reward.XP)
		assert.Equal(t, int64(0), reward.Coins)
	}
}

func TestPlanRaidSettlementNoContributors(t *testing.T) {
	agg := LedgerAggregate{PerActor: map[string]*ActorTotal{}, PerGuild: map[string]int64{}}

	plan := planRaidSettlement(raidFixture(), agg, false)
	assert.Empty(t, plan.Rewards)
	assert.Nil(t, plan.WinnerID)
}
