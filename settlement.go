package main

import (
	"database/sql"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	winnerTrophyDelta  = 500
	loserTrophyDelta   = -200
	winnerXP           = 100
	drawConsolationXP  = 25
	participationXP    = 10
	topContributorGems = 10
)

// topContributors ranks a side's contributors by score descending, ties
// broken by earliest contribution, and keeps the top half (rounded up).
func topContributors(actors []*ActorTotal) []*ActorTotal {
	ranked := make([]*ActorTotal, len(actors))
	copy(ranked, actors)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if !ranked[i].FirstAt.Equal(ranked[j].FirstAt) {
			return ranked[i].FirstAt.Before(ranked[j].FirstAt)
		}
		return ranked[i].PlayerID < ranked[j].PlayerID
	})

	keep := (len(ranked) + 1) / 2
	return ranked[:keep]
}

// splitPrize divides the pool proportionally to score with floor
// rounding, so the sum never exceeds the pool. All-zero scores fall back
// to an exactly equal split.
func splitPrize(pool int64, top []*ActorTotal) map[string]int64 {
	payouts := map[string]int64{}
	if len(top) == 0 || pool <= 0 {
		return payouts
	}

	var sum int64
	for _, actor := range top {
		sum += actor.Score
	}
	if sum == 0 {
		share := pool / int64(len(top))
		for _, actor := range top {
			payouts[actor.PlayerID] = share
		}
		return payouts
	}
	for _, actor := range top {
		payouts[actor.PlayerID] = pool * actor.Score / sum
	}
	return payouts
}

func actorsForGuild(agg LedgerAggregate, guildID string) []*ActorTotal {
	var actors []*ActorTotal
	for _, actor := range agg.PerActor {
		if actor.GuildID == guildID {
			actors = append(actors, actor)
		}
	}
	return actors
}

func allActors(agg LedgerAggregate) []*ActorTotal {
	actors := make([]*ActorTotal, 0, len(agg.PerActor))
	for _, actor := range agg.PerActor {
		actors = append(actors, actor)
	}
	return actors
}

type plannedReward struct {
	RecipientID string
	Coins       int64
	Gems        int64
	XP          int64
}

type settlementPlan struct {
	WinnerID     *string
	Draw         bool
	Rewards      []plannedReward
	TrophyDeltas map[string]int
}

// planWarSettlement decides a war's winner and rewards from the weighted
// ledger aggregate. Pure: no store access, fully re-runnable.
func planWarSettlement(c *Conflict, agg LedgerAggregate) settlementPlan {
	plan := settlementPlan{TrophyDeltas: map[string]int{}}

	challengerScore := agg.PerGuild[c.ChallengerID]
	opponentScore := agg.PerGuild[c.OpponentID]

	if challengerScore == opponentScore {
		plan.Draw = true
		for _, actor := range allActors(agg) {
			plan.Rewards = append(plan.Rewards, plannedReward{
				RecipientID: actor.PlayerID,
				XP:          drawConsolationXP,
			})
		}
		return plan
	}

	winnerID := c.ChallengerID
	loserID := c.OpponentID
	if opponentScore > challengerScore {
		winnerID, loserID = loserID, winnerID
	}
	plan.WinnerID = &winnerID
	plan.TrophyDeltas[winnerID] = winnerTrophyDelta
	plan.TrophyDeltas[loserID] = loserTrophyDelta

	top := topContributors(actorsForGuild(agg, winnerID))
	payouts := splitPrize(c.PrizePool, top)
	for i, actor := range top {
		reward := plannedReward{
			RecipientID: actor.PlayerID,
			Coins:       payouts[actor.PlayerID],
			XP:          winnerXP,
		}
		if i == 0 {
			reward.Gems = topContributorGems
		}
		plan.Rewards = append(plan.Rewards, reward)
	}
	return plan
}

// planRaidSettlement handles both raid endings: boss defeated before the
// deadline (winner, prize split) or survived (participation XP only).
func planRaidSettlement(c *Conflict, agg LedgerAggregate, bossDefeated bool) settlementPlan {
	plan := settlementPlan{TrophyDeltas: map[string]int{}}

	if !bossDefeated {
		for _, actor := range allActors(agg) {
			plan.Rewards = append(plan.Rewards, plannedReward{
				RecipientID: actor.PlayerID,
				XP:          participationXP,
			})
		}
		return plan
	}

	var winnerGuild string
	var bestScore int64 = -1
	guildIDs := make([]string, 0, len(agg.PerGuild))
	for guildID := range agg.PerGuild {
		guildIDs = append(guildIDs, guildID)
	}
	sort.Strings(guildIDs)
	for _, guildID := range guildIDs {
		if agg.PerGuild[guildID] > bestScore {
			bestScore = agg.PerGuild[guildID]
			winnerGuild = guildID
		}
	}
	if winnerGuild != "" {
		plan.WinnerID = &winnerGuild
		plan.TrophyDeltas[winnerGuild] = winnerTrophyDelta
	}

	top := topContributors(allActors(agg))
	payouts := splitPrize(c.PrizePool, top)
	for i, actor := range top {
		reward := plannedReward{
			RecipientID: actor.PlayerID,
			Coins:       payouts[actor.PlayerID],
			XP:          winnerXP,
		}
		if i == 0 {
			reward.Gems = topContributorGems
		}
		plan.Rewards = append(plan.Rewards, reward)
	}
	return plan
}

// settleConflict writes a settlement plan out in one transaction. The
// caller must already own the status flip; reward inserts additionally
// carry ON CONFLICT DO NOTHING so a replay can never double-pay.
func settleConflict(db *sql.DB, c *Conflict, plan settlementPlan) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, reward := range plan.Rewards {
		if _, err := tx.Exec(`
			INSERT INTO reward_records (
				reward_id, recipient_id, source_conflict_id,
				coins, gems, xp, claimed, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW())
			ON CONFLICT (source_conflict_id, recipient_id) DO NOTHING
		`, uuid.NewString(), reward.RecipientID, c.ConflictID,
			reward.Coins, reward.Gems, reward.XP); err != nil {
			return err
		}
	}

	guildIDs := make([]string, 0, len(plan.TrophyDeltas))
	for guildID := range plan.TrophyDeltas {
		guildIDs = append(guildIDs, guildID)
	}
	sort.Strings(guildIDs)
	for _, guildID := range guildIDs {
		if _, err := tx.Exec(`
			UPDATE guilds
			SET trophies = GREATEST(trophies + $2, 0)
			WHERE guild_id = $1
		`, guildID, plan.TrophyDeltas[guildID]); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
		UPDATE conflicts
		SET winner_id = $2, settled_at = NOW()
		WHERE conflict_id = $1
	`, c.ConflictID, plan.WinnerID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	winner := "draw"
	if plan.WinnerID != nil {
		winner = *plan.WinnerID
	}
	log.Printf("settlement: conflict=%s winner=%s rewards=%d", c.ConflictID, winner, len(plan.Rewards))
	return nil
}

type SettlementView struct {
	ConflictID string         `json:"conflictId"`
	Status     string         `json:"status"`
	WinnerID   *string        `json:"winnerId,omitempty"`
	Draw       bool           `json:"draw"`
	SettledAt  *time.Time     `json:"settledAt,omitempty"`
	Rewards    []RewardRecord `json:"rewards"`
}

// GetSettlement is the read side: available only once terminal.
func GetSettlement(db *sql.DB, conflictID string) (*SettlementView, error) {
	c, err := LoadConflict(db, conflictID)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	if c == nil {
		return nil, notFoundError("CONFLICT_NOT_FOUND")
	}
	if !c.IsTerminal() {
		return nil, stateConflictError("CONFLICT_NOT_SETTLED")
	}

	rewards, err := loadRewardsForConflict(db, conflictID)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	return &SettlementView{
		ConflictID: c.ConflictID,
		Status:     c.Status,
		WinnerID:   c.WinnerID,
		Draw:       c.Status == ConflictStatusCompleted && c.WinnerID == nil,
		SettledAt:  c.SettledAt,
		Rewards:    rewards,
	}, nil
}
