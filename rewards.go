package main

import (
	"database/sql"
	"time"
)

type RewardRecord struct {
	RewardID         string    `json:"rewardId"`
	RecipientID      string    `json:"recipientId"`
	SourceConflictID string    `json:"sourceConflictId"`
	Coins            int64     `json:"coins"`
	Gems             int64     `json:"gems"`
	XP               int64     `json:"xp"`
	Claimed          bool      `json:"claimed"`
	CreatedAt        time.Time `json:"createdAt"`
}

func loadRewardsForConflict(db *sql.DB, conflictID string) ([]RewardRecord, error) {
	rows, err := db.Query(`
		SELECT reward_id, recipient_id, source_conflict_id, coins, gems, xp, claimed, created_at
		FROM reward_records
		WHERE source_conflict_id = $1
		ORDER BY coins DESC, recipient_id
	`, conflictID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rewards := []RewardRecord{}
	for rows.Next() {
		var r RewardRecord
		if err := rows.Scan(&r.RewardID, &r.RecipientID, &r.SourceConflictID,
			&r.Coins, &r.Gems, &r.XP, &r.Claimed, &r.CreatedAt); err != nil {
			continue
		}
		rewards = append(rewards, r)
	}
	return rewards, rows.Err()
}

func ListUnclaimedRewards(db *sql.DB, recipientID string) ([]RewardRecord, error) {
	rows, err := db.Query(`
		SELECT reward_id, recipient_id, source_conflict_id, coins, gems, xp, claimed, created_at
		FROM reward_records
		WHERE recipient_id = $1 AND claimed = FALSE
		ORDER BY created_at
	`, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rewards := []RewardRecord{}
	for rows.Next() {
		var r RewardRecord
		if err := rows.Scan(&r.RewardID, &r.RecipientID, &r.SourceConflictID,
			&r.Coins, &r.Gems, &r.XP, &r.Claimed, &r.CreatedAt); err != nil {
			continue
		}
		rewards = append(rewards, r)
	}
	return rewards, rows.Err()
}

// ClaimReward flips claimed false -> true exactly once. The claimed
// filter in the UPDATE is the whole guard: a second claim matches zero
// rows and is rejected.
func ClaimReward(db *sql.DB, rewardID, recipientID string) (*RewardRecord, error) {
	result, err := db.Exec(`
		UPDATE reward_records
		SET claimed = TRUE
		WHERE reward_id = $1 AND recipient_id = $2 AND claimed = FALSE
	`, rewardID, recipientID)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	if rows == 0 {
		var claimed bool
		err := db.QueryRow(`
			SELECT claimed
			FROM reward_records
			WHERE reward_id = $1 AND recipient_id = $2
		`, rewardID, recipientID).Scan(&claimed)
		if err == sql.ErrNoRows {
			return nil, notFoundError("REWARD_NOT_FOUND")
		}
		if err != nil {
			return nil, transientError("STORE_UNAVAILABLE", err)
		}
		return nil, stateConflictError("REWARD_ALREADY_CLAIMED")
	}

	var r RewardRecord
	err = db.QueryRow(`
		SELECT reward_id, recipient_id, source_conflict_id, coins, gems, xp, claimed, created_at
		FROM reward_records
		WHERE reward_id = $1
	`, rewardID).Scan(&r.RewardID, &r.RecipientID, &r.SourceConflictID,
		&r.Coins, &r.Gems, &r.XP, &r.Claimed, &r.CreatedAt)
	if err != nil {
		return nil, transientError("STORE_UNAVAILABLE", err)
	}
	return &r, nil
}
