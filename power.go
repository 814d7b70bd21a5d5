package main

const (
	powerMemberWeight   = 100.0
	powerTreasuryWeight = 0.05
	powerHoldingWeight  = 0.1
)

// GuildPower derives the matchmaking/battle power scalar. It is a pure
// ranking signal: only relative differences between guilds matter, the
// absolute scale does not.
func GuildPower(g Guild) float64 {
	power := powerMemberWeight * float64(g.MemberCount)
	power += powerTreasuryWeight * float64(g.Treasury)
	for _, h := range g.Holdings {
		power += powerHoldingWeight * float64(h.Shares) * h.Price
	}
	return power
}
