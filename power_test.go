package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuildPowerWeights(t *testing.T) {
	g := Guild{MemberCount: 10}
	assert.Equal(t, 1000.0, GuildPower(g))

	g.Treasury = 1000
	assert.Equal(t, 1050.0, GuildPower(g))

	g.Holdings = []Holding{
		{Ticker: "IRON", Shares: 100, Price: 5.0},
		{Ticker: "GOLD", Shares: 10, Price: 50.0},
	}
	// 1050 + 0.1*(100*5 + 10*50) = 1150
	assert.Equal(t, 1150.0, GuildPower(g))
}

func TestGuildPowerDeterministic(t *testing.T) {
	g := Guild{
		MemberCount: 25,
		Treasury:    48000,
		Holdings:    []Holding{{Ticker: "OIL", Shares: 300, Price: 12.5}},
	}
	first := GuildPower(g)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, GuildPower(g))
	}
}

func TestGuildPowerEmptyGuild(t *testing.T) {
	assert.Equal(t, 0.0, GuildPower(Guild{}))
}
