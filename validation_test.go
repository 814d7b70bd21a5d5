package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidID(t *testing.T) {
	assert.True(t, isValidID("guild-42"))
	assert.True(t, isValidID("player_abc"))
	assert.True(t, isValidID("a1b2c3d4-e5f6-7890-abcd-ef1234567890"))

	assert.False(t, isValidID(""))
	assert.False(t, isValidID("has space"))
	assert.False(t, isValidID("semi;colon"))
	assert.False(t, isValidID("quote'"))
	assert.False(t, isValidID(strings.Repeat("a", 65)))
	assert.True(t, isValidID(strings.Repeat("a", 64)))
}
