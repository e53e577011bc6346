package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerColorIsDeterministic(t *testing.T) {
	id := "3f1c9a70-5b77-4a9e-9e2e-8f0f4dd0a001"
	first := PlayerColor(id)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, PlayerColor(id))
	}
	assert.Contains(t, playerPalette[:], first)
}

func TestPlayerColorMatchesReferenceHash(t *testing.T) {
	// "abc" -> ((0*31+97)*31+98)*31+99 = 96354 -> 96354 % 8 = 2
	assert.Equal(t, playerPalette[2], PlayerColor("abc"))
	// 空 id 落在 0 号色
	assert.Equal(t, playerPalette[0], PlayerColor(""))
}

func TestNewPlayerDefaults(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	p := newPlayer("p1", now)

	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "idle", p.Animation)
	assert.False(t, p.Moving)
	assert.Equal(t, Vec3{}, p.Position)
	assert.Equal(t, now.UnixMilli(), p.ConnectedAt)

	require.NotNil(t, p.Stats)
	assert.EqualValues(t, 1000, p.Stats["pumpCoins"])
	assert.EqualValues(t, 1, p.Stats["degenLevel"])
	assert.EqualValues(t, 0, p.Stats["degenXP"])
	trading, ok := p.Stats["tradingStats"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 0, trading["totalTrades"])
	assert.EqualValues(t, 0, trading["diamondHandsStreak"])
}

func TestDefaultStatsAreNotShared(t *testing.T) {
	now := time.Now()
	p1 := newPlayer("p1", now)
	p2 := newPlayer("p2", now)

	p1.Stats["pumpCoins"] = 0
	assert.EqualValues(t, 1000, p2.Stats["pumpCoins"], "each player owns its stats bag")
}
