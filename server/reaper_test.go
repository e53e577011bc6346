package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepEvictsStaleBattlesRegardlessOfStatus(t *testing.T) {
	w := newTestWorld(t)
	connect(t, w, "a")
	connect(t, w, "b")

	t0 := w.now()
	postEvent(t, w, "a", EventStartTradingBattle, map[string]any{})
	require.Len(t, w.tradingBattles, 1)
	var battleID string
	for id := range w.tradingBattles {
		battleID = id
	}
	// active 状态不豁免（来源行为：按开局时间一刀切）
	postEvent(t, w, "b", EventJoinTradingBattle, battleID)
	require.Equal(t, "active", w.tradingBattles[battleID].Status)

	// 未到阈值：保留
	w.sweep(t0.Add(4 * time.Minute))
	assert.Contains(t, w.tradingBattles, battleID)

	// 刚好等于阈值：保留（严格大于才清）
	w.sweep(t0.Add(5 * time.Minute))
	assert.Contains(t, w.tradingBattles, battleID)

	w.sweep(t0.Add(5*time.Minute + time.Second))
	assert.NotContains(t, w.tradingBattles, battleID)
	assert.EqualValues(t, 1, w.metrics.BattlesReaped)
}

func TestSweepEvictsEmptyArcadeGamesOnly(t *testing.T) {
	w := newTestWorld(t)
	connect(t, w, "a")

	postEvent(t, w, "a", EventArcadeGameEvent, arcadeGamePayload{GameID: "busy", Action: "join"})
	postEvent(t, w, "a", EventArcadeGameEvent, arcadeGamePayload{GameID: "empty", Action: "spectate"})

	w.sweep(w.now())

	assert.Contains(t, w.arcadeGames, "busy", "game with participants survives")
	assert.NotContains(t, w.arcadeGames, "empty")
	assert.EqualValues(t, 1, w.metrics.GamesReaped)
}

func TestSweepEvictsStaleNpcInteractions(t *testing.T) {
	w := newTestWorld(t)
	connect(t, w, "a")
	connect(t, w, "b")

	t0 := w.now()
	postEvent(t, w, "a", EventNpcInteraction, npcInteractionPayload{NpcID: "npc-1", Action: "talk"})

	// b 的交互晚登记 4 分钟
	w.now = func() time.Time { return t0.Add(4 * time.Minute) }
	postEvent(t, w, "b", EventNpcInteraction, npcInteractionPayload{NpcID: "npc-2", Action: "talk"})

	w.sweep(t0.Add(5*time.Minute + time.Second))

	assert.NotContains(t, w.npcInteractions, "a")
	assert.Contains(t, w.npcInteractions, "b", "fresh interaction survives the sweep")
}

func TestSweepFreshEntriesSurvive(t *testing.T) {
	w := newTestWorld(t)
	connect(t, w, "a")

	postEvent(t, w, "a", EventStartTradingBattle, map[string]any{})
	postEvent(t, w, "a", EventNpcInteraction, npcInteractionPayload{NpcID: "npc-1", Action: "talk"})

	w.sweep(w.now()) // age 0

	assert.Len(t, w.tradingBattles, 1)
	assert.Len(t, w.npcInteractions, 1)
}

func TestSweepIsSilent(t *testing.T) {
	w := newTestWorld(t)
	a := connect(t, w, "a")
	postEvent(t, w, "a", EventStartTradingBattle, map[string]any{})
	drainEvents(t, a)

	w.sweep(w.now().Add(time.Hour))

	assert.Empty(t, w.tradingBattles)
	assert.Empty(t, drainEvents(t, a), "eviction sends no notifications")
}

func TestIdleTimeoutIsHotTunable(t *testing.T) {
	w := newTestWorld(t)
	connect(t, w, "a")

	t0 := w.now()
	postEvent(t, w, "a", EventStartTradingBattle, map[string]any{})

	w.idleTimeoutNs.Store(int64(10 * time.Second))
	w.sweep(t0.Add(11 * time.Second))

	assert.Empty(t, w.tradingBattles)
}
