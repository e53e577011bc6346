package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// WorldMetrics 记录运行期的关键指标（用于监控与调试）
type WorldMetrics struct {
	Connects           int64 // 入场次数
	Disconnects        int64 // 离场次数
	EventsApplied      int64 // 被接受并生效的事件数
	EventsDropped      int64 // 因前置条件不满足被丢弃的事件数
	ChanFullDiscarded  int64 // 因命令通道满被丢弃的事件数
	Broadcasts         int64 // 扇出批次数
	BattlesReaped      int64 // 被清理的交易对战数
	GamesReaped        int64 // 被清理的街机游戏数
	InteractionsReaped int64 // 被清理的 NPC 交互数
}

func (m *WorldMetrics) IncConnects()           { atomic.AddInt64(&m.Connects, 1) }
func (m *WorldMetrics) IncDisconnects()        { atomic.AddInt64(&m.Disconnects, 1) }
func (m *WorldMetrics) IncEventsApplied()      { atomic.AddInt64(&m.EventsApplied, 1) }
func (m *WorldMetrics) IncEventsDropped()      { atomic.AddInt64(&m.EventsDropped, 1) }
func (m *WorldMetrics) IncChanFullDiscarded()  { atomic.AddInt64(&m.ChanFullDiscarded, 1) }
func (m *WorldMetrics) IncBroadcasts()         { atomic.AddInt64(&m.Broadcasts, 1) }
func (m *WorldMetrics) IncBattlesReaped()      { atomic.AddInt64(&m.BattlesReaped, 1) }
func (m *WorldMetrics) IncGamesReaped()        { atomic.AddInt64(&m.GamesReaped, 1) }
func (m *WorldMetrics) IncInteractionsReaped() { atomic.AddInt64(&m.InteractionsReaped, 1) }

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *WorldMetrics) Snapshot() map[string]any {
	return map[string]any{
		"connects":            atomic.LoadInt64(&m.Connects),
		"disconnects":         atomic.LoadInt64(&m.Disconnects),
		"events_applied":      atomic.LoadInt64(&m.EventsApplied),
		"events_dropped":      atomic.LoadInt64(&m.EventsDropped),
		"chan_full_discarded": atomic.LoadInt64(&m.ChanFullDiscarded),
		"broadcasts":          atomic.LoadInt64(&m.Broadcasts),
		"battles_reaped":      atomic.LoadInt64(&m.BattlesReaped),
		"games_reaped":        atomic.LoadInt64(&m.GamesReaped),
		"interactions_reaped": atomic.LoadInt64(&m.InteractionsReaped),
	}
}

// HandleMetrics 输出世界运行指标
// GET /metrics
func (w *World) HandleMetrics(rw http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"online":  w.online.Load(),
		"metrics": w.metrics.Snapshot(),
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(payload)
}
