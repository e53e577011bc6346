package server

import "time"

const (
	// defaultReapInterval 清理扫描周期
	defaultReapInterval = time.Minute
	// defaultIdleTimeout 活动条目的闲置上限
	defaultIdleTimeout = 5 * time.Minute
)

// sweep 过期清理：在世界循环内执行，和事件处理串行
// 驱逐是静默的——不向任何客户端发通知，客户端靠后续广播缺席感知
func (w *World) sweep(now time.Time) {
	cutoff := now.Add(-w.idleTimeout()).UnixMilli()

	// NPC 交互：按登记时间过期
	for id, n := range w.npcInteractions {
		if n.Timestamp < cutoff {
			delete(w.npcInteractions, id)
			w.metrics.IncInteractionsReaped()
		}
	}

	// 街机游戏：空场即清
	for id, g := range w.arcadeGames {
		if len(g.Players) == 0 {
			delete(w.arcadeGames, id)
			w.metrics.IncGamesReaped()
		}
	}

	// 交易对战：按开局时间过期，active 也照样清（来源行为，保留）
	for id, b := range w.tradingBattles {
		if b.StartTime < cutoff {
			delete(w.tradingBattles, id)
			w.metrics.IncBattlesReaped()
		}
	}
}
