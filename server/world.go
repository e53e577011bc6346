package server

import (
	"context"
	"sort"
	"sync/atomic"
	"time"
)

// 命令通道容量：网络读协程只投递，不直接碰注册表
const commandQueueSize = 256

type commandKind int

const (
	cmdConnect commandKind = iota
	cmdDisconnect
	cmdEvent
)

// command 进入世界循环的统一指令：同一连接的 connect/事件/disconnect
// 走同一条通道，天然保持到达顺序
type command struct {
	kind     commandKind
	client   *ClientConn // 仅 cmdConnect
	playerID string
	env      Envelope // 仅 cmdEvent
}

// World 权威世界聚合：玩家表、三个活动注册表、用户名集合
// 全部状态只被 Run 所在的单协程读写（串行变更流），因此无锁
type World struct {
	players         map[string]*Player
	tradingBattles  map[string]*TradingBattle
	arcadeGames     map[string]*ArcadeGame
	npcInteractions map[string]*NpcInteraction
	usernames       *UsernameSet

	commands chan command
	metrics  *WorldMetrics
	upgrader wsUpgrader

	// 清理参数，/admin/config 可热更，故用原子量（纳秒）
	reapIntervalNs atomic.Int64
	idleTimeoutNs  atomic.Int64

	online atomic.Int64 // 在线人数，仅供 /metrics 读取

	now func() time.Time // 测试可替换
}

// NewWorld 构建一个独立的世界实例（每进程一个，注入使用，无单例）
func NewWorld(cfg Config) *World {
	w := &World{
		players:         make(map[string]*Player),
		tradingBattles:  make(map[string]*TradingBattle),
		arcadeGames:     make(map[string]*ArcadeGame),
		npcInteractions: make(map[string]*NpcInteraction),
		usernames:       NewUsernameSet(),
		commands:        make(chan command, commandQueueSize),
		metrics:         &WorldMetrics{},
		now:             time.Now,
	}
	w.upgrader = newUpgrader(cfg.AllowedOrigins)
	w.reapIntervalNs.Store(int64(defaultReapInterval))
	w.idleTimeoutNs.Store(int64(defaultIdleTimeout))
	return w
}

// Run 世界循环：一次只执行一条命令；清理扫描也作为循环的一步，
// 绝不和事件处理交错
func (w *World) Run(ctx context.Context) {
	timer := time.NewTimer(w.reapInterval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-w.commands:
			w.apply(cmd)
		case <-timer.C:
			w.sweep(w.now())
			timer.Reset(w.reapInterval())
		}
	}
}

func (w *World) apply(cmd command) {
	switch cmd.kind {
	case cmdConnect:
		w.handleConnect(cmd.client)
	case cmdDisconnect:
		w.handleDisconnect(cmd.playerID)
	case cmdEvent:
		w.route(cmd.playerID, cmd.env)
	}
}

// Connect 连接入场（阻塞投递：入场不允许丢）
func (w *World) Connect(c *ClientConn) {
	w.commands <- command{kind: cmdConnect, client: c}
}

// Disconnect 连接离场（阻塞投递：清理必须恰好执行一次）
func (w *World) Disconnect(playerID string) {
	w.commands <- command{kind: cmdDisconnect, playerID: playerID}
}

// Post 投递一条入站事件；拥塞时丢弃（fire-and-forget，不回压网络读协程）
func (w *World) Post(playerID string, env Envelope) {
	select {
	case w.commands <- command{kind: cmdEvent, playerID: playerID, env: env}:
	default:
		w.metrics.IncChanFullDiscarded()
	}
}

// handleConnect 建档：先占住占位用户名，再让玩家对外可见
func (w *World) handleConnect(c *ClientConn) {
	now := w.now()
	p := newPlayer(c.ID, now)
	p.Username = w.usernames.Allocate("")
	p.conn = c
	w.players[c.ID] = p
	w.online.Add(1)
	w.metrics.IncConnects()

	// 全量快照只给新连接；其他人收 playerJoined
	w.unicastPlayer(p, EventGameState, w.snapshot(c.ID))
	w.broadcastOthers(c.ID, EventPlayerJoined, p)

	Log.Infof("player connected: %s (%s)", p.Username, c.ID)
}

// handleDisconnect 离场清理：用户名、玩家档案、NPC 交互、街机游戏、
// 交易对战（清空即删）一步完成，随后才广播 playerLeft。
// 重复调用或未知 id 均为 no-op。
func (w *World) handleDisconnect(playerID string) {
	p, ok := w.players[playerID]
	if !ok {
		return
	}

	w.usernames.Release(p.Username)
	delete(w.players, playerID)
	delete(w.npcInteractions, playerID)

	for _, g := range w.arcadeGames {
		g.Leave(playerID)
	}
	for id, b := range w.tradingBattles {
		b.Players = removeID(b.Players, playerID)
		if len(b.Players) == 0 {
			delete(w.tradingBattles, id)
		}
	}

	w.online.Add(-1)
	w.metrics.IncDisconnects()
	w.broadcastAll(EventPlayerLeft, playerID)

	if p.conn != nil {
		p.conn.Close()
	}

	Log.Infof("player disconnected: %s (%s)", p.Username, playerID)
}

// applyMove 覆盖写变换字段；未知 id（和断开竞态）静默忽略
func (w *World) applyMove(playerID string, mv playerMovePayload) (*Player, bool) {
	p, ok := w.players[playerID]
	if !ok {
		return nil, false
	}
	p.Position = mv.Position
	p.Rotation = mv.Rotation
	p.Moving = mv.Moving
	p.Animation = mv.Animation
	return p, true
}

// applyStatsMerge 浅合并属性袋：只替换出现的顶层键，未提及的保留
func (w *World) applyStatsMerge(playerID string, partial map[string]any) (*Player, bool) {
	p, ok := w.players[playerID]
	if !ok {
		return nil, false
	}
	for k, v := range partial {
		p.Stats[k] = v
	}
	return p, true
}

// snapshot 当前世界全量状态（发给新连接）
func (w *World) snapshot(yourID string) gameStatePayload {
	players := make([]*Player, 0, len(w.players))
	for _, p := range w.players {
		players = append(players, p)
	}
	// 按入场时间排序，输出确定性
	sort.Slice(players, func(i, j int) bool {
		if players[i].ConnectedAt != players[j].ConnectedAt {
			return players[i].ConnectedAt < players[j].ConnectedAt
		}
		return players[i].ID < players[j].ID
	})

	games := make(map[string]arcadeGameView, len(w.arcadeGames))
	for id, g := range w.arcadeGames {
		games[id] = g.view()
	}

	return gameStatePayload{
		Players: players,
		World: worldSnapshot{
			NpcInteractions: w.npcInteractions,
			ArcadeGames:     games,
			TradingBattles:  w.tradingBattles,
		},
		YourID: yourID,
	}
}

// --- 扇出 ---
// 载荷在当前循环步内序列化一次，读到的一定是刚提交的一致状态

func (w *World) broadcastAll(eventType string, payload any) {
	b, err := encodeEvent(eventType, payload)
	if err != nil {
		Log.Errorf("encode %s: %v", eventType, err)
		return
	}
	for _, p := range w.players {
		if p.conn != nil {
			p.conn.Enqueue(b)
		}
	}
	w.metrics.IncBroadcasts()
}

func (w *World) broadcastOthers(senderID, eventType string, payload any) {
	b, err := encodeEvent(eventType, payload)
	if err != nil {
		Log.Errorf("encode %s: %v", eventType, err)
		return
	}
	for id, p := range w.players {
		if id == senderID {
			continue
		}
		if p.conn != nil {
			p.conn.Enqueue(b)
		}
	}
	w.metrics.IncBroadcasts()
}

func (w *World) unicast(ids []string, eventType string, payload any) {
	b, err := encodeEvent(eventType, payload)
	if err != nil {
		Log.Errorf("encode %s: %v", eventType, err)
		return
	}
	for _, id := range ids {
		if p, ok := w.players[id]; ok && p.conn != nil {
			p.conn.Enqueue(b)
		}
	}
}

func (w *World) unicastPlayer(p *Player, eventType string, payload any) {
	if p.conn == nil {
		return
	}
	b, err := encodeEvent(eventType, payload)
	if err != nil {
		Log.Errorf("encode %s: %v", eventType, err)
		return
	}
	p.conn.Enqueue(b)
}

func (w *World) reapInterval() time.Duration {
	return time.Duration(w.reapIntervalNs.Load())
}

func (w *World) idleTimeout() time.Duration {
	return time.Duration(w.idleTimeoutNs.Load())
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
