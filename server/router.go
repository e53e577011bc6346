package server

import (
	"encoding/json"
	"fmt"
	"strings"
)

// route 事件路由：每种入站事件一个处理分支
// 前置条件不满足（发送者未知、对战不存在/非 waiting、载荷解不开）一律
// 静默丢弃：不改状态、不扇出、不向发送者回错（fire-and-forget）
func (w *World) route(playerID string, env Envelope) {
	switch env.Type {
	case EventSetUsername:
		w.onSetUsername(playerID, env.Payload)
	case EventPlayerMove:
		w.onPlayerMove(playerID, env.Payload)
	case EventUpdateStats:
		w.onUpdateStats(playerID, env.Payload)
	case EventCreateMemeCoin:
		w.onCreateMemeCoin(playerID, env.Payload)
	case EventStartTradingBattle:
		w.onStartTradingBattle(playerID, env.Payload)
	case EventJoinTradingBattle:
		w.onJoinTradingBattle(playerID, env.Payload)
	case EventNpcInteraction:
		w.onNpcInteraction(playerID, env.Payload)
	case EventChatMessage:
		w.onChatMessage(playerID, env.Payload)
	case EventArcadeGameEvent:
		w.onArcadeGameEvent(playerID, env.Payload)
	case EventPing:
		w.onPing(playerID)
	default:
		w.drop(playerID, env.Type, "unknown event")
	}
}

func (w *World) drop(playerID, eventType, reason string) {
	w.metrics.IncEventsDropped()
	Log.Debugf("drop %s from %s: %s", eventType, playerID, reason)
}

func (w *World) applied() { w.metrics.IncEventsApplied() }

// onSetUsername 改名：释放旧名 -> 消歧分配新名 -> 全体广播补丁
func (w *World) onSetUsername(playerID string, payload json.RawMessage) {
	p, ok := w.players[playerID]
	if !ok {
		w.drop(playerID, EventSetUsername, "unknown sender")
		return
	}
	var requested string
	if err := json.Unmarshal(payload, &requested); err != nil {
		w.drop(playerID, EventSetUsername, "bad payload")
		return
	}

	p.Username = w.usernames.Rename(p.Username, requested)
	w.applied()
	Log.Infof("player %s set username to: %s", playerID, p.Username)

	w.broadcastAll(EventPlayerUpdate, playerUpdatePayload{ID: playerID, Username: p.Username})
}

// onPlayerMove 变换上报：写档后广播给除发送者外的所有人
func (w *World) onPlayerMove(playerID string, payload json.RawMessage) {
	var mv playerMovePayload
	if err := json.Unmarshal(payload, &mv); err != nil {
		w.drop(playerID, EventPlayerMove, "bad payload")
		return
	}
	p, ok := w.applyMove(playerID, mv)
	if !ok {
		w.drop(playerID, EventPlayerMove, "unknown sender")
		return
	}
	w.applied()

	w.broadcastOthers(playerID, EventPlayerUpdate, playerUpdatePayload{
		ID:        playerID,
		Position:  &p.Position,
		Rotation:  &p.Rotation,
		Moving:    &p.Moving,
		Animation: p.Animation,
	})
}

// onUpdateStats 属性浅合并后广播给其他人
func (w *World) onUpdateStats(playerID string, payload json.RawMessage) {
	var partial map[string]any
	if err := json.Unmarshal(payload, &partial); err != nil {
		w.drop(playerID, EventUpdateStats, "bad payload")
		return
	}
	p, ok := w.applyStatsMerge(playerID, partial)
	if !ok {
		w.drop(playerID, EventUpdateStats, "unknown sender")
		return
	}
	w.applied()

	w.broadcastOthers(playerID, EventPlayerStatsUpdate, playerStatsPayload{ID: playerID, Stats: p.Stats})
}

// onCreateMemeCoin 无状态透传：不落任何注册表，拼好记录直接全体广播
func (w *World) onCreateMemeCoin(playerID string, payload json.RawMessage) {
	p, ok := w.players[playerID]
	if !ok {
		w.drop(playerID, EventCreateMemeCoin, "unknown sender")
		return
	}
	var coinData map[string]any
	if err := json.Unmarshal(payload, &coinData); err != nil {
		w.drop(playerID, EventCreateMemeCoin, "bad payload")
		return
	}
	w.applied()

	now := w.now().UnixMilli()
	coin := make(map[string]any, len(coinData)+4)
	coin["id"] = fmt.Sprintf("%s_%d", playerID, now)
	coin["creatorId"] = playerID
	coin["creatorName"] = p.Username
	for k, v := range coinData {
		coin[k] = v
	}
	coin["timestamp"] = now

	w.broadcastAll(EventMemeCoinCreated, coin)
}

// onStartTradingBattle 建一场 waiting 对战（参与者只有发起人），
// 向其他人广播邀请
func (w *World) onStartTradingBattle(playerID string, payload json.RawMessage) {
	p, ok := w.players[playerID]
	if !ok {
		w.drop(playerID, EventStartTradingBattle, "unknown sender")
		return
	}
	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		w.drop(playerID, EventStartTradingBattle, "bad payload")
		return
	}
	w.applied()

	now := w.now().UnixMilli()
	battleID := fmt.Sprintf("battle_%d", now)
	w.tradingBattles[battleID] = &TradingBattle{
		ID:        battleID,
		Players:   []string{playerID},
		Initiator: playerID,
		Status:    "waiting",
		StartTime: now,
		Data:      data,
	}

	w.broadcastOthers(playerID, EventTradingBattleInvite, tradingBattleInvitePayload{
		BattleID:  battleID,
		Initiator: p,
		Data:      data,
	})
}

// onJoinTradingBattle 仅 waiting 状态可加入；加入即转 active，
// 完整对战记录单播给全部参与者。对 active 对战的再次加入是 no-op。
func (w *World) onJoinTradingBattle(playerID string, payload json.RawMessage) {
	var battleID string
	if err := json.Unmarshal(payload, &battleID); err != nil {
		w.drop(playerID, EventJoinTradingBattle, "bad payload")
		return
	}
	b, ok := w.tradingBattles[battleID]
	if !ok || b.Status != "waiting" {
		w.drop(playerID, EventJoinTradingBattle, "no joinable battle")
		return
	}
	w.applied()

	b.Players = append(b.Players, playerID)
	b.Status = "active"

	w.unicast(b.Players, EventTradingBattleStart, b)
}

// onNpcInteraction 覆盖式登记（每玩家至多一条），广播给其他人
func (w *World) onNpcInteraction(playerID string, payload json.RawMessage) {
	if _, ok := w.players[playerID]; !ok {
		w.drop(playerID, EventNpcInteraction, "unknown sender")
		return
	}
	var data npcInteractionPayload
	if err := json.Unmarshal(payload, &data); err != nil {
		w.drop(playerID, EventNpcInteraction, "bad payload")
		return
	}
	w.applied()

	w.npcInteractions[playerID] = &NpcInteraction{
		PlayerID:  playerID,
		NpcID:     data.NpcID,
		Action:    data.Action,
		Timestamp: w.now().UnixMilli(),
	}

	w.broadcastOthers(playerID, EventNpcInteractionUpdate, npcInteractionUpdatePayload{
		PlayerID: playerID,
		NpcID:    data.NpcID,
		Action:   data.Action,
	})
}

// onChatMessage 聊天不落库：trim 后带用户名和颜色全体广播
// 空串也照发（服务端不做内容校验）
func (w *World) onChatMessage(playerID string, payload json.RawMessage) {
	p, ok := w.players[playerID]
	if !ok {
		w.drop(playerID, EventChatMessage, "unknown sender")
		return
	}
	var message string
	if err := json.Unmarshal(payload, &message); err != nil {
		w.drop(playerID, EventChatMessage, "bad payload")
		return
	}
	w.applied()

	now := w.now().UnixMilli()
	w.broadcastAll(EventChatMessage, chatMessagePayload{
		ID:        fmt.Sprintf("msg_%d", now),
		PlayerID:  playerID,
		Username:  p.Username,
		Message:   strings.TrimSpace(message),
		Timestamp: now,
		Color:     p.Color,
	})
}

// onArcadeGameEvent 未知 gameId 先懒建（无前置条件，来源行为如此），
// join/leave/score 之外的动作只触发一次广播
func (w *World) onArcadeGameEvent(playerID string, payload json.RawMessage) {
	var data arcadeGamePayload
	if err := json.Unmarshal(payload, &data); err != nil {
		w.drop(playerID, EventArcadeGameEvent, "bad payload")
		return
	}
	w.applied()

	gameID := data.GameID
	if gameID == "" {
		gameID = fmt.Sprintf("arcade_%d", w.now().UnixMilli())
	}
	g, ok := w.arcadeGames[gameID]
	if !ok {
		g = newArcadeGame(gameID)
		w.arcadeGames[gameID] = g
	}

	switch data.Action {
	case "join":
		g.Join(playerID)
	case "leave":
		g.Leave(playerID)
	case "score":
		g.SetScore(playerID, data.Score)
	}

	w.broadcastAll(EventArcadeGameUpdate, g.view())
}

// onPing 应用层心跳：只回发送者一个 pong
func (w *World) onPing(playerID string) {
	p, ok := w.players[playerID]
	if !ok {
		w.drop(playerID, EventPing, "unknown sender")
		return
	}
	w.applied()
	w.unicastPlayer(p, EventPong, nil)
}
