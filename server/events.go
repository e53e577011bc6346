package server

import "encoding/json"

// 双向统一帧：{"type":"<事件名>","payload":<JSON>}
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// 客户端 -> 服务端事件名
const (
	EventSetUsername        = "setUsername"
	EventPlayerMove         = "playerMove"
	EventUpdateStats        = "updateStats"
	EventCreateMemeCoin     = "createMemeCoin"
	EventStartTradingBattle = "startTradingBattle"
	EventJoinTradingBattle  = "joinTradingBattle"
	EventNpcInteraction     = "npcInteraction"
	EventChatMessage        = "chatMessage"
	EventArcadeGameEvent    = "arcadeGameEvent"
	EventPing               = "ping"
)

// 服务端 -> 客户端事件名
const (
	EventGameState            = "gameState"
	EventPlayerJoined         = "playerJoined"
	EventPlayerLeft           = "playerLeft"
	EventPlayerUpdate         = "playerUpdate"
	EventPlayerStatsUpdate    = "playerStatsUpdate"
	EventMemeCoinCreated      = "memeAcoinCreated" // 来源的拼写如此，客户端按它监听
	EventTradingBattleInvite  = "tradingBattleInvite"
	EventTradingBattleStart   = "tradingBattleStart"
	EventArcadeGameUpdate     = "arcadeGameUpdate"
	EventNpcInteractionUpdate = "npcInteractionUpdate"
	EventPong                 = "pong"
)

// encodeEvent 组一帧出站消息
func encodeEvent(eventType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Envelope{Type: eventType, Payload: raw})
}

// --- 入站载荷 ---

type playerMovePayload struct {
	Position  Vec3     `json:"position"`
	Rotation  Rotation `json:"rotation"`
	Moving    bool     `json:"moving"`
	Animation string   `json:"animation"`
}

type npcInteractionPayload struct {
	NpcID  string `json:"npcId"`
	Action string `json:"action"`
}

type arcadeGamePayload struct {
	GameID string  `json:"gameId"`
	Action string  `json:"action"`
	Score  float64 `json:"score"`
}

// --- 出站载荷 ---

// gameState：只发给新连接的全量快照
type gameStatePayload struct {
	Players []*Player     `json:"players"`
	World   worldSnapshot `json:"world"`
	YourID  string        `json:"yourId"`
}

type worldSnapshot struct {
	NpcInteractions map[string]*NpcInteraction `json:"npcInteractions"`
	ArcadeGames     map[string]arcadeGameView  `json:"arcadeGames"`
	TradingBattles  map[string]*TradingBattle  `json:"tradingBattles"`
}

// arcadeGameView 街机游戏的广播形态（集合/映射转为列表/对象）
type arcadeGameView struct {
	GameID  string             `json:"gameId"`
	Players []string           `json:"players"`
	Scores  map[string]float64 `json:"scores"`
	Status  string             `json:"status"`
}

func (g *ArcadeGame) view() arcadeGameView {
	return arcadeGameView{
		GameID:  g.ID,
		Players: g.PlayerList(),
		Scores:  g.Scores,
		Status:  g.Status,
	}
}

// playerUpdatePayload 玩家补丁：只序列化被置位的字段
type playerUpdatePayload struct {
	ID        string    `json:"id"`
	Username  string    `json:"username,omitempty"`
	Position  *Vec3     `json:"position,omitempty"`
	Rotation  *Rotation `json:"rotation,omitempty"`
	Moving    *bool     `json:"moving,omitempty"`
	Animation string    `json:"animation,omitempty"`
}

type playerStatsPayload struct {
	ID    string         `json:"id"`
	Stats map[string]any `json:"stats"`
}

type chatMessagePayload struct {
	ID        string `json:"id"`
	PlayerID  string `json:"playerId"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	Color     Color  `json:"color"`
}

type tradingBattleInvitePayload struct {
	BattleID  string         `json:"battleId"`
	Initiator *Player        `json:"initiator"`
	Data      map[string]any `json:"data"`
}

type npcInteractionUpdatePayload struct {
	PlayerID string `json:"playerId"`
	NpcID    string `json:"npcId"`
	Action   string `json:"action"`
}
