package server

import (
	"encoding/json"
	"sort"
)

// 活动注册表的三种条目。它们和玩家表一样只在世界循环里被读写，
// 过期清理见 reaper.go。

// TradingBattle 交易对战：waiting -> active，第二人加入时翻转
type TradingBattle struct {
	ID        string         `json:"id"`
	Players   []string       `json:"players"`
	Initiator string         `json:"initiator"`
	Status    string         `json:"status"`
	StartTime int64          `json:"startTime"`
	Data      map[string]any `json:"-"` // 发起方附带的透传数据
}

// 对战记录的保留键；Data 中的同名键不允许覆盖状态机字段
var battleReservedKeys = map[string]struct{}{
	"id": {}, "players": {}, "initiator": {}, "status": {}, "startTime": {},
}

// MarshalJSON 将 Data 的非保留键平铺进对战记录（广播时客户端拿到完整对象）
func (b *TradingBattle) MarshalJSON() ([]byte, error) {
	type alias TradingBattle
	raw, err := json.Marshal((*alias)(b))
	if err != nil {
		return nil, err
	}
	if len(b.Data) == 0 {
		return raw, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	for k, v := range b.Data {
		if _, reserved := battleReservedKeys[k]; !reserved {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// ArcadeGame 街机游戏：参与者集合 + 分数表
// status 目前恒为 waiting（来源行为如此，保留）
type ArcadeGame struct {
	ID      string
	Players map[string]struct{}
	Scores  map[string]float64
	Status  string
}

func newArcadeGame(id string) *ArcadeGame {
	return &ArcadeGame{
		ID:      id,
		Players: make(map[string]struct{}),
		Scores:  make(map[string]float64),
		Status:  "waiting",
	}
}

// Join 加入并清零分数
func (g *ArcadeGame) Join(playerID string) {
	g.Players[playerID] = struct{}{}
	g.Scores[playerID] = 0
}

// Leave 参与者与分数一起移除
func (g *ArcadeGame) Leave(playerID string) {
	delete(g.Players, playerID)
	delete(g.Scores, playerID)
}

// SetScore 覆盖写分数
func (g *ArcadeGame) SetScore(playerID string, score float64) {
	g.Scores[playerID] = score
}

// PlayerList 排序后的参与者列表（广播输出确定性）
func (g *ArcadeGame) PlayerList() []string {
	ids := make([]string, 0, len(g.Players))
	for id := range g.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NpcInteraction 以玩家 id 为键：每个玩家至多一条在档交互，新交互覆盖旧的
type NpcInteraction struct {
	PlayerID  string `json:"playerId"`
	NpcID     string `json:"npcId"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
}
