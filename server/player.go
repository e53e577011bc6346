package server

import "time"

// Vec3 三维向量（位置/欧拉角），服务端不做任何校正，直接透传客户端上报值
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotation 旋转；w 可选（客户端用四元数时才带）
type Rotation struct {
	X float64  `json:"x"`
	Y float64  `json:"y"`
	Z float64  `json:"z"`
	W *float64 `json:"w,omitempty"`
}

// Color RGB 三元组（0..1 浮点）
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// 固定 8 色调色板，按连接 id 确定性取色（允许撞色）
var playerPalette = [8]Color{
	{R: 0.06, G: 1.0, B: 0.65},  // Pump.fun 绿
	{R: 0.55, G: 0.32, B: 0.96}, // 紫
	{R: 1.0, G: 0.6, B: 0.0},    // 橙
	{R: 1.0, G: 0.2, B: 0.6},    // 粉
	{R: 0.2, G: 0.8, B: 1.0},    // 蓝
	{R: 1.0, G: 1.0, B: 0.2},    // 黄
	{R: 0.8, G: 0.2, B: 0.2},    // 红
	{R: 0.4, G: 0.8, B: 0.4},    // 浅绿
}

// PlayerColor 对 id 做 31 进制哈希（int32 回绕）后取模选色
// 只求稳定，不求唯一
func PlayerColor(id string) Color {
	var h int32
	for _, ch := range id {
		h = (h << 5) - h + int32(ch)
	}
	i := h % int32(len(playerPalette))
	if i < 0 {
		i = -i
	}
	return playerPalette[i]
}

// Player 一条连接对应的权威玩家记录，只有本人的事件能改写它
type Player struct {
	ID          string         `json:"id"`
	Position    Vec3           `json:"position"`
	Rotation    Rotation       `json:"rotation"`
	Moving      bool           `json:"moving"`
	Animation   string         `json:"animation"`
	Color       Color          `json:"color"`
	Username    string         `json:"username"`
	Stats       map[string]any `json:"stats"`
	ConnectedAt int64          `json:"connectedAt"`

	conn *ClientConn // 出站发送端（写协程持有读端），不参与序列化
}

// defaultStats 新玩家的初始属性包
// 属性是开放袋：updateStats 可以写入任意顶层键，合并为浅合并
func defaultStats() map[string]any {
	return map[string]any{
		"pumpCoins":  1000,
		"degenLevel": 1,
		"degenXP":    0,
		"tradingStats": map[string]any{
			"totalTrades":        0,
			"wins":               0,
			"losses":             0,
			"biggestPump":        0,
			"diamondHandsStreak": 0,
		},
	}
}

// newPlayer 按连接 id 构建初始玩家（用户名由调用方分配后填入）
func newPlayer(id string, now time.Time) *Player {
	return &Player{
		ID:          id,
		Animation:   "idle",
		Color:       PlayerColor(id),
		Stats:       defaultStats(),
		ConnectedAt: now.UnixMilli(),
	}
}
