package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type wsUpgrader = websocket.Upgrader

// newUpgrader 按来源白名单构建升级器
// 无 Origin 头（非浏览器客户端、测试）直接放行；带头则必须命中白名单
func newUpgrader(allowedOrigins []string) wsUpgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.ToLower(o)] = struct{}{}
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[strings.ToLower(origin)]
			return ok
		},
	}
}

// ClientConn 负责发送（写）数据到客户端的轻量包装
// ID 即连接标识，也是玩家 id（连接存续期内稳定）
type ClientConn struct {
	ID   string
	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ID:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, 64),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) {
	select {
	case c.send <- b:
	default:
		// 为了实时性，丢弃（防止慢客户端阻塞世界循环）
	}
}

// Close 关闭底层连接与发送队列（幂等）
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (c *ClientConn) writePump() {
	defer c.ws.Close()
	for msg := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump 读取客户端事件帧，投递进世界循环
// 退出时（对端断开/超时）触发一次离场清理
func (c *ClientConn) readPump(w *World) {
	defer c.ws.Close()
	defer w.Disconnect(c.ID)
	c.ws.SetReadLimit(1 << 20) // 1MB
	_ = c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		// 任何入站帧都算连接存活
		_ = c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))

		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			continue // 坏帧忽略，读循环继续
		}
		w.Post(c.ID, env)
	}
}

// HandleWS WebSocket 接入：升级成功即入场，断开即离场
func (w *World) HandleWS(rw http.ResponseWriter, r *http.Request) {
	ws, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}

	client := NewClientConn(ws)
	w.Connect(client)

	go client.writePump()
	go client.readPump(w)
}
