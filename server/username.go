package server

import (
	"math/rand"
	"strconv"
	"strings"
)

// 占位用户名词表（形容词+名词+1..999）
var (
	usernameAdjectives = []string{"Diamond", "Moon", "Rocket", "Degen", "Pump", "Hodl", "Based", "Chad", "Alpha", "Sigma"}
	usernameNouns      = []string{"Trader", "Holder", "Ape", "Bull", "Hunter", "Lord", "King", "Master", "Whale", "Legend"}
)

// UsernameSet 进程级用户名集合：小写形式在集合中 <=> 恰有一个在线玩家持有它
// 本身不加锁：所有调用都发生在世界循环这一个协程里（见 world.go）
type UsernameSet struct {
	used map[string]struct{}
}

// NewUsernameSet 创建空集合
func NewUsernameSet() *UsernameSet {
	return &UsernameSet{used: make(map[string]struct{})}
}

// Placeholder 随机拼一个占位名；本身不保证唯一，唯一性由 Allocate 的消歧兜底
func (s *UsernameSet) Placeholder() string {
	adj := usernameAdjectives[rand.Intn(len(usernameAdjectives))]
	noun := usernameNouns[rand.Intn(len(usernameNouns))]
	return adj + noun + strconv.Itoa(rand.Intn(999)+1)
}

// Allocate 分配一个唯一用户名并占用它
// requested 为空时从占位名起步；冲突时对“基础名”依次追加 1、2、…
// 服务端不做长度/字符集校验：任何字符串都接受
func (s *UsernameSet) Allocate(requested string) string {
	base := requested
	if base == "" {
		base = s.Placeholder()
	}

	name := base
	counter := 1
	for s.taken(name) {
		name = base + strconv.Itoa(counter)
		counter++
	}

	s.used[strings.ToLower(name)] = struct{}{}
	return name
}

// Release 释放用户名（大小写不敏感）；不存在则为 no-op
func (s *UsernameSet) Release(name string) {
	delete(s.used, strings.ToLower(name))
}

// Rename 改名 = 先释放旧名再分配新名
// 先释放意味着 "Alice"→"alice" 这类只改大小写的请求不会吃到 "1" 后缀
func (s *UsernameSet) Rename(old, requested string) string {
	if old != "" {
		s.Release(old)
	}
	return s.Allocate(requested)
}

func (s *UsernameSet) taken(name string) bool {
	_, ok := s.used[strings.ToLower(name)]
	return ok
}
