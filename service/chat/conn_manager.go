package chat

import (
	"sync"
)

// GroupScope / UserScope hub 里的 key：群广播与个人通知共用一个 hub
func GroupScope(groupID string) string { return "group:" + groupID }
func UserScope(userID string) string   { return "user:" + userID }

// ConnManager scope -> 连接集合；一条连接可以同时在多个 scope
type ConnManager struct {
	mu     sync.RWMutex
	scopes map[string]map[*Client]struct{}
}

func NewConnManager() *ConnManager {
	return &ConnManager{scopes: make(map[string]map[*Client]struct{})}
}

func (m *ConnManager) Join(scope string, c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.scopes[scope]
	if !ok {
		set = make(map[*Client]struct{})
		m.scopes[scope] = set
	}
	set[c] = struct{}{}
}

func (m *ConnManager) Leave(scope string, c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.scopes[scope]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(m.scopes, scope)
	}
}

// Broadcast 投递到 scope 下除 exclude 外的所有连接，返回成功入队数
func (m *ConnManager) Broadcast(scope string, payload []byte, exclude *Client) int {
	if len(payload) == 0 {
		return 0
	}
	m.mu.RLock()
	conns := make([]*Client, 0, len(m.scopes[scope]))
	for c := range m.scopes[scope] {
		if c != exclude {
			conns = append(conns, c)
		}
	}
	m.mu.RUnlock()

	n := 0
	for _, c := range conns {
		if c.Enqueue(payload) {
			n++
		}
	}
	return n
}

func (m *ConnManager) Size(scope string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.scopes[scope])
}

// CloseAll 进程退出时关闭全部连接，返回关闭数
func (m *ConnManager) CloseAll() int {
	m.mu.RLock()
	seen := make(map[*Client]struct{})
	for _, set := range m.scopes {
		for c := range set {
			seen[c] = struct{}{}
		}
	}
	m.mu.RUnlock()
	for c := range seen {
		c.Close()
	}
	return len(seen)
}
