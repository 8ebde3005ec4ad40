// Package presence 记录每个群当前在线的非 staff 用户。
package presence

import (
	"sort"
	"sync"

	"SupportChat/module/chat/model"
)

// Tracker groupId -> set(userId)。按集合语义计数：同一用户多条连接只算一次，
// 任意一条断开即移除。空集合立即删除。
type Tracker struct {
	mu     sync.RWMutex
	groups map[string]map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{groups: make(map[string]map[string]struct{})}
}

// Join staff 角色不计数；返回是否新增
func (t *Tracker) Join(groupID, userID string, role model.Role) bool {
	if role.Staff() || groupID == "" || userID == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.groups[groupID]
	if !ok {
		set = make(map[string]struct{})
		t.groups[groupID] = set
	}
	if _, dup := set[userID]; dup {
		return false
	}
	set[userID] = struct{}{}
	return true
}

// Leave 返回是否真的移除了
func (t *Tracker) Leave(groupID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.groups[groupID]
	if !ok {
		return false
	}
	if _, in := set[userID]; !in {
		return false
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(t.groups, groupID)
	}
	return true
}

func (t *Tracker) Count(groupID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.groups[groupID])
}

func (t *Tracker) Has(groupID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.groups[groupID]
	return ok
}

// Groups 当前有在线用户的群，已排序
func (t *Tracker) Groups() []string {
	t.mu.RLock()
	out := make([]string, 0, len(t.groups))
	for g := range t.groups {
		out = append(out, g)
	}
	t.mu.RUnlock()
	sort.Strings(out)
	return out
}
