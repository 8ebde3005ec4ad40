package presence

import (
	"fmt"
	"sync"
	"testing"

	"SupportChat/module/chat/model"

	"github.com/stretchr/testify/assert"
)

func TestJoinIdempotent(t *testing.T) {
	p := NewTracker()
	assert.True(t, p.Join("g", "u", model.RoleTrader))
	for i := 0; i < 5; i++ {
		assert.False(t, p.Join("g", "u", model.RoleTrader))
	}
	assert.Equal(t, 1, p.Count("g"))
}

func TestLeaveRemovesGroupKey(t *testing.T) {
	p := NewTracker()
	p.Join("g", "u", model.RoleTrader)
	assert.True(t, p.Leave("g", "u"))
	assert.False(t, p.Has("g"))
	assert.Empty(t, p.Groups())
	assert.Equal(t, 0, p.Count("g"))

	assert.False(t, p.Leave("g", "u"))
	assert.False(t, p.Leave("never", "u"))
}

func TestStaffExcluded(t *testing.T) {
	p := NewTracker()
	assert.False(t, p.Join("g", "a", model.RoleAdmin))
	assert.False(t, p.Join("g", "b", model.RoleAdvisor))
	assert.Equal(t, 0, p.Count("g"))
	assert.False(t, p.Has("g"))

	p.Join("g", "t", model.RoleTrader)
	p.Join("g", "c", model.RoleAdmin)
	assert.Equal(t, 1, p.Count("g"))
}

func TestLeaveKeepsOthers(t *testing.T) {
	p := NewTracker()
	p.Join("g", "u1", model.RoleTrader)
	p.Join("g", "u2", model.RoleTrader)
	p.Leave("g", "u1")
	assert.Equal(t, 1, p.Count("g"))
	assert.Equal(t, []string{"g"}, p.Groups())
}

func TestConcurrentJoinLeave(t *testing.T) {
	p := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := fmt.Sprintf("u%d", i)
			p.Join("g", u, model.RoleTrader)
			p.Join("g", u, model.RoleTrader)
			if i%2 == 0 {
				p.Leave("g", u)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 25, p.Count("g"))
}
