package directory

import (
	"context"
	"sync"
	"sync/atomic"

	"SupportChat/module/chat/model"
	"SupportChat/tools/errs"
)

// MemDirectory 内存目录，测试与本地开发用
type MemDirectory struct {
	mu          sync.RWMutex
	memberships map[string][]model.Membership
	traders     map[string]model.Profile
	advisors    map[string]model.Profile
	associates  []model.Profile
	fail        atomic.Bool

	MembershipCalls atomic.Int64
	TraderCalls     atomic.Int64
}

var _ Directory = (*MemDirectory)(nil)

func NewMemDirectory() *MemDirectory {
	return &MemDirectory{
		memberships: make(map[string][]model.Membership),
		traders:     make(map[string]model.Profile),
		advisors:    make(map[string]model.Profile),
	}
}

// SetFail 打开后所有查询返回 StoreUnavailable
func (d *MemDirectory) SetFail(v bool) { d.fail.Store(v) }

func (d *MemDirectory) AddMembership(groupID string, m model.Membership) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.memberships[groupID] = append(d.memberships[groupID], m)
}

func (d *MemDirectory) AddTrader(p model.Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.traders[p.ID] = p
}

func (d *MemDirectory) AddAdvisor(p model.Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advisors[p.ID] = p
}

func (d *MemDirectory) AddAssociate(p model.Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.associates = append(d.associates, p)
}

func (d *MemDirectory) check() error {
	if d.fail.Load() {
		return errs.ErrStoreUnavailable.WrapMsg("mem directory failure")
	}
	return nil
}

func (d *MemDirectory) Memberships(_ context.Context, groupID string) ([]model.Membership, error) {
	d.MembershipCalls.Add(1)
	if err := d.check(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]model.Membership{}, d.memberships[groupID]...), nil
}

func (d *MemDirectory) Trader(_ context.Context, id string) (*model.Profile, error) {
	d.TraderCalls.Add(1)
	if err := d.check(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.traders[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (d *MemDirectory) Traders(_ context.Context, ids []string) ([]model.Profile, error) {
	return d.byIDs(d.traders, ids)
}

func (d *MemDirectory) Advisors(_ context.Context, ids []string) ([]model.Profile, error) {
	return d.byIDs(d.advisors, ids)
}

func (d *MemDirectory) Associates(_ context.Context) ([]model.Profile, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]model.Profile{}, d.associates...), nil
}

func (d *MemDirectory) byIDs(src map[string]model.Profile, ids []string) ([]model.Profile, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]model.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := src[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
