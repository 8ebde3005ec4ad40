// Package groupinfo 计算群信息快照：成员关系 + 目录展示信息 + 在线人数。
package groupinfo

import (
	"context"

	"SupportChat/module/chat/directory"
	"SupportChat/module/chat/model"
	"SupportChat/tools/errs"
)

const DefaultTitle = "Support Group"

// 管理员缺省姓名
const (
	adminFirstName = "Daily Trades"
	adminLastName  = "Admin"
)

// Counter 在线人数来源
type Counter interface {
	Count(groupID string) int
}

type Resolver struct {
	dir      directory.Directory
	presence Counter
	title    string
}

func NewResolver(dir directory.Directory, presence Counter, defaultTitle string) *Resolver {
	if defaultTitle == "" {
		defaultTitle = DefaultTitle
	}
	return &Resolver{dir: dir, presence: presence, title: defaultTitle}
}

// Resolve 在线人数只读一次，快照内部一致
func (r *Resolver) Resolve(ctx context.Context, groupID string) (*model.Snapshot, error) {
	active := r.presence.Count(groupID)

	records, err := r.dir.Memberships(ctx, groupID)
	if err != nil {
		return nil, storeErr("memberships", groupID, err)
	}
	if len(records) == 0 {
		snap := model.EmptySnapshot(groupID, r.title, active)
		admins, err := r.dir.Associates(ctx)
		if err != nil {
			return nil, storeErr("associates", groupID, err)
		}
		addAdmins(snap, admins)
		return snap, nil
	}

	traderIDs, advisorIDs := distinctIDs(records)

	traders, err := r.dir.Traders(ctx, traderIDs)
	if err != nil {
		return nil, storeErr("traders", groupID, err)
	}
	advisors, err := r.dir.Advisors(ctx, advisorIDs)
	if err != nil {
		return nil, storeErr("advisors", groupID, err)
	}
	admins, err := r.dir.Associates(ctx)
	if err != nil {
		return nil, storeErr("associates", groupID, err)
	}

	title := records[0].ScriptTitle
	if title == "" {
		title = r.title
	}
	snap := model.EmptySnapshot(groupID, title, active)
	if len(advisorIDs) > 0 {
		first := advisorIDs[0]
		snap.AdvisorID = &first
	}
	snap.TotalClients = len(traders)

	// 写入顺序 advisor -> trader -> admin，id 冲突时后写覆盖
	for _, a := range advisors {
		info := model.ProfileInfo{FirstName: a.FirstName, LastName: a.LastName, UserID: a.ID, Image: a.Image}
		snap.AdvisorInfo = append(snap.AdvisorInfo, info)
		snap.Participants[a.ID] = model.Participant{ProfileInfo: info, Role: model.RoleAdvisor.Lower()}
	}
	for _, t := range traders {
		info := model.ProfileInfo{FirstName: t.FirstName, LastName: t.LastName, UserID: t.ID, Image: t.Image}
		snap.TraderInfo = append(snap.TraderInfo, info)
		snap.Participants[t.ID] = model.Participant{ProfileInfo: info, Role: model.RoleTrader.Lower()}
	}
	addAdmins(snap, admins)
	return snap, nil
}

func addAdmins(snap *model.Snapshot, admins []model.Profile) {
	for _, a := range admins {
		info := model.ProfileInfo{
			FirstName: orDefault(a.FirstName, adminFirstName),
			LastName:  orDefault(a.LastName, adminLastName),
			UserID:    a.ID,
			Image:     a.Image,
		}
		snap.AdminInfo = append(snap.AdminInfo, info)
		snap.Participants[a.ID] = model.Participant{ProfileInfo: info, Role: model.RoleAdmin.Lower()}
	}
}

// distinctIDs 按首次出现顺序去重
func distinctIDs(records []model.Membership) (traders, advisors []string) {
	seenT := make(map[string]struct{}, len(records))
	seenA := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.TraderID != "" {
			if _, ok := seenT[r.TraderID]; !ok {
				seenT[r.TraderID] = struct{}{}
				traders = append(traders, r.TraderID)
			}
		}
		if r.AdvisorID != "" {
			if _, ok := seenA[r.AdvisorID]; !ok {
				seenA[r.AdvisorID] = struct{}{}
				advisors = append(advisors, r.AdvisorID)
			}
		}
	}
	return traders, advisors
}

func orDefault(v, d string) string {
	if v == "" {
		return d
	}
	return v
}

func storeErr(step, groupID string, err error) error {
	return errs.ErrStoreUnavailable.WrapMsg("resolve group info", "step", step, "groupId", groupID, "err", err)
}
