// Package directory 读取群成员关系与用户展示信息（trader/advisor/associates）。
package directory

import (
	"context"

	"SupportChat/module/chat/model"
)

// Directory 只读目录，失败时返回 errs.ErrStoreUnavailable
type Directory interface {
	// Memberships groupId 非法或无记录时返回空切片
	Memberships(ctx context.Context, groupID string) ([]model.Membership, error)
	// Trader 未找到返回 nil, nil
	Trader(ctx context.Context, id string) (*model.Profile, error)
	Traders(ctx context.Context, ids []string) ([]model.Profile, error)
	Advisors(ctx context.Context, ids []string) ([]model.Profile, error)
	// Associates 全部 admin/associate，组织级数据，量小
	Associates(ctx context.Context) ([]model.Profile, error)
}
