package auth

import (
	"context"

	"SupportChat/logger"
	"SupportChat/module/chat/directory"
	"SupportChat/module/chat/model"

	"go.uber.org/zap"
)

const DefaultAdminName = "Daily Trades Admin"

// IdentityResolver 每个连接解析一次显示名，不会失败
type IdentityResolver struct {
	dir       directory.Directory
	adminName string
}

func NewIdentityResolver(dir directory.Directory, adminName string) *IdentityResolver {
	if adminName == "" {
		adminName = DefaultAdminName
	}
	return &IdentityResolver{dir: dir, adminName: adminName}
}

// Resolve Admin 用组织名；Trader 以目录里的姓名为准（claim 可能过期）
func (r *IdentityResolver) Resolve(ctx context.Context, id model.Identity) model.Identity {
	switch id.Role {
	case model.RoleAdmin:
		return id.WithName(r.adminName)
	case model.RoleTrader:
		p, err := r.dir.Trader(ctx, id.UserID)
		if err != nil {
			logger.Warn("trader name lookup failed, keep claim name",
				zap.String("userId", id.UserID), zap.Error(err))
			return id
		}
		if p != nil && p.HasName() {
			return id.WithName(model.JoinName(p.FirstName, p.LastName))
		}
	}
	return id
}
