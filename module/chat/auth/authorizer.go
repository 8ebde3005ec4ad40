package auth

import (
	"context"
	"strings"

	"SupportChat/module/chat/directory"
	"SupportChat/module/chat/model"
	"SupportChat/tools/errs"
)

// Authorizer websocket 握手与 HTTP 接口共用同一套规则
type Authorizer struct {
	dir directory.Directory
}

func NewAuthorizer(dir directory.Directory) *Authorizer {
	return &Authorizer{dir: dir}
}

// 拒绝原因，握手与 HTTP 都会展示给用户
const (
	ReasonNoGroup        = "No groupId provided"
	ReasonRoleNotAllowed = "Role not allowed"
	ReasonNotMember      = "You are not part of this group"
	ReasonNoToken        = "No token provided"
	ReasonInvalidToken   = "Invalid token"
	ReasonUnavailable    = "Service unavailable"
)

// Authorize 规则按顺序：缺 groupId -> 角色 -> Admin 放行 -> 成员关系
func (a *Authorizer) Authorize(ctx context.Context, id model.Identity, groupID string) error {
	if strings.TrimSpace(groupID) == "" {
		return errs.ErrBadRequest.WrapMsg(ReasonNoGroup)
	}
	role, ok := model.ParseRole(string(id.Role))
	if !ok {
		return errs.ErrForbidden.WrapMsg(ReasonRoleNotAllowed, "role", id.Role)
	}
	if role == model.RoleAdmin {
		return nil
	}

	records, err := a.dir.Memberships(ctx, groupID)
	if err != nil {
		return errs.ErrStoreUnavailable.WrapMsg("load memberships", "groupId", groupID, "err", err)
	}
	for _, r := range records {
		if r.TraderID == id.UserID || r.AdvisorID == id.UserID {
			return nil
		}
	}
	return errs.ErrForbidden.WrapMsg(ReasonNotMember, "userId", id.UserID, "groupId", groupID)
}

// DenyReason 把 Verify/Authorize 的错误还原成展示给客户端的原因
func DenyReason(err error) string {
	ce := errs.CodeOf(err)
	if ce == nil {
		return ReasonUnavailable
	}
	switch ce.Code {
	case errs.BadRequestError:
		return ReasonNoGroup
	case errs.InvalidCredentialCode:
		return ReasonInvalidToken
	case errs.ForbiddenError:
		if strings.HasPrefix(ce.Detail, ReasonRoleNotAllowed) {
			return ReasonRoleNotAllowed
		}
		return ReasonNotMember
	}
	return ReasonUnavailable
}
