package security

import (
	"net/http"
	"strings"

	"SupportChat/module/chat/auth"
	"SupportChat/module/chat/model"
	"SupportChat/tools/errs"

	"github.com/gin-gonic/gin"
)

// context key，后续 handler 统一用这俩 key 读取
const (
	CtxIdentityKey = "identity" // model.Identity
	CtxGroupIDKey  = "groupId"  // string
)

type Options struct {
	Verifier   *auth.TokenVerifier
	Authorizer *auth.Authorizer
	// 读取 groupId 的 query 参数名，默认 groupId
	GroupParam string
}

// Middleware Bearer token -> groupId -> 验签 -> 群授权，与 websocket 握手共用同一套规则
func Middleware(opts Options) gin.HandlerFunc {
	if opts.GroupParam == "" {
		opts.GroupParam = "groupId"
	}
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: No token"})
			return
		}
		// groupId 缺失先于验签报 400
		groupID := strings.TrimSpace(c.Query(opts.GroupParam))
		if groupID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "groupId is required"})
			return
		}
		id, err := opts.Verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: Invalid or expired token"})
			return
		}

		if err := opts.Authorizer.Authorize(c.Request.Context(), id, groupID); err != nil {
			status, msg := denyResponse(err)
			if status == http.StatusInternalServerError {
				_ = c.Error(err)
			}
			c.AbortWithStatusJSON(status, gin.H{"message": msg})
			return
		}

		c.Set(CtxIdentityKey, id)
		c.Set(CtxGroupIDKey, groupID)
		c.Next()
	}
}

func denyResponse(err error) (int, string) {
	switch errs.HTTPStatus(err) {
	case http.StatusBadRequest:
		return http.StatusBadRequest, "groupId is required"
	case http.StatusForbidden:
		return http.StatusForbidden, "Forbidden: " + auth.DenyReason(err)
	}
	return http.StatusInternalServerError, "Internal server error"
}

// BearerToken 兼容 "Bearer xxx"，大小写不敏感
func BearerToken(authz string) string {
	authz = strings.TrimSpace(authz)
	const prefix = "bearer "
	if len(authz) <= len(prefix) || !strings.EqualFold(authz[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(authz[len(prefix):])
}

// IdentityFrom 读取 Middleware 写入的身份
func IdentityFrom(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(CtxIdentityKey)
	if !ok {
		return model.Identity{}, false
	}
	id, ok := v.(model.Identity)
	return id, ok
}
