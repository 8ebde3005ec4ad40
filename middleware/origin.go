package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// OriginSet CORS_ORIGINS 白名单；为空表示放行所有来源
type OriginSet map[string]struct{}

func NewOriginSet(origins []string) OriginSet {
	s := make(OriginSet, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			s[o] = struct{}{}
		}
	}
	return s
}

func (s OriginSet) Allowed(origin string) bool {
	if len(s) == 0 || origin == "" {
		return true
	}
	_, ok := s[strings.TrimRight(origin, "/")]
	return ok
}

// CheckOrigin 给 websocket.Upgrader 用
func (s OriginSet) CheckOrigin(r *http.Request) bool {
	return s.Allowed(r.Header.Get("Origin"))
}

// Cors 允许的来源回写 CORS 头；预检请求直接 204。
// 不调用 c.Next，可以挂在 MiddlewareManager 里
func Cors(s OriginSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && s.Allowed(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			if origin != "" && !s.Allowed(origin) {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.AbortWithStatus(http.StatusNoContent)
		}
	}
}
