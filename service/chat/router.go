package chat

import (
	"SupportChat/middleware"
	"SupportChat/service/chat/handlers"

	"github.com/gin-gonic/gin"
)

type Paths struct {
	ChatWs    string
	NotifyWs  string
	History   string
	GroupInfo string
}

type RouterDeps struct {
	Chat      *Gateway
	Notify    *Gateway
	History   *handlers.HistoryHandler
	GroupInfo *handlers.GroupInfoHandler
	Auth      gin.HandlerFunc
	Origins   middleware.OriginSet
	Paths     Paths
}

// NewRouter websocket 入口不走 HTTP 鉴权中间件，握手内自行鉴权
func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	mids := middleware.NewManager()
	mids.Add(middleware.Cors(d.Origins))
	r.Use(mids.Use())

	authed := middleware.RouteOpt{IsAuth: true, Auth: d.Auth}
	middleware.GET(r, "/healthz", handlers.Health, middleware.RouteOpt{})
	middleware.GET(r, d.Paths.History, d.History.Handle, authed)
	middleware.GET(r, d.Paths.GroupInfo, d.GroupInfo.Handle, authed)
	if d.Chat != nil {
		middleware.GET(r, d.Paths.ChatWs, d.Chat.HandleWS, middleware.RouteOpt{})
	}
	if d.Notify != nil {
		middleware.GET(r, d.Paths.NotifyWs, d.Notify.HandleWS, middleware.RouteOpt{})
	}
	return r
}
