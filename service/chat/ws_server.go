package chat

import (
	"context"
	"net/http"
	"strings"
	"time"

	"SupportChat/logger"
	midsec "SupportChat/middleware/security"
	"SupportChat/module/chat/auth"
	"SupportChat/module/chat/groupinfo"
	"SupportChat/module/chat/message"
	"SupportChat/module/chat/model"
	"SupportChat/module/chat/presence"
	"SupportChat/tools/errs"
	"SupportChat/tools/safe"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ScopeKind 同一套网关逻辑，按 scope 区分群聊与个人通知
type ScopeKind int

const (
	ScopeChat ScopeKind = iota
	ScopeNotify
)

func (k ScopeKind) String() string {
	if k == ScopeNotify {
		return "notify"
	}
	return "chat"
}

// Deps 网关依赖；ScopeNotify 只用到 Verifier/Hub
type Deps struct {
	Verifier   *auth.TokenVerifier
	Authorizer *auth.Authorizer
	Names      *auth.IdentityResolver
	Presence   *presence.Tracker
	Log        *message.Log
	Groups     *groupinfo.Resolver
	Notifier   Notifier
	Hub        *ConnManager

	CheckOrigin func(r *http.Request) bool
	Now         func() time.Time
}

type Gateway struct {
	kind     ScopeKind
	d        Deps
	upgrader websocket.Upgrader
}

func NewGateway(kind ScopeKind, d Deps) *Gateway {
	safe.MustNotNil(d.Verifier, "Verifier")
	safe.MustNotNil(d.Hub, "Hub")
	if kind == ScopeChat {
		safe.MustNotNil(d.Authorizer, "Authorizer")
		safe.MustNotNil(d.Names, "Names")
		safe.MustNotNil(d.Presence, "Presence")
		safe.MustNotNil(d.Log, "Log")
		safe.MustNotNil(d.Groups, "Groups")
		safe.MustNotNil(d.Notifier, "Notifier")
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	check := d.CheckOrigin
	if check == nil {
		check = func(*http.Request) bool { return true }
	}
	return &Gateway{
		kind: kind,
		d:    d,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     check,
		},
	}
}

// HandleWS 先升级再鉴权，拒绝时发 connect_error 后关闭
func (g *Gateway) HandleWS(c *gin.Context) {
	ws, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Info("[WS] upgrade failed", zap.String("scope", g.kind.String()), zap.Error(err))
		return
	}
	cli := NewClient(ws)
	ctx := c.Request.Context()

	id, groupID, reason := g.handshake(ctx, c.Request)
	if reason != "" {
		g.reject(cli, reason)
		return
	}
	cli.Identity = id
	cli.GroupID = groupID
	cli.setState(StateAuthenticated)

	done := make(chan struct{})
	go func() {
		defer close(done)
		cli.writeLoop()
	}()

	switch g.kind {
	case ScopeChat:
		g.serveChat(ctx, cli)
	case ScopeNotify:
		g.serveNotify(cli)
	}
	<-done
}

func tokenFrom(r *http.Request) string {
	if t := strings.TrimSpace(r.URL.Query().Get("token")); t != "" {
		return t
	}
	return midsec.BearerToken(r.Header.Get("Authorization"))
}

// handshake 顺序：token -> groupId -> 验签 -> 授权 -> 显示名
func (g *Gateway) handshake(ctx context.Context, r *http.Request) (model.Identity, string, string) {
	token := tokenFrom(r)
	if token == "" {
		return model.Identity{}, "", auth.ReasonNoToken
	}
	groupID := strings.TrimSpace(r.URL.Query().Get("groupId"))
	if g.kind == ScopeChat && groupID == "" {
		return model.Identity{}, "", auth.ReasonNoGroup
	}

	id, err := g.d.Verifier.Verify(token)
	if err != nil {
		logger.Debug("[WS] token rejected", zap.Error(err))
		return model.Identity{}, "", auth.ReasonInvalidToken
	}
	if g.kind == ScopeNotify {
		if id.Name == "" {
			id.Name = "User"
		}
		return id, "", ""
	}

	if err := g.d.Authorizer.Authorize(ctx, id, groupID); err != nil {
		reason := auth.DenyReason(err)
		if !errs.Terminal(err) {
			logger.Error("[WS] authorize failed", zap.String("groupId", groupID), zap.Error(err))
		} else {
			logger.Info("[WS] access denied", zap.String("userId", id.UserID),
				zap.String("groupId", groupID), zap.String("reason", reason))
		}
		return model.Identity{}, "", reason
	}
	return g.d.Names.Resolve(ctx, id), groupID, ""
}

func (g *Gateway) reject(cli *Client, reason string) {
	if err := cli.writeDirect(rejectFrame(reason)); err != nil {
		logger.Debug("[WS] write connect_error failed", zap.Error(err))
	}
	cli.closeQuiet(websocket.ClosePolicyViolation, reason)
	cli.Close()
}

func (g *Gateway) serveChat(ctx context.Context, cli *Client) {
	id := cli.Identity
	groupID := cli.GroupID
	scope := GroupScope(groupID)

	g.d.Hub.Join(scope, cli)
	cli.setState(StateJoined)
	g.d.Presence.Join(groupID, id.UserID, id.Role)
	logger.Info("[WS] joined group", zap.String("connId", cli.ConnID), zap.String("userId", id.UserID),
		zap.String("role", string(id.Role)), zap.String("groupId", groupID))

	g.emitCount(groupID)
	g.emitSnapshot(ctx, groupID)
	if payload, err := EncodeFrame(EventUserData, id.UserData()); err == nil {
		cli.Enqueue(payload)
	}
	cli.setState(StateActive)

	cli.readLoop(func(data []byte) { g.onChatFrame(ctx, cli, data) })

	cli.Close()
	g.d.Hub.Leave(scope, cli)
	g.d.Presence.Leave(groupID, id.UserID)
	logger.Info("[WS] left group", zap.String("connId", cli.ConnID), zap.String("userId", id.UserID),
		zap.String("groupId", groupID))
	g.emitCount(groupID)
	g.emitSnapshot(context.WithoutCancel(ctx), groupID)
}

func (g *Gateway) serveNotify(cli *Client) {
	scope := UserScope(cli.Identity.UserID)
	g.d.Hub.Join(scope, cli)
	cli.setState(StateActive)
	logger.Info("[WS] notification connected", zap.String("connId", cli.ConnID),
		zap.String("userId", cli.Identity.UserID), zap.String("name", cli.Identity.Name))

	cli.readLoop(func([]byte) {})

	cli.Close()
	g.d.Hub.Leave(scope, cli)
	logger.Info("[WS] notification disconnected", zap.String("connId", cli.ConnID),
		zap.String("userId", cli.Identity.UserID))
}

// onChatFrame 同一连接的帧在读循环里串行处理：先写缓冲再广播
func (g *Gateway) onChatFrame(ctx context.Context, cli *Client, data []byte) {
	f, err := ParseFrame(data)
	if err != nil {
		sample := data
		if len(sample) > 256 {
			sample = sample[:256]
		}
		logger.Info("[WS] parse frame failed", zap.String("connId", cli.ConnID),
			zap.ByteString("sample", sample), zap.Int("len", len(data)), zap.Error(err))
		return
	}
	if f.Event != EventMessage {
		logger.Debug("[WS] ignore event", zap.String("event", f.Event))
		return
	}
	in, err := f.DecodeMessage()
	if err != nil {
		logger.Info("[WS] bad message payload", zap.String("connId", cli.ConnID), zap.Error(err))
		return
	}
	groupID := strings.TrimSpace(in.GroupID)
	if groupID == "" {
		groupID = cli.GroupID
	}
	if groupID != cli.GroupID {
		logger.Warn("[WS] message for foreign group dropped", zap.String("userId", cli.Identity.UserID),
			zap.String("joined", cli.GroupID), zap.String("target", groupID))
		return
	}
	if strings.TrimSpace(in.Message) == "" {
		return
	}

	msg := model.NewMessage(cli.Identity, groupID, in.Message, g.d.Now())
	if err := g.d.Log.Append(ctx, msg); err != nil {
		logger.Error("[WS] append message failed", zap.String("groupId", groupID), zap.Error(err))
	}
	g.d.Log.FlushAsync(ctx)

	if payload, err := EncodeFrame(EventChatMessage, msg); err == nil {
		g.d.Hub.Broadcast(GroupScope(groupID), payload, cli)
	}

	snap, err := g.d.Groups.Resolve(ctx, groupID)
	if err != nil {
		logger.Warn("[WS] resolve group for notification failed", zap.String("groupId", groupID), zap.Error(err))
		return
	}
	note := model.Notification{
		Sender:     cli.Identity.Name,
		SenderRole: cli.Identity.Role.Lower(),
		Message:    in.Message,
		Image:      snap.Participants[cli.Identity.UserID].Image,
		GroupID:    groupID,
	}
	for _, uid := range snap.Recipients(cli.Identity.UserID) {
		if err := g.d.Notifier.Notify(ctx, uid, note); err != nil {
			logger.Debug("[WS] notify failed", zap.String("to", uid), zap.Error(err))
		}
	}
}

func (g *Gateway) emitCount(groupID string) {
	payload, err := EncodeFrame(EventGroupOnlineCount, g.d.Presence.Count(groupID))
	if err != nil {
		return
	}
	g.d.Hub.Broadcast(GroupScope(groupID), payload, nil)
}

func (g *Gateway) emitSnapshot(ctx context.Context, groupID string) {
	snap, err := g.d.Groups.Resolve(ctx, groupID)
	if err != nil {
		logger.Warn("[WS] resolve group info failed", zap.String("groupId", groupID), zap.Error(err))
		return
	}
	payload, err := EncodeFrame(EventGroupInfoUpdate, snap)
	if err != nil {
		logger.Warn("[WS] encode group info failed", zap.Error(err))
		return
	}
	g.d.Hub.Broadcast(GroupScope(groupID), payload, nil)
}
