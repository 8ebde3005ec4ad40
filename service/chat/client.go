package chat

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"SupportChat/logger"
	"SupportChat/module/chat/model"
	"SupportChat/tools/ids"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pingInterval  = 25 * time.Second
	writeWait     = 10 * time.Second
	readWait      = 60 * time.Second
	maxFrameBytes = 64 << 10
	sendQueueSize = 64
)

// ConnState 连接生命周期
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateAuthenticated
	StateJoined
	StateActive
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateJoined:
		return "joined"
	case StateActive:
		return "active"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Client 一条 websocket 连接。Send 只由写协程消费；关闭通过 done 通知，不关闭 Send。
type Client struct {
	ConnID   string
	Identity model.Identity
	GroupID  string // 仅 chat scope

	WS   *websocket.Conn
	Send chan []byte

	state     atomic.Int32
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
}

func NewClient(ws *websocket.Conn) *Client {
	return &Client{
		ConnID: ids.GenerateString(),
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

func (c *Client) State() ConnState { return ConnState(c.state.Load()) }

func (c *Client) setState(s ConnState) { c.state.Store(int32(s)) }

// Enqueue 非阻塞，队列满或已关闭返回 false（慢消费者丢帧）
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- payload:
		return true
	default:
		n := c.dropped.Add(1)
		logger.Warn("[WS] send queue full, drop frame",
			zap.String("connId", c.ConnID), zap.String("userId", c.Identity.UserID), zap.Int64("dropped", n))
		return false
	}
}

// Close 幂等；写协程收到后发 close 帧并关闭底层连接
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.setState(StateDisconnected)
		close(c.done)
	})
}

func (c *Client) Done() <-chan struct{} { return c.done }

// writeDirect 写协程启动前使用（握手拒绝）
func (c *Client) writeDirect(payload []byte) error {
	_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
	return c.WS.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) closeQuiet(code int, text string) {
	_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.WS.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
	_ = c.WS.Close()
}

// writeLoop 业务帧优先，其次定时 ping；退出时统一关闭连接
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.closeQuiet(websocket.CloseNormalClosure, "")
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.Send:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debug("[WS] write payload err", zap.String("connId", c.ConnID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.WS.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				logger.Debug("[WS] ping err", zap.String("connId", c.ConnID), zap.Error(err))
				return
			}
		}
	}
}

// readLoop 顺序处理入站帧，返回即表示连接结束
func (c *Client) readLoop(onFrame func([]byte)) {
	c.WS.SetReadLimit(maxFrameBytes)
	_ = c.WS.SetReadDeadline(time.Now().Add(readWait))
	c.WS.SetPongHandler(func(string) error {
		return c.WS.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		mt, data, err := c.WS.ReadMessage()
		if err != nil {
			var ne net.Error
			switch {
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
				logger.Debug("[WS] peer closed", zap.String("connId", c.ConnID))
			case errors.As(err, &ne) && ne.Timeout():
				logger.Info("[WS] read timeout", zap.String("connId", c.ConnID), zap.String("userId", c.Identity.UserID))
			default:
				select {
				case <-c.done:
				default:
					logger.Debug("[WS] read error", zap.String("connId", c.ConnID), zap.Error(err))
				}
			}
			return
		}
		_ = c.WS.SetReadDeadline(time.Now().Add(readWait))
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		onFrame(data)
	}
}
