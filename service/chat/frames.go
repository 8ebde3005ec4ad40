package chat

import (
	"encoding/json"

	"SupportChat/tools/errs"
)

// 出站事件
const (
	EventConnectError     = "connect_error"
	EventUserData         = "user-data"
	EventGroupOnlineCount = "group-online-count"
	EventGroupInfoUpdate  = "group-info-update"
	EventChatMessage      = "chat-message"
	EventChatNotification = "chat-notification"
)

// 入站事件
const (
	EventMessage = "message"
)

// Frame 双向统一的 {"event","data"} 帧
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// InboundMessage 客户端发来的 message 事件
type InboundMessage struct {
	Message string `json:"message"`
	GroupID string `json:"groupId"`
}

// ConnectError connect_error 的 data
type ConnectError struct {
	Message string `json:"message"`
}

func EncodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, errs.WrapMsg(err, "encode frame data", "event", event)
	}
	out, err := json.Marshal(Frame{Event: event, Data: raw})
	if err != nil {
		return nil, errs.WrapMsg(err, "encode frame", "event", event)
	}
	return out, nil
}

func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, errs.ErrBadRequest.WrapMsg("unmarshal frame failed", "err", err)
	}
	if f.Event == "" {
		return nil, errs.ErrBadRequest.WrapMsg("frame event missing")
	}
	return f, nil
}

func (f *Frame) DecodeMessage() (*InboundMessage, error) {
	m := &InboundMessage{}
	if len(f.Data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(f.Data, m); err != nil {
		return nil, errs.ErrBadRequest.WrapMsg("unmarshal message payload", "err", err)
	}
	return m, nil
}

func rejectFrame(reason string) []byte {
	out, _ := EncodeFrame(EventConnectError, ConnectError{Message: "Unauthorized: " + reason})
	return out
}
