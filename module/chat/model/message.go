package model

import "time"

const MessageTableName = "chats"

// Message 缓冲区（JSON）与 Mongo（bson）共用同一结构，读路径合并前无需转换
type Message struct {
	Sender      string    `json:"sender" bson:"sender"`           // 发送者显示名
	SenderEmail string    `json:"senderEmail" bson:"senderEmail"` // 发送者邮箱
	Message     string    `json:"message" bson:"message"`         // 正文
	GroupID     string    `json:"groupId" bson:"groupId"`
	UserID      string    `json:"userId" bson:"userId"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"` // 服务端接收时间
}

// DedupKey 缓冲区与落库之间可能重复（flush 重试），按 userId+毫秒+正文去重
type DedupKey struct {
	UserID string
	TsMs   int64
	Body   string
}

func (m Message) Key() DedupKey {
	return DedupKey{UserID: m.UserID, TsMs: m.Timestamp.UnixMilli(), Body: m.Message}
}

// NewMessage 用连接身份组装一条消息，时间戳截断到毫秒（与 JSON/bson 精度一致）
func NewMessage(id Identity, groupID, body string, now time.Time) Message {
	return Message{
		Sender:      id.Name,
		SenderEmail: id.Email,
		Message:     body,
		GroupID:     groupID,
		UserID:      id.UserID,
		Timestamp:   now.UTC().Truncate(time.Millisecond),
	}
}
