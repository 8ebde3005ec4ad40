package chat

import (
	"context"
	"strings"

	"SupportChat/logger"
	"SupportChat/module/chat/model"
	"SupportChat/service/natsx"

	"go.uber.org/zap"
)

// Notifier 向个人通知 scope 投递 chat-notification；允许丢失
type Notifier interface {
	Notify(ctx context.Context, userID string, n model.Notification) error
}

// LocalNotifier 直接投递到本进程的 hub
type LocalNotifier struct {
	hub *ConnManager
}

func NewLocalNotifier(hub *ConnManager) *LocalNotifier {
	return &LocalNotifier{hub: hub}
}

func (n *LocalNotifier) Notify(_ context.Context, userID string, note model.Notification) error {
	payload, err := EncodeFrame(EventChatNotification, note)
	if err != nil {
		return err
	}
	n.hub.Broadcast(UserScope(userID), payload, nil)
	return nil
}

// Relay NatsxClient 的最小子集
type Relay interface {
	Publish(subject string, data []byte, header map[string]string) error
	Subscribe(ctx context.Context, subject, queue string, h natsx.NatsxHandler) error
}

// NatsNotifier 发布到 <subject>.<userId>；每个实例订阅 <subject>.* 后本地投递，
// 用户连在哪个实例都能收到
type NatsNotifier struct {
	relay   Relay
	subject string
	hub     *ConnManager
}

func NewNatsNotifier(relay Relay, subject string, hub *ConnManager) *NatsNotifier {
	return &NatsNotifier{relay: relay, subject: strings.TrimSuffix(subject, "."), hub: hub}
}

// Start 订阅通配 subject，ctx 结束后由 relay.Close 统一退订
func (n *NatsNotifier) Start(ctx context.Context) error {
	prefix := n.subject + "."
	return n.relay.Subscribe(ctx, prefix+"*", "", func(_ context.Context, msg natsx.NatsxMessage) error {
		userID := strings.TrimPrefix(msg.Subject, prefix)
		if userID == "" {
			return nil
		}
		n.hub.Broadcast(UserScope(userID), msg.Data, nil)
		return nil
	})
}

func (n *NatsNotifier) Notify(_ context.Context, userID string, note model.Notification) error {
	payload, err := EncodeFrame(EventChatNotification, note)
	if err != nil {
		return err
	}
	if err := n.relay.Publish(n.subject+"."+userID, payload, nil); err != nil {
		logger.Warn("[Notify] publish failed", zap.String("userId", userID), zap.Error(err))
		return err
	}
	return nil
}
