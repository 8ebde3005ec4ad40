package natsx

import (
	"context"
	"strings"
	"sync"
	"time"

	"SupportChat/tools/errs"

	"github.com/nats-io/nats.go"
)

// NatsxConfig 客户端配置
type NatsxConfig struct {
	Servers       []string
	Name          string
	User          string
	Password      string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// NatsxClient core NATS，无持久化；通知允许丢失
type NatsxClient struct {
	cfg NatsxConfig
	nc  *nats.Conn
	mws []NatsxMiddleware

	mu   sync.Mutex
	subs []*nats.Subscription
}

// ParseServers 支持逗号分隔
func ParseServers(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NewNatsxClient 连接 NATS
func NewNatsxClient(cfg NatsxConfig, mws ...NatsxMiddleware) (*NatsxClient, error) {
	if len(cfg.Servers) == 0 {
		return nil, errs.New("nats servers missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}
	nc, err := nats.Connect(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, errs.WrapMsg(err, "nats connect", "servers", strings.Join(cfg.Servers, ","))
	}
	return &NatsxClient{cfg: cfg, nc: nc, mws: mws}, nil
}

// Publish 发布到 subject，header 可为空
func (c *NatsxClient) Publish(subject string, data []byte, header map[string]string) error {
	msg := &nats.Msg{Subject: subject, Data: data}
	if len(header) > 0 {
		msg.Header = nats.Header{}
		for k, v := range header {
			msg.Header.Set(k, v)
		}
	}
	if err := c.nc.PublishMsg(msg); err != nil {
		return errs.WrapMsg(err, "nats publish", "subject", subject)
	}
	return nil
}

// Subscribe 订阅 subject（支持通配符），queue 非空时同组分摊
func (c *NatsxClient) Subscribe(ctx context.Context, subject, queue string, h NatsxHandler) error {
	handler := NatsxChain(h, c.mws...)
	cb := func(m *nats.Msg) {
		hdr := make(map[string]string, len(m.Header))
		for k := range m.Header {
			hdr[k] = m.Header.Get(k)
		}
		_ = handler(ctx, NatsxMessage{Subject: m.Subject, Data: m.Data, Header: hdr})
	}

	var (
		sub *nats.Subscription
		err error
	)
	if queue != "" {
		sub, err = c.nc.QueueSubscribe(subject, queue, cb)
	} else {
		sub, err = c.nc.Subscribe(subject, cb)
	}
	if err != nil {
		return errs.WrapMsg(err, "nats subscribe", "subject", subject)
	}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return nil
}

// Close 优雅关闭
func (c *NatsxClient) Close() error {
	c.mu.Lock()
	for _, sub := range c.subs {
		_ = sub.Drain()
	}
	c.subs = nil
	c.mu.Unlock()
	if c.nc != nil {
		return c.nc.Drain()
	}
	return nil
}
