// Package events 把命令结果发布到 NATS，供其他控制台实例或审计服务订阅
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// SubjectOperations 命令结果的主题
const SubjectOperations = "console.operations"

// Publisher 发布命令结果
type Publisher interface {
	PublishOperation(ctx context.Context, op *entity.Operation) error
	Close()
}

// Config NATS 连接配置
type Config struct {
	URL  string
	Name string
}

// NewPublisher 创建发布者；URL 为空时返回不做任何事的实现
func NewPublisher(cfg Config) (Publisher, error) {
	if cfg.URL == "" {
		return NopPublisher{}, nil
	}
	if cfg.Name == "" {
		cfg.Name = "cloudconsole"
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}
	return &natsPublisher{nc: nc}, nil
}

type natsPublisher struct {
	nc *nats.Conn
}

func (p *natsPublisher) PublishOperation(ctx context.Context, op *entity.Operation) error {
	if p.nc == nil || p.nc.IsClosed() {
		return fmt.Errorf("nats not connected")
	}
	payload, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal operation: %w", err)
	}
	return p.nc.Publish(SubjectOperations, payload)
}

func (p *natsPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

// NopPublisher 未配置 NATS 时使用
type NopPublisher struct{}

func (NopPublisher) PublishOperation(context.Context, *entity.Operation) error { return nil }

func (NopPublisher) Close() {}

// Subscribe 订阅命令结果直到 ctx 结束，无法解析的消息会被跳过
func Subscribe(ctx context.Context, cfg Config, fn func(op entity.Operation)) error {
	if cfg.URL == "" {
		return fmt.Errorf("nats url is required")
	}
	nc, err := nats.Connect(cfg.URL, nats.Name(cfg.Name))
	if err != nil {
		return fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}
	defer nc.Close()

	sub, err := nc.Subscribe(SubjectOperations, func(msg *nats.Msg) {
		var op entity.Operation
		if err := json.Unmarshal(msg.Data, &op); err != nil {
			log.Warn().Err(err).Str("subject", msg.Subject).Msg("Skip malformed operation event")
			return
		}
		fn(op)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectOperations, err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return nil
}
