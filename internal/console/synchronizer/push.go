package synchronizer

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/jimyag/cloudconsole/internal/console/metrics"
	"github.com/rs/zerolog/log"
)

// PushConfig 推送通道配置
type PushConfig struct {
	URL    string
	Header http.Header
	// HeartbeatInterval 连接期间发送 ping 的间隔
	HeartbeatInterval time.Duration
	// ReconnectBase 第一次重连前的等待时间，之后每次翻倍
	ReconnectBase time.Duration
	MaxBackoff    time.Duration
	// MaxReconnectAttempts 连续重连失败的次数上限，超过后放弃推送通道
	MaxReconnectAttempts int
}

// PushClient 推送通道客户端
// 连接断开后按指数退避重连。收到 connection_established 或连接保持满一个心跳间隔才重置重连计数，
// 接受后立即断开的服务器仍会耗尽重连次数
type PushClient struct {
	cfg     PushConfig
	dialer  *websocket.Dialer
	metrics *metrics.Metrics

	onUpdate    func(ctx context.Context, update entity.VMStatusUpdate)
	onExhausted func()
	// sleep 便于测试替换
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewPushClient 创建推送客户端
// ReconnectBase 非正数时取 1s，MaxBackoff 不小于 ReconnectBase
func NewPushClient(cfg PushConfig, m *metrics.Metrics, onUpdate func(context.Context, entity.VMStatusUpdate), onExhausted func()) *PushClient {
	if cfg.ReconnectBase <= 0 {
		cfg.ReconnectBase = time.Second
	}
	if cfg.MaxBackoff < cfg.ReconnectBase {
		cfg.MaxBackoff = cfg.ReconnectBase
	}
	return &PushClient{
		cfg:         cfg,
		dialer:      websocket.DefaultDialer,
		metrics:     m,
		onUpdate:    onUpdate,
		onExhausted: onExhausted,
		sleep:       sleepContext,
	}
}

// Run 保持连接直到 ctx 结束或重连次数耗尽
func (p *PushClient) Run(ctx context.Context) {
	attempt := 0
	for {
		stable, err := p.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if stable {
			attempt = 0
		}
		attempt++
		if attempt > p.cfg.MaxReconnectAttempts {
			log.Warn().Err(err).Int("attempts", attempt-1).Str("url", p.cfg.URL).Msg("Push channel reconnect attempts exhausted, falling back to polling")
			if p.onExhausted != nil {
				p.onExhausted()
			}
			return
		}

		delay := Backoff(attempt, p.cfg.ReconnectBase, p.cfg.MaxBackoff)
		log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("Push channel disconnected, reconnecting")
		p.metrics.PushReconnect()
		if !p.sleep(ctx, delay) {
			return
		}
	}
}

// session 建立一次连接并读取消息直到断开，返回这次连接是否稳定
func (p *PushClient) session(ctx context.Context) (bool, error) {
	conn, _, err := p.dialer.DialContext(ctx, p.cfg.URL, p.cfg.Header)
	if err != nil {
		return false, err
	}

	p.metrics.PushConnected(true)
	defer p.metrics.PushConnected(false)
	log.Info().Str("url", p.cfg.URL).Msg("Push channel connected")
	connectedAt := time.Now()
	established := false

	sessionCtx, cancel := context.WithCancel(ctx)
	var (
		wg      sync.WaitGroup
		writeMu sync.Mutex
	)
	defer func() {
		cancel()
		wg.Wait()
	}()

	// ctx 结束时关闭连接以解除 ReadMessage 的阻塞
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-sessionCtx.Done()
		_ = conn.Close()
	}()

	if p.cfg.HeartbeatInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.heartbeat(sessionCtx, conn, &writeMu)
		}()
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return established || time.Since(connectedAt) >= p.stableAfter(), err
		}
		if p.handle(sessionCtx, data) {
			established = true
		}
	}
}

// stableAfter 连接保持多久视为稳定
func (p *PushClient) stableAfter() time.Duration {
	if p.cfg.HeartbeatInterval > 0 {
		return p.cfg.HeartbeatInterval
	}
	return p.cfg.ReconnectBase
}

// heartbeat 定期发送 ping，写失败时关闭连接
func (p *PushClient) heartbeat(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex) {
	ticker := time.NewTicker(p.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteJSON(entity.PushMessage{Type: entity.PushTypePing})
			writeMu.Unlock()
			if err != nil {
				log.Debug().Err(err).Msg("Failed to send heartbeat")
				_ = conn.Close()
				return
			}
		}
	}
}

// handle 处理一条推送消息，返回是否为 connection_established
func (p *PushClient) handle(ctx context.Context, data []byte) bool {
	var msg entity.PushMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debug().Err(err).Msg("Ignoring malformed push message")
		return false
	}

	switch msg.Type {
	case entity.PushTypeConnectionEstablished:
		log.Info().RawJSON("data", nonEmptyJSON(msg.Data)).Msg("Push channel established")
		return true
	case entity.PushTypeVMStatusUpdate:
		var update entity.VMStatusUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			log.Debug().Err(err).Msg("Ignoring malformed vm_status_update")
			return false
		}
		if p.onUpdate != nil {
			p.onUpdate(ctx, update)
		}
	default:
		// pong 等消息不参与同步
	}
	return false
}

func nonEmptyJSON(data json.RawMessage) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage("null")
	}
	return data
}

// sleepContext 等待 d 或 ctx 结束，返回是否等满
func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
