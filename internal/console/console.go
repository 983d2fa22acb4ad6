// Package console 提供控制台服务的主入口和组件装配
package console

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/jimmicro/grace"
	"github.com/jimyag/cloudconsole/internal/console/api"
	"github.com/jimyag/cloudconsole/internal/console/backend"
	"github.com/jimyag/cloudconsole/internal/console/cache"
	"github.com/jimyag/cloudconsole/internal/console/config"
	"github.com/jimyag/cloudconsole/internal/console/dispatcher"
	"github.com/jimyag/cloudconsole/internal/console/events"
	"github.com/jimyag/cloudconsole/internal/console/lock"
	"github.com/jimyag/cloudconsole/internal/console/metrics"
	"github.com/jimyag/cloudconsole/internal/console/notify"
	"github.com/jimyag/cloudconsole/internal/console/repository"
	"github.com/jimyag/cloudconsole/internal/console/resize"
	"github.com/jimyag/cloudconsole/internal/console/synchronizer"
	"github.com/jimyag/cloudconsole/internal/console/wizard"
	"github.com/rs/zerolog"
)

type Server struct {
	cfg *config.Config

	repo      *repository.Repository
	publisher events.Publisher
	locks     *lock.Registry
	syncer    *synchronizer.Synchronizer
	api       *api.API

	releaseOnce sync.Once
}

func New(cfg *config.Config) (*Server, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger

	// 1. 审计日志和通知历史
	repo, err := repository.New(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}
	logger.Info().Str("path", cfg.DatabasePath()).Msg("Repository opened")

	m := metrics.New()

	// 2. 后端客户端和目录缓存
	client, err := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.URL,
		Token:   cfg.Backend.Token,
		Timeout: cfg.Backend.Timeout,
	})
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("create backend client: %w", err)
	}
	catalog := cache.NewCatalog(client, cfg.CacheTTL, m)

	// 3. 提示中心和事件总线
	notifier := notify.New(repository.NewNotificationRepository(repo.DB()), cfg.NotificationCapacity)
	publisher, err := events.NewPublisher(events.Config{URL: cfg.NATSURL, Name: "cloudconsole"})
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("create event publisher: %w", err)
	}

	// 4. 命令分发
	locks := lock.NewRegistry()
	d := dispatcher.New(dispatcher.Options{
		Locks:      locks,
		Backend:    client,
		Notifier:   notifier,
		Operations: repository.NewOperationRepository(repo.DB()),
		Metrics:    m,
		Publisher:  publisher,
	})

	// 5. 状态同步，命令被接受后由分发器写入占位状态并请求同步
	header := http.Header{}
	if cfg.Backend.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Backend.Token)
	}
	syncer := synchronizer.New(synchronizer.Config{
		PollInterval: cfg.Sync.PollInterval,
		Push: synchronizer.PushConfig{
			URL:                  cfg.Sync.PushURL,
			Header:               header,
			HeartbeatInterval:    cfg.Sync.HeartbeatInterval,
			ReconnectBase:        cfg.Sync.ReconnectBase,
			MaxBackoff:           cfg.Sync.MaxBackoff,
			MaxReconnectAttempts: cfg.Sync.MaxReconnectAttempts,
		},
	}, client, notifier, m)
	d.SetProjection(syncer)

	// 6. API
	apiInstance, err := api.New(cfg.Address, api.Deps{
		Commands:      d,
		VMs:           syncer,
		Resizes:       resize.NewManager(d),
		Wizards:       wizard.NewManager(d, client, catalog),
		Catalog:       catalog,
		Notifications: notifier,
		Operations:    repository.NewOperationRepository(repo.DB()),
		Locks:         locks,
		Metrics:       m.Handler(),
	})
	if err != nil {
		publisher.Close()
		repo.Close()
		return nil, err
	}

	return &Server{
		cfg:       cfg,
		repo:      repo,
		publisher: publisher,
		locks:     locks,
		syncer:    syncer,
		api:       apiInstance,
	}, nil
}

func (s *Server) Run(ctx context.Context) error {
	zerolog.DefaultContextLogger.Info().Str("address", s.cfg.Address).Str("backend", s.cfg.Backend.URL).Msg("Console starting")

	services := []grace.Grace{
		s.syncer,
		s.api,
	}

	shepherd := grace.NewShepherd(
		services,
		grace.WithTimeout(30*time.Second),
		grace.WithLogger(&zerologLogger{}),
	)

	shepherd.Start(ctx)
	s.release()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	apiErr := s.api.Shutdown(ctx)
	syncErr := s.syncer.Shutdown(ctx)
	s.release()
	if apiErr != nil {
		return apiErr
	}
	return syncErr
}

// Name 实现 grace.Grace 接口
func (s *Server) Name() string {
	return "Console Server"
}

// release 释放进程级资源，操作锁随进程结束一并清空
func (s *Server) release() {
	s.releaseOnce.Do(func() {
		s.locks.Reset()
		s.publisher.Close()
		if err := s.repo.Close(); err != nil {
			zerolog.DefaultContextLogger.Error().Err(err).Msg("Failed to close repository")
		}
	})
}

// zerologLogger 实现 grace.Logger 接口
type zerologLogger struct{}

func (l *zerologLogger) Info(msg string, args ...interface{}) {
	logger := zerolog.DefaultContextLogger.Info()
	if len(args) > 0 {
		logger.Msgf(msg, args...)
	} else {
		logger.Msg(msg)
	}
}

func (l *zerologLogger) Error(msg string, args ...interface{}) {
	logger := zerolog.DefaultContextLogger.Error()
	if len(args) > 0 {
		logger.Msgf(msg, args...)
	} else {
		logger.Msg(msg)
	}
}
