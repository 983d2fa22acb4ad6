package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jimyag/cloudconsole/internal/console/cache"
	"gopkg.in/yaml.v3"
)

// Config 控制台配置
// 先读取 CONSOLE_CONFIG 指向的 YAML 文件（可选），再由环境变量覆盖
type Config struct {
	// Address HTTP 监听地址，环境变量 CONSOLE_ADDRESS，默认 0.0.0.0:7780
	Address string `yaml:"address"`

	// DataDir 存放审计日志和通知历史的 SQLite 数据库，环境变量 CONSOLE_DATA_DIR
	// 默认：~/.local/share/cloudconsole
	DataDir string `yaml:"data_dir"`

	// LogLevel zerolog 日志级别，环境变量 CONSOLE_LOG_LEVEL
	LogLevel string `yaml:"log_level"`

	Backend BackendConfig `yaml:"backend"`
	Sync    SyncConfig    `yaml:"sync"`
	// CacheTTL 各类目录的有效期
	CacheTTL cache.TTLs `yaml:"cache_ttl"`

	// NATSURL 命令结果事件总线，为空时不发布，环境变量 CONSOLE_NATS_URL
	NATSURL string `yaml:"nats_url"`

	// NotificationCapacity 内存中保留的通知数
	NotificationCapacity int `yaml:"notification_capacity"`
}

// BackendConfig 后端计算代理
type BackendConfig struct {
	// URL 环境变量 CONSOLE_BACKEND_URL
	URL string `yaml:"url"`
	// Token 环境变量 CONSOLE_BACKEND_TOKEN
	Token string `yaml:"token"`
	// Timeout 创建等操作耗时较长，默认 5 分钟，环境变量 CONSOLE_BACKEND_TIMEOUT
	Timeout time.Duration `yaml:"timeout"`
}

// SyncConfig 状态同步
type SyncConfig struct {
	// PushURL 推送通道的 websocket 地址，为空时只轮询，环境变量 CONSOLE_PUSH_URL
	PushURL string `yaml:"push_url"`
	// PollInterval 环境变量 CONSOLE_POLL_INTERVAL
	PollInterval         time.Duration `yaml:"poll_interval"`
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval"`
	ReconnectBase        time.Duration `yaml:"reconnect_base"`
	MaxBackoff           time.Duration `yaml:"max_backoff"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Address:  "0.0.0.0:7780",
		DataDir:  defaultDataDir(),
		LogLevel: "info",
		Backend: BackendConfig{
			Timeout: 5 * time.Minute,
		},
		Sync: SyncConfig{
			PollInterval:         5 * time.Second,
			HeartbeatInterval:    30 * time.Second,
			ReconnectBase:        time.Second,
			MaxBackoff:           30 * time.Second,
			MaxReconnectAttempts: 5,
		},
		CacheTTL:             cache.DefaultTTLs(),
		NotificationCapacity: 200,
	}
}

func New() (*Config, error) {
	return Load(os.Getenv("CONSOLE_CONFIG"))
}

// Load 读取 path 指向的配置文件（为空时跳过），再应用环境变量并校验
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile 用 YAML 文件中出现的字段覆盖默认值
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Address, "CONSOLE_ADDRESS")
	setString(&c.DataDir, "CONSOLE_DATA_DIR")
	setString(&c.LogLevel, "CONSOLE_LOG_LEVEL")
	setString(&c.Backend.URL, "CONSOLE_BACKEND_URL")
	setString(&c.Backend.Token, "CONSOLE_BACKEND_TOKEN")
	setString(&c.Sync.PushURL, "CONSOLE_PUSH_URL")
	setString(&c.NATSURL, "CONSOLE_NATS_URL")

	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&c.Backend.Timeout, "CONSOLE_BACKEND_TIMEOUT"},
		{&c.Sync.PollInterval, "CONSOLE_POLL_INTERVAL"},
		{&c.Sync.HeartbeatInterval, "CONSOLE_HEARTBEAT_INTERVAL"},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.key); err != nil {
			return err
		}
	}

	if v := os.Getenv("CONSOLE_MAX_RECONNECT_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse CONSOLE_MAX_RECONNECT_ATTEMPTS: %w", err)
		}
		c.Sync.MaxReconnectAttempts = n
	}
	return nil
}

// Validate 检查必填项和取值范围
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend url is required (CONSOLE_BACKEND_URL)")
	}
	if c.Sync.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Sync.PollInterval)
	}
	if c.Sync.MaxReconnectAttempts < 0 {
		return fmt.Errorf("max reconnect attempts must not be negative, got %d", c.Sync.MaxReconnectAttempts)
	}
	if c.Sync.ReconnectBase <= 0 || c.Sync.MaxBackoff < c.Sync.ReconnectBase {
		return fmt.Errorf("invalid reconnect backoff: base %s, max %s", c.Sync.ReconnectBase, c.Sync.MaxBackoff)
	}
	return nil
}

// DatabasePath SQLite 数据库文件路径
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "console.db")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}

// defaultDataDir 获取数据目录
func defaultDataDir() string {
	// 1. 使用用户主目录下的 .local/share/cloudconsole
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "cloudconsole")
	}

	// 2. 如果无法获取主目录，使用当前目录下的 data
	return filepath.Join(".", "data")
}
