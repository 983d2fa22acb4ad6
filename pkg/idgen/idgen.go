// Package idgen 提供基于 Sonyflake 的递增 ID 生成器
package idgen

import (
	"fmt"
	"sync"
	"time"

	"github.com/sony/sonyflake"
)

// 控制台内部对象的 ID 前缀
const (
	PrefixWizard       = "wz"
	PrefixOperation    = "op"
	PrefixNotification = "ntf"
)

// Generator 递增 ID 生成器
type Generator struct {
	sf *sonyflake.Sonyflake
}

var (
	defaultGenerator     *Generator
	defaultGeneratorOnce sync.Once
)

// DefaultGenerator 返回进程级默认生成器
func DefaultGenerator() *Generator {
	defaultGeneratorOnce.Do(func() {
		defaultGenerator = New()
	})
	return defaultGenerator
}

// New 创建新的 ID 生成器
func New() *Generator {
	sf := sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if sf == nil {
		// 无法获取机器 ID（例如没有私有网卡）时退化为固定机器 ID
		sf = sonyflake.NewSonyflake(sonyflake.Settings{
			StartTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			MachineID: func() (uint16, error) { return 1, nil },
		})
	}
	return &Generator{sf: sf}
}

// Next 生成带前缀的 ID，格式：{prefix}-{递增 ID}
func (g *Generator) Next(prefix string) (string, error) {
	id, err := g.sf.NextID()
	if err != nil {
		return "", fmt.Errorf("generate %s id: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%d", prefix, id), nil
}

// WizardID 生成创建向导会话 ID
func (g *Generator) WizardID() (string, error) {
	return g.Next(PrefixWizard)
}

// OperationID 生成操作记录 ID
func (g *Generator) OperationID() (string, error) {
	return g.Next(PrefixOperation)
}

// NotificationID 生成通知 ID
func (g *Generator) NotificationID() (string, error) {
	return g.Next(PrefixNotification)
}
