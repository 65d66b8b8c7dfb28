// Package config 提供 linktest 的配置管理
//
// 配置由外部（命令行 / JSON 配置文件）产生，核心只读消费。
// 所有参数在建立任何连接之前完成校验，非法值不会进入测试核心。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.EnableSend = true
//	cfg.SendRate = 8000 // 8 kbps
//	if err := cfg.Validate(); err != nil {
//	    // 校验失败，不要继续连接
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	// MinPacketSize 数据包大小下限（字节）
	MinPacketSize = 32

	// MaxPacketSize 数据包大小上限（字节）
	MaxPacketSize = 1024

	// DefaultPacketSize 默认数据包大小（字节）
	DefaultPacketSize = 100
)

// Config 是一次吞吐量测试的完整配置
//
// 零值语义：SendRate、Duration、MaxPackets 为 0 均表示"不限制"。
type Config struct {
	// PacketSize 每个发送报文的大小（字节），范围 [32, 1024]
	PacketSize int `json:"packet_size"`

	// SendRate 发送速率（bit/s），0 表示不限速
	SendRate uint64 `json:"send_rate"`

	// Duration 发送测试时长，0 表示不限制
	Duration Duration `json:"duration"`

	// MaxPackets 发送报文数上限，0 表示不限制
	MaxPackets uint64 `json:"max_packets"`

	// EnableSend 是否启用发送测试
	//
	// 关闭时只运行接收侧（纯下行测试）。
	EnableSend bool `json:"enable_send"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		PacketSize: DefaultPacketSize,
	}
}

// Validate 验证配置的有效性
//
// 必须在任何连接尝试之前调用，校验失败的配置不得进入测试核心。
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}

	if c.PacketSize < MinPacketSize || c.PacketSize > MaxPacketSize {
		return fmt.Errorf("packet size %d out of range [%d, %d]",
			c.PacketSize, MinPacketSize, MaxPacketSize)
	}

	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative: %s", c.Duration)
	}

	return nil
}

// FromJSON 从 JSON 数据解析配置
//
// 未出现的字段保持默认值。
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的配置文件路径是预期行为
	if err != nil {
		return nil, err
	}
	return FromJSON(data)
}
