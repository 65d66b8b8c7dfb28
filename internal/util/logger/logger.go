// Package logger 提供 linktest 的统一日志系统
//
// 基于标准库 log/slog，支持按子系统配置日志级别：
//   - LINKTEST_LOG_LEVEL: 日志级别，支持按子系统配置
//     格式: 子系统=级别,子系统=级别,默认级别
//     示例: transport=debug,runner=warn,info
//   - LINKTEST_LOG_FORMAT: 日志格式 (text 或 json)
//
// 使用示例:
//
//	package runner
//
//	import "github.com/eehut/linktest/internal/util/logger"
//
//	var log = logger.Logger("runner")
//
//	func foo() {
//	    log.Info("测试开始", "packetSize", size)
//	    log.Error("写入失败", "err", err)
//	}
package logger

import (
	"io"
	"log/slog"
	"sync"
)

var (
	// loggers 缓存各子系统的 Logger
	loggers sync.Map // map[string]*slog.Logger

	// handlers 缓存各子系统的 Handler（用于动态调整级别）
	handlers sync.Map // map[string]*subsystemHandler
)

// Logger 获取指定子系统的 Logger
//
// Logger 会根据 LINKTEST_LOG_LEVEL 环境变量配置日志级别。
// 同一子系统多次调用会返回相同的 Logger 实例。
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}

	cfg := ConfigFromEnv()
	level := cfg.LevelForSubsystem(subsystem)

	handler := newHandler(subsystem, level, cfg.Format)
	l := slog.New(handler)

	actual, _ := loggers.LoadOrStore(subsystem, l)
	if h, ok := handler.(*subsystemHandler); ok {
		handlers.Store(subsystem, h)
	}

	return actual.(*slog.Logger)
}

// SetLevel 动态设置子系统的日志级别
func SetLevel(subsystem string, level slog.Level) {
	if h, ok := handlers.Load(subsystem); ok {
		h.(*subsystemHandler).SetLevel(level)
	}
}

// SetGlobalLevel 设置所有已创建子系统的日志级别
func SetGlobalLevel(level slog.Level) {
	handlers.Range(func(_, value any) bool {
		value.(*subsystemHandler).SetLevel(level)
		return true
	})
}

// SetOutput 设置全局日志输出目标
//
// 所有 Logger 的输出会自动重定向到新的 writer，
// 包括在调用之前已经创建的 Logger。
func SetOutput(w io.Writer) {
	globalOutputMu.Lock()
	globalOutput = w
	globalOutputMu.Unlock()
}

// Discard 返回一个丢弃所有日志的 Logger
//
// 主要用于测试，避免日志输出干扰测试结果。
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}
