package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/eehut/linktest/config"
)

// endpointConfig 描述测试端点，与核心测试参数分开管理
type endpointConfig struct {
	mode        string
	addr        string
	device      string
	baud        int
	metricsAddr string
}

// buildConfig 按优先级合并配置：命令行 > 环境变量 > 配置文件 > 默认值
func buildConfig() (*config.Config, *endpointConfig, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			return nil, nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}

	ep := &endpointConfig{
		mode:        *mode,
		addr:        *addr,
		device:      *device,
		baud:        *baud,
		metricsAddr: *metricsAddr,
	}
	applyEnvOverrides(cfg, ep)
	applyFlagOverrides(cfg, ep)

	return cfg, ep, nil
}

// applyEnvOverrides 应用 LINKTEST_* 环境变量
//
// 支持的变量：
//
//	LINKTEST_MODE     端点类型
//	LINKTEST_ADDR     端点地址
//	LINKTEST_DEVICE   串口设备路径
//	LINKTEST_BAUD     串口波特率
//	LINKTEST_METRICS  Prometheus 监听地址
//	LINKTEST_SEND     启用发送测试 (true/false)
//	LINKTEST_RATE     发送速率 (kbps)
func applyEnvOverrides(cfg *config.Config, ep *endpointConfig) {
	if v := os.Getenv("LINKTEST_MODE"); v != "" {
		ep.mode = v
	}
	if v := os.Getenv("LINKTEST_ADDR"); v != "" {
		ep.addr = v
	}
	if v := os.Getenv("LINKTEST_DEVICE"); v != "" {
		ep.device = v
	}
	if v := os.Getenv("LINKTEST_BAUD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ep.baud = n
		}
	}
	if v := os.Getenv("LINKTEST_METRICS"); v != "" {
		ep.metricsAddr = v
	}
	if v := os.Getenv("LINKTEST_SEND"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.EnableSend = b
		}
	}
	if v := os.Getenv("LINKTEST_RATE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.SendRate = n * 1000
		}
	}
}

// applyFlagOverrides 将显式设置的命令行参数写入配置
//
// 只覆盖用户实际传入的参数，避免默认值冲掉配置文件的内容。
func applyFlagOverrides(cfg *config.Config, ep *endpointConfig) {
	if isFlagSet("mode") {
		ep.mode = *mode
	}
	if isFlagSet("addr") {
		ep.addr = *addr
	}
	if isFlagSet("device") {
		ep.device = *device
	}
	if isFlagSet("baud") {
		ep.baud = *baud
	}
	if isFlagSet("metrics") {
		ep.metricsAddr = *metricsAddr
	}
	if isFlagSet("send") {
		cfg.EnableSend = *enableSend
	}
	if isFlagSet("size") {
		cfg.PacketSize = *packetSize
	}
	if isFlagSet("rate") {
		// 命令行单位是 kbps，内部统一使用 bit/s
		cfg.SendRate = *rateKbps * 1000
	}
	if isFlagSet("duration") {
		cfg.Duration = config.Duration(time.Duration(*durationS) * time.Second)
	}
	if isFlagSet("count") {
		cfg.MaxPackets = *count
	}
}

// isFlagSet 判断命令行参数是否被显式设置
func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
