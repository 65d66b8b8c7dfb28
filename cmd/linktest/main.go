// Package main 提供 linktest 命令行入口
//
// linktest 是 uart2wifi 桥接设备的配套吞吐量测试工具：
// 打开一个字节流端点（TCP / 串口 / QUIC / WebSocket），
// 持续接收并校验对端数据，可选地按目标速率发送合成报文，
// 结束后输出两个方向的字节数、报文数、CRC32 和时间窗口。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/eehut/linktest/config"
	"github.com/eehut/linktest/internal/core/metrics"
	"github.com/eehut/linktest/internal/core/runner"
	"github.com/eehut/linktest/internal/core/transport"
	"github.com/eehut/linktest/internal/core/transport/quic"
	"github.com/eehut/linktest/internal/core/transport/serial"
	"github.com/eehut/linktest/internal/core/transport/tcp"
	"github.com/eehut/linktest/internal/core/transport/ws"
	"github.com/eehut/linktest/internal/util/logger"
)

var log = logger.Logger("linktest/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
// 配置优先级（从高到低）：
//  1. 命令行参数
//  2. 环境变量（LINKTEST_* 前缀）
//  3. JSON 配置文件（-config）
//  4. 默认值
var (
	// ─────────────────────────────────────────────────────────────────────
	// 端点
	// ─────────────────────────────────────────────────────────────────────
	mode   = flag.String("mode", "tcp", "端点类型 (tcp/serial/quic/ws)")
	addr   = flag.String("addr", "127.0.0.1:8888", "端点地址 (tcp/quic: host:port, ws: ws://host:port/path)")
	device = flag.String("device", "", "串口设备路径 (例如 /dev/ttyUSB0)")
	baud   = flag.Int("baud", 115200, "串口波特率")

	// ─────────────────────────────────────────────────────────────────────
	// 测试参数
	// ─────────────────────────────────────────────────────────────────────
	enableSend = flag.Bool("send", false, "启用发送测试")
	packetSize = flag.Int("size", config.DefaultPacketSize, "数据包大小，32-1024 字节")
	rateKbps   = flag.Uint64("rate", 0, "发送速率 (kbps)，0 为不限速")
	durationS  = flag.Uint64("duration", 0, "测试时长（秒），0 为不限制")
	count      = flag.Uint64("count", 0, "发送报文数上限，0 为不限制")

	// ─────────────────────────────────────────────────────────────────────
	// 其他
	// ─────────────────────────────────────────────────────────────────────
	configFile  = flag.String("config", "", "JSON 配置文件路径")
	metricsAddr = flag.String("metrics", "", "Prometheus 指标监听地址，如 :9100（留空禁用）")
)

// dialTimeout 建立连接的超时
const dialTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	// ═══════════════════════════════════════════════════════════════════
	// 1. 组装并校验配置（任何连接尝试之前）
	// ═══════════════════════════════════════════════════════════════════
	cfg, ep, err := buildConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("配置无效: %w", err)
	}
	if ep.mode == "serial" && ep.device == "" {
		return errors.New("serial 模式需要指定 -device")
	}

	logStartup(cfg, ep)

	// ═══════════════════════════════════════════════════════════════════
	// 2. 建立连接（失败即终止，不启动任何工作协程）
	// ═══════════════════════════════════════════════════════════════════
	conn, err := dialEndpoint(ep)
	if err != nil {
		return err
	}

	r := runner.New(conn, cfg)

	// ═══════════════════════════════════════════════════════════════════
	// 3. 可选的 Prometheus 指标端点
	// ═══════════════════════════════════════════════════════════════════
	metricsSrv := startMetricsServer(ep.metricsAddr, r.Stats())

	// ═══════════════════════════════════════════════════════════════════
	// 4. 信号处理：第一次信号请求停止，第二次强制退出
	// ═══════════════════════════════════════════════════════════════════
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n收到中止信号，正在停止测试...")
		r.Stop()
		<-sigCh
		os.Exit(130)
	}()

	// ═══════════════════════════════════════════════════════════════════
	// 5. 运行测试并输出报告
	// ═══════════════════════════════════════════════════════════════════
	snap, runErr := r.Run(context.Background())
	if metricsSrv != nil {
		runErr = multierr.Append(runErr, metricsSrv.Close())
	}
	if runErr != nil {
		// 传输中断只影响测试时长，统计仍然有效
		log.Warn("测试提前终止", "err", runErr)
	}

	printReport(os.Stdout, snap)
	return nil
}

// dialEndpoint 按端点类型建立连接
func dialEndpoint(ep *endpointConfig) (transport.Conn, error) {
	switch ep.mode {
	case "tcp":
		return tcp.Dial(ep.addr, dialTimeout)
	case "serial":
		return serial.Open(ep.device, ep.baud)
	case "quic":
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()
		return quic.Dial(ctx, ep.addr)
	case "ws":
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()
		return ws.Dial(ctx, ep.addr)
	default:
		return nil, fmt.Errorf("未知的端点类型: %q (tcp/serial/quic/ws)", ep.mode)
	}
}

// startMetricsServer 启动可选的指标端点，addr 为空时返回 nil
func startMetricsServer(addr string, stats *metrics.Stats) *http.Server {
	if addr == "" {
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewCollector(stats))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("指标端点退出", "addr", addr, "err", err)
		}
	}()

	log.Info("指标端点已启动", "addr", addr)
	return srv
}

// logStartup 输出本次运行的配置参数
func logStartup(cfg *config.Config, ep *endpointConfig) {
	endpoint := ep.addr
	if ep.mode == "serial" {
		endpoint = fmt.Sprintf("%s@%d", ep.device, ep.baud)
	}

	log.Info("linktest 启动",
		"mode", ep.mode,
		"endpoint", endpoint,
		"packetSize", cfg.PacketSize,
		"send", cfg.EnableSend)
	if cfg.EnableSend {
		log.Info("发送测试参数",
			"rate", rateString(cfg.SendRate),
			"duration", limitString(int64(cfg.Duration.Duration().Seconds()), "秒"),
			"maxPackets", limitString(int64(cfg.MaxPackets), "个"))
	}
	if ep.mode == "serial" && cfg.EnableSend {
		fmt.Fprintln(os.Stderr, "注意: 单口收发测试时，请确保串口的发送和接收引脚已短接")
	}
}

// rateString 格式化速率限制
func rateString(bps uint64) string {
	if bps == 0 {
		return "不限速"
	}
	return fmt.Sprintf("%d kbps", bps/1000)
}

// limitString 格式化上限参数，0 表示不限制
func limitString(v int64, unit string) string {
	if v == 0 {
		return "不限制"
	}
	return fmt.Sprintf("%d %s", v, unit)
}
