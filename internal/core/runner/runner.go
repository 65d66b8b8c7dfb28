// Package runner 实现双工吞吐量测试的并发骨架
//
// 一次测试运行由三部分组成：
//   - 接收循环（必开）：有界超时读取并折叠进接收统计
//   - 发送循环（可选）：按目标速率生成并发送合成报文
//   - 生命周期主循环：等待停止条件，join 两个工作协程，冻结快照
//
// 协作取消：running 标志翻转后，所有循环在一个轮询周期内退出；
// 读阻塞由关闭传输来打断。任何一侧的错误只终止该侧循环，
// 不会波及另一侧，统计始终会被收集并交出。
package runner

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/eehut/linktest/config"
	"github.com/eehut/linktest/internal/core/metrics"
	"github.com/eehut/linktest/internal/core/transport"
	"github.com/eehut/linktest/internal/util/logger"
)

var log = logger.Logger("runner")

const (
	// readTimeout 接收循环单次读取的阻塞上限，
	// 决定了工作协程对取消信号的最大响应延迟
	readTimeout = time.Second

	// pollInterval 各等待循环的轮询间隔
	pollInterval = 100 * time.Millisecond

	// graceDelay 连接建立到发送开始之间的宽限期，
	// 给对端稳定的时间，不开放给用户配置
	graceDelay = 5 * time.Second

	// progressInterval 运行中进度日志的输出间隔
	progressInterval = 5 * time.Second

	// idleYield 不限速时每个报文之间的最小让步
	idleYield = time.Millisecond
)

// Runner 一次测试运行的生命周期管理者
//
// 持有两个共享标志：running（取消令牌，只被置 false 一次）和
// connected（连接建立后置 true，断开检测方置 false）。
// 统计字段的分组所有权见 metrics.Stats。
type Runner struct {
	id    string
	cfg   *config.Config
	conn  transport.Conn
	stats *metrics.Stats
	clk   clock.Clock

	running   atomic.Bool
	connected atomic.Bool

	// grace 宽限期，测试中可缩短
	grace time.Duration
}

// New 创建测试运行器
//
// conn 必须是已经建立好的连接：连接失败属于前置阶段的错误，
// 在任何工作协程启动之前就应当交还给调用方。
func New(conn transport.Conn, cfg *config.Config) *Runner {
	r := &Runner{
		id:    uuid.NewString()[:8],
		cfg:   cfg,
		conn:  conn,
		stats: metrics.New(),
		clk:   clock.New(),
		grace: graceDelay,
	}
	r.running.Store(true)
	return r
}

// Stats 返回底层统计累加器（用于指标导出）
func (r *Runner) Stats() *metrics.Stats {
	return r.stats
}

// ID 返回本次运行的标识
func (r *Runner) ID() string {
	return r.id
}

// Stop 请求停止测试
//
// 翻转 running 标志、封存断开时间、关闭传输以打断阻塞中的读取。
// 幂等：外部信号和接收循环的断开检测可以各调用一次，
// 断开时间由 CAS 保证只记录一次。
func (r *Runner) Stop() {
	if !r.running.CompareAndSwap(true, false) {
		return
	}
	r.stats.MarkDisconnect(r.clk.Now())
	if err := r.conn.Close(); err != nil {
		log.Warn("关闭连接出错", "run", r.id, "err", err)
	}
	log.Info("正在停止测试", "run", r.id)
}

// Run 执行测试直到停止条件满足，返回冻结的统计快照
//
// 返回的 error 是工作协程遇到的第一个传输错误；即使出错，
// 快照也始终有效，包含截至终止时刻累计的全部统计。
func (r *Runner) Run(ctx context.Context) (metrics.Snapshot, error) {
	r.stats.MarkConnect(r.clk.Now())
	r.connected.Store(true)

	log.Info("测试开始",
		"run", r.id,
		"endpoint", r.conn.String(),
		"packetSize", r.cfg.PacketSize,
		"send", r.cfg.EnableSend)

	// 外部 ctx 取消等价于一次 Stop 调用
	stopWatch := context.AfterFunc(ctx, r.Stop)
	defer stopWatch()

	var g errgroup.Group
	g.Go(r.receiveLoop)
	if r.cfg.EnableSend {
		g.Go(r.sendLoop)
	}

	// 主循环：等待停止或断开，周期性输出进度
	lastProgress := r.clk.Now()
	for r.running.Load() && r.connected.Load() {
		r.clk.Sleep(pollInterval)
		if r.clk.Since(lastProgress) >= progressInterval {
			lastProgress = r.clk.Now()
			r.logProgress()
		}
	}

	r.Stop()
	err := g.Wait()

	snap := r.stats.Snapshot()
	log.Info("测试结束",
		"run", r.id,
		"rxBytes", snap.RxBytes,
		"rxPackets", snap.RxPackets,
		"txBytes", snap.TxBytes,
		"txPackets", snap.TxPackets,
		"duration", snap.ConnDuration())
	return snap, err
}

// logProgress 输出运行中的进度
func (r *Runner) logProgress() {
	log.Info("测试进行中",
		"run", r.id,
		"rxBytes", r.stats.RxBytes(),
		"rxRate", r.stats.RxRate(),
		"txBytes", r.stats.TxBytes(),
		"txRate", r.stats.TxRate())
}

// markDisconnected 断开检测方的统一出口：
// 置 connected=false 并封存断开时间（只置一次）
func (r *Runner) markDisconnected() {
	r.connected.Store(false)
	r.stats.MarkDisconnect(r.clk.Now())
}

// sleepCancellable 分片睡眠 d，保持对取消和断开的响应
//
// 正常睡满返回 true；因 running 或 connected 翻转提前返回 false。
func (r *Runner) sleepCancellable(d time.Duration) bool {
	deadline := r.clk.Now().Add(d)
	for {
		if !r.running.Load() || !r.connected.Load() {
			return false
		}
		remain := deadline.Sub(r.clk.Now())
		if remain <= 0 {
			return true
		}
		if remain > pollInterval {
			remain = pollInterval
		}
		r.clk.Sleep(remain)
	}
}
