package runner

import (
	"math/rand"
	"time"
)

// sendLoop 发送循环
//
// 连接建立并度过宽限期后，按配置的速率生成随机载荷发送。
// 载荷内容无关紧要，长度和校验和才是被验证的对象。
// 写错误只终止本循环，从不重试。
func (r *Runner) sendLoop() error {
	// 等待连接建立；若先被取消则不发送任何数据直接返回
	for !r.connected.Load() {
		if !r.running.Load() {
			return nil
		}
		r.clk.Sleep(pollInterval)
	}

	log.Info("发送测试将在宽限期后开始", "run", r.id, "grace", r.grace)
	if !r.sleepCancellable(r.grace) {
		return nil
	}

	start := r.clk.Now()
	r.stats.MarkSendStart(start)
	defer func() {
		r.stats.MarkSendEnd(r.clk.Now())
		log.Debug("发送循环退出", "run", r.id)
	}()

	log.Info("发送测试开始",
		"run", r.id,
		"packetSize", r.cfg.PacketSize,
		"rate", r.cfg.SendRate,
		"duration", r.cfg.Duration,
		"maxPackets", r.cfg.MaxPackets)

	// 名义报文间隔 = packetSize*8 / sendRate
	var interval time.Duration
	if r.cfg.SendRate > 0 {
		interval = time.Duration(
			float64(r.cfg.PacketSize*8) / float64(r.cfg.SendRate) * float64(time.Second))
	}

	buf := make([]byte, r.cfg.PacketSize)
	rng := rand.New(rand.NewSource(start.UnixNano()))

	for r.running.Load() && r.connected.Load() {
		if d := r.cfg.Duration.Duration(); d > 0 && r.clk.Since(start) >= d {
			log.Info("达到测试时长限制", "run", r.id, "duration", d)
			break
		}
		if r.cfg.MaxPackets > 0 && uint64(r.stats.TxPackets()) >= r.cfg.MaxPackets {
			log.Info("达到报文数限制", "run", r.id, "maxPackets", r.cfg.MaxPackets)
			break
		}

		// math/rand 的 Read 永不返回错误
		rng.Read(buf)

		writeStart := r.clk.Now()
		n, err := r.conn.Write(buf)
		if err != nil {
			if r.running.Load() {
				log.Error("写入出错", "run", r.id, "err", err)
				return err
			}
			return nil
		}
		r.stats.AddSent(buf[:n])

		if interval > 0 {
			// 速率控制要扣除写入本身的耗时，
			// 否则高速率下实际速率会系统性低于目标
			if sleep := interval - r.clk.Since(writeStart); sleep > 0 {
				if !r.sleepCancellable(sleep) {
					break
				}
			}
		} else {
			// 不限速也要让出调度：约束 CPU 占用并保持对取消的响应
			r.clk.Sleep(idleYield)
		}
	}
	return nil
}
