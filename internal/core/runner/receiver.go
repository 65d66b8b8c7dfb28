package runner

import (
	"errors"
	"io"

	"github.com/eehut/linktest/internal/core/transport"
)

// receiveLoop 接收循环
//
// 单协程独占接收组统计，更新严格按到达顺序进行。
// 读超时不是错误：它是循环在没有数据时保持对 running
// 响应的机制。EOF 和读错误只终止本循环并标记断开，
// 从不重试，也不影响发送循环之外的任何部分。
func (r *Runner) receiveLoop() error {
	log.Debug("接收循环启动", "run", r.id)

	for r.running.Load() && r.connected.Load() {
		data, err := r.conn.Read(readTimeout)
		switch {
		case err == nil:
			if len(data) > 0 {
				r.stats.AddRecv(data)
			}

		case errors.Is(err, transport.ErrTimeout):
			// 无数据，回到循环头重新检查 running

		case errors.Is(err, io.EOF):
			log.Info("对端关闭连接", "run", r.id)
			r.markDisconnected()
			return nil

		default:
			r.markDisconnected()
			if r.running.Load() {
				log.Error("读取出错", "run", r.id, "err", err)
				return err
			}
			// 主动停止会关闭传输打断读取，这不算故障
			return nil
		}
	}

	// 因取消退出：断开时间同样要封存
	r.markDisconnected()
	log.Debug("接收循环退出", "run", r.id)
	return nil
}
