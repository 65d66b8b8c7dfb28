package metrics

import "time"

// Snapshot 测试结束后冻结的统计快照
//
// 由生命周期管理者在两个工作协程 join 之后生成，交给外部的
// 报告输出方，此后不再变化。
type Snapshot struct {
	// 接收统计
	RxBytes   int64  `json:"rx_bytes"`
	RxPackets int64  `json:"rx_packets"`
	RxCRC32   uint32 `json:"rx_crc32"`

	// 发送统计
	TxBytes   int64  `json:"tx_bytes"`
	TxPackets int64  `json:"tx_packets"`
	TxCRC32   uint32 `json:"tx_crc32"`

	// 时间窗口（未设置的为零值）
	ConnectTime    time.Time `json:"connect_time"`
	DisconnectTime time.Time `json:"disconnect_time"`
	SendStartTime  time.Time `json:"send_start_time"`
	SendEndTime    time.Time `json:"send_end_time"`
}

// ConnDuration 返回连接总时长（connect 到 disconnect）
//
// 任一端点未设置时返回 0。
func (s Snapshot) ConnDuration() time.Duration {
	if s.ConnectTime.IsZero() || s.DisconnectTime.IsZero() {
		return 0
	}
	return s.DisconnectTime.Sub(s.ConnectTime)
}

// SendDuration 返回发送测试时长（sendStart 到 sendEnd）
//
// 发送测试未运行时返回 0。
func (s Snapshot) SendDuration() time.Duration {
	if s.SendStartTime.IsZero() || s.SendEndTime.IsZero() {
		return 0
	}
	return s.SendEndTime.Sub(s.SendStartTime)
}

// RxRateKbps 返回整个连接期间的平均接收速率（kbit/s）
func (s Snapshot) RxRateKbps() float64 {
	d := s.ConnDuration()
	if d <= 0 {
		return 0
	}
	return float64(s.RxBytes) * 8 / d.Seconds() / 1000
}

// TxRateKbps 返回发送测试期间的平均发送速率（kbit/s）
func (s Snapshot) TxRateKbps() float64 {
	d := s.SendDuration()
	if d <= 0 {
		return 0
	}
	return float64(s.TxBytes) * 8 / d.Seconds() / 1000
}
