// Package metrics 提供测试统计的累加与快照
//
// Stats 本身不拥有任何线程：接收组字段只由接收协程写入，
// 发送组字段只由发送协程写入，分组所有权消除了计数器上的竞争；
// 原子操作只为保证生命周期管理者在 join 之后读到完整的值。
// 时间戳是"只置一次"语义，用 CompareAndSwap 实现，多个写者
// 竞争时第一个成功者胜出。
package metrics

import (
	"hash/crc32"
	"sync/atomic"
	"time"
)

// Stats 一次测试运行的统计累加器
//
// 所有计数器在运行期间单调不减。rxCRC/txCRC 是按到达顺序
// 对该方向全部字节做的流式 CRC-32（IEEE 多项式）折叠，
// 等价于对完整串接后的数据一次性求 CRC-32。
type Stats struct {
	// 接收组：只由接收协程写入
	rxBytes   atomic.Int64
	rxPackets atomic.Int64
	rxCRC     atomic.Uint32

	// 发送组：只由发送协程写入
	txBytes   atomic.Int64
	txPackets atomic.Int64
	txCRC     atomic.Uint32

	// 时间戳（UnixNano，0 表示未设置）
	connectNano    atomic.Int64
	disconnectNano atomic.Int64 // 多个写者竞争，只置一次
	sendStartNano  atomic.Int64
	sendEndNano    atomic.Int64

	// 滑动窗口速率，用于运行中的进度输出和指标导出
	rxRate *RateMeter
	txRate *RateMeter
}

// New 创建空的统计累加器
func New() *Stats {
	return &Stats{
		rxRate: NewRateMeter(),
		txRate: NewRateMeter(),
	}
}

// AddRecv 累加一次接收：字节数、报文数、CRC 折叠
func (s *Stats) AddRecv(data []byte) {
	s.rxBytes.Add(int64(len(data)))
	s.rxPackets.Add(1)
	s.rxCRC.Store(crc32.Update(s.rxCRC.Load(), crc32.IEEETable, data))
	s.rxRate.Add(int64(len(data)))
}

// AddSent 累加一次发送：字节数、报文数、CRC 折叠
func (s *Stats) AddSent(data []byte) {
	s.txBytes.Add(int64(len(data)))
	s.txPackets.Add(1)
	s.txCRC.Store(crc32.Update(s.txCRC.Load(), crc32.IEEETable, data))
	s.txRate.Add(int64(len(data)))
}

// MarkConnect 记录连接建立时间（只置一次）
func (s *Stats) MarkConnect(t time.Time) bool {
	return s.connectNano.CompareAndSwap(0, t.UnixNano())
}

// MarkDisconnect 记录断开时间（只置一次）
//
// 接收协程的断开检测和外部 stop 信号可能同时到达，
// CAS 保证第一个写者胜出，时间戳不会被覆盖。
func (s *Stats) MarkDisconnect(t time.Time) bool {
	return s.disconnectNano.CompareAndSwap(0, t.UnixNano())
}

// MarkSendStart 记录发送测试开始时间（只置一次）
func (s *Stats) MarkSendStart(t time.Time) bool {
	return s.sendStartNano.CompareAndSwap(0, t.UnixNano())
}

// MarkSendEnd 记录发送测试结束时间（只置一次）
func (s *Stats) MarkSendEnd(t time.Time) bool {
	return s.sendEndNano.CompareAndSwap(0, t.UnixNano())
}

// RxBytes 返回累计接收字节数
func (s *Stats) RxBytes() int64 { return s.rxBytes.Load() }

// RxPackets 返回累计接收报文数
func (s *Stats) RxPackets() int64 { return s.rxPackets.Load() }

// TxBytes 返回累计发送字节数
func (s *Stats) TxBytes() int64 { return s.txBytes.Load() }

// TxPackets 返回累计发送报文数
func (s *Stats) TxPackets() int64 { return s.txPackets.Load() }

// RxRate 返回接收侧近期平均速率（字节/秒）
func (s *Stats) RxRate() float64 { return s.rxRate.Rate() }

// TxRate 返回发送侧近期平均速率（字节/秒）
func (s *Stats) TxRate() float64 { return s.txRate.Rate() }

// Snapshot 生成当前统计的快照
//
// 两个方向的计数可以在任意时刻独立读取；但只有两个工作协程
// 都退出之后的快照才是一致的最终结果。
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		RxBytes:   s.rxBytes.Load(),
		RxPackets: s.rxPackets.Load(),
		RxCRC32:   s.rxCRC.Load(),

		TxBytes:   s.txBytes.Load(),
		TxPackets: s.txPackets.Load(),
		TxCRC32:   s.txCRC.Load(),

		ConnectTime:    nanoToTime(s.connectNano.Load()),
		DisconnectTime: nanoToTime(s.disconnectNano.Load()),
		SendStartTime:  nanoToTime(s.sendStartNano.Load()),
		SendEndTime:    nanoToTime(s.sendEndNano.Load()),
	}
}

// nanoToTime 把 UnixNano 时间戳还原为 time.Time，0 还原为零值
func nanoToTime(nano int64) time.Time {
	if nano == 0 {
		return time.Time{}
	}
	return time.Unix(0, nano)
}
