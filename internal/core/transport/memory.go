package transport

import (
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// MemConn 进程内的内存连接，用于测试
//
// Pipe 返回的一对 MemConn 互为对端：一端 Write 的数据可以从
// 另一端 Read 读出。语义与真实连接对齐：
//   - 对端 Close 后，本端先读完缓冲中的数据，再返回 io.EOF
//   - 本端 Close 后，Read/Write 返回 ErrClosed
type MemConn struct {
	name string
	peer *MemConn

	// recv 对端写入的数据块队列
	recv chan []byte

	// done 本端关闭信号
	done      chan struct{}
	closeOnce sync.Once

	// writeDelay 每次 Write 的人为延迟（模拟慢链路，测试用）
	writeDelay atomic.Int64 // 纳秒
}

var _ Conn = (*MemConn)(nil)

// Pipe 创建一对互联的内存连接
func Pipe() (*MemConn, *MemConn) {
	a := &MemConn{
		name: "mem-a",
		recv: make(chan []byte, 1024),
		done: make(chan struct{}),
	}
	b := &MemConn{
		name: "mem-b",
		recv: make(chan []byte, 1024),
		done: make(chan struct{}),
	}
	a.peer = b
	b.peer = a
	return a, b
}

// Read 等待对端写入的数据
func (c *MemConn) Read(timeout time.Duration) ([]byte, error) {
	// 先把已缓冲的数据读完，对端关闭不能吞掉在途数据
	select {
	case data := <-c.recv:
		return data, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case data := <-c.recv:
		return data, nil
	case <-c.done:
		return nil, ErrClosed
	case <-c.peer.done:
		// 可能在等待期间又有数据到达
		select {
		case data := <-c.recv:
			return data, nil
		default:
			return nil, io.EOF
		}
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// Write 把数据投递到对端的接收队列
func (c *MemConn) Write(p []byte) (int, error) {
	if d := c.writeDelay.Load(); d > 0 {
		time.Sleep(time.Duration(d))
	}

	// Read 方得到的切片独立于调用方缓冲区
	data := make([]byte, len(p))
	copy(data, p)

	select {
	case <-c.done:
		return 0, ErrClosed
	case <-c.peer.done:
		return 0, io.EOF
	case c.peer.recv <- data:
		return len(p), nil
	}
}

// Close 关闭本端
func (c *MemConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}

// SetWriteDelay 设置每次 Write 的人为耗时（测试速率控制用）
func (c *MemConn) SetWriteDelay(d time.Duration) {
	c.writeDelay.Store(int64(d))
}

// String 返回端点描述
func (c *MemConn) String() string {
	return "mem://" + c.name
}
