// Package tcp 实现基于 TCP 的测试端点
//
// 对应被测设备（如 uart2wifi 桥接器）暴露的 TCP 服务端口。
// 连接建立后关闭 Nagle 算法，保证 Write 返回时数据已交给内核发送，
// 发送侧的速率控制才能基于真实的写入耗时。
package tcp

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/eehut/linktest/internal/core/transport"
	"github.com/eehut/linktest/internal/util/logger"
)

var log = logger.Logger("transport/tcp")

// Conn TCP 测试连接
type Conn struct {
	conn *net.TCPConn

	// buf Read 的内部缓冲区，返回的切片指向它；
	// 单读者约束下无需加锁
	buf [transport.ReadBufferSize]byte

	closeOnce sync.Once
	closeErr  error
}

var _ transport.Conn = (*Conn)(nil)

// Dial 连接到 host:port，超时 timeout
func Dial(addr string, timeout time.Duration) (*Conn, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("连接 %s 失败: %w", addr, err)
	}

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("不是 TCP 连接: %s", addr)
	}

	// 关闭 Nagle，写入立即发出
	if err := tcpConn.SetNoDelay(true); err != nil {
		tcpConn.Close()
		return nil, fmt.Errorf("设置 NoDelay 失败: %w", err)
	}

	log.Debug("TCP 连接已建立", "local", tcpConn.LocalAddr(), "remote", tcpConn.RemoteAddr())
	return &Conn{conn: tcpConn}, nil
}

// Read 等待数据，最多阻塞 timeout
func (c *Conn) Read(timeout time.Duration) ([]byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, transport.ErrClosed
		}
		return nil, err
	}

	n, err := c.conn.Read(c.buf[:])
	if n > 0 {
		// 数据优先；EOF 等错误留给下一次 Read 报告
		return c.buf[:n], nil
	}
	if err == nil {
		return nil, transport.ErrTimeout
	}

	var nerr net.Error
	switch {
	case errors.As(err, &nerr) && nerr.Timeout():
		return nil, transport.ErrTimeout
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, net.ErrClosed):
		return nil, transport.ErrClosed
	default:
		return nil, err
	}
}

// Write 发送数据
func (c *Conn) Write(p []byte) (int, error) {
	n, err := c.conn.Write(p)
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return n, transport.ErrClosed
		}
		return n, err
	}
	return n, nil
}

// Close 关闭连接，可重复调用
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// String 返回端点描述
func (c *Conn) String() string {
	return "tcp://" + c.conn.RemoteAddr().String()
}
