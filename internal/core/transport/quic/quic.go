// Package quic 实现基于 QUIC 单流的测试端点
//
// 面向部署在 QUIC 网关之后的桥接设备。测试只使用一条双向流，
// 流上的字节序与 TCP 端点语义一致。证书校验默认关闭：被测设备
// 普遍使用自签名证书，这是测试工具而非生产信道。
package quic

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	quicgo "github.com/quic-go/quic-go"

	"github.com/eehut/linktest/internal/core/transport"
	"github.com/eehut/linktest/internal/util/logger"
)

var log = logger.Logger("transport/quic")

// alpnProtocol 测试流的 ALPN 标识
const alpnProtocol = "linktest"

// Conn QUIC 测试连接（单条双向流）
type Conn struct {
	conn   quicgo.Connection
	stream quicgo.Stream
	addr   string

	buf [transport.ReadBufferSize]byte

	closeOnce sync.Once
	closeErr  error
}

var _ transport.Conn = (*Conn)(nil)

// Dial 建立 QUIC 连接并打开测试流
func Dial(ctx context.Context, addr string) (*Conn, error) {
	tlsConf := &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // G402: 被测设备使用自签名证书
		NextProtos:         []string{alpnProtocol},
	}

	conn, err := quicgo.DialAddr(ctx, addr, tlsConf, nil)
	if err != nil {
		return nil, fmt.Errorf("连接 %s 失败: %w", addr, err)
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "open stream failed")
		return nil, fmt.Errorf("打开 QUIC 流失败: %w", err)
	}

	log.Debug("QUIC 连接已建立", "remote", conn.RemoteAddr(), "stream", stream.StreamID())
	return &Conn{conn: conn, stream: stream, addr: addr}, nil
}

// Read 等待数据，最多阻塞 timeout
func (c *Conn) Read(timeout time.Duration) ([]byte, error) {
	if err := c.stream.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	n, err := c.stream.Read(c.buf[:])
	if n > 0 {
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
	default:
		// 对端正常关闭连接（错误码 0）等价于 EOF
		var appErr *quicgo.ApplicationError
		if errors.As(err, &appErr) && appErr.ErrorCode == 0 {
			return nil, io.EOF
		}
		return nil, err
	}
}

// Write 发送数据
func (c *Conn) Write(p []byte) (int, error) {
	return c.stream.Write(p)
}

// Close 关闭流和连接，可重复调用
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.stream.Close()
		c.closeErr = c.conn.CloseWithError(0, "test finished")
	})
	return c.closeErr
}

// String 返回端点描述
func (c *Conn) String() string {
	return "quic://" + c.addr
}
