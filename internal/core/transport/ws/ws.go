// Package ws 实现基于 WebSocket 的测试端点
//
// 面向通过 WebSocket 代理转发的桥接设备，数据走二进制消息帧。
// gorilla/websocket 的读超时是致命错误（超时后连接不可再用），
// 因此这里用内部读协程把消息搬进通道，Read 在"数据到达 / 超时 /
// 关闭"三者上多路等待，超时不影响连接本身。
package ws

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eehut/linktest/internal/core/transport"
	"github.com/eehut/linktest/internal/util/logger"
)

var log = logger.Logger("transport/ws")

// Conn WebSocket 测试连接
type Conn struct {
	ws  *websocket.Conn
	url string

	// msgs 读协程投递的消息；读协程退出时关闭
	msgs chan []byte

	// readErr 读协程的终止原因，msgs 关闭后有效
	readErrMu sync.Mutex
	readErr   error

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

var _ transport.Conn = (*Conn)(nil)

// Dial 建立 WebSocket 连接，url 形如 ws://host:port/path
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("连接 %s 失败: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c := &Conn{
		ws:   ws,
		url:  url,
		msgs: make(chan []byte, 64),
		done: make(chan struct{}),
	}
	go c.readLoop()

	log.Debug("WebSocket 连接已建立", "url", url)
	return c, nil
}

// readLoop 持续读取消息帧并投递到通道
func (c *Conn) readLoop() {
	defer close(c.msgs)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.readErrMu.Lock()
			c.readErr = err
			c.readErrMu.Unlock()
			return
		}
		if len(data) == 0 {
			continue
		}
		select {
		case c.msgs <- data:
		case <-c.done:
			return
		}
	}
}

// terminalErr 读协程终止后对外报告的错误
func (c *Conn) terminalErr() error {
	c.readErrMu.Lock()
	err := c.readErr
	c.readErrMu.Unlock()

	select {
	case <-c.done:
		return transport.ErrClosed
	default:
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		err == io.EOF {
		return io.EOF
	}
	if err == nil {
		return io.EOF
	}
	return err
}

// Read 等待消息帧，最多阻塞 timeout
func (c *Conn) Read(timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case data, ok := <-c.msgs:
		if !ok {
			return nil, c.terminalErr()
		}
		return data, nil
	case <-timer.C:
		return nil, transport.ErrTimeout
	}
}

// Write 以二进制消息帧发送数据
func (c *Conn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close 关闭连接，可重复调用
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		// 尽力发送关闭帧，对端不响应也不等待
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// String 返回端点描述
func (c *Conn) String() string {
	return c.url
}
