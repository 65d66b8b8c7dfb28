// Package serial 实现基于串口的测试端点
//
// 对应 uart2wifi 桥接器的串口侧，固定 8N1 帧格式。
// 注意：单口收发测试时需要把 TX/RX 引脚短接（回环）。
package serial

import (
	"fmt"
	"sync"
	"time"

	bugst "go.bug.st/serial"

	"github.com/eehut/linktest/internal/core/transport"
	"github.com/eehut/linktest/internal/util/logger"
)

var log = logger.Logger("transport/serial")

// Conn 串口测试连接
type Conn struct {
	port   bugst.Port
	device string
	baud   int

	buf [transport.ReadBufferSize]byte

	// timeoutMu 保护 SetReadTimeout 与 Read 的配对调用
	// （接口约束单读者，这里只防御 Close 与 Read 的并发）
	timeoutMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

var _ transport.Conn = (*Conn)(nil)

// Open 打开串口设备，波特率 baud，8N1
func Open(device string, baud int) (*Conn, error) {
	if baud <= 0 {
		return nil, fmt.Errorf("无效的波特率: %d", baud)
	}

	mode := &bugst.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}

	port, err := bugst.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("打开串口 %s 失败: %w", device, err)
	}

	log.Debug("串口已打开", "device", device, "baud", baud)
	return &Conn{port: port, device: device, baud: baud}, nil
}

// Read 等待数据，最多阻塞 timeout
func (c *Conn) Read(timeout time.Duration) ([]byte, error) {
	c.timeoutMu.Lock()
	err := c.port.SetReadTimeout(timeout)
	c.timeoutMu.Unlock()
	if err != nil {
		return nil, err
	}

	n, err := c.port.Read(c.buf[:])
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// go.bug.st/serial 的超时约定：n==0 且无错误
		return nil, transport.ErrTimeout
	}
	return c.buf[:n], nil
}

// Write 发送数据并等待发送缓冲排空
//
// Drain 保证返回时数据已实际发出，写入耗时对速率控制有意义。
func (c *Conn) Write(p []byte) (int, error) {
	n, err := c.port.Write(p)
	if err != nil {
		return n, err
	}
	if err := c.port.Drain(); err != nil {
		return n, err
	}
	return n, nil
}

// Close 关闭串口，可重复调用
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.port.Close()
	})
	return c.closeErr
}

// String 返回端点描述
func (c *Conn) String() string {
	return fmt.Sprintf("serial://%s@%d", c.device, c.baud)
}
