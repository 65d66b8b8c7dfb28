// Package transport 定义字节流端点的统一抽象
//
// 测试核心只依赖本包的 Conn 接口，不关心底层是 TCP、串口、
// QUIC 还是 WebSocket。约束：
//   - 每个 Conn 只允许一个接收者调用 Read，至多一个发送者调用 Write，
//     读写竞争在结构上被排除
//   - Read 必须有界阻塞：最多等待 timeout 后返回 ErrTimeout
//   - Write 在返回前应尽量完成实际发送（串口 Drain、TCP NoDelay），
//     这样发送侧的速率控制才能基于真实的写入耗时
//   - Close 必须幂等，且会让阻塞中的 Read 尽快返回错误
package transport

import "time"

// Conn 抽象的双向字节流连接
type Conn interface {
	// Read 等待数据到达，最多阻塞 timeout
	//
	// 返回值约定：
	//   - 有数据: (data, nil)，data 长度 >= 1，只在下次 Read 前有效
	//   - 超时:   (nil, ErrTimeout)，不算错误，调用方应继续轮询
	//   - 对端关闭: (nil, io.EOF)
	//   - 其他错误: (nil, err)
	Read(timeout time.Duration) ([]byte, error)

	// Write 发送数据，返回实际写入的字节数
	Write(p []byte) (int, error)

	// Close 关闭连接，可重复调用
	Close() error

	// String 返回端点的可读描述（用于日志）
	String() string
}

// ReadBufferSize 各实现内部读缓冲区的统一大小
const ReadBufferSize = 4096
