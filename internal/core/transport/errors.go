// Package transport 定义字节流端点的统一抽象
package transport

import "errors"

var (
	// ErrTimeout 读超时，无数据到达（不是错误，继续轮询即可）
	ErrTimeout = errors.New("read timed out")

	// ErrClosed 连接已被本端关闭
	ErrClosed = errors.New("connection closed")
)
