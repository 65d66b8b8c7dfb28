package tcp

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/eehut/linktest/internal/core/transport"
)

// startServer 启动一个本地 TCP 服务端，返回地址和已接受连接的通道
func startServer(t *testing.T) (string, chan net.Conn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("监听失败: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()
	return ln.Addr().String(), accepted
}

func TestDialAndReadWrite(t *testing.T) {
	addr, accepted := startServer(t)

	c, err := Dial(addr, time.Second)
	if err != nil {
		t.Fatalf("Dial 失败: %v", err)
	}
	defer c.Close()

	server := <-accepted
	defer server.Close()

	// 服务端 -> 客户端
	payload := []byte("uart2wifi throughput probe")
	if _, err := server.Write(payload); err != nil {
		t.Fatalf("服务端写入失败: %v", err)
	}
	data, err := c.Read(time.Second)
	if err != nil {
		t.Fatalf("Read 失败: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("读到 %q, 期望 %q", data, payload)
	}

	// 客户端 -> 服务端
	n, err := c.Write([]byte("ack"))
	if err != nil || n != 3 {
		t.Fatalf("Write = (%d, %v), 期望 (3, nil)", n, err)
	}
	buf := make([]byte, 8)
	server.SetReadDeadline(time.Now().Add(time.Second))
	rn, err := server.Read(buf)
	if err != nil || !bytes.Equal(buf[:rn], []byte("ack")) {
		t.Errorf("服务端读到 %q (err=%v), 期望 \"ack\"", buf[:rn], err)
	}
}

func TestReadTimeout(t *testing.T) {
	addr, accepted := startServer(t)

	c, err := Dial(addr, time.Second)
	if err != nil {
		t.Fatalf("Dial 失败: %v", err)
	}
	defer c.Close()
	defer (<-accepted).Close()

	start := time.Now()
	_, err = c.Read(100 * time.Millisecond)
	if !errors.Is(err, transport.ErrTimeout) {
		t.Fatalf("无数据时 Read 返回 %v, 期望 ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond || elapsed > 500*time.Millisecond {
		t.Errorf("超时耗时 %v, 与请求的 100ms 偏差过大", elapsed)
	}
}

func TestReadPeerClose(t *testing.T) {
	addr, accepted := startServer(t)

	c, err := Dial(addr, time.Second)
	if err != nil {
		t.Fatalf("Dial 失败: %v", err)
	}
	defer c.Close()

	server := <-accepted
	server.Close()

	// 对端关闭后最终必须读到 EOF
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err = c.Read(200 * time.Millisecond)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil && !errors.Is(err, transport.ErrTimeout) {
			t.Fatalf("对端关闭后 Read 返回 %v, 期望 io.EOF", err)
		}
		if time.Now().After(deadline) {
			t.Fatal("对端关闭后未读到 EOF")
		}
	}
}

func TestReadAfterLocalClose(t *testing.T) {
	addr, accepted := startServer(t)

	c, err := Dial(addr, time.Second)
	if err != nil {
		t.Fatalf("Dial 失败: %v", err)
	}
	defer (<-accepted).Close()

	// Close 幂等
	if err := c.Close(); err != nil {
		t.Fatalf("Close 失败: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("重复 Close 失败: %v", err)
	}

	if _, err := c.Read(100 * time.Millisecond); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("本端关闭后 Read 返回 %v, 期望 ErrClosed", err)
	}
	if _, err := c.Write([]byte("x")); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("本端关闭后 Write 返回 %v, 期望 ErrClosed", err)
	}
}

func TestDialFailure(t *testing.T) {
	// 端口 1 几乎必然拒绝连接
	if _, err := Dial("127.0.0.1:1", 500*time.Millisecond); err == nil {
		t.Fatal("连接不存在的服务应当失败")
	}
}

// 关闭能打断阻塞中的 Read，这是停止流程及时返回的前提
func TestCloseUnblocksRead(t *testing.T) {
	addr, accepted := startServer(t)

	c, err := Dial(addr, time.Second)
	if err != nil {
		t.Fatalf("Dial 失败: %v", err)
	}
	defer (<-accepted).Close()

	done := make(chan error, 1)
	go func() {
		_, rerr := c.Read(5 * time.Second)
		done <- rerr
	}()

	time.Sleep(50 * time.Millisecond)
	c.Close()

	select {
	case rerr := <-done:
		if !errors.Is(rerr, transport.ErrClosed) {
			t.Errorf("Read 被打断后返回 %v, 期望 ErrClosed", rerr)
		}
	case <-time.After(time.Second):
		t.Fatal("Close 未能打断阻塞中的 Read")
	}
}
