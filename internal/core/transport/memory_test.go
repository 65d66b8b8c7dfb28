package transport

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

func TestPipeReadWrite(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	n, err := a.Write(payload)
	if err != nil || n != len(payload) {
		t.Fatalf("Write = (%d, %v), 期望 (%d, nil)", n, err, len(payload))
	}

	data, err := b.Read(time.Second)
	if err != nil {
		t.Fatalf("Read 失败: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("读到 %v, 期望 %v", data, payload)
	}
}

func TestPipeReadTimeout(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	if _, err := b.Read(20 * time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("无数据时 Read 返回 %v, 期望 ErrTimeout", err)
	}
}

// 对端关闭后，缓冲中的在途数据必须先于 EOF 交付
func TestPipeDrainBeforeEOF(t *testing.T) {
	a, b := Pipe()
	defer b.Close()

	a.Write([]byte("first"))
	a.Write([]byte("second"))
	a.Close()

	for _, want := range []string{"first", "second"} {
		data, err := b.Read(time.Second)
		if err != nil {
			t.Fatalf("读取在途数据失败: %v", err)
		}
		if string(data) != want {
			t.Errorf("读到 %q, 期望 %q", data, want)
		}
	}

	if _, err := b.Read(time.Second); !errors.Is(err, io.EOF) {
		t.Errorf("数据读完后 Read 返回 %v, 期望 io.EOF", err)
	}
}

func TestPipeLocalClose(t *testing.T) {
	a, b := Pipe()
	defer b.Close()

	if err := a.Close(); err != nil {
		t.Fatalf("Close 失败: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("重复 Close 失败: %v", err)
	}

	if _, err := a.Read(50 * time.Millisecond); !errors.Is(err, ErrClosed) {
		t.Errorf("本端关闭后 Read 返回 %v, 期望 ErrClosed", err)
	}
	if _, err := a.Write([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("本端关闭后 Write 返回 %v, 期望 ErrClosed", err)
	}
	if _, err := b.Write([]byte("x")); !errors.Is(err, io.EOF) {
		t.Errorf("向已关闭对端 Write 返回 %v, 期望 io.EOF", err)
	}
}

// Write 交付的切片独立于调用方缓冲区，事后修改不影响已读数据
func TestPipeWriteCopies(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	buf := []byte("original")
	a.Write(buf)
	copy(buf, "mutated!")

	data, err := b.Read(time.Second)
	if err != nil {
		t.Fatalf("Read 失败: %v", err)
	}
	if string(data) != "original" {
		t.Errorf("读到 %q, 期望 %q", data, "original")
	}
}

func TestPipeWriteDelay(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	a.SetWriteDelay(50 * time.Millisecond)
	start := time.Now()
	a.Write([]byte("slow"))
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("写入耗时 %v, 期望至少 50ms", elapsed)
	}
}
