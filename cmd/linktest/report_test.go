package main

import (
	"strings"
	"testing"
	"time"

	"github.com/eehut/linktest/internal/core/metrics"
)

func TestGroupDigits(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-987654, "-987,654"},
	}
	for _, tt := range tests {
		if got := groupDigits(tt.in); got != tt.want {
			t.Errorf("groupDigits(%d) = %q, 期望 %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintReport(t *testing.T) {
	base := time.Unix(20000, 0)
	snap := metrics.Snapshot{
		RxBytes:        1234567,
		RxPackets:      1000,
		RxCRC32:        0xDEADBEEF,
		TxBytes:        4000,
		TxPackets:      40,
		TxCRC32:        0x12345678,
		ConnectTime:    base,
		DisconnectTime: base.Add(10 * time.Second),
		SendStartTime:  base.Add(5 * time.Second),
		SendEndTime:    base.Add(9 * time.Second),
	}

	var b strings.Builder
	printReport(&b, snap)
	out := b.String()

	for _, want := range []string{
		"1,234,567",
		"0xDEADBEEF",
		"0x12345678",
		"接收统计",
		"发送统计",
		"总连接时长: 10.00 秒",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("报告缺少 %q:\n%s", want, out)
		}
	}
}

func TestPrintReportEmpty(t *testing.T) {
	var b strings.Builder
	printReport(&b, metrics.Snapshot{})
	if !strings.Contains(b.String(), "没有数据传输") {
		t.Error("空快照的报告应提示没有数据传输")
	}
}
