package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/eehut/linktest/internal/core/metrics"
)

// printReport 输出测试统计报告
//
// 没有数据的方向整段省略，速率只在对应时间窗口有效时输出。
func printReport(w io.Writer, snap metrics.Snapshot) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w, "测试统计信息")
	fmt.Fprintln(w, strings.Repeat("=", 50))

	if snap.RxBytes > 0 {
		fmt.Fprintln(w, "接收统计:")
		fmt.Fprintf(w, "  总接收字节数: %s 字节\n", groupDigits(snap.RxBytes))
		fmt.Fprintf(w, "  总接收报文数: %s\n", groupDigits(snap.RxPackets))
		fmt.Fprintf(w, "  接收数据 CRC32: 0x%08X\n", snap.RxCRC32)
		if snap.ConnDuration() > 0 {
			fmt.Fprintf(w, "  平均接收速率: %.2f kbps\n", snap.RxRateKbps())
		}
	}

	if snap.TxBytes > 0 {
		fmt.Fprintln(w, "发送统计:")
		fmt.Fprintf(w, "  总发送字节数: %s 字节\n", groupDigits(snap.TxBytes))
		fmt.Fprintf(w, "  总发送报文数: %s\n", groupDigits(snap.TxPackets))
		fmt.Fprintf(w, "  发送数据 CRC32: 0x%08X\n", snap.TxCRC32)
		if snap.SendDuration() > 0 {
			fmt.Fprintf(w, "  发送时长: %.2f 秒\n", snap.SendDuration().Seconds())
			fmt.Fprintf(w, "  平均发送速率: %.2f kbps\n", snap.TxRateKbps())
		}
	}

	if snap.RxBytes == 0 && snap.TxBytes == 0 {
		fmt.Fprintln(w, "没有数据传输")
	}

	if d := snap.ConnDuration(); d > 0 {
		fmt.Fprintf(w, "总连接时长: %.2f 秒\n", d.Seconds())
	}
	fmt.Fprintln(w, strings.Repeat("=", 50))
}

// groupDigits 将整数格式化为千位分组形式，如 1234567 -> "1,234,567"
func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
