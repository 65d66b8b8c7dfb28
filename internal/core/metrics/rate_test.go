package metrics

import "testing"

func TestRateMeterAccumulate(t *testing.T) {
	r := NewRateMeter()
	r.Add(5000)
	r.Add(5000)

	// 10 秒窗口内共 10000 字节，平均 1000 字节/秒
	if got := r.Rate(); got != 1000 {
		t.Errorf("Rate = %v, 期望 1000", got)
	}
}

func TestRateMeterReset(t *testing.T) {
	r := NewRateMeter()
	r.Add(12345)
	r.Reset()

	if got := r.Rate(); got != 0 {
		t.Errorf("重置后 Rate = %v, 期望 0", got)
	}
}
