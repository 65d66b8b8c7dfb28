package metrics

import (
	"sync"
	"time"
)

// rateWindow 滑动窗口长度（秒）
const rateWindow = 10

// RateMeter 速率计算器（基于滑动窗口）
//
// 使用 10 个 1 秒桶计算最近 10 秒的平均速率。
// 吞吐量测试关心的是近期速率而不是全程均值，全程均值由
// Snapshot 按时间窗口另行计算。
type RateMeter struct {
	mu       sync.RWMutex
	buckets  [rateWindow]int64
	lastIdx  int       // 最后写入的桶索引
	lastTime time.Time // 最后更新时间
}

// NewRateMeter 创建速率计算器
func NewRateMeter() *RateMeter {
	return &RateMeter{
		lastTime: time.Now(),
	}
}

// Add 添加字节数到当前桶
func (r *RateMeter) Add(bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastTime)

	// 超过 1 秒则推进到下一个桶，清空跳过的桶
	if elapsed >= time.Second {
		seconds := int(elapsed.Seconds())
		if seconds >= rateWindow {
			r.buckets = [rateWindow]int64{}
			r.lastIdx = 0
		} else {
			for i := 0; i < seconds; i++ {
				r.lastIdx = (r.lastIdx + 1) % rateWindow
				r.buckets[r.lastIdx] = 0
			}
		}
		r.lastTime = now
	}

	r.buckets[r.lastIdx] += bytes
}

// Rate 返回窗口内的平均速率（字节/秒）
func (r *RateMeter) Rate() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, v := range r.buckets {
		total += v
	}
	return float64(total) / rateWindow
}

// Reset 重置速率计算器
func (r *RateMeter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buckets = [rateWindow]int64{}
	r.lastIdx = 0
	r.lastTime = time.Now()
}
