package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 指标描述符
var (
	descRxBytes = prometheus.NewDesc(
		"linktest_rx_bytes_total",
		"累计接收字节数",
		nil, nil)
	descRxPackets = prometheus.NewDesc(
		"linktest_rx_packets_total",
		"累计接收报文数",
		nil, nil)
	descTxBytes = prometheus.NewDesc(
		"linktest_tx_bytes_total",
		"累计发送字节数",
		nil, nil)
	descTxPackets = prometheus.NewDesc(
		"linktest_tx_packets_total",
		"累计发送报文数",
		nil, nil)
	descRxRate = prometheus.NewDesc(
		"linktest_rx_rate_bytes_per_second",
		"接收侧近期平均速率",
		nil, nil)
	descTxRate = prometheus.NewDesc(
		"linktest_tx_rate_bytes_per_second",
		"发送侧近期平均速率",
		nil, nil)
)

// Collector 把 Stats 暴露为 Prometheus 指标
//
// 测试运行期间挂在可选的 /metrics 端点上，长时间压测时
// 可以用 Prometheus 抓取观察速率曲线。
type Collector struct {
	stats *Stats
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector 创建指标收集器
func NewCollector(s *Stats) *Collector {
	return &Collector{stats: s}
}

// Describe 实现 prometheus.Collector 接口
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descRxBytes
	ch <- descRxPackets
	ch <- descTxBytes
	ch <- descTxPackets
	ch <- descRxRate
	ch <- descTxRate
}

// Collect 实现 prometheus.Collector 接口
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(descRxBytes,
		prometheus.CounterValue, float64(c.stats.RxBytes()))
	ch <- prometheus.MustNewConstMetric(descRxPackets,
		prometheus.CounterValue, float64(c.stats.RxPackets()))
	ch <- prometheus.MustNewConstMetric(descTxBytes,
		prometheus.CounterValue, float64(c.stats.TxBytes()))
	ch <- prometheus.MustNewConstMetric(descTxPackets,
		prometheus.CounterValue, float64(c.stats.TxPackets()))
	ch <- prometheus.MustNewConstMetric(descRxRate,
		prometheus.GaugeValue, c.stats.RxRate())
	ch <- prometheus.MustNewConstMetric(descTxRate,
		prometheus.GaugeValue, c.stats.TxRate())
}
