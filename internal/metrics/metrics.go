// Package metrics 集中注册 Prometheus 指标，缓存与上游客户端只依赖这里导出的向量。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "release_hub"

var (
	// CacheLookups 按缓存实例统计命中/未命中次数。
	CacheLookups = MustRegisterCounterVec(namespace, "cache", "lookups_total",
		"Number of cache lookups partitioned by result.", "cache", "result")

	// CacheFills 统计回源填充结果（stored/failed）。
	CacheFills = MustRegisterCounterVec(namespace, "cache", "fills_total",
		"Number of cache fill computations partitioned by outcome.", "cache", "outcome")

	// UpstreamRequests 统计对上游 API 与资产下载的调用。
	UpstreamRequests = MustRegisterCounterVec(namespace, "upstream", "requests_total",
		"Number of upstream requests partitioned by operation and outcome.", "operation", "outcome")

	// UpstreamDuration 记录上游请求耗时。
	UpstreamDuration = MustRegisterHistogramVec(namespace, "upstream", "request_duration_seconds",
		"Latency of upstream requests.", prometheus.DefBuckets, "operation")
)

// MustRegisterCounterVec creates and registers a counter vector.
// Must be called from `init`.
func MustRegisterCounterVec(namespace, component, name, help string, labelNames ...string) *prometheus.CounterVec {
	m := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: component,
		Name:      name,
		Help:      help,
	}, labelNames)
	prometheus.MustRegister(m)
	return m
}

// MustRegisterHistogramVec creates and registers a histogram vector.
// Must be called from `init`.
func MustRegisterHistogramVec(namespace, component, name, help string, buckets []float64, labelNames ...string) *prometheus.HistogramVec {
	m := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: component,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labelNames)
	prometheus.MustRegister(m)
	return m
}
