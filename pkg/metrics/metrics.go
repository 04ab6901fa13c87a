// Package metrics 记录一次 inventory 解析过程中的片段获取和阶段耗时指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder 基于独立 Registry 的指标记录器
type Recorder struct {
	registry      *prometheus.Registry
	fetchAttempts *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// NewRecorder 创建 Recorder 并注册全部指标
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	r := &Recorder{
		registry: registry,
		fetchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "splunk_inventory",
				Name:      "fetch_attempts_total",
				Help:      "Total number of config fragment fetch attempts",
			},
			[]string{"bucket", "scheme"},
		),
		fetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "splunk_inventory",
				Name:      "fetch_failures_total",
				Help:      "Total number of failed config fragment fetch attempts",
			},
			[]string{"bucket", "scheme"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "splunk_inventory",
				Name:      "stage_duration_seconds",
				Help:      "Duration of each resolution stage in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"stage"},
		),
	}

	registry.MustRegister(r.fetchAttempts, r.fetchFailures, r.stageDuration)
	return r
}

// ObserveFetch 记录一次获取尝试
func (r *Recorder) ObserveFetch(bucket, scheme string, err error) {
	if r == nil {
		return
	}
	if bucket == "" {
		bucket = "none"
	}
	r.fetchAttempts.WithLabelValues(bucket, scheme).Inc()
	if err != nil {
		r.fetchFailures.WithLabelValues(bucket, scheme).Inc()
	}
}

// ObserveStage 记录阶段耗时
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Time 返回一个结束计时的函数，用法 defer rec.Time("defaults")()
func (r *Recorder) Time(stage string) func() {
	start := time.Now()
	return func() {
		r.ObserveStage(stage, time.Since(start))
	}
}

// WriteTextfile 以 node-exporter textfile 格式写出全部指标
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
