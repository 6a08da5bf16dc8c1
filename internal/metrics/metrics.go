// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカー層から利用する。
type MetricsCollector interface {
	RecordJobGenerated()
	RecordNotifySuccess()
	RecordNotifyFailure()
	RecordSendLatency(duration time.Duration)
	RecordPassDuration(pass string, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	jobsGenerated prometheus.Counter
	notifySuccess prometheus.Counter
	notifyFail    prometheus.Counter
	sendLatency   prometheus.Histogram
	passDuration  *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		jobsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "greetman_jobs_generated_total",
			Help: "生成された誕生日ジョブの合計数",
		}),
		notifySuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "greetman_notify_success_total",
			Help: "誕生日通知送信成功の合計数",
		}),
		notifyFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "greetman_notify_fail_total",
			Help: "誕生日通知送信失敗の合計数",
		}),
		sendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "greetman_send_latency_seconds",
			Help:    "通知送信のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "greetman_pass_duration_seconds",
			Help:    "生成・配送パスの所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"pass"}),
	}

	reg.MustRegister(
		c.jobsGenerated,
		c.notifySuccess,
		c.notifyFail,
		c.sendLatency,
		c.passDuration,
	)

	return c
}

// RecordJobGenerated はジョブ生成を記録する。
func (c *Collector) RecordJobGenerated() {
	c.jobsGenerated.Inc()
}

// RecordNotifySuccess は通知送信成功を記録する。
func (c *Collector) RecordNotifySuccess() {
	c.notifySuccess.Inc()
}

// RecordNotifyFailure は通知送信失敗を記録する。
func (c *Collector) RecordNotifyFailure() {
	c.notifyFail.Inc()
}

// RecordSendLatency は通知送信のレイテンシを記録する。
func (c *Collector) RecordSendLatency(duration time.Duration) {
	c.sendLatency.Observe(duration.Seconds())
}

// RecordPassDuration はパスの所要時間を記録する。
func (c *Collector) RecordPassDuration(pass string, duration time.Duration) {
	c.passDuration.WithLabelValues(pass).Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
