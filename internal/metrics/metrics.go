// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordAuthSuccess(method string)
	RecordAuthFailure(method string)
	RecordCounterIncrement(scope string)
	RecordUserRecordProvisioned()
	ClientConnected()
	ClientDisconnected()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus         *prometheus.CounterVec
	authSuccess        *prometheus.CounterVec
	authFailure        *prometheus.CounterVec
	counterIncrements  *prometheus.CounterVec
	recordsProvisioned prometheus.Counter
	realtimeClients    prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "countboard_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		authSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "countboard_auth_success_total",
			Help: "認証成功の合計数（方式別）",
		}, []string{"method"}),
		authFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "countboard_auth_failure_total",
			Help: "認証失敗の合計数（方式別）",
		}, []string{"method"}),
		counterIncrements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "countboard_counter_increments_total",
			Help: "カウンターインクリメントの合計数（スコープ別）",
		}, []string{"scope"}),
		recordsProvisioned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "countboard_user_records_provisioned_total",
			Help: "遅延作成されたユーザーレコードの合計数",
		}),
		realtimeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "countboard_realtime_clients",
			Help: "接続中のリアルタイムクライアント数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.authSuccess,
		c.authFailure,
		c.counterIncrements,
		c.recordsProvisioned,
		c.realtimeClients,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordAuthSuccess は認証成功を記録する。methodは"password", "google"等。
func (c *Collector) RecordAuthSuccess(method string) {
	c.authSuccess.WithLabelValues(method).Inc()
}

// RecordAuthFailure は認証失敗を記録する。
func (c *Collector) RecordAuthFailure(method string) {
	c.authFailure.WithLabelValues(method).Inc()
}

// RecordCounterIncrement はカウンターインクリメントを記録する。scopeは"user"または"global"。
func (c *Collector) RecordCounterIncrement(scope string) {
	c.counterIncrements.WithLabelValues(scope).Inc()
}

// RecordUserRecordProvisioned はユーザーレコードの遅延作成を記録する。
func (c *Collector) RecordUserRecordProvisioned() {
	c.recordsProvisioned.Inc()
}

// ClientConnected はリアルタイムクライアントの接続を記録する。
func (c *Collector) ClientConnected() {
	c.realtimeClients.Inc()
}

// ClientDisconnected はリアルタイムクライアントの切断を記録する。
func (c *Collector) ClientDisconnected() {
	c.realtimeClients.Dec()
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
