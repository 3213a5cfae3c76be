// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordHabitCreated()
	RecordHabitMarked(completed bool)
	SetOrphanedLogs(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	habitsCreated prometheus.Counter
	habitMarks    *prometheus.CounterVec
	orphanedLogs  prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "habitrack_http_requests_total",
			Help: "ルート・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "habitrack_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		habitsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "habitrack_habits_created_total",
			Help: "作成された習慣の合計数",
		}),
		habitMarks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "habitrack_habit_marks_total",
			Help: "達成記録の書き込み数",
		}, []string{"completed"}),
		orphanedLogs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "habitrack_orphaned_logs",
			Help: "削除済みの習慣を参照している達成記録の件数（直近の監査結果）",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.habitsCreated,
		c.habitMarks,
		c.orphanedLogs,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの結果と処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordHabitCreated は習慣の作成を記録する。
func (c *Collector) RecordHabitCreated() {
	c.habitsCreated.Inc()
}

// RecordHabitMarked は達成記録の書き込みを記録する。
func (c *Collector) RecordHabitMarked(completed bool) {
	c.habitMarks.WithLabelValues(strconv.FormatBool(completed)).Inc()
}

// SetOrphanedLogs は孤立した達成記録の件数を設定する。
func (c *Collector) SetOrphanedLogs(count int64) {
	c.orphanedLogs.Set(float64(count))
}

// statusWriter はミドルウェア内でステータスコードを捕捉する。
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware はHTTPリクエストのメトリクスを記録するミドルウェアを返す。
// ラベルにはURLではなくchiのルートパターンを使い、カーディナリティを抑える。
func Middleware(c MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			c.RecordHTTPRequest(r.Method, route, sw.status, time.Since(start))
		})
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
