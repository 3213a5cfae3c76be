package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/habitrack/internal/metrics"
	"github.com/hitoshi/habitrack/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	HabitFinder       middleware.HabitFinder

	// 習慣
	HabitService HabitServiceInterface

	// 運用
	HealthChecker HealthChecker
	Metrics       metrics.MetricsCollector
	Gatherer      prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → RateLimit(General)
//
// レート制限のクライアント識別は接続元アドレス（RemoteAddr）のみで行い、
// X-Forwarded-For等のクライアントが自由に付与できるヘッダーは参照しない。
//
// 変更系のルート（PUT/DELETE/mark）にはさらにオーナーガードを適用する。
// 達成記録にはAPI全般とは別のレート制限を適用する。
//
// GET /api/habits/{id} のidはユーザーID、それ以外のidは習慣ID。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(metrics.Middleware(deps.Metrics))
	}

	habitHandler := NewHabitHandler(deps.HabitService)
	ownerGuard := middleware.NewOwnerGuard(deps.HabitFinder, "id")

	// --- 運用ルート ---
	r.Get("/", Banner)
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 習慣API ---
	r.Route("/api/habits", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Post("/", habitHandler.CreateHabit)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", habitHandler.ListHabits)
			r.With(ownerGuard).Put("/", habitHandler.UpdateHabit)
			r.With(ownerGuard).Delete("/", habitHandler.DeleteHabit)

			mark := r.With(ownerGuard)
			if deps.RateLimiter != nil {
				mark = r.With(deps.RateLimiter.MarkMiddleware(), ownerGuard)
			}
			mark.Post("/mark", habitHandler.MarkHabit)

			r.Get("/logs", habitHandler.ListLogs)
			r.Get("/stats", habitHandler.GetStats)
		})
	})

	return r
}
