package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/habitrack/internal/config"
	"github.com/hitoshi/habitrack/internal/database"
	"github.com/hitoshi/habitrack/internal/habit"
	"github.com/hitoshi/habitrack/internal/handler"
	"github.com/hitoshi/habitrack/internal/logger"
	"github.com/hitoshi/habitrack/internal/metrics"
	"github.com/hitoshi/habitrack/internal/middleware"
	"github.com/hitoshi/habitrack/internal/repository"
	"github.com/hitoshi/habitrack/internal/security"
	"github.com/hitoshi/habitrack/internal/worker/orphan"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再セットアップ
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		return runHealthcheck(healthcheckPort())
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("storage_driver", cfg.StorageDriver),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// openStore は設定されたストレージドライバでStoreを開く。
// 呼び出し側は使用後にStore.Closeを呼ぶこと。
func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established", slog.String("driver", cfg.StorageDriver))
		return repository.NewSQLStore(db, repository.DialectPostgres), nil

	case config.StorageDriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("database connection established",
			slog.String("driver", cfg.StorageDriver),
			slog.String("path", cfg.SQLitePath),
		)
		return repository.NewSQLStore(db, repository.DialectSQLite), nil

	case config.StorageDriverMemory:
		slog.Warn("using in-memory store; data is lost on shutdown")
		return repository.NewMemoryBackedStore(), nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}

// newRegistry はプロセス・ランタイムのコレクターを登録したレジストリを返す。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// buildRouter はStoreからサービス・ハンドラー・ミドルウェアを組み立てる。
// 返されるRateLimiterは呼び出し側でStopすること。
func buildRouter(cfg *config.Config, store *repository.Store, reg *prometheus.Registry) (http.Handler, *middleware.RateLimiter) {
	collector := metrics.NewCollector(reg)

	sanitizer := security.NewTextSanitizer()
	habitService := habit.NewService(store.Habits, store.Logs, sanitizer)
	habitAdapter := handler.NewHabitServiceAdapter(habitService, collector)

	rateLimiter := middleware.NewRateLimiter(
		middleware.PerMinuteRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitMark),
	)

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		HabitFinder:       store.Habits,
		HabitService:      habitAdapter,
		HealthChecker:     store,
		Metrics:           collector,
		Gatherer:          reg,
	}

	return handler.NewRouter(deps), rateLimiter
}

// runServe はAPIサーバーモードで起動する。
// ストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	store, err := openStore(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	router, rateLimiter := buildRouter(cfg, store, newRegistry())
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 孤立ログ監査ジョブを定期実行し、そのメトリクスを別ポートで公開する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// インメモリストアはプロセスをまたいで共有できないため、監査対象がない
	if cfg.StorageDriver == config.StorageDriverMemory {
		return errors.New("worker requires a persistent storage driver (postgres or sqlite)")
	}

	store, err := openStore(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	reg := newRegistry()
	collector := metrics.NewCollector(reg)
	job := orphan.NewAuditJob(store.Logs, collector, slog.Default(), cfg.OrphanLogPurge)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           metrics.SetupMetricsRoute(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("worker metrics server starting", slog.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker metrics server error", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("worker starting",
		slog.Duration("orphan_audit_interval", cfg.OrphanAuditInterval),
		slog.Bool("orphan_log_purge", cfg.OrphanLogPurge),
	)

	// 監査ジョブをメインgoroutineで実行（ブロッキング）
	job.Start(ctx, cfg.OrphanAuditInterval)

	slog.Info("shutting down worker...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("worker metrics server shutdown failed", slog.String("error", err.Error()))
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		slog.Info("running database migrations",
			slog.String("driver", cfg.StorageDriver),
			slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		)
		if err := database.RunMigrations(database.DriverPostgres, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

	case config.StorageDriverSQLite:
		slog.Info("running database migrations",
			slog.String("driver", cfg.StorageDriver),
			slog.String("path", cfg.SQLitePath),
		)
		if err := database.RunMigrations(database.DriverSQLite, database.SQLiteURL(cfg.SQLitePath)); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

	default:
		slog.Info("no migrations required", slog.String("driver", cfg.StorageDriver))
		return nil
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// healthcheckPort はConfigを読み込まずにサーバーのポートを決める。
func healthcheckPort() string {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		return port
	}
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "3000"
}

func closeStore(store *repository.Store) {
	if err := store.Close(); err != nil {
		slog.Warn("failed to close store", slog.String("error", err.Error()))
	}
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
