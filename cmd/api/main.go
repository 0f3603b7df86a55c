package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sudomaster00081/AtomicSeats/internal/api"
	"github.com/sudomaster00081/AtomicSeats/internal/api/handler"
	custommiddleware "github.com/sudomaster00081/AtomicSeats/internal/api/middleware"
	"github.com/sudomaster00081/AtomicSeats/internal/application"
	"github.com/sudomaster00081/AtomicSeats/internal/config"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/show"
	"github.com/sudomaster00081/AtomicSeats/internal/infrastructure/postgres"
	redisinfra "github.com/sudomaster00081/AtomicSeats/internal/infrastructure/redis"
	"github.com/sudomaster00081/AtomicSeats/internal/pkg/logger"
	"github.com/sudomaster00081/AtomicSeats/internal/pkg/metrics"
	"github.com/sudomaster00081/AtomicSeats/internal/worker"
)

const demoShowID = "avengers_2026_7pm"

func main() {
	// 設定読み込み
	cfg := config.Load()

	// ロガー初期化
	logger.Set(logger.NewLogger(os.Getenv("APP_ENV")))
	defer logger.Sync()

	// データベース接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続エラー", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	if err := postgres.RunMigrations(db.DB, cfg.App.MigrationsPath); err != nil {
		logger.Fatal("マイグレーションエラー", zap.Error(err))
	}

	// Redis接続（任意）
	// 落ちていてもキャッシュとスイーパーのリーダーロックが無効になるだけで、
	// 予約の正しさはPostgreSQLの行ロックだけで保たれる
	var (
		seatCache   redisinfra.SeatCacheInterface
		lockManager redisinfra.LockManagerInterface
	)
	redisClient, err := redisinfra.NewClient(&redisinfra.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("Redis接続に失敗。キャッシュなしで続行します", zap.Error(err))
	} else {
		defer redisClient.Close()
		seatCache = redisinfra.NewSeatCache(redisClient)
		lockManager = redisinfra.NewLockManager(redisClient)
	}

	// リポジトリ初期化
	txManager := postgres.NewTxManager(db)
	showRepo := postgres.NewShowRepository(db)
	seatRepo := postgres.NewSeatRepository(db)
	holdRepo := postgres.NewHoldRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)

	// サービス初期化
	reservationService := application.NewReservationService(
		txManager, holdRepo, bookingRepo, seatRepo, showRepo, seatCache,
	)
	showService := application.NewShowService(
		txManager, showRepo, seatRepo, holdRepo, bookingRepo, seatCache, reservationService,
	)

	// メトリクス初期化
	m := metrics.Init()

	// 期限切れホールドスイーパー起動
	sweeper := worker.NewExpiredHoldSweeper(reservationService, lockManager, cfg.Sweeper.Interval)
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	defer sweeperCancel()
	go sweeper.Start(sweeperCtx)

	// Echo インスタンス作成
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Validator = api.NewValidator()
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	// ミドルウェア設定
	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	// ルーティング
	showHandler := handler.NewShowHandler(showService)
	holdHandler := handler.NewHoldHandler(reservationService)
	healthHandler := handler.NewHealthHandler(db, showService)
	handler.RegisterRoutes(e, showHandler, holdHandler, healthHandler)

	// Prometheusメトリクス（METRICS_USER/METRICS_PASSWORD設定時はBasic認証）
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommiddleware.MetricsBasicAuth())

	// デモ公演の投入（SEED_DEMO_SHOW=true のとき）
	if cfg.App.SeedDemoShow {
		seedDemoShow(showService)
	}

	// サーバー起動
	go func() {
		if err := e.Start(fmt.Sprintf(":%s", cfg.Server.Port)); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}

// seedDemoShow はデモ用の公演（A1〜E10の50席）を投入する
// 既に存在する場合は何もしない
func seedDemoShow(shows *application.ShowService) {
	seatIDs := make([]string, 0, 50)
	for _, row := range []string{"A", "B", "C", "D", "E"} {
		for n := 1; n <= 10; n++ {
			seatIDs = append(seatIDs, fmt.Sprintf("%s%d", row, n))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := shows.InitializeShow(ctx, application.InitializeShowInput{
		ShowID:  demoShowID,
		SeatIDs: seatIDs,
	})
	switch {
	case err == nil:
		logger.Info("デモ公演を投入しました",
			zap.String("show_id", demoShowID),
			zap.Int("seats", len(seatIDs)),
		)
	case errors.Is(err, show.ErrShowAlreadyExists):
		logger.Debug("デモ公演は既に存在します", zap.String("show_id", demoShowID))
	default:
		logger.Warn("デモ公演の投入に失敗しました", zap.Error(err))
	}
}
