package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	redisinfra "github.com/sudomaster00081/AtomicSeats/internal/infrastructure/redis"
	"github.com/sudomaster00081/AtomicSeats/internal/pkg/logger"
	"github.com/sudomaster00081/AtomicSeats/internal/pkg/metrics"
)

// sweepLockKey は複数インスタンス構成で掃除のリーダーを1サイクル1つに絞るためのキー
const sweepLockKey = "hold-sweeper"

// sweepLockTTL はリーダーロックの保持期限。プロセスが落ちても自動で解放される
const sweepLockTTL = 30 * time.Second

// HoldSweeper は期限切れホールドを回収するインターフェース
type HoldSweeper interface {
	CleanupExpiredHolds(ctx context.Context, showID string) (int, error)
}

// ExpiredHoldSweeper は期限切れホールドを定期的に回収するワーカー
// 回収自体は再入安全なので、リーダーロックは重複実行を減らす最適化にすぎない
type ExpiredHoldSweeper struct {
	reservationService HoldSweeper
	lockManager        redisinfra.LockManagerInterface
	interval           time.Duration
	stopCh             chan struct{}
	doneCh             chan struct{}
}

// NewExpiredHoldSweeper は新しいスイーパーを作成
// lockManagerはnil可。nilの場合は各インスタンスが独立に掃除する
func NewExpiredHoldSweeper(
	rs HoldSweeper,
	lockManager redisinfra.LockManagerInterface,
	interval time.Duration,
) *ExpiredHoldSweeper {
	return &ExpiredHoldSweeper{
		reservationService: rs,
		lockManager:        lockManager,
		interval:           interval,
		stopCh:             make(chan struct{}),
		doneCh:             make(chan struct{}),
	}
}

// Start はスイーパーを開始
func (s *ExpiredHoldSweeper) Start(ctx context.Context) {
	logger.Info("期限切れホールドスイーパー開始",
		zap.Duration("interval", s.interval),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("期限切れホールドスイーパー停止（コンテキストキャンセル）")
			return
		case <-s.stopCh:
			logger.Info("期限切れホールドスイーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			s.cleanup(ctx)
		}
	}
}

// Stop はスイーパーを停止
func (s *ExpiredHoldSweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// cleanup は期限切れホールドを回収
func (s *ExpiredHoldSweeper) cleanup(ctx context.Context) {
	log := logger.Get()
	log.Debug("期限切れホールドの回収開始")

	if s.lockManager != nil {
		start := time.Now()
		lock, err := s.lockManager.AcquireLock(ctx, sweepLockKey, sweepLockTTL)
		switch {
		case err == nil:
			s.observeLock("acquire", "success", time.Since(start))
			defer func() {
				releaseStart := time.Now()
				if err := lock.Release(ctx); err != nil {
					s.observeLock("release", "failed", time.Since(releaseStart))
					log.Warn("リーダーロックの解放に失敗", zap.Error(err))
					return
				}
				s.observeLock("release", "success", time.Since(releaseStart))
			}()
		case errors.Is(err, redisinfra.ErrLockNotAcquired):
			s.observeLock("acquire", "contended", time.Since(start))
			log.Debug("他のインスタンスが掃除中のためスキップ")
			return
		default:
			// Redis障害で掃除を止めない。重複実行しても回収は冪等
			s.observeLock("acquire", "failed", time.Since(start))
			log.Warn("リーダーロックの取得に失敗、単独で続行", zap.Error(err))
		}
	}

	count, err := s.reservationService.CleanupExpiredHolds(ctx, "")
	if err != nil {
		log.Error("期限切れホールドの回収失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("期限切れホールドを回収", zap.Int("count", count))
	} else {
		log.Debug("期限切れホールドなし")
	}
}

func (s *ExpiredHoldSweeper) observeLock(operation, status string, d time.Duration) {
	if m := metrics.Get(); m != nil {
		m.DistributedLockDuration.WithLabelValues(operation, status).Observe(d.Seconds())
	}
}
