package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sudomaster00081/AtomicSeats/internal/domain/booking"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/hold"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/seat"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/show"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/transaction"
	redisinfra "github.com/sudomaster00081/AtomicSeats/internal/infrastructure/redis"
	"github.com/sudomaster00081/AtomicSeats/internal/pkg/logger"
	"github.com/sudomaster00081/AtomicSeats/internal/pkg/metrics"
)

// ReservationService はホールドと予約確定のユースケースを実装する
// 排他制御はすべてPostgreSQLの行ロック（lockAndTransition）に委ねており、
// プロセス内ミューテックスは持たない。複数インスタンスでもそのまま動く
type ReservationService struct {
	txManager   transaction.Manager
	holdRepo    hold.Repository
	bookingRepo booking.Repository
	seatRepo    seat.Repository
	showRepo    show.Repository
	seatCache   redisinfra.SeatCacheInterface
}

// NewReservationService は新しいReservationServiceを作成する
func NewReservationService(
	txManager transaction.Manager,
	holdRepo hold.Repository,
	bookingRepo booking.Repository,
	seatRepo seat.Repository,
	showRepo show.Repository,
	seatCache redisinfra.SeatCacheInterface,
) *ReservationService {
	return &ReservationService{
		txManager:   txManager,
		holdRepo:    holdRepo,
		bookingRepo: bookingRepo,
		seatRepo:    seatRepo,
		showRepo:    showRepo,
		seatCache:   seatCache,
	}
}

// HoldSeatsInput は座席ホールドの入力
type HoldSeatsInput struct {
	ShowID          string
	SeatIDs         []string
	DurationSeconds int
}

// HoldSeats は指定座席をまとめてホールドする
// 全席がavailableのときだけ成立し、1席でも競合すれば何も変更しない
func (s *ReservationService) HoldSeats(ctx context.Context, input HoldSeatsInput) (*hold.Hold, error) {
	h := hold.NewHold(input.ShowID, input.SeatIDs, input.DurationSeconds)
	if err := h.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.showRepo.GetByID(ctx, input.ShowID); err != nil {
		return nil, err
	}

	// 期限切れホールドを先に回収しておく（ベストエフォート）
	s.sweepShow(ctx, input.ShowID)

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	ownerRef := h.ID
	if err := s.seatRepo.LockAndTransition(ctx, tx, h.ShowID, h.SeatIDs,
		[]seat.Status{seat.StatusAvailable}, seat.StatusHeld, &ownerRef); err != nil {
		if errors.Is(err, seat.ErrSeatsUnavailable) {
			s.countHold("conflict")
		}
		return nil, err
	}

	if err := s.holdRepo.Create(ctx, tx, h); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateCache(ctx, h.ShowID)
	s.countHold("success")
	logger.Info("座席をホールドしました",
		zap.String("hold_id", h.ID),
		zap.String("show_id", h.ShowID),
		zap.Strings("seat_ids", h.SeatIDs),
		zap.Int("duration_seconds", h.DurationSeconds),
	)
	return h, nil
}

// BookHold はホールドを予約に確定する
// 同じhold_idに対する再実行は既存の予約をそのまま返す（冪等）
func (s *ReservationService) BookHold(ctx context.Context, holdID string) (*booking.Booking, error) {
	h, err := s.holdRepo.GetByID(ctx, holdID)
	if err != nil {
		return nil, err
	}

	s.sweepShow(ctx, h.ShowID)

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// 行ロックを取ってから状態を読み直す。ここから先が判定の正本
	h, err = s.holdRepo.GetByIDForUpdate(ctx, tx, holdID)
	if err != nil {
		return nil, err
	}

	switch h.Status {
	case hold.StatusConsumed:
		b, err := s.bookingRepo.GetByHoldID(ctx, holdID)
		if err != nil {
			return nil, fmt.Errorf("確定済み予約の取得に失敗: %w", err)
		}
		s.countBooking("idempotent")
		logger.Info("予約確定の再実行を検出しました",
			zap.String("hold_id", holdID),
			zap.String("booking_id", b.ID),
		)
		return b, nil
	case hold.StatusReleased:
		s.countBooking("released")
		return nil, hold.ErrHoldReleased
	case hold.StatusExpired:
		s.countBooking("expired")
		return nil, hold.ErrHoldExpired
	}

	if h.IsExpired() {
		// 期限切れの遅延判定。座席を解放してから期限切れとして扱う
		if err := s.expireHoldLocked(ctx, tx, h); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("コミットに失敗: %w", err)
		}
		s.invalidateCache(ctx, h.ShowID)
		s.countBooking("expired")
		logger.Info("期限切れホールドへの予約確定を拒否しました",
			zap.String("hold_id", h.ID),
			zap.String("show_id", h.ShowID),
		)
		return nil, hold.ErrHoldExpired
	}

	b := booking.NewBooking(h.ShowID, h.ID, h.SeatIDs)
	ownerRef := b.ID
	if err := s.seatRepo.LockAndTransition(ctx, tx, h.ShowID, h.SeatIDs,
		[]seat.Status{seat.StatusHeld}, seat.StatusBooked, &ownerRef); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := s.holdRepo.UpdateStatus(ctx, tx, h.ID, hold.StatusActive, hold.StatusConsumed); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateCache(ctx, h.ShowID)
	s.countBooking("success")
	logger.Info("予約を確定しました",
		zap.String("booking_id", b.ID),
		zap.String("hold_id", h.ID),
		zap.String("show_id", h.ShowID),
		zap.Strings("seat_ids", b.SeatIDs),
	)
	return b, nil
}

// ReleaseHold はホールドを解放して座席をavailableに戻す
// 既に非activeのホールドに対しては何もせず成功を返す（冪等）
func (s *ReservationService) ReleaseHold(ctx context.Context, holdID string) (*hold.Hold, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	h, err := s.holdRepo.GetByIDForUpdate(ctx, tx, holdID)
	if err != nil {
		return nil, err
	}

	if !h.IsActive() {
		return h, nil
	}

	if err := s.seatRepo.LockAndTransition(ctx, tx, h.ShowID, h.SeatIDs,
		[]seat.Status{seat.StatusHeld}, seat.StatusAvailable, nil); err != nil {
		return nil, err
	}
	if err := s.holdRepo.UpdateStatus(ctx, tx, h.ID, hold.StatusActive, hold.StatusReleased); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	h.Status = hold.StatusReleased
	s.invalidateCache(ctx, h.ShowID)
	logger.Info("ホールドを解放しました",
		zap.String("hold_id", h.ID),
		zap.String("show_id", h.ShowID),
		zap.Strings("seat_ids", h.SeatIDs),
	)
	return h, nil
}

// CleanupExpiredHolds は期限切れホールドを回収して座席をavailableに戻す
// showIDが空文字列なら全公演が対象。1件ずつ独立したトランザクションで処理し、
// 途中の失敗が他のホールドの回収を妨げないようにする
func (s *ReservationService) CleanupExpiredHolds(ctx context.Context, showID string) (int, error) {
	expired, err := s.holdRepo.GetExpiredActive(ctx, showID)
	if err != nil {
		return 0, fmt.Errorf("期限切れホールドの取得に失敗: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	cleaned := 0
	touched := make(map[string]struct{})
	for _, h := range expired {
		swept, err := s.expireHold(ctx, h.ID)
		if err != nil {
			logger.Warn("期限切れホールドの回収をスキップしました",
				zap.String("hold_id", h.ID),
				zap.String("show_id", h.ShowID),
				zap.Error(err),
			)
			continue
		}
		if swept {
			cleaned++
			touched[h.ShowID] = struct{}{}
		}
	}

	for id := range touched {
		s.invalidateCache(ctx, id)
	}
	if cleaned > 0 {
		if m := metrics.Get(); m != nil {
			m.SweptHoldsTotal.Add(float64(cleaned))
		}
		logger.Info("期限切れホールドを回収しました",
			zap.Int("count", cleaned),
			zap.String("show_id", showID),
		)
	}
	return cleaned, nil
}

// expireHold は1件のホールドを独立したトランザクションで期限切れにする
// 選択からロック取得までの間に確定・解放・再回収されたホールドは
// 再検証で検出し、無害にスキップする（swept=false）
func (s *ReservationService) expireHold(ctx context.Context, holdID string) (bool, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	h, err := s.holdRepo.GetByIDForUpdate(ctx, tx, holdID)
	if err != nil {
		if errors.Is(err, hold.ErrHoldNotFound) {
			// リセットで消えた場合など
			return false, nil
		}
		return false, err
	}
	if !h.IsActive() || !h.IsExpired() {
		return false, nil
	}

	if err := s.expireHoldLocked(ctx, tx, h); err != nil {
		if errors.Is(err, seat.ErrSeatsUnavailable) {
			return false, nil
		}
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("コミットに失敗: %w", err)
	}
	return true, nil
}

// expireHoldLocked は行ロック済みのactiveホールドを期限切れにし、座席を解放する
func (s *ReservationService) expireHoldLocked(ctx context.Context, tx transaction.Tx, h *hold.Hold) error {
	if err := s.seatRepo.LockAndTransition(ctx, tx, h.ShowID, h.SeatIDs,
		[]seat.Status{seat.StatusHeld}, seat.StatusAvailable, nil); err != nil {
		return err
	}
	return s.holdRepo.UpdateStatus(ctx, tx, h.ID, hold.StatusActive, hold.StatusExpired)
}

// sweepShow はリクエスト処理前の日和見的な期限切れ回収
// 失敗しても本処理は止めない
func (s *ReservationService) sweepShow(ctx context.Context, showID string) {
	if _, err := s.CleanupExpiredHolds(ctx, showID); err != nil {
		logger.Warn("期限切れホールドの事前回収に失敗しました",
			zap.String("show_id", showID),
			zap.Error(err),
		)
	}
}

func (s *ReservationService) invalidateCache(ctx context.Context, showID string) {
	if s.seatCache == nil {
		return
	}
	if err := s.seatCache.Invalidate(ctx, showID); err != nil {
		logger.Warn("キャッシュ無効化エラー",
			zap.String("show_id", showID),
			zap.Error(err),
		)
	}
}

func (s *ReservationService) countHold(status string) {
	if m := metrics.Get(); m != nil {
		m.HoldsTotal.WithLabelValues(status).Inc()
	}
}

func (s *ReservationService) countBooking(status string) {
	if m := metrics.Get(); m != nil {
		m.BookingsTotal.WithLabelValues(status).Inc()
	}
}
