package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sudomaster00081/AtomicSeats/internal/domain/booking"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/hold"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/seat"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/show"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/transaction"
	redisinfra "github.com/sudomaster00081/AtomicSeats/internal/infrastructure/redis"
	"github.com/sudomaster00081/AtomicSeats/internal/pkg/logger"
)

// 空席数キャッシュのTTL。座席遷移時のInvalidateが正で、TTLは取りこぼしの保険
const seatCacheTTL = 30 * time.Second

// ExpiredHoldCleaner は期限切れホールドの回収処理
// ReservationServiceが実装し、参照系リクエストの事前掃除に使う
type ExpiredHoldCleaner interface {
	CleanupExpiredHolds(ctx context.Context, showID string) (int, error)
}

// ShowService は公演と座席台帳のユースケースを実装する
type ShowService struct {
	txManager   transaction.Manager
	showRepo    show.Repository
	seatRepo    seat.Repository
	holdRepo    hold.Repository
	bookingRepo booking.Repository
	seatCache   redisinfra.SeatCacheInterface
	cleaner     ExpiredHoldCleaner
}

// NewShowService は新しいShowServiceを作成する
func NewShowService(
	txManager transaction.Manager,
	showRepo show.Repository,
	seatRepo seat.Repository,
	holdRepo hold.Repository,
	bookingRepo booking.Repository,
	seatCache redisinfra.SeatCacheInterface,
	cleaner ExpiredHoldCleaner,
) *ShowService {
	return &ShowService{
		txManager:   txManager,
		showRepo:    showRepo,
		seatRepo:    seatRepo,
		holdRepo:    holdRepo,
		bookingRepo: bookingRepo,
		seatCache:   seatCache,
		cleaner:     cleaner,
	}
}

// InitializeShowInput は公演初期化の入力
type InitializeShowInput struct {
	ShowID  string
	SeatIDs []string
}

// InitializeShow は公演と全座席をavailableで作成する
// 同じshow_idでの再実行はErrShowAlreadyExistsで拒否する（黙ってマージしない）
func (s *ShowService) InitializeShow(ctx context.Context, input InitializeShowInput) (*show.Show, error) {
	if input.ShowID == "" {
		return nil, show.ErrShowIDRequired
	}
	if len(input.SeatIDs) == 0 {
		return nil, show.ErrSeatIDsRequired
	}
	seen := make(map[string]struct{}, len(input.SeatIDs))
	for _, seatID := range input.SeatIDs {
		if _, ok := seen[seatID]; ok {
			return nil, show.ErrDuplicateSeatIDs
		}
		seen[seatID] = struct{}{}
	}

	sh := show.NewShow(input.ShowID, len(input.SeatIDs))
	if err := sh.Validate(); err != nil {
		return nil, err
	}

	seats := make([]*seat.Seat, 0, len(input.SeatIDs))
	for _, seatID := range input.SeatIDs {
		seats = append(seats, seat.NewSeat(input.ShowID, seatID))
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.showRepo.Create(ctx, tx, sh); err != nil {
		return nil, err
	}
	if err := s.seatRepo.CreateBulk(ctx, tx, seats); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	logger.Info("公演を初期化しました",
		zap.String("show_id", sh.ID),
		zap.Int("total_seats", sh.TotalSeats),
	)
	return sh, nil
}

// SeatStatus は公演の座席一覧と集計のスナップショット
type SeatStatus struct {
	Show  *show.Show
	Seats []*seat.Seat
	Tally seat.Tally
}

// GetSeatStatus は公演の全座席状態を単一スナップショットで返す
// 事前に期限切れホールドを回収するので、返る状態に期限切れのheldは残らない
func (s *ShowService) GetSeatStatus(ctx context.Context, showID string) (*SeatStatus, error) {
	sh, err := s.showRepo.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}

	s.sweep(ctx, showID)

	seats, err := s.seatRepo.GetByShowID(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("座席一覧の取得に失敗: %w", err)
	}

	return &SeatStatus{
		Show:  sh,
		Seats: seats,
		Tally: seat.TallySeats(seats),
	}, nil
}

// CountAvailableSeats は公演の空席数を返す（キャッシュ優先）
func (s *ShowService) CountAvailableSeats(ctx context.Context, showID string) (int, error) {
	if s.seatCache != nil {
		count, err := s.seatCache.GetAvailableCount(ctx, showID)
		if err == nil {
			logger.Debug("空席数キャッシュヒット",
				zap.String("show_id", showID),
				zap.Int("count", count),
			)
			return count, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	count, err := s.seatRepo.CountAvailableByShowID(ctx, showID)
	if err != nil {
		return 0, fmt.Errorf("空席数の取得に失敗: %w", err)
	}

	if s.seatCache != nil {
		if err := s.seatCache.SetAvailableCount(ctx, showID, count, seatCacheTTL); err != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(err))
		}
	}
	return count, nil
}

// CountShows は登録済み公演数を返す
func (s *ShowService) CountShows(ctx context.Context) (int, error) {
	return s.showRepo.Count(ctx)
}

// ResetResult はリセットで消えたレコード数の内訳
type ResetResult struct {
	ShowsReset      int
	SeatsReset      int
	HoldsCleared    int
	BookingsCleared int
}

// ResetShow は1公演の全座席をavailableに戻し、ホールドと予約を破棄する
func (s *ShowService) ResetShow(ctx context.Context, showID string) (*ResetResult, error) {
	if _, err := s.showRepo.GetByID(ctx, showID); err != nil {
		return nil, err
	}

	result := &ResetResult{}
	if err := s.resetOne(ctx, showID, result); err != nil {
		return nil, err
	}
	result.ShowsReset = 1
	return result, nil
}

// ResetAll は全公演をリセットする
// 公演ごとに独立したトランザクションで処理する（公演単位でアトミック）
func (s *ShowService) ResetAll(ctx context.Context) (*ResetResult, error) {
	ids, err := s.showRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("公演一覧の取得に失敗: %w", err)
	}

	result := &ResetResult{}
	for _, id := range ids {
		if err := s.resetOne(ctx, id, result); err != nil {
			return nil, fmt.Errorf("公演 %s のリセットに失敗: %w", id, err)
		}
		result.ShowsReset++
	}
	return result, nil
}

// resetOne は1公演を1トランザクションでリセットする
// 先に全座席の行ロックを取り、進行中のホールド・予約確定と直列化する
func (s *ShowService) resetOne(ctx context.Context, showID string, result *ResetResult) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	seatsReset, err := s.seatRepo.ResetByShowID(ctx, tx, showID)
	if err != nil {
		return err
	}
	holdsCleared, err := s.holdRepo.DeleteByShowID(ctx, tx, showID)
	if err != nil {
		return err
	}
	bookingsCleared, err := s.bookingRepo.DeleteByShowID(ctx, tx, showID)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}

	result.SeatsReset += seatsReset
	result.HoldsCleared += holdsCleared
	result.BookingsCleared += bookingsCleared
	s.invalidateCache(ctx, showID)
	logger.Info("公演をリセットしました",
		zap.String("show_id", showID),
		zap.Int("seats_reset", seatsReset),
		zap.Int("holds_cleared", holdsCleared),
		zap.Int("bookings_cleared", bookingsCleared),
	)
	return nil
}

func (s *ShowService) sweep(ctx context.Context, showID string) {
	if s.cleaner == nil {
		return
	}
	if _, err := s.cleaner.CleanupExpiredHolds(ctx, showID); err != nil {
		logger.Warn("期限切れホールドの事前回収に失敗しました",
			zap.String("show_id", showID),
			zap.Error(err),
		)
	}
}

func (s *ShowService) invalidateCache(ctx context.Context, showID string) {
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

var _ ExpiredHoldCleaner = (*ReservationService)(nil)
