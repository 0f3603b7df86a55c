package booking

import (
	"context"

	"github.com/sudomaster00081/AtomicSeats/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	// 同じホールドの予約が既に存在する場合は ErrBookingAlreadyExists を返す
	Create(ctx context.Context, tx transaction.Tx, booking *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// GetByHoldID は変換元ホールドIDから予約を取得する
	// 冪等な予約確定の再送応答に使う
	GetByHoldID(ctx context.Context, holdID string) (*Booking, error)

	// DeleteByShowID は公演の予約を全件削除する（トランザクション必須）
	// 戻り値は削除件数。管理用リセット専用
	DeleteByShowID(ctx context.Context, tx transaction.Tx, showID string) (int, error)
}
