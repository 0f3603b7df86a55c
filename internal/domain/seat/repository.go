package seat

import (
	"context"

	"github.com/sudomaster00081/AtomicSeats/internal/domain/transaction"
)

// Repository は座席リポジトリのインターフェース
type Repository interface {
	// CreateBulk は複数の座席を一括作成する（トランザクション必須）
	CreateBulk(ctx context.Context, tx transaction.Tx, seats []*Seat) error

	// GetByShowID は公演の全座席を取得する
	// held の座席には所有ホールドの期限（HoldExpiresAt）が設定される。
	// 単一クエリで読み取るため、結果は一貫したスナップショットになる
	GetByShowID(ctx context.Context, showID string) ([]*Seat, error)

	// CountAvailableByShowID は公演の確保可能な座席数を取得する
	CountAvailableByShowID(ctx context.Context, showID string) (int, error)

	// LockAndTransition は座席状態遷移の中核プリミティブ（トランザクション必須）
	// 対象座席を seat_id 昇順で行ロックし、全座席が expected のいずれかの
	// 状態であることを検証したうえで一括で next に遷移させる。
	// 対象に存在しない座席IDが含まれる場合は ErrUnknownSeatID、
	// 期待状態にない座席がある場合は *UnavailableError を返し、
	// どちらの場合も一切の遷移は行われない
	LockAndTransition(ctx context.Context, tx transaction.Tx, showID string, seatIDs []string, expected []Status, next Status, ownerRef *string) error

	// ResetByShowID は公演の全座席を行ロックしたうえで available に戻す（トランザクション必須）
	// 戻り値はリセットされた座席数
	ResetByShowID(ctx context.Context, tx transaction.Tx, showID string) (int, error)
}
