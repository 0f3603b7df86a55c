package show

import (
	"context"

	"github.com/sudomaster00081/AtomicSeats/internal/domain/transaction"
)

// Repository は公演リポジトリのインターフェース
type Repository interface {
	// Create は新しい公演を作成する（トランザクション必須）
	// 同一IDの公演が既に存在する場合は ErrShowAlreadyExists を返す
	Create(ctx context.Context, tx transaction.Tx, show *Show) error

	// GetByID はIDから公演を取得する
	GetByID(ctx context.Context, id string) (*Show, error)

	// ListIDs は全公演のIDを取得する
	ListIDs(ctx context.Context) ([]string, error)

	// Count は登録済み公演数を取得する
	Count(ctx context.Context) (int, error)
}
