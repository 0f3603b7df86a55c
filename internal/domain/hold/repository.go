package hold

import (
	"context"

	"github.com/sudomaster00081/AtomicSeats/internal/domain/transaction"
)

// Repository はホールドリポジトリのインターフェース
type Repository interface {
	// Create は新しいホールドを作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, hold *Hold) error

	// GetByID はIDからホールドを取得する
	GetByID(ctx context.Context, id string) (*Hold, error)

	// GetByIDForUpdate はIDからホールドを行ロック付きで取得する（トランザクション必須）
	// 予約確定・解放・掃除が同じホールドを同時に処理しないための再検証に使う
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Hold, error)

	// UpdateStatus はホールドの状態を from から to へ遷移させる（トランザクション必須）
	// 現在の状態が from でない場合は遷移せずエラーを返す
	UpdateStatus(ctx context.Context, tx transaction.Tx, id string, from, to Status) error

	// GetExpiredActive は期限切れの active ホールドを取得する
	// showID が空文字列の場合は全公演を対象にする
	GetExpiredActive(ctx context.Context, showID string) ([]*Hold, error)

	// DeleteByShowID は公演のホールドを全件削除する（トランザクション必須）
	// 戻り値は削除件数。管理用リセット専用
	DeleteByShowID(ctx context.Context, tx transaction.Tx, showID string) (int, error)
}
