package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sudomaster00081/AtomicSeats/internal/domain/show"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/transaction"
)

// showRow はDBの行を表す構造体
type showRow struct {
	ID         string    `db:"id"`
	TotalSeats int       `db:"total_seats"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *showRow) toEntity() *show.Show {
	return &show.Show{
		ID:         r.ID,
		TotalSeats: r.TotalSeats,
		CreatedAt:  r.CreatedAt,
	}
}

// ShowRepository は公演リポジトリのPostgreSQL実装
type ShowRepository struct {
	db *sqlx.DB
}

// NewShowRepository はShowRepositoryを作成する
func NewShowRepository(db *sqlx.DB) *ShowRepository {
	return &ShowRepository{db: db}
}

// Create は新しい公演を作成する
// IDの一意制約違反は ErrShowAlreadyExists にマッピングする
func (r *ShowRepository) Create(ctx context.Context, tx transaction.Tx, s *show.Show) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errInvalidTx
	}

	query := `INSERT INTO shows (id, total_seats, created_at) VALUES ($1, $2, $3)`
	if _, err := sqlxTx.ExecContext(ctx, query, s.ID, s.TotalSeats, s.CreatedAt); err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return show.ErrShowAlreadyExists
		}
		return fmt.Errorf("公演作成に失敗: %w", err)
	}
	return nil
}

// GetByID はIDから公演を取得する
func (r *ShowRepository) GetByID(ctx context.Context, id string) (*show.Show, error) {
	var row showRow
	query := `SELECT id, total_seats, created_at FROM shows WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, show.ErrShowNotFound
		}
		return nil, fmt.Errorf("公演取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// ListIDs は全公演のIDを取得する
func (r *ShowRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM shows ORDER BY id`); err != nil {
		return nil, fmt.Errorf("公演一覧取得に失敗: %w", err)
	}
	return ids, nil
}

// Count は登録済み公演数を取得する
func (r *ShowRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM shows`)
	return count, err
}

// インターフェースを満たしているか確認
var _ show.Repository = (*ShowRepository)(nil)
