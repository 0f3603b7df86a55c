package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sudomaster00081/AtomicSeats/internal/domain/hold"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/transaction"
)

type holdRow struct {
	ID              string         `db:"id"`
	ShowID          string         `db:"show_id"`
	SeatIDs         pq.StringArray `db:"seat_ids"`
	Status          string         `db:"status"`
	DurationSeconds int            `db:"duration_seconds"`
	CreatedAt       time.Time      `db:"created_at"`
	ExpiresAt       time.Time      `db:"expires_at"`
}

func (r *holdRow) toEntity() *hold.Hold {
	return &hold.Hold{
		ID: r.ID, ShowID: r.ShowID, SeatIDs: []string(r.SeatIDs),
		Status: hold.Status(r.Status), DurationSeconds: r.DurationSeconds,
		CreatedAt: r.CreatedAt, ExpiresAt: r.ExpiresAt,
	}
}

const holdColumns = `id, show_id, seat_ids, status, duration_seconds, created_at, expires_at`

type HoldRepository struct{ db *sqlx.DB }

func NewHoldRepository(db *sqlx.DB) *HoldRepository { return &HoldRepository{db: db} }

func (r *HoldRepository) Create(ctx context.Context, tx transaction.Tx, h *hold.Hold) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errInvalidTx
	}

	query := `INSERT INTO holds (` + holdColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := sqlxTx.ExecContext(ctx, query,
		h.ID, h.ShowID, pq.Array(h.SeatIDs), string(h.Status), h.DurationSeconds, h.CreatedAt, h.ExpiresAt,
	); err != nil {
		return fmt.Errorf("ホールド作成に失敗: %w", err)
	}
	return nil
}

func (r *HoldRepository) GetByID(ctx context.Context, id string) (*hold.Hold, error) {
	var row holdRow
	query := `SELECT ` + holdColumns + ` FROM holds WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hold.ErrHoldNotFound
		}
		return nil, fmt.Errorf("ホールド取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDForUpdate はホールドを行ロック付きで取得する
// 予約確定・解放・掃除が同じホールドを同時に処理したとき、
// 後続は先行の遷移後の状態を観測する
func (r *HoldRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*hold.Hold, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, errInvalidTx
	}

	var row holdRow
	query := `SELECT ` + holdColumns + ` FROM holds WHERE id = $1 FOR UPDATE`
	if err := sqlxTx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, hold.ErrHoldNotFound
		}
		return nil, fmt.Errorf("ホールド取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// UpdateStatus は状態を from から to へ遷移させる
// 現在の状態が from でなければ何も更新せずエラーを返す
func (r *HoldRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, id string, from, to hold.Status) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errInvalidTx
	}

	result, err := sqlxTx.ExecContext(ctx,
		`UPDATE holds SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("ホールド状態更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("ホールド状態の遷移に失敗しました (id=%s, %s → %s)", id, from, to)
	}
	return nil
}

func (r *HoldRepository) GetExpiredActive(ctx context.Context, showID string) ([]*hold.Hold, error) {
	query := `SELECT ` + holdColumns + ` FROM holds WHERE status = 'active' AND expires_at <= NOW()`
	args := []interface{}{}
	if showID != "" {
		query += ` AND show_id = $1`
		args = append(args, showID)
	}
	query += ` ORDER BY expires_at`

	var rows []holdRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("期限切れホールド取得に失敗: %w", err)
	}
	holds := make([]*hold.Hold, len(rows))
	for i, row := range rows {
		holds[i] = row.toEntity()
	}
	return holds, nil
}

func (r *HoldRepository) DeleteByShowID(ctx context.Context, tx transaction.Tx, showID string) (int, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return 0, errInvalidTx
	}

	result, err := sqlxTx.ExecContext(ctx, `DELETE FROM holds WHERE show_id = $1`, showID)
	if err != nil {
		return 0, fmt.Errorf("ホールド削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

var _ hold.Repository = (*HoldRepository)(nil)
