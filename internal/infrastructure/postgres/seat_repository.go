package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sudomaster00081/AtomicSeats/internal/domain/seat"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/transaction"
)

type seatRow struct {
	ShowID        string     `db:"show_id"`
	SeatID        string     `db:"seat_id"`
	Status        string     `db:"status"`
	OwnerRef      *string    `db:"owner_ref"`
	HoldExpiresAt *time.Time `db:"hold_expires_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r *seatRow) toEntity() *seat.Seat {
	return &seat.Seat{
		ShowID: r.ShowID, SeatID: r.SeatID,
		Status: seat.Status(r.Status), OwnerRef: r.OwnerRef,
		HoldExpiresAt: r.HoldExpiresAt, UpdatedAt: r.UpdatedAt,
	}
}

// lockedSeatRow は FOR UPDATE で取得する検証用の最小行
type lockedSeatRow struct {
	SeatID string `db:"seat_id"`
	Status string `db:"status"`
}

type SeatRepository struct{ db *sqlx.DB }

func NewSeatRepository(db *sqlx.DB) *SeatRepository { return &SeatRepository{db: db} }

func (r *SeatRepository) CreateBulk(ctx context.Context, tx transaction.Tx, seats []*seat.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errInvalidTx
	}

	// バッチサイズごとに分割してマルチバリューINSERTを実行
	const batchSize = 1000
	for i := 0; i < len(seats); i += batchSize {
		end := i + batchSize
		if end > len(seats) {
			end = len(seats)
		}
		if err := r.createBulkBatch(ctx, sqlxTx, seats[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// createBulkBatch はバッチ単位でマルチバリューINSERTを実行
func (r *SeatRepository) createBulkBatch(ctx context.Context, tx *sqlx.Tx, seats []*seat.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	query := `INSERT INTO seats (show_id, seat_id, status, updated_at) VALUES `
	args := make([]interface{}, 0, len(seats)*3)
	placeholders := make([]string, 0, len(seats))

	for i, s := range seats {
		base := i * 3
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, NOW())", base+1, base+2, base+3))
		args = append(args, s.ShowID, s.SeatID, string(s.Status))
	}

	query += strings.Join(placeholders, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("座席一括作成に失敗: %w", err)
	}
	return nil
}

// GetByShowID は公演の全座席を単一クエリで取得する
// held の座席は所有中の active ホールドと結合し、期限を載せて返す。
// 1文での読み取りなので状態遷移の途中が観測されることはない
func (r *SeatRepository) GetByShowID(ctx context.Context, showID string) ([]*seat.Seat, error) {
	query := `
		SELECT s.show_id, s.seat_id, s.status, s.owner_ref, s.updated_at,
		       h.expires_at AS hold_expires_at
		FROM seats s
		LEFT JOIN holds h ON s.status = 'held' AND h.id = s.owner_ref AND h.status = 'active'
		WHERE s.show_id = $1
		ORDER BY s.seat_id
	`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, showID); err != nil {
		return nil, fmt.Errorf("座席一覧取得に失敗: %w", err)
	}
	seats := make([]*seat.Seat, len(rows))
	for i, row := range rows {
		seats[i] = row.toEntity()
	}
	return seats, nil
}

func (r *SeatRepository) CountAvailableByShowID(ctx context.Context, showID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM seats WHERE show_id = $1 AND status = 'available'`, showID)
	return count, err
}

// LockAndTransition は座席状態遷移の中核プリミティブ
// 対象座席を seat_id 昇順で行ロックする。並行する要求が重なる座席集合を
// 別々の順序で要求してもロック取得順は常に同じになり、デッドロックしない。
// 全座席の存在と期待状態を検証してから一括更新し、検証に失敗した場合は
// 何も遷移させずエラーを返す
func (r *SeatRepository) LockAndTransition(ctx context.Context, tx transaction.Tx, showID string, seatIDs []string, expected []seat.Status, next seat.Status, ownerRef *string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errInvalidTx
	}

	ids := make([]string, len(seatIDs))
	copy(ids, seatIDs)
	sort.Strings(ids)

	var locked []lockedSeatRow
	lockQuery := `SELECT seat_id, status FROM seats WHERE show_id = $1 AND seat_id = ANY($2) ORDER BY seat_id FOR UPDATE`
	if err := sqlxTx.SelectContext(ctx, &locked, lockQuery, showID, pq.Array(ids)); err != nil {
		return fmt.Errorf("座席ロックに失敗: %w", err)
	}

	current := make(map[string]seat.Status, len(locked))
	for _, row := range locked {
		current[row.SeatID] = seat.Status(row.Status)
	}

	var missing, conflicted []string
	for _, id := range ids {
		st, ok := current[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if !statusIn(st, expected) {
			conflicted = append(conflicted, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", seat.ErrUnknownSeatID, strings.Join(missing, ", "))
	}
	if len(conflicted) > 0 {
		return &seat.UnavailableError{SeatIDs: conflicted}
	}

	updateQuery := `UPDATE seats SET status = $1, owner_ref = $2, updated_at = NOW() WHERE show_id = $3 AND seat_id = ANY($4)`
	result, err := sqlxTx.ExecContext(ctx, updateQuery, string(next), ownerRef, showID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("座席状態の更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if int(rows) != len(ids) {
		return fmt.Errorf("座席状態の更新件数が一致しません: got=%d want=%d", rows, len(ids))
	}
	return nil
}

// ResetByShowID は公演の全座席を available に戻す
// 進行中のホールド・予約確定と直列化するため、先に全席を行ロックする
func (r *SeatRepository) ResetByShowID(ctx context.Context, tx transaction.Tx, showID string) (int, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return 0, errInvalidTx
	}

	var ids []string
	if err := sqlxTx.SelectContext(ctx, &ids, `SELECT seat_id FROM seats WHERE show_id = $1 ORDER BY seat_id FOR UPDATE`, showID); err != nil {
		return 0, fmt.Errorf("座席ロックに失敗: %w", err)
	}

	result, err := sqlxTx.ExecContext(ctx, `UPDATE seats SET status = 'available', owner_ref = NULL, updated_at = NOW() WHERE show_id = $1`, showID)
	if err != nil {
		return 0, fmt.Errorf("座席リセットに失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

func statusIn(s seat.Status, set []seat.Status) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

var _ seat.Repository = (*SeatRepository)(nil)
