package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sudomaster00081/AtomicSeats/internal/domain/booking"
	"github.com/sudomaster00081/AtomicSeats/internal/domain/transaction"
)

type bookingRow struct {
	ID        string         `db:"id"`
	ShowID    string         `db:"show_id"`
	HoldID    string         `db:"hold_id"`
	SeatIDs   pq.StringArray `db:"seat_ids"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	return &booking.Booking{
		ID: r.ID, ShowID: r.ShowID, HoldID: r.HoldID,
		SeatIDs: []string(r.SeatIDs), CreatedAt: r.CreatedAt,
	}
}

type BookingRepository struct{ db *sqlx.DB }

func NewBookingRepository(db *sqlx.DB) *BookingRepository { return &BookingRepository{db: db} }

// Create は新しい予約を作成する
// hold_id の一意制約違反は ErrBookingAlreadyExists にマッピングする
// （同一ホールドの二重確定をストア側でも防ぐ最終防衛線）
func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errInvalidTx
	}

	query := `INSERT INTO bookings (id, show_id, hold_id, seat_ids, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := sqlxTx.ExecContext(ctx, query, b.ID, b.ShowID, b.HoldID, pq.Array(b.SeatIDs), b.CreatedAt); err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return booking.ErrBookingAlreadyExists
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT id, show_id, hold_id, seat_ids, created_at FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *BookingRepository) GetByHoldID(ctx context.Context, holdID string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT id, show_id, hold_id, seat_ids, created_at FROM bookings WHERE hold_id = $1`
	if err := r.db.GetContext(ctx, &row, query, holdID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *BookingRepository) DeleteByShowID(ctx context.Context, tx transaction.Tx, showID string) (int, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return 0, errInvalidTx
	}

	result, err := sqlxTx.ExecContext(ctx, `DELETE FROM bookings WHERE show_id = $1`, showID)
	if err != nil {
		return 0, fmt.Errorf("予約削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

var _ booking.Repository = (*BookingRepository)(nil)
