package booking

import (
	"time"

	"github.com/google/uuid"
)

// Booking は確定済みの座席予約を表す
// ホールドから一度だけ変換され、以後は変更されない。
// HoldID は変換元ホールドで、同じホールドに対する予約は常に1件（冪等性の根拠）
type Booking struct {
	ID        string
	ShowID    string
	HoldID    string
	SeatIDs   []string
	CreatedAt time.Time
}

// NewBooking はホールドから新しい予約を作成する
func NewBooking(showID, holdID string, seatIDs []string) *Booking {
	return &Booking{
		ID:        uuid.New().String(),
		ShowID:    showID,
		HoldID:    holdID,
		SeatIDs:   seatIDs,
		CreatedAt: time.Now(),
	}
}
