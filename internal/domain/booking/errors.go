package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound      = errors.New("予約が見つかりません")
	ErrBookingAlreadyExists = errors.New("このホールドの予約は既に存在します")
)
