package hold

import (
	"time"

	"github.com/google/uuid"
)

// Status はホールドの状態を表す
type Status string

const (
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusConsumed Status = "consumed"
	StatusReleased Status = "released"
)

// ホールド期間（秒）の制約
const (
	MinDurationSeconds     = 60
	MaxDurationSeconds     = 1800
	DefaultDurationSeconds = 600
)

// Hold は座席への時間制限付きの仮押さえを表す
// active の間だけ SeatIDs の座席を所有し、予約確定・解放・期限切れの
// いずれかで所有が終わる
type Hold struct {
	ID              string
	ShowID          string
	SeatIDs         []string
	Status          Status
	DurationSeconds int
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

// ClampDuration はホールド期間を [MinDurationSeconds, MaxDurationSeconds] に丸める
// 0以下（未指定）は DefaultDurationSeconds になる
func ClampDuration(seconds int) int {
	if seconds <= 0 {
		return DefaultDurationSeconds
	}
	if seconds < MinDurationSeconds {
		return MinDurationSeconds
	}
	if seconds > MaxDurationSeconds {
		return MaxDurationSeconds
	}
	return seconds
}

// NewHold は新しいホールドを作成する
// IDはUUIDv4で採番し、期間は ClampDuration で丸めたうえで期限を計算する
func NewHold(showID string, seatIDs []string, durationSeconds int) *Hold {
	now := time.Now()
	d := ClampDuration(durationSeconds)
	return &Hold{
		ID:              uuid.New().String(),
		ShowID:          showID,
		SeatIDs:         seatIDs,
		Status:          StatusActive,
		DurationSeconds: d,
		CreatedAt:       now,
		ExpiresAt:       now.Add(time.Duration(d) * time.Second),
	}
}

// IsActive はホールドが有効状態かを返す
func (h *Hold) IsActive() bool {
	return h.Status == StatusActive
}

// IsExpired はホールドの期限が過ぎているかを返す
// 状態は見ない。active のまま期限だけ過ぎたホールドの遅延判定に使う
func (h *Hold) IsExpired() bool {
	return !time.Now().Before(h.ExpiresAt)
}

// Validate はホールドの検証を行う
func (h *Hold) Validate() error {
	if h.ShowID == "" {
		return ErrShowIDRequired
	}
	if len(h.SeatIDs) == 0 {
		return ErrSeatIDsRequired
	}
	seen := make(map[string]struct{}, len(h.SeatIDs))
	for _, id := range h.SeatIDs {
		if _, ok := seen[id]; ok {
			return ErrDuplicateSeatIDs
		}
		seen[id] = struct{}{}
	}
	return nil
}
