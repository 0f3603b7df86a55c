package show

import "time"

// Show は公演エンティティを表す
// IDは呼び出し側が指定する外部識別子（例: "avengers_2026_7pm"）
type Show struct {
	ID         string
	TotalSeats int
	CreatedAt  time.Time
}

// NewShow は新しい公演を作成する
func NewShow(id string, totalSeats int) *Show {
	return &Show{
		ID:         id,
		TotalSeats: totalSeats,
		CreatedAt:  time.Now(),
	}
}

// Validate は公演の検証を行う
func (s *Show) Validate() error {
	if s.ID == "" {
		return ErrShowIDRequired
	}
	if s.TotalSeats <= 0 {
		return ErrInvalidTotalSeats
	}
	return nil
}
