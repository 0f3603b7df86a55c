package seat

import "time"

// Status は座席の状態を表す
type Status string

const (
	StatusAvailable Status = "available"
	StatusHeld      Status = "held"
	StatusBooked    Status = "booked"
)

// Seat は座席エンティティを表す
// (ShowID, SeatID) が複合キー。OwnerRef は held のときホールドID、
// booked のとき予約IDを指し、available では常に nil
type Seat struct {
	ShowID        string
	SeatID        string
	Status        Status
	OwnerRef      *string
	HoldExpiresAt *time.Time // held の座席にのみ設定される読み取り用の期限
	UpdatedAt     time.Time
}

// NewSeat は新しい座席を available 状態で作成する
func NewSeat(showID, seatID string) *Seat {
	return &Seat{
		ShowID:    showID,
		SeatID:    seatID,
		Status:    StatusAvailable,
		UpdatedAt: time.Now(),
	}
}

// IsAvailable は座席が確保可能かを返す
func (s *Seat) IsAvailable() bool {
	return s.Status == StatusAvailable
}

// Hold は座席をホールド状態にする
func (s *Seat) Hold(holdID string) error {
	if s.Status != StatusAvailable {
		return &UnavailableError{SeatIDs: []string{s.SeatID}}
	}
	s.Status = StatusHeld
	s.OwnerRef = &holdID
	s.UpdatedAt = time.Now()
	return nil
}

// Book は座席を予約確定状態にする
func (s *Seat) Book(bookingID string) error {
	if s.Status != StatusHeld {
		return &UnavailableError{SeatIDs: []string{s.SeatID}}
	}
	s.Status = StatusBooked
	s.OwnerRef = &bookingID
	s.UpdatedAt = time.Now()
	return nil
}

// Release は座席を解放して available に戻す
func (s *Seat) Release() {
	s.Status = StatusAvailable
	s.OwnerRef = nil
	s.HoldExpiresAt = nil
	s.UpdatedAt = time.Now()
}

// Tally は公演の座席集計を表す
type Tally struct {
	Available int
	Held      int
	Booked    int
	Total     int
}

// TallySeats は座席一覧から状態別の集計を計算する
func TallySeats(seats []*Seat) Tally {
	t := Tally{Total: len(seats)}
	for _, s := range seats {
		switch s.Status {
		case StatusAvailable:
			t.Available++
		case StatusHeld:
			t.Held++
		case StatusBooked:
			t.Booked++
		}
	}
	return t
}
