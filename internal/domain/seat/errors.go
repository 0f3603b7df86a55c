package seat

import (
	"errors"
	"fmt"
	"strings"
)

// Seat ドメインのエラー定義
var (
	ErrSeatsUnavailable = errors.New("座席を確保できません")
	ErrUnknownSeatID    = errors.New("存在しない座席IDが含まれています")
)

// UnavailableError は期待した状態になかった座席のIDを保持するエラー
// errors.Is(err, ErrSeatsUnavailable) で判定でき、呼び出し側は
// SeatIDs から競合した座席を特定できる
type UnavailableError struct {
	SeatIDs []string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("座席を確保できません: %s", strings.Join(e.SeatIDs, ", "))
}

// Is は ErrSeatsUnavailable との比較を成立させる
func (e *UnavailableError) Is(target error) bool {
	return target == ErrSeatsUnavailable
}
