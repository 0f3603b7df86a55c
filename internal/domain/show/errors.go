package show

import "errors"

// Show ドメインのエラー定義
var (
	ErrShowNotFound      = errors.New("公演が見つかりません")
	ErrShowAlreadyExists = errors.New("公演は既に登録されています")
	ErrShowIDRequired    = errors.New("公演IDは必須です")
	ErrInvalidTotalSeats = errors.New("座席数は1以上である必要があります")
	ErrSeatIDsRequired   = errors.New("座席IDは必須です")
	ErrDuplicateSeatIDs  = errors.New("座席IDが重複しています")
)
