package hold

import "errors"

// Hold ドメインのエラー定義
var (
	ErrHoldNotFound     = errors.New("ホールドが見つかりません")
	ErrHoldExpired      = errors.New("ホールドの有効期限が切れています")
	ErrHoldReleased     = errors.New("ホールドは既に解放されています")
	ErrShowIDRequired   = errors.New("公演IDは必須です")
	ErrSeatIDsRequired  = errors.New("座席IDは必須です")
	ErrDuplicateSeatIDs = errors.New("座席IDが重複しています")
)
