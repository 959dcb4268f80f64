package auction

import (
	"errors"
	"fmt"

	"bidhouse/lock"
)

var (
	// ErrValidation 請求內容不合法
	ErrValidation = errors.New("invalid request")
	// ErrForbidden 請求者沒有權限執行此操作
	ErrForbidden = errors.New("forbidden")
	// ErrInactive 拍賣已經被封鎖或結算，屬於 ErrForbidden
	ErrInactive = fmt.Errorf("%w: auction is not active", ErrForbidden)
	// ErrStaleDescription 出價者看到的描述已經被賣家修改
	ErrStaleDescription = errors.New("auction description has changed")
	// ErrOutbidTooLate 出價沒有高於目前價格
	ErrOutbidTooLate = errors.New("bid does not exceed current price")
	// ErrNotFound 拍賣或出價不存在
	ErrNotFound = errors.New("not found")
	// ErrConcurrentUpdate 儲存時發現資料已經被其他寫入者修改
	ErrConcurrentUpdate = errors.New("concurrent update")
	// ErrLockTimeout 等待拍賣鎖逾時
	ErrLockTimeout = lock.ErrLockTimeout
)
