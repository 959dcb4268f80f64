//go:generate mockgen -package=auction -destination=mock.go -source=interfaces.go

package auction

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bidhouse/models"
)

// Store 拍賣資料的持久層
// 讀取回傳的都是複本，修改後必須透過 Save 系列方法寫回
// SaveAuction 與 SaveBid 以 Version 做樂觀鎖，版本不符時返回 ErrConcurrentUpdate，成功後 Version 會被遞增
type Store interface {
	CreateAuction(ctx context.Context, auction *models.Auction) error
	GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	SaveAuction(ctx context.Context, auction *models.Auction) error
	// SaveBid 在同一個交易中寫回拍賣並新增出價紀錄
	SaveBid(ctx context.Context, auction *models.Auction, bid *models.Bid) error
	GetBid(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	// ListBids 列出拍賣的出價紀錄，金額由高到低，也就是最新的在前
	ListBids(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error)
	// ListActive 列出進行中的拍賣，title 不為空時以不分大小寫的包含比對
	ListActive(ctx context.Context, title string) ([]models.Auction, error)
	// ListExpiredActive 列出截止時間早於 now 但仍在進行中的拍賣
	ListExpiredActive(ctx context.Context, now time.Time) ([]models.Auction, error)
}

// Directory 使用者聯絡資訊
type Directory interface {
	UpsertUser(ctx context.Context, user *models.User) error
	// FindUsers 依使用者名稱查詢，不存在的名稱會被略過
	FindUsers(ctx context.Context, usernames []string) ([]models.User, error)
}

// Notifier 發送拍賣事件通知
// 發送失敗不影響已經完成的狀態變更，由呼叫方記錄日誌
type Notifier interface {
	Send(ctx context.Context, event Event) error
}
