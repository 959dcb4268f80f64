package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bid 代表拍賣商品的出價紀錄
// 建立後不可修改，隨拍賣刪除
type Bid struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;<-:create"`
	AuctionID uuid.UUID       `gorm:"type:uuid;not null;index;<-:create"`
	Bidder    string          `gorm:"type:varchar(150);not null;<-:create"`
	Amount    decimal.Decimal `gorm:"type:numeric(15,2);not null;<-:create"`
	CreatedAt time.Time
}

// BeforeCreate 在寫入前產生 UUIDv7
func (b *Bid) BeforeCreate(tx *gorm.DB) error {
	if b.ID != uuid.Nil {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}
