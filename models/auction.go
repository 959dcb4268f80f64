package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BidExtension 拍賣在截止前這段時間內收到出價時，截止時間會順延同樣長度
const BidExtension = 5 * time.Minute

// MinimumDuration 新拍賣的最短拍賣時間
const MinimumDuration = 72 * time.Hour

// MoneyPlaces 金額的小數位數
const MoneyPlaces = 2

var ErrInvalidTransition = errors.New("invalid auction status transition")

// Status 拍賣狀態，Banned 與 Adjudicated 為終止狀態
type Status int

const (
	StatusActive Status = iota
	StatusBanned
	StatusAdjudicated
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusBanned:
		return "banned"
	case StatusAdjudicated:
		return "adjudicated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal 是否為終止狀態
func (s Status) Terminal() bool {
	return s == StatusBanned || s == StatusAdjudicated
}

// Auction 代表拍賣系統中的商品
// 包含賣家、商品描述、起標價、目前最高出價、截止時間以及出價者紀錄
type Auction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;<-:create"`
	Seller        string          `gorm:"type:varchar(150);not null;index;<-:create"`
	Title         string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:varchar(1000);not null"`
	MinimumPrice  decimal.Decimal `gorm:"type:numeric(15,2);not null;<-:create"`
	CurrentPrice  decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	Deadline      time.Time       `gorm:"not null;index"`
	Status        Status          `gorm:"type:smallint;not null;default:0;index"`
	BidderHistory []string        `gorm:"type:text;serializer:json;not null"`
	LastBidder    string          `gorm:"type:varchar(150);not null;default:''"`
	Version       int64           `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// 外鍵關聯
	Bids []Bid `gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate 在寫入前產生 UUIDv7
func (a *Auction) BeforeCreate(tx *gorm.DB) error {
	if a.ID != uuid.Nil {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func (a *Auction) IsActive() bool {
	return a.Status == StatusActive
}

// Transition 是拍賣狀態唯一的轉換入口
// 只允許 Active -> Banned 以及 Active -> Adjudicated
func (a *Auction) Transition(to Status) error {
	if a.Status != StatusActive || !to.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	a.Status = to
	return nil
}

// RecordBid 套用一筆已經通過驗證的出價
// 回傳截止時間是否被順延
func (a *Auction) RecordBid(bidder string, amount decimal.Decimal, now time.Time) bool {
	a.CurrentPrice = amount
	if !lo.Contains(a.BidderHistory, bidder) {
		a.BidderHistory = append(a.BidderHistory, bidder)
	}
	a.LastBidder = bidder
	if a.Deadline.Sub(now) < BidExtension {
		a.Deadline = a.Deadline.Add(BidExtension)
		return true
	}
	return false
}

// HasBids 是否已經有人出價
func (a *Auction) HasBids() bool {
	return a.LastBidder != ""
}

// Participants 回傳賣家以及所有曾經出價的使用者，不重複
func (a *Auction) Participants() []string {
	return lo.Uniq(append([]string{a.Seller}, a.BidderHistory...))
}

// Clone 回傳一份不共用 slice 的複本
func (a *Auction) Clone() *Auction {
	c := *a
	c.BidderHistory = append([]string(nil), a.BidderHistory...)
	c.Bids = nil
	return &c
}
