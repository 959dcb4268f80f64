package auction

import (
	"time"

	"github.com/google/uuid"
)

// EventKind 通知事件的種類
type EventKind string

const (
	EventBidRegistered   EventKind = "bid_registered"
	EventAuctionResolved EventKind = "auction_resolved"
	EventAuctionBanned   EventKind = "auction_banned"
	EventAuctionCreated  EventKind = "auction_created"
)

// Event 拍賣事件，同時用於郵件通知以及即時出價推播
// 金額以固定兩位小數的字串傳遞
type Event struct {
	Kind         EventKind `msgpack:"kind"`
	AuctionID    uuid.UUID `msgpack:"auction_id"`
	AuctionTitle string    `msgpack:"auction_title"`
	Recipients   []string  `msgpack:"recipients"`
	Bidder       string    `msgpack:"bidder,omitempty"`
	Amount       string    `msgpack:"amount,omitempty"`
	Winner       string    `msgpack:"winner,omitempty"`
	OccurredAt   time.Time `msgpack:"occurred_at"`
}
