package notify

import (
	"context"
	"fmt"
	"time"

	"bidhouse/adapters/redis"
	"bidhouse/adapters/sse"
	"bidhouse/auction"
)

// SSE 事件名稱
const (
	LiveEventBid    = "bid"
	LiveEventClosed = "closed"
)

// LiveEvent 推送給瀏覽器的即時事件，頻道為拍賣 ID
type LiveEvent struct {
	Event      string    `json:"-" msgpack:"event"`
	AuctionID  string    `json:"auction_id" msgpack:"auction_id"`
	Bidder     string    `json:"bidder,omitempty" msgpack:"bidder,omitempty"`
	Amount     string    `json:"amount,omitempty" msgpack:"amount,omitempty"`
	Winner     string    `json:"winner,omitempty" msgpack:"winner,omitempty"`
	Reason     string    `json:"reason,omitempty" msgpack:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at" msgpack:"occurred_at"`
}

// LiveRequest 將拍賣事件轉成 SSE 的發布請求
// 與觀看拍賣無關的事件返回 false
func LiveRequest(event auction.Event) (sse.PublishRequest[LiveEvent], bool) {
	live := LiveEvent{
		AuctionID:  event.AuctionID.String(),
		OccurredAt: event.OccurredAt,
	}
	switch event.Kind {
	case auction.EventBidRegistered:
		live.Event = LiveEventBid
		live.Bidder = event.Bidder
		live.Amount = event.Amount
	case auction.EventAuctionResolved:
		live.Event = LiveEventClosed
		live.Reason = "resolved"
		live.Winner = event.Winner
		live.Amount = event.Amount
	case auction.EventAuctionBanned:
		live.Event = LiveEventClosed
		live.Reason = "banned"
	default:
		return sse.PublishRequest[LiveEvent]{}, false
	}
	return sse.PublishRequest[LiveEvent]{Channel: live.AuctionID, Message: live}, true
}

// ParseLiveRequest 給 redis.Consumer 使用的解析函數
// 不需要推送的事件會得到空頻道，ConnectionManager 找不到訂閱者就會略過
func ParseLiveRequest(message map[string]any) (sse.PublishRequest[LiveEvent], error) {
	event, err := redis.DefaultParseFromMessage[auction.Event](message)
	if err != nil {
		return sse.PublishRequest[LiveEvent]{}, err
	}
	req, _ := LiveRequest(event)
	return req, nil
}

// LiveNotifier 直接推送到本實例的 SSE 頻道，用於沒有 Redis 的單機模式
type LiveNotifier struct {
	manager sse.IConnectionManager[LiveEvent]
}

func NewLiveNotifier(manager sse.IConnectionManager[LiveEvent]) *LiveNotifier {
	return &LiveNotifier{manager: manager}
}

func (n *LiveNotifier) Send(_ context.Context, event auction.Event) error {
	const op = "LiveNotifier.Send"
	req, ok := LiveRequest(event)
	if !ok {
		return nil
	}
	if err := n.manager.Publish(req.Channel, req.Message); err != nil {
		return fmt.Errorf("[%s] Fail to publish live event, err=%w", op, err)
	}
	return nil
}
