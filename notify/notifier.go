// Package notify 發送拍賣事件
// 事件寫入 Redis Stream 供郵件派送與即時訂閱使用，沒有 Redis 時寫入日誌與本機的 SSE 頻道
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bidhouse/adapters/redis"
	"bidhouse/auction"
)

// StreamNotifier 將事件寫入 Redis Stream，由 Dispatcher 與 SSE 消費
type StreamNotifier struct {
	producer redis.IProducer[auction.Event]
}

func NewStreamNotifier(producer redis.IProducer[auction.Event]) *StreamNotifier {
	return &StreamNotifier{producer: producer}
}

func (n *StreamNotifier) Send(_ context.Context, event auction.Event) error {
	const op = "StreamNotifier.Send"
	if err := n.producer.Publish(event); err != nil {
		return fmt.Errorf("[%s] Fail to publish event, err=%w", op, err)
	}
	return nil
}

// LogNotifier 只把事件寫進日誌，沒有設定 Redis 時使用
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With(slog.String("caller", "LogNotifier"))}
}

func (n *LogNotifier) Send(ctx context.Context, event auction.Event) error {
	n.logger.InfoContext(ctx, "Auction event",
		slog.String("kind", string(event.Kind)),
		slog.String("auction", event.AuctionID.String()),
		slog.Any("recipients", event.Recipients),
		slog.String("amount", event.Amount),
		slog.String("winner", event.Winner),
	)
	return nil
}

// Multi 依序交給每個 Notifier，全部都會執行，錯誤合併後返回
type Multi []auction.Notifier

func (m Multi) Send(ctx context.Context, event auction.Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
