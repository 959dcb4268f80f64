//go:generate mockgen -package=redis -destination=mock.go -source=interfaces.go

package redis

import (
	"context"
)

// IProducer 將拍賣事件非同步寫入 stream
// Publish 在 Start 之前或 Close 之後返回 ErrProducerClosed
type IProducer[T any] interface {
	Start()
	Publish(data T) error
	Close()
}

// IGroupConsumer 以消費者群組讀取 stream，每筆消息都需要 Done 或 Fail
type IGroupConsumer[T any] interface {
	Start() error
	Subscribe() <-chan *Message[T]
	Close() error
}

// IConsumer 廣播式讀取 stream，每個實例都會收到全部消息，不需要確認
type IConsumer[T any] interface {
	Start()
	Subscribe() <-chan T
	Close()
}

// IAutoRenewMutex 跨實例的互斥鎖
// Lock 返回的 context 在鎖失效時被取消，持有者應該以它作為工作的 context
type IAutoRenewMutex interface {
	Lock(ctx context.Context) (context.Context, error)
	Unlock() (bool, error)
	Valid() bool
}
