//go:generate mockgen -package=sse -destination=mock.go -source=interfaces.go

package sse

// IChannel 單一拍賣的即時事件頻道
type IChannel[T any] interface {
	Subscribe() <-chan T
	Unsubscribe(ch <-chan T)
	// UnsubscribeAll 關閉所有訂閱者的通道
	UnsubscribeAll()
	// Broadcast 不會阻塞，返回因緩衝區已滿而被丟棄的數量
	Broadcast(message T) int
	IsIdle() bool
}

// IConnectionManager 依頻道名稱管理 SSE 訂閱者
// 設置了上游消費者時，其他實例發布的事件也會轉發到本實例的訂閱者
type IConnectionManager[T any] interface {
	Start()
	// Done 關閉所有頻道，之後 Subscribe 返回錯誤
	Done()
	Subscribe(channelName string) (<-chan T, error)
	// Publish 只推送給本實例上的訂閱者
	Publish(channelName string, data T) error
	Unsubscribe(channelName string, ch <-chan T)
}
