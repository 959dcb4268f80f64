package sse

import (
	"context"
	"log/slog"
	"sync"

	"bidhouse/adapters/redis"
)

type managerOptions[T any] struct {
	logger     *slog.Logger
	subscriber redis.IConsumer[PublishRequest[T]]
	bufferSize int
}

type ManagerOption[T any] func(*managerOptions[T])

// WithLogger 設置日誌記錄器
func WithLogger[T any](logger *slog.Logger) ManagerOption[T] {
	return func(o *managerOptions[T]) {
		o.logger = logger
	}
}

// WithSubscriber 設置上游的消費者，收到的請求會廣播到本實例的頻道
func WithSubscriber[T any](subscriber redis.IConsumer[PublishRequest[T]]) ManagerOption[T] {
	return func(o *managerOptions[T]) {
		o.subscriber = subscriber
	}
}

// WithBufferSize 設置每個訂閱者的緩衝大小
func WithBufferSize[T any](size int) ManagerOption[T] {
	return func(o *managerOptions[T]) {
		o.bufferSize = size
	}
}

// connectionManager 管理多個 SSE 頻道的訂閱與發布。
// 透過 Redis Stream 實現跨節點的訊息廣播，讓多個服務實例能夠協同運作。
type connectionManager[T any] struct {
	logger *slog.Logger

	mu     sync.RWMutex   // 保護 active 和 channels 的讀寫
	wg     sync.WaitGroup // 用於等待所有 goroutine 完成
	active bool           // 標記 manager 是否正在運作中

	subscriber redis.IConsumer[PublishRequest[T]]
	channels   map[string]IChannel[T] // 儲存所有活躍的頻道
	bufferSize int
}

// NewConnectionManager 建立一個新的連線管理器。
func NewConnectionManager[T any](opts ...ManagerOption[T]) IConnectionManager[T] {
	options := managerOptions[T]{
		logger:     slog.Default(),
		bufferSize: 16,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &connectionManager[T]{
		logger:     options.logger.With(slog.String("caller", "ConnectionManager")),
		channels:   make(map[string]IChannel[T]),
		subscriber: options.subscriber,
		bufferSize: options.bufferSize,
		active:     true,
	}
}

// Start 啟動連線管理器，開始處理訊息的接收與廣播。
// 應在呼叫其他方法前先呼叫此方法。
func (cm *connectionManager[T]) Start() {
	if cm.subscriber == nil {
		return
	}
	cm.subscriber.Start()

	// 啟動訊息處理的 goroutine
	cm.wg.Add(1)
	go func() {
		defer cm.wg.Done()
		for msg := range cm.subscriber.Subscribe() {
			cm.broadcast(msg.Channel, msg.Message)
		}
	}()
}

func (cm *connectionManager[T]) broadcast(channelName string, data T) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	channel, ok := cm.channels[channelName]
	if !ok {
		return
	}
	if dropped := channel.Broadcast(data); dropped > 0 {
		cm.logger.Warn("slow subscribers missed a message",
			slog.String("channel", channelName),
			slog.Int("dropped", dropped))
	}
}

// Done 停止連線管理器的運作。
func (cm *connectionManager[T]) Done() {
	cm.mu.Lock()
	if !cm.active {
		cm.mu.Unlock()
		return
	}
	cm.active = false
	cm.mu.Unlock()

	// subscriber 關閉後處理訊息的 goroutine 會結束，期間仍需要讀鎖
	if cm.subscriber != nil {
		cm.subscriber.Close()
	}
	cm.wg.Wait()

	cm.mu.Lock()
	defer cm.mu.Unlock()
	for _, channel := range cm.channels {
		channel.UnsubscribeAll()
	}
	clear(cm.channels)
}

// Subscribe 訂閱指定的頻道。
// channelName: 要訂閱的頻道名稱
// 返回: 用於接收訊息的唯讀通道，以及可能的錯誤
func (cm *connectionManager[T]) Subscribe(channelName string) (<-chan T, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.active {
		return nil, context.Canceled
	}

	c, ok := cm.channels[channelName]
	if !ok {
		c = NewChannel[T](cm.bufferSize)
		cm.channels[channelName] = c
	}
	return c.Subscribe(), nil
}

// Publish 發布訊息到本實例上指定的頻道。
// 跨實例的廣播由 subscriber 負責。
func (cm *connectionManager[T]) Publish(channelName string, data T) error {
	cm.mu.RLock()
	active := cm.active
	cm.mu.RUnlock()
	if !active {
		return context.Canceled
	}

	cm.broadcast(channelName, data)
	return nil
}

// Unsubscribe 取消訂閱指定的頻道。
func (cm *connectionManager[T]) Unsubscribe(channelName string, ch <-chan T) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	c, ok := cm.channels[channelName]
	if !ok {
		return
	}

	c.Unsubscribe(ch)
	if c.IsIdle() {
		delete(cm.channels, channelName)
	}
}
