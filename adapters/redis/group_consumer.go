package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingPageSize 每次 XPENDING 讀取的筆數
const pendingPageSize = 100

// Message 群組消費者交給下游的消息，處理完畢後必須呼叫 Done 或 Fail
// 兩者都沒有呼叫的消息會留在 pending 清單，下一輪工作流程會重新交付
type Message[T any] struct {
	Data T

	client     *redis.Client
	done       bool
	messageID  string
	stream     string
	group      string
	deadLetter string

	raw map[string]any
}

// ID stream entry 的 ID
func (m *Message[T]) ID() string {
	return m.messageID
}

// Done 確認消息已處理完成
func (m *Message[T]) Done(ctx context.Context) error {
	const op = "Message.Done"
	if m.done {
		return nil
	}
	if err := m.client.XAck(ctx, m.stream, m.group, m.messageID).Err(); err != nil {
		return fmt.Errorf("[%s] failed to ack message: %w", op, err)
	}
	m.done = true
	return nil
}

// Fail 將消息連同失敗原因寫入死信 stream 後確認
func (m *Message[T]) Fail(ctx context.Context, failErr error) error {
	const op = "Message.Fail"
	if m.done {
		return nil
	}

	values := make(map[string]any, len(m.raw)+1)
	for k, v := range m.raw {
		values[k] = v
	}
	values["error"] = failErr.Error()
	if err := m.client.XAdd(ctx, &redis.XAddArgs{Stream: m.deadLetter, Values: values}).Err(); err != nil {
		return fmt.Errorf("[%s] failed to move message to dead letter queue: %w", op, err)
	}
	if err := m.client.XAck(ctx, m.stream, m.group, m.messageID).Err(); err != nil {
		return fmt.Errorf("[%s] failed to ack failed message: %w", op, err)
	}
	m.done = true
	return nil
}

// GroupConsumer 以消費者群組讀取 stream
// 每一輪工作流程先重新交付 pending 的消息，再讀取新消息；
// 嚴格順序模式下整個群組同時只有一個實例在處理，pending 範圍是整個群組，否則只處理自己名下的 pending
type GroupConsumer[T any] struct {
	client     *redis.Client
	stream     string
	group      string
	consumer   string
	downStream chan *Message[T]
	cancelFunc context.CancelFunc
	mu         sync.Mutex
	wg         sync.WaitGroup
	closed     bool
	logger     *slog.Logger
	mutex      IAutoRenewMutex

	pendingIDs []string
	batch      []redis.XMessage

	options groupConsumerOptions[T]
}

type groupConsumerOptions[T any] struct {
	logger         *slog.Logger
	parseFunc      func(map[string]any) (T, error)
	bufferSize     int
	batchSize      int64
	blockTimeout   time.Duration
	retryDelay     time.Duration
	deadLetter     string
	createGroup    bool
	mutex          IAutoRenewMutex
	strictOrdering bool
}

type GroupConsumerOption[T any] func(*groupConsumerOptions[T])

// WithGroupConsumerLogger 設置日誌記錄器
func WithGroupConsumerLogger[T any](logger *slog.Logger) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.logger = logger
	}
}

// WithGroupConsumerParseFunc 設置消息解析函數
func WithGroupConsumerParseFunc[T any](fn func(map[string]any) (T, error)) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.parseFunc = fn
	}
}

// WithGroupConsumerBufferSize 設置下游channel的緩衝大小
func WithGroupConsumerBufferSize[T any](size int) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.bufferSize = size
	}
}

// WithGroupConsumerBatchSize 設置每次 XREADGROUP 最多讀取的筆數
func WithGroupConsumerBatchSize[T any](n int64) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.batchSize = n
	}
}

// WithGroupConsumerBlockTimeout 設置阻塞讀取超時時間
func WithGroupConsumerBlockTimeout[T any](d time.Duration) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.blockTimeout = d
	}
}

// WithGroupConsumerRetryDelay 設置讀取失敗後的重試間隔
func WithGroupConsumerRetryDelay[T any](d time.Duration) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.retryDelay = d
	}
}

// WithGroupConsumerDeadLetter 設置死信 stream，默認為 <stream>:dead-letter
func WithGroupConsumerDeadLetter[T any](stream string) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.deadLetter = stream
	}
}

// WithGroupConsumerCreateGroup 設置啟動時是否建立消費者群組
func WithGroupConsumerCreateGroup[T any](create bool) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.createGroup = create
	}
}

// WithGroupConsumerMutex 注入mutex (主要用於測試)
func WithGroupConsumerMutex[T any](mutex IAutoRenewMutex) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.mutex = mutex
	}
}

// WithGroupConsumerStrictOrdering 設置是否使用嚴格順序模式
func WithGroupConsumerStrictOrdering[T any](strict bool) GroupConsumerOption[T] {
	return func(o *groupConsumerOptions[T]) {
		o.strictOrdering = strict
	}
}

func NewGroupConsumer[T any](
	client *redis.Client,
	stream, group, consumer string,
	opts ...GroupConsumerOption[T],
) (IGroupConsumer[T], error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if stream == "" || group == "" || consumer == "" {
		return nil, errors.New("stream, group and consumer cannot be empty")
	}

	// 默認選項
	options := groupConsumerOptions[T]{
		logger:       slog.Default(),
		parseFunc:    DefaultParseFromMessage[T],
		bufferSize:   1,
		batchSize:    8,
		blockTimeout: time.Second,
		retryDelay:   time.Second,
		createGroup:  true,
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}
	if options.deadLetter == "" {
		options.deadLetter = stream + ":dead-letter"
	}
	if options.batchSize <= 0 {
		options.batchSize = 1
	}

	gc := &GroupConsumer[T]{
		logger:   options.logger.With(slog.String("caller", "GroupConsumer"), slog.String("stream", stream), slog.String("group", group), slog.String("consumer", consumer)),
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		closed:   true,
		options:  options,
	}

	// 只在嚴格順序模式下需要群組層級的鎖
	if options.strictOrdering {
		gc.mutex = options.mutex
		if gc.mutex == nil {
			gc.mutex = NewAutoRenewMutex(client, fmt.Sprintf("lock:%s:%s", stream, group), WithAutoRenewMutexSkipLockError(true))
		}
	}

	return gc, nil
}

func (s *GroupConsumer[T]) Start() error {
	const op = "GroupConsumer.Start"
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		return nil
	}
	if s.options.createGroup {
		if err := s.ensureGroup(); err != nil {
			return fmt.Errorf("[%s] Fail to create consumer group, err=%w", op, err)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.downStream = make(chan *Message[T], s.options.bufferSize)
	s.cancelFunc = cancel
	s.closed = false
	s.logger.Info("starting group consumer", slog.Bool("strictOrdering", s.options.strictOrdering))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.logger.Info("group consumer goroutine stopped")
		defer close(s.downStream)
		s.run(ctx)
	}()
	return nil
}

// run 重複執行工作流程直到 ctx 取消
// 嚴格順序模式下每一輪都要先取得群組鎖，鎖失效時 workflow 的 context 會被取消
func (s *GroupConsumer[T]) run(ctx context.Context) {
	for ctx.Err() == nil {
		workCtx := ctx
		if s.options.strictOrdering {
			lockCtx, err := s.mutex.Lock(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Error("failed to acquire lock", slog.Any("error", err))
				s.sleep(ctx)
				continue
			}
			workCtx = lockCtx
		}

		err := s.messagesWorkflow(workCtx)
		if s.options.strictOrdering {
			s.mutex.Unlock()
		}
		switch {
		case ctx.Err() != nil:
			return
		case errors.Is(err, context.Canceled):
			s.logger.Warn("lock context cancelled, restarting workflow")
		default:
			s.logger.Error("error processing messages, restarting workflow", slog.Any("error", err))
			s.sleep(ctx)
		}
	}
}

// ensureGroup 從頭建立消費者群組，群組已存在時忽略
func (s *GroupConsumer[T]) ensureGroup() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// sleep 等待重試間隔，ctx 取消時返回 false
func (s *GroupConsumer[T]) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(s.options.retryDelay):
		return true
	}
}

// Subscribe 返回下游通道，Close 之後會被關閉
func (s *GroupConsumer[T]) Subscribe() <-chan *Message[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downStream
}

func (s *GroupConsumer[T]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.logger.Info("closing group consumer")
	s.closed = true
	s.cancelFunc()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("group consumer closed gracefully")
	return nil
}

// messagesWorkflow 交付 pending 消息之後持續讀取新消息，只在出錯或 ctx 取消時返回
// 上一輪讀到但沒有交付的消息仍在 pending 清單中，因此本地批次一律丟棄重來
func (s *GroupConsumer[T]) messagesWorkflow(ctx context.Context) error {
	s.batch = nil
	if err := s.loadPendingIDs(ctx); err != nil {
		if ctx.Err() != nil {
			return context.Canceled
		}
		return fmt.Errorf("load pending messages: %w", err)
	}

	for {
		message, err := s.nextMessage(ctx)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return context.Canceled
			}
			// 一般是和redis之間的通訊異常，稍後重試
			s.logger.Error("fetch message error", slog.Any("error", err))
			if !s.sleep(ctx) {
				return context.Canceled
			}
			continue
		}

		data, err := s.options.parseFunc(message.Values)
		if err != nil {
			// 解析失敗不會因為重試而成功，直接移到死信後繼續
			s.logger.Error("failed to parse message", slog.String("messageId", message.ID), slog.Any("error", err))
			if err := s.moveToDeadLetter(ctx, message); err != nil {
				// 消息留在 pending 清單，下一輪重新處理
				return err
			}
			continue
		}

		msg := &Message[T]{
			Data:       data,
			messageID:  message.ID,
			stream:     s.stream,
			group:      s.group,
			client:     s.client,
			deadLetter: s.options.deadLetter,
			raw:        message.Values,
		}
		select {
		case <-ctx.Done():
			return context.Canceled
		case s.downStream <- msg:
		}
	}
}

// loadPendingIDs 讀取需要重新交付的 pending 消息 ID
func (s *GroupConsumer[T]) loadPendingIDs(ctx context.Context) error {
	s.pendingIDs = s.pendingIDs[:0]
	args := &redis.XPendingExtArgs{
		Stream: s.stream,
		Group:  s.group,
		Start:  "-",
		End:    "+",
		Count:  pendingPageSize,
	}
	if !s.options.strictOrdering {
		args.Consumer = s.consumer
	}

	for {
		pending, err := s.client.XPendingExt(ctx, args).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return err
		}
		for _, p := range pending {
			s.pendingIDs = append(s.pendingIDs, p.ID)
		}
		if len(pending) < pendingPageSize {
			break
		}
		// 下一頁從最後一筆之後開始
		args.Start = "(" + pending[len(pending)-1].ID
	}

	if len(s.pendingIDs) > 0 {
		s.logger.Info("redelivering pending messages", slog.Int("count", len(s.pendingIDs)))
	}
	return nil
}

// nextMessage 依序返回 pending 消息、本地批次中的消息、新讀取的消息
func (s *GroupConsumer[T]) nextMessage(ctx context.Context) (redis.XMessage, error) {
	for len(s.pendingIDs) > 0 {
		id := s.pendingIDs[0]
		messages, err := s.client.XRangeN(ctx, s.stream, id, id, 1).Result()
		if err != nil {
			return redis.XMessage{}, err
		}
		s.pendingIDs = s.pendingIDs[1:]
		if len(messages) > 0 {
			return messages[0], nil
		}
		// entry 已經被 MAXLEN 修剪掉，只剩 pending 紀錄
		s.logger.Warn("pending message no longer in stream, acknowledging", slog.String("messageId", id))
		if err := s.client.XAck(ctx, s.stream, s.group, id).Err(); err != nil {
			return redis.XMessage{}, err
		}
	}

	if len(s.batch) == 0 {
		streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.group,
			Consumer: s.consumer,
			Streams:  []string{s.stream, ">"},
			Count:    s.options.batchSize,
			Block:    s.options.blockTimeout,
		}).Result()
		if err != nil {
			return redis.XMessage{}, err
		}
		if len(streams) == 0 || len(streams[0].Messages) == 0 {
			return redis.XMessage{}, redis.Nil
		}
		s.batch = streams[0].Messages
	}

	message := s.batch[0]
	s.batch = s.batch[1:]
	return message, nil
}

// moveToDeadLetter 將無法解析的原始消息移到死信 stream
func (s *GroupConsumer[T]) moveToDeadLetter(ctx context.Context, message redis.XMessage) error {
	if err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.options.deadLetter,
		Values: message.Values,
	}).Err(); err != nil {
		return fmt.Errorf("failed to move message to dead letter queue: %w", err)
	}
	return s.client.XAck(ctx, s.stream, s.group, message.ID).Err()
}
