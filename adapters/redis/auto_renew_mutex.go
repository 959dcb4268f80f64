package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"bidhouse/lock"
)

// AutoRenewMutex 帶自動續期的分散式互斥鎖
// Lock 傳入的 context 只限制等待時間，取得後鎖的生命週期持續到 Unlock 或續期失敗
type AutoRenewMutex struct {
	mutex   *redsync.Mutex
	logger  *slog.Logger
	options autoRenewMutexOptions

	mu        sync.Mutex
	cancel    context.CancelFunc // 持有鎖期間不為 nil
	renewDone chan struct{}      // 續期 goroutine 結束時關閉
}

type autoRenewMutexOptions struct {
	renewInterval time.Duration
	retryDelay    time.Duration
	expiry        time.Duration
	skipLockError bool
	logger        *slog.Logger
}

type AutoRenewMutexOption func(*autoRenewMutexOptions)

// WithAutoRenewMutexRenewInterval 設置自動續期間隔
func WithAutoRenewMutexRenewInterval(d time.Duration) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.renewInterval = d
	}
}

// WithAutoRenewMutexRetryDelay 設置重試延遲
func WithAutoRenewMutexRetryDelay(d time.Duration) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.retryDelay = d
	}
}

// WithAutoRenewMutexExpiry 設置鎖過期時間
func WithAutoRenewMutexExpiry(d time.Duration) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.expiry = d
	}
}

// WithAutoRenewMutexSkipLockError 設置是否忽略所有鎖定錯誤
func WithAutoRenewMutexSkipLockError(skip bool) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.skipLockError = skip
	}
}

// WithAutoRenewMutexLogger 設置日誌記錄器
func WithAutoRenewMutexLogger(logger *slog.Logger) AutoRenewMutexOption {
	return func(o *autoRenewMutexOptions) {
		o.logger = logger
	}
}

// NewAutoRenewMutex 創建一個帶自動續期功能的互斥鎖
func NewAutoRenewMutex(client *redis.Client, key string, opts ...AutoRenewMutexOption) IAutoRenewMutex {
	return newAutoRenewMutex(redsync.New(goredis.NewPool(client)), key, opts...)
}

// NewAuctionMutexFactory 建立拍賣鎖的工廠，用於 lock.WithRemote
// 所有實例共用同一個 redsync，鎖的鍵值為 <prefix>auction:<id>:lock
func NewAuctionMutexFactory(client *redis.Client, prefix string, opts ...AutoRenewMutexOption) lock.RemoteFactory {
	rs := redsync.New(goredis.NewPool(client))
	return func(auctionID string) lock.RemoteMutex {
		return newAutoRenewMutex(rs, AuctionLockKey(prefix, auctionID), opts...)
	}
}

// AuctionLockKey 拍賣鎖在 Redis 上的鍵值
func AuctionLockKey(prefix, auctionID string) string {
	return fmt.Sprintf("%sauction:%s:lock", prefix, auctionID)
}

func newAutoRenewMutex(rs *redsync.Redsync, key string, opts ...AutoRenewMutexOption) *AutoRenewMutex {
	options := autoRenewMutexOptions{
		expiry:     8 * time.Second,
		retryDelay: 500 * time.Millisecond,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	// 默認每過 1/3 的過期時間續期一次
	if options.renewInterval <= 0 {
		options.renewInterval = options.expiry / 3
	}

	// 重試由 Lock 自己處理，redsync 每次只嘗試一次
	mutex := rs.NewMutex(
		key,
		redsync.WithExpiry(options.expiry),
		redsync.WithTries(1),
		redsync.WithRetryDelay(options.retryDelay),
	)
	return &AutoRenewMutex{
		mutex:   mutex,
		logger:  options.logger.With(slog.String("caller", "AutoRenewMutex"), slog.String("key", key)),
		options: options,
	}
}

// Lock 在 ctx 結束前重複嘗試取得鎖，成功後啟動自動續期
// 返回的 context 會在 Unlock 或續期失敗時被取消
func (m *AutoRenewMutex) Lock(ctx context.Context) (context.Context, error) {
	const op = "AutoRenewMutex.Lock"
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := m.mutex.LockContext(ctx)
		if err == nil {
			return m.hold(ctx), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// 鎖被佔用時重試，Redis 通訊錯誤只在 skipLockError 時重試
		var redisErr *redsync.RedisError
		if errors.As(err, &redisErr) && !m.options.skipLockError {
			return nil, fmt.Errorf("[%s] Fail to acquire lock, err=%w", op, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.options.retryDelay):
		}
	}
}

// hold 建立鎖的 context 並啟動續期
func (m *AutoRenewMutex) hold(waitCtx context.Context) context.Context {
	lockCtx, cancel := context.WithCancel(context.WithoutCancel(waitCtx))
	done := make(chan struct{})

	m.mu.Lock()
	m.cancel = cancel
	m.renewDone = done
	m.mu.Unlock()

	go m.renew(lockCtx, cancel, done)
	return lockCtx
}

func (m *AutoRenewMutex) renew(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.options.renewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		ok, err := m.mutex.ExtendContext(ctx)
		if err == nil && ok {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		m.logger.Warn("Lose lock, fail to extend", slog.Bool("success", ok), slog.Any("error", err))
		m.mu.Lock()
		if m.renewDone == done {
			m.cancel = nil
		}
		m.mu.Unlock()
		cancel()
		return
	}
}

// Unlock 停止自動續期並釋放鎖
func (m *AutoRenewMutex) Unlock() (bool, error) {
	m.mu.Lock()
	cancel, done := m.cancel, m.renewDone
	m.cancel, m.renewDone = nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	return m.mutex.Unlock()
}

// Valid 仍在續期且尚未過期
func (m *AutoRenewMutex) Valid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil && time.Now().Before(m.mutex.Until())
}
