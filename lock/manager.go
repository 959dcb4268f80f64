package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bidhouse/metrics"
)

var (
	ErrLockTimeout = errors.New("lock wait timeout")
	ErrEmptyHolder = errors.New("lock holder cannot be empty")
)

// RemoteMutex 跨實例的互斥鎖，例如 redis.AutoRenewMutex
// Lock 返回的 context 會在鎖失效時被取消
type RemoteMutex interface {
	Lock(ctx context.Context) (context.Context, error)
	Unlock() (bool, error)
}

// RemoteFactory 依照鍵值建立 RemoteMutex
type RemoteFactory func(key string) RemoteMutex

type managerOptions struct {
	waitTimeout time.Duration
	remote      RemoteFactory
	logger      *slog.Logger
}

type ManagerOption func(*managerOptions)

// WithWaitTimeout 設置等待鎖的上限，0 表示不限制
func WithWaitTimeout(d time.Duration) ManagerOption {
	return func(o *managerOptions) {
		o.waitTimeout = d
	}
}

// WithRemote 設置跨實例的鎖，第一次取得本地鎖時一併取得
func WithRemote(factory RemoteFactory) ManagerOption {
	return func(o *managerOptions) {
		o.remote = factory
	}
}

// WithLogger 設置日誌記錄器
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// waiter 排隊等待中的請求
type waiter struct {
	holder  string
	ready   chan struct{}
	granted bool
}

// entry 單一鍵值的鎖狀態，只有被持有時才會存在於 Manager.entries
type entry struct {
	holder  string
	depth   int
	waiters []*waiter

	// ready 在持有者完成啟用(取得遠端鎖)後關閉，err 為啟用結果
	ready   chan struct{}
	err     error
	remote  RemoteMutex
	lockCtx context.Context
}

// Manager 以鍵值(拍賣ID)為單位的互斥鎖
//   - 同一個 holder 可以重入
//   - 不同 holder 依 FIFO 排隊，釋放時直接交給隊首，不輪詢
//   - 等待時間有上限，超過返回 ErrLockTimeout
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
	logger  *slog.Logger
	options managerOptions
}

func NewManager(opts ...ManagerOption) *Manager {
	// 默認選項
	options := managerOptions{
		waitTimeout: 10 * time.Second,
		logger:      slog.Default(),
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	return &Manager{
		entries: make(map[string]*entry),
		logger:  options.logger.With(slog.String("caller", "LockManager")),
		options: options,
	}
}

// Acquire 取得 key 的鎖，返回的 Lease 必須以 defer lease.Release() 釋放
func (m *Manager) Acquire(ctx context.Context, key, holder string) (*Lease, error) {
	const op = "Manager.Acquire"
	if holder == "" {
		return nil, fmt.Errorf("[%s] %w", op, ErrEmptyHolder)
	}
	start := time.Now()
	waitCtx, cancel := m.waitContext(ctx)
	defer cancel()

	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		// 沒有人持有，直接取得
		e = &entry{}
		m.entries[key] = e
		m.grantLocked(e, holder)
		m.mu.Unlock()
		if err := m.activate(ctx, waitCtx, key, e); err != nil {
			return nil, fmt.Errorf("[%s] key=%s, holder=%s, err=%w", op, key, holder, err)
		}
		metrics.LockWaitDuration.Observe(time.Since(start).Seconds())
		return m.newLease(ctx, key, holder, e), nil
	}

	if e.holder == holder && e.depth > 0 {
		// 重入
		e.depth++
		ready := e.ready
		m.mu.Unlock()
		if err := m.awaitReady(ctx, waitCtx, e, ready); err != nil {
			m.release(key, e)
			return nil, fmt.Errorf("[%s] key=%s, holder=%s, err=%w", op, key, holder, err)
		}
		return m.newLease(ctx, key, holder, e), nil
	}

	// 被其他人持有，排隊
	w := &waiter{holder: holder, ready: make(chan struct{})}
	e.waiters = append(e.waiters, w)
	m.mu.Unlock()

	select {
	case <-w.ready:
	case <-waitCtx.Done():
		m.mu.Lock()
		if !w.granted {
			e.waiters = removeWaiter(e.waiters, w)
			m.mu.Unlock()
			err := m.waitError(ctx)
			m.logger.Debug("Give up waiting for lock", slog.String("key", key), slog.String("holder", holder), slog.Any("error", err))
			return nil, fmt.Errorf("[%s] key=%s, holder=%s, err=%w", op, key, holder, err)
		}
		// 放棄等待的同時已經被交接，必須把鎖交給下一位
		e.err = m.waitError(ctx)
		close(e.ready)
		m.mu.Unlock()
		m.release(key, e)
		return nil, fmt.Errorf("[%s] key=%s, holder=%s, err=%w", op, key, holder, e.err)
	}

	if err := m.activate(ctx, waitCtx, key, e); err != nil {
		return nil, fmt.Errorf("[%s] key=%s, holder=%s, err=%w", op, key, holder, err)
	}
	metrics.LockWaitDuration.Observe(time.Since(start).Seconds())
	return m.newLease(ctx, key, holder, e), nil
}

// Holder 返回目前持有 key 的 holder，沒有人持有時返回空字串
func (m *Manager) Holder(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok && e.depth > 0 {
		return e.holder
	}
	return ""
}

func (m *Manager) waitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.options.waitTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.options.waitTimeout)
}

// waitError 區分呼叫方取消與等待逾時
func (m *Manager) waitError(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	metrics.LockTimeoutsTotal.Inc()
	return ErrLockTimeout
}

func (m *Manager) grantLocked(e *entry, holder string) {
	e.holder = holder
	e.depth = 1
	e.ready = make(chan struct{})
	e.err = nil
	e.remote = nil
	e.lockCtx = nil
}

// activate 在取得本地鎖後取得遠端鎖，並通知等待中的重入者
func (m *Manager) activate(ctx, waitCtx context.Context, key string, e *entry) error {
	var (
		remote  RemoteMutex
		lockCtx context.Context
		err     error
	)
	if m.options.remote != nil {
		remote = m.options.remote(key)
		lockCtx, err = remote.Lock(waitCtx)
		if err != nil {
			if waitCtx.Err() != nil {
				err = m.waitError(ctx)
			}
			remote = nil
			lockCtx = nil
		}
	}

	m.mu.Lock()
	e.err = err
	e.remote = remote
	e.lockCtx = lockCtx
	close(e.ready)
	m.mu.Unlock()

	if err != nil {
		m.release(key, e)
		return err
	}
	return nil
}

// awaitReady 重入者等待持有者完成啟用
func (m *Manager) awaitReady(ctx, waitCtx context.Context, e *entry, ready chan struct{}) error {
	select {
	case <-ready:
		m.mu.Lock()
		defer m.mu.Unlock()
		return e.err
	case <-waitCtx.Done():
		return m.waitError(ctx)
	}
}

func (m *Manager) newLease(ctx context.Context, key, holder string, e *entry) *Lease {
	m.mu.Lock()
	lockCtx := e.lockCtx
	m.mu.Unlock()

	leaseCtx, cancel := context.WithCancel(ctx)
	if lockCtx != nil {
		// 遠端鎖失效時取消臨界區的 context
		stop := context.AfterFunc(lockCtx, cancel)
		return &Lease{manager: m, key: key, holder: holder, entry: e, ctx: leaseCtx, cancel: func() {
			stop()
			cancel()
		}}
	}
	return &Lease{manager: m, key: key, holder: holder, entry: e, ctx: leaseCtx, cancel: cancel}
}

// release 減少持有深度，歸零時釋放遠端鎖並交給下一位
func (m *Manager) release(key string, e *entry) {
	m.mu.Lock()
	e.depth--
	if e.depth > 0 {
		m.mu.Unlock()
		return
	}
	remote := e.remote
	e.remote = nil
	e.lockCtx = nil
	m.mu.Unlock()

	// 先釋放遠端鎖再交接，避免下一位在遠端鎖上空轉
	if remote != nil {
		if _, err := remote.Unlock(); err != nil {
			m.logger.Warn("Fail to release remote lock", slog.String("key", key), slog.Any("error", err))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(e.waiters) == 0 {
		delete(m.entries, key)
		return
	}
	next := e.waiters[0]
	e.waiters = e.waiters[1:]
	m.grantLocked(e, next.holder)
	next.granted = true
	close(next.ready)
}

func removeWaiter(waiters []*waiter, target *waiter) []*waiter {
	for i, w := range waiters {
		if w == target {
			return append(waiters[:i], waiters[i+1:]...)
		}
	}
	return waiters
}

// Lease 代表一次成功的取得，Release 可以重複呼叫
type Lease struct {
	manager *Manager
	key     string
	holder  string
	entry   *entry
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
}

// Context 臨界區應該使用的 context，遠端鎖失效或釋放後會被取消
func (l *Lease) Context() context.Context {
	return l.ctx
}

func (l *Lease) Key() string {
	return l.key
}

func (l *Lease) Holder() string {
	return l.holder
}

// Release 釋放鎖
func (l *Lease) Release() {
	l.once.Do(func() {
		l.cancel()
		l.manager.release(l.key, l.entry)
	})
}
