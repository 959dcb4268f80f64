package auction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bidhouse/lock"
	"bidhouse/metrics"
	"bidhouse/models"
)

// SystemHolderPrefix 系統內部的鎖持有者前綴，使用者名稱不可使用
const SystemHolderPrefix = "system:"

// ResolverHolder 結算時使用的鎖持有者名稱
const ResolverHolder = SystemHolderPrefix + "resolver"

// IsReservedUsername 名稱是否保留給系統內部使用
func IsReservedUsername(username string) bool {
	return strings.HasPrefix(username, SystemHolderPrefix)
}

type resolverOptions struct {
	interval time.Duration
	logger   *slog.Logger
	clock    func() time.Time
}

type ResolverOption func(*resolverOptions)

// WithResolverInterval 設置定期結算的間隔
func WithResolverInterval(interval time.Duration) ResolverOption {
	return func(o *resolverOptions) {
		o.interval = interval
	}
}

// WithResolverLogger 設置日誌記錄器
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(o *resolverOptions) {
		o.logger = logger
	}
}

// WithResolverClock 設置時間來源
func WithResolverClock(clock func() time.Time) ResolverOption {
	return func(o *resolverOptions) {
		o.clock = clock
	}
}

// Resolver 定期結算已經截止的拍賣
type Resolver struct {
	store      Store
	locks      *lock.Manager
	notifier   Notifier
	logger     *slog.Logger
	wg         sync.WaitGroup
	cancelFunc context.CancelFunc

	options resolverOptions
}

func NewResolver(store Store, locks *lock.Manager, notifier Notifier, opts ...ResolverOption) *Resolver {
	// 默認選項
	options := resolverOptions{
		interval: 30 * time.Second,
		logger:   slog.Default(),
		clock:    time.Now,
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	return &Resolver{
		store:    store,
		locks:    locks,
		notifier: notifier,
		logger:   options.logger.With(slog.String("caller", "Resolver")),
		options:  options,
	}
}

// Start 啟動定期結算的 worker
func (r *Resolver) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancelFunc = cancel
	r.logger.Info("Start auction resolver", slog.Duration("interval", r.options.interval))
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.logger.Info("Auction resolver stopped")
		ticker := time.NewTicker(r.options.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				resolved, err := r.ResolveExpired(ctx)
				if err != nil {
					r.logger.Error("Fail to resolve some auctions", slog.Int("resolved", resolved), slog.Any("error", err))
					continue
				}
				if resolved > 0 {
					r.logger.Info("Resolve expired auctions", slog.Int("resolved", resolved))
				}
			}
		}
	}()
}

// Close 停止 worker 並等待進行中的結算完成
func (r *Resolver) Close() {
	if r.cancelFunc != nil {
		r.cancelFunc()
	}
	r.wg.Wait()
}

// ResolveExpired 結算所有已經截止但仍在進行中的拍賣
// 單一拍賣失敗不會中斷其他拍賣，回傳成功結算的數量以及所有錯誤
func (r *Resolver) ResolveExpired(ctx context.Context) (int, error) {
	const op = "Resolver.ResolveExpired"
	expired, err := r.store.ListExpiredActive(ctx, r.options.clock())
	if err != nil {
		return 0, fmt.Errorf("[%s] Fail to list expired auctions, err=%w", op, err)
	}

	var (
		resolved int
		errs     []error
	)
	for _, item := range expired {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		event, ok, err := r.resolve(ctx, item.ID)
		if err != nil {
			r.logger.Error("Fail to resolve auction", slog.String("auctionID", item.ID.String()), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("auction=%s, err=%w", item.ID, err))
			continue
		}
		if !ok {
			continue
		}
		resolved++
		sendNotification(ctx, r.notifier, r.logger, event)
	}
	if len(errs) > 0 {
		return resolved, fmt.Errorf("[%s] %w", op, errors.Join(errs...))
	}
	return resolved, nil
}

// resolve 在鎖內重新確認拍賣仍需結算，截止時間可能已被最後一筆出價順延
func (r *Resolver) resolve(ctx context.Context, auctionID uuid.UUID) (Event, bool, error) {
	lease, err := r.locks.Acquire(ctx, auctionID.String(), ResolverHolder)
	if err != nil {
		return Event{}, false, err
	}
	defer lease.Release()
	ctx = lease.Context()

	auction, err := r.store.GetAuction(ctx, auctionID)
	if err != nil {
		return Event{}, false, err
	}
	now := r.options.clock()
	if !auction.IsActive() || !auction.Deadline.Before(now) {
		return Event{}, false, nil
	}
	if err := auction.Transition(models.StatusAdjudicated); err != nil {
		return Event{}, false, err
	}
	if err := r.store.SaveAuction(ctx, auction); err != nil {
		return Event{}, false, err
	}

	event := Event{
		Kind:         EventAuctionResolved,
		AuctionID:    auction.ID,
		AuctionTitle: auction.Title,
		OccurredAt:   now,
	}
	if !auction.HasBids() {
		metrics.AuctionsClosedTotal.WithLabelValues("unsold").Inc()
		event.Recipients = []string{auction.Seller}
		return event, true, nil
	}
	metrics.AuctionsClosedTotal.WithLabelValues("sold").Inc()
	event.Recipients = auction.Participants()
	event.Winner = auction.LastBidder
	event.Amount = auction.CurrentPrice.StringFixed(models.MoneyPlaces)
	return event, true, nil
}
