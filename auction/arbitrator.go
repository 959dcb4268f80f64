package auction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"bidhouse/lock"
	"bidhouse/metrics"
	"bidhouse/models"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 1000
)

// maxMoney numeric(15,2) 可以表示的上限(不含)
var maxMoney = decimal.New(1, 13)

// Identity 經過驗證的請求者
type Identity struct {
	Username  string
	Moderator bool
}

// BidRequest 出價請求
// ExpectedDescription 是出價者下標時看到的商品描述
type BidRequest struct {
	AuctionID           uuid.UUID
	Bidder              string
	ExpectedDescription string
	Amount              decimal.Decimal
}

// CreateAuctionRequest 建立拍賣請求
type CreateAuctionRequest struct {
	Seller       string
	Title        string
	Description  string
	MinimumPrice decimal.Decimal
	Deadline     time.Time
}

type arbitratorOptions struct {
	logger    *slog.Logger
	clock     func() time.Time
	sanitizer *bluemonday.Policy
}

type ArbitratorOption func(*arbitratorOptions)

// WithArbitratorLogger 設置日誌記錄器
func WithArbitratorLogger(logger *slog.Logger) ArbitratorOption {
	return func(o *arbitratorOptions) {
		o.logger = logger
	}
}

// WithArbitratorClock 設置時間來源
func WithArbitratorClock(clock func() time.Time) ArbitratorOption {
	return func(o *arbitratorOptions) {
		o.clock = clock
	}
}

// WithArbitratorSanitizer 設置標題與描述的 HTML 過濾規則
func WithArbitratorSanitizer(policy *bluemonday.Policy) ArbitratorOption {
	return func(o *arbitratorOptions) {
		o.sanitizer = policy
	}
}

// Arbitrator 負責拍賣的所有寫入操作
// 每個寫入都在該拍賣的鎖內重新讀取、檢查、寫回，釋放鎖之後才發送通知
type Arbitrator struct {
	store    Store
	locks    *lock.Manager
	notifier Notifier
	logger   *slog.Logger
	options  arbitratorOptions
}

func NewArbitrator(store Store, locks *lock.Manager, notifier Notifier, opts ...ArbitratorOption) *Arbitrator {
	// 默認選項
	options := arbitratorOptions{
		logger:    slog.Default(),
		clock:     time.Now,
		sanitizer: bluemonday.StrictPolicy(),
	}

	// 應用自定義選項
	for _, opt := range opts {
		opt(&options)
	}

	return &Arbitrator{
		store:    store,
		locks:    locks,
		notifier: notifier,
		logger:   options.logger.With(slog.String("caller", "Arbitrator")),
		options:  options,
	}
}

// PlaceBid 對拍賣出價
// 依序檢查：拍賣是否進行中、是否為賣家本人、描述是否已被修改、金額是否高於目前價格，最後才檢查金額格式
func (a *Arbitrator) PlaceBid(ctx context.Context, req BidRequest) (*models.Bid, error) {
	const op = "Arbitrator.PlaceBid"
	bid, event, err := a.placeBid(ctx, req)
	metrics.BidsTotal.WithLabelValues(bidResult(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("[%s] auction=%s, bidder=%s, err=%w", op, req.AuctionID, req.Bidder, err)
	}
	a.notify(ctx, event)
	return bid, nil
}

func (a *Arbitrator) placeBid(ctx context.Context, req BidRequest) (*models.Bid, Event, error) {
	if req.Bidder == "" {
		return nil, Event{}, fmt.Errorf("%w: bidder is required", ErrValidation)
	}
	lease, err := a.locks.Acquire(ctx, req.AuctionID.String(), req.Bidder)
	if err != nil {
		return nil, Event{}, err
	}
	defer lease.Release()
	ctx = lease.Context()

	auction, err := a.store.GetAuction(ctx, req.AuctionID)
	if err != nil {
		return nil, Event{}, err
	}
	switch {
	case !auction.IsActive():
		return nil, Event{}, ErrInactive
	case auction.Seller == req.Bidder:
		return nil, Event{}, fmt.Errorf("%w: seller cannot bid on own auction", ErrForbidden)
	case auction.Description != req.ExpectedDescription:
		return nil, Event{}, ErrStaleDescription
	case req.Amount.LessThanOrEqual(auction.CurrentPrice):
		return nil, Event{}, fmt.Errorf("%w: current=%s, bid=%s", ErrOutbidTooLate, auction.CurrentPrice.StringFixed(models.MoneyPlaces), req.Amount.String())
	case !validMoney(req.Amount):
		return nil, Event{}, fmt.Errorf("%w: amount must have at most %d decimal places", ErrValidation, models.MoneyPlaces)
	}

	previous := auction.LastBidder
	now := a.options.clock()
	extended := auction.RecordBid(req.Bidder, req.Amount, now)
	bid := &models.Bid{
		AuctionID: auction.ID,
		Bidder:    req.Bidder,
		Amount:    req.Amount,
		CreatedAt: now,
	}
	if err := a.store.SaveBid(ctx, auction, bid); err != nil {
		return nil, Event{}, err
	}
	if extended {
		metrics.DeadlineExtensionsTotal.Inc()
		a.logger.Info("Extend auction deadline", slog.String("auctionID", auction.ID.String()), slog.Time("deadline", auction.Deadline))
	}
	a.logger.Debug("Bid registered", slog.String("auctionID", auction.ID.String()), slog.String("bidder", req.Bidder), slog.String("amount", req.Amount.String()))

	return bid, Event{
		Kind:         EventBidRegistered,
		AuctionID:    auction.ID,
		AuctionTitle: auction.Title,
		Recipients:   lo.Uniq(lo.Compact([]string{previous, auction.Seller, req.Bidder})),
		Bidder:       req.Bidder,
		Amount:       req.Amount.StringFixed(models.MoneyPlaces),
		OccurredAt:   now,
	}, nil
}

// CreateAuction 建立新的拍賣
// 截止時間至少為現在起算 models.MinimumDuration
func (a *Arbitrator) CreateAuction(ctx context.Context, req CreateAuctionRequest) (*models.Auction, error) {
	const op = "Arbitrator.CreateAuction"
	title := strings.TrimSpace(a.options.sanitizer.Sanitize(req.Title))
	description := strings.TrimSpace(a.options.sanitizer.Sanitize(req.Description))
	switch {
	case req.Seller == "":
		return nil, fmt.Errorf("[%s] %w: seller is required", op, ErrValidation)
	case title == "" || utf8.RuneCountInString(title) > maxTitleLength:
		return nil, fmt.Errorf("[%s] %w: title must be 1-%d characters", op, ErrValidation, maxTitleLength)
	case utf8.RuneCountInString(description) > maxDescriptionLength:
		return nil, fmt.Errorf("[%s] %w: description must be at most %d characters", op, ErrValidation, maxDescriptionLength)
	case req.MinimumPrice.IsNegative() || !validMoney(req.MinimumPrice):
		return nil, fmt.Errorf("[%s] %w: invalid minimum price", op, ErrValidation)
	}

	now := a.options.clock()
	deadline := req.Deadline
	if earliest := now.Add(models.MinimumDuration); deadline.Before(earliest) {
		deadline = earliest
	}
	auction := &models.Auction{
		Seller:        req.Seller,
		Title:         title,
		Description:   description,
		MinimumPrice:  req.MinimumPrice,
		CurrentPrice:  req.MinimumPrice,
		Deadline:      deadline,
		Status:        models.StatusActive,
		BidderHistory: []string{},
	}
	if err := a.store.CreateAuction(ctx, auction); err != nil {
		return nil, fmt.Errorf("[%s] Fail to create auction, err=%w", op, err)
	}

	a.notify(ctx, Event{
		Kind:         EventAuctionCreated,
		AuctionID:    auction.ID,
		AuctionTitle: auction.Title,
		Recipients:   []string{auction.Seller},
		Amount:       auction.MinimumPrice.StringFixed(models.MoneyPlaces),
		OccurredAt:   now,
	})
	return auction, nil
}

// EditDescription 賣家修改進行中拍賣的描述
func (a *Arbitrator) EditDescription(ctx context.Context, auctionID uuid.UUID, seller, description string) (*models.Auction, error) {
	const op = "Arbitrator.EditDescription"
	description = strings.TrimSpace(a.options.sanitizer.Sanitize(description))
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, fmt.Errorf("[%s] %w: description must be at most %d characters", op, ErrValidation, maxDescriptionLength)
	}

	lease, err := a.locks.Acquire(ctx, auctionID.String(), seller)
	if err != nil {
		return nil, fmt.Errorf("[%s] auction=%s, err=%w", op, auctionID, err)
	}
	defer lease.Release()
	ctx = lease.Context()

	auction, err := a.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("[%s] auction=%s, err=%w", op, auctionID, err)
	}
	if auction.Seller != seller {
		return nil, fmt.Errorf("[%s] auction=%s, err=%w: only the seller can edit the description", op, auctionID, ErrForbidden)
	}
	if !auction.IsActive() {
		return nil, fmt.Errorf("[%s] auction=%s, err=%w", op, auctionID, ErrInactive)
	}
	auction.Description = description
	if err := a.store.SaveAuction(ctx, auction); err != nil {
		return nil, fmt.Errorf("[%s] Fail to save auction, auction=%s, err=%w", op, auctionID, err)
	}
	return auction, nil
}

// BanAuction 管理員封鎖進行中的拍賣，並通知賣家與所有出價者
func (a *Arbitrator) BanAuction(ctx context.Context, auctionID uuid.UUID, requester Identity) error {
	const op = "Arbitrator.BanAuction"
	if !requester.Moderator {
		return fmt.Errorf("[%s] auction=%s, err=%w: moderator only", op, auctionID, ErrForbidden)
	}
	event, err := a.ban(ctx, auctionID, requester.Username)
	if err != nil {
		return fmt.Errorf("[%s] auction=%s, err=%w", op, auctionID, err)
	}
	a.logger.Info("Auction banned", slog.String("auctionID", auctionID.String()), slog.String("moderator", requester.Username))
	a.notify(ctx, event)
	return nil
}

func (a *Arbitrator) ban(ctx context.Context, auctionID uuid.UUID, holder string) (Event, error) {
	lease, err := a.locks.Acquire(ctx, auctionID.String(), holder)
	if err != nil {
		return Event{}, err
	}
	defer lease.Release()
	ctx = lease.Context()

	auction, err := a.store.GetAuction(ctx, auctionID)
	if err != nil {
		return Event{}, err
	}
	if !auction.IsActive() {
		return Event{}, ErrInactive
	}
	if err := auction.Transition(models.StatusBanned); err != nil {
		return Event{}, err
	}
	if err := a.store.SaveAuction(ctx, auction); err != nil {
		return Event{}, err
	}
	metrics.AuctionsClosedTotal.WithLabelValues("banned").Inc()
	return Event{
		Kind:         EventAuctionBanned,
		AuctionID:    auction.ID,
		AuctionTitle: auction.Title,
		Recipients:   auction.Participants(),
		OccurredAt:   a.options.clock(),
	}, nil
}

// GetAuction 查詢拍賣，非進行中的拍賣只有管理員可以查看
func (a *Arbitrator) GetAuction(ctx context.Context, auctionID uuid.UUID, requester Identity) (*models.Auction, error) {
	const op = "Arbitrator.GetAuction"
	auction, err := a.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("[%s] auction=%s, err=%w", op, auctionID, err)
	}
	if !auction.IsActive() && !requester.Moderator {
		return nil, fmt.Errorf("[%s] auction=%s, err=%w", op, auctionID, ErrInactive)
	}
	return auction, nil
}

// ListActive 列出進行中的拍賣
func (a *Arbitrator) ListActive(ctx context.Context, title string) ([]models.Auction, error) {
	const op = "Arbitrator.ListActive"
	auctions, err := a.store.ListActive(ctx, strings.TrimSpace(title))
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to list auctions, err=%w", op, err)
	}
	return auctions, nil
}

// GetBid 查詢出價紀錄，只有出價者本人可以查看
func (a *Arbitrator) GetBid(ctx context.Context, bidID uuid.UUID, requester Identity) (*models.Bid, error) {
	const op = "Arbitrator.GetBid"
	bid, err := a.store.GetBid(ctx, bidID)
	if err != nil {
		return nil, fmt.Errorf("[%s] bid=%s, err=%w", op, bidID, err)
	}
	if bid.Bidder != requester.Username {
		return nil, fmt.Errorf("[%s] bid=%s, err=%w: not the bidder", op, bidID, ErrForbidden)
	}
	return bid, nil
}

// ListBids 查詢拍賣的出價紀錄
// 拍賣的可見性與 GetAuction 相同；賣家與管理員看得到全部出價，其他人只看得到自己的
func (a *Arbitrator) ListBids(ctx context.Context, auctionID uuid.UUID, requester Identity) ([]models.Bid, error) {
	const op = "Arbitrator.ListBids"
	auction, err := a.GetAuction(ctx, auctionID, requester)
	if err != nil {
		return nil, err
	}
	bids, err := a.store.ListBids(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to list bids, auction=%s, err=%w", op, auctionID, err)
	}
	if requester.Moderator || requester.Username == auction.Seller {
		return bids, nil
	}
	return lo.Filter(bids, func(b models.Bid, _ int) bool {
		return requester.Username != "" && b.Bidder == requester.Username
	}), nil
}

func (a *Arbitrator) notify(ctx context.Context, event Event) {
	sendNotification(ctx, a.notifier, a.logger, event)
}

// sendNotification 發送通知，失敗只記錄日誌
func sendNotification(ctx context.Context, notifier Notifier, logger *slog.Logger, event Event) {
	if notifier == nil {
		return
	}
	if err := notifier.Send(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn("Fail to send notification",
			slog.String("kind", string(event.Kind)),
			slog.String("auctionID", event.AuctionID.String()),
			slog.Any("error", err),
		)
	}
}

// validMoney 檢查金額是否符合 numeric(15,2)
func validMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(models.MoneyPlaces)) && d.Abs().LessThan(maxMoney)
}

func bidResult(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInactive):
		return "inactive"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrStaleDescription):
		return "stale_description"
	case errors.Is(err, ErrOutbidTooLate):
		return "outbid"
	case errors.Is(err, ErrLockTimeout):
		return "lock_timeout"
	default:
		return "error"
	}
}
