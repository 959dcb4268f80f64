package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"

	"bidhouse/api/openapi"
	"bidhouse/auction"
	"bidhouse/models"
	"bidhouse/notify"
)

var _ openapi.StrictServerInterface = (*ServerImpl)(nil)

func newAuction(a models.Auction) openapi.Auction {
	return openapi.Auction{
		ID:           a.ID,
		Seller:       a.Seller,
		Title:        a.Title,
		Description:  a.Description,
		MinimumPrice: a.MinimumPrice.StringFixed(models.MoneyPlaces),
		CurrentPrice: a.CurrentPrice.StringFixed(models.MoneyPlaces),
		Deadline:     a.Deadline,
		Status:       a.Status.String(),
		LastBidder:   lo.EmptyableToPtr(a.LastBidder),
		BidderCount:  len(a.BidderHistory),
	}
}

func newBid(b models.Bid) openapi.Bid {
	return openapi.Bid{
		ID:        b.ID,
		AuctionID: b.AuctionID,
		Bidder:    b.Bidder,
		Amount:    b.Amount.StringFixed(models.MoneyPlaces),
	}
}

// Router 建立 HTTP 路由
func (impl *ServerImpl) Router() (*gin.Engine, error) {
	const op = "ServerImpl.Router"
	validator, err := impl.requestValidator()
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create request validator, err=%w", op, err)
	}

	router := gin.New()
	// handler 收到的 context 是 *gin.Context，取消與逾時要沿用請求的 context
	router.ContextWithFallback = true
	router.Use(gin.Recovery(), impl.requestLogger(), bodyLimit(impl.config.MaxBodyBytes), impl.handleErrors())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler := openapi.NewStrictHandler(impl, []openapi.StrictMiddlewareFunc{impl.errorResponder})
	openapi.RegisterHandlersWithOptions(router, handler, openapi.GinServerOptions{
		Middlewares:  []openapi.MiddlewareFunc{validator},
		ErrorHandler: paramErrorHandler,
	})
	return router, nil
}

func (impl *ServerImpl) requestLogger() gin.HandlerFunc {
	logger := impl.logger.With(slog.String("caller", "HTTP"))
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

// parseID 格式錯誤的 ID 視為不存在
func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed id %q", auction.ErrNotFound, raw)
	}
	return id, nil
}

// Health check
// (GET /healthz)
func (impl *ServerImpl) GetHealth(ctx context.Context, request openapi.GetHealthRequestObject) (openapi.GetHealthResponseObject, error) {
	if err := impl.Ping(ctx); err != nil {
		impl.logger.Warn("Health check failed", slog.Any("error", err))
		return openapi.GetHealth503JSONResponse{Status: "unavailable"}, nil
	}
	return openapi.GetHealth200JSONResponse{Status: "ok"}, nil
}

// List active auctions
// (GET /auctions)
func (impl *ServerImpl) ListAuctions(ctx context.Context, request openapi.ListAuctionsRequestObject) (openapi.ListAuctionsResponseObject, error) {
	auctions, err := impl.arbitrator.ListActive(ctx, lo.FromPtr(request.Params.Title))
	if err != nil {
		return nil, err
	}
	return openapi.ListAuctions200JSONResponse{Data: lo.Map(auctions, func(a models.Auction, _ int) openapi.Auction {
		return newAuction(a)
	})}, nil
}

// Create auction
// (POST /auctions)
func (impl *ServerImpl) CreateAuction(ctx context.Context, request openapi.CreateAuctionRequestObject) (openapi.CreateAuctionResponseObject, error) {
	created, err := impl.arbitrator.CreateAuction(ctx, auction.CreateAuctionRequest{
		Seller:       identity(ctx).Username,
		Title:        request.Body.Title,
		Description:  lo.FromPtr(request.Body.Description),
		MinimumPrice: lo.FromPtr(request.Body.MinimumPrice),
		Deadline:     lo.FromPtr(request.Body.Deadline),
	})
	if err != nil {
		return nil, err
	}
	return openapi.CreateAuction201JSONResponse{
		Body: openapi.AuctionEnvelope{Data: newAuction(*created)},
		Headers: openapi.CreateAuction201ResponseHeaders{
			Location: fmt.Sprintf("/auctions/%s", created.ID),
		},
	}, nil
}

// Get auction
// (GET /auctions/{auctionID})
func (impl *ServerImpl) GetAuction(ctx context.Context, request openapi.GetAuctionRequestObject) (openapi.GetAuctionResponseObject, error) {
	id, err := parseID(request.AuctionID)
	if err != nil {
		return nil, err
	}
	found, err := impl.arbitrator.GetAuction(ctx, id, identity(ctx))
	if err != nil {
		return nil, err
	}
	return openapi.GetAuction200JSONResponse{Data: newAuction(*found)}, nil
}

// Edit auction description
// (PATCH /auctions/{auctionID}/description)
func (impl *ServerImpl) EditAuctionDescription(ctx context.Context, request openapi.EditAuctionDescriptionRequestObject) (openapi.EditAuctionDescriptionResponseObject, error) {
	id, err := parseID(request.AuctionID)
	if err != nil {
		return nil, err
	}
	if _, err := impl.arbitrator.EditDescription(ctx, id, identity(ctx).Username, request.Body.Description); err != nil {
		return nil, err
	}
	return openapi.EditAuctionDescription204Response{}, nil
}

// Ban auction
// (POST /auctions/{auctionID}/ban)
func (impl *ServerImpl) BanAuction(ctx context.Context, request openapi.BanAuctionRequestObject) (openapi.BanAuctionResponseObject, error) {
	id, err := parseID(request.AuctionID)
	if err != nil {
		return nil, err
	}
	if err := impl.arbitrator.BanAuction(ctx, id, identity(ctx)); err != nil {
		return nil, err
	}
	return openapi.BanAuction204Response{}, nil
}

// List auction bids
// (GET /auctions/{auctionID}/bids)
func (impl *ServerImpl) ListAuctionBids(ctx context.Context, request openapi.ListAuctionBidsRequestObject) (openapi.ListAuctionBidsResponseObject, error) {
	id, err := parseID(request.AuctionID)
	if err != nil {
		return nil, err
	}
	bids, err := impl.arbitrator.ListBids(ctx, id, identity(ctx))
	if err != nil {
		return nil, err
	}
	return openapi.ListAuctionBids200JSONResponse{Data: lo.Map(bids, func(b models.Bid, _ int) openapi.Bid {
		return newBid(b)
	})}, nil
}

// Place bid
// (POST /bids)
func (impl *ServerImpl) PlaceBid(ctx context.Context, request openapi.PlaceBidRequestObject) (openapi.PlaceBidResponseObject, error) {
	bid, err := impl.arbitrator.PlaceBid(ctx, auction.BidRequest{
		AuctionID:           request.Body.AuctionID,
		Bidder:              identity(ctx).Username,
		ExpectedDescription: request.Body.ExpectedDescription,
		Amount:              request.Body.Bid,
	})
	if err != nil {
		return nil, err
	}
	return openapi.PlaceBid201JSONResponse{
		Body: openapi.BidEnvelope{Data: newBid(*bid)},
		Headers: openapi.PlaceBid201ResponseHeaders{
			Location: fmt.Sprintf("/bids/%s", bid.ID),
		},
	}, nil
}

// Get bid
// (GET /bids/{bidID})
func (impl *ServerImpl) GetBid(ctx context.Context, request openapi.GetBidRequestObject) (openapi.GetBidResponseObject, error) {
	id, err := parseID(request.BidID)
	if err != nil {
		return nil, err
	}
	bid, err := impl.arbitrator.GetBid(ctx, id, identity(ctx))
	if err != nil {
		return nil, err
	}
	return openapi.GetBid200JSONResponse{Data: newBid(*bid)}, nil
}

// Track auction events
// (GET /auctions/{auctionID}/events)
func (impl *ServerImpl) StreamAuctionEvents(ctx context.Context, request openapi.StreamAuctionEventsRequestObject) (openapi.StreamAuctionEventsResponseObject, error) {
	const op = "StreamAuctionEvents"
	id, err := parseID(request.AuctionID)
	if err != nil {
		return nil, err
	}
	// 先訂閱再檢查狀態，檢查之後才結束的拍賣一定會送出 closed 事件
	channel := id.String()
	ch, err := impl.sseManager.Subscribe(channel)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to subscribe to auction events, err=%w", op, err)
	}
	defer impl.sseManager.Unsubscribe(channel, ch)

	// 只開放進行中的拍賣
	if _, err := impl.arbitrator.GetAuction(ctx, id, auction.Identity{}); err != nil {
		return nil, err
	}

	// SSE請求合法，開始初始化串流
	c := ctx.(*gin.Context)
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	keepAlive := time.NewTicker(impl.config.Auction.SSEKeepAlive)
	defer keepAlive.Stop()
	done := c.Request.Context().Done()
LOOP:
	for {
		select {
		case <-done:
			break LOOP
		case event, ok := <-ch:
			if !ok {
				break LOOP
			}
			c.SSEvent(event.Event, event)
			w.Flush()
			if event.Event == notify.LiveEventClosed {
				break LOOP
			}
		// 一段時間沒有事件就發送註解，避免瀏覽器和代理伺服器斷開連線
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				impl.logger.Debug("SSE client gone", slog.String("auctionID", channel), slog.Any("error", err))
				break LOOP
			}
			w.Flush()
		}
	}
	return openapi.StreamAuctionEvents200Response{}, nil
}
