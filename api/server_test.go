package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisAdapter "bidhouse/adapters/redis"
	"bidhouse/auction"
)

func TestNewServer_Defaults(t *testing.T) {
	config, _ := newTestConfig(t)
	config.ID = ""
	config.Auction = AuctionConfig{}

	impl, err := NewServer(config, WithServerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	assert.Equal(t, "bidhouse", impl.config.ID)
	assert.Equal(t, "notifications", impl.config.Redis.StreamKeys.Notifications)
	assert.Equal(t, "mailer", impl.config.Redis.ConsumerGroup)
	assert.Equal(t, 30*time.Second, impl.config.Auction.SSEKeepAlive)
	assert.Nil(t, impl.producer)
	assert.Nil(t, impl.dispatcher)
	assert.Nil(t, impl.redisClient)
}

func TestServer_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	env := setupTest(t, func(c *ServerConfig) {
		c.Redis = RedisConfig{
			Addr:         mr.Addr(),
			KeyPrefix:    "bidhouse:",
			StreamMaxLen: 1000,
		}
	})
	require.NotNil(t, env.impl.producer)
	assert.Nil(t, env.impl.dispatcher)

	created := env.createAuction(t, "seller", "Lamp", "", "1")
	w := env.do(t, http.MethodPost, "/bids", env.token(t, "bob"), bidBody(created.ID, "2", ""))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	// 事件經由 producer 非同步寫入
	var messages []redis.XMessage
	require.Eventually(t, func() bool {
		var err error
		messages, err = client.XRange(ctx, "bidhouse:notifications", "-", "+").Result()
		return err == nil && len(messages) == 2
	}, 2*time.Second, 10*time.Millisecond)

	first, err := redisAdapter.DefaultParseFromMessage[auction.Event](messages[0].Values)
	require.NoError(t, err)
	assert.Equal(t, auction.EventAuctionCreated, first.Kind)
	second, err := redisAdapter.DefaultParseFromMessage[auction.Event](messages[1].Values)
	require.NoError(t, err)
	assert.Equal(t, auction.EventBidRegistered, second.Kind)
	assert.Equal(t, "2.00", second.Amount)

	// 出價完成後分散式鎖已經釋放
	assert.False(t, mr.Exists(redisAdapter.AuctionLockKey("bidhouse:", created.ID.String())))

	w = env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	mr.Close()
	w = env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
