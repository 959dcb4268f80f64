package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"bidhouse/adapters/redis"
	"bidhouse/adapters/sse"
	"bidhouse/auction"
	"bidhouse/notify"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func bidEvent() auction.Event {
	return auction.Event{
		Kind:         auction.EventBidRegistered,
		AuctionID:    uuid.New(),
		AuctionTitle: "Lamp",
		Recipients:   []string{"carol", "bob"},
		Bidder:       "bob",
		Amount:       "3.00",
		OccurredAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStreamNotifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	producer := redis.NewMockIProducer[auction.Event](ctrl)
	event := bidEvent()

	producer.EXPECT().Publish(event).Return(nil)
	producer.EXPECT().Publish(event).Return(redis.ErrProducerClosed)

	n := notify.NewStreamNotifier(producer)
	assert.NoError(t, n.Send(context.Background(), event))
	assert.ErrorIs(t, n.Send(context.Background(), event), redis.ErrProducerClosed)
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, notify.NewLogNotifier(discard).Send(context.Background(), bidEvent()))
	assert.NoError(t, notify.NewLogNotifier(nil).Send(context.Background(), bidEvent()))
}

func TestMulti(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := auction.NewMockNotifier(ctrl)
	second := auction.NewMockNotifier(ctrl)
	event := bidEvent()
	boom := errors.New("boom")

	// 第一個失敗不影響第二個
	first.EXPECT().Send(gomock.Any(), event).Return(boom)
	second.EXPECT().Send(gomock.Any(), event).Return(nil)

	err := notify.Multi{first, second}.Send(context.Background(), event)
	assert.ErrorIs(t, err, boom)
}

func TestLiveRequest(t *testing.T) {
	event := bidEvent()

	req, ok := notify.LiveRequest(event)
	require.True(t, ok)
	assert.Equal(t, event.AuctionID.String(), req.Channel)
	assert.Equal(t, notify.LiveEventBid, req.Message.Event)
	assert.Equal(t, "bob", req.Message.Bidder)
	assert.Equal(t, "3.00", req.Message.Amount)

	event.Kind = auction.EventAuctionResolved
	event.Winner = "bob"
	req, ok = notify.LiveRequest(event)
	require.True(t, ok)
	assert.Equal(t, notify.LiveEventClosed, req.Message.Event)
	assert.Equal(t, "resolved", req.Message.Reason)
	assert.Equal(t, "bob", req.Message.Winner)

	event.Kind = auction.EventAuctionBanned
	req, ok = notify.LiveRequest(event)
	require.True(t, ok)
	assert.Equal(t, "banned", req.Message.Reason)

	event.Kind = auction.EventAuctionCreated
	_, ok = notify.LiveRequest(event)
	assert.False(t, ok)
}

func TestParseLiveRequest(t *testing.T) {
	event := bidEvent()
	message, err := redis.DefaultParseToMessage(event)
	require.NoError(t, err)

	req, err := notify.ParseLiveRequest(message)
	require.NoError(t, err)
	assert.Equal(t, event.AuctionID.String(), req.Channel)
	assert.True(t, event.OccurredAt.Equal(req.Message.OccurredAt))

	event.Kind = auction.EventAuctionCreated
	message, err = redis.DefaultParseToMessage(event)
	require.NoError(t, err)
	req, err = notify.ParseLiveRequest(message)
	require.NoError(t, err)
	assert.Empty(t, req.Channel)

	_, err = notify.ParseLiveRequest(map[string]any{"data": 1})
	assert.Error(t, err)
}

func TestLiveNotifier(t *testing.T) {
	defer goleak.VerifyNone(t)
	cm := sse.NewConnectionManager[notify.LiveEvent](sse.WithLogger[notify.LiveEvent](discard))
	cm.Start()
	defer cm.Done()

	event := bidEvent()
	ch, err := cm.Subscribe(event.AuctionID.String())
	require.NoError(t, err)

	n := notify.NewLiveNotifier(cm)
	require.NoError(t, n.Send(context.Background(), event))
	assert.Equal(t, "3.00", (<-ch).Amount)

	created := event
	created.Kind = auction.EventAuctionCreated
	require.NoError(t, n.Send(context.Background(), created))
	assert.Empty(t, ch)
}
