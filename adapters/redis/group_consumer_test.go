package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestNewGroupConsumer(t *testing.T) {
	tests := []struct {
		name     string
		client   *redis.Client
		stream   string
		group    string
		consumer string
		opts     []GroupConsumerOption[TestMessage]
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "valid configuration",
			client:   redis.NewClient(&redis.Options{}),
			stream:   "bh:events",
			group:    "notifier",
			consumer: "node-1",
			wantErr:  false,
		},
		{
			name:     "nil client",
			client:   nil,
			stream:   "bh:events",
			group:    "notifier",
			consumer: "node-1",
			wantErr:  true,
			errMsg:   "redis client cannot be nil",
		},
		{
			name:     "empty stream",
			client:   redis.NewClient(&redis.Options{}),
			stream:   "",
			group:    "notifier",
			consumer: "node-1",
			wantErr:  true,
			errMsg:   "stream, group and consumer cannot be empty",
		},
		{
			name:     "with strict ordering and mutex",
			client:   redis.NewClient(&redis.Options{}),
			stream:   "bh:events",
			group:    "notifier",
			consumer: "node-1",
			opts: []GroupConsumerOption[TestMessage]{
				WithGroupConsumerLogger[TestMessage](slog.Default()),
				WithGroupConsumerParseFunc[TestMessage](DefaultParseFromMessage[TestMessage]),
				WithGroupConsumerBufferSize[TestMessage](1),
				WithGroupConsumerBatchSize[TestMessage](4),
				WithGroupConsumerBlockTimeout[TestMessage](time.Second),
				WithGroupConsumerRetryDelay[TestMessage](time.Second),
				WithGroupConsumerDeadLetter[TestMessage]("bh:events:failed"),
				WithGroupConsumerCreateGroup[TestMessage](false),
				WithGroupConsumerStrictOrdering[TestMessage](true),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			consumer, err := NewGroupConsumer(
				tt.client,
				tt.stream,
				tt.group,
				tt.consumer,
				tt.opts...,
			)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, consumer)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, consumer)
			}

			if tt.client != nil {
				tt.client.Close()
			}
		})
	}
}

func newTestGroupConsumer(t *testing.T, client *redis.Client, opts ...GroupConsumerOption[TestMessage]) IGroupConsumer[TestMessage] {
	t.Helper()
	opts = append([]GroupConsumerOption[TestMessage]{
		WithGroupConsumerBlockTimeout[TestMessage](50 * time.Millisecond),
		WithGroupConsumerRetryDelay[TestMessage](10 * time.Millisecond),
	}, opts...)
	consumer, err := NewGroupConsumer[TestMessage](client, "bh:events", "notifier", "node-1", opts...)
	require.NoError(t, err)
	return consumer
}

func pendingCount(t *testing.T, client *redis.Client) int64 {
	t.Helper()
	pending, err := client.XPending(context.Background(), "bh:events", "notifier").Result()
	require.NoError(t, err)
	return pending.Count
}

func TestGroupConsumer_StartStop(t *testing.T) {
	t.Run("creates group and stream", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		_, client, cleanup := setupMiniredis(t)
		defer cleanup()

		consumer := newTestGroupConsumer(t, client)
		require.NoError(t, consumer.Start())
		require.NoError(t, consumer.Start())
		ch := consumer.Subscribe()
		require.NoError(t, consumer.Close())
		require.NoError(t, consumer.Close())

		_, ok := <-ch
		assert.False(t, ok, "downstream should be closed")

		n, err := client.Exists(context.Background(), "bh:events").Result()
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("existing group is reused", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		_, client, cleanup := setupMiniredis(t)
		defer cleanup()
		require.NoError(t, client.XGroupCreateMkStream(context.Background(), "bh:events", "notifier", "0").Err())

		consumer := newTestGroupConsumer(t, client)
		require.NoError(t, consumer.Start())
		require.NoError(t, consumer.Close())
	})

	t.Run("group creation failure", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		mr, client, cleanup := setupMiniredis(t)
		defer cleanup()
		mr.Close()

		consumer := newTestGroupConsumer(t, client)
		err := consumer.Start()
		assert.ErrorContains(t, err, "Fail to create consumer group")
	})

	t.Run("lock error keeps retrying until close", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		_, client, cleanup := setupMiniredis(t)
		defer cleanup()

		ctrl := gomock.NewController(t)
		mockMutex := NewMockIAutoRenewMutex(ctrl)
		mockMutex.EXPECT().Lock(gomock.Any()).Return(nil, errors.New("lock error")).MinTimes(1)

		consumer := newTestGroupConsumer(t, client,
			WithGroupConsumerStrictOrdering[TestMessage](true),
			WithGroupConsumerMutex[TestMessage](mockMutex),
		)
		require.NoError(t, consumer.Start())
		time.Sleep(50 * time.Millisecond)
		require.NoError(t, consumer.Close())
	})
}

func TestGroupConsumer_MessageProcessing(t *testing.T) {
	t.Run("done acknowledges the message", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		_, client, cleanup := setupMiniredis(t)
		defer cleanup()

		consumer := newTestGroupConsumer(t, client)
		require.NoError(t, consumer.Start())
		defer consumer.Close()

		addTestMessage(t, client, TestMessage{ID: "1", Data: "hello"})

		msg := receive(t, consumer.Subscribe())
		assert.Equal(t, TestMessage{ID: "1", Data: "hello"}, msg.Data)
		assert.EqualValues(t, 1, pendingCount(t, client))

		require.NoError(t, msg.Done(context.Background()))
		require.NoError(t, msg.Done(context.Background()))
		assert.EqualValues(t, 0, pendingCount(t, client))
	})

	t.Run("messages published before start are delivered", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		_, client, cleanup := setupMiniredis(t)
		defer cleanup()

		addTestMessage(t, client, TestMessage{ID: "early"})

		consumer := newTestGroupConsumer(t, client)
		require.NoError(t, consumer.Start())
		defer consumer.Close()

		assert.Equal(t, "early", receive(t, consumer.Subscribe()).Data.ID)
	})

	t.Run("fail moves message to dead letter", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		_, client, cleanup := setupMiniredis(t)
		defer cleanup()

		consumer := newTestGroupConsumer(t, client, WithGroupConsumerDeadLetter[TestMessage]("bh:events:failed"))
		require.NoError(t, consumer.Start())
		defer consumer.Close()

		addTestMessage(t, client, TestMessage{ID: "1"})

		msg := receive(t, consumer.Subscribe())
		require.NoError(t, msg.Fail(context.Background(), errors.New("smtp unavailable")))
		require.NoError(t, msg.Fail(context.Background(), errors.New("ignored")))
		assert.EqualValues(t, 0, pendingCount(t, client))

		dead, err := client.XRange(context.Background(), "bh:events:failed", "-", "+").Result()
		require.NoError(t, err)
		require.Len(t, dead, 1)
		assert.Equal(t, "smtp unavailable", dead[0].Values["error"])

		got, err := DefaultParseFromMessage[TestMessage](dead[0].Values)
		require.NoError(t, err)
		assert.Equal(t, "1", got.ID)
	})

	t.Run("parse error goes to dead letter and processing continues", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		_, client, cleanup := setupMiniredis(t)
		defer cleanup()

		consumer := newTestGroupConsumer(t, client)
		require.NoError(t, consumer.Start())
		defer consumer.Close()

		require.NoError(t, client.XAdd(context.Background(), &redis.XAddArgs{
			Stream: "bh:events",
			Values: map[string]any{"data": "not-base64!"},
		}).Err())
		addTestMessage(t, client, TestMessage{ID: "good"})

		msg := receive(t, consumer.Subscribe())
		assert.Equal(t, "good", msg.Data.ID)
		require.NoError(t, msg.Done(context.Background()))

		dead, err := client.XRange(context.Background(), "bh:events:dead-letter", "-", "+").Result()
		require.NoError(t, err)
		require.Len(t, dead, 1)
		assert.Equal(t, "not-base64!", dead[0].Values["data"])
	})

	t.Run("in order", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		_, client, cleanup := setupMiniredis(t)
		defer cleanup()

		consumer := newTestGroupConsumer(t, client)
		require.NoError(t, consumer.Start())
		defer consumer.Close()

		for i := 0; i < 10; i++ {
			addTestMessage(t, client, TestMessage{ID: fmt.Sprint(i)})
		}
		for i := 0; i < 10; i++ {
			msg := receive(t, consumer.Subscribe())
			assert.Equal(t, fmt.Sprint(i), msg.Data.ID)
			require.NoError(t, msg.Done(context.Background()))
		}
	})
}

func TestGroupConsumer_Pending(t *testing.T) {
	readAs := func(t *testing.T, client *redis.Client, consumer string) {
		t.Helper()
		_, err := client.XReadGroup(context.Background(), &redis.XReadGroupArgs{
			Group:    "notifier",
			Consumer: consumer,
			Streams:  []string{"bh:events", ">"},
			Count:    1,
		}).Result()
		require.NoError(t, err)
	}

	t.Run("own pending messages are redelivered", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		_, client, cleanup := setupMiniredis(t)
		defer cleanup()

		require.NoError(t, client.XGroupCreateMkStream(context.Background(), "bh:events", "notifier", "0").Err())
		addTestMessage(t, client, TestMessage{ID: "mine"})
		readAs(t, client, "node-1")

		consumer := newTestGroupConsumer(t, client)
		require.NoError(t, consumer.Start())
		defer consumer.Close()

		msg := receive(t, consumer.Subscribe())
		assert.Equal(t, "mine", msg.Data.ID)
		require.NoError(t, msg.Done(context.Background()))
		assert.EqualValues(t, 0, pendingCount(t, client))
	})

	t.Run("other consumers' pending messages are left alone", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		_, client, cleanup := setupMiniredis(t)
		defer cleanup()

		require.NoError(t, client.XGroupCreateMkStream(context.Background(), "bh:events", "notifier", "0").Err())
		addTestMessage(t, client, TestMessage{ID: "theirs"})
		readAs(t, client, "node-0")
		addTestMessage(t, client, TestMessage{ID: "new"})

		consumer := newTestGroupConsumer(t, client)
		require.NoError(t, consumer.Start())
		defer consumer.Close()

		msg := receive(t, consumer.Subscribe())
		assert.Equal(t, "new", msg.Data.ID)
		require.NoError(t, msg.Done(context.Background()))
		assert.EqualValues(t, 1, pendingCount(t, client))
	})

	t.Run("batched reads keep order", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		_, client, cleanup := setupMiniredis(t)
		defer cleanup()

		for i := 0; i < 5; i++ {
			addTestMessage(t, client, TestMessage{ID: fmt.Sprint(i)})
		}
		consumer := newTestGroupConsumer(t, client, WithGroupConsumerBatchSize[TestMessage](2))
		require.NoError(t, consumer.Start())
		defer consumer.Close()

		for i := 0; i < 5; i++ {
			msg := receive(t, consumer.Subscribe())
			assert.Equal(t, fmt.Sprint(i), msg.Data.ID)
			require.NoError(t, msg.Done(context.Background()))
		}
	})
}

func TestGroupConsumer_StrictOrdering(t *testing.T) {
	t.Run("pending messages are redelivered first", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		_, client, cleanup := setupMiniredis(t)
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, client.XGroupCreateMkStream(ctx, "bh:events", "notifier", "0").Err())
		addTestMessage(t, client, TestMessage{ID: "pending"})
		// 上一個實例讀取後沒有確認就退出
		_, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    "notifier",
			Consumer: "node-0",
			Streams:  []string{"bh:events", ">"},
			Count:    1,
		}).Result()
		require.NoError(t, err)
		addTestMessage(t, client, TestMessage{ID: "new"})

		ctrl := gomock.NewController(t)
		mockMutex := NewMockIAutoRenewMutex(ctrl)
		mockMutex.EXPECT().Lock(gomock.Any()).Return(context.Background(), nil)
		mockMutex.EXPECT().Unlock().Return(true, nil)

		consumer := newTestGroupConsumer(t, client,
			WithGroupConsumerStrictOrdering[TestMessage](true),
			WithGroupConsumerMutex[TestMessage](mockMutex),
		)
		require.NoError(t, consumer.Start())

		first := receive(t, consumer.Subscribe())
		assert.Equal(t, "pending", first.Data.ID)
		require.NoError(t, first.Done(ctx))

		second := receive(t, consumer.Subscribe())
		assert.Equal(t, "new", second.Data.ID)
		require.NoError(t, second.Done(ctx))

		require.NoError(t, consumer.Close())
	})

	t.Run("lost lock restarts processing", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		_, client, cleanup := setupMiniredis(t)
		defer cleanup()

		lockCtx, loseLock := context.WithCancel(context.Background())
		ctrl := gomock.NewController(t)
		mockMutex := NewMockIAutoRenewMutex(ctrl)
		gomock.InOrder(
			mockMutex.EXPECT().Lock(gomock.Any()).Return(lockCtx, nil),
			mockMutex.EXPECT().Unlock().Return(false, nil),
			mockMutex.EXPECT().Lock(gomock.Any()).Return(context.Background(), nil),
			mockMutex.EXPECT().Unlock().Return(true, nil),
		)

		consumer := newTestGroupConsumer(t, client,
			WithGroupConsumerStrictOrdering[TestMessage](true),
			WithGroupConsumerMutex[TestMessage](mockMutex),
		)
		require.NoError(t, consumer.Start())

		loseLock()
		addTestMessage(t, client, TestMessage{ID: "after"})

		msg := receive(t, consumer.Subscribe())
		assert.Equal(t, "after", msg.Data.ID)
		require.NoError(t, consumer.Close())
	})

	t.Run("default mutex on redis", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		_, client, cleanup := setupMiniredis(t)
		defer cleanup()

		consumer := newTestGroupConsumer(t, client, WithGroupConsumerStrictOrdering[TestMessage](true))
		require.NoError(t, consumer.Start())

		addTestMessage(t, client, TestMessage{ID: "1"})
		msg := receive(t, consumer.Subscribe())
		assert.Equal(t, "1", msg.Data.ID)
		require.NoError(t, msg.Done(context.Background()))

		require.NoError(t, consumer.Close())
	})
}

func TestMessage_Done(t *testing.T) {
	t.Run("ack error", func(t *testing.T) {
		client, mock, cleanup := setupTest(t)
		defer cleanup()

		mock.ExpectXAck("bh:events", "notifier", "1-0").SetErr(errors.New("ack error"))

		msg := &Message[TestMessage]{
			client:    client,
			messageID: "1-0",
			stream:    "bh:events",
			group:     "notifier",
		}
		err := msg.Done(context.Background())
		assert.ErrorContains(t, err, "failed to ack message")
		assert.False(t, msg.done)
	})

	t.Run("dead letter error", func(t *testing.T) {
		client, mock, cleanup := setupTest(t)
		defer cleanup()

		raw := map[string]any{"data": "x"}
		mock.ExpectXAdd(&redis.XAddArgs{
			Stream: "bh:events:dead-letter",
			Values: map[string]any{"data": "x", "error": "boom"},
		}).SetErr(errors.New("redis down"))

		msg := &Message[TestMessage]{
			client:     client,
			messageID:  "1-0",
			stream:     "bh:events",
			group:      "notifier",
			deadLetter: "bh:events:dead-letter",
			raw:        raw,
		}
		err := msg.Fail(context.Background(), errors.New("boom"))
		assert.ErrorContains(t, err, "failed to move message to dead letter queue")
		assert.False(t, msg.done)
	})
}
