package redis

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type testEvent struct {
	Kind       string    `msgpack:"kind"`
	Recipients []string  `msgpack:"recipients"`
	Amount     string    `msgpack:"amount"`
	OccurredAt time.Time `msgpack:"occurred_at"`
}

func TestDefaultParse_RoundTrip(t *testing.T) {
	in := testEvent{
		Kind:       "bid_registered",
		Recipients: []string{"carol", "bob"},
		Amount:     "10.50",
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	message, err := DefaultParseToMessage(in)
	require.NoError(t, err)
	require.Len(t, message, 1)
	assert.IsType(t, "", message[PayloadField])

	out, err := DefaultParseFromMessage[testEvent](message)
	require.NoError(t, err)
	assert.Equal(t, in.Kind, out.Kind)
	assert.Equal(t, in.Recipients, out.Recipients)
	assert.Equal(t, in.Amount, out.Amount)
	assert.True(t, in.OccurredAt.Equal(out.OccurredAt))
}

func TestDefaultParseToMessage_Pointer(t *testing.T) {
	_, err := DefaultParseToMessage(&testEvent{})
	assert.ErrorIs(t, err, ErrPointerType)
}

func TestDefaultParseFromMessage(t *testing.T) {
	valid, err := msgpack.Marshal(testEvent{Kind: "auction_banned"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		message map[string]any
		want    string
		errMsg  string
	}{
		{
			name:    "valid message",
			message: map[string]any{"data": base64.StdEncoding.EncodeToString(valid)},
			want:    "auction_banned",
		},
		{
			name:    "bytes payload",
			message: map[string]any{"data": []byte(base64.StdEncoding.EncodeToString(valid))},
			want:    "auction_banned",
		},
		{
			name:    "empty message",
			message: map[string]any{},
			errMsg:  "payload field not found",
		},
		{
			name:    "missing data field",
			message: map[string]any{"other": "x"},
			errMsg:  "payload field not found",
		},
		{
			name:    "data is not a string",
			message: map[string]any{"data": 42},
			errMsg:  "payload field not found",
		},
		{
			name:    "invalid base64",
			message: map[string]any{"data": "!!!"},
			errMsg:  "base64 decode error",
		},
		{
			name:    "invalid msgpack",
			message: map[string]any{"data": base64.StdEncoding.EncodeToString([]byte{0xc1})},
			errMsg:  "msgpack unmarshal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultParseFromMessage[testEvent](tt.message)
			if tt.errMsg != "" {
				assert.ErrorContains(t, err, tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Kind)
		})
	}

	t.Run("pointer type", func(t *testing.T) {
		_, err := DefaultParseFromMessage[*testEvent](map[string]any{"data": ""})
		assert.ErrorIs(t, err, ErrPointerType)
	})
}
