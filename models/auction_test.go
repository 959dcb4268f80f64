package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuction_Transition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{name: "active to banned", from: StatusActive, to: StatusBanned},
		{name: "active to adjudicated", from: StatusActive, to: StatusAdjudicated},
		{name: "active to active", from: StatusActive, to: StatusActive, wantErr: true},
		{name: "banned to adjudicated", from: StatusBanned, to: StatusAdjudicated, wantErr: true},
		{name: "adjudicated to banned", from: StatusAdjudicated, to: StatusBanned, wantErr: true},
		{name: "adjudicated to active", from: StatusAdjudicated, to: StatusActive, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Auction{Status: tt.from}
			err := a.Transition(tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, a.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, a.Status)
		})
	}
}

func TestAuction_RecordBid(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("extends deadline inside the last five minutes", func(t *testing.T) {
		deadline := now.Add(3 * time.Minute)
		a := &Auction{Seller: "seller", Deadline: deadline, CurrentPrice: decimal.Zero}

		extended := a.RecordBid("alice", decimal.RequireFromString("0.01"), now)

		assert.True(t, extended)
		assert.True(t, a.Deadline.Equal(deadline.Add(BidExtension)))
		assert.Equal(t, "alice", a.LastBidder)
		assert.True(t, a.CurrentPrice.Equal(decimal.RequireFromString("0.01")))
	})

	t.Run("keeps deadline when far away", func(t *testing.T) {
		deadline := now.Add(time.Hour)
		a := &Auction{Seller: "seller", Deadline: deadline}

		extended := a.RecordBid("alice", decimal.NewFromInt(5), now)

		assert.False(t, extended)
		assert.True(t, a.Deadline.Equal(deadline))
	})

	t.Run("exactly five minutes left is not extended", func(t *testing.T) {
		deadline := now.Add(BidExtension)
		a := &Auction{Deadline: deadline}

		assert.False(t, a.RecordBid("alice", decimal.NewFromInt(1), now))
		assert.True(t, a.Deadline.Equal(deadline))
	})

	t.Run("bidder history keeps first-bid order without duplicates", func(t *testing.T) {
		a := &Auction{Deadline: now.Add(time.Hour)}
		a.RecordBid("bob", decimal.NewFromInt(1), now)
		a.RecordBid("alice", decimal.NewFromInt(2), now)
		a.RecordBid("bob", decimal.NewFromInt(3), now)

		assert.Equal(t, []string{"bob", "alice"}, a.BidderHistory)
		assert.Equal(t, "bob", a.LastBidder)
	})
}

func TestAuction_Participants(t *testing.T) {
	a := &Auction{Seller: "seller", BidderHistory: []string{"bob", "alice", "seller"}}
	assert.Equal(t, []string{"seller", "bob", "alice"}, a.Participants())

	empty := &Auction{Seller: "seller"}
	assert.Equal(t, []string{"seller"}, empty.Participants())
}

func TestAuction_Clone(t *testing.T) {
	a := &Auction{BidderHistory: []string{"bob"}}
	c := a.Clone()
	c.BidderHistory[0] = "mallory"
	c.BidderHistory = append(c.BidderHistory, "alice")

	assert.Equal(t, []string{"bob"}, a.BidderHistory)
}
