package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bidhouse/auction"
	"bidhouse/models"
)

func setupTest(t *testing.T) *Store {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	store := NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func newAuction(title string, deadline time.Time) *models.Auction {
	return &models.Auction{
		Seller:       "carol",
		Title:        title,
		Description:  "brass",
		MinimumPrice: decimal.RequireFromString("1.00"),
		CurrentPrice: decimal.RequireFromString("1.00"),
		Deadline:     deadline.UTC(),
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := setupTest(t)

	a := newAuction("Vintage Lamp", time.Now().Add(time.Hour).Truncate(time.Second))
	require.NoError(t, store.CreateAuction(ctx, a))
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, int64(1), a.Version)

	got, err := store.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vintage Lamp", got.Title)
	assert.True(t, got.MinimumPrice.Equal(decimal.RequireFromString("1.00")))
	assert.True(t, got.Deadline.Equal(a.Deadline))
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Empty(t, got.BidderHistory)
	assert.False(t, got.HasBids())

	_, err = store.GetAuction(ctx, uuid.New())
	assert.ErrorIs(t, err, auction.ErrNotFound)
}

func TestStore_SaveBid(t *testing.T) {
	ctx := context.Background()
	store := setupTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	a := newAuction("Lamp", now.Add(3*time.Minute))
	require.NoError(t, store.CreateAuction(ctx, a))

	loaded, err := store.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	loaded.RecordBid("bob", decimal.RequireFromString("12.34"), now)
	bid := &models.Bid{AuctionID: a.ID, Bidder: "bob", Amount: decimal.RequireFromString("12.34")}
	require.NoError(t, store.SaveBid(ctx, loaded, bid))
	assert.Equal(t, int64(2), loaded.Version)
	assert.NotEqual(t, uuid.Nil, bid.ID)

	got, err := store.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.34", got.CurrentPrice.StringFixed(2))
	assert.Equal(t, "bob", got.LastBidder)
	assert.Equal(t, []string{"bob"}, got.BidderHistory)
	assert.True(t, got.Deadline.Equal(now.Add(8*time.Minute)))
	assert.Equal(t, int64(2), got.Version)

	storedBid, err := store.GetBid(ctx, bid.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", storedBid.Bidder)
	assert.Equal(t, "12.34", storedBid.Amount.StringFixed(2))

	_, err = store.GetBid(ctx, uuid.New())
	assert.ErrorIs(t, err, auction.ErrNotFound)
}

func TestStore_SaveBidRollsBackOnConflict(t *testing.T) {
	ctx := context.Background()
	store := setupTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	a := newAuction("Lamp", now.Add(time.Hour))
	require.NoError(t, store.CreateAuction(ctx, a))

	first, err := store.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	second, err := store.GetAuction(ctx, a.ID)
	require.NoError(t, err)

	first.RecordBid("alice", decimal.RequireFromString("5.00"), now)
	require.NoError(t, store.SaveBid(ctx, first, &models.Bid{AuctionID: a.ID, Bidder: "alice", Amount: decimal.RequireFromString("5.00")}))

	second.RecordBid("bob", decimal.RequireFromString("4.00"), now)
	err = store.SaveBid(ctx, second, &models.Bid{AuctionID: a.ID, Bidder: "bob", Amount: decimal.RequireFromString("4.00")})
	assert.ErrorIs(t, err, auction.ErrConcurrentUpdate)
	assert.Equal(t, int64(1), second.Version)

	bids, err := store.ListBids(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, "alice", bids[0].Bidder)

	got, err := store.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.LastBidder)
	assert.Equal(t, "5.00", got.CurrentPrice.StringFixed(2))
}

func TestStore_SaveAuction(t *testing.T) {
	ctx := context.Background()
	store := setupTest(t)

	a := newAuction("Lamp", time.Now().Add(time.Hour))
	require.NoError(t, store.CreateAuction(ctx, a))
	require.NoError(t, a.Transition(models.StatusBanned))
	require.NoError(t, store.SaveAuction(ctx, a))

	got, err := store.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBanned, got.Status)

	missing := newAuction("Ghost", time.Now())
	missing.ID = uuid.New()
	err = store.SaveAuction(ctx, missing)
	assert.ErrorIs(t, err, auction.ErrNotFound)
}

func TestStore_Lists(t *testing.T) {
	ctx := context.Background()
	store := setupTest(t)
	now := time.Now().UTC().Truncate(time.Second)

	lamp := newAuction("Vintage Lamp", now.Add(2*time.Hour))
	chair := newAuction("Oak Chair", now.Add(time.Hour))
	shade := newAuction("Old lamp shade", now.Add(-time.Hour))
	percent := newAuction("100% wool", now.Add(3*time.Hour))
	banned := newAuction("Banned lamp", now.Add(-2*time.Hour))
	for _, a := range []*models.Auction{lamp, chair, shade, percent, banned} {
		require.NoError(t, store.CreateAuction(ctx, a))
	}
	require.NoError(t, banned.Transition(models.StatusBanned))
	require.NoError(t, store.SaveAuction(ctx, banned))

	tests := []struct {
		title string
		want  []string
	}{
		{"", []string{"Old lamp shade", "Oak Chair", "Vintage Lamp", "100% wool"}},
		{"LAMP", []string{"Old lamp shade", "Vintage Lamp"}},
		{"%", []string{"100% wool"}},
		{"nothing", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			auctions, err := store.ListActive(ctx, tt.title)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(auctions))
		})
	}

	due, err := store.ListExpiredActive(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"Old lamp shade"}, titles(due))
}

func TestStore_Directory(t *testing.T) {
	ctx := context.Background()
	store := setupTest(t)

	require.NoError(t, store.UpsertUser(ctx, &models.User{Username: "alice", Email: "alice@example.com"}))
	require.NoError(t, store.UpsertUser(ctx, &models.User{Username: "bob", Email: "bob@example.com", Language: "sv"}))
	require.NoError(t, store.UpsertUser(ctx, &models.User{Username: "alice", Email: "alice@new.example.com", Language: "sv"}))

	users, err := store.FindUsers(ctx, []string{"alice", "bob", "ghost"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	byName := map[string]models.User{}
	for _, u := range users {
		byName[u.Username] = u
	}
	assert.Equal(t, "alice@new.example.com", byName["alice"].Email)
	assert.Equal(t, "sv", byName["alice"].Language)
	assert.Equal(t, "sv", byName["bob"].Language)

	none, err := store.FindUsers(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func titles(auctions []models.Auction) []string {
	result := make([]string, len(auctions))
	for i, a := range auctions {
		result[i] = a.Title
	}
	return result
}
