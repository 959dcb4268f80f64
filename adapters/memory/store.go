// Package memory 提供不需外部服務的拍賣資料儲存，用於開發模式與測試
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"bidhouse/auction"
	"bidhouse/models"
)

var (
	_ auction.Store     = (*Store)(nil)
	_ auction.Directory = (*Store)(nil)
)

// Store 並行安全的記憶體儲存
// 讀寫都以複本進行，呼叫方不會共用內部資料
type Store struct {
	mu       sync.RWMutex
	auctions map[uuid.UUID]*models.Auction
	bids     map[uuid.UUID]models.Bid
	users    map[string]models.User
}

func NewStore() *Store {
	return &Store{
		auctions: make(map[uuid.UUID]*models.Auction),
		bids:     make(map[uuid.UUID]models.Bid),
		users:    make(map[string]models.User),
	}
}

func (s *Store) CreateAuction(ctx context.Context, a *models.Auction) error {
	const op = "memory.Store.CreateAuction"
	if a.ID == uuid.Nil {
		if err := a.BeforeCreate(nil); err != nil {
			return fmt.Errorf("[%s] Fail to generate id, err=%w", op, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.auctions[a.ID]; ok {
		return fmt.Errorf("[%s] auction %s already exists", op, a.ID)
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.Version = 1
	s.auctions[a.ID] = a.Clone()
	return nil
}

func (s *Store) GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.auctions[id]
	if !ok {
		return nil, fmt.Errorf("get auction %s: %w", id, auction.ErrNotFound)
	}
	return a.Clone(), nil
}

func (s *Store) SaveAuction(ctx context.Context, a *models.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(a)
}

func (s *Store) SaveBid(ctx context.Context, a *models.Auction, bid *models.Bid) error {
	const op = "memory.Store.SaveBid"
	if bid.ID == uuid.Nil {
		if err := bid.BeforeCreate(nil); err != nil {
			return fmt.Errorf("[%s] Fail to generate id, err=%w", op, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveLocked(a); err != nil {
		return err
	}
	if bid.CreatedAt.IsZero() {
		bid.CreatedAt = time.Now()
	}
	s.bids[bid.ID] = *bid
	return nil
}

// saveLocked 版本相同才寫入，成功後遞增版本
func (s *Store) saveLocked(a *models.Auction) error {
	current, ok := s.auctions[a.ID]
	if !ok {
		return fmt.Errorf("save auction %s: %w", a.ID, auction.ErrNotFound)
	}
	if current.Version != a.Version {
		return fmt.Errorf("save auction %s, version=%d, stored=%d: %w", a.ID, a.Version, current.Version, auction.ErrConcurrentUpdate)
	}
	a.Version++
	a.UpdatedAt = time.Now()
	s.auctions[a.ID] = a.Clone()
	return nil
}

func (s *Store) GetBid(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bid, ok := s.bids[id]
	if !ok {
		return nil, fmt.Errorf("get bid %s: %w", id, auction.ErrNotFound)
	}
	return &bid, nil
}

func (s *Store) ListActive(ctx context.Context, title string) ([]models.Auction, error) {
	title = strings.ToLower(title)
	return s.list(func(a *models.Auction) bool {
		return a.IsActive() && strings.Contains(strings.ToLower(a.Title), title)
	}), nil
}

func (s *Store) ListExpiredActive(ctx context.Context, now time.Time) ([]models.Auction, error) {
	return s.list(func(a *models.Auction) bool {
		return a.IsActive() && a.Deadline.Before(now)
	}), nil
}

// list 依截止時間排序回傳符合條件的拍賣
func (s *Store) list(match func(*models.Auction) bool) []models.Auction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Auction, 0)
	for _, a := range s.auctions {
		if match(a) {
			result = append(result, *a.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Deadline.Before(result[j].Deadline)
	})
	return result
}

// ListBids 回傳拍賣的所有出價，金額最高的在前
func (s *Store) ListBids(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bids := lo.Filter(lo.Values(s.bids), func(b models.Bid, _ int) bool {
		return b.AuctionID == auctionID
	})
	sort.Slice(bids, func(i, j int) bool {
		return bids[i].Amount.GreaterThan(bids[j].Amount)
	})
	return bids, nil
}

func (s *Store) UpsertUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	if u.Language == "" {
		u.Language = "en"
	}
	u.UpdatedAt = time.Now()
	s.users[u.Username] = u
	return nil
}

func (s *Store) FindUsers(ctx context.Context, usernames []string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.FilterMap(usernames, func(name string, _ int) (models.User, bool) {
		u, ok := s.users[name]
		return u, ok
	}), nil
}
