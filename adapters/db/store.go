package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bidhouse/auction"
	"bidhouse/models"
)

var (
	_ auction.Store     = (*Store)(nil)
	_ auction.Directory = (*Store)(nil)
)

// Models 需要遷移的資料表，順序即建立順序
var Models = []any{
	&models.User{},
	&models.Auction{},
	&models.Bid{},
}

// mutableColumns SaveAuction 會寫回的欄位，其餘欄位建立後不可修改
var mutableColumns = []string{
	"Title",
	"Description",
	"CurrentPrice",
	"Deadline",
	"Status",
	"BidderHistory",
	"LastBidder",
	"Version",
	"UpdatedAt",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Store 以 gorm 實作的拍賣資料儲存
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate 建立或更新資料表
func (s *Store) Migrate(ctx context.Context) error {
	const op = "db.Store.Migrate"
	if err := s.db.WithContext(ctx).AutoMigrate(Models...); err != nil {
		return fmt.Errorf("[%s] Fail to migrate models, err=%w", op, err)
	}
	return nil
}

func (s *Store) CreateAuction(ctx context.Context, a *models.Auction) error {
	const op = "db.Store.CreateAuction"
	a.Version = 1
	if a.BidderHistory == nil {
		a.BidderHistory = []string{}
	}
	if result := s.db.WithContext(ctx).Omit(clause.Associations).Create(a); result.Error != nil {
		return fmt.Errorf("[%s] Fail to create auction, err=%w", op, result.Error)
	}
	return nil
}

func (s *Store) GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	const op = "db.Store.GetAuction"
	var a models.Auction
	if result := s.db.WithContext(ctx).First(&a, "id = ?", id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("[%s] auction=%s, err=%w", op, id, auction.ErrNotFound)
		}
		return nil, fmt.Errorf("[%s] Fail to find auction, auction=%s, err=%w", op, id, result.Error)
	}
	return &a, nil
}

func (s *Store) SaveAuction(ctx context.Context, a *models.Auction) error {
	return s.saveAuction(s.db.WithContext(ctx), a)
}

// SaveBid 在同一個交易中寫回拍賣並新增出價紀錄
func (s *Store) SaveBid(ctx context.Context, a *models.Auction, bid *models.Bid) error {
	const op = "db.Store.SaveBid"
	saved := a.Clone()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.saveAuction(tx, saved); err != nil {
			return err
		}
		if result := tx.Create(bid); result.Error != nil {
			return fmt.Errorf("[%s] Fail to create bid, err=%w", op, result.Error)
		}
		return nil
	})
	if err != nil {
		return err
	}
	a.Version = saved.Version
	a.UpdatedAt = saved.UpdatedAt
	return nil
}

// saveAuction 以版本號做條件更新，沒有更新到任何資料時區分不存在與版本衝突
func (s *Store) saveAuction(tx *gorm.DB, a *models.Auction) error {
	const op = "db.Store.saveAuction"
	updated := a.Clone()
	updated.Version = a.Version + 1
	updated.UpdatedAt = time.Now()
	result := tx.Model(updated).
		Where("version = ?", a.Version).
		Select(mutableColumns).
		Updates(updated)
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to update auction, auction=%s, err=%w", op, a.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.Auction{}).Where("id = ?", a.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("[%s] Fail to check auction, auction=%s, err=%w", op, a.ID, err)
		}
		if count == 0 {
			return fmt.Errorf("[%s] auction=%s, err=%w", op, a.ID, auction.ErrNotFound)
		}
		return fmt.Errorf("[%s] auction=%s, version=%d, err=%w", op, a.ID, a.Version, auction.ErrConcurrentUpdate)
	}
	a.Version = updated.Version
	a.UpdatedAt = updated.UpdatedAt
	return nil
}

func (s *Store) GetBid(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	const op = "db.Store.GetBid"
	var bid models.Bid
	if result := s.db.WithContext(ctx).First(&bid, "id = ?", id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("[%s] bid=%s, err=%w", op, id, auction.ErrNotFound)
		}
		return nil, fmt.Errorf("[%s] Fail to find bid, bid=%s, err=%w", op, id, result.Error)
	}
	return &bid, nil
}

func (s *Store) ListActive(ctx context.Context, title string) ([]models.Auction, error) {
	const op = "db.Store.ListActive"
	query := s.db.WithContext(ctx).Where("status = ?", models.StatusActive)
	if title != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(title)) + "%"
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\'`, pattern)
	}
	auctions := make([]models.Auction, 0)
	if result := query.Order(clause.OrderByColumn{Column: clause.Column{Name: "deadline"}}).Find(&auctions); result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list auctions, err=%w", op, result.Error)
	}
	return auctions, nil
}

func (s *Store) ListExpiredActive(ctx context.Context, now time.Time) ([]models.Auction, error) {
	const op = "db.Store.ListExpiredActive"
	auctions := make([]models.Auction, 0)
	result := s.db.WithContext(ctx).
		Where("status = ? AND deadline < ?", models.StatusActive, now).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "deadline"}}).
		Find(&auctions)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list expired auctions, err=%w", op, result.Error)
	}
	return auctions, nil
}

// ListBids 回傳拍賣的所有出價
// 出價金額必定遞增，因此以金額排序即為時間順序
func (s *Store) ListBids(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	const op = "db.Store.ListBids"
	bids := make([]models.Bid, 0)
	result := s.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "amount"}, Desc: true}).
		Find(&bids)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list bids, auction=%s, err=%w", op, auctionID, result.Error)
	}
	return bids, nil
}

// UpsertUser 新增或更新使用者聯絡資訊
func (s *Store) UpsertUser(ctx context.Context, user *models.User) error {
	const op = "db.Store.UpsertUser"
	if user.Language == "" {
		user.Language = "en"
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "language", "updated_at"}),
	}).Create(user)
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to upsert user, username=%s, err=%w", op, user.Username, result.Error)
	}
	return nil
}

func (s *Store) FindUsers(ctx context.Context, usernames []string) ([]models.User, error) {
	const op = "db.Store.FindUsers"
	users := make([]models.User, 0, len(usernames))
	if len(usernames) == 0 {
		return users, nil
	}
	if result := s.db.WithContext(ctx).Where("username IN ?", usernames).Find(&users); result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to find users, err=%w", op, result.Error)
	}
	return users, nil
}
