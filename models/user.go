package models

import "time"

// User 代表拍賣系統中的使用者聯絡資訊
// 資料來自驗證過的 access token，只用於通知的收件人查詢
type User struct {
	Username  string `gorm:"type:varchar(150);primaryKey"`
	Email     string `gorm:"type:varchar(254);not null;default:''"`
	Language  string `gorm:"type:varchar(2);not null;default:'en'"`
	UpdatedAt time.Time
}
