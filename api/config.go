package api

import (
	"crypto/ed25519"
	"time"
)

type ServerConfig struct {
	// ID 實例名稱，作為 Redis 消費者群組中的消費者名稱
	ID string
	// BaseURL 對外的網址，用於郵件中的連結
	BaseURL string
	// MaxBodyBytes 請求內容的大小上限
	MaxBodyBytes int64

	DB      DBConfig
	Redis   RedisConfig
	SMTP    SMTPConfig
	Auth    AuthConfig
	Auction AuctionConfig
}

// DBConfig Host 為空時使用記憶體儲存
type DBConfig struct {
	User        string
	Password    string
	Host        string
	Port        int
	Database    string
	Schema      string
	AutoMigrate bool
}

// RedisConfig Addr 為空時不使用 Redis，通知只寫入日誌，鎖只在單一實例內有效
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string

	StreamKeys    RedisStreamKeys
	StreamMaxLen  int64
	ConsumerGroup string
}

type RedisStreamKeys struct {
	Notifications string
}

// SMTPConfig Host 為空時不寄送郵件
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	MaxAttempts int
	Backoff     time.Duration
}

type AuthConfig struct {
	PublicKey ed25519.PublicKey
	Issuer    string
	Audience  string
}

type AuctionConfig struct {
	LockWaitTimeout time.Duration
	ResolveInterval time.Duration
	SSEKeepAlive    time.Duration
}
