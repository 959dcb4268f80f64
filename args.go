package main

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"bidhouse/api"
)

func ParseArgs() Args {
	// server config
	pflag.String("server-url", "0.0.0.0:8080", "listen address")
	pflag.String("server-id", "", "instance name, used as the redis consumer name (default: hostname)")
	pflag.String("base-url", "http://localhost:8080", "public URL used in notification links")
	pflag.Int64("max-body-bytes", 64<<10, "maximum request body size")
	pflag.String("log-level", "info", "debug, info, warn or error")

	// auth config
	pflag.String("auth-public-key", "", "Ed25519 public key for access tokens, PEM or base64")
	pflag.String("auth-public-key-file", "", "file containing the Ed25519 public key")
	pflag.String("auth-issuer", "", "expected token issuer")
	pflag.String("auth-audience", "", "expected token audience")

	// db config
	pflag.String("db-user", "", "")
	pflag.String("db-password", "", "")
	pflag.String("db-host", "", "postgres host, empty keeps auctions in memory")
	pflag.Int("db-port", 5432, "")
	pflag.String("db-database", "", "")
	pflag.String("db-schema", "", "")
	pflag.Bool("db-auto-migrate", false, "create or update tables on start")

	// redis config
	pflag.String("redis-addr", "", "redis address, empty disables streams and distributed locks")
	pflag.String("redis-password", "", "")
	pflag.Int("redis-db", 15, "")
	pflag.String("redis-key-prefix", "bidhouse:", "")

	// redis stream keys
	pflag.String("redis-stream-key-for-notifications", "notifications", "")
	pflag.Int64("redis-stream-max-len", 100000, "approximate stream length, 0 keeps everything")
	pflag.String("redis-consumer-group", "mailer", "")

	// smtp config
	pflag.String("smtp-host", "", "smtp host, empty disables mail delivery")
	pflag.Int("smtp-port", 587, "")
	pflag.String("smtp-username", "", "")
	pflag.String("smtp-password", "", "")
	pflag.String("smtp-from", "no-reply@bidhouse.local", "")
	pflag.Int("smtp-max-attempts", 3, "")
	pflag.Duration("smtp-backoff", time.Second, "delay before the first retry, doubled on each attempt")

	// auction config
	pflag.Duration("auction-lock-wait-timeout", 10*time.Second, "")
	pflag.Duration("auction-resolve-interval", 30*time.Second, "")
	pflag.Duration("auction-sse-keep-alive", 30*time.Second, "")

	// bind pflag to viper
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("BIDHOUSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	serverID := viper.GetString("server-id")
	if serverID == "" {
		serverID, _ = os.Hostname()
	}

	// initial arguments
	return Args{
		ServerURL:       viper.GetString("server-url"),
		LogLevel:        viper.GetString("log-level"),
		PublicKey:       viper.GetString("auth-public-key"),
		PublicKeyFile:   viper.GetString("auth-public-key-file"),
		ShutdownTimeout: 10 * time.Second,
		ServerConfig: api.ServerConfig{
			ID:           serverID,
			BaseURL:      viper.GetString("base-url"),
			MaxBodyBytes: viper.GetInt64("max-body-bytes"),
			Auth: api.AuthConfig{
				Issuer:   viper.GetString("auth-issuer"),
				Audience: viper.GetString("auth-audience"),
			},
			DB: api.DBConfig{
				User:        viper.GetString("db-user"),
				Password:    viper.GetString("db-password"),
				Host:        viper.GetString("db-host"),
				Port:        viper.GetInt("db-port"),
				Database:    viper.GetString("db-database"),
				Schema:      viper.GetString("db-schema"),
				AutoMigrate: viper.GetBool("db-auto-migrate"),
			},
			Redis: api.RedisConfig{
				Addr:      viper.GetString("redis-addr"),
				Password:  viper.GetString("redis-password"),
				DB:        viper.GetInt("redis-db"),
				KeyPrefix: viper.GetString("redis-key-prefix"),
				StreamKeys: api.RedisStreamKeys{
					Notifications: viper.GetString("redis-stream-key-for-notifications"),
				},
				StreamMaxLen:  viper.GetInt64("redis-stream-max-len"),
				ConsumerGroup: viper.GetString("redis-consumer-group"),
			},
			SMTP: api.SMTPConfig{
				Host:        viper.GetString("smtp-host"),
				Port:        viper.GetInt("smtp-port"),
				Username:    viper.GetString("smtp-username"),
				Password:    viper.GetString("smtp-password"),
				From:        viper.GetString("smtp-from"),
				MaxAttempts: viper.GetInt("smtp-max-attempts"),
				Backoff:     viper.GetDuration("smtp-backoff"),
			},
			Auction: api.AuctionConfig{
				LockWaitTimeout: viper.GetDuration("auction-lock-wait-timeout"),
				ResolveInterval: viper.GetDuration("auction-resolve-interval"),
				SSEKeepAlive:    viper.GetDuration("auction-sse-keep-alive"),
			},
		},
	}
}

type Args struct {
	ServerURL       string
	LogLevel        string
	PublicKey       string
	PublicKeyFile   string
	ShutdownTimeout time.Duration
	ServerConfig    api.ServerConfig
}

// Load 讀取公鑰並檢查必要參數
func (args *Args) Load() error {
	const op = "Args.Load"
	if args.ServerURL == "" {
		return fmt.Errorf("[%s] server-url is required", op)
	}
	raw := args.PublicKey
	if args.PublicKeyFile != "" {
		data, err := os.ReadFile(args.PublicKeyFile)
		if err != nil {
			return fmt.Errorf("[%s] Fail to read public key file, err=%w", op, err)
		}
		raw = string(data)
	}
	if raw == "" {
		return fmt.Errorf("[%s] auth-public-key or auth-public-key-file is required", op)
	}
	key, err := parsePublicKey(raw)
	if err != nil {
		return fmt.Errorf("[%s] Fail to parse public key, err=%w", op, err)
	}
	args.ServerConfig.Auth.PublicKey = key
	return nil
}

// Level 日誌等級，無法辨識時使用 info
func (args Args) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(args.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// parsePublicKey 接受 PEM 格式或 base64 編碼的 32 位元組公鑰
func parsePublicKey(raw string) (ed25519.PublicKey, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "-----BEGIN") {
		key, err := jwt.ParseEdPublicKeyFromPEM([]byte(raw))
		if err != nil {
			return nil, err
		}
		pub, ok := key.(ed25519.PublicKey)
		if !ok {
			return nil, errors.New("not an Ed25519 public key")
		}
		return pub, nil
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(data))
	}
	return ed25519.PublicKey(data), nil
}
