package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"bidhouse/adapters/db"
	"bidhouse/adapters/memory"
	redisAdapter "bidhouse/adapters/redis"
	"bidhouse/adapters/sse"
	"bidhouse/auction"
	"bidhouse/lock"
	"bidhouse/notify"
)

// storage 拍賣資料與使用者聯絡資訊，db.Store 與 memory.Store 都實作了這兩個介面
type storage interface {
	auction.Store
	auction.Directory
}

type ServerImpl struct {
	arbitrator  *auction.Arbitrator
	resolver    *auction.Resolver
	store       storage
	sseManager  sse.IConnectionManager[notify.LiveEvent]
	producer    redisAdapter.IProducer[auction.Event]
	dispatcher  *notify.Dispatcher
	redisClient *redis.Client
	db          *gorm.DB
	logger      *slog.Logger

	config ServerConfig
}

type serverOptions struct {
	logger *slog.Logger
	clock  func() time.Time
}

type ServerOption func(*serverOptions)

// WithServerLogger 設置日誌記錄器
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(o *serverOptions) {
		o.logger = logger
	}
}

// WithServerClock 設置拍賣使用的時間來源
func WithServerClock(clock func() time.Time) ServerOption {
	return func(o *serverOptions) {
		o.clock = clock
	}
}

func NewServer(config ServerConfig, opts ...ServerOption) (*ServerImpl, error) {
	const op = "NewServer"

	options := serverOptions{
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}
	logger := options.logger
	config = withDefaults(config)

	impl := &ServerImpl{
		logger: logger.With(slog.String("caller", "Server")),
		config: config,
	}

	// 初始化資料庫連線
	if config.DB.Host != "" {
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s", config.DB.User, config.DB.Password, config.DB.Host, config.DB.Port, config.DB.Database, config.DB.Schema)
		gormConfig := &gorm.Config{TranslateError: true}
		if config.DB.Schema != "" {
			gormConfig.NamingStrategy = schema.NamingStrategy{TablePrefix: config.DB.Schema + "."}
		}
		gormDB, err := gorm.Open(postgres.Open(dsn), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
		}
		store := db.NewStore(gormDB)
		if config.DB.AutoMigrate {
			if err := store.Migrate(context.Background()); err != nil {
				return nil, fmt.Errorf("[%s] Fail to migrate database, err=%w", op, err)
			}
		}
		impl.db = gormDB
		impl.store = store
	} else {
		logger.Warn("No database configured, auctions are kept in memory")
		impl.store = memory.NewStore()
	}

	lockOpts := []lock.ManagerOption{
		lock.WithWaitTimeout(config.Auction.LockWaitTimeout),
		lock.WithLogger(logger),
	}

	var notifier auction.Notifier
	if config.Redis.Addr != "" {
		// 初始化Redis連線
		impl.redisClient = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		stream := config.Redis.KeyPrefix + config.Redis.StreamKeys.Notifications

		lockOpts = append(lockOpts, lock.WithRemote(redisAdapter.NewAuctionMutexFactory(
			impl.redisClient,
			config.Redis.KeyPrefix,
			redisAdapter.WithAutoRenewMutexLogger(logger),
			redisAdapter.WithAutoRenewMutexRetryDelay(50*time.Millisecond),
		)))

		producer, err := redisAdapter.NewProducer[auction.Event](
			impl.redisClient,
			stream,
			redisAdapter.WithProducerLogger[auction.Event](logger),
			redisAdapter.WithProducerMaxLen[auction.Event](config.Redis.StreamMaxLen),
		)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create producer, err=%w", op, err)
		}
		impl.producer = producer
		notifier = notify.NewStreamNotifier(producer)

		// 初始化SSE管理器，每個實例都讀取完整的事件流
		consumer, err := redisAdapter.NewConsumer[sse.PublishRequest[notify.LiveEvent]](
			impl.redisClient,
			stream,
			redisAdapter.WithConsumerLogger[sse.PublishRequest[notify.LiveEvent]](logger),
			redisAdapter.WithConsumerParseFunc(notify.ParseLiveRequest),
		)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create consumer, err=%w", op, err)
		}
		impl.sseManager = sse.NewConnectionManager[notify.LiveEvent](
			sse.WithLogger[notify.LiveEvent](logger),
			sse.WithSubscriber(consumer),
		)

		// 初始化group consumer，由其中一個實例寄送郵件
		if config.SMTP.Host != "" {
			groupConsumer, err := redisAdapter.NewGroupConsumer[auction.Event](
				impl.redisClient,
				stream,
				config.Redis.ConsumerGroup,
				config.ID,
				redisAdapter.WithGroupConsumerLogger[auction.Event](logger),
				redisAdapter.WithGroupConsumerStrictOrdering[auction.Event](true),
			)
			if err != nil {
				return nil, fmt.Errorf("[%s] Fail to create group consumer, err=%w", op, err)
			}
			impl.dispatcher = notify.NewDispatcher(
				groupConsumer,
				impl.store,
				notify.NewSMTPMailer(notify.SMTPConfig{
					Host:     config.SMTP.Host,
					Port:     config.SMTP.Port,
					Username: config.SMTP.Username,
					Password: config.SMTP.Password,
					From:     config.SMTP.From,
				}),
				notify.WithDispatcherLogger(logger),
				notify.WithDispatcherMaxAttempts(config.SMTP.MaxAttempts),
				notify.WithDispatcherBackoff(config.SMTP.Backoff),
				notify.WithDispatcherBaseURL(config.BaseURL),
			)
		} else {
			logger.Warn("No SMTP server configured, notification mails are not sent")
		}
	} else {
		logger.Warn("No redis configured, notifications are only logged")
		impl.sseManager = sse.NewConnectionManager[notify.LiveEvent](sse.WithLogger[notify.LiveEvent](logger))
		notifier = notify.Multi{
			notify.NewLogNotifier(logger),
			notify.NewLiveNotifier(impl.sseManager),
		}
	}

	locks := lock.NewManager(lockOpts...)
	impl.arbitrator = auction.NewArbitrator(impl.store, locks, notifier,
		auction.WithArbitratorLogger(logger),
		auction.WithArbitratorClock(options.clock),
	)
	impl.resolver = auction.NewResolver(impl.store, locks, notifier,
		auction.WithResolverLogger(logger),
		auction.WithResolverClock(options.clock),
		auction.WithResolverInterval(config.Auction.ResolveInterval),
	)
	return impl, nil
}

func withDefaults(config ServerConfig) ServerConfig {
	if config.ID == "" {
		config.ID = "bidhouse"
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 64 << 10
	}
	if config.Redis.StreamKeys.Notifications == "" {
		config.Redis.StreamKeys.Notifications = "notifications"
	}
	if config.Redis.ConsumerGroup == "" {
		config.Redis.ConsumerGroup = "mailer"
	}
	if config.SMTP.MaxAttempts <= 0 {
		config.SMTP.MaxAttempts = 3
	}
	if config.SMTP.Backoff <= 0 {
		config.SMTP.Backoff = time.Second
	}
	if config.Auction.ResolveInterval <= 0 {
		config.Auction.ResolveInterval = 30 * time.Second
	}
	if config.Auction.SSEKeepAlive <= 0 {
		config.Auction.SSEKeepAlive = 30 * time.Second
	}
	return config
}

func (impl *ServerImpl) Start() error {
	const op = "ServerImpl.Start"
	// 啟動producer
	if impl.producer != nil {
		impl.producer.Start()
	}
	// 啟動sse connection manager
	impl.sseManager.Start()
	// 啟動郵件派送
	if impl.dispatcher != nil {
		if err := impl.dispatcher.Start(); err != nil {
			return fmt.Errorf("[%s] Fail to start dispatcher, err=%w", op, err)
		}
	}
	// 啟動結算排程
	impl.resolver.Start()
	return nil
}

// Close 依相反順序停止背景工作，HTTP 服務應在此之前關閉
func (impl *ServerImpl) Close() {
	// 關閉結算排程
	impl.resolver.Close()
	// 關閉郵件派送
	if impl.dispatcher != nil {
		impl.dispatcher.Close()
	}
	// 關閉sse connection manager
	impl.sseManager.Done()
	// 關閉producer，等待緩衝中的事件寫完
	if impl.producer != nil {
		impl.producer.Close()
	}
	if impl.redisClient != nil {
		if err := impl.redisClient.Close(); err != nil {
			impl.logger.Warn("Fail to close redis client", slog.Any("error", err))
		}
	}
	if impl.db != nil {
		if sqlDB, err := impl.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

// Ping 檢查外部依賴是否可用
func (impl *ServerImpl) Ping(ctx context.Context) error {
	var errs []error
	if impl.db != nil {
		sqlDB, err := impl.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if impl.redisClient != nil {
		if err := impl.redisClient.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
