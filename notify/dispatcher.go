package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"bidhouse/adapters/redis"
	"bidhouse/auction"
	"bidhouse/metrics"
	"bidhouse/models"
)

type dispatcherOptions struct {
	logger      *slog.Logger
	maxAttempts int
	backoff     time.Duration
	baseURL     string
}

type DispatcherOption func(*dispatcherOptions)

// WithDispatcherLogger 設置日誌記錄器
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.logger = logger
	}
}

// WithDispatcherMaxAttempts 設置每封郵件的最大嘗試次數
func WithDispatcherMaxAttempts(n int) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.maxAttempts = n
	}
}

// WithDispatcherBackoff 設置第一次重試前的等待時間，之後每次加倍
func WithDispatcherBackoff(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.backoff = d
	}
}

// WithDispatcherBaseURL 設置郵件中拍賣連結的網址
func WithDispatcherBaseURL(url string) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.baseURL = url
	}
}

// Dispatcher 從 Redis Stream 消費拍賣事件並寄送郵件
// 全部收件人都寄送成功才確認消息，否則在重試用盡後移到死信佇列
type Dispatcher struct {
	consumer   redis.IGroupConsumer[auction.Event]
	directory  auction.Directory
	mailer     Mailer
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
	options    dispatcherOptions
}

func NewDispatcher(consumer redis.IGroupConsumer[auction.Event], directory auction.Directory, mailer Mailer, opts ...DispatcherOption) *Dispatcher {
	options := dispatcherOptions{
		logger:      slog.Default(),
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.maxAttempts < 1 {
		options.maxAttempts = 1
	}

	return &Dispatcher{
		consumer:  consumer,
		directory: directory,
		mailer:    mailer,
		logger:    options.logger.With(slog.String("caller", "Dispatcher")),
		options:   options,
	}
}

func (d *Dispatcher) Start() error {
	const op = "Dispatcher.Start"
	if err := d.consumer.Start(); err != nil {
		return fmt.Errorf("[%s] Fail to start consumer, err=%w", op, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancelFunc = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.logger.Info("dispatcher goroutine stopped")
		for msg := range d.consumer.Subscribe() {
			d.handle(ctx, msg)
		}
	}()
	return nil
}

// Close 停止消費，正在寄送的郵件會被中斷並留在 pending 中
func (d *Dispatcher) Close() {
	if d.cancelFunc == nil {
		return
	}
	d.cancelFunc()
	d.consumer.Close()
	d.wg.Wait()
	d.cancelFunc = nil
}

func (d *Dispatcher) handle(ctx context.Context, msg *redis.Message[auction.Event]) {
	kind := string(msg.Data.Kind)
	err := d.Deliver(ctx, msg.Data)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		d.logger.Error("Fail to deliver notification, moving to dead letter",
			slog.String("kind", kind),
			slog.String("auction", msg.Data.AuctionID.String()),
			slog.Any("error", err))
		metrics.NotificationsTotal.WithLabelValues(kind, "dead_letter").Inc()
		if err := msg.Fail(ctx, err); err != nil {
			d.logger.Error("Fail to move message to dead letter", slog.Any("error", err))
		}
		return
	}
	if err := msg.Done(ctx); err != nil {
		d.logger.Error("Fail to ack message", slog.Any("error", err))
	}
}

// Deliver 寄送一個事件給所有收件人
// 沒有聯絡資料或電子郵件的收件人會被略過
func (d *Dispatcher) Deliver(ctx context.Context, event auction.Event) error {
	const op = "Dispatcher.Deliver"
	recipients := lo.Uniq(lo.Compact(event.Recipients))
	if len(recipients) == 0 {
		return nil
	}
	users, err := d.directory.FindUsers(ctx, recipients)
	if err != nil {
		return fmt.Errorf("[%s] Fail to find recipients, err=%w", op, err)
	}

	found := lo.SliceToMap(users, func(u models.User) (string, bool) { return u.Username, true })
	for _, name := range recipients {
		if !found[name] {
			d.logger.Warn("Recipient has no contact record", slog.String("username", name))
		}
	}

	subject, body := Render(event, d.options.baseURL)
	var errs []error
	for _, user := range users {
		if user.Email == "" {
			d.logger.Warn("Recipient has no email", slog.String("username", user.Username))
			continue
		}
		mail := Mail{To: user.Email, Language: user.Language, Subject: subject, Body: body}
		if err := d.sendWithRetry(ctx, mail); err != nil {
			metrics.NotificationsTotal.WithLabelValues(string(event.Kind), "failed").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", user.Username, err))
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(string(event.Kind), "sent").Inc()
	}
	if len(errs) > 0 {
		return fmt.Errorf("[%s] Fail to send mail, err=%w", op, errors.Join(errs...))
	}
	return nil
}

func (d *Dispatcher) sendWithRetry(ctx context.Context, mail Mail) error {
	backoff := d.options.backoff
	var err error
	for attempt := 1; attempt <= d.options.maxAttempts; attempt++ {
		if err = d.mailer.Send(ctx, mail); err == nil {
			return nil
		}
		d.logger.Warn("Fail to send mail",
			slog.String("to", mail.To),
			slog.Int("attempt", attempt),
			slog.Any("error", err))
		if attempt == d.options.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}
