package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mail 單一收件人的郵件
type Mail struct {
	To       string
	Language string
	Subject  string
	Body     string
}

// Mailer 寄送郵件
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// SMTPConfig SMTP 連線設定
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer 透過 SMTP 寄送純文字郵件
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, mail Mail) error {
	const op = "SMTPMailer.Send"
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := newMessage(m.from, mail)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("[%s] Fail to send mail, err=%w", op, err)
	}
	return nil
}

func newMessage(from string, mail Mail) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", mail.To)
	msg.SetHeader("Subject", mail.Subject)
	if mail.Language != "" {
		msg.SetHeader("Content-Language", mail.Language)
	}
	msg.SetBody("text/plain", mail.Body)
	return msg
}
