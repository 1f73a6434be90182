package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

const smtpTimeout = 25 * time.Second

// ErrMissingSMTPConfig 缺少发信所需的配置，属于致命错误
var ErrMissingSMTPConfig = errors.New("missing SMTP config: SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASS, EMAIL_FROM, EMAIL_TO")

type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string
	To   string
}

// SMTPSender 通过 STARTTLS 发送 UTF-8 纯文本邮件
type SMTPSender struct {
	cfg     Config
	timeout time.Duration
}

func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{cfg: cfg, timeout: smtpTimeout}
}

// Validate host / port / from / to 任一为空都视为配置错误；用户名密码可选
func (s *SMTPSender) Validate() error {
	c := s.cfg
	if c.Host == "" || c.Port <= 0 || c.From == "" || c.To == "" {
		return ErrMissingSMTPConfig
	}
	return nil
}

func (s *SMTPSender) Send(ctx context.Context, subject, body string) error {
	if err := s.Validate(); err != nil {
		return err
	}

	msg, err := s.buildMessage(subject, body)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.timeout),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	// 只有同时配置了用户名和密码时才登录
	if s.cfg.User != "" && s.cfg.Pass != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Pass),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail via %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}

	log.WithFields(log.Fields{"to": s.cfg.To, "subject": subject}).Info("digest mail sent")
	return nil
}

func (s *SMTPSender) buildMessage(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid EMAIL_FROM %q: %w", s.cfg.From, err)
	}
	if err := msg.To(s.cfg.To); err != nil {
		return nil, fmt.Errorf("invalid EMAIL_TO %q: %w", s.cfg.To, err)
	}
	msg.SetCharset(mail.CharsetUTF8)
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
