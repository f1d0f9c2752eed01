package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Sender 账号相关邮件
type Sender interface {
	SendConfirmEmail(ctx context.Context, to, link string) error
}

var ErrInvalidAddress = errors.New("mail: invalid address")

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Insecure bool
}

type SMTPSender struct {
	cfg SMTPConfig
	log *zap.Logger
}

func NewSMTPSender(cfg SMTPConfig, l *zap.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: l.Named("smtp")}
}

// New 未配置 SMTP 主机时退化为只写日志；否则 SMTP 外包一层熔断
func New(cfg SMTPConfig, l *zap.Logger) Sender {
	if cfg.Host == "" {
		return NewLogSender(l)
	}
	return NewBreakerSender(NewSMTPSender(cfg, l), l)
}

func (s *SMTPSender) SendConfirmEmail(ctx context.Context, to, link string) error {
	text := fmt.Sprintf("Confirm your account by opening this link:\n\n%s\n", link)
	body := `<p>Confirm your account by clicking <a href="` + html.EscapeString(link) + `">this link</a>.</p>`
	return s.send(ctx, to, "Confirm your email", text, body)
}

func (s *SMTPSender) send(ctx context.Context, to, subject, text, htmlBody string) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("%w: from: %v", ErrInvalidAddress, err)
	}
	if err := m.To(to); err != nil {
		return fmt.Errorf("%w: to: %v", ErrInvalidAddress, err)
	}
	m.Subject(subject)
	m.SetBodyString(gomail.TypeTextPlain, text)
	m.AddAlternativeString(gomail.TypeTextHTML, htmlBody)

	tls := gomail.TLSMandatory
	if s.cfg.Insecure {
		tls = gomail.TLSOpportunistic
	}
	opts := []gomail.Option{gomail.WithPort(s.cfg.Port), gomail.WithTLSPolicy(tls)}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	c, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.log.Error("smtp send failed", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("smtp send: %w", err)
	}
	s.log.Info("smtp send ok", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// LogSender 开发环境用
type LogSender struct{ log *zap.Logger }

func NewLogSender(l *zap.Logger) *LogSender { return &LogSender{log: l.Named("mail")} }

func (s *LogSender) SendConfirmEmail(_ context.Context, to, link string) error {
	s.log.Info("confirm email (not sent, smtp disabled)", zap.String("to", to), zap.String("link", link))
	return nil
}
