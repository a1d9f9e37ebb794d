// Package mail delivers verification codes, either straight over SMTP or
// through a redis backed retry queue
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var ErrSelfAddressed = errors.New("refusing to send mail to the sender address")

// Dispatcher hands a verification code to whatever delivers it
type Dispatcher interface {
	Dispatch(ctx context.Context, email, code string) error
}

// Sender delivers a message right away and reports the outcome
type Sender interface {
	Send(ctx context.Context, to, code string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// How long a code stays valid, only used for the message text
	CodeTTL time.Duration
}

type SMTPSender struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	d.SSL = cfg.Port == 465

	return &SMTPSender{cfg: cfg, dialer: d}
}

func (s *SMTPSender) Send(ctx context.Context, to, code string) error {
	if to == s.cfg.From {
		return ErrSelfAddressed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(VerificationMessage(s.cfg.From, to, code, s.cfg.CodeTTL)); err != nil {
		return fmt.Errorf("failed to send verification email, %w", err)
	}

	return nil
}

// Dispatch sends synchronously. Callers that don't want to wait run it in
// their own goroutine.
func (s *SMTPSender) Dispatch(ctx context.Context, email, code string) error {
	return s.Send(ctx, email, code)
}

func VerificationMessage(from, to, code string, ttl time.Duration) *gomail.Message {
	minutes := int(ttl.Minutes())

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Verify your email address")
	m.SetBody("text/plain", fmt.Sprintf("Your verification code is: %s\n\nThis code will expire in %d minutes.", code, minutes))
	m.AddAlternative("text/html", fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Verify your email address</h2>
  <p>Thank you for signing up! Please use the following code to verify your email address:</p>
  <div style="background-color: #f4f4f4; padding: 10px; text-align: center; font-size: 24px; letter-spacing: 5px; margin: 20px 0;">
    <strong>%s</strong>
  </div>
  <p>This code will expire in %d minutes.</p>
  <p>If you didn't request this verification, you can safely ignore this email.</p>
</div>`, code, minutes))

	return m
}

// LogDispatcher stands in for real delivery when mail is turned off outside
// of production. The code only ever reaches the debug log.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, email, code string) error {
	zap.L().Debug("Mail disabled, verification code not sent", zap.String("email", email), zap.String("code", code))
	return nil
}
