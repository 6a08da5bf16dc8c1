package notifier

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPConfig はSMTP配信の接続設定を保持する。
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier はSMTP経由でメールを配信するNotifier。
type SMTPNotifier struct {
	config SMTPConfig
}

// NewSMTPNotifier はSMTPNotifierを生成する。
func NewSMTPNotifier(config SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{config: config}
}

// Send は誕生日メッセージをメールとして送信する。
// gomailのDialAndSendは接続と送信を1回で行うため、失敗時は
// 呼び出し側のリトライで接続からやり直される。
func (n *SMTPNotifier) Send(ctx context.Context, name, email, message string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.config.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", fmt.Sprintf("Happy Birthday, %s!", name))
	m.SetBody("text/plain", message)

	d := gomail.NewDialer(n.config.Host, n.config.Port, n.config.Username, n.config.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	return nil
}

// compile-time interface check
var _ Notifier = (*SMTPNotifier)(nil)
