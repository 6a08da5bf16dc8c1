// Package notifier は誕生日通知の配信手段を提供する。
// コアはNotifierインターフェース越しに配信し、失敗は一律にリトライ対象として扱う。
package notifier

import (
	"context"
	"fmt"
	"log/slog"
)

// Notifier は通知配信のインターフェース。
type Notifier interface {
	// Send は指定の宛先に通知メッセージを配信する。
	// 失敗理由は区別せず、呼び出し側がリトライを判断する。
	Send(ctx context.Context, name, email, message string) error
}

// BuildMessage は誕生日メッセージ本文を構築する。
func BuildMessage(name, email string) string {
	return fmt.Sprintf("Happy Birthday, %s! (%s)", name, email)
}

// LogNotifier は構造化ログへの出力で配信を代替するNotifier。
// 開発環境およびログ配信モードで使用する。
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier はLogNotifierを生成する。
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send はメッセージをINFOレベルでログ出力する。常に成功する。
func (n *LogNotifier) Send(ctx context.Context, name, email, message string) error {
	n.logger.InfoContext(ctx, "birthday notification",
		slog.String("name", name),
		slog.String("email", email),
		slog.String("message", message),
	)
	return nil
}

// compile-time interface check
var _ Notifier = (*LogNotifier)(nil)
