// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, user, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserNotFound    = "USER_NOT_FOUND"
	ErrCodeDuplicateEmail  = "DUPLICATE_EMAIL"
	ErrCodeInvalidEmail    = "INVALID_EMAIL"
	ErrCodeInvalidBirthday = "INVALID_BIRTHDAY"
	ErrCodeInvalidTimezone = "INVALID_TIMEZONE"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeEmptyName       = "EMPTY_NAME"
)

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "user",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewDuplicateEmailError はメールアドレスが既に登録済みの場合のエラーを生成する。
func NewDuplicateEmailError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  fmt.Sprintf("このメールアドレスは既に登録されています: %s", email),
		Category: "validation",
		Action:   "別のメールアドレスを指定してください。",
	}
}

// NewInvalidEmailError は無効なメールアドレスエラーを生成する。
func NewInvalidEmailError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  fmt.Sprintf("無効なメールアドレスです: %s", email),
		Category: "validation",
		Action:   "正しいメールアドレス形式で入力してください。",
	}
}

// NewInvalidBirthdayError は無効な誕生日エラーを生成する。
func NewInvalidBirthdayError(birthday string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidBirthday,
		Message:  fmt.Sprintf("無効な誕生日です: %s", birthday),
		Category: "validation",
		Action:   "誕生日はYYYY-MM-DD形式（例: 1990-12-25）で入力してください。",
	}
}

// NewInvalidTimezoneError は無効なIANAタイムゾーンエラーを生成する。
func NewInvalidTimezoneError(tz string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTimezone,
		Message:  fmt.Sprintf("無効なIANAタイムゾーンです: %s", tz),
		Category: "validation",
		Action:   "Asia/Tokyo のような有効なIANAタイムゾーン名を指定してください。",
	}
}

// NewEmptyNameError は名前が空の場合のエラーを生成する。
func NewEmptyNameError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyName,
		Message:  "名前が空です。",
		Category: "validation",
		Action:   "名前を入力してください。",
	}
}
