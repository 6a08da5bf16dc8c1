// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/greetman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
// APIサーバーのCRUDと、ワーカーのユーザーディレクトリ参照の両方を提供する。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザー情報を全項目更新する。
	Update(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	DeleteByID(ctx context.Context, id string) error

	// ListByBirthdayMonthDay は誕生日の月日が一致するユーザーを取得する。
	// 誕生年はマッチングに使用しない。
	ListByBirthdayMonthDay(ctx context.Context, md model.MonthDay) ([]*model.User, error)

	// UpdateNextBirthdayAt は次回誕生日送信時刻のキャッシュを更新する。
	// 配信成功後にワーカーから呼ばれる。
	UpdateNextBirthdayAt(ctx context.Context, userID string, at time.Time) error
}

// BirthdayJobRepository は誕生日ジョブの永続化インターフェース。
// ジョブはコアのみが作成・更新し、削除はしない（履歴として保持する）。
type BirthdayJobRepository interface {
	// FindPendingByUserID は指定ユーザーの未配信ジョブを取得する。
	// 存在しない場合はnilを返す。生成パスの冪等性チェックに使う。
	FindPendingByUserID(ctx context.Context, userID string) (*model.BirthdayJob, error)

	// Create はジョブを作成する。
	// 同一ユーザーの未配信ジョブが既に存在する場合は一意制約違反を返す。
	Create(ctx context.Context, job *model.BirthdayJob) error

	// ListPendingByMonthDays はスナップショットの誕生日の月日が候補のいずれかに
	// 一致する未配信ジョブを作成日時の降順（新しい順）で取得する。
	ListPendingByMonthDays(ctx context.Context, candidates []model.MonthDay) ([]*model.BirthdayJob, error)

	// MarkSent はジョブを配信済みに遷移させる。
	// ジョブがまだ未配信の場合のみ成功しtrueを返す。
	// 既に配信済みの場合はfalseを返し、sent_atは上書きしない（二重送信ガード）。
	MarkSent(ctx context.Context, jobID string, sentAt time.Time) (bool, error)

	// IncrementAttempts は配信試行回数を1増やす。ティックをまたいで累積する。
	IncrementAttempts(ctx context.Context, jobID string) error
}
