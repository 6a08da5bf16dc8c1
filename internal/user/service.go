// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/greetman/internal/birthday"
	"github.com/hitoshi/greetman/internal/model"
	"github.com/hitoshi/greetman/internal/repository"
)

// birthdayFormat は誕生日入力の形式（YYYY-MM-DD）。
const birthdayFormat = "2006-01-02"

// Service はユーザー管理のサービス層。
// 登録・取得・更新・削除と、次回誕生日送信時刻の計算を提供する。
type Service struct {
	users repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(users repository.UserRepository) *Service {
	return &Service{users: users}
}

// Input はユーザー登録・更新の入力値。
type Input struct {
	Name     string
	Email    string
	Birthday string // YYYY-MM-DD
	Timezone string // IANAタイムゾーン名
}

// validate は入力値を検証し、正規化した誕生日を返す。
// タイムゾーンはIANA tzデータベースで解決できることを確認する。
func (in *Input) validate() (time.Time, error) {
	if strings.TrimSpace(in.Name) == "" {
		return time.Time{}, model.NewEmptyNameError()
	}

	if _, err := mail.ParseAddress(in.Email); err != nil {
		return time.Time{}, model.NewInvalidEmailError(in.Email)
	}

	bd, err := time.ParseInLocation(birthdayFormat, in.Birthday, time.UTC)
	if err != nil {
		return time.Time{}, model.NewInvalidBirthdayError(in.Birthday)
	}

	if _, err := time.LoadLocation(in.Timezone); err != nil || in.Timezone == "" {
		return time.Time{}, model.NewInvalidTimezoneError(in.Timezone)
	}

	return bd, nil
}

// Create はユーザーを登録する。
// 次回誕生日送信時刻（ローカル09:00のUTC表現）を計算してキャッシュする。
func (s *Service) Create(ctx context.Context, in Input) (*model.User, error) {
	bd, err := in.validate()
	if err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError(in.Email)
	}

	now := time.Now().UTC()
	next, err := birthday.NextSendUTC(bd, in.Timezone, now)
	if err != nil {
		// validateで解決済みのゾーンなので通常は到達しない
		return nil, model.NewInvalidTimezoneError(in.Timezone)
	}

	user := &model.User{
		ID:                uuid.NewString(),
		Name:              in.Name,
		Email:             in.Email,
		Birthday:          bd,
		Timezone:          in.Timezone,
		NextBirthdayAtUTC: next,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("ユーザーを登録しました",
		slog.String("user_id", user.ID),
		slog.String("timezone", user.Timezone),
		slog.Time("next_birthday_at_utc", next),
	)

	return user, nil
}

// Get は指定IDのユーザーを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}

	return user, nil
}

// Update はユーザー情報を全項目更新する。
// 誕生日またはタイムゾーンの変更に追随して次回送信時刻を再計算する。
func (s *Service) Update(ctx context.Context, id string, in Input) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}

	bd, err := in.validate()
	if err != nil {
		return nil, err
	}

	if in.Email != user.Email {
		existing, err := s.users.FindByEmail(ctx, in.Email)
		if err != nil {
			return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
		}
		if existing != nil {
			return nil, model.NewDuplicateEmailError(in.Email)
		}
	}

	now := time.Now().UTC()
	next, err := birthday.NextSendUTC(bd, in.Timezone, now)
	if err != nil {
		return nil, model.NewInvalidTimezoneError(in.Timezone)
	}

	user.Name = in.Name
	user.Email = in.Email
	user.Birthday = bd
	user.Timezone = in.Timezone
	user.NextBirthdayAtUTC = next
	user.UpdatedAt = now

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}

	return user, nil
}

// Delete は指定IDのユーザーを削除する。
// 既存の誕生日ジョブは履歴として残る（スナップショットなので配信には影響しない）。
func (s *Service) Delete(ctx context.Context, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError(id)
	}

	if err := s.users.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("ユーザーを削除しました",
		slog.String("user_id", id),
	)

	return nil
}
