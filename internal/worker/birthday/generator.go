// Package birthday は誕生日通知ジョブのバックグラウンド処理を提供する。
// ジェネレータ（日次のジョブ生成）、ディスパッチャ（ティックごとの配信評価）、
// スケジューラ（固定間隔ドライバ）を含む。
package birthday

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	calc "github.com/hitoshi/greetman/internal/birthday"
	"github.com/hitoshi/greetman/internal/model"
	"github.com/hitoshi/greetman/internal/repository"
)

// MetricsRecorder はワーカーが記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	RecordJobGenerated()
	RecordNotifySuccess()
	RecordNotifyFailure()
	RecordSendLatency(duration time.Duration)
	RecordPassDuration(pass string, duration time.Duration)
}

// GenerateResult はユーザー1件あたりのジョブ生成結果を表す。
type GenerateResult int

const (
	// GenerateResultCreated は新規ジョブが作成された。
	GenerateResultCreated GenerateResult = iota
	// GenerateResultSkipped は未配信ジョブが既に存在するためスキップした。
	GenerateResultSkipped
	// GenerateResultFailed はユーザー単位の失敗（不正タイムゾーン等）。
	// バッチの残りのユーザーには影響しない。
	GenerateResultFailed
)

// Generator は日次のジョブ生成パスを実行する。
// 「今日（UTC）」が誕生日のユーザーを走査し、未配信ジョブが無ければ1件作成する。
// 同一日の再実行は冪等（既存の未配信ジョブがあれば何もしない）。
type Generator struct {
	users   repository.UserRepository
	jobs    repository.BirthdayJobRepository
	logger  *slog.Logger
	metrics MetricsRecorder
}

// NewGenerator はGeneratorの新しいインスタンスを生成する。
func NewGenerator(
	users repository.UserRepository,
	jobs repository.BirthdayJobRepository,
	logger *slog.Logger,
	metrics MetricsRecorder,
) *Generator {
	return &Generator{
		users:   users,
		jobs:    jobs,
		logger:  logger,
		metrics: metrics,
	}
}

// Run は現在時刻を基準にジョブ生成パスを1回実行する。
func (g *Generator) Run(ctx context.Context) error {
	return g.runAt(ctx, time.Now().UTC())
}

// runAt は指定時刻を「今」としてジョブ生成パスを実行する。
// ユーザー単位の失敗はログに記録してスキップし、パス全体は失敗させない。
func (g *Generator) runAt(ctx context.Context, now time.Time) error {
	start := time.Now()
	today := midnightUTC(now)

	var created, skipped, failed int

	for _, md := range calc.GenerationMonthDays(now) {
		users, err := g.users.ListByBirthdayMonthDay(ctx, md)
		if err != nil {
			// リポジトリ読み取りの失敗は候補単位で記録し、残りの候補を続行する
			g.logger.Error("誕生日ユーザーの取得に失敗しました",
				slog.Int("month", int(md.Month)),
				slog.Int("day", md.Day),
				slog.String("error", err.Error()),
			)
			failed++
			continue
		}

		for _, user := range users {
			switch g.generateFor(ctx, user, today, now) {
			case GenerateResultCreated:
				created++
			case GenerateResultSkipped:
				skipped++
			case GenerateResultFailed:
				failed++
			}
		}
	}

	duration := time.Since(start)
	if g.metrics != nil {
		g.metrics.RecordPassDuration("generation", duration)
	}

	g.logger.Info("ジョブ生成パスが完了しました",
		slog.String("date", today.Format("2006-01-02")),
		slog.Int("created", created),
		slog.Int("skipped", skipped),
		slog.Int("failed", failed),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// generateFor はユーザー1件分のジョブ生成を行う。
// ユーザー情報は生成時点のスナップショットとしてジョブに複製する。
func (g *Generator) generateFor(ctx context.Context, user *model.User, today, now time.Time) GenerateResult {
	pending, err := g.jobs.FindPendingByUserID(ctx, user.ID)
	if err != nil {
		g.logger.Error("未配信ジョブの確認に失敗しました",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return GenerateResultFailed
	}
	if pending != nil {
		// 冪等な再実行: 未配信ジョブが既にあるので何もしない
		g.logger.Debug("未配信ジョブが既に存在するためスキップします",
			slog.String("user_id", user.ID),
			slog.String("job_id", pending.ID),
		)
		return GenerateResultSkipped
	}

	sendAt, err := calc.NextSendUTC(user.Birthday, user.Timezone, now)
	if err != nil {
		// 不正なタイムゾーンはユーザー単位のスキップ。バッチは続行する
		g.logger.Error("送信時刻の計算に失敗しました",
			slog.String("user_id", user.ID),
			slog.String("timezone", user.Timezone),
			slog.String("error", err.Error()),
		)
		return GenerateResultFailed
	}

	job := &model.BirthdayJob{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		UserName:       user.Name,
		UserEmail:      user.Email,
		Birthday:       user.Birthday,
		Timezone:       user.Timezone,
		Date:           today,
		SendBirthdayAt: sendAt,
		Sent:           false,
		Attempts:       0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := g.jobs.Create(ctx, job); err != nil {
		g.logger.Error("ジョブの作成に失敗しました",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return GenerateResultFailed
	}

	if g.metrics != nil {
		g.metrics.RecordJobGenerated()
	}

	g.logger.Info("誕生日ジョブを作成しました",
		slog.String("job_id", job.ID),
		slog.String("user_id", user.ID),
		slog.Time("send_birthday_at", sendAt),
	)

	return GenerateResultCreated
}

// midnightUTC はtのUTC暦日の深夜0時を返す。
func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
