package birthday

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	calc "github.com/hitoshi/greetman/internal/birthday"
	"github.com/hitoshi/greetman/internal/model"
	"github.com/hitoshi/greetman/internal/notifier"
	"github.com/hitoshi/greetman/internal/repository"
)

// DispatchResult はジョブ1件あたりのディスパッチ結果を表す。
type DispatchResult int

const (
	// DispatchResultSent は配信が成功した。
	DispatchResultSent DispatchResult = iota
	// DispatchResultNotDue はローカル09時のウィンドウ外。次のティックで再評価される。
	DispatchResultNotDue
	// DispatchResultAlreadySent は防御的再チェックで配信済みと判明した。
	DispatchResultAlreadySent
	// DispatchResultFailed はティック内のリトライを使い切って失敗した。
	// ジョブは未配信のまま残り、次のティックで再試行される。
	DispatchResultFailed
)

// DispatcherConfig はディスパッチャの設定を保持する。
type DispatcherConfig struct {
	// MaxAttempts はティック内の最大配信試行回数。
	MaxAttempts int
	// BackoffInitial は初回リトライまでの待機時間。以降は2倍ずつ増加する。
	BackoffInitial time.Duration
}

// DefaultDispatcherConfig はデフォルトのディスパッチャ設定を返す。
// ティック内3回試行、バックオフは2秒・4秒（2^attempt秒）。
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		MaxAttempts:    3,
		BackoffInitial: 2 * time.Second,
	}
}

// Dispatcher はティックごとの配信評価パスを実行する。
// 未配信ジョブを3日間のUTCウィンドウで取得し、オーナーのローカル時刻が
// 09時のウィンドウに入ったジョブを冪等に配信する。
type Dispatcher struct {
	jobs     repository.BirthdayJobRepository
	users    repository.UserRepository
	notifier notifier.Notifier
	logger   *slog.Logger
	metrics  MetricsRecorder
	config   DispatcherConfig
}

// NewDispatcher はDispatcherの新しいインスタンスを生成する。
// MaxAttemptsが0以下の場合はデフォルト設定を使用する。
func NewDispatcher(
	jobs repository.BirthdayJobRepository,
	users repository.UserRepository,
	n notifier.Notifier,
	logger *slog.Logger,
	metrics MetricsRecorder,
	config DispatcherConfig,
) *Dispatcher {
	if config.MaxAttempts <= 0 {
		config = DefaultDispatcherConfig()
	}
	return &Dispatcher{
		jobs:     jobs,
		users:    users,
		notifier: n,
		logger:   logger,
		metrics:  metrics,
		config:   config,
	}
}

// Run は現在時刻を基準にディスパッチパスを1回実行する。
func (d *Dispatcher) Run(ctx context.Context) error {
	return d.runAt(ctx, time.Now().UTC())
}

// runAt は指定時刻を「今」としてディスパッチパスを実行する。
// 候補の取得が丸ごと失敗した場合のみエラーを返す（失敗ティックとして記録され、
// 次のティックが独立に再試行する）。ジョブ単位の失敗はパスを中断しない。
func (d *Dispatcher) runAt(ctx context.Context, now time.Time) error {
	start := time.Now()

	candidates := calc.WindowMonthDays(now)
	jobs, err := d.jobs.ListPendingByMonthDays(ctx, candidates)
	if err != nil {
		return fmt.Errorf("failed to list pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		d.logger.Debug("配信候補のジョブはありません")
		return nil
	}

	var sent, notDue, failed int

	for _, job := range jobs {
		switch d.dispatch(ctx, job, now) {
		case DispatchResultSent:
			sent++
		case DispatchResultNotDue, DispatchResultAlreadySent:
			notDue++
		case DispatchResultFailed:
			failed++
		}
	}

	duration := time.Since(start)
	if d.metrics != nil {
		d.metrics.RecordPassDuration("dispatch", duration)
	}

	d.logger.Info("ディスパッチパスが完了しました",
		slog.Int("candidates", len(jobs)),
		slog.Int("sent", sent),
		slog.Int("not_due", notDue),
		slog.Int("failed", failed),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// dispatch はジョブ1件分の配信評価と配信を行う。
func (d *Dispatcher) dispatch(ctx context.Context, job *model.BirthdayJob, now time.Time) DispatchResult {
	eligible, err := calc.EligibleAt(job, now)
	if err != nil {
		// スナップショットのタイムゾーンが解決できない。ジョブ単位のスキップ
		d.logger.Error("配信可否の判定に失敗しました",
			slog.String("job_id", job.ID),
			slog.String("timezone", job.Timezone),
			slog.String("error", err.Error()),
		)
		return DispatchResultFailed
	}
	if !eligible {
		return DispatchResultNotDue
	}

	// クエリ時点でフィルタ済みだが、遷移前に防御的に再チェックする
	if job.Sent {
		d.logger.Debug("ジョブは既に配信済みです",
			slog.String("job_id", job.ID),
		)
		return DispatchResultAlreadySent
	}

	if err := d.deliver(ctx, job); err != nil {
		if d.metrics != nil {
			d.metrics.RecordNotifyFailure()
		}
		// ジョブは未配信のまま残る。次のティックのパスが再試行する
		d.logger.Error("配信リトライを使い切りました",
			slog.String("job_id", job.ID),
			slog.String("user_id", job.UserID),
			slog.Int("max_attempts", d.config.MaxAttempts),
			slog.String("error", err.Error()),
		)
		return DispatchResultFailed
	}

	if d.metrics != nil {
		d.metrics.RecordNotifySuccess()
	}

	d.logger.Info("誕生日通知を配信しました",
		slog.String("job_id", job.ID),
		slog.String("user_id", job.UserID),
	)

	return DispatchResultSent
}

// deliver は通知送信・配信済み遷移・次回誕生日キャッシュの更新を1単位として、
// 指数バックオフ付きで最大MaxAttempts回試行する。
// 送信と遷移が成功した後の試行では再送しない（二重送信ガード）。
func (d *Dispatcher) deliver(ctx context.Context, job *model.BirthdayJob) error {
	message := notifier.BuildMessage(job.UserName, job.UserEmail)

	var delivered, marked bool

	operation := func() error {
		// 試行回数はティックをまたいで累積する
		if err := d.jobs.IncrementAttempts(ctx, job.ID); err != nil {
			return fmt.Errorf("failed to increment attempts: %w", err)
		}

		if !delivered {
			sendStart := time.Now()
			if err := d.notifier.Send(ctx, job.UserName, job.UserEmail, message); err != nil {
				return fmt.Errorf("failed to send notification: %w", err)
			}
			if d.metrics != nil {
				d.metrics.RecordSendLatency(time.Since(sendStart))
			}
			delivered = true
		}

		if !marked {
			ok, err := d.jobs.MarkSent(ctx, job.ID, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("failed to mark job as sent: %w", err)
			}
			if !ok {
				// 別のディスパッチャが先に遷移させた。sent_atは上書きされない
				d.logger.Warn("ジョブは別のパスで配信済みに遷移していました",
					slog.String("job_id", job.ID),
				)
				return nil
			}
			marked = true
		}

		next, err := calc.NextSendUTC(job.Birthday, job.Timezone, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to compute next birthday: %w", err)
		}
		if err := d.users.UpdateNextBirthdayAt(ctx, job.UserID, next); err != nil {
			return fmt.Errorf("failed to update next birthday: %w", err)
		}

		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.config.BackoffInitial
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	// MaxAttempts回の試行 = 初回 + (MaxAttempts-1)回のリトライ
	retries := uint64(d.config.MaxAttempts - 1)

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx))
}
