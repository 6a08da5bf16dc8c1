package birthday

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler は固定間隔のタイマーでジェネレータとディスパッチャを駆動する。
// ティック間で状態を持たず、すべての状態は永続化されたジョブにある。
// プロセスが再起動しても、次のティックが永続状態と現在時刻から処理を再開できる。
type Scheduler struct {
	generator  *Generator
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(generator *Generator, dispatcher *Dispatcher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		generator:  generator,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
// パスは直列に実行され、同一ジョブに対して2つのパスが並行することはない。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("誕生日スケジューラを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に生成とディスパッチを1回ずつ実行する。
	// 生成は冪等なので、UTC深夜0時を跨いだ再起動でも安全に取りこぼしを回収できる
	if err := s.generator.Run(ctx); err != nil {
		s.logger.Error("ジョブ生成パスの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
	if err := s.dispatcher.Run(ctx); err != nil {
		s.logger.Error("ディスパッチパスの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("誕生日スケジューラを停止しました")
			return
		case <-ticker.C:
			s.Tick(ctx, time.Now().UTC(), interval)
		}
	}
}

// Tick は1ティック分のパスを実行する。
// 生成ティックではジェネレータを、それ以外ではディスパッチャを起動する。
// パス内のエラーはこのティックの失敗としてログに記録され、
// 次のティックが独立に再試行する。
func (s *Scheduler) Tick(ctx context.Context, now time.Time, interval time.Duration) {
	if IsGenerationTick(now, interval) {
		if err := s.generator.Run(ctx); err != nil {
			s.logger.Error("ジョブ生成パスの実行に失敗しました",
				slog.String("error", err.Error()),
			)
		}
		return
	}

	if err := s.dispatcher.Run(ctx); err != nil {
		s.logger.Error("ディスパッチパスの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// IsGenerationTick はこのティックが日次のジョブ生成を担当するかを判定する。
// UTC深夜0時からティック間隔以内に発生した最初のティックが生成ティックとなる。
// ティッカーが深夜0時に整列していなくても、1日に1回の生成が保証される。
func IsGenerationTick(now time.Time, interval time.Duration) bool {
	u := now.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return u.Sub(midnight) < interval
}
