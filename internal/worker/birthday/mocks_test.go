package birthday

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/hitoshi/greetman/internal/model"
)

// --- モック定義 ---

// mockUserRepo はUserRepositoryのテスト用モック。
type mockUserRepo struct {
	findByIDFunc               func(ctx context.Context, id string) (*model.User, error)
	findByEmailFunc            func(ctx context.Context, email string) (*model.User, error)
	createFunc                 func(ctx context.Context, user *model.User) error
	updateFunc                 func(ctx context.Context, user *model.User) error
	deleteByIDFunc             func(ctx context.Context, id string) error
	listByBirthdayMonthDayFunc func(ctx context.Context, md model.MonthDay) ([]*model.User, error)
	updateNextBirthdayAtFunc   func(ctx context.Context, userID string, at time.Time) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFunc != nil {
		return m.deleteByIDFunc(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) ListByBirthdayMonthDay(ctx context.Context, md model.MonthDay) ([]*model.User, error) {
	if m.listByBirthdayMonthDayFunc != nil {
		return m.listByBirthdayMonthDayFunc(ctx, md)
	}
	return nil, nil
}

func (m *mockUserRepo) UpdateNextBirthdayAt(ctx context.Context, userID string, at time.Time) error {
	if m.updateNextBirthdayAtFunc != nil {
		return m.updateNextBirthdayAtFunc(ctx, userID, at)
	}
	return nil
}

// mockJobRepo はBirthdayJobRepositoryのテスト用モック。
type mockJobRepo struct {
	findPendingByUserIDFunc    func(ctx context.Context, userID string) (*model.BirthdayJob, error)
	createFunc                 func(ctx context.Context, job *model.BirthdayJob) error
	listPendingByMonthDaysFunc func(ctx context.Context, candidates []model.MonthDay) ([]*model.BirthdayJob, error)
	markSentFunc               func(ctx context.Context, jobID string, sentAt time.Time) (bool, error)
	incrementAttemptsFunc      func(ctx context.Context, jobID string) error
}

func (m *mockJobRepo) FindPendingByUserID(ctx context.Context, userID string) (*model.BirthdayJob, error) {
	if m.findPendingByUserIDFunc != nil {
		return m.findPendingByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockJobRepo) Create(ctx context.Context, job *model.BirthdayJob) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, job)
	}
	return nil
}

func (m *mockJobRepo) ListPendingByMonthDays(ctx context.Context, candidates []model.MonthDay) ([]*model.BirthdayJob, error) {
	if m.listPendingByMonthDaysFunc != nil {
		return m.listPendingByMonthDaysFunc(ctx, candidates)
	}
	return nil, nil
}

func (m *mockJobRepo) MarkSent(ctx context.Context, jobID string, sentAt time.Time) (bool, error) {
	if m.markSentFunc != nil {
		return m.markSentFunc(ctx, jobID, sentAt)
	}
	return true, nil
}

func (m *mockJobRepo) IncrementAttempts(ctx context.Context, jobID string) error {
	if m.incrementAttemptsFunc != nil {
		return m.incrementAttemptsFunc(ctx, jobID)
	}
	return nil
}

// mockNotifier はNotifierのテスト用モック。
type mockNotifier struct {
	sendFunc func(ctx context.Context, name, email, message string) error
}

func (m *mockNotifier) Send(ctx context.Context, name, email, message string) error {
	if m.sendFunc != nil {
		return m.sendFunc(ctx, name, email, message)
	}
	return nil
}

// mockMetrics はMetricsRecorderのテスト用モック。
type mockMetrics struct {
	jobsGenerated int
	notifySuccess int
	notifyFailure int
	sendLatencies []time.Duration
	passDurations map[string]int
}

func (m *mockMetrics) RecordJobGenerated()  { m.jobsGenerated++ }
func (m *mockMetrics) RecordNotifySuccess() { m.notifySuccess++ }
func (m *mockMetrics) RecordNotifyFailure() { m.notifyFailure++ }

func (m *mockMetrics) RecordSendLatency(duration time.Duration) {
	m.sendLatencies = append(m.sendLatencies, duration)
}

func (m *mockMetrics) RecordPassDuration(pass string, duration time.Duration) {
	if m.passDurations == nil {
		m.passDurations = make(map[string]int)
	}
	m.passDurations[pass]++
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastDispatcherConfig はテスト向けにバックオフ待機をほぼ無くした設定を返す。
func fastDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		MaxAttempts:    3,
		BackoffInitial: time.Millisecond,
	}
}
