package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/greetman/internal/model"
)

// PostgresBirthdayJobRepo はPostgreSQLを使用した誕生日ジョブリポジトリ。
type PostgresBirthdayJobRepo struct {
	db *sql.DB
}

// NewPostgresBirthdayJobRepo はPostgresBirthdayJobRepoを生成する。
func NewPostgresBirthdayJobRepo(db *sql.DB) *PostgresBirthdayJobRepo {
	return &PostgresBirthdayJobRepo{db: db}
}

const jobColumns = `id, user_id, user_name, user_email, birthday, timezone,
	date, send_birthday_at, sent, sent_at, attempts, created_at, updated_at`

// scanJob は1行をBirthdayJobにスキャンする。
func scanJob(row interface{ Scan(...any) error }) (*model.BirthdayJob, error) {
	job := &model.BirthdayJob{}
	var sentAt sql.NullTime
	err := row.Scan(
		&job.ID, &job.UserID, &job.UserName, &job.UserEmail, &job.Birthday, &job.Timezone,
		&job.Date, &job.SendBirthdayAt, &job.Sent, &sentAt, &job.Attempts,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sentAt.Valid {
		t := sentAt.Time
		job.SentAt = &t
	}
	return job, nil
}

// FindPendingByUserID は指定ユーザーの未配信ジョブを取得する。存在しない場合はnilを返す。
func (r *PostgresBirthdayJobRepo) FindPendingByUserID(ctx context.Context, userID string) (*model.BirthdayJob, error) {
	job, err := scanJob(r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM birthday_jobs WHERE user_id = $1 AND NOT sent`,
		userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending job: %w", err)
	}

	return job, nil
}

// Create はジョブを作成する。
// 同一ユーザーの未配信ジョブが既に存在する場合は部分一意インデックス違反を返す。
func (r *PostgresBirthdayJobRepo) Create(ctx context.Context, job *model.BirthdayJob) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO birthday_jobs
		 (id, user_id, user_name, user_email, birthday, timezone,
		  date, send_birthday_at, sent, sent_at, attempts, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		job.ID, job.UserID, job.UserName, job.UserEmail, job.Birthday, job.Timezone,
		job.Date, job.SendBirthdayAt, job.Sent, nullTime(job.SentAt), job.Attempts,
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert birthday job: %w", err)
	}

	return nil
}

// ListPendingByMonthDays はスナップショットの誕生日の月日が候補のいずれかに一致する
// 未配信ジョブを作成日時の降順で取得する。候補が空の場合は空リストを返す。
func (r *PostgresBirthdayJobRepo) ListPendingByMonthDays(ctx context.Context, candidates []model.MonthDay) ([]*model.BirthdayJob, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	// (月, 日) の行コンストラクタIN句を動的に構築する
	placeholders := make([]string, 0, len(candidates))
	args := make([]any, 0, len(candidates)*2)
	for i, md := range candidates {
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2))
		args = append(args, int(md.Month), md.Day)
	}

	query := `SELECT ` + jobColumns + ` FROM birthday_jobs
		 WHERE NOT sent
		   AND (EXTRACT(MONTH FROM birthday)::int, EXTRACT(DAY FROM birthday)::int) IN (` +
		strings.Join(placeholders, ", ") + `)
		 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.BirthdayJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan birthday job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate birthday jobs: %w", err)
	}

	return jobs, nil
}

// MarkSent はジョブを配信済みに遷移させる。
// WHERE句のNOT sent条件により、遷移は条件付きUPDATEとしてアトミックに行われる。
// 既に配信済みの場合は0行更新となりfalseを返す。
func (r *PostgresBirthdayJobRepo) MarkSent(ctx context.Context, jobID string, sentAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE birthday_jobs
		 SET sent = TRUE, sent_at = $2, updated_at = now()
		 WHERE id = $1 AND NOT sent`,
		jobID, sentAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark job as sent: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// IncrementAttempts は配信試行回数を1増やす。
func (r *PostgresBirthdayJobRepo) IncrementAttempts(ctx context.Context, jobID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE birthday_jobs SET attempts = attempts + 1, updated_at = now() WHERE id = $1`,
		jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment attempts: %w", err)
	}

	return nil
}

// nullTime は*time.Timeをsql.NullTimeに変換する。
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// compile-time interface check
var _ BirthdayJobRepository = (*PostgresBirthdayJobRepo)(nil)
