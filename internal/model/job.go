// Package model はドメインモデルを定義する。
package model

import "time"

// BirthdayJob は1回の誕生日通知の配信単位を表す。
// ユーザー情報は生成時点のスナップショットを保持し、
// 配信時にユーザーレコードが変更されていても影響を受けない。
type BirthdayJob struct {
	ID     string
	UserID string

	// 生成時点のスナップショット
	UserName  string
	UserEmail string
	Birthday  time.Time
	Timezone  string

	// Date は生成が行われたUTC暦日（深夜0時に切り捨て）。
	// 同一ユーザーの「今年の誕生日」を一意に識別する。
	Date time.Time

	// SendBirthdayAt はユーザーのローカル時刻で誕生日の09:00に対応するUTC時刻。
	SendBirthdayAt time.Time

	Sent     bool
	SentAt   *time.Time
	Attempts int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Pending は未配信（sent = false）かどうかを返す。
func (j *BirthdayJob) Pending() bool {
	return !j.Sent
}
