// Package model はドメインモデルを定義する。
package model

import "time"

// User は誕生日通知の対象ユーザーを表す。
// Birthdayは暦日として扱い、マッチングには月日のみを使用する（年は年齢表示用）。
type User struct {
	ID                string
	Name              string
	Email             string
	Birthday          time.Time
	Timezone          string
	NextBirthdayAtUTC time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// MonthDay は暦日の月日ペアを表す。誕生日マッチングの候補キーとして使う。
type MonthDay struct {
	Month time.Month
	Day   int
}

// MonthDayOf はUTC基準でtの月日を返す。
func MonthDayOf(t time.Time) MonthDay {
	u := t.UTC()
	return MonthDay{Month: u.Month(), Day: u.Day()}
}
