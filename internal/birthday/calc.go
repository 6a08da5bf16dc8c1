// Package birthday は誕生日通知のタイムゾーン計算を提供する。
// ローカル時刻変換、次回送信時刻の算出、配信ウィンドウ判定を含む。
// すべて純粋関数であり状態を持たない。
package birthday

import (
	"fmt"
	"time"

	"github.com/hitoshi/greetman/internal/model"
)

// SendHour は通知を配信するローカル時刻（時）。
const SendHour = 9

// LocalTime はUTC時刻を指定IANAタイムゾーンのローカル時刻に変換する。
// DSTや歴史的オフセット変更はIANA tzデータベースのセマンティクスに従う。
// ゾーンが解決できない場合のみエラーを返す。呼び出し側は
// ユーザー単位のスキップとして扱い、バッチ全体を失敗させてはならない。
func LocalTime(utc time.Time, zone string) (time.Time, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to resolve timezone %q: %w", zone, err)
	}
	return utc.In(loc), nil
}

// NextSendUTC は誕生日の月日がローカル時刻で09:00を迎える次のUTC時刻を返す。
// ローカル現在年の(誕生月, 誕生日, 09:00)を構築し、それがreferenceNowUTC以前で
// あれば翌年に進めて再計算する。うるう年でない年の2月29日生まれは2月28日に
// 繰り上げる（クランプ方針）。
func NextSendUTC(birthDate time.Time, zone string, referenceNowUTC time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to resolve timezone %q: %w", zone, err)
	}

	localNow := referenceNowUTC.In(loc)
	month := birthDate.Month()
	day := birthDate.Day()

	year := localNow.Year()
	target := time.Date(year, month, clampDay(year, month, day), SendHour, 0, 0, 0, loc)
	if !target.After(referenceNowUTC) {
		year++
		target = time.Date(year, month, clampDay(year, month, day), SendHour, 0, 0, 0, loc)
	}

	return target.UTC(), nil
}

// clampDay はうるう年でない年の2月29日を2月28日に繰り上げる。
// クランプせずにtime.Dateへ渡すと3月1日に正規化されてしまうため、
// 構築前に補正する。
func clampDay(year int, month time.Month, day int) int {
	if month == time.February && day == 29 && !isLeapYear(year) {
		return 28
	}
	return day
}

// isLeapYear はグレゴリオ暦のうるう年判定を行う。
func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// GenerationMonthDays はジョブ生成パスが照合すべき月日候補を返す。
// 基本は「今日（UTC）」の月日1件。今日がうるう年でない年の2月28日の場合は
// 2月29日生まれのユーザーも対象に含める（クランプ方針の生成側）。
func GenerationMonthDays(nowUTC time.Time) []model.MonthDay {
	return monthDaysFor(nowUTC.UTC())
}

// WindowMonthDays はディスパッチパスが照合すべき月日候補を返す。
// 「今」を中心としたUTC3日間（昨日・今日・明日）の月日を真のUTCで計算する。
// 日付変更線付近のタイムゾーンでは、ジョブの誕生日がUTC暦日とずれるため、
// 候補を広げて取りこぼしを防ぐ。
func WindowMonthDays(nowUTC time.Time) []model.MonthDay {
	now := nowUTC.UTC()
	seen := make(map[model.MonthDay]bool)
	var out []model.MonthDay

	for _, offset := range []int{-1, 0, 1} {
		for _, md := range monthDaysFor(now.AddDate(0, 0, offset)) {
			if !seen[md] {
				seen[md] = true
				out = append(out, md)
			}
		}
	}

	return out
}

// monthDaysFor は指定日の月日候補を返す。
// うるう年でない年の2月28日には2月29日を追加する。
func monthDaysFor(day time.Time) []model.MonthDay {
	mds := []model.MonthDay{model.MonthDayOf(day)}
	if day.Month() == time.February && day.Day() == 28 && !isLeapYear(day.Year()) {
		mds = append(mds, model.MonthDay{Month: time.February, Day: 29})
	}
	return mds
}

// EligibleAt はジョブが「今」配信可能かを判定する。
// 「今」とSendBirthdayAtをジョブのタイムゾーンでローカル表現に変換し、
// 月・日・時がすべて一致し、かつローカル時が09時である場合のみtrueを返す。
// 09時のウィンドウ外のジョブは次のティックで再評価される。
func EligibleAt(job *model.BirthdayJob, nowUTC time.Time) (bool, error) {
	loc, err := time.LoadLocation(job.Timezone)
	if err != nil {
		return false, fmt.Errorf("failed to resolve timezone %q: %w", job.Timezone, err)
	}

	localNow := nowUTC.In(loc)
	localSend := job.SendBirthdayAt.In(loc)

	eligible := localNow.Month() == localSend.Month() &&
		localNow.Day() == localSend.Day() &&
		localNow.Hour() == localSend.Hour() &&
		localNow.Hour() == SendHour

	return eligible, nil
}
