package birthday

import (
	"testing"
	"time"

	"github.com/hitoshi/greetman/internal/model"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}
	return ts
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TestLocalTime_ConvertsToZone はUTC時刻がIANAゾーンのローカル時刻に変換されることを検証する。
func TestLocalTime_ConvertsToZone(t *testing.T) {
	utc := mustParse(t, "2024-12-25T02:00:00Z")

	local, err := LocalTime(utc, "Asia/Jakarta")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// ジャカルタはUTC+7
	if local.Hour() != 9 {
		t.Errorf("hour = %d, want 9", local.Hour())
	}
	if local.Day() != 25 {
		t.Errorf("day = %d, want 25", local.Day())
	}
}

// TestLocalTime_InvalidZone_ReturnsError は不正なゾーン名でエラーが返ることを検証する。
func TestLocalTime_InvalidZone_ReturnsError(t *testing.T) {
	_, err := LocalTime(time.Now(), "Mars/Olympus_Mons")
	if err == nil {
		t.Fatal("expected error for invalid timezone, got nil")
	}
}

// TestNextSendUTC_Jakarta は東側タイムゾーンの次回送信時刻を検証する。
// ジャカルタ（UTC+7）の09:00はUTCの02:00にあたる。
func TestNextSendUTC_Jakarta(t *testing.T) {
	birthday := date(1990, time.December, 25)
	now := mustParse(t, "2024-12-25T00:00:00Z")

	got, err := NextSendUTC(birthday, "Asia/Jakarta", now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := mustParse(t, "2024-12-25T02:00:00Z")
	if !got.Equal(want) {
		t.Errorf("NextSendUTC = %v, want %v", got, want)
	}
}

// TestNextSendUTC_RollsOverToNextYear は今年の送信時刻を過ぎている場合に翌年へ進むことを検証する。
func TestNextSendUTC_RollsOverToNextYear(t *testing.T) {
	birthday := date(1990, time.December, 25)
	// 2024年の送信時刻（02:00Z）を過ぎた直後
	now := mustParse(t, "2024-12-25T02:00:00Z")

	got, err := NextSendUTC(birthday, "Asia/Jakarta", now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := mustParse(t, "2025-12-25T02:00:00Z")
	if !got.Equal(want) {
		t.Errorf("NextSendUTC = %v, want %v", got, want)
	}
}

// TestNextSendUTC_StrictlyAfterReference は返却値が常に基準時刻より後であることを検証する。
func TestNextSendUTC_StrictlyAfterReference(t *testing.T) {
	birthday := date(1995, time.June, 15)
	zones := []string{"UTC", "Asia/Tokyo", "America/Los_Angeles", "Pacific/Kiritimati"}
	refs := []string{
		"2024-06-15T08:59:59Z",
		"2024-06-15T09:00:00Z",
		"2024-06-14T23:00:00Z",
		"2024-12-31T23:59:59Z",
	}

	for _, zone := range zones {
		for _, ref := range refs {
			now := mustParse(t, ref)
			got, err := NextSendUTC(birthday, zone, now)
			if err != nil {
				t.Fatalf("zone %s ref %s: unexpected error: %v", zone, ref, err)
			}
			if !got.After(now) {
				t.Errorf("zone %s ref %s: NextSendUTC = %v, want strictly after %v", zone, ref, got, now)
			}
		}
	}
}

// TestNextSendUTC_WestOfUTC は西側タイムゾーンのUTC換算を検証する。
// ロサンゼルス（冬はUTC-8）の09:00はUTCの17:00にあたる。
func TestNextSendUTC_WestOfUTC(t *testing.T) {
	birthday := date(2000, time.January, 1)
	now := mustParse(t, "2024-12-31T16:00:00Z")

	got, err := NextSendUTC(birthday, "America/Los_Angeles", now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := mustParse(t, "2025-01-01T17:00:00Z")
	if !got.Equal(want) {
		t.Errorf("NextSendUTC = %v, want %v", got, want)
	}
}

// TestNextSendUTC_LeapDayClampsToFeb28 はうるう年でない年の2月29日生まれが2月28日に繰り上がることを検証する。
func TestNextSendUTC_LeapDayClampsToFeb28(t *testing.T) {
	birthday := date(2000, time.February, 29)
	now := mustParse(t, "2025-01-15T00:00:00Z")

	got, err := NextSendUTC(birthday, "UTC", now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := mustParse(t, "2025-02-28T09:00:00Z")
	if !got.Equal(want) {
		t.Errorf("NextSendUTC = %v, want %v", got, want)
	}
}

// TestNextSendUTC_LeapDayInLeapYear はうるう年では2月29日のまま送信されることを検証する。
func TestNextSendUTC_LeapDayInLeapYear(t *testing.T) {
	birthday := date(2000, time.February, 29)
	now := mustParse(t, "2024-01-15T00:00:00Z")

	got, err := NextSendUTC(birthday, "UTC", now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := mustParse(t, "2024-02-29T09:00:00Z")
	if !got.Equal(want) {
		t.Errorf("NextSendUTC = %v, want %v", got, want)
	}
}

// TestNextSendUTC_InvalidZone_ReturnsError は不正なゾーンでエラーが返ることを検証する。
func TestNextSendUTC_InvalidZone_ReturnsError(t *testing.T) {
	_, err := NextSendUTC(date(1990, time.May, 1), "Not/A_Zone", time.Now().UTC())
	if err == nil {
		t.Fatal("expected error for invalid timezone, got nil")
	}
}

// TestGenerationMonthDays_NormalDay は通常日の候補が当日1件であることを検証する。
func TestGenerationMonthDays_NormalDay(t *testing.T) {
	now := mustParse(t, "2024-12-25T00:05:00Z")

	got := GenerationMonthDays(now)

	want := []model.MonthDay{{Month: time.December, Day: 25}}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("GenerationMonthDays = %v, want %v", got, want)
	}
}

// TestGenerationMonthDays_Feb28NonLeap はうるう年でない2月28日に2月29日候補が追加されることを検証する。
func TestGenerationMonthDays_Feb28NonLeap(t *testing.T) {
	now := mustParse(t, "2025-02-28T00:05:00Z")

	got := GenerationMonthDays(now)

	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %v", len(got), got)
	}
	if got[0] != (model.MonthDay{Month: time.February, Day: 28}) {
		t.Errorf("got[0] = %v, want Feb 28", got[0])
	}
	if got[1] != (model.MonthDay{Month: time.February, Day: 29}) {
		t.Errorf("got[1] = %v, want Feb 29", got[1])
	}
}

// TestGenerationMonthDays_Feb28LeapYear はうるう年の2月28日では29日候補が追加されないことを検証する。
func TestGenerationMonthDays_Feb28LeapYear(t *testing.T) {
	now := mustParse(t, "2024-02-28T00:05:00Z")

	got := GenerationMonthDays(now)

	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %v", len(got), got)
	}
}

// TestWindowMonthDays_CoversThreeDays は配信ウィンドウが前後1日を含む3日間であることを検証する。
func TestWindowMonthDays_CoversThreeDays(t *testing.T) {
	now := mustParse(t, "2024-12-25T12:00:00Z")

	got := WindowMonthDays(now)

	want := []model.MonthDay{
		{Month: time.December, Day: 24},
		{Month: time.December, Day: 25},
		{Month: time.December, Day: 26},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d candidates, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestWindowMonthDays_CrossesYearBoundary は年末年始をまたぐウィンドウを検証する。
func TestWindowMonthDays_CrossesYearBoundary(t *testing.T) {
	now := mustParse(t, "2025-01-01T00:30:00Z")

	got := WindowMonthDays(now)

	want := []model.MonthDay{
		{Month: time.December, Day: 31},
		{Month: time.January, Day: 1},
		{Month: time.January, Day: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d candidates, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestWindowMonthDays_IncludesLeapDayCandidate はうるう年でない2月28日を含むウィンドウに29日候補が入ることを検証する。
func TestWindowMonthDays_IncludesLeapDayCandidate(t *testing.T) {
	now := mustParse(t, "2025-02-28T12:00:00Z")

	got := WindowMonthDays(now)

	found := false
	for _, md := range got {
		if md == (model.MonthDay{Month: time.February, Day: 29}) {
			found = true
		}
	}
	if !found {
		t.Errorf("window %v should include Feb 29 candidate", got)
	}
}

// TestEligibleAt_WithinWindow はローカル09時のウィンドウ内で配信可能になることを検証する。
func TestEligibleAt_WithinWindow(t *testing.T) {
	job := &model.BirthdayJob{
		ID:             "job-1",
		Timezone:       "Asia/Jakarta",
		SendBirthdayAt: mustParse(t, "2024-12-25T02:00:00Z"),
	}

	// ジャカルタのローカル09:05
	eligible, err := EligibleAt(job, mustParse(t, "2024-12-25T02:05:00Z"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !eligible {
		t.Error("expected job to be eligible within the local 9 o'clock window")
	}
}

// TestEligibleAt_BeforeWindow はローカル09時より前は配信不可であることを検証する。
func TestEligibleAt_BeforeWindow(t *testing.T) {
	job := &model.BirthdayJob{
		ID:             "job-1",
		Timezone:       "Asia/Jakarta",
		SendBirthdayAt: mustParse(t, "2024-12-25T02:00:00Z"),
	}

	// ジャカルタのローカル08:00
	eligible, err := EligibleAt(job, mustParse(t, "2024-12-25T01:00:00Z"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if eligible {
		t.Error("expected job to be ineligible before the local 9 o'clock window")
	}
}

// TestEligibleAt_AfterWindow はローカル10時以降は配信不可であることを検証する。
func TestEligibleAt_AfterWindow(t *testing.T) {
	job := &model.BirthdayJob{
		ID:             "job-1",
		Timezone:       "Asia/Jakarta",
		SendBirthdayAt: mustParse(t, "2024-12-25T02:00:00Z"),
	}

	// ジャカルタのローカル10:00
	eligible, err := EligibleAt(job, mustParse(t, "2024-12-25T03:00:00Z"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if eligible {
		t.Error("expected job to be ineligible after the local 9 o'clock window")
	}
}

// TestEligibleAt_DifferentDay は別の日は配信不可であることを検証する。
func TestEligibleAt_DifferentDay(t *testing.T) {
	job := &model.BirthdayJob{
		ID:             "job-1",
		Timezone:       "Asia/Jakarta",
		SendBirthdayAt: mustParse(t, "2024-12-25T02:00:00Z"),
	}

	eligible, err := EligibleAt(job, mustParse(t, "2024-12-24T02:05:00Z"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if eligible {
		t.Error("expected job to be ineligible on a different day")
	}
}

// TestEligibleAt_InvalidZone_ReturnsError は不正なゾーンのジョブでエラーが返ることを検証する。
func TestEligibleAt_InvalidZone_ReturnsError(t *testing.T) {
	job := &model.BirthdayJob{
		ID:       "job-1",
		Timezone: "Broken/Zone",
	}

	_, err := EligibleAt(job, time.Now().UTC())
	if err == nil {
		t.Fatal("expected error for invalid timezone, got nil")
	}
}
