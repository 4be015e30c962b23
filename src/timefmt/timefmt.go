// Package timefmt renders timestamps the way the board shows them: a Korean
// "time ago" label for lists and a full ko-KR date for hover text.
package timefmt

import (
	"fmt"
	"time"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
)

// Relative formats t relative to now. Calendar comparisons happen in now's
// location, so callers pick the display zone by choosing now.
//
// Elapsed time is floored to whole seconds. A t in the future counts as zero
// elapsed.
func Relative(now, t time.Time) string {
	t = t.In(now.Location())

	elapsed := int64(now.Sub(t) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	switch {
	case elapsed < secondsPerMinute:
		return fmt.Sprintf("%d초 전", elapsed)
	case elapsed < secondsPerHour:
		return fmt.Sprintf("%d분 전", elapsed/secondsPerMinute)
	case elapsed < secondsPerDay:
		return fmt.Sprintf("%d시간 전", elapsed/secondsPerHour)
	}

	if IsYesterday(now, t) {
		return fmt.Sprintf("어제 %s %d시 %02d분", Meridiem(t.Hour()), Hour12(t.Hour()), t.Minute())
	}

	return fmt.Sprintf("%04d.%02d.%02d. %s %d시 %02d분",
		t.Year(), int(t.Month()), t.Day(),
		Meridiem(t.Hour()), Hour12(t.Hour()), t.Minute(),
	)
}

// Tooltip formats t in the ko-KR numeric style, e.g. "2024. 03. 05. 오후 3:04".
// t is rendered in its own location.
func Tooltip(t time.Time) string {
	return fmt.Sprintf("%04d. %02d. %02d. %s %d:%02d",
		t.Year(), int(t.Month()), t.Day(),
		Meridiem(t.Hour()), Hour12(t.Hour()), t.Minute(),
	)
}

// IsYesterday reports whether t falls on the calendar day before now's, in
// now's location.
func IsYesterday(now, t time.Time) bool {
	t = t.In(now.Location())
	y := now.AddDate(0, 0, -1)
	return t.Year() == y.Year() && t.Month() == y.Month() && t.Day() == y.Day()
}

func Meridiem(hour int) string {
	if hour < 12 {
		return "오전"
	}
	return "오후"
}

func Hour12(hour int) int {
	h := hour % 12
	if h == 0 {
		return 12
	}
	return h
}
