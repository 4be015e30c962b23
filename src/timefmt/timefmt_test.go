package timefmt

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var kst = time.FixedZone("KST", 9*60*60)

func TestRelativeShortRanges(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, kst)

	items := []struct {
		elapsed  time.Duration
		expected string
	}{
		{0, "0초 전"},
		{1 * time.Second, "1초 전"},
		{59*time.Second + 999*time.Millisecond, "59초 전"},
		{60 * time.Second, "1분 전"},
		{119 * time.Second, "1분 전"},
		{3599 * time.Second, "59분 전"},
		{3600 * time.Second, "1시간 전"},
		{7199 * time.Second, "1시간 전"},
		{86399 * time.Second, "23시간 전"},
	}

	for _, item := range items {
		t.Run(item.elapsed.String(), func(t *testing.T) {
			assert.Equal(t, item.expected, Relative(now, now.Add(-item.elapsed)))
		})
	}
}

func TestRelativeEveryBoundary(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, kst)
	for e := 0; e < 86400; e += 37 {
		var expected string
		switch {
		case e < 60:
			expected = fmt.Sprintf("%d초 전", e)
		case e < 3600:
			expected = fmt.Sprintf("%d분 전", e/60)
		default:
			expected = fmt.Sprintf("%d시간 전", e/3600)
		}
		assert.Equal(t, expected, Relative(now, now.Add(-time.Duration(e)*time.Second)), "elapsed %d", e)
	}
}

func TestRelativeFutureClampsToZero(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, kst)
	assert.Equal(t, "0초 전", Relative(now, now.Add(5*time.Minute)))
}

func TestRelativeYesterday(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, kst)

	t.Run("just after midnight", func(t *testing.T) {
		ts := time.Date(2024, 3, 14, 0, 5, 0, 0, kst)
		assert.Equal(t, "어제 오전 12시 05분", Relative(now, ts))
	})
	t.Run("afternoon", func(t *testing.T) {
		// 27 hours back, past the hourly range
		now := time.Date(2024, 3, 15, 23, 30, 0, 0, kst)
		ts := time.Date(2024, 3, 14, 13, 7, 0, 0, kst)
		assert.Equal(t, "어제 오후 1시 07분", Relative(now, ts))
	})
	t.Run("noon", func(t *testing.T) {
		now := time.Date(2024, 3, 15, 23, 0, 0, 0, kst)
		ts := time.Date(2024, 3, 14, 12, 0, 0, 0, kst)
		assert.Equal(t, "어제 오후 12시 00분", Relative(now, ts))
	})
	t.Run("across a month boundary", func(t *testing.T) {
		now := time.Date(2024, 3, 1, 23, 0, 0, 0, kst)
		ts := time.Date(2024, 2, 29, 8, 15, 0, 0, kst)
		assert.Equal(t, "어제 오전 8시 15분", Relative(now, ts))
	})
	t.Run("within a day still uses hours", func(t *testing.T) {
		now := time.Date(2024, 3, 15, 0, 10, 0, 0, kst)
		ts := time.Date(2024, 3, 14, 23, 0, 0, 0, kst)
		assert.Equal(t, "1시간 전", Relative(now, ts))
	})
}

func TestRelativeAbsolute(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, kst)

	t.Run("three days prior, afternoon", func(t *testing.T) {
		ts := time.Date(2024, 3, 12, 15, 4, 0, 0, kst)
		assert.Equal(t, "2024.03.12. 오후 3시 04분", Relative(now, ts))
	})
	t.Run("three days prior, midnight", func(t *testing.T) {
		ts := time.Date(2024, 3, 12, 0, 0, 0, 0, kst)
		assert.Equal(t, "2024.03.12. 오전 12시 00분", Relative(now, ts))
	})
	t.Run("last year", func(t *testing.T) {
		ts := time.Date(2023, 12, 31, 23, 59, 0, 0, kst)
		assert.Equal(t, "2023.12.31. 오후 11시 59분", Relative(now, ts))
	})
}

func TestRelativeUsesNowsLocation(t *testing.T) {
	// 2024-03-13 20:00 UTC is 2024-03-14 05:00 in Seoul, yesterday there.
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, kst)
	ts := time.Date(2024, 3, 13, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "어제 오전 5시 00분", Relative(now, ts))
}

func TestTooltip(t *testing.T) {
	assert.Equal(t, "2024. 03. 05. 오후 3:04", Tooltip(time.Date(2024, 3, 5, 15, 4, 0, 0, kst)))
	assert.Equal(t, "2024. 11. 25. 오전 12:30", Tooltip(time.Date(2024, 11, 25, 0, 30, 0, 0, kst)))
	assert.Equal(t, "2024. 01. 01. 오전 9:00", Tooltip(time.Date(2024, 1, 1, 9, 0, 0, 0, kst)))
}

func TestHour12(t *testing.T) {
	expected := []int{12, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	for h, e := range expected {
		assert.Equal(t, e, Hour12(h), "hour %d", h)
	}
	assert.Equal(t, "오전", Meridiem(11))
	assert.Equal(t, "오후", Meridiem(12))
}
