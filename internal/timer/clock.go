package timer

import (
	"fmt"
	"time"

	"focusroom/backend/internal/model"
)

// Clock supplies wall-clock time to the state machine.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// RemainingSeconds converts an absolute end time into whole seconds left,
// rounding up so the display never shows 0 while time remains.
func RemainingSeconds(endMs, nowMs int64) int {
	diff := endMs - nowMs
	if diff <= 0 {
		return 0
	}
	return int((diff + 999) / 1000)
}

// ElapsedSeconds converts a stopwatch anchor into whole elapsed seconds,
// clamped to the display range.
func ElapsedSeconds(startMs, nowMs int64) int {
	diff := nowMs - startMs
	if diff <= 0 {
		return 0
	}
	return clampSeconds(int(diff / 1000))
}

// FormatClock renders seconds as MM:SS, or H:MM:SS from one hour up.
func FormatClock(seconds int) string {
	seconds = clampSeconds(seconds)
	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func clampSeconds(v int) int {
	if v < 0 {
		return 0
	}
	if v > model.MaxSeconds {
		return model.MaxSeconds
	}
	return v
}

func epochMs(t time.Time) int64 {
	return t.UnixMilli()
}
