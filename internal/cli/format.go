package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"focusroom/backend/internal/model"
)

// parseAdjustment reads a signed amount of minutes, or a Go duration, as
// whole seconds.
func parseAdjustment(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty adjustment")
	}

	if minutes, err := strconv.Atoi(value); err == nil {
		return minutes * 60, nil
	}

	d, err := time.ParseDuration(strings.TrimPrefix(value, "+"))
	if err != nil {
		return 0, fmt.Errorf("invalid adjustment %q: use minutes like +5 or a duration like -90s", value)
	}
	return int(d / time.Second), nil
}

// formatMinutes renders a minute total the way the stats screens show it.
func formatMinutes(minutes float64) string {
	d := time.Duration(minutes * float64(time.Minute))
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh %02dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%.0fm", d.Minutes())
	default:
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
}

func describeCompletion(completion model.Completion) string {
	switch completion.Mode {
	case model.ModeBreak:
		return fmt.Sprintf("Break finished (%s)", formatMinutes(completion.DurationMinutes))
	default:
		return fmt.Sprintf("%s session finished: %s of %s", modeLabel(completion.Mode), formatMinutes(completion.DurationMinutes), completion.Subject)
	}
}

func describeSession(session model.FocusSession) string {
	subject := session.Subject
	if subject == "" {
		subject = "-"
	}
	return fmt.Sprintf("%-9s %-20s %8s  %s",
		modeLabel(session.Mode),
		subject,
		formatMinutes(session.DurationMinutes),
		humanize.Time(session.CompletedAt),
	)
}
