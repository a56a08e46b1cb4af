package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"focusroom/backend/internal/model"
	"focusroom/backend/internal/timer"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the timer, or pause it if it is running",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		if err := a.machine.ToggleStart(); err != nil {
			return err
		}
		printState(a)
		return nil
	}),
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Stop the timer and restore the full duration",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		a.machine.Reset()
		printState(a)
		return nil
	}),
}

var modeCmd = &cobra.Command{
	Use:   "mode <focus|break|stopwatch>",
	Short: "Switch between focus, break and stopwatch",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		mode, err := parseMode(args[0])
		if err != nil {
			return err
		}
		if err := a.machine.SetMode(mode); err != nil {
			return err
		}
		printState(a)
		return nil
	}),
}

var subjectCmd = &cobra.Command{
	Use:   "subject <name>",
	Short: "Select the subject the next session is recorded under",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		if err := a.machine.SetSubject(strings.Join(args, " ")); err != nil {
			return err
		}
		printState(a)
		return nil
	}),
}

var adjustCmd = &cobra.Command{
	Use:   "adjust <+minutes|-minutes|duration>",
	Short: "Add or remove time from the current countdown",
	Long: `Add or remove time from the current countdown. A bare number is read as
minutes; Go durations such as -90s or +1h are accepted too. Negative values
need a "--" first so they are not read as flags:

  focus adjust -- -5`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		delta, err := parseAdjustment(args[0])
		if err != nil {
			return err
		}
		if err := a.machine.AdjustTime(delta); err != nil {
			return err
		}
		printState(a)
		return nil
	}),
}

var durationCmd = &cobra.Command{
	Use:   "duration <focus|break> <minutes>",
	Short: "Set the default length of focus or break sessions",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		mode, err := parseMode(args[0])
		if err != nil {
			return err
		}
		if !mode.Countdown() {
			return fmt.Errorf("only focus and break have a duration")
		}
		minutes, err := strconv.Atoi(args[1])
		if err != nil || minutes <= 0 || minutes*60 > model.MaxSeconds {
			return fmt.Errorf("invalid minutes %q", args[1])
		}

		if err := a.machine.SetBaseline(mode, minutes*60); err != nil {
			return err
		}
		if mode == model.ModeFocus {
			a.cfg.FocusMinutes = minutes
		} else {
			a.cfg.BreakMinutes = minutes
		}
		if err := a.cfg.Save(); err != nil {
			return err
		}
		printState(a)
		return nil
	}),
}

var finishCmd = &cobra.Command{
	Use:   "finish",
	Short: "Finish the stopwatch and record the elapsed time",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		if err := a.machine.Finish(); err != nil {
			return err
		}
		printState(a)
		return nil
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current timer",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		printState(a)
		return nil
	}),
}

// withApp opens the app around a command and always flushes it afterwards,
// even when the command fails.
func withApp(fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.close(cmd.Context())
		return fn(a, cmd, args)
	}
}

func printState(a *app) {
	state := a.machine.Snapshot()

	status := "paused"
	switch {
	case state.IsActive:
		status = "running"
	case !state.IsFocusStarted && state.RemainingSeconds() == state.BaselineSeconds():
		status = "ready"
	}

	fmt.Fprintf(a.out, "%-9s %s (%s)\n", modeLabel(state.Mode), timer.FormatClock(state.RemainingSeconds()), status)
	if state.Mode.RequiresSubject() {
		subject := state.SelectedSubject
		if subject == "" {
			subject = "none"
		}
		fmt.Fprintf(a.out, "Subject:  %s\n", subject)
	}
	if !a.cfg.LoggedIn() {
		fmt.Fprintln(a.out, "Sync:     off (not logged in)")
	}
}

func parseMode(value string) (model.Mode, error) {
	mode := model.Mode(strings.ToUpper(strings.TrimSpace(value)))
	if !mode.Valid() {
		return "", fmt.Errorf("unknown mode %q; use focus, break or stopwatch", value)
	}
	return mode, nil
}

func modeLabel(mode model.Mode) string {
	switch mode {
	case model.ModeBreak:
		return "Break"
	case model.ModeStopwatch:
		return "Stopwatch"
	default:
		return "Focus"
	}
}
