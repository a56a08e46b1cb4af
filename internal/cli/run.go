package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"focusroom/backend/internal/tui"
)

var runSubject string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the interactive timer",
	Long: `Open the interactive timer. While it is open the countdown completes on
its own, finished sessions are recorded, and changes made on other devices
show up within a second or two.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		if subject := strings.TrimSpace(runSubject); subject != "" {
			if err := a.machine.SetSubject(subject); err != nil {
				return err
			}
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go a.machine.Run(ctx)

		return tui.RunTimerTUI(a.machine, a.completions, filepath.Join(a.cfg.Dir(), "focus.log"))
	}),
}

func init() {
	runCmd.Flags().StringVarP(&runSubject, "subject", "s", "", "Subject to select before opening")
}
