// Package cli implements the focus command-line client.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "focus",
	Short: "A focus timer that follows you across devices",
	Long: `focus is a pomodoro-style focus timer with a break countdown and a
stopwatch. When logged in, a running session is shared with your other
devices and finished sessions are recorded to your history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "focus %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// SetVersion sets the version information from build-time ldflags
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = v
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (default: user config dir)")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(subjectCmd)
	rootCmd.AddCommand(adjustCmd)
	rootCmd.AddCommand(durationCmd)
	rootCmd.AddCommand(finishCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
