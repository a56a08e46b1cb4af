package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	historyLimit     int
	statsDays        int
	leaderboardDays  int
	leaderboardLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently recorded sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, err := requireLogin()
		if err != nil {
			return err
		}
		sessions, err := api.History(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions recorded yet")
			return nil
		}
		for _, session := range sessions {
			fmt.Fprintln(out, describeSession(session))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show time totals per mode and subject",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, err := requireLogin()
		if err != nil {
			return err
		}
		stats, err := api.Stats(cmd.Context(), statsDays)
		if err != nil {
			return fmt.Errorf("failed to load stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Last %d days: %s sessions\n", stats.Days, humanize.Comma(int64(stats.TotalSessions)))
		fmt.Fprintf(out, "  Focus:     %s\n", formatMinutes(stats.FocusMinutes))
		fmt.Fprintf(out, "  Stopwatch: %s\n", formatMinutes(stats.StopwatchMinutes))
		fmt.Fprintf(out, "  Break:     %s\n", formatMinutes(stats.BreakMinutes))
		if len(stats.Subjects) > 0 {
			fmt.Fprintln(out, "Subjects:")
			for _, subject := range stats.Subjects {
				fmt.Fprintf(out, "  %-20s %8s  (%d)\n", subject.Subject, formatMinutes(subject.TotalMinutes), subject.Sessions)
			}
		}
		return nil
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank accounts by focus time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, _, err := requireLogin()
		if err != nil {
			return err
		}
		entries, err := api.Leaderboard(cmd.Context(), leaderboardDays, leaderboardLimit)
		if err != nil {
			return fmt.Errorf("failed to load leaderboard: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "Nobody has focused yet")
			return nil
		}
		for _, entry := range entries {
			fmt.Fprintf(out, "%4s  %-24s %8s  (%d)\n",
				humanize.Ordinal(entry.Rank),
				entry.DisplayName,
				formatMinutes(entry.FocusMinutes),
				entry.Sessions,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Number of sessions to show")
	statsCmd.Flags().IntVarP(&statsDays, "days", "d", 7, "Days to include")
	leaderboardCmd.Flags().IntVarP(&leaderboardDays, "days", "d", 7, "Days to include")
	leaderboardCmd.Flags().IntVarP(&leaderboardLimit, "limit", "l", 10, "Number of entries")
}
