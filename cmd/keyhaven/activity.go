package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

// Activity command flags
var (
	activityLimit        int
	activityTrendDays    int
	activityExportOutput string
	activityKeepDays     int
)

// activityCmd is the parent command for activity log operations.
var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Activity log operations",
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.AddCommand(activityListCmd)
	activityCmd.AddCommand(activityStatsCmd)
	activityCmd.AddCommand(activityTrendCmd)
	activityCmd.AddCommand(activityCountCmd)
	activityCmd.AddCommand(activityClearCmd)
	activityCmd.AddCommand(activityCleanupCmd)
	activityCmd.AddCommand(activityExportCmd)
	activityCmd.AddCommand(activityScheduleCmd)
	activityCmd.AddCommand(activityCancelCmd)

	activityListCmd.Flags().IntVar(&activityLimit, "limit", 100, "Maximum number of rows to show (-1 for all)")
	activityTrendCmd.Flags().IntVar(&activityTrendDays, "days", 7, "Number of days to cover")
	activityExportCmd.Flags().StringVarP(&activityExportOutput, "output", "o", "", "Output file path (default: stdout)")
	activityCleanupCmd.Flags().IntVar(&activityKeepDays, "keep-days", 90, "Delete rows older than this many days")
}

var activityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List activity log rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}

		logs, err := svc.ActivityLogs(sess.UserID, activityLimit)
		if err != nil {
			return err
		}
		if len(logs) == 0 {
			fmt.Println("No activity")
			return nil
		}

		for _, l := range logs {
			line := fmt.Sprintf("%s %s", l.Timestamp.Format(time.RFC3339), l.ActionType)
			if l.Details != "" {
				line += " " + l.Details
			}
			fmt.Println(line)
		}
		return nil
	},
}

var activityStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}

		stats, err := svc.ActivityStats(sess.UserID)
		if err != nil {
			return err
		}

		fmt.Printf("Total actions: %d\n", stats.TotalActions)
		fmt.Printf("Total logins:  %d\n", stats.TotalLogins)
		if stats.LastLogin != nil {
			fmt.Printf("Last login:    %s\n", stats.LastLogin.Format(time.RFC3339))
		}
		if stats.MostActiveDay != "" {
			fmt.Printf("Most active:   %s\n", stats.MostActiveDay)
		}

		actions := make([]string, 0, len(stats.ActionCounts))
		for a := range stats.ActionCounts {
			actions = append(actions, a)
		}
		sort.Strings(actions)
		for _, a := range actions {
			fmt.Printf("  %-28s %d\n", a, stats.ActionCounts[a])
		}
		return nil
	},
}

var activityTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show per-day activity volume",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}

		trend, err := svc.ActivityTrend(sess.UserID, activityTrendDays)
		if err != nil {
			return err
		}
		if len(trend) == 0 {
			fmt.Println("No activity")
			return nil
		}

		for _, p := range trend {
			fmt.Printf("%s %d\n", p.Date, p.Count)
		}
		return nil
	},
}

var activityCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count activity log rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}

		n, err := svc.ActivityCount(sess.UserID)
		if err != nil {
			return err
		}

		fmt.Println(n)
		return nil
	},
}

var activityClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all activity log rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}
		if sess.IsDuress {
			fmt.Println("Activity log cleared")
			return nil
		}

		if err := svc.ClearActivityLogs(sess.UserID); err != nil {
			return err
		}

		fmt.Println("Activity log cleared")
		return nil
	},
}

var activityCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete activity log rows older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}
		if sess.IsDuress {
			fmt.Println("Deleted 0 rows")
			return nil
		}

		n, err := svc.CleanupOldLogs(sess.UserID, activityKeepDays)
		if err != nil {
			return err
		}

		fmt.Printf("Deleted %d rows\n", n)
		return nil
	},
}

var activityExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the activity log as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}

		data, err := svc.ExportActivityLogs(sess.UserID)
		if err != nil {
			return err
		}

		if activityExportOutput != "" {
			if err := os.WriteFile(activityExportOutput, []byte(data), 0600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Printf("Activity log exported to %s\n", activityExportOutput)
			return nil
		}

		fmt.Println(data)
		return nil
	},
}

var activityScheduleCmd = &cobra.Command{
	Use:   "schedule-deletion",
	Short: "Arm a log wipe for the next login",
	Long: `Arm a log wipe for the next login.

The wipe fires on the next real login. A duress login leaves it armed, so
the log disappears only once the coercion is over.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}

		password, err := readPassword("Enter master password: ")
		if err != nil {
			return err
		}

		if err := svc.ScheduleLogsDeletion(userName, password); err != nil {
			return err
		}

		fmt.Println("Log deletion scheduled")
		return nil
	},
}

var activityCancelCmd = &cobra.Command{
	Use:   "cancel-deletion",
	Short: "Disarm a scheduled log wipe",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := authenticate()
		if err != nil {
			return err
		}
		if sess.IsDuress {
			fmt.Println("Log deletion canceled")
			return nil
		}

		if err := svc.CancelLogsDeletion(sess.UserID); err != nil {
			return err
		}

		fmt.Println("Log deletion canceled")
		return nil
	},
}
