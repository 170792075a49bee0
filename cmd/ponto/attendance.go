package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/ponto/internal/app"
	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Browse and edit the attendance log",
}

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attendance records, newest first",
	Long: `List attendance records, newest first.

Examples:
  ponto attendance list --date 2024-01-15
  ponto attendance list --name ali --limit 20`,
	Args: cobra.NoArgs,
	RunE: runAttendanceList,
}

var attendanceAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a manual attendance entry",
	Long: `Add a manual entry. Manual entries are not deduplicated.

Examples:
  ponto attendance add "Alice"
  ponto attendance add "Alice" --at "2024-01-15 08:05:00"`,
	Args: cobra.ExactArgs(1),
	RunE: runAttendanceAdd,
}

var attendanceDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an attendance record",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttendanceDelete,
}

var attendanceSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show attendance totals per name and per day",
	Args:  cobra.NoArgs,
	RunE:  runAttendanceSummary,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceListCmd, attendanceAddCmd, attendanceDeleteCmd, attendanceSummaryCmd)

	attendanceListCmd.Flags().String("date", "", "Only this day (YYYY-MM-DD)")
	attendanceListCmd.Flags().String("name", "", "Name substring, case-insensitive")
	attendanceListCmd.Flags().Int("limit", 0, "Maximum number of records")

	attendanceAddCmd.Flags().String("at", "", "Timestamp (YYYY-MM-DD HH:MM:SS, default now)")
}

// parseListFilter builds the filter from the list flags.
func parseListFilter(date, name string, limit int) (domain.AttendanceFilter, error) {
	filter := domain.AttendanceFilter{NameSubstring: name, Limit: limit}
	if limit < 0 {
		return filter, fmt.Errorf("limit must be >= 0")
	}
	if date != "" {
		day, err := time.ParseInLocation(domain.DateLayout, date, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
		}
		filter.Date = &day
	}
	return filter, nil
}

func runAttendanceList(cmd *cobra.Command, args []string) error {
	filter, err := parseListFilter(mustGetString(cmd, "date"), mustGetString(cmd, "name"), mustGetInt(cmd, "limit"))
	if err != nil {
		return err
	}

	return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
		records, err := a.Attendance.List(ctx, filter)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			warnColor.Println("No records")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTIMESTAMP")
		for _, r := range records {
			fmt.Fprintf(w, "%d\t%s\t%s\n", r.ID, r.Name, r.Timestamp.Local().Format(domain.TimestampLayout))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		dimColor.Printf("%d record(s)\n", len(records))
		return nil
	})
}

func runAttendanceAdd(cmd *cobra.Command, args []string) error {
	var ts time.Time
	if at := mustGetString(cmd, "at"); at != "" {
		parsed, err := time.ParseInLocation(domain.TimestampLayout, at, time.Local)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q, expected YYYY-MM-DD HH:MM:SS", at)
		}
		ts = parsed
	}

	return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
		rec, err := a.Attendance.Add(ctx, args[0], ts)
		if err != nil {
			return err
		}
		successColor.Printf("Logged %s at %s (id %d)\n", rec.Name, rec.Timestamp.Local().Format(domain.TimestampLayout), rec.ID)
		return nil
	})
}

func runAttendanceDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid record id: %s", args[0])
	}

	return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
		if err := a.Attendance.Delete(ctx, id); err != nil {
			return err
		}
		successColor.Printf("Deleted record %d\n", id)
		return nil
	})
}

func runAttendanceSummary(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
		summary, err := a.Attendance.Summary(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		infoColor.Fprintln(w, "BY NAME")
		for _, n := range summary.ByName {
			fmt.Fprintf(w, "%s\t%d\n", n.Name, n.Count)
		}
		fmt.Fprintln(w)
		infoColor.Fprintln(w, "BY DAY")
		for _, d := range summary.ByDay {
			fmt.Fprintf(w, "%s\t%d\n", d.Date, d.Count)
		}
		return w.Flush()
	})
}
