// schedule-preview prints payback dates for a plan without touching the database.
//
//	go run ./cmd/schedule-preview dates --start 2026-01-05 --frequency WEEKLY --paydays 1 --count 12
//	go run ./cmd/schedule-preview installments --start 2026-01-05 --frequency DAILY --paydays 1,2,3,4,5 --count 60
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcaservicing/mca_backend/schedule"
)

var Version = "dev"

type planFlags struct {
	start     string
	frequency string
	paydays   string
	count     int
	today     string
}

func (f *planFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.frequency, "frequency", "", "DAILY, WEEKLY or MONTHLY")
	cmd.Flags().StringVar(&f.paydays, "paydays", "", "weekday indices (0 = Sunday) or a day of month")
	cmd.Flags().IntVar(&f.count, "count", 0, "number of paybacks")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("frequency")
	_ = cmd.MarkFlagRequired("paydays")
}

func (f *planFlags) input() (schedule.Input, error) {
	start, err := time.Parse(schedule.DateLayout, f.start)
	if err != nil {
		return schedule.Input{}, fmt.Errorf("invalid --start: %w", err)
	}
	freq, err := schedule.ParseFrequency(f.frequency)
	if err != nil {
		return schedule.Input{}, err
	}
	days, err := schedule.ParsePaydayList(f.paydays)
	if err != nil {
		return schedule.Input{}, err
	}
	return schedule.Input{StartDate: start, Frequency: freq, PaydayList: days, PaybackCount: f.count}, nil
}

func (f *planFlags) todayOrNow() (time.Time, error) {
	if f.today == "" {
		return time.Now(), nil
	}
	return time.Parse(schedule.DateLayout, f.today)
}

func datesCmd(out io.Writer) *cobra.Command {
	var f planFlags
	cmd := &cobra.Command{
		Use:   "dates",
		Short: "Print the next payback date and the scheduled end date",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.input()
			if err != nil {
				return err
			}
			today, err := f.todayOrNow()
			if err != nil {
				return fmt.Errorf("invalid --today: %w", err)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(schedule.Calculate(in, today))
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&f.today, "today", "", "evaluate as of this date (default: now)")
	return cmd
}

func installmentsCmd(out io.Writer) *cobra.Command {
	var f planFlags
	cmd := &cobra.Command{
		Use:   "installments",
		Short: "List every due date of the plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.input()
			if err != nil {
				return err
			}
			if in.PaybackCount <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			for i, d := range schedule.Installments(in) {
				fmt.Fprintf(out, "%4d  %s  %s\n", i+1, d.Format(schedule.DateLayout), d.Weekday().String()[:3])
			}
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "schedule-preview",
		Short:         "Preview payback plan dates",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(datesCmd(out))
	root.AddCommand(installmentsCmd(out))
	return root
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
