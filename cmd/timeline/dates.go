package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
)

var parseCmd = &cobra.Command{
	Use:   "parse <date>...",
	Short: "Normalise dates to UTC instants",
	Example: `  timeline parse -- "44 BCE" -753 2006-06-28T12:30:00+08:00 1151474400000
  timeline parse "June 28, 2006"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		var failed int
		for _, arg := range args {
			t, err := datetime.Parse(arg)
			if err != nil {
				fmt.Fprintf(tw, "%s\terror: %v\n", arg, err)
				failed++
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\n", arg, datetime.FormatISO(t), datetime.Millis(t))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d dates could not be parsed", failed, len(args))
		}
		return nil
	},
}

var formatPattern string

var formatCmd = &cobra.Command{
	Use:   "format <date>...",
	Short: "Render dates with a label pattern",
	Example: `  timeline format --pattern "MMM d, yyyy" 2006-06-28
  timeline format --pattern "HH:mm" 2006-06-28T12:30:00Z`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := datetime.ValidatePattern(formatPattern); err != nil {
			return err
		}
		for _, arg := range args {
			t, err := datetime.Parse(arg)
			if err != nil {
				return err
			}
			label, err := datetime.Format(t, formatPattern)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), label)
		}
		return nil
	},
}

func init() {
	formatCmd.Flags().StringVar(&formatPattern, "pattern", "yyyy-MM-dd HH:mm", "label pattern")
	rootCmd.AddCommand(parseCmd, formatCmd)
}
