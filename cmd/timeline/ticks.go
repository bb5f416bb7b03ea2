package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/leowmjw/go-timeline-bands/pkg/band"
	"github.com/leowmjw/go-timeline-bands/pkg/datetime"
	"github.com/leowmjw/go-timeline-bands/pkg/scale"
)

var ticksFlags struct {
	ether           band.EtherSpec
	origin          string
	width           float64
	minLabelSpacing float64
	json            bool
}

var ticksCmd = &cobra.Command{
	Use:   "ticks",
	Short: "Print the scale ticks of a viewport",
	Example: `  timeline ticks --unit year --pixels 40 --origin "1990"
  timeline ticks --ether logarithmic --unit day --pixels 20 --base 2 --origin 2006-06-28`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eth, err := ticksFlags.ether.BuildEther()
		if err != nil {
			return err
		}

		origin := time.Now().UTC().Truncate(24 * time.Hour)
		if ticksFlags.origin != "" {
			if origin, err = datetime.Parse(ticksFlags.origin); err != nil {
				return fmt.Errorf("origin: %w", err)
			}
		}

		visible := scale.VisibleRange(eth, origin, ticksFlags.width)
		ticks, cfg, err := scale.TicksForEther(eth, visible, origin, ticksFlags.width, ticksFlags.minLabelSpacing)
		if err != nil {
			return err
		}

		if ticksFlags.json {
			return writeJSON(cmd.OutOrStdout(), struct {
				Scale scale.Config `json:"scale"`
				Ticks []scale.Tick `json:"ticks"`
			}{cfg, ticks}, true)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "# every %d %s, %q\n", cfg.Interval, cfg.Unit, cfg.Format)
		fmt.Fprintln(tw, "PIXEL\tLABEL\tMAJOR\tINSTANT")
		for _, tick := range ticks {
			major := ""
			if tick.IsMajor {
				major = "*"
			}
			fmt.Fprintf(tw, "%.1f\t%s\t%s\t%s\n", tick.PixelX, tick.Label, major, datetime.FormatISO(tick.Time))
		}
		return tw.Flush()
	},
}

func init() {
	f := ticksCmd.Flags()
	f.StringVar(&ticksFlags.ether.Type, "ether", "linear", "ether type (linear, logarithmic)")
	f.StringVar(&ticksFlags.ether.Unit, "unit", "year", "interval unit")
	f.Float64Var(&ticksFlags.ether.Pixels, "pixels", 50, "pixels per interval unit")
	f.Float64Var(&ticksFlags.ether.Base, "base", 0, "logarithm base for the logarithmic ether")
	f.StringVar(&ticksFlags.origin, "origin", "", "instant at the left edge (defaults to today)")
	f.Float64Var(&ticksFlags.width, "width", 800, "viewport width in pixels")
	f.Float64Var(&ticksFlags.minLabelSpacing, "min-label-spacing", 0, "minimum pixels between labels (0 keeps the default)")
	f.BoolVar(&ticksFlags.json, "json", false, "print JSON")
	rootCmd.AddCommand(ticksCmd)
}
