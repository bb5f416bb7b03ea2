package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/leowmjw/go-timeline-bands/pkg/band"
	"github.com/leowmjw/go-timeline-bands/pkg/hcl"
	"github.com/leowmjw/go-timeline-bands/pkg/temporal"
	"github.com/leowmjw/go-timeline-bands/pkg/timeline"
)

var layoutCmd = &cobra.Command{
	Use:   "layout <hcl file or directory>",
	Short: "Lay out events in the bands of an HCL timeline",
	Long: `Lay out events in the bands of an HCL timeline.

Locally, the events are those declared inline in the HCL plus any given with
--events. With --remote the layout runs as a workflow over the events stored
for the timeline; --start and --end limit which stored events are loaded.`,
	Args: cobra.ExactArgs(1),
	RunE: runLayout,
}

var layoutFlags struct {
	events     string
	remote     bool
	timelineID string
	start, end string
	pretty     bool
	text       bool
	columns    int
}

func init() {
	f := layoutCmd.Flags()
	f.StringVar(&layoutFlags.events, "events", "", "event source JSON file")
	f.BoolVar(&layoutFlags.remote, "remote", false, "run the layout workflow over stored events")
	f.StringVar(&layoutFlags.timelineID, "timeline-id", "", "stored timeline to lay out (defaults to timeline_id in the HCL)")
	f.StringVar(&layoutFlags.start, "start", "", "with --remote, earliest date of events to load")
	f.StringVar(&layoutFlags.end, "end", "", "with --remote, latest date of events to load")
	f.BoolVar(&layoutFlags.pretty, "pretty", false, "indent JSON output")
	f.BoolVar(&layoutFlags.text, "text", false, "draw the bands as text instead of JSON")
	f.IntVar(&layoutFlags.columns, "columns", 0, "text width in columns (defaults to the terminal width)")
	rootCmd.AddCommand(layoutCmd)
}

func runLayout(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	doc, err := hcl.ParseHCLPath(args[0])
	if err != nil {
		return fmt.Errorf("failed to parse HCL: %w", err)
	}

	var rendering *band.Rendering
	if layoutFlags.remote {
		result, err := remoteLayout(cmd, doc)
		if err != nil {
			return err
		}
		for _, failure := range result.Failed {
			logger.Warn("Band failed", "band", failure.Band, "error", failure.Error)
		}
		if !layoutFlags.text {
			return writeJSON(cmd.OutOrStdout(), result, layoutFlags.pretty)
		}
		rendering = &result.Rendering
	} else {
		if layoutFlags.start != "" || layoutFlags.end != "" {
			return errors.New("--start and --end apply to --remote layouts only")
		}
		events := doc.Events
		if layoutFlags.events != "" {
			data, err := os.ReadFile(layoutFlags.events)
			if err != nil {
				return fmt.Errorf("failed to read events: %w", err)
			}
			fileEvents, err := timeline.DecodeEventSource(data)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", layoutFlags.events, err)
			}
			events = append(events, fileEvents...)
		}

		rendering, err = band.NewRenderer(logger).RenderConcurrently(cmd.Context(), doc.Spec, events)
		if err != nil {
			return err
		}
		if !layoutFlags.text {
			return writeJSON(cmd.OutOrStdout(), rendering, layoutFlags.pretty)
		}
	}

	columns := layoutFlags.columns
	if columns <= 0 {
		columns = terminalWidth()
	}
	return renderText(cmd.OutOrStdout(), rendering, columns)
}

func remoteLayout(cmd *cobra.Command, doc *hcl.Document) (*temporal.LayoutResult, error) {
	if len(doc.Events) > 0 || layoutFlags.events != "" {
		return nil, errors.New("remote layouts read stored events; send events with the ingest command")
	}

	request := temporal.LayoutRequest{TimelineID: layoutFlags.timelineID, Timeline: doc.Spec}
	if request.TimelineID == "" {
		request.TimelineID = doc.Spec.ID
	}
	if request.TimelineID == "" {
		return nil, errors.New("--timeline-id is required when the HCL has no timeline_id")
	}
	if layoutFlags.start != "" || layoutFlags.end != "" {
		r, err := timeline.NewRange(layoutFlags.start, layoutFlags.end)
		if err != nil {
			return nil, fmt.Errorf("invalid range: %w", err)
		}
		request.Range = &r
	}
	if err := request.Timeline.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger()
	c, err := dialTemporal(logger)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	logger.Info("Executing layout", "timeline_id", request.TimelineID, "bands", len(request.Timeline.Bands))
	run, err := c.ExecuteWorkflow(cmd.Context(), client.StartWorkflowOptions{
		ID:        temporal.GenerateLayoutWorkflowID(request.TimelineID),
		TaskQueue: taskQueue(),
	}, temporal.LayoutWorkflowName, request)
	if err != nil {
		return nil, fmt.Errorf("failed to execute layout workflow: %w", err)
	}

	var result temporal.LayoutResult
	if err := run.Get(cmd.Context(), &result); err != nil {
		return nil, fmt.Errorf("failed to get layout result: %w", err)
	}
	return &result, nil
}
