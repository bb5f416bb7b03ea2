package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/leowmjw/go-timeline-bands/pkg/temporal"
	"github.com/leowmjw/go-timeline-bands/pkg/timeline"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <timeline-id> <events.json>",
	Short: "Send events to the ingestion workflow of a timeline",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		timelineID, path := args[0], args[1]

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read events: %w", err)
		}
		events, err := timeline.DecodeEventSource(data)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		encoded, err := timeline.EncodeEvents(events)
		if err != nil {
			return err
		}

		logger := newLogger()
		c, err := dialTemporal(logger)
		if err != nil {
			return err
		}
		defer c.Close()

		workflowID := temporal.GenerateIngestionWorkflowID(timelineID)
		_, err = c.SignalWithStartWorkflow(cmd.Context(), workflowID, temporal.EventSignalName,
			temporal.EventSignal{Events: encoded},
			client.StartWorkflowOptions{ID: workflowID, TaskQueue: taskQueue()},
			temporal.IngestionWorkflowName, timelineID)
		if err != nil {
			return fmt.Errorf("failed to signal ingestion workflow: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "queued %d events for %s\n", len(encoded), timelineID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
