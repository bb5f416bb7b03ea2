package temporal

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/leowmjw/go-timeline-bands/pkg/band"
	"github.com/leowmjw/go-timeline-bands/pkg/timeline"
)

const (
	// Workflow IDs
	IngestionWorkflowIDPrefix = "timeline-"
	LayoutWorkflowIDPrefix    = "layout-"

	// Workflow names
	IngestionWorkflowName = "IngestionWorkflow"
	LayoutWorkflowName    = "LayoutWorkflow"

	// Signal names
	EventSignalName = "event-signal"

	// Query names
	IngestionStateQueryName = "ingestion-state"

	// Activity names
	AppendEventsActivityName  = "append-events"
	LoadEventsActivityName    = "load-events"
	PrepareLayoutActivityName = "prepare-layout"
	LayoutBandActivityName    = "layout-band"

	// Default values
	DefaultContinueAsNewThreshold = 1000 // events before ContinueAsNew
	// An ingestion workflow completes after this long without a signal.
	// Signal-with-start brings it back.
	DefaultIdleTimeout = 24 * time.Hour
)

// EventSignal represents a signal containing events to be processed
type EventSignal struct {
	Events [][]byte `json:"events"` // Raw JSON events
}

// LayoutRequest asks for the bands of a stored timeline to be laid out.
type LayoutRequest struct {
	TimelineID string    `json:"timeline_id"`
	Timeline   band.Spec `json:"timeline"`
	// Range limits the events loaded from storage.
	Range *timeline.Range `json:"range,omitempty"`
}

// BandFailure reports a band whose layout activity failed.
type BandFailure struct {
	Band  string `json:"band"`
	Error string `json:"error"`
}

// LayoutResult is the rendering of every band that could be laid out.
// Bands keep the order of the request; failed bands are listed in Failed.
type LayoutResult struct {
	TimelineID string         `json:"timeline_id"`
	EventCount int            `json:"event_count"`
	Rendering  band.Rendering `json:"rendering"`
	Failed     []BandFailure  `json:"failed,omitempty"`
}

// IngestionWorkflowState represents the state of an ingestion workflow
type IngestionWorkflowState struct {
	TimelineID  string    `json:"timeline_id"`
	EventCount  int       `json:"event_count"`
	FailedCount int       `json:"failed_count"`
	LastEventAt time.Time `json:"last_event_at"`
}

// IngestionWorkflow appends the events of a specific timeline as they are
// signalled. It completes once idle and continues as new after
// DefaultContinueAsNewThreshold events.
func IngestionWorkflow(ctx workflow.Context, timelineID string) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting ingestion workflow", "timelineID", timelineID)

	state := IngestionWorkflowState{
		TimelineID:  timelineID,
		LastEventAt: workflow.Now(ctx),
	}
	if err := workflow.SetQueryHandler(ctx, IngestionStateQueryName, func() (IngestionWorkflowState, error) {
		return state, nil
	}); err != nil {
		return fmt.Errorf("failed to register query handler: %w", err)
	}

	ao := workflow.ActivityOptions{
		ScheduleToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	signalChan := workflow.GetSignalChannel(ctx, EventSignalName)

	appendEvents := func(events [][]byte) {
		err := workflow.ExecuteActivity(ctx, AppendEventsActivityName, timelineID, events).Get(ctx, nil)
		if err != nil {
			logger.Error("Failed to append events", "error", err)
			state.FailedCount += len(events)
			// Continue processing other events rather than failing the workflow
			return
		}
		state.EventCount += len(events)
		state.LastEventAt = workflow.Now(ctx)
	}
	// Signals already delivered to this run would be lost on completion.
	drain := func() {
		var eventSignal EventSignal
		for signalChan.ReceiveAsync(&eventSignal) {
			appendEvents(eventSignal.Events)
		}
	}

	for {
		var eventSignal EventSignal
		idle := false

		timerCtx, cancelTimer := workflow.WithCancel(ctx)
		selector := workflow.NewSelector(ctx)
		selector.AddReceive(signalChan, func(c workflow.ReceiveChannel, _ bool) {
			c.Receive(ctx, &eventSignal)
		})
		selector.AddFuture(workflow.NewTimer(timerCtx, DefaultIdleTimeout), func(workflow.Future) {
			idle = true
		})
		selector.Select(ctx)
		cancelTimer()

		if idle {
			if err := ctx.Err(); err != nil {
				return err
			}
			drain()
			logger.Info("Ingestion idle, completing", "eventCount", state.EventCount)
			return nil
		}

		logger.Info("Received events", "count", len(eventSignal.Events))
		appendEvents(eventSignal.Events)

		// Check if we should continue as new to avoid unbounded history
		if state.EventCount >= DefaultContinueAsNewThreshold {
			drain()
			logger.Info("Continuing as new", "eventCount", state.EventCount)
			return workflow.NewContinueAsNewError(ctx, IngestionWorkflowName, timelineID)
		}
	}
}

// LayoutWorkflow loads the events of a timeline, parses them once and lays
// out every band in its own activity. Bands run concurrently.
func LayoutWorkflow(ctx workflow.Context, request LayoutRequest) (*LayoutResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting layout workflow", "timelineID", request.TimelineID, "bands", len(request.Timeline.Bands))

	ao := workflow.ActivityOptions{
		ScheduleToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	// Step 1: Load events from storage
	var events [][]byte
	err := workflow.ExecuteActivity(ctx, LoadEventsActivityName, request.TimelineID, request.Range).Get(ctx, &events)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	// Step 2: Parse records and resolve the origin shared by all bands
	var prepared *band.Prepared
	err = workflow.ExecuteActivity(ctx, PrepareLayoutActivityName, request.Timeline, events).Get(ctx, &prepared)
	if err != nil {
		var appErr *temporal.ApplicationError
		if errors.As(err, &appErr) && appErr.Type() == ErrTypeInvalidSpec {
			// Surface the type so callers can tell a bad request from a failure.
			return nil, temporal.NewNonRetryableApplicationError(appErr.Error(), ErrTypeInvalidSpec, nil)
		}
		return nil, fmt.Errorf("failed to prepare layout: %w", err)
	}

	// Step 3: Lay out each band
	futures := make([]workflow.Future, len(request.Timeline.Bands))
	for i, b := range request.Timeline.Bands {
		futures[i] = workflow.ExecuteActivity(ctx, LayoutBandActivityName, b, prepared, request.Timeline.Width)
	}

	result := &LayoutResult{
		TimelineID: request.TimelineID,
		EventCount: len(events),
		Rendering: band.Rendering{
			ID:      request.Timeline.ID,
			Origin:  prepared.Origin,
			Width:   request.Timeline.Width,
			Bands:   make([]band.Result, 0, len(futures)),
			Skipped: prepared.Skipped,
		},
	}
	for i, future := range futures {
		var res band.Result
		if err := future.Get(ctx, &res); err != nil {
			name := request.Timeline.Bands[i].Name
			logger.Error("Band layout failed", "band", name, "error", err)
			// Continue with the remaining bands
			result.Failed = append(result.Failed, BandFailure{Band: name, Error: err.Error()})
			continue
		}
		result.Rendering.Bands = append(result.Rendering.Bands, res)
	}

	if len(futures) > 0 && len(result.Failed) == len(futures) {
		return nil, fmt.Errorf("all %d bands failed layout", len(futures))
	}

	logger.Info("Layout completed", "bands", len(result.Rendering.Bands), "failed", len(result.Failed),
		"skippedRecords", len(prepared.Skipped))
	return result, nil
}

// Utility functions for workflow IDs

// GenerateIngestionWorkflowID creates a workflow ID for ingestion. There is
// one ingestion workflow per timeline.
func GenerateIngestionWorkflowID(timelineID string) string {
	return IngestionWorkflowIDPrefix + timelineID
}

// GenerateLayoutWorkflowID creates a unique workflow ID for a layout run
func GenerateLayoutWorkflowID(timelineID string) string {
	return fmt.Sprintf("%s%s-%s", LayoutWorkflowIDPrefix, timelineID, uuid.NewString())
}
