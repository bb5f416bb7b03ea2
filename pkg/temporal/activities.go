package temporal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/leowmjw/go-timeline-bands/pkg/band"
	"github.com/leowmjw/go-timeline-bands/pkg/store"
	"github.com/leowmjw/go-timeline-bands/pkg/timeline"
)

// ProgressReportInterval is how many events are parsed between heartbeats.
const ProgressReportInterval = 1000

// ErrTypeInvalidSpec is the application error type of a timeline
// specification that can never succeed. It is not retried.
const ErrTypeInvalidSpec = "InvalidTimelineSpec"

// Activities interface defines all the activities used by workflows
type Activities interface {
	AppendEventsActivity(ctx context.Context, timelineID string, events [][]byte) error
	LoadEventsActivity(ctx context.Context, timelineID string, r *timeline.Range) ([][]byte, error)
	PrepareLayoutActivity(ctx context.Context, spec band.Spec, events [][]byte) (*band.Prepared, error)
	LayoutBandActivity(ctx context.Context, b band.BandSpec, prepared *band.Prepared, width float64) (*band.Result, error)
}

// ActivitiesImpl implements the Activities interface
type ActivitiesImpl struct {
	logger   *slog.Logger
	storage  store.Store
	renderer *band.Renderer
}

// NewActivitiesImpl creates a new activities implementation
func NewActivitiesImpl(logger *slog.Logger, storage store.Store) *ActivitiesImpl {
	return &ActivitiesImpl{
		logger:   logger,
		storage:  storage,
		renderer: band.NewRenderer(logger),
	}
}

// Registry is the registration surface shared by worker.Worker and the
// test workflow environment.
type Registry interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register registers the workflows and activities under the names the
// workflows and clients use.
func Register(r Registry, a Activities) {
	r.RegisterWorkflowWithOptions(IngestionWorkflow, workflow.RegisterOptions{Name: IngestionWorkflowName})
	r.RegisterWorkflowWithOptions(LayoutWorkflow, workflow.RegisterOptions{Name: LayoutWorkflowName})

	r.RegisterActivityWithOptions(a.AppendEventsActivity, activity.RegisterOptions{Name: AppendEventsActivityName})
	r.RegisterActivityWithOptions(a.LoadEventsActivity, activity.RegisterOptions{Name: LoadEventsActivityName})
	r.RegisterActivityWithOptions(a.PrepareLayoutActivity, activity.RegisterOptions{Name: PrepareLayoutActivityName})
	r.RegisterActivityWithOptions(a.LayoutBandActivity, activity.RegisterOptions{Name: LayoutBandActivityName})
}

// AppendEventsActivity persists events to durable storage
func (a *ActivitiesImpl) AppendEventsActivity(ctx context.Context, timelineID string, events [][]byte) error {
	a.logger.Info("Appending events", "timelineID", timelineID, "count", len(events))

	if err := a.storage.AppendEvents(ctx, timelineID, events); err != nil {
		a.logger.Error("Failed to append to storage", "error", err)
		if errors.Is(err, store.ErrEmptyTimelineID) {
			return temporal.NewNonRetryableApplicationError(err.Error(), "InvalidTimelineID", err)
		}
		return fmt.Errorf("failed to append to storage: %w", err)
	}

	a.logger.Info("Successfully appended events", "timelineID", timelineID, "count", len(events))
	return nil
}

// LoadEventsActivity loads the stored events of a timeline, optionally
// limited to those overlapping r.
func (a *ActivitiesImpl) LoadEventsActivity(ctx context.Context, timelineID string, r *timeline.Range) ([][]byte, error) {
	a.logger.Info("Loading events", "timelineID", timelineID, "range", r)

	events, err := a.storage.LoadEvents(ctx, timelineID, r)
	if err != nil {
		a.logger.Error("Failed to load events", "error", err)
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	a.logger.Info("Successfully loaded events", "timelineID", timelineID, "count", len(events))
	return events, nil
}

// PrepareLayoutActivity validates the timeline, parses the stored events
// into records and resolves the origin. Events that are not JSON objects
// are reported as skipped at their index like any other bad record.
func (a *ActivitiesImpl) PrepareLayoutActivity(ctx context.Context, spec band.Spec, events [][]byte) (*band.Prepared, error) {
	a.logger.Info("Preparing layout", "timelineID", spec.ID, "eventCount", len(events))

	raws := make([]timeline.RawEvent, len(events))
	for i, data := range events {
		if i%ProgressReportInterval == 0 {
			activity.RecordHeartbeat(ctx, i)
		}
		raw, err := timeline.DecodeEvent(data)
		if err != nil {
			a.logger.Warn("Failed to decode event", "index", i, "error", err)
			continue
		}
		raws[i] = raw
	}

	prepared, err := a.renderer.Prepare(spec, raws)
	if err != nil {
		if errors.Is(err, band.ErrInvalidSpec) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidSpec, err)
		}
		return nil, fmt.Errorf("failed to prepare layout: %w", err)
	}

	a.logger.Info("Prepared layout", "records", len(prepared.Records), "skipped", len(prepared.Skipped), "origin", prepared.Origin)
	return prepared, nil
}

// LayoutBandActivity lays out the prepared records in a single band.
func (a *ActivitiesImpl) LayoutBandActivity(ctx context.Context, b band.BandSpec, prepared *band.Prepared, width float64) (*band.Result, error) {
	a.logger.Info("Laying out band", "band", b.Name, "records", len(prepared.Records))

	res, err := a.renderer.RenderBand(b, prepared, width)
	if err != nil {
		a.logger.Error("Failed to lay out band", "band", b.Name, "error", err)
		// Band configuration errors are deterministic.
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidSpec, err)
	}

	a.logger.Info("Successfully laid out band", "band", b.Name, "items", len(res.Items), "tracks", res.TrackCount)
	return &res, nil
}
