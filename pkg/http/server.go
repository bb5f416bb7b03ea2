package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	sdktemporal "go.temporal.io/sdk/temporal"

	"github.com/leowmjw/go-timeline-bands/pkg/band"
	"github.com/leowmjw/go-timeline-bands/pkg/hcl"
	"github.com/leowmjw/go-timeline-bands/pkg/temporal"
	"github.com/leowmjw/go-timeline-bands/pkg/timeline"
)

const (
	DefaultTaskQueue    = "timeline-task-queue"
	DefaultMaxBodyBytes = 10 << 20
)

// Options configure the HTTP server.
type Options struct {
	Addr         string
	TaskQueue    string
	MaxBodyBytes int64
}

// Server represents the HTTP server for the Timeline service
type Server struct {
	logger         *slog.Logger
	temporalClient client.Client
	renderer       *band.Renderer
	opts           Options
}

// NewServer creates a new HTTP server
func NewServer(logger *slog.Logger, temporalClient client.Client, opts Options) *Server {
	if opts.TaskQueue == "" {
		opts.TaskQueue = DefaultTaskQueue
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Server{
		logger:         logger,
		temporalClient: temporalClient,
		renderer:       band.NewRenderer(logger),
		opts:           opts,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Register routes
	mux.HandleFunc("POST /timelines/{id}/events", s.handleIngestEvents)
	mux.HandleFunc("GET /timelines/{id}/state", s.handleIngestionState)
	mux.HandleFunc("POST /timelines/{id}/layout", s.handleLayout)
	mux.HandleFunc("POST /layout", s.handleInlineLayout)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Add middleware
	return s.loggingMiddleware(s.limitBodyMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.opts.Addr,
		Handler: s.Handler(),
	}

	s.logger.Info("Starting HTTP server", "addr", s.opts.Addr)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

// Event ingestion endpoint. The body is an event-source document: a bare
// array of events or an object with an events array.
func (s *Server) handleIngestEvents(w http.ResponseWriter, r *http.Request) {
	timelineID := r.PathValue("id")
	if timelineID == "" {
		s.respondError(w, http.StatusBadRequest, "timeline ID is required")
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	events, err := timeline.DecodeEventSource(body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(events) == 0 {
		s.respondError(w, http.StatusBadRequest, "at least one event is required")
		return
	}

	eventBytes, err := timeline.EncodeEvents(events)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("Ingesting events", "timelineID", timelineID, "count", len(events))

	// Use SignalWithStart to ensure workflow exists
	workflowID := temporal.GenerateIngestionWorkflowID(timelineID)
	signal := temporal.EventSignal{
		Events: eventBytes,
	}

	_, err = s.temporalClient.SignalWithStartWorkflow(
		r.Context(),
		workflowID,
		temporal.EventSignalName,
		signal,
		client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: s.opts.TaskQueue,
		},
		temporal.IngestionWorkflowName,
		timelineID,
	)
	if err != nil {
		s.logger.Error("Failed to signal workflow", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to process events")
		return
	}

	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":     "events queued for processing",
		"timeline_id": timelineID,
		"event_count": len(events),
	})
}

// Ingestion state endpoint, answered by the running ingestion workflow.
func (s *Server) handleIngestionState(w http.ResponseWriter, r *http.Request) {
	timelineID := r.PathValue("id")
	if timelineID == "" {
		s.respondError(w, http.StatusBadRequest, "timeline ID is required")
		return
	}

	workflowID := temporal.GenerateIngestionWorkflowID(timelineID)
	val, err := s.temporalClient.QueryWorkflow(r.Context(), workflowID, "", temporal.IngestionStateQueryName)
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			s.respondError(w, http.StatusNotFound, "no ingestion running for timeline "+timelineID)
			return
		}
		s.logger.Error("Failed to query ingestion workflow", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to query ingestion state")
		return
	}

	var state temporal.IngestionWorkflowState
	if err := val.Get(&state); err != nil {
		s.logger.Error("Failed to decode ingestion state", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to decode ingestion state")
		return
	}
	s.respondJSON(w, http.StatusOK, state)
}

// Layout endpoint for stored events. The body is a timeline specification
// in JSON or HCL; optional start and end query parameters limit the events
// loaded.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	timelineID := r.PathValue("id")
	if timelineID == "" {
		s.respondError(w, http.StatusBadRequest, "timeline ID is required")
		return
	}

	request := temporal.LayoutRequest{TimelineID: timelineID}

	if start, end := r.URL.Query().Get("start"), r.URL.Query().Get("end"); start != "" || end != "" {
		rng, err := timeline.NewRange(start, end)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid range: %v", err))
			return
		}
		request.Range = &rng
	}

	contentType, err := hcl.DetectContentType(r)
	if err != nil {
		s.respondBodyError(w, err)
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	if contentType == hcl.ContentTypeHCL {
		doc, err := hcl.ParseHCLTimeline(string(body))
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid HCL: %v", err))
			return
		}
		if len(doc.Events) > 0 {
			s.respondError(w, http.StatusBadRequest, "inline events are not accepted for a stored timeline; post them to /timelines/"+timelineID+"/events")
			return
		}
		request.Timeline = doc.Spec
	} else if err := json.Unmarshal(body, &request.Timeline); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := request.Timeline.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("Processing layout", "timelineID", timelineID, "bands", len(request.Timeline.Bands), "format", contentType)

	workflowID := temporal.GenerateLayoutWorkflowID(timelineID)
	workflowRun, err := s.temporalClient.ExecuteWorkflow(
		r.Context(),
		client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: s.opts.TaskQueue,
		},
		temporal.LayoutWorkflowName,
		request,
	)
	if err != nil {
		s.logger.Error("Failed to start layout workflow", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to start layout")
		return
	}

	// Wait for result
	var result *temporal.LayoutResult
	if err := workflowRun.Get(r.Context(), &result); err != nil {
		s.logger.Error("Layout workflow failed", "error", err)
		var appErr *sdktemporal.ApplicationError
		if errors.As(err, &appErr) && appErr.Type() == temporal.ErrTypeInvalidSpec {
			s.respondError(w, http.StatusBadRequest, appErr.Message())
			return
		}
		s.respondError(w, http.StatusInternalServerError, "layout execution failed")
		return
	}

	s.logger.Info("Layout completed", "timelineID", timelineID, "bands", len(result.Rendering.Bands), "failed", len(result.Failed))
	s.respondJSON(w, http.StatusOK, result)
}

// InlineLayoutRequest is the JSON body of the stateless layout endpoint.
type InlineLayoutRequest struct {
	Timeline band.Spec       `json:"timeline"`
	Events   json.RawMessage `json:"events,omitempty"`
}

// Stateless layout endpoint. Nothing is stored; the rendering is computed
// in process. HCL bodies carry their events inline.
func (s *Server) handleInlineLayout(w http.ResponseWriter, r *http.Request) {
	contentType, err := hcl.DetectContentType(r)
	if err != nil {
		s.respondBodyError(w, err)
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var spec band.Spec
	var events []timeline.RawEvent
	if contentType == hcl.ContentTypeHCL {
		doc, err := hcl.ParseHCLTimeline(string(body))
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid HCL: %v", err))
			return
		}
		spec, events = doc.Spec, doc.Events
	} else {
		var request InlineLayoutRequest
		if err := json.Unmarshal(body, &request); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		spec = request.Timeline
		if len(request.Events) > 0 {
			events, err = timeline.DecodeEventSource(request.Events)
			if err != nil {
				s.respondError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
	}

	rendering, err := s.renderer.RenderConcurrently(r.Context(), spec, events)
	if err != nil {
		if errors.Is(err, band.ErrInvalidSpec) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Inline layout failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "layout failed")
		return
	}

	s.logger.Info("Inline layout completed", "bands", len(rendering.Bands), "events", len(events), "skipped", len(rendering.Skipped))
	s.respondJSON(w, http.StatusOK, rendering)
}

// Health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Middleware for request logging
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap ResponseWriter to capture status code
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		s.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", duration,
			"user_agent", r.UserAgent(),
		)
	})
}

func (s *Server) limitBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Body == nil {
		s.respondError(w, http.StatusBadRequest, "request body is required")
		return nil, false
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondBodyError(w, err)
		return nil, false
	}
	return body, true
}

// Response helpers
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.logger.Warn("HTTP error response", "status", status, "message", message)
	s.respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) respondBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	s.respondError(w, http.StatusBadRequest, "failed to read request body")
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
