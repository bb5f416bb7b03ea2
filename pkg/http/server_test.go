package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	sdkMocks "go.temporal.io/sdk/mocks"
	sdktemporal "go.temporal.io/sdk/temporal"

	"github.com/leowmjw/go-timeline-bands/pkg/band"
	"github.com/leowmjw/go-timeline-bands/pkg/temporal"
	"github.com/leowmjw/go-timeline-bands/pkg/timeline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func newTestServer(mockClient client.Client) *Server {
	return NewServer(testLogger(), mockClient, Options{Addr: ":8080"})
}

// jsonValue is a converter.EncodedValue backed by a Go value.
type jsonValue struct {
	value interface{}
}

func (v jsonValue) HasValue() bool { return v.value != nil }

func (v jsonValue) Get(valuePtr interface{}) error {
	data, err := json.Marshal(v.value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, valuePtr)
}

const layoutSpecJSON = `{
	"id": "launch",
	"origin": "2006-06-01",
	"width": 800,
	"bands": [
		{"name": "detail", "ether": {"unit": "day", "pixels": 20}, "ticks": true},
		{"name": "overview", "ether": {"unit": "month", "pixels": 100}}
	]
}`

func TestServer_handleIngestEvents_ValidJSON(t *testing.T) {
	mockClient := &sdkMocks.Client{}
	server := newTestServer(mockClient)

	body := `[
		{"start": "2006-06-28", "title": "Launch"},
		{"start": "44 BCE", "title": "Ides of March"}
	]`

	expectedWorkflowID := temporal.GenerateIngestionWorkflowID("test-123")
	expectedOptions := client.StartWorkflowOptions{
		ID:        expectedWorkflowID,
		TaskQueue: DefaultTaskQueue,
	}
	mockClient.On("SignalWithStartWorkflow",
		mock.Anything, // Context argument
		expectedWorkflowID,
		temporal.EventSignalName,
		mock.MatchedBy(func(signal temporal.EventSignal) bool {
			if len(signal.Events) != 2 {
				return false
			}
			event, err := timeline.DecodeEvent(signal.Events[1])
			return err == nil && event["start"] == "44 BCE"
		}),
		expectedOptions,
		temporal.IngestionWorkflowName,
		"test-123",
	).Return(&sdkMocks.WorkflowRun{}, nil).Once()

	req := httptest.NewRequest("POST", "/timelines/test-123/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, "test-123", response["timeline_id"])
	assert.Equal(t, float64(2), response["event_count"])

	mockClient.AssertExpectations(t)
}

func TestServer_handleIngestEvents_EventSourceObject(t *testing.T) {
	mockClient := &sdkMocks.Client{}
	server := newTestServer(mockClient)

	mockClient.On("SignalWithStartWorkflow",
		mock.Anything, mock.Anything, temporal.EventSignalName, mock.Anything,
		mock.Anything, temporal.IngestionWorkflowName, "test-123",
	).Return(nil, errors.New("mock temporal error")).Once()

	body := `{"dateTimeFormat": "iso8601", "events": [{"start": "2006-06-28"}]}`
	req := httptest.NewRequest("POST", "/timelines/test-123/events", strings.NewReader(body))
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	// Expect InternalServerError because the mocked Temporal call returns an error.
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d after mocked Temporal error, got status %d. Response body: %s",
			http.StatusInternalServerError, rr.Code, rr.Body.String())
	}
	mockClient.AssertExpectations(t)
}

func TestServer_handleIngestEvents_BadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{"invalid": json}`},
		{"empty array", `[]`},
		{"not an event source", `"events"`},
		{"events are not objects", `[1, 2, 3]`},
		{"object without events", `{"dateTimeFormat": "iso8601"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &sdkMocks.Client{}
			server := newTestServer(mockClient)

			req := httptest.NewRequest("POST", "/timelines/test-123/events", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			server.Handler().ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			mockClient.AssertNotCalled(t, "SignalWithStartWorkflow")
		})
	}
}

func TestServer_handleIngestEvents_BodyTooLarge(t *testing.T) {
	mockClient := &sdkMocks.Client{}
	server := NewServer(testLogger(), mockClient, Options{MaxBodyBytes: 64})

	body := `[{"start": "2006-06-28", "title": "` + strings.Repeat("x", 100) + `"}]`
	req := httptest.NewRequest("POST", "/timelines/test-123/events", strings.NewReader(body))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Contains(t, rr.Body.String(), "64 bytes")
}

func TestServer_handleIngestionState(t *testing.T) {
	mockClient := &sdkMocks.Client{}
	server := newTestServer(mockClient)

	state := temporal.IngestionWorkflowState{TimelineID: "test-123", EventCount: 42}
	mockClient.On("QueryWorkflow", mock.Anything, temporal.GenerateIngestionWorkflowID("test-123"), "",
		temporal.IngestionStateQueryName).Return(jsonValue{state}, nil).Once()
	mockClient.On("QueryWorkflow", mock.Anything, temporal.GenerateIngestionWorkflowID("missing"), "",
		temporal.IngestionStateQueryName).Return(nil, serviceerror.NewNotFound("workflow not found")).Once()

	req := httptest.NewRequest("GET", "/timelines/test-123/state", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got temporal.IngestionWorkflowState
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, 42, got.EventCount)

	req = httptest.NewRequest("GET", "/timelines/missing/state", nil)
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	mockClient.AssertExpectations(t)
}

func TestServer_handleLayout(t *testing.T) {
	mockClient := &sdkMocks.Client{}
	server := newTestServer(mockClient)

	mockWorkflowRun := &sdkMocks.WorkflowRun{}
	layoutResult := &temporal.LayoutResult{
		TimelineID: "launch",
		EventCount: 3,
		Rendering:  band.Rendering{ID: "launch", Width: 800, Bands: []band.Result{{Name: "detail"}}},
		Failed:     []temporal.BandFailure{{Band: "overview", Error: "renderer crashed"}},
	}
	mockWorkflowRun.On("Get", mock.Anything, mock.AnythingOfType("**temporal.LayoutResult")).
		Run(func(args mock.Arguments) {
			// Set the result pointer
			result := args[1].(**temporal.LayoutResult)
			*result = layoutResult
		}).
		Return(nil)

	mockClient.On("ExecuteWorkflow",
		mock.Anything,
		mock.MatchedBy(func(opts client.StartWorkflowOptions) bool {
			return strings.HasPrefix(opts.ID, temporal.LayoutWorkflowIDPrefix+"launch-") && opts.TaskQueue == DefaultTaskQueue
		}),
		temporal.LayoutWorkflowName,
		mock.MatchedBy(func(req temporal.LayoutRequest) bool {
			return req.TimelineID == "launch" &&
				len(req.Timeline.Bands) == 2 &&
				req.Timeline.Bands[0].Ether.Unit == "day" &&
				req.Range != nil &&
				req.Range.Start.Year() == 2006 && req.Range.End.Month() == 12
		}),
	).Return(mockWorkflowRun, nil).Once()

	req := httptest.NewRequest("POST", "/timelines/launch/layout?start=2006-01-01&end=2006-12-31", strings.NewReader(layoutSpecJSON))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got temporal.LayoutResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, 3, got.EventCount)
	require.Len(t, got.Failed, 1)
	assert.Equal(t, "overview", got.Failed[0].Band)

	mockClient.AssertExpectations(t)
	mockWorkflowRun.AssertExpectations(t)
}

func TestServer_handleLayout_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"invalid JSON", "/timelines/launch/layout", `{"width": }`, http.StatusBadRequest},
		{"invalid spec", "/timelines/launch/layout", `{"width": 800, "bands": []}`, http.StatusBadRequest},
		{"invalid range", "/timelines/launch/layout?start=2006&end=whenever", layoutSpecJSON, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &sdkMocks.Client{}
			server := newTestServer(mockClient)

			req := httptest.NewRequest("POST", tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			server.Handler().ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			mockClient.AssertNotCalled(t, "ExecuteWorkflow")
		})
	}
}

func TestServer_handleLayout_WorkflowErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid spec", sdktemporal.NewNonRetryableApplicationError("invalid timeline specification", temporal.ErrTypeInvalidSpec, nil), http.StatusBadRequest},
		{"failure", errors.New("all 2 bands failed layout"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &sdkMocks.Client{}
			server := newTestServer(mockClient)

			mockWorkflowRun := &sdkMocks.WorkflowRun{}
			mockWorkflowRun.On("Get", mock.Anything, mock.Anything).Return(tt.err)
			mockClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, temporal.LayoutWorkflowName, mock.Anything).
				Return(mockWorkflowRun, nil).Once()

			req := httptest.NewRequest("POST", "/timelines/launch/layout", strings.NewReader(layoutSpecJSON))
			rr := httptest.NewRecorder()
			server.Handler().ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}

func TestServer_handleInlineLayout_JSON(t *testing.T) {
	server := newTestServer(&sdkMocks.Client{})

	body, err := json.Marshal(map[string]interface{}{
		"timeline": json.RawMessage(layoutSpecJSON),
		"events": []map[string]interface{}{
			{"start": "2006-06-28", "title": "Launch"},
			{"start": "2006-07-01", "end": "2006-07-20", "isDuration": true, "title": "Beta"},
			{"title": "Undated"},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/layout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var rendering band.Rendering
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&rendering))
	assert.Equal(t, "launch", rendering.ID)
	require.Len(t, rendering.Bands, 2)
	assert.Len(t, rendering.Bands[0].Items, 2)
	assert.NotEmpty(t, rendering.Bands[0].Ticks)
	require.Len(t, rendering.Skipped, 1)
	assert.Equal(t, 2, rendering.Skipped[0].Index)
}

func TestServer_handleInlineLayout_InvalidSpec(t *testing.T) {
	server := newTestServer(&sdkMocks.Client{})

	body := `{"timeline": {"width": 800, "bands": [{"name": "b", "ether": {"unit": "fortnight", "pixels": 1}}]}}`
	req := httptest.NewRequest("POST", "/layout", strings.NewReader(body))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid timeline specification")
}

func TestServer_handleHealth(t *testing.T) {
	server := newTestServer(&sdkMocks.Client{})

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	server.handleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var response map[string]string
	err := json.NewDecoder(rr.Body).Decode(&response)
	if err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %s", response["status"])
	}

	if response["time"] == "" {
		t.Error("Expected time field to be populated")
	}
}

func TestServer_loggingMiddleware(t *testing.T) {
	server := newTestServer(&sdkMocks.Client{})

	// Create a test handler
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("test response"))
	})

	// Wrap with logging middleware
	wrapped := server.loggingMiddleware(testHandler)

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	wrapped.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	if rr.Body.String() != "test response" {
		t.Errorf("Expected 'test response', got %s", rr.Body.String())
	}
}

func TestResponseWrapper(t *testing.T) {
	rr := httptest.NewRecorder()
	wrapper := &responseWrapper{ResponseWriter: rr, statusCode: http.StatusOK}

	wrapper.WriteHeader(http.StatusNotFound)

	if wrapper.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, wrapper.statusCode)
	}

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected response code %d, got %d", http.StatusNotFound, rr.Code)
	}
}
