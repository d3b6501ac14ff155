// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the activity log as queryable tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"sort"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ASH1998/AI-Task-Tracker/internal/core"
	"github.com/ASH1998/AI-Task-Tracker/internal/observability"
	"github.com/ASH1998/AI-Task-Tracker/internal/storage"
	"github.com/ASH1998/AI-Task-Tracker/pkg/models"
)

// Server wraps the tracker's read side and exposes it as MCP tools.
type Server struct {
	server     *gomcp.Server
	store      storage.ActivityStore
	metrics    observability.ActivityMetrics
	normalizer core.TopicNormalizer
	events     observability.EventLog
}

// NewServer creates a new MCP server over the given activity store.
// normalizer and events may be nil if the corresponding services are
// unavailable.
func NewServer(store storage.ActivityStore, metrics observability.ActivityMetrics, normalizer core.TopicNormalizer, events observability.EventLog, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		store:      store,
		metrics:    metrics,
		normalizer: normalizer,
		events:     events,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "tasktracker", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type recentActivityInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of records to return, newest first. Defaults to 20."`
}

type activityOutput struct {
	Timestamp        string `json:"timestamp"`
	AppName          string `json:"app_name"`
	CrispDescription string `json:"crisp_description"`
	MainTopic        string `json:"main_topic"`
	ShortDescription string `json:"short_description"`
	ScreenshotFile   string `json:"screenshot_file,omitempty"`
	IsFailure        bool   `json:"is_failure,omitempty"`
}

type recentActivityOutput struct {
	Records []activityOutput `json:"records"`
	Count   int              `json:"count"`
}

type topicSummaryInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for the summary (e.g. 7d, 24h). Defaults to all records."`
}

type topicSummaryOutput struct {
	Topics []topicEntry `json:"topics"`
}

type topicEntry struct {
	Topic   string  `json:"topic"`
	Count   int     `json:"count"`
	Minutes float64 `json:"minutes"`
}

type activityStatsInput struct{}

type activityStatsOutput struct {
	TotalRecords   int    `json:"total_records"`
	FailureRecords int    `json:"failure_records"`
	DistinctTopics int    `json:"distinct_topics"`
	FirstRecord    string `json:"first_record,omitempty"`
	LastRecord     string `json:"last_record,omitempty"`
}

type trackerEventsInput struct {
	Type  string `json:"type,omitempty" jsonschema:"only return events of this type (e.g. record.saved, capture.failed)"`
	Since string `json:"since,omitempty" jsonschema:"time window for events (e.g. 24h, 7d). Defaults to all events."`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of events to return, newest first. Defaults to 50."`
}

type trackerEventOutput struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

type trackerEventsOutput struct {
	Events []trackerEventOutput `json:"events"`
	Count  int                  `json:"count"`
}

type normalizeTopicInput struct {
	Topic string `json:"topic" jsonschema:"required,the free-text topic label to normalize"`
}

type normalizeTopicOutput struct {
	Topic      string `json:"topic"`
	Normalized string `json:"normalized"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_recent_activity",
		Description: "Get the most recent activity records, newest first. Failure rows are flagged.",
	}, s.handleRecentActivity)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_topic_summary",
		Description: "Get per-topic record counts and approximate minutes of engagement, optionally limited to a recent window.",
	}, s.handleTopicSummary)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_activity_stats",
		Description: "Get overall activity log statistics: record counts, failure rows, and the covered time range.",
	}, s.handleActivityStats)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_tracker_events",
		Description: "Get the tracker's lifecycle events (iterations, capture failures, saved records), newest first.",
	}, s.handleTrackerEvents)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "normalize_topic",
		Description: "Normalize a free-text topic label to its canonical form using the configured text model.",
	}, s.handleNormalizeTopic)
}

// --- Tool handlers ---

func (s *Server) handleRecentActivity(_ context.Context, _ *gomcp.CallToolRequest, input recentActivityInput) (*gomcp.CallToolResult, recentActivityOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	records, err := s.store.LoadAll()
	if err != nil {
		return errorResult(fmt.Sprintf("loading activity log: %s", err)), recentActivityOutput{}, nil
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	if len(records) > limit {
		records = records[:limit]
	}

	out := recentActivityOutput{
		Records: make([]activityOutput, len(records)),
		Count:   len(records),
	}
	for i, r := range records {
		out.Records[i] = recordToOutput(r)
	}
	return nil, out, nil
}

func (s *Server) handleTopicSummary(_ context.Context, _ *gomcp.CallToolRequest, input topicSummaryInput) (*gomcp.CallToolResult, topicSummaryOutput, error) {
	records, err := s.store.LoadAll()
	if err != nil {
		return errorResult(fmt.Sprintf("loading activity log: %s", err)), topicSummaryOutput{}, nil
	}

	if input.Since != "" {
		since, err := parseSince(input.Since)
		if err != nil {
			return errorResult(fmt.Sprintf("parsing since duration: %s", err)), topicSummaryOutput{}, nil
		}
		filtered := records[:0]
		for _, r := range records {
			if !r.Timestamp.Before(since) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	summaries := s.metrics.TopicSummaries(records)
	out := topicSummaryOutput{Topics: make([]topicEntry, len(summaries))}
	for i, sum := range summaries {
		out.Topics[i] = topicEntry{Topic: sum.Topic, Count: sum.Count, Minutes: sum.Minutes}
	}
	return nil, out, nil
}

func (s *Server) handleActivityStats(_ context.Context, _ *gomcp.CallToolRequest, _ activityStatsInput) (*gomcp.CallToolResult, activityStatsOutput, error) {
	records, err := s.store.LoadAll()
	if err != nil {
		return errorResult(fmt.Sprintf("loading activity log: %s", err)), activityStatsOutput{}, nil
	}

	stats := s.metrics.Stats(records)
	out := activityStatsOutput{
		TotalRecords:   stats.TotalRecords,
		FailureRecords: stats.FailureRecords,
		DistinctTopics: stats.DistinctTopics,
	}
	if !stats.FirstRecord.IsZero() {
		out.FirstRecord = stats.FirstRecord.Format(time.RFC3339)
	}
	if !stats.LastRecord.IsZero() {
		out.LastRecord = stats.LastRecord.Format(time.RFC3339)
	}
	return nil, out, nil
}

func (s *Server) handleTrackerEvents(_ context.Context, _ *gomcp.CallToolRequest, input trackerEventsInput) (*gomcp.CallToolResult, trackerEventsOutput, error) {
	if s.events == nil {
		return errorResult("event log not available"), trackerEventsOutput{}, nil
	}

	filter := observability.EventFilter{Type: input.Type}
	if input.Since != "" {
		since, err := parseSince(input.Since)
		if err != nil {
			return errorResult(fmt.Sprintf("parsing since duration: %s", err)), trackerEventsOutput{}, nil
		}
		filter.Since = &since
	}

	events, err := s.events.Read(filter)
	if err != nil {
		return errorResult(fmt.Sprintf("reading event log: %s", err)), trackerEventsOutput{}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.After(events[j].Time)
	})
	if len(events) > limit {
		events = events[:limit]
	}

	out := trackerEventsOutput{
		Events: make([]trackerEventOutput, len(events)),
		Count:  len(events),
	}
	for i, e := range events {
		out.Events[i] = trackerEventOutput{
			Time:    e.Time.Format(time.RFC3339),
			Level:   e.Level,
			Type:    e.Type,
			Message: e.Message,
			Data:    e.Data,
		}
	}
	return nil, out, nil
}

func (s *Server) handleNormalizeTopic(ctx context.Context, _ *gomcp.CallToolRequest, input normalizeTopicInput) (*gomcp.CallToolResult, normalizeTopicOutput, error) {
	if input.Topic == "" {
		return errorResult("topic is required"), normalizeTopicOutput{}, nil
	}
	if s.normalizer == nil {
		return errorResult("topic normalizer not available (no LLM credentials configured)"), normalizeTopicOutput{}, nil
	}

	normalized := s.normalizer.Normalize(ctx, input.Topic)
	return nil, normalizeTopicOutput{Topic: input.Topic, Normalized: normalized}, nil
}

// --- Helpers ---

func recordToOutput(r models.ActivityRecord) activityOutput {
	return activityOutput{
		Timestamp:        r.Timestamp.Format(time.RFC3339),
		AppName:          r.AppName,
		CrispDescription: r.CrispDescription,
		MainTopic:        r.MainTopic,
		ShortDescription: r.ShortDescription,
		ScreenshotFile:   r.ScreenshotFile,
		IsFailure:        r.IsFailure(),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or
// "24h" into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}
	if num <= 0 {
		return time.Time{}, fmt.Errorf("duration must be positive, got %q", s)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("invalid duration suffix %q, use d or h", string(suffix))
	}
}
