package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ASH1998/AI-Task-Tracker/pkg/models"
)

// --- Fake collaborators ---

type fakeCapturer struct {
	paths []string // one entry per attempt; "" means failure
	errs  []error
	calls int
}

func (f *fakeCapturer) Capture() (string, error) {
	i := f.calls
	f.calls++
	var path string
	var err error
	if i < len(f.paths) {
		path = f.paths[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if path == "" && err == nil {
		err = errors.New("capture failed")
	}
	return path, err
}

type fakeWindows struct {
	title string
	err   error
}

func (f *fakeWindows) ActiveWindowTitle() (string, error) {
	return f.title, f.err
}

type fakeAnalyzer struct {
	results []*models.Classification
	errs    []error
	calls   int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string) (*models.Classification, error) {
	i := f.calls
	f.calls++
	var result *models.Classification
	var err error
	if i < len(f.results) {
		result = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return result, err
}

type fakeStore struct {
	records []models.ActivityRecord
	err     error
}

func (f *fakeStore) Append(record models.ActivityRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

type fakeEvents struct {
	types []string
}

func (f *fakeEvents) LogEvent(eventType string, _ map[string]any) error {
	f.types = append(f.types, eventType)
	return nil
}

func newTestTracker(capturer ScreenCapturer, windows WindowTitler, analyzer ScreenshotAnalyzer, store ActivitySaver, events EventLogger) (*Tracker, *int) {
	t := NewTracker(models.TrackerConfig{
		TrackingInterval: time.Second,
		MaxRetries:       3,
		RetryDelay:       10 * time.Second,
	}, capturer, windows, analyzer, store, events)

	t.logger = zerolog.Nop()
	t.now = func() time.Time { return time.Date(2025, 1, 15, 10, 0, 0, 0, time.Local) }
	sleeps := 0
	t.sleep = func(_ context.Context, _ time.Duration) bool {
		sleeps++
		return true
	}
	return t, &sleeps
}

func goodResult() *models.Classification {
	return &models.Classification{
		CrispDescription: "Editing Go source in an IDE",
		MainTopic:        "Go Programming",
		ShortDescription: "Coding",
	}
}

// --- Iteration behavior ---

func TestRunIteration_SuccessPersistsVerbatimFields(t *testing.T) {
	store := &fakeStore{}
	events := &fakeEvents{}
	tracker, _ := newTestTracker(
		&fakeCapturer{paths: []string{"/tmp/shots/screenshot_20250115_100000.png"}, errs: []error{nil}},
		&fakeWindows{title: "VS Code"},
		&fakeAnalyzer{results: []*models.Classification{goodResult()}, errs: []error{nil}},
		store, events,
	)

	tracker.RunIteration(context.Background())

	if len(store.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.records))
	}
	rec := store.records[0]
	want := goodResult()
	if rec.CrispDescription != want.CrispDescription ||
		rec.MainTopic != want.MainTopic ||
		rec.ShortDescription != want.ShortDescription {
		t.Errorf("record fields differ from model output: %+v", rec)
	}
	if rec.AppName != "VS Code" {
		t.Errorf("AppName = %q", rec.AppName)
	}
	if rec.ScreenshotFile != "screenshot_20250115_100000.png" {
		t.Errorf("ScreenshotFile = %q, want filename only", rec.ScreenshotFile)
	}
	if !rec.Timestamp.Equal(time.Date(2025, 1, 15, 10, 0, 0, 0, time.Local)) {
		t.Errorf("Timestamp = %v", rec.Timestamp)
	}
}

func TestRunIteration_WindowLookupFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{}
	tracker, _ := newTestTracker(
		&fakeCapturer{paths: []string{"/tmp/s.png"}, errs: []error{nil}},
		&fakeWindows{err: errors.New("no display")},
		&fakeAnalyzer{results: []*models.Classification{goodResult()}, errs: []error{nil}},
		store, nil,
	)

	tracker.RunIteration(context.Background())

	if len(store.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.records))
	}
	if store.records[0].AppName != models.AppUnknown {
		t.Errorf("AppName = %q, want %q", store.records[0].AppName, models.AppUnknown)
	}
}

func TestRunIteration_CaptureExhaustedWritesNothing(t *testing.T) {
	store := &fakeStore{}
	capturer := &fakeCapturer{} // every attempt fails
	tracker, sleeps := newTestTracker(
		capturer,
		&fakeWindows{title: "App"},
		&fakeAnalyzer{},
		store, nil,
	)

	tracker.RunIteration(context.Background())

	if len(store.records) != 0 {
		t.Fatalf("capture failure must not append records, got %d", len(store.records))
	}
	if capturer.calls != 3 {
		t.Errorf("capture attempts = %d, want 3", capturer.calls)
	}
	// Sleeps happen between attempts, not after the last one.
	if *sleeps != 2 {
		t.Errorf("sleeps = %d, want 2", *sleeps)
	}
}

func TestRunIteration_CaptureSucceedsOnSecondAttempt(t *testing.T) {
	store := &fakeStore{}
	capturer := &fakeCapturer{
		paths: []string{"", "/tmp/s.png"},
		errs:  []error{errors.New("busy"), nil},
	}
	analyzer := &fakeAnalyzer{results: []*models.Classification{goodResult()}, errs: []error{nil}}
	tracker, _ := newTestTracker(capturer, &fakeWindows{title: "App"}, analyzer, store, nil)

	tracker.RunIteration(context.Background())

	if capturer.calls != 2 {
		t.Errorf("capture attempts = %d, want 2 (success breaks the retry loop)", capturer.calls)
	}
	if len(store.records) != 1 {
		t.Errorf("expected 1 record, got %d", len(store.records))
	}
}

// --- Classification decision table ---

func TestClassify_HardFailureExhaustedWritesFailureRecord(t *testing.T) {
	store := &fakeStore{}
	hardErr := errors.New("connection refused")
	analyzer := &fakeAnalyzer{errs: []error{hardErr, hardErr, hardErr}}
	tracker, _ := newTestTracker(
		&fakeCapturer{paths: []string{"/tmp/shots/s.png"}, errs: []error{nil}},
		&fakeWindows{title: "Browser"},
		analyzer, store, nil,
	)

	tracker.RunIteration(context.Background())

	if analyzer.calls != 3 {
		t.Errorf("analyze attempts = %d, want 3", analyzer.calls)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected exactly 1 failure record, got %d", len(store.records))
	}
	rec := store.records[0]
	if rec.CrispDescription != models.DescAnalysisFailed {
		t.Errorf("CrispDescription = %q, want %q", rec.CrispDescription, models.DescAnalysisFailed)
	}
	if rec.MainTopic != models.TopicError {
		t.Errorf("MainTopic = %q, want %q", rec.MainTopic, models.TopicError)
	}
	if rec.ShortDescription != "connection refused" {
		t.Errorf("ShortDescription = %q", rec.ShortDescription)
	}
	if rec.ScreenshotFile != "s.png" {
		t.Errorf("ScreenshotFile = %q", rec.ScreenshotFile)
	}
	if rec.AppName != "Browser" {
		t.Errorf("AppName = %q", rec.AppName)
	}
}

func TestClassify_MalformedJSONRetriedThenFailureRecord(t *testing.T) {
	store := &fakeStore{}
	malformed := &models.AnalysisError{Kind: models.AnalysisMalformedJSON, RawContent: "not json"}
	analyzer := &fakeAnalyzer{errs: []error{malformed, malformed, malformed}}
	tracker, _ := newTestTracker(
		&fakeCapturer{paths: []string{"/tmp/s.png"}, errs: []error{nil}},
		&fakeWindows{title: "App"},
		analyzer, store, nil,
	)

	tracker.RunIteration(context.Background())

	if analyzer.calls != 3 {
		t.Errorf("analyze attempts = %d, want 3 (malformed JSON is retryable)", analyzer.calls)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected exactly 1 failure record, got %d", len(store.records))
	}
	rec := store.records[0]
	if rec.CrispDescription != models.DescAnalysisError {
		t.Errorf("CrispDescription = %q, want %q", rec.CrispDescription, models.DescAnalysisError)
	}
	if rec.ShortDescription != "not json" {
		t.Errorf("ShortDescription = %q, want the raw content", rec.ShortDescription)
	}
}

func TestClassify_MalformedJSONThenSuccess(t *testing.T) {
	store := &fakeStore{}
	malformed := &models.AnalysisError{Kind: models.AnalysisMalformedJSON, RawContent: "garbage"}
	analyzer := &fakeAnalyzer{
		results: []*models.Classification{nil, goodResult()},
		errs:    []error{malformed, nil},
	}
	tracker, _ := newTestTracker(
		&fakeCapturer{paths: []string{"/tmp/s.png"}, errs: []error{nil}},
		&fakeWindows{title: "App"},
		analyzer, store, nil,
	)

	tracker.RunIteration(context.Background())

	if analyzer.calls != 2 {
		t.Errorf("analyze attempts = %d, want 2", analyzer.calls)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.records))
	}
	if store.records[0].MainTopic != "Go Programming" {
		t.Errorf("MainTopic = %q, want the successful result", store.records[0].MainTopic)
	}
}

func TestClassify_InvalidStructureNotRetried(t *testing.T) {
	store := &fakeStore{}
	invalid := &models.AnalysisError{Kind: models.AnalysisInvalidStructure, RawContent: `{"crisp_description": "x"}`}
	analyzer := &fakeAnalyzer{errs: []error{invalid, invalid, invalid}}
	tracker, _ := newTestTracker(
		&fakeCapturer{paths: []string{"/tmp/shots/final.png"}, errs: []error{nil}},
		&fakeWindows{title: "App"},
		analyzer, store, nil,
	)

	tracker.RunIteration(context.Background())

	if analyzer.calls != 1 {
		t.Errorf("analyze attempts = %d, want 1 (missing keys is not retryable)", analyzer.calls)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected exactly 1 failure record, got %d", len(store.records))
	}
	rec := store.records[0]
	if rec.MainTopic != models.TopicError {
		t.Errorf("MainTopic = %q, want %q", rec.MainTopic, models.TopicError)
	}
	if rec.ShortDescription != `{"crisp_description": "x"}` {
		t.Errorf("ShortDescription = %q, want the raw content", rec.ShortDescription)
	}
	if rec.ScreenshotFile != "final.png" {
		t.Errorf("ScreenshotFile = %q, want the captured file", rec.ScreenshotFile)
	}
}

func TestClassify_AtMostOneRecordPerIteration(t *testing.T) {
	store := &fakeStore{}
	malformed := &models.AnalysisError{Kind: models.AnalysisMalformedJSON, RawContent: "not json"}
	analyzer := &fakeAnalyzer{errs: []error{malformed, malformed}}
	tracker, _ := newTestTracker(
		&fakeCapturer{paths: []string{"/tmp/s.png"}, errs: []error{nil}},
		&fakeWindows{title: "App"},
		analyzer, store, nil,
	)
	tracker.cfg.MaxRetries = 2

	tracker.RunIteration(context.Background())

	if len(store.records) != 1 {
		t.Errorf("expected exactly 1 record for the iteration, got %d", len(store.records))
	}
}

// --- Loop supervision ---

func TestRun_StopsOnContextCancel(t *testing.T) {
	store := &fakeStore{}
	tracker, _ := newTestTracker(
		&fakeCapturer{paths: []string{"/tmp/s.png"}, errs: []error{nil}},
		&fakeWindows{title: "App"},
		&fakeAnalyzer{results: []*models.Classification{goodResult()}, errs: []error{nil}},
		store, nil,
	)
	ctx, cancel := context.WithCancel(context.Background())
	iterations := 0
	tracker.sleep = func(ctx context.Context, _ time.Duration) bool {
		iterations++
		if iterations >= 2 {
			cancel()
		}
		return ctx.Err() == nil
	}

	err := tracker.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}

type panickingWindows struct{}

func (panickingWindows) ActiveWindowTitle() (string, error) { panic("boom") }

func TestRun_RecoversFromPanic(t *testing.T) {
	store := &fakeStore{}
	events := &fakeEvents{}
	tracker, _ := newTestTracker(
		&fakeCapturer{},
		panickingWindows{},
		&fakeAnalyzer{},
		store, events,
	)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	tracker.sleep = func(ctx context.Context, _ time.Duration) bool {
		calls++
		if calls >= 3 {
			cancel()
		}
		return ctx.Err() == nil
	}

	// Must not panic out of Run.
	_ = tracker.Run(ctx)

	recovered := false
	for _, typ := range events.types {
		if typ == "iteration.recovered" {
			recovered = true
		}
	}
	if !recovered {
		t.Error("expected an iteration.recovered event")
	}
}

// End-to-end decision table scenario: capture succeeds first try,
// classification always returns malformed JSON, two retries allowed.
func TestEndToEnd_MalformedJSONScenario(t *testing.T) {
	store := &fakeStore{}
	malformed := &models.AnalysisError{Kind: models.AnalysisMalformedJSON, RawContent: "not json"}
	analyzer := &fakeAnalyzer{errs: []error{malformed, malformed}}
	tracker, _ := newTestTracker(
		&fakeCapturer{paths: []string{"/tmp/s.png"}, errs: []error{nil}},
		&fakeWindows{title: "App"},
		analyzer, store, nil,
	)
	tracker.cfg.MaxRetries = 2
	tracker.cfg.TrackingInterval = time.Second

	tracker.RunIteration(context.Background())

	if analyzer.calls != 2 {
		t.Errorf("analyze attempts = %d, want 2", analyzer.calls)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected 1 failure record, got %d", len(store.records))
	}
	if store.records[0].CrispDescription != models.DescAnalysisError {
		t.Errorf("CrispDescription = %q, want %q", store.records[0].CrispDescription, models.DescAnalysisError)
	}
}
