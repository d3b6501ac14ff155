package core

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ASH1998/AI-Task-Tracker/internal/logging"
	"github.com/ASH1998/AI-Task-Tracker/internal/observability"
	"github.com/ASH1998/AI-Task-Tracker/pkg/models"
)

// recoveryDelay is the back-off after an iteration escapes with a panic.
const recoveryDelay = 60 * time.Second

// ScreenCapturer captures the screen and returns the saved image path.
type ScreenCapturer interface {
	Capture() (string, error)
}

// WindowTitler reports the currently focused window's title.
type WindowTitler interface {
	ActiveWindowTitle() (string, error)
}

// ScreenshotAnalyzer classifies one screenshot. A *models.AnalysisError
// marks a structurally unusable response; any other error is a hard
// transport/API failure.
type ScreenshotAnalyzer interface {
	Analyze(ctx context.Context, imagePath string) (*models.Classification, error)
}

// ActivitySaver is the write side of the activity store.
type ActivitySaver interface {
	Append(record models.ActivityRecord) error
}

// EventLogger receives structured tracker lifecycle events. Implementations
// must tolerate being called from a single goroutine only.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// Tracker drives the capture -> classify -> persist loop with bounded
// retries per phase. It is strictly sequential: one phase finishes before
// the next starts, one iteration before the next.
type Tracker struct {
	cfg      models.TrackerConfig
	capturer ScreenCapturer
	windows  WindowTitler
	analyzer ScreenshotAnalyzer
	store    ActivitySaver
	events   EventLogger

	logger zerolog.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) bool
}

// NewTracker wires a Tracker from its collaborators. events may be nil.
func NewTracker(cfg models.TrackerConfig, capturer ScreenCapturer, windows WindowTitler, analyzer ScreenshotAnalyzer, store ActivitySaver, events EventLogger) *Tracker {
	return &Tracker{
		cfg:      cfg,
		capturer: capturer,
		windows:  windows,
		analyzer: analyzer,
		store:    store,
		events:   events,
		logger:   logging.Component("tracker"),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Run executes iterations until ctx is cancelled, pausing TrackingInterval
// between them. An iteration that panics is logged as critical and followed
// by a fixed recovery pause; the loop itself never exits on failure.
func (t *Tracker) Run(ctx context.Context) error {
	t.logger.Info().
		Dur("interval", t.cfg.TrackingInterval).
		Int("max_retries", t.cfg.MaxRetries).
		Msg("starting tracker")

	for {
		t.iterate(ctx)
		if !t.sleep(ctx, t.cfg.TrackingInterval) {
			t.logger.Info().Msg("tracker stopped")
			return ctx.Err()
		}
	}
}

// iterate runs one iteration with panic containment.
func (t *Tracker) iterate(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error().Interface("panic", r).Msg("iteration panicked, recovering")
			t.logEvent(observability.EventIterationRecovered, map[string]any{"panic": r})
			t.sleep(ctx, recoveryDelay)
		}
	}()
	t.RunIteration(ctx)
}

// RunIteration performs a single capture -> classify -> persist cycle.
// Capture failure aborts the iteration with no record; classification
// failure writes exactly one failure record.
func (t *Tracker) RunIteration(ctx context.Context) {
	timestamp := t.now()
	t.logEvent(observability.EventIterationStarted, nil)

	activeWindow := models.AppUnknown
	if title, err := t.windows.ActiveWindowTitle(); err != nil {
		// Never fatal: record the sentinel and continue.
		t.logger.Error().Err(err).Msg("failed to get active window")
	} else {
		activeWindow = title
		t.logger.Info().Str("window", title).Msg("active window")
	}

	screenshotPath, ok := t.capturePhase(ctx)
	if !ok {
		t.logger.Error().Msg("failed to take screenshot after multiple attempts, skipping iteration")
		return
	}

	outcome := t.classifyPhase(ctx, timestamp, activeWindow, screenshotPath)
	if outcome.status != classifySucceeded {
		return
	}

	record := models.ActivityRecord{
		Timestamp:        timestamp,
		AppName:          activeWindow,
		CrispDescription: outcome.result.CrispDescription,
		MainTopic:        outcome.result.MainTopic,
		ShortDescription: outcome.result.ShortDescription,
		ScreenshotFile:   filepath.Base(screenshotPath),
	}
	if err := t.store.Append(record); err != nil {
		t.logger.Error().Err(err).Msg("failed to save activity record")
		return
	}
	t.logger.Info().Str("topic", record.MainTopic).Msg("activity record saved")
	t.logEvent(observability.EventRecordSaved, map[string]any{"topic": record.MainTopic})
}

// capturePhase attempts the screen grab up to MaxRetries times. It returns
// the saved path, or ok=false when every attempt failed, in which case the
// iteration writes no record at all.
func (t *Tracker) capturePhase(ctx context.Context) (string, bool) {
	for attempt := 1; attempt <= t.cfg.MaxRetries; attempt++ {
		path, err := t.capturer.Capture()
		if err == nil && path != "" {
			t.logger.Info().Str("path", path).Msg("screenshot captured")
			t.logEvent(observability.EventCaptureSucceeded, map[string]any{"path": path})
			return path, true
		}
		t.logger.Warn().Err(err).Int("attempt", attempt).Msg("screenshot attempt failed")
		if attempt < t.cfg.MaxRetries {
			if !t.sleep(ctx, t.cfg.RetryDelay) {
				return "", false
			}
		}
	}
	t.logEvent(observability.EventCaptureFailed, map[string]any{"attempts": t.cfg.MaxRetries})
	return "", false
}

type classifyStatus int

const (
	classifySucceeded classifyStatus = iota
	classifyFailureRecorded
	classifyAborted
)

type classifyOutcome struct {
	status classifyStatus
	result *models.Classification
}

// classifyPhase attempts classification up to MaxRetries times and applies
// the retry decision table: hard failures and malformed JSON are retried
// while attempts remain; a structurally invalid response is not. When
// retries run out (or the error is non-retryable) exactly one failure
// record is written and the phase ends.
func (t *Tracker) classifyPhase(ctx context.Context, timestamp time.Time, activeWindow, screenshotPath string) classifyOutcome {
	for attempt := 1; attempt <= t.cfg.MaxRetries; attempt++ {
		result, err := t.analyzer.Analyze(ctx, screenshotPath)
		if err == nil {
			t.logger.Info().Msg("analysis successful")
			return classifyOutcome{status: classifySucceeded, result: result}
		}

		var analysisErr *models.AnalysisError
		if errors.As(err, &analysisErr) {
			t.logger.Warn().
				Str("kind", string(analysisErr.Kind)).
				Int("attempt", attempt).
				Msg("analysis returned an unusable response")

			if analysisErr.Kind == models.AnalysisMalformedJSON && attempt < t.cfg.MaxRetries {
				t.logEvent(observability.EventAnalysisRetried, map[string]any{"attempt": attempt, "kind": string(analysisErr.Kind)})
				if !t.sleep(ctx, t.cfg.RetryDelay) {
					return classifyOutcome{status: classifyAborted}
				}
				continue
			}

			detail := analysisErr.RawContent
			if detail == "" {
				detail = analysisErr.Error()
			}
			t.saveFailureRecord(timestamp, activeWindow, models.DescAnalysisError, detail, screenshotPath)
			return classifyOutcome{status: classifyFailureRecorded}
		}

		// Hard failure: transport, auth, rate limit.
		t.logger.Error().Err(err).Int("attempt", attempt).Msg("analysis call failed")
		if attempt < t.cfg.MaxRetries {
			t.logEvent(observability.EventAnalysisRetried, map[string]any{"attempt": attempt, "kind": "hard_failure"})
			if !t.sleep(ctx, t.cfg.RetryDelay) {
				return classifyOutcome{status: classifyAborted}
			}
			continue
		}
		t.saveFailureRecord(timestamp, activeWindow, models.DescAnalysisFailed, err.Error(), screenshotPath)
		return classifyOutcome{status: classifyFailureRecorded}
	}
	return classifyOutcome{status: classifyAborted}
}

// saveFailureRecord documents a failed classification as a row so persistent
// failures stay visible in the log instead of vanishing.
func (t *Tracker) saveFailureRecord(timestamp time.Time, activeWindow, crispDesc, detail, screenshotPath string) {
	record := models.ActivityRecord{
		Timestamp:        timestamp,
		AppName:          activeWindow,
		CrispDescription: crispDesc,
		MainTopic:        models.TopicError,
		ShortDescription: detail,
		ScreenshotFile:   filepath.Base(screenshotPath),
	}
	if err := t.store.Append(record); err != nil {
		t.logger.Error().Err(err).Msg("failed to save failure record")
		return
	}
	t.logEvent(observability.EventFailureRecordSaved, map[string]any{"reason": crispDesc})
}

func (t *Tracker) logEvent(eventType string, data map[string]any) {
	if t.events == nil {
		return
	}
	if err := t.events.LogEvent(eventType, data); err != nil {
		t.logger.Warn().Err(err).Str("event", eventType).Msg("failed to write event")
	}
}

// sleepContext pauses for d, returning false if ctx was cancelled first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
