// Package internal provides the App struct that wires all components of the
// task tracker together and initializes the CLI layer.
package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ASH1998/AI-Task-Tracker/internal/cli"
	"github.com/ASH1998/AI-Task-Tracker/internal/core"
	"github.com/ASH1998/AI-Task-Tracker/internal/integration"
	"github.com/ASH1998/AI-Task-Tracker/internal/logging"
	"github.com/ASH1998/AI-Task-Tracker/internal/observability"
	"github.com/ASH1998/AI-Task-Tracker/internal/storage"
	"github.com/ASH1998/AI-Task-Tracker/pkg/models"
)

// activityLogFile is the CSV file name inside the data directory.
const activityLogFile = "activity_log.csv"

// App holds all service dependencies for the task tracker.
type App struct {
	BasePath string
	Cfg      *models.Config

	// Storage layer
	Store storage.ActivityStore

	// Integration services
	Capturer integration.ScreenCapturer
	Windows  integration.WindowTitler
	Analyzer integration.ScreenshotAnalyzer
	Text     integration.TextCompleter

	// Core services
	Tracker    *core.Tracker
	Normalizer core.TopicNormalizer

	// Observability
	EventLog observability.EventLog
	Metrics  observability.ActivityMetrics

	logCloser io.Closer
}

// NewApp creates and wires all components of the task tracker. basePath is
// the root directory where all data is stored (typically ~/.tasktracker or
// the current directory containing .trackerconfig).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	cfg, err := core.LoadConfig(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	app.Cfg = cfg

	// --- Logging ---
	closer, err := logging.Setup(cfg.LogDir())
	if err == nil {
		app.logCloser = closer
	}
	logger := logging.Component("app")

	// --- Storage layer ---
	app.Store = storage.NewActivityStore(filepath.Join(cfg.DataDir(), activityLogFile))

	// --- Integration services ---
	app.Capturer = integration.NewScreenCapturer(cfg.ScreenshotDir())
	app.Windows = integration.NewWindowTitler()

	// LLM-backed services are optional: the dashboard, report, and MCP
	// commands work on the existing log without credentials.
	app.Analyzer, err = integration.NewScreenshotAnalyzer(cfg.LLM)
	if err != nil {
		logger.Warn().Err(err).Msg("vision analyzer unavailable; tracking disabled")
		app.Analyzer = nil
	}
	app.Text, err = integration.NewTextCompleter(cfg.LLM)
	if err != nil {
		app.Text = nil
	}

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".tracker_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable event logging if the file can't be created.
		logger.Warn().Err(err).Msg("event log unavailable")
		app.EventLog = nil
	}
	app.Metrics = observability.NewActivityMetrics(0)

	// --- Core services ---
	if app.Text != nil {
		normalizer, err := core.NewTopicNormalizer(app.Text)
		if err != nil {
			return nil, fmt.Errorf("creating topic normalizer: %w", err)
		}
		app.Normalizer = normalizer
	}

	if app.Analyzer != nil {
		var evtAdapter core.EventLogger
		if app.EventLog != nil {
			evtAdapter = &eventLogAdapter{log: app.EventLog}
		}
		app.Tracker = core.NewTracker(cfg.Tracker, app.Capturer, app.Windows, app.Analyzer, app.Store, evtAdapter)
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Cfg = cfg
	cli.Store = app.Store
	cli.Metrics = app.Metrics
	cli.Normalizer = app.Normalizer
	cli.Tracker = app.Tracker
	cli.EventLog = app.EventLog

	return app, nil
}

// Close releases resources held by the App, such as the event log and the
// tracker log file handle. It is safe to call Close on a partially
// initialized App.
func (a *App) Close() error {
	var firstErr error
	if a.EventLog != nil {
		firstErr = a.EventLog.Close()
	}
	if a.logCloser != nil {
		if err := a.logCloser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ResolveBasePath determines the base path for the tracker data directory.
// It checks the TRACKER_HOME env var, then walks up from the current
// directory looking for a .trackerconfig file.
func ResolveBasePath() string {
	if home := os.Getenv("TRACKER_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".trackerconfig")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	// Fall back to cwd.
	cwd, _ := os.Getwd()
	return cwd
}

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   "INFO",
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}
