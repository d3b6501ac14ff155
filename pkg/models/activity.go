// Package models contains the shared data types for the AI Task Tracker:
// activity records, classification results, and configuration.
package models

import "time"

// Sentinel values substituted when real data is unavailable.
const (
	// AppUnknown is recorded when the active window title cannot be determined.
	AppUnknown = "Unknown"

	// AppNoActiveWindow is recorded when the lookup succeeds but no window
	// has focus (e.g. the tracker runs on a locked desktop).
	AppNoActiveWindow = "No active window found"

	// TopicError marks a record written because classification failed.
	TopicError = "Error"

	// DescAnalysisFailed is the CrispDescription of a record written after
	// the classification call itself failed on every retry.
	DescAnalysisFailed = "Analysis Failed"

	// DescAnalysisError is the CrispDescription of a record written after
	// the model returned a response that could not be used.
	DescAnalysisError = "Analysis Error"

	// TopicUnknown is returned by the normalizer for degenerate input.
	TopicUnknown = "Unknown"
)

// ActivityRecord is one row of the activity log. Records are append-only:
// once written they are never mutated or deleted by the tracker.
type ActivityRecord struct {
	// Timestamp is taken from the local clock at the start of the
	// iteration that produced this record.
	Timestamp time.Time

	// AppName is the active window title at capture time, or a sentinel.
	AppName string

	CrispDescription string
	MainTopic        string
	ShortDescription string

	// ScreenshotFile is the filename (no directory) of the saved image,
	// or empty if no screenshot was persisted for this record.
	ScreenshotFile string
}

// IsFailure reports whether the record documents a failed classification
// rather than a normal observation.
func (r ActivityRecord) IsFailure() bool {
	return r.MainTopic == TopicError
}

// Classification is the structured result of analyzing one screenshot.
type Classification struct {
	CrispDescription string `json:"crisp_description"`
	MainTopic        string `json:"main_topic"`
	ShortDescription string `json:"short_description"`
}
