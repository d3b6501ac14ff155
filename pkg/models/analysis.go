package models

import "fmt"

// AnalysisErrorKind distinguishes the ways a model response can be unusable.
type AnalysisErrorKind string

const (
	// AnalysisMalformedJSON means the response body was not valid JSON.
	// The tracking loop treats this as retryable.
	AnalysisMalformedJSON AnalysisErrorKind = "malformed_json"

	// AnalysisInvalidStructure means the JSON parsed but one of the three
	// required keys was missing. Not retryable.
	AnalysisInvalidStructure AnalysisErrorKind = "invalid_structure"
)

// AnalysisError is a structural failure of a classification response, as
// opposed to a transport or API failure (which surfaces as a plain error).
// RawContent carries the model's original text for the failure record.
type AnalysisError struct {
	Kind       AnalysisErrorKind
	RawContent string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis response %s", e.Kind)
}
