package domain

import (
	"strings"
	"time"
)

// Confidence is the extraction call's coarse self-reported quality signal.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is one of the known confidence values.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// CandidateItem is a proposed task produced by extraction. It is never
// persisted as-is; approved candidates are turned into tasks by ingestion.
type CandidateItem struct {
	Title       string     `json:"title"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Validate checks the fields a caller may have edited before approval.
// An empty priority is allowed; ingestion defaults it to medium.
func (c CandidateItem) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return NewValidationError("candidate title must not be empty")
	}
	if c.Priority != "" && !c.Priority.Valid() {
		return NewValidationError("unknown candidate priority %q", c.Priority)
	}
	return nil
}

// ExtractionResult is the validated outcome of one extraction call. An empty
// Items slice is a valid result meaning no actionable tasks were found.
type ExtractionResult struct {
	Items      []CandidateItem `json:"items"`
	Confidence Confidence      `json:"confidence"`
}
