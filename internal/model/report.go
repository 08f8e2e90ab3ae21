package model

import "time"

// Severity classifies how serious an issue is.
//
// The scorer currently only emits "low" and "medium", but the full scale is
// part of the report format so stored reports stay forward-compatible if
// harsher rules are added.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Issue is a single finding on one line of the analysed file.
type Issue struct {
	Line       int      `json:"line"` // 1-based
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Report is the result of running the heuristic scorer over one file.
//
// Reports are immutable once saved. Issues holds at most the first 10
// findings in line order, but OverallScore reflects every finding; the
// score is computed before the list is truncated, so a file with 30
// problems scores 0 even though only 10 issues are stored.
type Report struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	FileName        string    `json:"fileName"`
	SourceURL       string    `json:"sourceUrl"`
	OverallScore    int       `json:"overallScore"` // 0-100
	Issues          []Issue   `json:"issues"`
	Recommendations []string  `json:"recommendations"`
	SourceText      string    `json:"sourceText,omitempty"`
	AnalyzedAt      time.Time `json:"analyzedAt"`
}
