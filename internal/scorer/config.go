package scorer

// Config holds the scoring thresholds.
//
// The values have no deeper rationale than "they worked for the original
// tool", which is exactly why they live in a config struct instead of being
// scattered through the rule code: they can be tuned in one place without
// touching the rules themselves.
type Config struct {
	// MaxLineLength is the character count above which a line is flagged long.
	MaxLineLength int
	// DenseLineLength is the minimum length for the missing-comment check.
	DenseLineLength int
	// DenseWordCount is the word count above which an uncommented line is
	// flagged as complex.
	DenseWordCount int
	// PenaltyPerIssue is subtracted from 100 for each issue found.
	PenaltyPerIssue int
	// MaxStoredIssues caps how many issues a report carries. The score still
	// counts every issue; only the stored list is truncated.
	MaxStoredIssues int
	// UnsafeOperators are substrings flagged as risky null handling.
	UnsafeOperators []string
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MaxLineLength:   100,
		DenseLineLength: 50,
		DenseWordCount:  8,
		PenaltyPerIssue: 5,
		MaxStoredIssues: 10,
		// "??" is null-coalescing (C#, Dart, Swift), "!!" is Kotlin's
		// force-unwrap. Both paper over a null instead of handling it.
		UnsafeOperators: []string{"??", "!!"},
	}
}
