// Package scorer runs fixed line-based heuristics over a source file and
// produces a scored report.
//
// The scorer is deliberately dumb: no parsing, no AST, no language detection;
// just substring and length checks per line. That makes it fast, deterministic
// and language-agnostic, at the cost of false positives (a long string literal
// counts as a long line). It performs no I/O; the same input text always
// yields the same report.
package scorer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sakif/codelens/internal/model"
)

// rule categories, used to derive recommendations from what actually fired.
const (
	catLongLine = iota
	catUnsafeOp
	catDenseLine
	catCount
)

// Scorer applies the heuristic rules with a fixed Config.
type Scorer struct {
	cfg Config
}

// New creates a Scorer. Pass DefaultConfig() unless a caller has a reason
// to tune thresholds.
func New(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score analyses content and returns a report.
//
// Lines are the terminator-delimited segments of the text: "a\nb\n" is three
// lines ("a", "b", ""), matching what strings.Split produces. Line numbers
// are 1-based.
//
// The report's ID, UserID and AnalyzedAt are left zero; the caller owns
// identity and time; keeping them out of the scorer keeps Score pure.
func (s *Scorer) Score(content, fileName, sourceURL string) model.Report {
	lines := strings.Split(content, "\n")

	var (
		issues []model.Issue
		total  int
		fired  [catCount]bool
	)

	emit := func(cat int, iss model.Issue) {
		total++
		fired[cat] = true
		if len(issues) < s.cfg.MaxStoredIssues {
			issues = append(issues, iss)
		}
	}

	for i, line := range lines {
		num := i + 1

		// Lengths are measured in characters, not bytes; a line of
		// multibyte text is no longer than its ASCII transliteration.
		if n := utf8.RuneCountInString(line); n > s.cfg.MaxLineLength {
			emit(catLongLine, model.Issue{
				Line:       num,
				Severity:   model.SeverityLow,
				Message:    fmt.Sprintf("line too long (%d chars)", n),
				Suggestion: fmt.Sprintf("split this line to stay under %d characters", s.cfg.MaxLineLength),
			})
		}

		if op := s.firstUnsafeOperator(line); op != "" {
			emit(catUnsafeOp, model.Issue{
				Line:       num,
				Severity:   model.SeverityMedium,
				Message:    fmt.Sprintf("unsafe null handling with %q", op),
				Suggestion: "handle the null case explicitly instead of suppressing it",
			})
		}

		if s.isDenseUncommented(line) {
			emit(catDenseLine, model.Issue{
				Line:       num,
				Severity:   model.SeverityLow,
				Message:    "complex logic without comments",
				Suggestion: "add a comment explaining what this line does",
			})
		}
	}

	return model.Report{
		FileName:        fileName,
		SourceURL:       sourceURL,
		OverallScore:    s.overallScore(total),
		Issues:          issues,
		Recommendations: s.recommendations(fired, total),
		SourceText:      content,
	}
}

// firstUnsafeOperator returns the first configured operator found in line,
// or "" if none match. One finding per line, even if several operators occur.
func (s *Scorer) firstUnsafeOperator(line string) string {
	for _, op := range s.cfg.UnsafeOperators {
		if strings.Contains(line, op) {
			return op
		}
	}
	return ""
}

// isDenseUncommented reports whether a line is long and word-heavy but has no
// comment marker at all, a heuristic for "doing a lot without saying why".
func (s *Scorer) isDenseUncommented(line string) bool {
	trimmed := strings.TrimSpace(line)
	if strings.Contains(trimmed, "//") || strings.Contains(trimmed, "/*") {
		return false
	}
	if utf8.RuneCountInString(trimmed) <= s.cfg.DenseLineLength {
		return false
	}
	return len(strings.Fields(trimmed)) > s.cfg.DenseWordCount
}

// overallScore maps the total issue count (before truncation) to 0-100.
// Every issue costs PenaltyPerIssue points, clamped at zero.
func (s *Scorer) overallScore(total int) int {
	score := 100 - s.cfg.PenaltyPerIssue*total
	if score < 0 {
		return 0
	}
	return score
}

// recommendations builds the advice list from which rule categories fired.
// The order is fixed (category order, then the closing line) so identical
// input always produces an identical list. Capped at 5 entries.
func (s *Scorer) recommendations(fired [catCount]bool, total int) []string {
	if total == 0 {
		return []string{"No issues found. Keep functions small and names descriptive."}
	}

	recs := make([]string, 0, 5)
	if fired[catLongLine] {
		recs = append(recs, fmt.Sprintf("Keep lines under %d characters; long lines are hard to review side by side.", s.cfg.MaxLineLength))
	}
	if fired[catUnsafeOp] {
		recs = append(recs, "Replace force-unwraps and bare null-coalescing with explicit null checks.")
	}
	if fired[catDenseLine] {
		recs = append(recs, "Add a short comment above dense lines explaining the intent, not the mechanics.")
	}
	recs = append(recs, "Fix the highest-severity issues first.")
	recs = append(recs, "Re-run the analysis after refactoring to track the score.")

	if len(recs) > 5 {
		recs = recs[:5]
	}
	return recs
}
