package reconcile

import (
	"fmt"
	"strings"

	"github.com/sevigo/review-keeper/internal/core"
)

var severityBadge = map[core.Severity]string{
	core.SeverityError: "🔴 error",
	core.SeverityWarn:  "🟡 warning",
	core.SeverityInfo:  "🔵 info",
}

// renderIssue produces the markdown body of a thread's opening comment.
func renderIssue(issue core.Issue) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**%s**\n\n", issue.Title)
	fmt.Fprintf(&b, "`%s` · `%s`", severityBadge[issue.Severity], issue.Category)
	if issue.FilePath != "" {
		if issue.Line > 0 {
			fmt.Fprintf(&b, " · `%s:%d`", issue.FilePath, issue.Line)
		} else {
			fmt.Fprintf(&b, " · `%s`", issue.FilePath)
		}
	}
	b.WriteString("\n\n")

	if issue.Rationale != "" {
		fmt.Fprintf(&b, "%s\n\n", issue.Rationale)
	}
	if issue.Recommendation != "" {
		fmt.Fprintf(&b, "**Recommendation:** %s\n", issue.Recommendation)
	}
	if issue.FixExample != "" {
		fmt.Fprintf(&b, "\n```suggestion\n%s\n```\n", strings.TrimRight(issue.FixExample, "\n"))
	}

	return strings.TrimRight(b.String(), "\n")
}

// renderRetrigger produces the comment appended when a known issue is seen
// again on a later iteration.
func renderRetrigger(issue core.Issue, iteration int) string {
	return fmt.Sprintf("🔁 Re-triggered at iteration %d: **%s** is still present.", iteration, issue.Title)
}
