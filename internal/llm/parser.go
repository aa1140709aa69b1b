package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/review-keeper/internal/core"
)

// parseIssueResponse extracts raw issue candidates from the model's output.
// It tolerates several common LLM quirks:
//   - response wrapped in ```json ... ``` fences
//   - prose before or after the JSON array
//   - a single object instead of an array
//
// Candidates without a title cannot be identified or rendered and are
// dropped with a logged reason; all other malformed fields are left for the
// planner's severity/category defaulting.
func parseIssueResponse(response string, logger *slog.Logger) ([]core.RawIssue, error) {
	payload := extractJSONArray(stripCodeFence(response))
	if payload == "" {
		return nil, fmt.Errorf("no JSON payload found in model response")
	}

	var raw []core.RawIssue
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		// Some models return a bare object for a single finding.
		var single core.RawIssue
		if err2 := json.Unmarshal([]byte(payload), &single); err2 != nil {
			return nil, fmt.Errorf("failed to decode model response: %w", err)
		}
		raw = []core.RawIssue{single}
	}

	issues := make([]core.RawIssue, 0, len(raw))
	for _, candidate := range raw {
		if strings.TrimSpace(candidate.Title) == "" {
			logger.Warn("dropping issue candidate without a title", "id", candidate.ID, "file", candidate.File)
			continue
		}
		issues = append(issues, candidate)
	}
	return issues, nil
}

// stripCodeFence removes ```json ... ``` (or plain ```) wrapping that some
// models add around their output.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}

	idx := strings.Index(trimmed, "\n")
	if idx < 0 {
		return s
	}
	inner := trimmed[idx+1:]
	if lastFence := strings.LastIndex(inner, "```"); lastFence >= 0 {
		inner = inner[:lastFence]
	}
	return strings.TrimSpace(inner)
}

// extractJSONArray returns the outermost JSON array (or object) embedded in
// s, ignoring any surrounding prose.
func extractJSONArray(s string) string {
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return ""
	}

	open := s[start]
	var close byte = ']'
	if open == '{' {
		close = '}'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
