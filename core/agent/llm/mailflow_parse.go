package llm

import (
	"fmt"
	"strings"

	"mailflow_server/core/domain"

	"github.com/goccy/go-json"
)

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractJSONArray finds the outermost JSON array in free-form model
// output. Models routinely wrap the payload in prose, so the slice from
// the first '[' through the last ']' is taken.
func ExtractJSONArray(s string) (string, bool) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// ParseCategoryMatrix parses a categorization reply into one category
// list per email. Unknown labels are dropped; a row left empty after
// filtering stays empty so the caller can keep that email's existing
// tags. A row count different from n is allowed, the caller applies
// rows per index.
func ParseCategoryMatrix(resp string) ([][]domain.Category, error) {
	payload, ok := ExtractJSONArray(StripCodeFence(resp))
	if !ok {
		return nil, fmt.Errorf("no JSON array in categorization reply")
	}

	var raw [][]string
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("parse categorization reply: %w", err)
	}

	matrix := make([][]domain.Category, len(raw))
	for i, row := range raw {
		cats := make([]domain.Category, 0, len(row))
		for _, label := range row {
			if c, ok := domain.ParseCategory(strings.ToLower(strings.TrimSpace(label))); ok {
				cats = append(cats, c)
			}
		}
		matrix[i] = cats
	}
	return matrix, nil
}
