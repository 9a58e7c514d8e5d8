// Package categorize assigns categories to mailbox emails, first by
// keyword matching and then optionally refined through a text
// generation provider.
package categorize

import (
	"fmt"
	"strings"

	"mailflow_server/core/domain"

	"github.com/goccy/go-json"
)

// KeywordCategorizer tags emails by case-insensitive substring matching
// against a per-category phrase table.
type KeywordCategorizer struct {
	table domain.KeywordTable
}

// NewKeywordCategorizer creates a categorizer. A nil table selects the
// built-in phrase table.
func NewKeywordCategorizer(table domain.KeywordTable) *KeywordCategorizer {
	if table == nil {
		table = domain.DefaultKeywordTable()
	}
	return &KeywordCategorizer{table: table}
}

// Categorize returns every category whose phrase list matches the
// email. Matching runs over the lowercased subject, snippet and sender
// name. The result is never empty, an email with no match gets the
// default category.
func (kc *KeywordCategorizer) Categorize(e *domain.Email) []domain.Category {
	text := strings.ToLower(e.Subject + " " + e.Snippet + " " + e.From)

	var cats []domain.Category
	for _, cat := range domain.AllCategories {
		for _, phrase := range kc.table[cat] {
			if strings.Contains(text, strings.ToLower(phrase)) {
				cats = append(cats, cat)
				break
			}
		}
	}

	if len(cats) == 0 {
		cats = []domain.Category{domain.DefaultCategory}
	}
	return cats
}

// TableFromJSON parses a keyword table override from configuration.
// Unknown category keys are rejected so typos do not silently drop a
// whole phrase list.
func TableFromJSON(raw string) (domain.KeywordTable, error) {
	var decoded map[string][]string
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("parse keyword table: %w", err)
	}

	table := make(domain.KeywordTable, len(decoded))
	for key, phrases := range decoded {
		cat, ok := domain.ParseCategory(key)
		if !ok {
			return nil, fmt.Errorf("unknown category in keyword table: %q", key)
		}
		table[cat] = phrases
	}
	return table, nil
}
