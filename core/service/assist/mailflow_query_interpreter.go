// Package assist answers natural language questions about the mailbox
// snapshot, locally or through a text generation provider.
package assist

import (
	"strings"
	"time"

	"mailflow_server/core/domain"
)

// stopWords are filler tokens stripped from queries before keyword
// matching, so "find emails from amazon" searches only for "amazon".
var stopWords = map[string]struct{}{
	"can": {}, "you": {}, "search": {}, "find": {}, "where": {}, "is": {},
	"my": {}, "the": {}, "a": {}, "an": {}, "for": {}, "from": {},
	"me": {}, "email": {}, "emails": {}, "mail": {}, "mails": {},
	"show": {}, "get": {}, "exactly": {}, "are": {}, "there": {},
	"any": {}, "all": {}, "give": {}, "list": {}, "summarize": {},
	"summary": {}, "what": {}, "how": {}, "many": {}, "tell": {}, "about": {},
}

// aiPatterns mark a free-text input as a question for the assistant
// rather than a plain search term.
var aiPatterns = []string{
	"how many", "summarize", "summary", "tell me", "show me",
	"find", "search for", "where is", "where are", "can you",
	"what are", "what is", "list", "get me", "give me",
	"do i have", "any emails", "tasks", "todo", "deadline",
	"meeting", "urgent", "important",
}

// IsAssistantQuery reports whether the input looks like a question for
// the assistant instead of a plain substring search.
func IsAssistantQuery(query string) bool {
	q := strings.ToLower(query)
	for _, p := range aiPatterns {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

// Interpreter resolves a natural language query to the subset of
// emails it refers to.
type Interpreter struct{}

// NewInterpreter creates a query interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// Relevant resolves the query against the snapshot through a fixed
// priority chain. Each step runs only when every earlier step produced
// nothing:
//
//  1. keyword search over subject, sender name, sender address and snippet
//  2. category filter when the query mentions a category name
//  3. unread / today / starred special filters
//  4. loosened keyword retry, terms of three or more characters only
//
// now anchors the "today" filter to a calendar date.
func (it *Interpreter) Relevant(query string, emails []*domain.Email, now time.Time) []*domain.Email {
	q := strings.ToLower(query)
	keywords := searchKeywords(q)

	var relevant []*domain.Email

	// Priority 1: keyword search
	if len(keywords) > 0 {
		for _, e := range emails {
			if matchesKeywords(e, keywords) {
				relevant = append(relevant, e)
			}
		}
	}

	// Priority 2: category mention
	if len(relevant) == 0 {
		if cat, ok := mentionedCategory(q); ok {
			for _, e := range emails {
				if e.HasCategory(cat) {
					relevant = append(relevant, e)
				}
			}
		}
	}

	// Priority 3: special filters
	if len(relevant) == 0 {
		switch {
		case strings.Contains(q, "unread"):
			for _, e := range emails {
				if e.Unread {
					relevant = append(relevant, e)
				}
			}
		case strings.Contains(q, "today"):
			for _, e := range emails {
				if e.ReceivedOn(now) {
					relevant = append(relevant, e)
				}
			}
		case strings.Contains(q, "starred"):
			for _, e := range emails {
				if e.Starred {
					relevant = append(relevant, e)
				}
			}
		}
	}

	// Loosened retry over the combined text, longer terms only.
	if len(relevant) == 0 && len(keywords) > 0 {
		for _, e := range emails {
			text := e.SearchText()
			for _, term := range keywords {
				if len(term) >= 3 && strings.Contains(text, term) {
					relevant = append(relevant, e)
					break
				}
			}
		}
	}

	return relevant
}

// mentionedCategory returns the first category whose name appears in
// the query, in canonical category order.
func mentionedCategory(q string) (domain.Category, bool) {
	for _, cat := range domain.AllCategories {
		if strings.Contains(q, string(cat)) {
			return cat, true
		}
	}
	return "", false
}

// searchKeywords tokenizes the lowercased query and drops stop words
// and single characters.
func searchKeywords(q string) []string {
	var keywords []string
	for _, word := range strings.Fields(q) {
		if len(word) <= 1 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}

func matchesKeywords(e *domain.Email, keywords []string) bool {
	subject := strings.ToLower(e.Subject)
	from := strings.ToLower(e.From)
	addr := strings.ToLower(e.FromEmail)
	snippet := strings.ToLower(e.Snippet)

	for _, term := range keywords {
		if strings.Contains(subject, term) ||
			strings.Contains(from, term) ||
			strings.Contains(addr, term) ||
			strings.Contains(snippet, term) {
			return true
		}
	}
	return false
}
