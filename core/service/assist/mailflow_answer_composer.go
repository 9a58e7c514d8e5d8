package assist

import (
	"fmt"
	"html"
	"strings"
	"time"

	"mailflow_server/core/domain"
)

// listPreviewLimit caps how many emails the local answer lists inline.
const listPreviewLimit = 10

// noResultsAnswer is the fixed reply when nothing matched.
const noResultsAnswer = `<strong>No emails found.</strong><p>Try:</p><ul><li>"Find LinkedIn emails"</li><li>"Show finance emails"</li><li>"Summarize urgent emails"</li><li>"How many unread emails"</li></ul>`

// ComposeLocalAnswer builds a deterministic HTML answer without any
// model call. Count questions are answered from the full snapshot,
// other questions list the relevant subset. The output uses only the
// <strong>, <ul>, <li>, <em> and <p> tags.
func ComposeLocalAnswer(query string, emails, relevant []*domain.Email, now time.Time) string {
	q := strings.ToLower(query)

	if strings.Contains(q, "how many") || strings.Contains(q, "count") {
		return composeCountAnswer(q, emails, now)
	}

	if len(relevant) > 0 {
		return composeListAnswer(relevant)
	}

	return noResultsAnswer
}

// composeCountAnswer resolves a count question against the snapshot.
// The subject of the count is picked in fixed order: mentioned
// category, unread, today, then the whole inbox.
func composeCountAnswer(q string, emails []*domain.Email, now time.Time) string {
	if cat, ok := mentionedCategory(q); ok {
		count := 0
		for _, e := range emails {
			if e.HasCategory(cat) {
				count++
			}
		}
		return fmt.Sprintf("You have <strong>%d</strong> %s emails.", count, cat)
	}

	if strings.Contains(q, "unread") {
		count := 0
		for _, e := range emails {
			if e.Unread {
				count++
			}
		}
		return fmt.Sprintf("You have <strong>%d</strong> unread emails.", count)
	}

	if strings.Contains(q, "today") {
		count := 0
		for _, e := range emails {
			if e.ReceivedOn(now) {
				count++
			}
		}
		return fmt.Sprintf("You received <strong>%d</strong> emails today.", count)
	}

	return fmt.Sprintf("You have <strong>%d</strong> total emails in your inbox.", len(emails))
}

func composeListAnswer(relevant []*domain.Email) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<strong>Found %d matching emails:</strong><ul>", len(relevant))

	shown := relevant
	if len(shown) > listPreviewLimit {
		shown = shown[:listPreviewLimit]
	}
	for _, e := range shown {
		fmt.Fprintf(&sb, "<li><strong>%s</strong>: %s</li>",
			html.EscapeString(e.From), html.EscapeString(e.Subject))
	}
	sb.WriteString("</ul>")

	if rest := len(relevant) - listPreviewLimit; rest > 0 {
		fmt.Fprintf(&sb, "<p><em>...and %d more below.</em></p>", rest)
	}
	return sb.String()
}

// searchPreviewLimit caps the plain-search summary list, which is
// shorter than the assistant one.
const searchPreviewLimit = 5

// ComposeSearchSummary builds the HTML block shown next to plain
// substring search results.
func ComposeSearchSummary(query string, results []*domain.Email) string {
	if len(results) == 0 {
		return fmt.Sprintf(`<strong>No emails found matching "%s"</strong><p>Try a different search term or ask me a question like "show my finance emails"</p>`,
			html.EscapeString(query))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<strong>Found %d emails matching "%s":</strong><ul>`, len(results), html.EscapeString(query))

	shown := results
	if len(shown) > searchPreviewLimit {
		shown = shown[:searchPreviewLimit]
	}
	for _, e := range shown {
		fmt.Fprintf(&sb, "<li><strong>%s</strong>: %s</li>",
			html.EscapeString(e.From), html.EscapeString(e.Subject))
	}
	sb.WriteString("</ul>")

	if rest := len(results) - searchPreviewLimit; rest > 0 {
		fmt.Fprintf(&sb, "<p>...and %d more</p>", rest)
	}
	return sb.String()
}
