// Package llm builds prompts for the text generation providers and
// parses their replies.
package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"mailflow_server/core/domain"

	"github.com/goccy/go-json"
)

const (
	categorizeSnippetLimit = 200
	answerSnippetLimit     = 150
)

// BuildCategorizePrompt builds the batch categorization prompt.
// The model must answer with a JSON matrix holding one category list
// per email, in input order.
func BuildCategorizePrompt(emails []*domain.Email) string {
	var sb strings.Builder
	sb.WriteString("Categorize these emails into one or more categories: urgent, important, work, personal, promotions, social, updates, finance, newsletters, spam.\n\n")
	sb.WriteString("Return a JSON array with categories for each email in order.\n\n")
	sb.WriteString("Emails:\n")
	for i, e := range emails {
		sb.WriteString(fmt.Sprintf("%d. From: %s, Subject: %s, Preview: %s\n",
			i+1, e.From, e.Subject, truncate(e.Snippet, categorizeSnippetLimit)))
	}
	sb.WriteString("\nResponse format: [[\"category1\", \"category2\"], [\"category1\"], ...]")
	return sb.String()
}

// answerContext is the per-email JSON context embedded in the answer prompt.
type answerContext struct {
	From       string            `json:"from"`
	Subject    string            `json:"subject"`
	Snippet    string            `json:"snippet"`
	Date       string            `json:"date"`
	Categories []domain.Category `json:"categories"`
	Unread     bool              `json:"unread"`
}

// BuildAnswerPrompt builds the assistant prompt for a natural language
// question. At most contextLimit relevant emails are embedded as JSON.
func BuildAnswerPrompt(query string, relevant []*domain.Email, contextLimit int) (string, error) {
	if contextLimit <= 0 || contextLimit > len(relevant) {
		contextLimit = len(relevant)
	}

	ctx := make([]answerContext, 0, contextLimit)
	for _, e := range relevant[:contextLimit] {
		ctx = append(ctx, answerContext{
			From:       e.From,
			Subject:    e.Subject,
			Snippet:    truncate(e.Snippet, answerSnippetLimit),
			Date:       e.Date.Local().Format("1/2/2006"),
			Categories: e.Categories,
			Unread:     e.Unread,
		})
	}

	ctxJSON, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal answer context: %w", err)
	}

	prompt := fmt.Sprintf(`You are an AI email assistant. Answer the user's question based on their emails.

Found %d relevant emails:
%s

User's question: %s

Instructions:
- Be concise and direct
- If asking for a summary, list the key emails with sender and subject
- If asking about counts, provide the exact number
- Format using HTML: <strong> for emphasis, <ul><li> for lists
- Start with a count like "Found X emails from [sender/category]"
- If no relevant emails found, say so clearly`, len(relevant), string(ctxJSON), query)

	return prompt, nil
}

// truncate caps s at max bytes, backing up so a multi-byte rune is
// never cut in half.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
