package domain

import (
	"net/mail"
	"strings"
	"time"
)

// Email is a single message in the mailbox snapshot.
type Email struct {
	ID         string     `json:"id"`
	ThreadID   string     `json:"thread_id"`
	From       string     `json:"from"`       // sender display name
	FromEmail  string     `json:"from_email"` // sender address
	Subject    string     `json:"subject"`
	Snippet    string     `json:"snippet"`
	Body       string     `json:"body"`
	Date       time.Time  `json:"date"`
	Unread     bool       `json:"unread"`
	Starred    bool       `json:"starred"`
	Labels     []string   `json:"labels,omitempty"`
	Categories []Category `json:"categories"`
}

// HasCategory reports whether the email carries the given category.
func (e *Email) HasCategory(c Category) bool {
	for _, cat := range e.Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// ReceivedOn reports whether the email arrived on the same local
// calendar date as day.
func (e *Email) ReceivedOn(day time.Time) bool {
	y1, m1, d1 := e.Date.Local().Date()
	y2, m2, d2 := day.Local().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// SearchText returns the lowercase text searched by plain queries:
// subject, sender name, sender address and snippet.
func (e *Email) SearchText() string {
	return strings.ToLower(e.Subject + " " + e.From + " " + e.FromEmail + " " + e.Snippet)
}

// ParseFromHeader splits an RFC 5322 From header into display name and
// address. A bare address yields the address as both name and email.
func ParseFromHeader(header string) (name, email string) {
	if header == "" {
		return "Unknown", ""
	}
	addr, err := mail.ParseAddress(header)
	if err != nil {
		// Header did not parse; fall back to naive splitting.
		if i := strings.Index(header, "<"); i > 0 {
			name = strings.Trim(strings.TrimSpace(header[:i]), `"`)
			email = strings.TrimRight(strings.TrimSpace(header[i+1:]), ">")
		} else {
			name = header
			email = header
		}
		return name, email
	}
	name = addr.Name
	email = addr.Address
	if name == "" {
		name = email
	}
	return name, email
}

// Filter selects a view of the mailbox snapshot.
type Filter string

const (
	FilterInbox   Filter = "inbox"
	FilterUnread  Filter = "unread"
	FilterStarred Filter = "starred"
	FilterToday   Filter = "today"
	FilterSent    Filter = "sent"
	FilterTrash   Filter = "trash"
)

// CategoryFilter reports whether the filter names a category view and
// returns the category if so.
func (f Filter) CategoryFilter() (Category, bool) {
	return ParseCategory(string(f))
}

// ParseFilter validates a filter name. Valid names are the fixed views
// plus any category.
func ParseFilter(s string) (Filter, bool) {
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FilterInbox, FilterUnread, FilterStarred, FilterToday, FilterSent, FilterTrash:
		return f, true
	}
	if _, ok := f.CategoryFilter(); ok {
		return f, true
	}
	return "", false
}

// EmailPage is one page of the filtered mailbox view.
type EmailPage struct {
	Emails   []*Email `json:"emails"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	Pages    int      `json:"pages"`
}
