package llm

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"mailflow_server/core/domain"
)

func TestBuildCategorizePrompt(t *testing.T) {
	emails := []*domain.Email{
		{From: "Acme Billing", Subject: "Invoice due ASAP", Snippet: "Your invoice is overdue"},
		{From: "Bob", Subject: "Team meeting notes", Snippet: "Notes from today"},
	}

	prompt := BuildCategorizePrompt(emails)

	for _, want := range []string{
		"urgent, important, work, personal, promotions, social, updates, finance, newsletters, spam",
		"1. From: Acme Billing, Subject: Invoice due ASAP",
		"2. From: Bob, Subject: Team meeting notes",
		`Response format: [["category1", "category2"], ["category1"], ...]`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildCategorizePromptTruncatesSnippet(t *testing.T) {
	long := strings.Repeat("x", 500)
	prompt := BuildCategorizePrompt([]*domain.Email{{From: "a", Subject: "b", Snippet: long}})
	if strings.Contains(prompt, strings.Repeat("x", 201)) {
		t.Error("snippet was not truncated to 200 characters")
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"ascii under limit", "hello", 10, "hello"},
		{"ascii at limit", "hello", 5, "hello"},
		{"ascii cut", "hello", 3, "hel"},
		{"rune straddles limit", "abcé", 4, "abc"},
		{"multi-byte only", "日本語", 4, "日"},
		{"limit inside first rune", "日本語", 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.max)
			}
		})
	}
}

func TestBuildAnswerPrompt(t *testing.T) {
	relevant := []*domain.Email{
		{
			From:       "Alice",
			Subject:    "Lunch",
			Snippet:    "Want to grab lunch?",
			Date:       time.Date(2024, 5, 14, 9, 0, 0, 0, time.Local),
			Categories: []domain.Category{domain.CategoryPersonal},
			Unread:     true,
		},
	}

	prompt, err := BuildAnswerPrompt("any emails from alice?", relevant, 30)
	if err != nil {
		t.Fatalf("BuildAnswerPrompt() error = %v", err)
	}

	for _, want := range []string{
		"Found 1 relevant emails:",
		`"from": "Alice"`,
		"User's question: any emails from alice?",
		"Be concise and direct",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildAnswerPromptContextLimit(t *testing.T) {
	var relevant []*domain.Email
	for i := 0; i < 40; i++ {
		relevant = append(relevant, &domain.Email{From: "sender", Subject: "s", Date: time.Now()})
	}

	prompt, err := BuildAnswerPrompt("how many", relevant, 30)
	if err != nil {
		t.Fatalf("BuildAnswerPrompt() error = %v", err)
	}

	// The count reflects all relevant emails even when the embedded
	// context is capped.
	if !strings.Contains(prompt, "Found 40 relevant emails:") {
		t.Error("prompt should report full relevant count")
	}
	if got := strings.Count(prompt, `"from": "sender"`); got != 30 {
		t.Errorf("embedded context entries = %d, want 30", got)
	}
}

func TestParseCategoryMatrix(t *testing.T) {
	tests := []struct {
		name    string
		resp    string
		want    [][]domain.Category
		wantErr bool
	}{
		{
			name: "plain JSON",
			resp: `[["urgent", "finance"], ["work"]]`,
			want: [][]domain.Category{
				{domain.CategoryUrgent, domain.CategoryFinance},
				{domain.CategoryWork},
			},
		},
		{
			name: "fenced with prose",
			resp: "Here are the categories:\n```json\n[[\"promotions\"]]\n```",
			want: [][]domain.Category{{domain.CategoryPromotions}},
		},
		{
			name: "unknown labels leave the row empty",
			resp: `[["bogus"]]`,
			want: [][]domain.Category{{}},
		},
		{
			name: "mixed case labels",
			resp: `[["Urgent", " WORK "]]`,
			want: [][]domain.Category{{domain.CategoryUrgent, domain.CategoryWork}},
		},
		{
			name:    "no array",
			resp:    "I could not categorize these emails.",
			wantErr: true,
		},
		{
			name:    "malformed JSON",
			resp:    `[["urgent",]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategoryMatrix(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCategoryMatrix() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("rows = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if len(got[i]) != len(tt.want[i]) {
					t.Fatalf("row %d = %v, want %v", i, got[i], tt.want[i])
				}
				for j := range got[i] {
					if got[i][j] != tt.want[i][j] {
						t.Errorf("row %d = %v, want %v", i, got[i], tt.want[i])
					}
				}
			}
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	got, ok := ExtractJSONArray(`The result is [["a"], ["b"]] as requested.`)
	if !ok || got != `[["a"], ["b"]]` {
		t.Errorf("ExtractJSONArray() = %q, %v", got, ok)
	}

	if _, ok := ExtractJSONArray("no brackets here"); ok {
		t.Error("expected no match")
	}
}
