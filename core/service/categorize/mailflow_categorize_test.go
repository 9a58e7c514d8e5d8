package categorize

import (
	"context"
	"errors"
	"testing"

	"mailflow_server/core/domain"
)

// fakeTextGen replays canned completions in order.
type fakeTextGen struct {
	replies []string
	errs    []error
	calls   int
	prompts []string
}

func (f *fakeTextGen) Name() string { return "fake" }

func (f *fakeTextGen) Complete(_ context.Context, prompt string) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	reply := ""
	if i < len(f.replies) {
		reply = f.replies[i]
	}
	return reply, err
}

func hasCategories(e *domain.Email, want ...domain.Category) bool {
	if len(e.Categories) != len(want) {
		return false
	}
	for i, c := range want {
		if e.Categories[i] != c {
			return false
		}
	}
	return true
}

func TestKeywordCategorizer(t *testing.T) {
	kc := NewKeywordCategorizer(nil)

	tests := []struct {
		name  string
		email *domain.Email
		want  []domain.Category
	}{
		{
			name:  "urgent and finance from subject",
			email: &domain.Email{Subject: "Invoice due ASAP", Snippet: "", From: "Acme Billing"},
			want:  []domain.Category{domain.CategoryUrgent, domain.CategoryWork, domain.CategoryFinance},
		},
		{
			name:  "work from subject",
			email: &domain.Email{Subject: "Team meeting notes", Snippet: "", From: "Bob"},
			want:  []domain.Category{domain.CategoryWork},
		},
		{
			name:  "promotions from subject",
			email: &domain.Email{Subject: "50% off sale", Snippet: "", From: "Shop"},
			want:  []domain.Category{domain.CategoryPromotions},
		},
		{
			name:  "no match falls back to updates",
			email: &domain.Email{Subject: "hello", Snippet: "just saying hi", From: "Carol"},
			want:  []domain.Category{domain.CategoryUpdates},
		},
		{
			name:  "matching is case-insensitive",
			email: &domain.Email{Subject: "URGENT: read now", From: "X"},
			want:  []domain.Category{domain.CategoryUrgent},
		},
		{
			name:  "sender name is searched",
			email: &domain.Email{Subject: "new connection", From: "LinkedIn"},
			want:  []domain.Category{domain.CategorySocial},
		},
		{
			name:  "multi-word phrase matches across snippet",
			email: &domain.Email{Subject: "Reminder", Snippet: "deadline today for submissions", From: "Y"},
			want:  []domain.Category{domain.CategoryUrgent, domain.CategoryWork, domain.CategoryUpdates},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kc.Categorize(tt.email)
			if len(got) != len(tt.want) {
				t.Fatalf("Categorize() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Categorize() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestKeywordCategorizerNeverEmpty(t *testing.T) {
	kc := NewKeywordCategorizer(domain.KeywordTable{})
	got := kc.Categorize(&domain.Email{Subject: "anything"})
	if len(got) != 1 || got[0] != domain.DefaultCategory {
		t.Errorf("empty table should yield default category, got %v", got)
	}
}

func TestTableFromJSON(t *testing.T) {
	table, err := TableFromJSON(`{"urgent": ["red alert"], "work": ["standup"]}`)
	if err != nil {
		t.Fatalf("TableFromJSON() error = %v", err)
	}
	kc := NewKeywordCategorizer(table)
	got := kc.Categorize(&domain.Email{Subject: "Red Alert issued"})
	if !hasCategories(&domain.Email{Categories: got}, domain.CategoryUrgent) {
		t.Errorf("override table not applied, got %v", got)
	}

	if _, err := TableFromJSON(`{"nonsense": ["x"]}`); err == nil {
		t.Error("unknown category key should be rejected")
	}
	if _, err := TableFromJSON(`{broken`); err == nil {
		t.Error("malformed JSON should be rejected")
	}
}

func TestCategorizeAllKeywordOnly(t *testing.T) {
	svc := NewService(NewKeywordCategorizer(nil), nil, 10, nil)
	emails := []*domain.Email{
		{Subject: "Invoice due ASAP"},
		{Subject: "completely unrelated"},
	}

	svc.CategorizeAll(context.Background(), emails)

	for i, e := range emails {
		if len(e.Categories) == 0 {
			t.Errorf("email %d has no categories", i)
		}
	}
	if !hasCategories(emails[1], domain.CategoryUpdates) {
		t.Errorf("unmatched email should default to updates, got %v", emails[1].Categories)
	}
}

func TestCategorizeAllAppliesAIResult(t *testing.T) {
	gen := &fakeTextGen{replies: []string{`[["spam"], ["personal", "social"]]`}}
	svc := NewService(NewKeywordCategorizer(nil), gen, 10, nil)

	emails := []*domain.Email{
		{Subject: "Invoice due ASAP"},
		{Subject: "hello"},
	}
	svc.CategorizeAll(context.Background(), emails)

	if !hasCategories(emails[0], domain.CategorySpam) {
		t.Errorf("email 0 = %v, want AI override [spam]", emails[0].Categories)
	}
	if !hasCategories(emails[1], domain.CategoryPersonal, domain.CategorySocial) {
		t.Errorf("email 1 = %v, want AI override [personal social]", emails[1].Categories)
	}
}

func TestCategorizeAllBatchFaultIsolation(t *testing.T) {
	// Three emails, batch size two: first batch fails, second succeeds.
	gen := &fakeTextGen{
		replies: []string{"", `[["finance"]]`},
		errs:    []error{errors.New("boom"), nil},
	}
	svc := NewService(NewKeywordCategorizer(nil), gen, 2, nil)

	emails := []*domain.Email{
		{Subject: "Invoice due ASAP"},
		{Subject: "Team meeting notes"},
		{Subject: "hello"},
	}
	svc.CategorizeAll(context.Background(), emails)

	if gen.calls != 2 {
		t.Fatalf("calls = %d, want 2", gen.calls)
	}
	// Failed batch keeps keyword categories.
	if !emails[0].HasCategory(domain.CategoryUrgent) {
		t.Errorf("email 0 = %v, want keyword categories preserved", emails[0].Categories)
	}
	if !emails[1].HasCategory(domain.CategoryWork) {
		t.Errorf("email 1 = %v, want keyword categories preserved", emails[1].Categories)
	}
	// Succeeding batch applies AI result.
	if !hasCategories(emails[2], domain.CategoryFinance) {
		t.Errorf("email 2 = %v, want [finance]", emails[2].Categories)
	}
}

func TestCategorizeAllShortMatrix(t *testing.T) {
	// Reply has one row for a two-email batch; the second email keeps
	// its keyword categories.
	gen := &fakeTextGen{replies: []string{`[["spam"]]`}}
	svc := NewService(NewKeywordCategorizer(nil), gen, 10, nil)

	emails := []*domain.Email{
		{Subject: "hello"},
		{Subject: "Team meeting notes"},
	}
	svc.CategorizeAll(context.Background(), emails)

	if !hasCategories(emails[0], domain.CategorySpam) {
		t.Errorf("email 0 = %v, want [spam]", emails[0].Categories)
	}
	if !emails[1].HasCategory(domain.CategoryWork) {
		t.Errorf("email 1 = %v, want keyword categories preserved", emails[1].Categories)
	}
}

func TestCategorizeAllUnknownLabelsKeepKeywordTags(t *testing.T) {
	// The model answers with labels outside the fixed set; the row is
	// discarded and the keyword result stands.
	gen := &fakeTextGen{replies: []string{`[["nonsense"]]`}}
	svc := NewService(NewKeywordCategorizer(nil), gen, 10, nil)

	emails := []*domain.Email{{Subject: "Invoice due ASAP"}}
	svc.CategorizeAll(context.Background(), emails)

	if !hasCategories(emails[0], domain.CategoryUrgent, domain.CategoryWork, domain.CategoryFinance) {
		t.Errorf("categories = %v, want keyword tags preserved", emails[0].Categories)
	}
}

func TestCategorizeAllUnparseableReply(t *testing.T) {
	gen := &fakeTextGen{replies: []string{"I cannot help with that."}}
	svc := NewService(NewKeywordCategorizer(nil), gen, 10, nil)

	emails := []*domain.Email{{Subject: "Invoice due ASAP"}}
	svc.CategorizeAll(context.Background(), emails)

	if !emails[0].HasCategory(domain.CategoryUrgent) {
		t.Errorf("unparseable reply should keep keyword categories, got %v", emails[0].Categories)
	}
}
