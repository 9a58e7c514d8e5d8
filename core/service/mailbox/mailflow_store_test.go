package mailbox

import (
	"testing"
	"time"

	"mailflow_server/core/domain"
)

var storeNow = time.Date(2024, 5, 14, 12, 0, 0, 0, time.Local)

func seedStore(t *testing.T, pageSize int) *Store {
	t.Helper()
	s := NewStore(pageSize)
	s.now = func() time.Time { return storeNow }
	s.Reset([]*domain.Email{
		{
			ID: "a", From: "Acme Billing", FromEmail: "billing@acme.com",
			Subject: "Invoice due ASAP", Snippet: "Your invoice is overdue",
			Date:       storeNow.Add(-48 * time.Hour),
			Categories: []domain.Category{domain.CategoryUrgent, domain.CategoryWork, domain.CategoryFinance},
		},
		{
			ID: "b", From: "Alice", FromEmail: "alice@example.com",
			Subject: "Team meeting notes", Snippet: "Notes from the standup",
			Date:   storeNow.Add(-2 * time.Hour),
			Unread: true,
			Categories: []domain.Category{domain.CategoryWork},
		},
		{
			ID: "c", From: "Shop", FromEmail: "deals@shop.com",
			Subject: "50% off sale", Snippet: "Discount ends soon",
			Date:    storeNow.Add(-36 * time.Hour),
			Starred: true,
			Categories: []domain.Category{domain.CategoryPromotions},
		},
	})
	return s
}

func viewIDs(emails []*domain.Email) []string {
	ids := make([]string, len(emails))
	for i, e := range emails {
		ids[i] = e.ID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStoreViewFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter domain.Filter
		want   []string
	}{
		{"inbox", domain.FilterInbox, []string{"a", "b", "c"}},
		{"unread", domain.FilterUnread, []string{"b"}},
		{"starred", domain.FilterStarred, []string{"c"}},
		{"today", domain.FilterToday, []string{"b"}},
		{"sent is empty", domain.FilterSent, nil},
		{"category work", domain.Filter("work"), []string{"a", "b"}},
		{"category spam", domain.Filter("spam"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seedStore(t, 25)
			s.SetFilter(tt.filter)
			got := viewIDs(s.View())
			if !equalIDs(got, tt.want) {
				t.Errorf("View() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStoreSearchWithinFilter(t *testing.T) {
	s := seedStore(t, 25)
	s.SetFilter(domain.Filter("work"))
	s.SetSearch("meeting")

	got := viewIDs(s.View())
	if !equalIDs(got, []string{"b"}) {
		t.Errorf("View() = %v, want [b]", got)
	}

	// Clearing the term restores the filter view.
	s.SetSearch("")
	if got := viewIDs(s.View()); !equalIDs(got, []string{"a", "b"}) {
		t.Errorf("View() after clear = %v, want [a b]", got)
	}
}

func TestStoreSearchIgnoresFilter(t *testing.T) {
	s := seedStore(t, 25)
	s.SetFilter(domain.FilterStarred)

	results := s.Search("invoice")
	if !equalIDs(viewIDs(results), []string{"a"}) {
		t.Fatalf("Search() = %v, want [a]", viewIDs(results))
	}

	// The view stays pinned to the results until filter changes.
	if got := viewIDs(s.View()); !equalIDs(got, []string{"a"}) {
		t.Errorf("View() = %v, want [a]", got)
	}
	s.SetFilter(domain.FilterInbox)
	if got := viewIDs(s.View()); !equalIDs(got, []string{"a", "b", "c"}) {
		t.Errorf("View() after filter change = %v, want [a b c]", got)
	}
}

func TestStoreQueryResultsPinView(t *testing.T) {
	s := seedStore(t, 25)
	s.SetQueryResults([]string{"c", "a", "missing"})

	got := viewIDs(s.View())
	if !equalIDs(got, []string{"c", "a"}) {
		t.Errorf("View() = %v, want [c a]", got)
	}

	s.SetFilter(domain.FilterInbox)
	if got := viewIDs(s.View()); !equalIDs(got, []string{"a", "b", "c"}) {
		t.Errorf("View() after filter change = %v, want [a b c]", got)
	}
}

func TestStorePagination(t *testing.T) {
	s := seedStore(t, 2)

	p1 := s.Page(1)
	if p1.Total != 3 || p1.Pages != 2 || len(p1.Emails) != 2 {
		t.Errorf("page 1 = total %d pages %d len %d, want 3/2/2", p1.Total, p1.Pages, len(p1.Emails))
	}
	p2 := s.Page(2)
	if len(p2.Emails) != 1 || p2.Emails[0].ID != "c" {
		t.Errorf("page 2 = %v, want [c]", viewIDs(p2.Emails))
	}
	p9 := s.Page(9)
	if len(p9.Emails) != 0 || p9.Total != 3 {
		t.Errorf("page past end = len %d total %d, want 0/3", len(p9.Emails), p9.Total)
	}
}

func TestStorePageNavigation(t *testing.T) {
	s := seedStore(t, 2)

	if got := s.CurrentPage(); got != 1 {
		t.Fatalf("CurrentPage() = %d, want 1", got)
	}

	p := s.NextPage()
	if p.Page != 2 || s.CurrentPage() != 2 {
		t.Errorf("NextPage() = page %d, current %d, want 2/2", p.Page, s.CurrentPage())
	}
	// Already on the last page, another step stays put.
	if p = s.NextPage(); p.Page != 2 {
		t.Errorf("NextPage() past end = page %d, want 2", p.Page)
	}
	if p = s.PrevPage(); p.Page != 1 {
		t.Errorf("PrevPage() = page %d, want 1", p.Page)
	}
	if p = s.PrevPage(); p.Page != 1 {
		t.Errorf("PrevPage() past start = page %d, want 1", p.Page)
	}

	// Absolute moves clamp to the valid range.
	if p = s.SetPage(9); p.Page != 2 || s.CurrentPage() != 2 {
		t.Errorf("SetPage(9) = page %d, current %d, want 2/2", p.Page, s.CurrentPage())
	}
	if p = s.SetPage(0); p.Page != 1 {
		t.Errorf("SetPage(0) = page %d, want 1", p.Page)
	}
}

func TestStorePageResetsOnViewChange(t *testing.T) {
	tests := []struct {
		name   string
		change func(s *Store)
	}{
		{"filter", func(s *Store) { s.SetFilter(domain.FilterUnread) }},
		{"search term", func(s *Store) { s.SetSearch("invoice") }},
		{"snapshot search", func(s *Store) { s.Search("invoice") }},
		{"query results", func(s *Store) { s.SetQueryResults([]string{"a"}) }},
		{"reset", func(s *Store) { s.Reset(nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seedStore(t, 2)
			s.SetPage(2)
			tt.change(s)
			if got := s.CurrentPage(); got != 1 {
				t.Errorf("CurrentPage() = %d, want 1", got)
			}
		})
	}
}

func TestStoreStats(t *testing.T) {
	s := seedStore(t, 25)
	s.MoveToTrash("c")

	st := s.Stats()
	if st.Total != 2 || st.Unread != 1 || st.Starred != 0 || st.Today != 1 || st.Trash != 1 {
		t.Errorf("Stats() = %+v", st)
	}
	if st.Categories[domain.CategoryWork] != 2 {
		t.Errorf("work count = %d, want 2", st.Categories[domain.CategoryWork])
	}
	// Every category is present even at zero.
	if _, ok := st.Categories[domain.CategorySpam]; !ok {
		t.Error("spam category missing from stats")
	}
}

func TestStoreTrashCycle(t *testing.T) {
	s := seedStore(t, 25)

	if _, ok := s.MoveToTrash("b"); !ok {
		t.Fatal("MoveToTrash(b) failed")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	s.SetFilter(domain.FilterTrash)
	if got := viewIDs(s.View()); !equalIDs(got, []string{"b"}) {
		t.Errorf("trash view = %v, want [b]", got)
	}

	if _, ok := s.RestoreFromTrash("b"); !ok {
		t.Fatal("RestoreFromTrash(b) failed")
	}
	if s.Len() != 3 {
		t.Errorf("Len() after restore = %d, want 3", s.Len())
	}
	if got := viewIDs(s.TrashEmails()); len(got) != 0 {
		t.Errorf("trash not empty after restore: %v", got)
	}

	s.MoveToTrash("a")
	if _, ok := s.RemoveFromTrash("a"); !ok {
		t.Fatal("RemoveFromTrash(a) failed")
	}
	if _, ok := s.Get("a"); ok {
		t.Error("deleted email still in snapshot")
	}
}

func TestStoreSelection(t *testing.T) {
	s := seedStore(t, 2)

	if !s.ToggleSelected("a") {
		t.Error("ToggleSelected(a) = false, want selected")
	}
	if s.ToggleSelected("a") {
		t.Error("second toggle should deselect")
	}

	// Page 1 holds a and b; first toggle selects both.
	if n := s.TogglePageSelection(1); n != 2 {
		t.Errorf("TogglePageSelection(1) = %d, want 2", n)
	}
	if got := s.SelectedIDs(); !equalIDs(got, []string{"a", "b"}) {
		t.Errorf("SelectedIDs() = %v, want [a b]", got)
	}
	// All of page 1 selected, so the second toggle deselects it.
	if n := s.TogglePageSelection(1); n != 0 {
		t.Errorf("TogglePageSelection(1) again = %d, want 0", n)
	}

	s.ToggleSelected("c")
	s.ClearSelection()
	if got := s.SelectedIDs(); len(got) != 0 {
		t.Errorf("selection not cleared: %v", got)
	}
}

func TestStoreFlagMutations(t *testing.T) {
	s := seedStore(t, 25)

	prev, ok := s.SetStarred("a", true)
	if !ok || prev {
		t.Errorf("SetStarred = (%v, %v), want (false, true)", prev, ok)
	}
	if e, _ := s.Get("a"); !e.Starred {
		t.Error("star not applied")
	}

	prev, ok = s.SetUnread("b", false)
	if !ok || !prev {
		t.Errorf("SetUnread = (%v, %v), want (true, true)", prev, ok)
	}

	if _, ok := s.SetStarred("nope", true); ok {
		t.Error("SetStarred on unknown id reported ok")
	}

	if !s.SetCategories("c", []domain.Category{domain.CategorySpam}) {
		t.Fatal("SetCategories failed")
	}
	e, _ := s.Get("c")
	if !e.HasCategory(domain.CategorySpam) {
		t.Error("categories not applied")
	}
}
