// Package mailbox holds the in-memory mailbox snapshot and the service
// that keeps it in sync with the mail provider.
package mailbox

import (
	"strings"
	"sync"
	"time"

	"mailflow_server/core/domain"
)

const defaultPageSize = 25

// Store is the per-session mailbox snapshot. All mutation goes through
// the store's lock; readers get copies and never observe a write in
// progress.
type Store struct {
	mu     sync.RWMutex
	emails []*domain.Email // active snapshot, provider order
	trash  []*domain.Email // locally trashed, most recent first

	filter domain.Filter
	search string
	// queryIDs overrides the derived view with an explicit subset, set
	// when the assistant resolves a query. Cleared by filter or search
	// changes.
	queryIDs []string

	selected map[string]bool

	page     int
	pageSize int
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore(pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Store{
		filter:   domain.FilterInbox,
		selected: make(map[string]bool),
		page:     1,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// Reset replaces the snapshot after a refresh. View state goes back to
// the inbox; the local trash is dropped because the provider is the
// source of truth again.
func (s *Store) Reset(emails []*domain.Email) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = emails
	s.trash = nil
	s.filter = domain.FilterInbox
	s.search = ""
	s.queryIDs = nil
	s.selected = make(map[string]bool)
	s.page = 1
}

// Emails returns a copy of the active snapshot.
func (s *Store) Emails() []*domain.Email {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Email, len(s.emails))
	copy(out, s.emails)
	return out
}

// Get finds an active email by ID.
func (s *Store) Get(id string) (*domain.Email, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.emails {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Len returns the active snapshot size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.emails)
}

// SetFilter switches the current view, drops any assistant result
// subset and goes back to the first page.
func (s *Store) SetFilter(f domain.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.queryIDs = nil
	s.page = 1
}

// Filter returns the current view filter.
func (s *Store) Filter() domain.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// SetSearch sets the plain substring search term and drops any
// assistant result subset.
func (s *Store) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = strings.ToLower(strings.TrimSpace(term))
	s.queryIDs = nil
	s.page = 1
}

// SetQueryResults pins the view to an explicit subset, in the given
// order. Used after the assistant resolved a query.
func (s *Store) SetQueryResults(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryIDs = ids
	s.page = 1
}

// View returns the emails visible under the current filter, search
// term or pinned assistant subset.
func (s *Store) View() []*domain.Email {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

func (s *Store) viewLocked() []*domain.Email {
	if s.queryIDs != nil {
		byID := make(map[string]*domain.Email, len(s.emails))
		for _, e := range s.emails {
			byID[e.ID] = e
		}
		out := make([]*domain.Email, 0, len(s.queryIDs))
		for _, id := range s.queryIDs {
			if e, ok := byID[id]; ok {
				out = append(out, e)
			}
		}
		return out
	}

	var filtered []*domain.Email
	switch s.filter {
	case domain.FilterInbox:
		filtered = append(filtered, s.emails...)
	case domain.FilterUnread:
		for _, e := range s.emails {
			if e.Unread {
				filtered = append(filtered, e)
			}
		}
	case domain.FilterStarred:
		for _, e := range s.emails {
			if e.Starred {
				filtered = append(filtered, e)
			}
		}
	case domain.FilterToday:
		now := s.now()
		for _, e := range s.emails {
			if e.ReceivedOn(now) {
				filtered = append(filtered, e)
			}
		}
	case domain.FilterTrash:
		filtered = append(filtered, s.trash...)
	case domain.FilterSent:
		// The snapshot holds the inbox only.
	default:
		if cat, ok := s.filter.CategoryFilter(); ok {
			for _, e := range s.emails {
				if e.HasCategory(cat) {
					filtered = append(filtered, e)
				}
			}
		}
	}

	if s.search == "" || s.filter == domain.FilterTrash {
		return filtered
	}

	matched := filtered[:0:0]
	for _, e := range filtered {
		if strings.Contains(e.SearchText(), s.search) {
			matched = append(matched, e)
		}
	}
	return matched
}

// Page returns one page of the current view. Pages are 1-based; a page
// past the end is empty but still reports totals.
func (s *Store) Page(page int) *domain.EmailPage {
	if page < 1 {
		page = 1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageLocked(page)
}

// CurrentPage returns the page the view is on.
func (s *Store) CurrentPage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

// SetPage moves the view to the given page, clamped to the valid range,
// and returns it.
func (s *Store) SetPage(page int) *domain.EmailPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = s.clampPageLocked(page)
	return s.pageLocked(s.page)
}

// NextPage advances the view one page, staying on the last page when
// already there.
func (s *Store) NextPage() *domain.EmailPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = s.clampPageLocked(s.page + 1)
	return s.pageLocked(s.page)
}

// PrevPage moves the view one page back, staying on the first page when
// already there.
func (s *Store) PrevPage() *domain.EmailPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = s.clampPageLocked(s.page - 1)
	return s.pageLocked(s.page)
}

func (s *Store) clampPageLocked(page int) int {
	if page < 1 {
		return 1
	}
	pages := (len(s.viewLocked()) + s.pageSize - 1) / s.pageSize
	if pages == 0 {
		pages = 1
	}
	if page > pages {
		return pages
	}
	return page
}

func (s *Store) pageLocked(page int) *domain.EmailPage {
	view := s.viewLocked()
	total := len(view)
	pages := (total + s.pageSize - 1) / s.pageSize
	if pages == 0 {
		pages = 1
	}

	start := (page - 1) * s.pageSize
	if start > total {
		start = total
	}
	end := start + s.pageSize
	if end > total {
		end = total
	}

	return &domain.EmailPage{
		Emails:   view[start:end],
		Total:    total,
		Page:     page,
		PageSize: s.pageSize,
		Pages:    pages,
	}
}

// Search runs a plain substring search over the whole active snapshot,
// ignoring the current filter, and pins the view to the results.
func (s *Store) Search(term string) []*domain.Email {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(term))
	s.page = 1
	if q == "" {
		s.search = ""
		s.queryIDs = nil
		return s.viewLocked()
	}

	var results []*domain.Email
	ids := make([]string, 0)
	for _, e := range s.emails {
		if strings.Contains(e.SearchText(), q) {
			results = append(results, e)
			ids = append(ids, e.ID)
		}
	}
	s.queryIDs = ids
	return results
}

// Stats are aggregate counters over the active snapshot.
type Stats struct {
	Total      int                     `json:"total"`
	Unread     int                     `json:"unread"`
	Starred    int                     `json:"starred"`
	Today      int                     `json:"today"`
	Trash      int                     `json:"trash"`
	Categories map[domain.Category]int `json:"categories"`
}

// Stats computes snapshot counters in one pass.
func (s *Store) Stats() *Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &Stats{
		Total:      len(s.emails),
		Trash:      len(s.trash),
		Categories: make(map[domain.Category]int, len(domain.AllCategories)),
	}
	for _, c := range domain.AllCategories {
		st.Categories[c] = 0
	}

	now := s.now()
	for _, e := range s.emails {
		if e.Unread {
			st.Unread++
		}
		if e.Starred {
			st.Starred++
		}
		if e.ReceivedOn(now) {
			st.Today++
		}
		for _, c := range e.Categories {
			st.Categories[c]++
		}
	}
	return st
}

// SetStarred flips the starred flag and returns the previous value.
func (s *Store) SetStarred(id string, starred bool) (prev bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.emails {
		if e.ID == id {
			prev = e.Starred
			e.Starred = starred
			return prev, true
		}
	}
	return false, false
}

// SetUnread flips the unread flag and returns the previous value.
func (s *Store) SetUnread(id string, unread bool) (prev bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.emails {
		if e.ID == id {
			prev = e.Unread
			e.Unread = unread
			return prev, true
		}
	}
	return false, false
}

// SetCategories replaces an email's categories.
func (s *Store) SetCategories(id string, cats []domain.Category) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.emails {
		if e.ID == id {
			e.Categories = cats
			return true
		}
	}
	return false
}

// MoveToTrash removes the email from the active snapshot and prepends
// it to the local trash sequence.
func (s *Store) MoveToTrash(id string) (*domain.Email, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.emails {
		if e.ID == id {
			s.emails = append(s.emails[:i], s.emails[i+1:]...)
			s.trash = append([]*domain.Email{e}, s.trash...)
			return e, true
		}
	}
	return nil, false
}

// RestoreFromTrash moves the email back into the active snapshot, at
// the front since original ordering is lost.
func (s *Store) RestoreFromTrash(id string) (*domain.Email, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.trash {
		if e.ID == id {
			s.trash = append(s.trash[:i], s.trash[i+1:]...)
			s.emails = append([]*domain.Email{e}, s.emails...)
			return e, true
		}
	}
	return nil, false
}

// RemoveFromTrash drops the email for good.
func (s *Store) RemoveFromTrash(id string) (*domain.Email, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.trash {
		if e.ID == id {
			s.trash = append(s.trash[:i], s.trash[i+1:]...)
			return e, true
		}
	}
	return nil, false
}

// TrashEmails returns a copy of the local trash sequence.
func (s *Store) TrashEmails() []*domain.Email {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Email, len(s.trash))
	copy(out, s.trash)
	return out
}

// ToggleSelected flips selection for one email and returns the new
// state.
func (s *Store) ToggleSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected[id] {
		delete(s.selected, id)
		return false
	}
	s.selected[id] = true
	return true
}

// TogglePageSelection selects every email on the given page of the
// current view, or deselects them all when they are already selected.
// Returns the number of selected emails afterwards.
func (s *Store) TogglePageSelection(page int) int {
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.viewLocked()
	start := (page - 1) * s.pageSize
	if start > len(view) {
		start = len(view)
	}
	end := start + s.pageSize
	if end > len(view) {
		end = len(view)
	}
	pageEmails := view[start:end]

	allSelected := len(pageEmails) > 0
	for _, e := range pageEmails {
		if !s.selected[e.ID] {
			allSelected = false
			break
		}
	}

	for _, e := range pageEmails {
		if allSelected {
			delete(s.selected, e.ID)
		} else {
			s.selected[e.ID] = true
		}
	}
	return len(s.selected)
}

// SelectedIDs returns the selected email IDs in snapshot order.
func (s *Store) SelectedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.selected))
	for _, e := range s.emails {
		if s.selected[e.ID] {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// ClearSelection drops the selection.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]bool)
}
