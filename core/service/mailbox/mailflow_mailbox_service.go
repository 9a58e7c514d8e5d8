package mailbox

import (
	"context"
	"time"

	"mailflow_server/core/domain"
	"mailflow_server/core/port/out"
	"mailflow_server/core/service/categorize"
	"mailflow_server/pkg/apperr"
	"mailflow_server/pkg/logger"

	"golang.org/x/oauth2"
)

const (
	defaultMaxFetch    = 500
	defaultConcurrency = 20
	listPageSize       = 100
	perMessageTimeout  = 15 * time.Second
)

// Service drives the mailbox snapshot: refresh from the provider,
// categorization, and write-through mutations.
type Service struct {
	store       *Store
	provider    out.MailProviderPort
	categorizer *categorize.Service

	maxFetch    int
	concurrency int
	log         *logger.Logger
}

// NewService creates a mailbox service.
func NewService(store *Store, provider out.MailProviderPort, categorizer *categorize.Service, maxFetch, concurrency int, log *logger.Logger) *Service {
	if maxFetch <= 0 {
		maxFetch = defaultMaxFetch
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		store:       store,
		provider:    provider,
		categorizer: categorizer,
		maxFetch:    maxFetch,
		concurrency: concurrency,
		log:         log,
	}
}

// Store exposes the snapshot for read paths.
func (s *Service) Store() *Store {
	return s.store
}

// Refresh pulls up to the configured maximum of inbox messages,
// categorizes them and replaces the snapshot. Returns the number of
// emails loaded.
func (s *Service) Refresh(ctx context.Context, token *oauth2.Token) (int, error) {
	start := time.Now()

	var emails []*domain.Email
	pageToken := ""

	for len(emails) < s.maxFetch {
		remaining := s.maxFetch - len(emails)
		if remaining > listPageSize {
			remaining = listPageSize
		}
		resp, err := s.provider.ListMessages(ctx, token, &out.ListOptions{
			MaxResults: remaining,
			Labels:     []string{"INBOX"},
			PageToken:  pageToken,
		})
		if err != nil {
			return 0, apperr.ProviderError("gmail", err)
		}

		fetched := s.fetchBatched(ctx, token, resp.Messages)
		emails = append(emails, fetched...)

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	s.categorizer.CategorizeAll(ctx, emails)
	s.store.Reset(emails)

	s.log.WithDuration(time.Since(start)).Info("Mailbox refreshed: %d emails", len(emails))
	return len(emails), nil
}

// fetchBatched fetches message details in fixed-size concurrent groups.
// Each group is joined before the next one starts, keeping at most
// s.concurrency requests in flight. Failed messages are dropped, the
// rest keep list order.
func (s *Service) fetchBatched(ctx context.Context, token *oauth2.Token, refs []out.MessageRef) []*domain.Email {
	var all []*domain.Email

	for start := 0; start < len(refs); start += s.concurrency {
		end := start + s.concurrency
		if end > len(refs) {
			end = len(refs)
		}
		all = append(all, s.fetchGroup(ctx, token, refs[start:end])...)

		if ctx.Err() != nil {
			break
		}
	}
	return all
}

func (s *Service) fetchGroup(ctx context.Context, token *oauth2.Token, refs []out.MessageRef) []*domain.Email {
	if len(refs) == 0 {
		return nil
	}

	type result struct {
		index int
		email *domain.Email
		err   error
	}
	results := make(chan result, len(refs))

	for i, ref := range refs {
		go func(idx int, id string) {
			msgCtx, cancel := context.WithTimeout(ctx, perMessageTimeout)
			defer cancel()

			email, err := s.provider.GetMessage(msgCtx, token, id)
			results <- result{index: idx, email: email, err: err}
		}(i, ref.ID)
	}

	ordered := make([]*domain.Email, len(refs))
	for range refs {
		r := <-results
		if r.err != nil {
			s.log.WithError(r.err).Warn("Failed to fetch message %s", refs[r.index].ID)
			continue
		}
		ordered[r.index] = r.email
	}

	emails := make([]*domain.Email, 0, len(refs))
	for _, e := range ordered {
		if e != nil {
			emails = append(emails, e)
		}
	}
	return emails
}

// ToggleStar flips the star locally first, then writes through to the
// provider. On provider failure the local flip is reverted so the
// snapshot never drifts from the provider.
func (s *Service) ToggleStar(ctx context.Context, token *oauth2.Token, id string) (*domain.Email, error) {
	prev, ok := s.store.Get(id)
	if !ok {
		return nil, apperr.NotFound("email")
	}

	starred := !prev.Starred
	s.store.SetStarred(id, starred)

	var err error
	if starred {
		err = s.provider.Star(ctx, token, id)
	} else {
		err = s.provider.Unstar(ctx, token, id)
	}
	if err != nil {
		s.store.SetStarred(id, !starred) // revert
		return nil, apperr.ProviderError("gmail", err)
	}

	email, _ := s.store.Get(id)
	return email, nil
}

// MarkAsRead clears the unread flag on the provider, then locally.
// Already-read emails are a no-op.
func (s *Service) MarkAsRead(ctx context.Context, token *oauth2.Token, id string) error {
	email, ok := s.store.Get(id)
	if !ok {
		return apperr.NotFound("email")
	}
	if !email.Unread {
		return nil
	}

	if err := s.provider.MarkAsRead(ctx, token, id); err != nil {
		return apperr.ProviderError("gmail", err)
	}
	s.store.SetUnread(id, false)
	return nil
}

// MarkAsUnread restores the unread flag on the provider, then locally.
func (s *Service) MarkAsUnread(ctx context.Context, token *oauth2.Token, id string) error {
	email, ok := s.store.Get(id)
	if !ok {
		return apperr.NotFound("email")
	}
	if email.Unread {
		return nil
	}

	if err := s.provider.MarkAsUnread(ctx, token, id); err != nil {
		return apperr.ProviderError("gmail", err)
	}
	s.store.SetUnread(id, true)
	return nil
}

// Trash moves the message to the provider trash, then mirrors the move
// into the local trash sequence.
func (s *Service) Trash(ctx context.Context, token *oauth2.Token, id string) error {
	if _, ok := s.store.Get(id); !ok {
		return apperr.NotFound("email")
	}

	if err := s.provider.Trash(ctx, token, id); err != nil {
		return apperr.ProviderError("gmail", err)
	}
	s.store.MoveToTrash(id)
	return nil
}

// Untrash restores a locally trashed message on the provider and in
// the snapshot.
func (s *Service) Untrash(ctx context.Context, token *oauth2.Token, id string) error {
	if err := s.provider.Untrash(ctx, token, id); err != nil {
		return apperr.ProviderError("gmail", err)
	}
	if _, ok := s.store.RestoreFromTrash(id); !ok {
		return apperr.NotFound("email")
	}
	return nil
}

// DeleteForever permanently deletes a trashed message.
func (s *Service) DeleteForever(ctx context.Context, token *oauth2.Token, id string) error {
	if err := s.provider.Delete(ctx, token, id); err != nil {
		return apperr.ProviderError("gmail", err)
	}
	if _, ok := s.store.RemoveFromTrash(id); !ok {
		return apperr.NotFound("email")
	}
	return nil
}

// MarkSelectedAsRead marks every selected email read, one provider
// call at a time. On failure the emails processed so far stay read and
// the selection is kept for a retry.
func (s *Service) MarkSelectedAsRead(ctx context.Context, token *oauth2.Token) (int, error) {
	ids := s.store.SelectedIDs()
	if len(ids) == 0 {
		return 0, nil
	}

	done := 0
	for _, id := range ids {
		email, ok := s.store.Get(id)
		if !ok {
			continue
		}
		if email.Unread {
			if err := s.provider.MarkAsRead(ctx, token, id); err != nil {
				return done, apperr.ProviderError("gmail", err)
			}
			s.store.SetUnread(id, false)
		}
		done++
	}

	s.store.ClearSelection()
	return done, nil
}

// TrashSelected moves every selected email to the trash, one provider
// call at a time, with the same partial-progress behavior as
// MarkSelectedAsRead.
func (s *Service) TrashSelected(ctx context.Context, token *oauth2.Token) (int, error) {
	ids := s.store.SelectedIDs()
	if len(ids) == 0 {
		return 0, nil
	}

	done := 0
	for _, id := range ids {
		if err := s.provider.Trash(ctx, token, id); err != nil {
			return done, apperr.ProviderError("gmail", err)
		}
		s.store.MoveToTrash(id)
		done++
	}

	s.store.ClearSelection()
	return done, nil
}

// Send sends a new message through the provider.
func (s *Service) Send(ctx context.Context, token *oauth2.Token, to []string, subject, body string) (*out.SendResult, error) {
	if len(to) == 0 {
		return nil, apperr.MissingField("to")
	}
	if subject == "" {
		return nil, apperr.MissingField("subject")
	}
	if body == "" {
		return nil, apperr.MissingField("body")
	}

	result, err := s.provider.Send(ctx, token, &out.OutgoingMessage{
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return nil, apperr.ProviderError("gmail", err)
	}

	s.log.Info("Message sent: %s", result.ID)
	return result, nil
}

// Recategorize reruns the categorization pipeline over the current
// snapshot without refetching. The pipeline runs on copies so snapshot
// emails are only written under the store lock.
func (s *Service) Recategorize(ctx context.Context) int {
	live := s.store.Emails()
	scratch := make([]*domain.Email, len(live))
	for i, e := range live {
		cp := *e
		scratch[i] = &cp
	}

	s.categorizer.CategorizeAll(ctx, scratch)
	for _, e := range scratch {
		s.store.SetCategories(e.ID, e.Categories)
	}

	s.log.Info("Recategorized %d emails", len(scratch))
	return len(scratch)
}
