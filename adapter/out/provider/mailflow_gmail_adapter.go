// Package provider implements mail provider adapters.
package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"mailflow_server/core/domain"
	"mailflow_server/core/port/out"
	"mailflow_server/pkg/httputil"
	"mailflow_server/pkg/logger"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// =============================================================================
// Gmail Adapter
// =============================================================================

// GmailAdapter implements out.MailProviderPort for Gmail.
type GmailAdapter struct {
	config *oauth2.Config
	cb     *gobreaker.CircuitBreaker
	log    *logger.Logger
}

// GmailConfig holds Gmail OAuth client configuration.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewGmailAdapter creates a new Gmail adapter.
func NewGmailAdapter(cfg *GmailConfig, log *logger.Logger) *GmailAdapter {
	if log == nil {
		log = logger.Default()
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			gmail.GmailReadonlyScope,
			gmail.GmailSendScope,
			gmail.GmailModifyScope,
		},
		Endpoint: google.Endpoint,
	}

	cbSettings := gobreaker.Settings{
		Name:        "gmail-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker %s: state changed from %s to %s", name, from.String(), to.String())
		},
	}

	return &GmailAdapter{
		config: config,
		cb:     gobreaker.NewCircuitBreaker(cbSettings),
		log:    log,
	}
}

// =============================================================================
// Message Reading
// =============================================================================

// ListMessages lists message references with options.
func (a *GmailAdapter) ListMessages(ctx context.Context, token *oauth2.Token, opts *out.ListOptions) (*out.ListResult, error) {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return nil, err
	}

	maxResults := int64(100)
	if opts != nil && opts.MaxResults > 0 {
		maxResults = int64(opts.MaxResults)
	}

	req := svc.Users.Messages.List("me").MaxResults(maxResults)
	if opts != nil {
		if opts.Query != "" {
			req = req.Q(opts.Query)
		}
		if len(opts.Labels) > 0 {
			req = req.LabelIds(opts.Labels...)
		}
		if opts.PageToken != "" {
			req = req.PageToken(opts.PageToken)
		}
	}

	var resp *gmail.ListMessagesResponse
	cbErr := a.executeWithCircuitBreaker("ListMessages", func() error {
		var apiErr error
		resp, apiErr = req.Context(ctx).Do()
		return apiErr
	})
	if cbErr != nil {
		return nil, a.wrapError(cbErr, "failed to list messages")
	}

	refs := make([]out.MessageRef, len(resp.Messages))
	for i, m := range resp.Messages {
		refs[i] = out.MessageRef{ID: m.Id, ThreadID: m.ThreadId}
	}

	return &out.ListResult{
		Messages:      refs,
		NextPageToken: resp.NextPageToken,
		TotalEstimate: resp.ResultSizeEstimate,
	}, nil
}

// GetMessage retrieves a full message and converts it to the domain model.
func (a *GmailAdapter) GetMessage(ctx context.Context, token *oauth2.Token, id string) (*domain.Email, error) {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return nil, err
	}

	var msg *gmail.Message
	cbErr := a.executeWithCircuitBreaker("GetMessage", func() error {
		var apiErr error
		msg, apiErr = svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
		return apiErr
	})
	if cbErr != nil {
		return nil, a.wrapError(cbErr, "failed to get message")
	}

	return a.convertMessage(msg), nil
}

// =============================================================================
// Message Modification
// =============================================================================

// MarkAsRead clears the unread flag.
func (a *GmailAdapter) MarkAsRead(ctx context.Context, token *oauth2.Token, id string) error {
	return a.modifyLabels(ctx, token, id, nil, []string{"UNREAD"})
}

// MarkAsUnread restores the UNREAD label on a message.
func (a *GmailAdapter) MarkAsUnread(ctx context.Context, token *oauth2.Token, id string) error {
	return a.modifyLabels(ctx, token, id, []string{"UNREAD"}, nil)
}

// Star stars a message.
func (a *GmailAdapter) Star(ctx context.Context, token *oauth2.Token, id string) error {
	return a.modifyLabels(ctx, token, id, []string{"STARRED"}, nil)
}

// Unstar unstars a message.
func (a *GmailAdapter) Unstar(ctx context.Context, token *oauth2.Token, id string) error {
	return a.modifyLabels(ctx, token, id, nil, []string{"STARRED"})
}

// Trash moves a message to the provider trash.
func (a *GmailAdapter) Trash(ctx context.Context, token *oauth2.Token, id string) error {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return err
	}

	cbErr := a.executeWithCircuitBreaker("Trash", func() error {
		_, apiErr := svc.Users.Messages.Trash("me", id).Context(ctx).Do()
		return apiErr
	})
	if cbErr != nil {
		return a.wrapError(cbErr, "failed to trash message")
	}
	return nil
}

// Untrash restores a message from the provider trash.
func (a *GmailAdapter) Untrash(ctx context.Context, token *oauth2.Token, id string) error {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return err
	}

	cbErr := a.executeWithCircuitBreaker("Untrash", func() error {
		_, apiErr := svc.Users.Messages.Untrash("me", id).Context(ctx).Do()
		return apiErr
	})
	if cbErr != nil {
		return a.wrapError(cbErr, "failed to restore message")
	}
	return nil
}

// Delete permanently deletes a message.
func (a *GmailAdapter) Delete(ctx context.Context, token *oauth2.Token, id string) error {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return err
	}

	cbErr := a.executeWithCircuitBreaker("Delete", func() error {
		return svc.Users.Messages.Delete("me", id).Context(ctx).Do()
	})
	if cbErr != nil {
		return a.wrapError(cbErr, "failed to delete message")
	}
	return nil
}

// =============================================================================
// Message Sending
// =============================================================================

// Send sends a new message.
func (a *GmailAdapter) Send(ctx context.Context, token *oauth2.Token, msg *out.OutgoingMessage) (*out.SendResult, error) {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return nil, err
	}

	raw := a.buildRawMessage(msg)
	gmailMsg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}

	var sent *gmail.Message
	cbErr := a.executeWithCircuitBreaker("Send", func() error {
		var apiErr error
		sent, apiErr = svc.Users.Messages.Send("me", gmailMsg).Context(ctx).Do()
		return apiErr
	})
	if cbErr != nil {
		return nil, a.wrapError(cbErr, "failed to send message")
	}

	return &out.SendResult{
		ID:       sent.Id,
		ThreadID: sent.ThreadId,
		SentAt:   time.Now(),
	}, nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

func (a *GmailAdapter) getService(ctx context.Context, token *oauth2.Token) (*gmail.Service, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	// Route token refreshes and API calls through the pooled client.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httputil.GmailClient())

	return gmail.NewService(ctx, option.WithTokenSource(
		a.config.TokenSource(ctx, token),
	))
}

func (a *GmailAdapter) modifyLabels(ctx context.Context, token *oauth2.Token, id string, addLabels, removeLabels []string) error {
	svc, err := a.getService(ctx, token)
	if err != nil {
		return err
	}

	req := &gmail.ModifyMessageRequest{
		AddLabelIds:    addLabels,
		RemoveLabelIds: removeLabels,
	}

	cbErr := a.executeWithCircuitBreaker("ModifyLabels", func() error {
		_, apiErr := svc.Users.Messages.Modify("me", id, req).Context(ctx).Do()
		return apiErr
	})
	if cbErr != nil {
		return a.wrapError(cbErr, "failed to modify labels")
	}
	return nil
}

// executeWithCircuitBreaker wraps an API call with circuit breaker
// protection. Client errors (400/401/403/404) must not trip the
// breaker, only server-side failures do.
func (a *GmailAdapter) executeWithCircuitBreaker(operation string, fn func() error) error {
	_, err := a.cb.Execute(func() (interface{}, error) {
		if err := fn(); err != nil {
			if apiErr, ok := err.(*googleapi.Error); ok {
				switch apiErr.Code {
				case 500, 502, 503, 429:
					return nil, err
				case 400, 401, 403, 404:
					return nil, &nonCircuitError{err: err}
				}
			}
			return nil, err
		}
		return nil, nil
	})

	if nce, ok := err.(*nonCircuitError); ok {
		return nce.err
	}

	if err != nil {
		a.log.WithError(err).Warn("Gmail %s failed, circuit state=%s", operation, a.cb.State().String())
	}
	return err
}

// nonCircuitError wraps errors that should not trip the circuit breaker.
type nonCircuitError struct {
	err error
}

func (e *nonCircuitError) Error() string {
	return e.err.Error()
}

func (a *GmailAdapter) convertMessage(msg *gmail.Message) *domain.Email {
	email := &domain.Email{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		Date:     time.Unix(0, msg.InternalDate*int64(time.Millisecond)),
	}

	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "Subject":
				email.Subject = h.Value
			case "From":
				email.From, email.FromEmail = domain.ParseFromHeader(h.Value)
			}
		}
		email.Body = a.extractBody(msg.Payload)
	}

	if email.Subject == "" {
		email.Subject = "(No Subject)"
	}

	email.Labels = msg.LabelIds
	for _, label := range msg.LabelIds {
		switch label {
		case "UNREAD":
			email.Unread = true
		case "STARRED":
			email.Starred = true
		}
	}

	return email
}

// extractBody walks the MIME tree and returns the first text part,
// preferring text/plain over text/html.
func (a *GmailAdapter) extractBody(part *gmail.MessagePart) string {
	var text, html string
	a.walkParts(part, &text, &html)
	if text != "" {
		return text
	}
	return html
}

func (a *GmailAdapter) walkParts(part *gmail.MessagePart, text, html *string) {
	if part == nil {
		return
	}

	if part.Body != nil && part.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
			switch part.MimeType {
			case "text/plain":
				if *text == "" {
					*text = string(data)
				}
			case "text/html":
				if *html == "" {
					*html = string(data)
				}
			}
		}
	}

	for _, p := range part.Parts {
		a.walkParts(p, text, html)
	}
}

func (a *GmailAdapter) buildRawMessage(msg *out.OutgoingMessage) string {
	var buf strings.Builder

	if len(msg.To) > 0 {
		buf.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	}
	if len(msg.Cc) > 0 {
		buf.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(msg.Cc, ", ")))
	}
	if len(msg.Bcc) > 0 {
		buf.WriteString(fmt.Sprintf("Bcc: %s\r\n", strings.Join(msg.Bcc, ", ")))
	}
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))

	contentType := "text/plain"
	if msg.HTML {
		contentType = "text/html"
	}
	buf.WriteString(fmt.Sprintf("Content-Type: %s; charset=UTF-8\r\n", contentType))
	buf.WriteString("\r\n")
	buf.WriteString(msg.Body)

	return buf.String()
}

func (a *GmailAdapter) wrapError(err error, defaultMsg string) error {
	if err == nil {
		return nil
	}

	if apiErr, ok := err.(*googleapi.Error); ok {
		switch apiErr.Code {
		case 401:
			return out.NewProviderError("gmail", out.ProviderErrTokenExpired, "Token expired", err, false)
		case 403:
			if strings.Contains(apiErr.Message, "Rate Limit") {
				return out.NewProviderError("gmail", out.ProviderErrRateLimit, "Rate limit exceeded", err, true)
			}
			return out.NewProviderError("gmail", out.ProviderErrAuth, "Access denied", err, false)
		case 404:
			return out.NewProviderError("gmail", out.ProviderErrNotFound, "Not found", err, false)
		case 429:
			return out.NewProviderError("gmail", out.ProviderErrRateLimit, "Too many requests", err, true)
		case 500, 502, 503:
			return out.NewProviderError("gmail", out.ProviderErrServer, "Server error", err, true)
		}
	}

	return out.NewProviderError("gmail", out.ProviderErrServer, defaultMsg, err, true)
}

// =============================================================================
// Interface Compliance
// =============================================================================

var _ out.MailProviderPort = (*GmailAdapter)(nil)
