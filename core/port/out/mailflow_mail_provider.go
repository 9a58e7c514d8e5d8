// Package out defines outbound ports for external systems.
package out

import (
	"context"
	"time"

	"mailflow_server/core/domain"

	"golang.org/x/oauth2"
)

// ListOptions controls message listing.
type ListOptions struct {
	MaxResults int
	Labels     []string
	Query      string
	PageToken  string
}

// MessageRef is a message identifier returned by a list call.
type MessageRef struct {
	ID       string
	ThreadID string
}

// ListResult is one page of message references.
type ListResult struct {
	Messages      []MessageRef
	NextPageToken string
	TotalEstimate int64
}

// OutgoingMessage describes a message to send.
type OutgoingMessage struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
	HTML    bool
}

// SendResult describes a sent message.
type SendResult struct {
	ID       string
	ThreadID string
	SentAt   time.Time
}

// MailProviderPort is the outbound port to the user's mail provider.
// All calls carry the caller's OAuth token; nothing is persisted here.
type MailProviderPort interface {
	// ListMessages returns one page of message references.
	ListMessages(ctx context.Context, token *oauth2.Token, opts *ListOptions) (*ListResult, error)

	// GetMessage fetches a full message and converts it to the domain model.
	GetMessage(ctx context.Context, token *oauth2.Token, id string) (*domain.Email, error)

	// MarkAsRead and MarkAsUnread toggle the unread flag on the provider.
	MarkAsRead(ctx context.Context, token *oauth2.Token, id string) error
	MarkAsUnread(ctx context.Context, token *oauth2.Token, id string) error

	// Star and Unstar toggle the starred flag on the provider.
	Star(ctx context.Context, token *oauth2.Token, id string) error
	Unstar(ctx context.Context, token *oauth2.Token, id string) error

	// Trash, Untrash and Delete manage the provider-side trash.
	Trash(ctx context.Context, token *oauth2.Token, id string) error
	Untrash(ctx context.Context, token *oauth2.Token, id string) error
	Delete(ctx context.Context, token *oauth2.Token, id string) error

	// Send sends a new message.
	Send(ctx context.Context, token *oauth2.Token, msg *OutgoingMessage) (*SendResult, error)
}

// ProviderErrorCode represents provider error codes.
type ProviderErrorCode string

const (
	ProviderErrAuth         ProviderErrorCode = "auth_error"
	ProviderErrTokenExpired ProviderErrorCode = "token_expired"
	ProviderErrRateLimit    ProviderErrorCode = "rate_limit"
	ProviderErrNotFound     ProviderErrorCode = "not_found"
	ProviderErrNetwork      ProviderErrorCode = "network_error"
	ProviderErrServer       ProviderErrorCode = "server_error"
	ProviderErrInvalidInput ProviderErrorCode = "invalid_input"
)

// ProviderError represents a provider error.
type ProviderError struct {
	Provider  string
	Code      ProviderErrorCode
	Message   string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new provider error.
func NewProviderError(provider string, code ProviderErrorCode, message string, err error, retryable bool) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Code:      code,
		Message:   message,
		Err:       err,
		Retryable: retryable,
	}
}
