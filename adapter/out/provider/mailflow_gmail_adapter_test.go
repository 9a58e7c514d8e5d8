package provider

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"mailflow_server/core/port/out"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
)

func newTestAdapter() *GmailAdapter {
	return NewGmailAdapter(&GmailConfig{ClientID: "id", ClientSecret: "secret"}, nil)
}

func TestConvertMessage(t *testing.T) {
	a := newTestAdapter()

	msg := &gmail.Message{
		Id:           "msg-1",
		ThreadId:     "thread-1",
		Snippet:      "Your invoice is overdue",
		InternalDate: 1715680800000,
		LabelIds:     []string{"INBOX", "UNREAD", "STARRED"},
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Invoice due ASAP"},
				{Name: "From", Value: "Acme Billing <billing@acme.com>"},
			},
			MimeType: "text/plain",
			Body: &gmail.MessagePartBody{
				Data: base64.URLEncoding.EncodeToString([]byte("Please pay now.")),
			},
		},
	}

	email := a.convertMessage(msg)
	if email.ID != "msg-1" || email.ThreadID != "thread-1" {
		t.Errorf("ids = %s/%s", email.ID, email.ThreadID)
	}
	if email.From != "Acme Billing" || email.FromEmail != "billing@acme.com" {
		t.Errorf("from = %q / %q", email.From, email.FromEmail)
	}
	if !email.Unread || !email.Starred {
		t.Errorf("flags = unread %v starred %v", email.Unread, email.Starred)
	}
	if email.Body != "Please pay now." {
		t.Errorf("body = %q", email.Body)
	}
}

func TestConvertMessageDefaultsSubject(t *testing.T) {
	a := newTestAdapter()
	email := a.convertMessage(&gmail.Message{Id: "x", Payload: &gmail.MessagePart{}})
	if email.Subject != "(No Subject)" {
		t.Errorf("Subject = %q", email.Subject)
	}
}

func TestExtractBodyPrefersPlainText(t *testing.T) {
	a := newTestAdapter()

	part := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "text/html",
				Body:     &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte("<p>hi</p>"))},
			},
			{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte("hi"))},
			},
		},
	}

	if got := a.extractBody(part); got != "hi" {
		t.Errorf("extractBody() = %q, want plain text part", got)
	}
}

func TestBuildRawMessage(t *testing.T) {
	a := newTestAdapter()

	raw := a.buildRawMessage(&out.OutgoingMessage{
		To:      []string{"x@y.com", "z@y.com"},
		Subject: "Hello",
		Body:    "Body text",
	})

	if !strings.Contains(raw, "To: x@y.com, z@y.com\r\n") {
		t.Errorf("missing To header: %q", raw)
	}
	if !strings.Contains(raw, "Subject: Hello\r\n") {
		t.Errorf("missing Subject header: %q", raw)
	}
	if !strings.Contains(raw, "Content-Type: text/plain; charset=UTF-8\r\n") {
		t.Errorf("missing Content-Type: %q", raw)
	}
	if !strings.HasSuffix(raw, "\r\nBody text") {
		t.Errorf("body not last: %q", raw)
	}
}

func TestWrapErrorMapsAPICodes(t *testing.T) {
	a := newTestAdapter()

	tests := []struct {
		name     string
		err      error
		wantCode out.ProviderErrorCode
	}{
		{"401 token expired", &googleapi.Error{Code: 401}, out.ProviderErrTokenExpired},
		{"403 rate limit", &googleapi.Error{Code: 403, Message: "User Rate Limit Exceeded"}, out.ProviderErrRateLimit},
		{"403 denied", &googleapi.Error{Code: 403, Message: "forbidden"}, out.ProviderErrAuth},
		{"404 not found", &googleapi.Error{Code: 404}, out.ProviderErrNotFound},
		{"429 throttled", &googleapi.Error{Code: 429}, out.ProviderErrRateLimit},
		{"503 server", &googleapi.Error{Code: 503}, out.ProviderErrServer},
		{"plain error", errors.New("dial tcp: timeout"), out.ProviderErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := a.wrapError(tt.err, "request failed")
			var provErr *out.ProviderError
			if !errors.As(wrapped, &provErr) {
				t.Fatalf("wrapError() = %T, want *out.ProviderError", wrapped)
			}
			if provErr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", provErr.Code, tt.wantCode)
			}
		})
	}
}
