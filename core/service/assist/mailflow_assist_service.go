package assist

import (
	"context"
	"strings"
	"time"

	"mailflow_server/core/agent/llm"
	"mailflow_server/core/domain"
	"mailflow_server/core/port/out"
	"mailflow_server/pkg/logger"
)

const defaultContextLimit = 30

// Answer is the assistant's reply to one query.
type Answer struct {
	Text     string          `json:"text"`
	Relevant []*domain.Email `json:"relevant"`
	Source   string          `json:"source"` // remote or local
}

// Service resolves assistant queries. With a text generation provider
// configured it asks the model; otherwise, or on any provider failure,
// it composes the deterministic local answer. The relevant subset is
// identical on both paths.
type Service struct {
	interp       *Interpreter
	textgen      out.TextGenerationProvider
	contextLimit int
	log          *logger.Logger
	now          func() time.Time
}

// NewService creates an assistant service. textgen may be nil for
// local-only operation.
func NewService(interp *Interpreter, textgen out.TextGenerationProvider, contextLimit int, log *logger.Logger) *Service {
	if interp == nil {
		interp = NewInterpreter()
	}
	if contextLimit <= 0 {
		contextLimit = defaultContextLimit
	}
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		interp:       interp,
		textgen:      textgen,
		contextLimit: contextLimit,
		log:          log,
		now:          time.Now,
	}
}

// Relevant exposes the interpreter for callers that only need the
// matching subset.
func (s *Service) Relevant(query string, emails []*domain.Email) []*domain.Email {
	return s.interp.Relevant(query, emails, s.now())
}

// Ask answers the query against the snapshot. A provider failure is
// logged and the local answer returned; no error surfaces to the user.
func (s *Service) Ask(ctx context.Context, query string, emails []*domain.Email) *Answer {
	relevant := s.interp.Relevant(query, emails, s.now())

	if s.textgen != nil {
		if text, ok := s.askRemote(ctx, query, relevant); ok {
			return &Answer{Text: text, Relevant: relevant, Source: "remote"}
		}
	}

	return &Answer{
		Text:     ComposeLocalAnswer(query, emails, relevant, s.now()),
		Relevant: relevant,
		Source:   "local",
	}
}

func (s *Service) askRemote(ctx context.Context, query string, relevant []*domain.Email) (string, bool) {
	prompt, err := llm.BuildAnswerPrompt(query, relevant, s.contextLimit)
	if err != nil {
		s.log.WithError(err).Warn("assistant prompt build failed, falling back to local answer")
		return "", false
	}

	text, err := s.textgen.Complete(ctx, prompt)
	if err != nil {
		s.log.WithError(err).WithField("provider", s.textgen.Name()).
			Warn("assistant completion failed, falling back to local answer")
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		s.log.WithField("provider", s.textgen.Name()).
			Warn("assistant returned empty completion, falling back to local answer")
		return "", false
	}
	return text, true
}
