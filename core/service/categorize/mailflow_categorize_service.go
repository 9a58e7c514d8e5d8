package categorize

import (
	"context"

	"mailflow_server/core/agent/llm"
	"mailflow_server/core/domain"
	"mailflow_server/core/port/out"
	"mailflow_server/pkg/logger"
)

const defaultBatchSize = 10

// Service runs the two-stage categorization pipeline: keyword pass
// first, then AI refinement in sequential batches when a provider is
// configured.
type Service struct {
	keywords  *KeywordCategorizer
	textgen   out.TextGenerationProvider
	batchSize int
	log       *logger.Logger
}

// NewService creates a categorization service. textgen may be nil, in
// which case only the keyword pass runs.
func NewService(keywords *KeywordCategorizer, textgen out.TextGenerationProvider, batchSize int, log *logger.Logger) *Service {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		keywords:  keywords,
		textgen:   textgen,
		batchSize: batchSize,
		log:       log,
	}
}

// CategorizeAll categorizes every email in place. The keyword pass
// always completes, so every email holds at least one category before
// the AI pass starts. AI batches that fail keep their keyword result.
func (s *Service) CategorizeAll(ctx context.Context, emails []*domain.Email) {
	for _, e := range emails {
		e.Categories = s.keywords.Categorize(e)
	}

	if s.textgen == nil || len(emails) == 0 {
		return
	}
	s.refineWithAI(ctx, emails)
}

// refineWithAI runs batches sequentially. A failed batch is logged and
// skipped; its emails keep the keyword categories.
func (s *Service) refineWithAI(ctx context.Context, emails []*domain.Email) {
	for start := 0; start < len(emails); start += s.batchSize {
		if ctx.Err() != nil {
			s.log.Warn("AI categorization cancelled after %d emails", start)
			return
		}

		end := start + s.batchSize
		if end > len(emails) {
			end = len(emails)
		}
		batch := emails[start:end]

		resp, err := s.textgen.Complete(ctx, llm.BuildCategorizePrompt(batch))
		if err != nil {
			s.log.WithError(err).Warn("AI categorization batch failed, keeping keyword categories")
			continue
		}

		matrix, err := llm.ParseCategoryMatrix(resp)
		if err != nil {
			s.log.WithError(err).Warn("AI categorization reply unparseable, keeping keyword categories")
			continue
		}

		// Rows are applied per index; a short or long matrix never
		// shifts categories onto the wrong email. A row with no valid
		// label keeps that email's keyword tags.
		for i, cats := range matrix {
			if i < len(batch) && len(cats) > 0 {
				batch[i].Categories = cats
			}
		}
	}
}
