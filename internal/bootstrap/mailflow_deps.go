package bootstrap

import (
	"os"

	"mailflow_server/adapter/out/provider"
	"mailflow_server/adapter/out/textgen"
	"mailflow_server/config"
	"mailflow_server/core/domain"
	"mailflow_server/core/port/out"
	"mailflow_server/core/service/assist"
	"mailflow_server/core/service/categorize"
	"mailflow_server/core/service/mailbox"
	"mailflow_server/pkg/logger"

	"github.com/rs/zerolog"
)

// Dependencies holds every wired component of the server.
type Dependencies struct {
	Config *config.Config

	// Outbound adapters
	MailProvider out.MailProviderPort
	TextGen      out.TextGenerationProvider

	// Services
	CategorizeService *categorize.Service
	AssistService     *assist.Service
	MailboxService    *mailbox.Service
}

// NewDependencies wires adapters and services from the configuration.
// The returned cleanup releases nothing today but keeps the call shape
// stable for callers.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	log := logger.Default()

	gmail := provider.NewGmailAdapter(&provider.GmailConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	}, log)

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	textGen := textgen.NewProvider(cfg, zlog)
	if textGen == nil {
		logger.Warn("no AI provider configured, assistant runs local-only")
	} else {
		logger.Info("AI provider configured: %s", textGen.Name())
	}

	var keywordTable domain.KeywordTable
	if cfg.CategoryKeywordsJSON != "" {
		table, err := categorize.TableFromJSON(cfg.CategoryKeywordsJSON)
		if err != nil {
			logger.WithError(err).Warn("invalid CATEGORY_KEYWORDS_JSON, using built-in keyword table")
		} else {
			keywordTable = table
		}
	}

	categorizeSvc := categorize.NewService(
		categorize.NewKeywordCategorizer(keywordTable),
		textGen,
		cfg.CategorizeBatch,
		log,
	)

	assistSvc := assist.NewService(
		assist.NewInterpreter(),
		textGen,
		cfg.AnswerContextLimit,
		log,
	)

	mailboxSvc := mailbox.NewService(
		mailbox.NewStore(cfg.EmailsPerPage),
		gmail,
		categorizeSvc,
		cfg.MaxEmailsToFetch,
		cfg.FetchConcurrency,
		log,
	)

	deps := &Dependencies{
		Config:            cfg,
		MailProvider:      gmail,
		TextGen:           textGen,
		CategorizeService: categorizeSvc,
		AssistService:     assistSvc,
		MailboxService:    mailboxSvc,
	}

	cleanup := func() {}

	return deps, cleanup, nil
}
