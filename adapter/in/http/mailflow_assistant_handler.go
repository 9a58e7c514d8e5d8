package http

import (
	"mailflow_server/core/service/assist"
	"mailflow_server/core/service/mailbox"
	"mailflow_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// AssistantHandler answers natural language queries over the mailbox.
type AssistantHandler struct {
	assist *assist.Service
	svc    *mailbox.Service
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(as *assist.Service, svc *mailbox.Service) *AssistantHandler {
	return &AssistantHandler{assist: as, svc: svc}
}

// Register registers assistant routes.
func (h *AssistantHandler) Register(app fiber.Router) {
	grp := app.Group("/assistant")
	grp.Post("/query", h.Query)
}

// QueryRequest is the body for POST /assistant/query.
type QueryRequest struct {
	Query string `json:"query"`
}

// Query routes the input the way the search box does. Question-shaped
// input goes to the assistant and pins the view to the relevant
// emails. Anything else runs a plain substring search.
// POST /assistant/query
func (h *AssistantHandler) Query(c *fiber.Ctx) error {
	var req QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if req.Query == "" {
		return apperr.MissingField("query")
	}

	store := h.svc.Store()

	if !assist.IsAssistantQuery(req.Query) {
		results := store.Search(req.Query)
		return SuccessResponse(c, fiber.Map{
			"answer": assist.ComposeSearchSummary(req.Query, results),
			"source": "search",
			"total":  len(results),
			"page":   store.Page(1),
		})
	}

	answer := h.assist.Ask(c.Context(), req.Query, store.Emails())

	ids := make([]string, 0, len(answer.Relevant))
	for _, e := range answer.Relevant {
		ids = append(ids, e.ID)
	}
	store.SetQueryResults(ids)

	return SuccessResponse(c, fiber.Map{
		"answer": answer.Text,
		"source": answer.Source,
		"total":  len(answer.Relevant),
		"page":   store.Page(1),
	})
}
