package http

import (
	"mailflow_server/core/domain"
	"mailflow_server/core/service/assist"
	"mailflow_server/core/service/mailbox"
	"mailflow_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// MailboxHandler handles mailbox API endpoints.
type MailboxHandler struct {
	svc *mailbox.Service
}

// NewMailboxHandler creates a new MailboxHandler.
func NewMailboxHandler(svc *mailbox.Service) *MailboxHandler {
	return &MailboxHandler{svc: svc}
}

// Register registers mailbox routes.
func (h *MailboxHandler) Register(app fiber.Router) {
	mb := app.Group("/mailbox")
	mb.Post("/refresh", h.Refresh)
	mb.Get("/", h.ListPage)
	mb.Put("/filter", h.SetFilter)
	mb.Put("/search", h.Search)
	mb.Put("/page", h.SetPage)
	mb.Get("/stats", h.Stats)
	mb.Get("/categories", h.CategoryCounts)
	mb.Post("/reset", h.Reset)
	mb.Post("/recategorize", h.Recategorize)
	mb.Post("/send", h.Send)
	mb.Post("/read", h.MarkSelectedRead)
	mb.Post("/select-all", h.SelectAll)
	mb.Delete("/", h.TrashSelected)
	mb.Post("/:id/star", h.ToggleStar)
	mb.Post("/:id/read", h.MarkRead)
	mb.Post("/:id/unread", h.MarkUnread)
	mb.Post("/:id/select", h.ToggleSelect)
	mb.Post("/:id/restore", h.Restore)
	mb.Delete("/:id/permanent", h.DeleteForever)
	mb.Delete("/:id", h.Trash)
}

// =============================================================================
// Snapshot
// =============================================================================

// Refresh fetches the inbox from the provider, categorizes it and
// replaces the snapshot.
// POST /mailbox/refresh
func (h *MailboxHandler) Refresh(c *fiber.Ctx) error {
	token, err := GetToken(c)
	if err != nil {
		return err
	}

	count, err := h.svc.Refresh(c.Context(), token)
	if err != nil {
		return err
	}

	return SuccessResponse(c, fiber.Map{
		"count": count,
		"page":  h.svc.Store().Page(1),
		"stats": h.svc.Store().Stats(),
	})
}

// ListPage returns one page of the current view. Without an explicit
// page parameter it serves the page the view is currently on.
// GET /mailbox?page=1
func (h *MailboxHandler) ListPage(c *fiber.Ctx) error {
	store := h.svc.Store()
	page := c.QueryInt("page", 0)
	if page < 1 {
		page = store.CurrentPage()
	}
	return SuccessResponse(c, fiber.Map{
		"filter": store.Filter(),
		"page":   store.Page(page),
	})
}

// SetFilter switches the current view.
// PUT /mailbox/filter {"filter": "work"}
func (h *MailboxHandler) SetFilter(c *fiber.Ctx) error {
	var body struct {
		Filter string `json:"filter"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	filter, ok := domain.ParseFilter(body.Filter)
	if !ok {
		return apperr.InvalidInput("filter", "unknown filter name")
	}

	h.svc.Store().SetFilter(filter)
	return SuccessResponse(c, fiber.Map{
		"filter": filter,
		"page":   h.svc.Store().Page(1),
	})
}

// Search runs a plain substring search over the whole snapshot and
// pins the view to the results.
// PUT /mailbox/search {"query": "invoice"}
func (h *MailboxHandler) Search(c *fiber.Ctx) error {
	var body struct {
		Query string `json:"query"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	results := h.svc.Store().Search(body.Query)
	return SuccessResponse(c, fiber.Map{
		"summary": assist.ComposeSearchSummary(body.Query, results),
		"total":   len(results),
		"page":    h.svc.Store().Page(1),
	})
}

// SetPage moves the current view to another page, either an absolute
// page number or a relative move. Out-of-range pages are clamped.
// PUT /mailbox/page {"page": 2} or {"move": "next"}
func (h *MailboxHandler) SetPage(c *fiber.Ctx) error {
	var body struct {
		Page int    `json:"page"`
		Move string `json:"move"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	store := h.svc.Store()
	var page *domain.EmailPage
	switch {
	case body.Move == "next":
		page = store.NextPage()
	case body.Move == "prev":
		page = store.PrevPage()
	case body.Page >= 1:
		page = store.SetPage(body.Page)
	default:
		return apperr.InvalidInput("page", "need a page number or a next/prev move")
	}
	return SuccessResponse(c, fiber.Map{"page": page})
}

// Stats returns the snapshot counters.
// GET /mailbox/stats
func (h *MailboxHandler) Stats(c *fiber.Ctx) error {
	return SuccessResponse(c, h.svc.Store().Stats())
}

// CategoryCount pairs a category with its email count.
type CategoryCount struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
}

// CategoryCounts returns per-category counts in display order.
// GET /mailbox/categories
func (h *MailboxHandler) CategoryCounts(c *fiber.Ctx) error {
	stats := h.svc.Store().Stats()

	counts := make([]CategoryCount, 0, len(domain.AllCategories))
	for _, cat := range domain.AllCategories {
		counts = append(counts, CategoryCount{Category: cat, Count: stats.Categories[cat]})
	}
	return SuccessResponse(c, fiber.Map{
		"categories": counts,
		"total":      stats.Total,
	})
}

// Reset drops the snapshot, used on sign-out.
// POST /mailbox/reset
func (h *MailboxHandler) Reset(c *fiber.Ctx) error {
	h.svc.Store().Reset(nil)
	return SuccessResponse(c, fiber.Map{"reset": true})
}

// Recategorize reruns categorization over the loaded snapshot, used
// after changing the keyword table or AI provider settings.
// POST /mailbox/recategorize
func (h *MailboxHandler) Recategorize(c *fiber.Ctx) error {
	count := h.svc.Recategorize(c.Context())
	return SuccessResponse(c, fiber.Map{"count": count})
}

// =============================================================================
// Single Email Actions
// =============================================================================

// ToggleStar flips the star flag locally and on the provider.
// POST /mailbox/:id/star
func (h *MailboxHandler) ToggleStar(c *fiber.Ctx) error {
	token, err := GetToken(c)
	if err != nil {
		return err
	}

	email, err := h.svc.ToggleStar(c.Context(), token, c.Params("id"))
	if err != nil {
		return err
	}
	return SuccessResponse(c, email)
}

// MarkRead clears the unread flag.
// POST /mailbox/:id/read
func (h *MailboxHandler) MarkRead(c *fiber.Ctx) error {
	token, err := GetToken(c)
	if err != nil {
		return err
	}

	if err := h.svc.MarkAsRead(c.Context(), token, c.Params("id")); err != nil {
		return err
	}
	return SuccessResponse(c, fiber.Map{"read": true})
}

// MarkUnread restores the unread flag.
// POST /mailbox/:id/unread
func (h *MailboxHandler) MarkUnread(c *fiber.Ctx) error {
	token, err := GetToken(c)
	if err != nil {
		return err
	}

	if err := h.svc.MarkAsUnread(c.Context(), token, c.Params("id")); err != nil {
		return err
	}
	return SuccessResponse(c, fiber.Map{"read": false})
}

// Trash moves one email to the trash.
// DELETE /mailbox/:id
func (h *MailboxHandler) Trash(c *fiber.Ctx) error {
	token, err := GetToken(c)
	if err != nil {
		return err
	}

	if err := h.svc.Trash(c.Context(), token, c.Params("id")); err != nil {
		return err
	}
	return SuccessResponse(c, fiber.Map{"trashed": true})
}

// Restore moves one email back out of the trash.
// POST /mailbox/:id/restore
func (h *MailboxHandler) Restore(c *fiber.Ctx) error {
	token, err := GetToken(c)
	if err != nil {
		return err
	}

	if err := h.svc.Untrash(c.Context(), token, c.Params("id")); err != nil {
		return err
	}
	return SuccessResponse(c, fiber.Map{"restored": true})
}

// DeleteForever permanently deletes a trashed email.
// DELETE /mailbox/:id/permanent
func (h *MailboxHandler) DeleteForever(c *fiber.Ctx) error {
	token, err := GetToken(c)
	if err != nil {
		return err
	}

	if err := h.svc.DeleteForever(c.Context(), token, c.Params("id")); err != nil {
		return err
	}
	return SuccessResponse(c, fiber.Map{"deleted": true})
}

// =============================================================================
// Selection and Bulk Actions
// =============================================================================

// ToggleSelect flips selection for one email.
// POST /mailbox/:id/select
func (h *MailboxHandler) ToggleSelect(c *fiber.Ctx) error {
	selected := h.svc.Store().ToggleSelected(utils.CopyString(c.Params("id")))
	return SuccessResponse(c, fiber.Map{"selected": selected})
}

// SelectAll toggles selection for the whole current page.
// POST /mailbox/select-all {"page": 1}
func (h *MailboxHandler) SelectAll(c *fiber.Ctx) error {
	var body struct {
		Page int `json:"page"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	count := h.svc.Store().TogglePageSelection(body.Page)
	return SuccessResponse(c, fiber.Map{"selected_count": count})
}

// MarkSelectedRead marks every selected email read.
// POST /mailbox/read
func (h *MailboxHandler) MarkSelectedRead(c *fiber.Ctx) error {
	token, err := GetToken(c)
	if err != nil {
		return err
	}

	processed, err := h.svc.MarkSelectedAsRead(c.Context(), token)
	if err != nil {
		return err
	}
	return SuccessResponse(c, fiber.Map{"processed": processed})
}

// TrashSelected moves every selected email to the trash.
// DELETE /mailbox
func (h *MailboxHandler) TrashSelected(c *fiber.Ctx) error {
	token, err := GetToken(c)
	if err != nil {
		return err
	}

	processed, err := h.svc.TrashSelected(c.Context(), token)
	if err != nil {
		return err
	}
	return SuccessResponse(c, fiber.Map{"processed": processed})
}

// =============================================================================
// Sending
// =============================================================================

// SendRequest is the body for POST /mailbox/send.
type SendRequest struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Send sends a new message.
// POST /mailbox/send
func (h *MailboxHandler) Send(c *fiber.Ctx) error {
	token, err := GetToken(c)
	if err != nil {
		return err
	}

	var req SendRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	result, err := h.svc.Send(c.Context(), token, req.To, req.Subject, req.Body)
	if err != nil {
		return err
	}
	return SuccessResponse(c, result)
}
