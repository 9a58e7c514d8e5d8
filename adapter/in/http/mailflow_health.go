package http

import (
	"strconv"
	"time"

	"mailflow_server/core/port/out"
	"mailflow_server/core/service/mailbox"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	svc     *mailbox.Service
	textgen out.TextGenerationProvider
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func NewHealthHandlerWithDeps(svc *mailbox.Service, textgen out.TextGenerationProvider) *HealthHandler {
	return &HealthHandler{
		svc:     svc,
		textgen: textgen,
	}
}

func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/ready", h.Ready)
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := make(map[string]string)

	if h.svc != nil {
		checks["mailbox"] = "ready"
		checks["snapshot_size"] = strconv.Itoa(h.svc.Store().Len())
	} else {
		checks["mailbox"] = "not configured"
	}

	if h.textgen != nil {
		checks["ai_provider"] = h.textgen.Name()
	} else {
		checks["ai_provider"] = "not configured"
	}

	return c.JSON(fiber.Map{
		"status":    "ready",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
