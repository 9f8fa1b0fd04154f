package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"sitedesk-backend/internal/auth"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type LogOptions struct {
	SiteID      *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

type Writer struct {
	repo store.AuditRepository
	log  *slog.Logger
}

func NewWriter(repo store.AuditRepository, log *slog.Logger) *Writer {
	return &Writer{repo: repo, log: log}
}

func snapshot(v any) string {
	// jsonb wants "null", not an empty string
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func (w *Writer) WriteLog(ctx context.Context, opts LogOptions) error {
	entry := models.AuditLog{
		SiteID:      opts.SiteID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}
	if err := w.repo.Create(ctx, &entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Record writes an entry on behalf of the request's user. A failed audit
// write is logged and never fails the request.
func (w *Writer) Record(c *fiber.Ctx, opts LogOptions) {
	opts.UserID, opts.UserName = auth.CurrentUser(c)
	if err := w.WriteLog(c.UserContext(), opts); err != nil {
		w.log.Warn("audit log not written",
			"entity_type", opts.EntityType, "entity_id", opts.EntityID, "action", opts.Action, "err", err)
	}
}

// SiteRef is a convenience for LogOptions.SiteID.
func SiteRef(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
