package note

import (
	"fmt"
	"sort"
	"strings"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/audit"
	"sitedesk-backend/internal/auth"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/site"
	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type CreateNoteRequest struct {
	SiteID    uint   `json:"siteId" validate:"required,gt=0"`
	Title     string `json:"title" validate:"required,max=200"`
	Content   string `json:"content"`
	Category  string `json:"category" validate:"max=100"`
	Priority  string `json:"priority" validate:"omitempty,oneof=low medium high"`
	CreatedBy string `json:"createdBy" validate:"max=100"`
}

type UpdateNoteRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content  *string `json:"content"`
	Category *string `json:"category" validate:"omitempty,max=100"`
	Priority *string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

var priorityRank = map[models.NotePriority]int{
	models.PriorityHigh:   0,
	models.PriorityMedium: 1,
	models.PriorityLow:    2,
}

// POST /api/notes
func CreateNoteHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateNoteRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}
		if err := site.RequireSite(c, st, body.SiteID); err != nil {
			return err
		}

		n := models.Note{
			SiteID:    body.SiteID,
			Title:     strings.TrimSpace(body.Title),
			Content:   body.Content,
			Category:  strings.TrimSpace(body.Category),
			Priority:  models.PriorityMedium,
			CreatedBy: body.CreatedBy,
		}
		if n.Title == "" {
			return api.Invalid("title", "is required")
		}
		if body.Priority != "" {
			n.Priority = models.NotePriority(body.Priority)
		}
		if n.CreatedBy == "" {
			_, n.CreatedBy = auth.CurrentUser(c)
		}

		if err := st.Notes.Create(c.UserContext(), &n); err != nil {
			return fmt.Errorf("create note: %w", err)
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(n.SiteID),
			EntityType:  "note",
			EntityID:    n.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Note: %s", n.Title),
			After:       n,
		})

		return c.Status(fiber.StatusCreated).JSON(n)
	}
}

// GET /api/notes?siteId=&priority=
//
// High priority first, newest first within a priority.
func ListNotesHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := api.ParseQuery(c)
		if err != nil {
			return err
		}
		notes, err := st.Notes.List(c.UserContext(), q)
		if err != nil {
			return err
		}
		if p := c.Query("priority"); p != "" {
			filtered := notes[:0]
			for _, n := range notes {
				if string(n.Priority) == p {
					filtered = append(filtered, n)
				}
			}
			notes = filtered
		}
		sort.SliceStable(notes, func(i, j int) bool {
			ri, rj := priorityRank[notes[i].Priority], priorityRank[notes[j].Priority]
			if ri != rj {
				return ri < rj
			}
			return notes[i].CreatedAt.After(notes[j].CreatedAt)
		})
		return c.JSON(notes)
	}
}

// GET /api/notes/:id
func GetNoteHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		n, err := st.Notes.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "note")
		}
		return c.JSON(n)
	}
}

// PUT /api/notes/:id
func UpdateNoteHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		n, err := st.Notes.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "note")
		}
		before := n

		var body UpdateNoteRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}
		if body.Title != nil {
			title := strings.TrimSpace(*body.Title)
			if title == "" {
				return api.Invalid("title", "must not be empty")
			}
			n.Title = title
		}
		if body.Content != nil {
			n.Content = *body.Content
		}
		if body.Category != nil {
			n.Category = strings.TrimSpace(*body.Category)
		}
		if body.Priority != nil {
			n.Priority = models.NotePriority(*body.Priority)
		}

		if err := st.Notes.Update(c.UserContext(), &n); err != nil {
			return api.NotFound(err, "note")
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(n.SiteID),
			EntityType:  "note",
			EntityID:    n.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Note updated: %s", n.Title),
			Before:      before,
			After:       n,
		})

		return c.JSON(n)
	}
}

// DELETE /api/notes/:id
func DeleteNoteHandler(st *store.Store, aw *audit.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		n, err := st.Notes.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "note")
		}
		if err := st.Notes.Delete(c.UserContext(), id); err != nil {
			return api.NotFound(err, "note")
		}

		aw.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(n.SiteID),
			EntityType:  "note",
			EntityID:    n.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Note deleted: %s", n.Title),
			Before:      n,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
