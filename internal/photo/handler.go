package photo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sitedesk-backend/internal/api"
	"sitedesk-backend/internal/audit"
	"sitedesk-backend/internal/auth"
	"sitedesk-backend/internal/blob"
	"sitedesk-backend/internal/models"
	"sitedesk-backend/internal/site"
	"sitedesk-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Deps struct {
	Store    *store.Store
	Blobs    blob.Store
	Audit    *audit.Writer
	Log      *slog.Logger
	MaxBytes int
	// Client fetches remote images on import; nil uses a 30s-timeout client.
	Client *http.Client
}

type CreatePhotoRequest struct {
	SiteID      uint   `json:"siteId" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	Category    string `json:"category" validate:"max=100"`
	ImageURL    string `json:"imageUrl" validate:"required,url,max=500"`
	UploadedBy  string `json:"uploadedBy" validate:"max=100"`
	UploadDate  string `json:"uploadDate" validate:"omitempty,datetime=2006-01-02"`
}

type UploadPhotoForm struct {
	SiteID      uint   `json:"siteId" form:"siteId" validate:"required,gt=0"`
	Title       string `json:"title" form:"title" validate:"max=200"`
	Description string `json:"description" form:"description" validate:"max=1000"`
	Category    string `json:"category" form:"category" validate:"max=100"`
	UploadedBy  string `json:"uploadedBy" form:"uploadedBy" validate:"max=100"`
}

type UpdatePhotoRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
}

// POST /api/photos registers a photo hosted elsewhere by its URL.
func CreatePhotoHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePhotoRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}
		if err := checkURL(body.ImageURL); err != nil {
			return api.Invalid("imageUrl", err.Error())
		}
		if err := site.RequireSite(c, d.Store, body.SiteID); err != nil {
			return err
		}

		p := models.Photo{
			SiteID:      body.SiteID,
			Title:       strings.TrimSpace(body.Title),
			Description: body.Description,
			Category:    strings.TrimSpace(body.Category),
			ImageURL:    body.ImageURL,
			UploadedBy:  body.UploadedBy,
			UploadDate:  time.Now(),
		}
		if date, _ := api.ParseDate(body.UploadDate); !date.IsZero() {
			p.UploadDate = date
		}
		if p.UploadedBy == "" {
			_, p.UploadedBy = auth.CurrentUser(c)
		}

		if err := d.Store.Photos.Create(c.UserContext(), &p); err != nil {
			return fmt.Errorf("create photo: %w", err)
		}
		d.Audit.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(p.SiteID),
			EntityType:  "photo",
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Photo linked: %s", p.Title),
			After:       p,
		})
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// POST /api/photos/upload (multipart: file, siteId, title, description, category, uploadedBy)
func UploadPhotoHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form UploadPhotoForm
		if err := c.BodyParser(&form); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid multipart form")
		}
		if err := api.Validate(&form); err != nil {
			return err
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return api.Invalid("file", "is required")
		}
		if d.MaxBytes > 0 && fh.Size > int64(d.MaxBytes) {
			return api.Invalid("file", fmt.Sprintf("must be at most %d bytes", d.MaxBytes))
		}
		if err := site.RequireSite(c, d.Store, form.SiteID); err != nil {
			return err
		}

		f, err := fh.Open()
		if err != nil {
			return fmt.Errorf("open upload: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return fmt.Errorf("read upload: %w", err)
		}

		contentType, ext, err := sniff(data)
		if err != nil {
			return api.Invalid("file", err.Error())
		}
		thumb, err := Thumbnail(data)
		if err != nil {
			return api.Invalid("file", err.Error())
		}

		ctx := c.UserContext()
		name := uuid.NewString()
		imageKey := fmt.Sprintf("sites/%d/%s%s", form.SiteID, name, ext)
		thumbKey := fmt.Sprintf("sites/%d/thumbs/%s.jpg", form.SiteID, name)

		if err := d.Blobs.Put(ctx, imageKey, bytes.NewReader(data), contentType); err != nil {
			return fmt.Errorf("store image: %w", err)
		}
		if err := d.Blobs.Put(ctx, thumbKey, bytes.NewReader(thumb), "image/jpeg"); err != nil {
			d.removeBlobs(c, imageKey)
			return fmt.Errorf("store thumbnail: %w", err)
		}

		p := models.Photo{
			SiteID:       form.SiteID,
			Title:        strings.TrimSpace(form.Title),
			Description:  form.Description,
			Category:     strings.TrimSpace(form.Category),
			ImageKey:     imageKey,
			ThumbnailKey: thumbKey,
			ContentType:  contentType,
			UploadedBy:   form.UploadedBy,
			UploadDate:   time.Now(),
		}
		if p.Title == "" {
			p.Title = fh.Filename
		}
		if p.UploadedBy == "" {
			_, p.UploadedBy = auth.CurrentUser(c)
		}

		if err := d.Store.Photos.Create(ctx, &p); err != nil {
			d.removeBlobs(c, imageKey, thumbKey)
			return fmt.Errorf("create photo: %w", err)
		}

		d.Audit.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(p.SiteID),
			EntityType:  "photo",
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Photo uploaded: %s (%d bytes)", p.Title, len(data)),
			After:       p,
		})
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

func (d Deps) removeBlobs(c *fiber.Ctx, keys ...string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := d.Blobs.Delete(c.UserContext(), k); err != nil {
			d.Log.Warn("blob not removed", "key", k, "err", err)
		}
	}
}

// GET /api/photos?siteId=&from=&to=
func ListPhotosHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := api.ParseQuery(c)
		if err != nil {
			return err
		}
		photos, err := d.Store.Photos.List(c.UserContext(), q)
		if err != nil {
			return err
		}
		if cat := c.Query("category"); cat != "" {
			filtered := photos[:0]
			for _, p := range photos {
				if strings.EqualFold(p.Category, cat) {
					filtered = append(filtered, p)
				}
			}
			photos = filtered
		}
		return c.JSON(photos)
	}
}

// GET /api/photos/:id
func GetPhotoHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		p, err := d.Store.Photos.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "photo")
		}
		return c.JSON(p)
	}
}

// GET /api/photos/:id/image and /api/photos/:id/thumbnail
func ServePhotoHandler(d Deps, thumbnail bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		p, err := d.Store.Photos.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "photo")
		}

		key := p.ImageKey
		if thumbnail {
			key = p.ThumbnailKey
		}
		if key == "" {
			if p.ImageURL != "" {
				return c.Redirect(p.ImageURL, fiber.StatusFound)
			}
			return fiber.NewError(fiber.StatusNotFound, "photo has no stored image")
		}

		rc, contentType, err := d.Blobs.Get(c.UserContext(), key)
		if errors.Is(err, blob.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "image file missing")
		}
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, contentType)
		c.Set(fiber.HeaderCacheControl, "private, max-age=86400")
		return c.SendStream(rc)
	}
}

// PUT /api/photos/:id
func UpdatePhotoHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		p, err := d.Store.Photos.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "photo")
		}
		before := p

		var body UpdatePhotoRequest
		if err := api.Bind(c, &body); err != nil {
			return err
		}
		if body.Title != nil {
			title := strings.TrimSpace(*body.Title)
			if title == "" {
				return api.Invalid("title", "must not be empty")
			}
			p.Title = title
		}
		if body.Description != nil {
			p.Description = *body.Description
		}
		if body.Category != nil {
			p.Category = strings.TrimSpace(*body.Category)
		}

		if err := d.Store.Photos.Update(c.UserContext(), &p); err != nil {
			return api.NotFound(err, "photo")
		}
		d.Audit.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(p.SiteID),
			EntityType:  "photo",
			EntityID:    p.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Photo updated: %s", p.Title),
			Before:      before,
			After:       p,
		})
		return c.JSON(p)
	}
}

// DELETE /api/photos/:id removes the row and its stored files.
func DeletePhotoHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := api.ParseID(c, "id")
		if err != nil {
			return err
		}
		p, err := d.Store.Photos.Get(c.UserContext(), id)
		if err != nil {
			return api.NotFound(err, "photo")
		}
		if err := d.Store.Photos.Delete(c.UserContext(), id); err != nil {
			return api.NotFound(err, "photo")
		}
		d.removeBlobs(c, p.ImageKey, p.ThumbnailKey)

		d.Audit.Record(c, audit.LogOptions{
			SiteID:      audit.SiteRef(p.SiteID),
			EntityType:  "photo",
			EntityID:    p.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Photo deleted: %s", p.Title),
			Before:      p,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
